package captcha

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/lakelandsports/cms/internal/common"
	"github.com/lakelandsports/cms/internal/logging"
)

type nopLogger struct{}

func (nopLogger) Info(context.Context, string, ...any)  {}
func (nopLogger) Warn(context.Context, string, ...any)  {}
func (nopLogger) Error(context.Context, string, ...any) {}
func (l nopLogger) With(...any) logging.Logger          { return l }

type fakeSource struct {
	secret    string
	threshold float64
	calls     int
}

func (f *fakeSource) CaptchaConfig(ctx context.Context) (string, float64, error) {
	f.calls++
	return f.secret, f.threshold, nil
}

// scoreServer answers every verification request with the given payload.
func scoreServer(t *testing.T, success bool, score float64) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse form: %v", err)
		}
		if r.PostForm.Get("secret") == "" || r.PostForm.Get("response") == "" {
			t.Errorf("missing secret or response in %v", r.PostForm)
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"success":%t,"score":%g}`, success, score)
	}))
}

func TestVerify_Passes(t *testing.T) {
	srv := scoreServer(t, true, 0.9)
	defer srv.Close()

	v := NewVerifier(&fakeSource{secret: "sec", threshold: 0.5}, srv.URL, false, nopLogger{})

	if err := v.Verify(context.Background(), "tok", "login"); err != nil {
		t.Fatalf("Verify error: %v", err)
	}
}

func TestVerify_ScoreBelowThreshold(t *testing.T) {
	srv := scoreServer(t, true, 0.3)
	defer srv.Close()

	v := NewVerifier(&fakeSource{secret: "sec", threshold: 0.5}, srv.URL, false, nopLogger{})

	err := v.Verify(context.Background(), "tok", "login")
	if !errors.Is(err, common.ErrBotCheckFailed) {
		t.Fatalf("expected ErrBotCheckFailed, got %v", err)
	}
}

func TestVerify_ServiceRejects(t *testing.T) {
	srv := scoreServer(t, false, 0.9)
	defer srv.Close()

	v := NewVerifier(&fakeSource{secret: "sec", threshold: 0.5}, srv.URL, false, nopLogger{})

	err := v.Verify(context.Background(), "tok", "login")
	if !errors.Is(err, common.ErrBotCheckFailed) {
		t.Fatalf("expected ErrBotCheckFailed, got %v", err)
	}
}

func TestVerify_NoSecret(t *testing.T) {
	// No secret configured: the outcome depends solely on the fail-open flag.
	open := NewVerifier(&fakeSource{}, "http://unused.invalid", true, nopLogger{})
	if err := open.Verify(context.Background(), "tok", "contact"); err != nil {
		t.Fatalf("fail-open should skip verification, got %v", err)
	}

	closed := NewVerifier(&fakeSource{}, "http://unused.invalid", false, nopLogger{})
	err := closed.Verify(context.Background(), "tok", "contact")
	if !errors.Is(err, common.ErrBotCheckFailed) {
		t.Fatalf("fail-closed should reject, got %v", err)
	}
}

func TestConfigCache(t *testing.T) {
	srv := scoreServer(t, true, 0.9)
	defer srv.Close()

	source := &fakeSource{secret: "sec", threshold: 0.5}
	v := NewVerifier(source, srv.URL, false, nopLogger{})

	clock := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	v.now = func() time.Time { return clock }

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		if err := v.Verify(ctx, "tok", "login"); err != nil {
			t.Fatalf("Verify %d: %v", i, err)
		}
	}
	if source.calls != 1 {
		t.Fatalf("expected a single config fetch within the TTL, got %d", source.calls)
	}

	clock = clock.Add(configTTL + time.Second)
	if err := v.Verify(ctx, "tok", "login"); err != nil {
		t.Fatalf("Verify after TTL: %v", err)
	}
	if source.calls != 2 {
		t.Fatalf("expected a refetch after the TTL, got %d calls", source.calls)
	}
}

func TestInvalidate_ForcesRefetch(t *testing.T) {
	srv := scoreServer(t, true, 0.9)
	defer srv.Close()

	source := &fakeSource{secret: "sec", threshold: 0.5}
	v := NewVerifier(source, srv.URL, false, nopLogger{})

	ctx := context.Background()
	if err := v.Verify(ctx, "tok", "login"); err != nil {
		t.Fatalf("Verify: %v", err)
	}

	// A raised threshold takes effect immediately once invalidated.
	source.threshold = 0.95
	v.Invalidate()

	err := v.Verify(ctx, "tok", "login")
	if !errors.Is(err, common.ErrBotCheckFailed) {
		t.Fatalf("expected the fresh threshold to reject, got %v", err)
	}
	if source.calls != 2 {
		t.Fatalf("expected a refetch after Invalidate, got %d calls", source.calls)
	}
}
