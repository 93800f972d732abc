package httpapi

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/lakelandsports/cms/internal/ratelimit"
)

func TestClientIP(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		headers map[string]string
		want    string
	}{
		{"forwarded-for single", map[string]string{"X-Forwarded-For": "203.0.113.7"}, "203.0.113.7"},
		{"forwarded-for chain takes first", map[string]string{"X-Forwarded-For": "203.0.113.7, 10.0.0.1, 10.0.0.2"}, "203.0.113.7"},
		{"forwarded-for with spaces", map[string]string{"X-Forwarded-For": "  203.0.113.7 , 10.0.0.1"}, "203.0.113.7"},
		{"real-ip fallback", map[string]string{"X-Real-IP": "198.51.100.4"}, "198.51.100.4"},
		{"forwarded-for wins over real-ip", map[string]string{"X-Forwarded-For": "203.0.113.7", "X-Real-IP": "198.51.100.4"}, "203.0.113.7"},
		{"no headers", nil, "unknown"},
		{"empty forwarded-for falls through", map[string]string{"X-Forwarded-For": " "}, "unknown"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			for k, v := range c.headers {
				req.Header.Set(k, v)
			}
			if got := ClientIP(req); got != c.want {
				t.Fatalf("got %q, want %q", got, c.want)
			}
		})
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	s := newTestServer(t)

	limiter := ratelimit.New(2, time.Minute)
	h := s.rateLimit(limiter)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	do := func(ip string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
		req.Header.Set("X-Forwarded-For", ip)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	if rec := do("1.1.1.1"); rec.Code != http.StatusOK {
		t.Fatalf("first request: %d", rec.Code)
	}
	if rec := do("1.1.1.1"); rec.Code != http.StatusOK {
		t.Fatalf("second request: %d", rec.Code)
	}

	rec := do("1.1.1.1")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("third request should be limited, got %d", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Fatalf("429 should carry Retry-After")
	}

	// A different client address keeps its own budget.
	if rec := do("2.2.2.2"); rec.Code != http.StatusOK {
		t.Fatalf("other ip should be allowed, got %d", rec.Code)
	}
}

func TestRecoverer(t *testing.T) {
	s := newTestServer(t)

	h := s.recoverer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
}
