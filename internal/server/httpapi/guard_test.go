package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/lakelandsports/cms/internal/logging"
	"github.com/lakelandsports/cms/internal/server/auth"
	"github.com/lakelandsports/cms/internal/server/config"
	"github.com/lakelandsports/cms/internal/server/models"
)

type nopLogger struct{}

func (nopLogger) Info(context.Context, string, ...any)  {}
func (nopLogger) Warn(context.Context, string, ...any)  {}
func (nopLogger) Error(context.Context, string, ...any) {}
func (l nopLogger) With(...any) logging.Logger          { return l }

const testSecret = "0123456789abcdef0123456789abcdef"

func newTestServer(t *testing.T) *Server {
	t.Helper()
	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.SessionSecret = testSecret
	return NewServer(Deps{Config: cfg, Logger: nopLogger{}})
}

func sessionCookieFor(t *testing.T, role models.Role, validity time.Duration) *http.Cookie {
	t.Helper()
	account := &models.Account{ID: "u1", Email: "u@example.org", Role: role}
	token, err := auth.GenerateSessionToken(account, []byte(testSecret), validity)
	if err != nil {
		t.Fatalf("GenerateSessionToken error: %v", err)
	}
	return &http.Cookie{Name: sessionCookieName, Value: token}
}

// okHandler records whether the guard let the request through.
func okHandler(reached *bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*reached = true
		w.WriteHeader(http.StatusOK)
	})
}

func TestGuard_ExemptPathsAlwaysPass(t *testing.T) {
	s := newTestServer(t)

	for _, path := range []string{"/api/auth/login", "/api/auth/register", "/api/auth/verify-email", "/api/auth/forgot-password", "/healthz"} {
		reached := false
		h := s.guard(okHandler(&reached))

		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		if !reached {
			t.Fatalf("%s: exempt path did not reach the handler, status %d", path, rec.Code)
		}
	}
}

func TestGuard_ProtectedPageRedirectsToLogin(t *testing.T) {
	s := newTestServer(t)

	reached := false
	h := s.guard(okHandler(&reached))

	req := httptest.NewRequest(http.MethodGet, "/admin/dashboard", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if reached {
		t.Fatalf("anonymous request must not reach a protected handler")
	}
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("expected 303 redirect, got %d", rec.Code)
	}
	loc := rec.Header().Get("Location")
	if loc != "/login?redirect="+url.QueryEscape("/admin/dashboard") {
		t.Fatalf("unexpected redirect target %q", loc)
	}
	if strings.Contains(loc, "expired") {
		t.Fatalf("missing session must not be flagged as expired")
	}
}

func TestGuard_ExpiredSessionRedirectsWithFlagAndClearsCookie(t *testing.T) {
	s := newTestServer(t)

	reached := false
	h := s.guard(okHandler(&reached))

	req := httptest.NewRequest(http.MethodGet, "/admin/dashboard", nil)
	req.AddCookie(sessionCookieFor(t, models.RoleAdmin, -time.Minute))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if reached {
		t.Fatalf("expired session must not reach a protected handler")
	}
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("expected 303 redirect, got %d", rec.Code)
	}
	loc := rec.Header().Get("Location")
	if loc != "/login?redirect="+url.QueryEscape("/admin/dashboard")+"&expired=true" {
		t.Fatalf("unexpected redirect target %q", loc)
	}

	cleared := false
	for _, c := range rec.Result().Cookies() {
		if c.Name == sessionCookieName && c.MaxAge < 0 {
			cleared = true
		}
	}
	if !cleared {
		t.Fatalf("stale cookie was not cleared")
	}
}

func TestGuard_ProtectedAPIAnswers401JSON(t *testing.T) {
	s := newTestServer(t)

	cases := []struct {
		name   string
		cookie *http.Cookie
		code   string
	}{
		{"anonymous", nil, "unauthorized"},
		{"garbage token", &http.Cookie{Name: sessionCookieName, Value: "not-a-jwt"}, "unauthorized"},
		{"expired", nil, "session_expired"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			reached := false
			h := s.guard(okHandler(&reached))

			req := httptest.NewRequest(http.MethodGet, "/api/admin/accounts", nil)
			if c.name == "expired" {
				req.AddCookie(sessionCookieFor(t, models.RoleAdmin, -time.Minute))
			} else if c.cookie != nil {
				req.AddCookie(c.cookie)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			if reached {
				t.Fatalf("request must not reach the handler")
			}
			if rec.Code != http.StatusUnauthorized {
				t.Fatalf("expected 401, got %d", rec.Code)
			}

			var body errorResponse
			if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
				t.Fatalf("decoding body: %v", err)
			}
			if body.Error.Code != c.code {
				t.Fatalf("expected code %q, got %q", c.code, body.Error.Code)
			}
		})
	}
}

func TestGuard_TokenWithoutExpiryIsExpired(t *testing.T) {
	s := newTestServer(t)

	// Correctly signed token that simply omits exp. It must be treated as
	// an expired session, not as a valid one.
	claims := auth.SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{IssuedAt: jwt.NewNumericDate(time.Now())},
		UserID:           "u1",
		Email:            "u@example.org",
		Role:             models.RoleAdmin,
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("SignedString error: %v", err)
	}

	reached := false
	h := s.guard(okHandler(&reached))

	req := httptest.NewRequest(http.MethodGet, "/api/admin/accounts", nil)
	req.AddCookie(&http.Cookie{Name: sessionCookieName, Value: token})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if reached {
		t.Fatalf("token without expiry must not reach a protected handler")
	}
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	var body errorResponse
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if body.Error.Code != "session_expired" {
		t.Fatalf("expected code %q, got %q", "session_expired", body.Error.Code)
	}
}

func TestGuard_ValidSessionPassesWithClaims(t *testing.T) {
	s := newTestServer(t)

	var got *auth.SessionClaims
	h := s.guard(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = claimsFrom(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/admin/accounts", nil)
	req.AddCookie(sessionCookieFor(t, models.RoleAdmin, time.Hour))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got == nil || got.UserID != "u1" || got.Role != models.RoleAdmin {
		t.Fatalf("claims not attached: %+v", got)
	}
}

func TestGuard_PublicPathAttachesOptionalClaims(t *testing.T) {
	s := newTestServer(t)

	var got *auth.SessionClaims
	h := s.guard(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = claimsFrom(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	// Anonymous public request passes without claims.
	req := httptest.NewRequest(http.MethodGet, "/api/posts", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK || got != nil {
		t.Fatalf("anonymous public request: status %d, claims %+v", rec.Code, got)
	}

	// Authenticated public request carries claims.
	req = httptest.NewRequest(http.MethodGet, "/api/posts", nil)
	req.AddCookie(sessionCookieFor(t, models.RoleEditor, time.Hour))
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK || got == nil {
		t.Fatalf("authenticated public request: status %d, claims %+v", rec.Code, got)
	}
}

func TestRequireRole(t *testing.T) {
	s := newTestServer(t)

	mw := s.requireRole(models.Role.CanApprove)

	run := func(role models.Role, attach bool) *httptest.ResponseRecorder {
		reached := false
		h := mw(okHandler(&reached))
		req := httptest.NewRequest(http.MethodGet, "/api/admin/accounts", nil)
		if attach {
			claims := &auth.SessionClaims{UserID: "u1", Role: role}
			req = req.WithContext(claimsInto(req.Context(), claims))
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	if rec := run(models.RoleAdmin, true); rec.Code != http.StatusOK {
		t.Fatalf("ADMIN should pass, got %d", rec.Code)
	}
	if rec := run(models.RoleSuperAdmin, true); rec.Code != http.StatusOK {
		t.Fatalf("SUPER_ADMIN should pass, got %d", rec.Code)
	}
	if rec := run(models.RoleEditor, true); rec.Code != http.StatusForbidden {
		t.Fatalf("EDITOR should be forbidden, got %d", rec.Code)
	}
	if rec := run(models.RoleEditor, false); rec.Code != http.StatusUnauthorized {
		t.Fatalf("missing claims should be 401, got %d", rec.Code)
	}
}
