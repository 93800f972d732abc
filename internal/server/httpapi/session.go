package httpapi

import (
	"context"
	"net/http"

	"github.com/lakelandsports/cms/internal/server/auth"
)

// sessionCookieName is the cookie carrying the signed session token.
const sessionCookieName = "session"

type contextKey int

const claimsKey contextKey = 0

// claimsInto attaches parsed session claims to the request context.
func claimsInto(ctx context.Context, claims *auth.SessionClaims) context.Context {
	return context.WithValue(ctx, claimsKey, claims)
}

// claimsFrom returns the session claims the guard attached, or nil on an
// unauthenticated request.
func claimsFrom(ctx context.Context) *auth.SessionClaims {
	claims, _ := ctx.Value(claimsKey).(*auth.SessionClaims)
	return claims
}

// setSessionCookie installs the session token as an HttpOnly Lax cookie.
// Secure is set only in production so local development over plain HTTP
// keeps working.
func (s *Server) setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(s.cfg.SessionValidity.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   s.cfg.IsProduction(),
	})
}

// clearSessionCookie expires the session cookie immediately.
func (s *Server) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   s.cfg.IsProduction(),
	})
}

// sessionClaims parses the session cookie on r, if any. The bool reports
// whether a cookie was present at all.
func (s *Server) sessionClaims(r *http.Request) (*auth.SessionClaims, bool, error) {
	cookie, err := r.Cookie(sessionCookieName)
	if err != nil || cookie.Value == "" {
		return nil, false, nil
	}
	claims, err := auth.ParseSessionToken(cookie.Value, []byte(s.cfg.SessionSecret))
	if err != nil {
		return nil, true, err
	}
	return claims, true, nil
}
