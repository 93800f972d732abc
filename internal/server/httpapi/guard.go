package httpapi

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/lakelandsports/cms/internal/common"
	"github.com/lakelandsports/cms/internal/server/models"
)

// Route classification for the guard. Precedence is exempt, then protected,
// then public: an exempt path never touches the session even when it also
// sits under a protected prefix.
var (
	exemptPaths = []string{
		"/healthz",
		"/readyz",
		"/api/auth/login",
		"/api/auth/register",
		"/api/auth/verify-email",
		"/api/auth/forgot-password",
	}
	protectedPrefixes = []string{
		"/admin",
		"/api/admin",
	}
)

func isExempt(path string) bool {
	for _, p := range exemptPaths {
		if path == p {
			return true
		}
	}
	return false
}

func isProtected(path string) bool {
	for _, p := range protectedPrefixes {
		if path == p || strings.HasPrefix(path, p+"/") {
			return true
		}
	}
	return false
}

// isAPIPath decides the failure mode: JSON consumers get a 401 body, browser
// page requests get the login redirect.
func isAPIPath(path string) bool {
	return strings.HasPrefix(path, "/api/")
}

// guard authenticates requests according to the route classification.
// Protected routes require a valid session; public routes get the claims
// attached when a valid session happens to be present, and pass through
// anonymously otherwise.
func (s *Server) guard(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path

		if isExempt(path) {
			next.ServeHTTP(w, r)
			return
		}

		claims, present, err := s.sessionClaims(r)

		if !isProtected(path) {
			if err == nil && claims != nil {
				r = r.WithContext(claimsInto(r.Context(), claims))
			}
			next.ServeHTTP(w, r)
			return
		}

		expired := present && errors.Is(err, common.ErrTokenExpired)

		switch {
		case err != nil, !present:
			if expired {
				// A stale cookie would bounce every request through this
				// branch; drop it so the next attempt is cleanly anonymous.
				s.clearSessionCookie(w)
			}
			if isAPIPath(path) {
				if expired {
					s.writeErrorCode(r.Context(), w, http.StatusUnauthorized, "session_expired", "your session has expired")
					return
				}
				s.writeErrorCode(r.Context(), w, http.StatusUnauthorized, "unauthorized", "authentication required")
				return
			}
			dest := "/login?redirect=" + url.QueryEscape(path)
			if expired {
				dest += "&expired=true"
			}
			http.Redirect(w, r, dest, http.StatusSeeOther)
		default:
			next.ServeHTTP(w, r.WithContext(claimsInto(r.Context(), claims)))
		}
	})
}

// requireRole gates a protected route on the caller's role. The guard has
// already authenticated; this only checks authorization.
func (s *Server) requireRole(check func(models.Role) bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims := claimsFrom(r.Context())
			if claims == nil {
				s.writeErrorCode(r.Context(), w, http.StatusUnauthorized, "unauthorized", "authentication required")
				return
			}
			if !check(claims.Role) {
				s.writeErrorCode(r.Context(), w, http.StatusForbidden, "forbidden", "you do not have permission to do this")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
