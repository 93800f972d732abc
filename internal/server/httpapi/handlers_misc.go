package httpapi

import (
	"context"
	"net/http"
	"time"
)

// handleUploadPresign hands the dashboard a key and a presigned PUT URL so
// the browser uploads media straight to the bucket.
func (s *Server) handleUploadPresign(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	key, uploadURL, err := s.media.PresignedPutURL(ctx)
	if err != nil {
		s.writeError(ctx, w, err)
		return
	}

	s.writeJSON(ctx, w, http.StatusOK, map[string]string{
		"key":       key,
		"uploadUrl": uploadURL,
	})
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(r.Context(), w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleReadyz additionally checks the database so a load balancer can hold
// traffic while the backend is down.
func (s *Server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := s.db.PingContext(ctx); err != nil {
		s.writeErrorCode(r.Context(), w, http.StatusServiceUnavailable, "not_ready", "database unreachable")
		return
	}
	s.writeJSON(r.Context(), w, http.StatusOK, map[string]string{"status": "ready"})
}
