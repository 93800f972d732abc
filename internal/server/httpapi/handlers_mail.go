package httpapi

import (
	"errors"
	"net/http"
	"time"

	"github.com/lakelandsports/cms/internal/common"
)

// handleMailConnect starts the Gmail OAuth flow and bounces the operator to
// the provider consent screen. Starting a second flow overwrites the first;
// only one can be pending.
func (s *Server) handleMailConnect(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	q := r.URL.Query()
	clientID := q.Get("client_id")
	clientSecret := q.Get("client_secret")
	address := q.Get("address")
	if clientID == "" || clientSecret == "" || address == "" {
		s.writeErrorCode(ctx, w, http.StatusBadRequest, "validation_failed", "client_id, client_secret and address are required")
		return
	}

	consentURL, err := s.oauth.Begin(ctx, clientID, clientSecret, address)
	if err != nil {
		s.writeError(ctx, w, err)
		return
	}
	http.Redirect(w, r, consentURL, http.StatusSeeOther)
}

// handleMailCallback is the provider redirect target. On success the
// operator lands back on the dashboard mail settings page.
func (s *Server) handleMailCallback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	q := r.URL.Query()
	if errCode := q.Get("error"); errCode != "" {
		// The operator declined on the consent screen.
		http.Redirect(w, r, "/admin/settings?mail=declined", http.StatusSeeOther)
		return
	}

	if err := s.oauth.Complete(ctx, q.Get("state"), q.Get("code")); err != nil {
		s.writeError(ctx, w, err)
		return
	}
	http.Redirect(w, r, "/admin/settings?mail=connected", http.StatusSeeOther)
}

func (s *Server) handleMailDisconnect(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := s.oauth.Disconnect(ctx); err != nil {
		s.writeError(ctx, w, err)
		return
	}
	s.writeJSON(ctx, w, http.StatusOK, map[string]string{"message": "mail account disconnected"})
}

// handleMailStatus tells the dashboard whether a mail account is connected
// without exposing any part of the credential set beyond the address.
func (s *Server) handleMailStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	creds, err := s.credentials.MailCredentials(ctx)
	if err != nil {
		if errors.Is(err, common.ErrMailerNotConnected) {
			s.writeJSON(ctx, w, http.StatusOK, map[string]any{"connected": false})
			return
		}
		s.writeError(ctx, w, err)
		return
	}

	s.writeJSON(ctx, w, http.StatusOK, map[string]any{
		"connected":   true,
		"address":     creds.Address,
		"connectedAt": creds.ConnectedAt.Format(time.RFC3339),
	})
}
