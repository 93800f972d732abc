package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func (s *Server) handleListAccounts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	accounts, err := s.accounts.List(ctx)
	if err != nil {
		s.writeError(ctx, w, err)
		return
	}

	out := make([]accountResponse, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, toAccountResponse(a))
	}
	s.writeJSON(ctx, w, http.StatusOK, map[string]any{"accounts": out})
}

func (s *Server) handleApproveAccount(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	claims := claimsFrom(ctx)
	account, err := s.accounts.Approve(ctx, chi.URLParam(r, "id"), claims.UserID)
	if err != nil {
		s.writeError(ctx, w, err)
		return
	}
	s.writeJSON(ctx, w, http.StatusOK, toAccountResponse(account))
}

type rejectRequest struct {
	Reason string `json:"reason" validate:"max=500"`
}

func (s *Server) handleRejectAccount(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	// The reason body is optional on a DELETE.
	var req rejectRequest
	if r.Body != nil && r.ContentLength != 0 {
		if !s.decodeValid(w, r, &req) {
			return
		}
	}

	account, err := s.accounts.Reject(ctx, chi.URLParam(r, "id"), req.Reason)
	if err != nil {
		s.writeError(ctx, w, err)
		return
	}
	s.writeJSON(ctx, w, http.StatusOK, toAccountResponse(account))
}
