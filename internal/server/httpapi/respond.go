// Package httpapi is the HTTP edge of the CMS server: routing, the route
// guard, rate limiting, request validation and the JSON handlers. Handlers
// stay thin; business rules live in the services layer.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/lakelandsports/cms/internal/common"
)

// errorBody is the uniform error envelope. Field-level validation problems
// ride along in Fields.
type errorBody struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

type errorResponse struct {
	Error errorBody `json:"error"`
}

func (s *Server) writeJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error(ctx, "encoding response", "error", err)
	}
}

func (s *Server) writeErrorCode(ctx context.Context, w http.ResponseWriter, status int, code, message string) {
	s.writeJSON(ctx, w, status, errorResponse{Error: errorBody{Code: code, Message: message}})
}

func (s *Server) writeFieldErrors(ctx context.Context, w http.ResponseWriter, fields map[string]string) {
	s.writeJSON(ctx, w, http.StatusBadRequest, errorResponse{Error: errorBody{
		Code:    "validation_failed",
		Message: "one or more fields are invalid",
		Fields:  fields,
	}})
}

// writeError maps service sentinels onto the HTTP taxonomy. Anything not
// explicitly mapped is a 500 with a generic body; the underlying error is
// logged, never leaked.
func (s *Server) writeError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, common.ErrorValidation):
		s.writeErrorCode(ctx, w, http.StatusBadRequest, "validation_failed", "invalid request")
	case errors.Is(err, common.ErrBotCheckFailed):
		s.writeErrorCode(ctx, w, http.StatusBadRequest, "bot_check_failed", "could not verify the request came from a person")
	case errors.Is(err, common.ErrVerificationExpired):
		s.writeErrorCode(ctx, w, http.StatusBadRequest, "verification_expired", "the verification link has expired, please register again")
	case errors.Is(err, common.ErrInvalidTransition):
		s.writeErrorCode(ctx, w, http.StatusConflict, "invalid_transition", "the account is not in a state that allows this operation")
	case errors.Is(err, common.ErrOAuthStateMismatch):
		s.writeErrorCode(ctx, w, http.StatusBadRequest, "oauth_state_mismatch", "authorization response did not match the pending request")
	case errors.Is(err, common.ErrOAuthStateExpired):
		s.writeErrorCode(ctx, w, http.StatusBadRequest, "oauth_state_expired", "authorization took too long, please start over")
	case errors.Is(err, common.ErrOAuthNoRefreshToken):
		s.writeErrorCode(ctx, w, http.StatusBadRequest, "oauth_no_refresh_token", "the provider did not grant offline access")
	case errors.Is(err, common.ErrMailerNotConnected):
		s.writeErrorCode(ctx, w, http.StatusBadRequest, "mail_not_connected", "no mail account is connected")
	case errors.Is(err, common.ErrInvalidLoginOrPassword):
		s.writeErrorCode(ctx, w, http.StatusUnauthorized, "invalid_credentials", "invalid email or password")
	case errors.Is(err, common.ErrTokenExpired):
		s.writeErrorCode(ctx, w, http.StatusUnauthorized, "session_expired", "your session has expired")
	case errors.Is(err, common.ErrInvalidToken), errors.Is(err, common.ErrorUnauthorized):
		s.writeErrorCode(ctx, w, http.StatusUnauthorized, "unauthorized", "authentication required")
	case errors.Is(err, common.ErrAccountInactive):
		s.writeErrorCode(ctx, w, http.StatusForbidden, "account_inactive", "this account has been deactivated")
	case errors.Is(err, common.ErrEmailNotVerified):
		s.writeErrorCode(ctx, w, http.StatusForbidden, "email_not_verified", "please verify your email address first")
	case errors.Is(err, common.ErrApprovalPending):
		s.writeErrorCode(ctx, w, http.StatusForbidden, "approval_pending", "your registration has not been approved yet")
	case errors.Is(err, common.ErrorForbidden):
		s.writeErrorCode(ctx, w, http.StatusForbidden, "forbidden", "you do not have permission to do this")
	case errors.Is(err, common.ErrorNotFound):
		s.writeErrorCode(ctx, w, http.StatusNotFound, "not_found", "resource not found")
	case errors.Is(err, common.ErrRateLimited):
		s.writeErrorCode(ctx, w, http.StatusTooManyRequests, "rate_limited", "too many requests, slow down")
	default:
		s.logger.Error(ctx, "internal error", "error", err)
		s.writeErrorCode(ctx, w, http.StatusInternalServerError, "internal", "internal server error")
	}
}
