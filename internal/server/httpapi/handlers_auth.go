package httpapi

import (
	"errors"
	"net/http"
	"time"

	"github.com/lakelandsports/cms/internal/common"
	"github.com/lakelandsports/cms/internal/server/models"
)

type accountResponse struct {
	ID              string     `json:"id"`
	Name            string     `json:"name"`
	Email           string     `json:"email"`
	Role            string     `json:"role"`
	Active          bool       `json:"active"`
	EmailVerified   bool       `json:"emailVerified"`
	Approved        bool       `json:"approved"`
	ApprovedAt      *time.Time `json:"approvedAt,omitempty"`
	RejectionReason *string    `json:"rejectionReason,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
}

func toAccountResponse(a *models.Account) accountResponse {
	return accountResponse{
		ID:              a.ID,
		Name:            a.Name,
		Email:           a.Email,
		Role:            string(a.Role),
		Active:          a.Active,
		EmailVerified:   a.EmailVerified,
		Approved:        a.Approved,
		ApprovedAt:      a.ApprovedAt,
		RejectionReason: a.RejectionReason,
		CreatedAt:       a.CreatedAt,
	}
}

type registerRequest struct {
	Name         string `json:"name" validate:"required,min=2,max=100"`
	Email        string `json:"email" validate:"required,email"`
	Password     string `json:"password" validate:"required,password"`
	CaptchaToken string `json:"captchaToken"`
}

// handleRegister creates an unverified account. The response is identical
// whether the email was fresh or already registered, so the endpoint cannot
// be used to probe for accounts.
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req registerRequest
	if !s.decodeValid(w, r, &req) {
		return
	}

	if err := s.captcha.Verify(ctx, req.CaptchaToken, "register"); err != nil {
		s.writeError(ctx, w, err)
		return
	}

	_, err := s.accounts.Register(ctx, req.Name, req.Email, req.Password)
	if err != nil && !errors.Is(err, common.ErrorAlreadyExists) {
		s.writeError(ctx, w, err)
		return
	}

	s.writeJSON(ctx, w, http.StatusCreated, map[string]string{
		"message": "check your inbox for a verification link",
	})
}

// handleVerifyEmail redeems the emailed verification token. Redeeming twice
// reports success with alreadyVerified set, so a re-clicked link never shows
// an error.
func (s *Server) handleVerifyEmail(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	token := r.URL.Query().Get("token")
	if token == "" {
		s.writeErrorCode(ctx, w, http.StatusBadRequest, "validation_failed", "missing token")
		return
	}

	already, err := s.accounts.VerifyEmail(ctx, token)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			s.writeErrorCode(ctx, w, http.StatusBadRequest, "invalid_verification_token", "this verification link is not valid")
			return
		}
		s.writeError(ctx, w, err)
		return
	}

	msg := "email verified, an administrator will review your registration"
	if already {
		msg = "email address already verified"
	}
	s.writeJSON(ctx, w, http.StatusOK, map[string]any{
		"message":         msg,
		"alreadyVerified": already,
	})
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req loginRequest
	if !s.decodeValid(w, r, &req) {
		return
	}

	account, token, err := s.accounts.Login(ctx, req.Email, req.Password)
	if err != nil {
		s.writeError(ctx, w, err)
		return
	}

	s.setSessionCookie(w, token)
	s.writeJSON(ctx, w, http.StatusOK, toAccountResponse(account))
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.clearSessionCookie(w)
	s.writeJSON(r.Context(), w, http.StatusOK, map[string]string{"message": "signed out"})
}

// handleMe returns the account behind the current session. The guard leaves
// this path public so the dashboard can probe login state without a redirect;
// an anonymous call is a plain 401.
func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	claims := claimsFrom(ctx)
	if claims == nil {
		s.writeErrorCode(ctx, w, http.StatusUnauthorized, "unauthorized", "authentication required")
		return
	}

	account, err := s.accounts.Get(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			s.clearSessionCookie(w)
			s.writeErrorCode(ctx, w, http.StatusUnauthorized, "unauthorized", "authentication required")
			return
		}
		s.writeError(ctx, w, err)
		return
	}

	s.writeJSON(ctx, w, http.StatusOK, toAccountResponse(account))
}
