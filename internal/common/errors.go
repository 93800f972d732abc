// Package common defines shared constants and sentinel errors used across
// the CMS layers. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound      = errors.New("not found")
	ErrorAlreadyExists = errors.New("already exists")

	// Service-level errors (generic flow control).
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")
	ErrorForbidden    = errors.New("forbidden")
	ErrorValidation   = errors.New("validation error")

	// Session token errors (invalid or malformed vs past expiry).
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")

	// Account lifecycle errors.
	ErrAccountInactive        = errors.New("account deactivated")
	ErrEmailNotVerified       = errors.New("email not verified")
	ErrApprovalPending        = errors.New("approval pending")
	ErrVerificationExpired    = errors.New("verification token expired")
	ErrInvalidTransition      = errors.New("invalid account state transition")
	ErrBotCheckFailed         = errors.New("bot verification failed")
	ErrOAuthStateMismatch     = errors.New("oauth state mismatch")
	ErrOAuthStateExpired      = errors.New("oauth state expired")
	ErrOAuthNoRefreshToken    = errors.New("provider returned no refresh token")
	ErrMailerNotConnected     = errors.New("mail account not connected")
	ErrRateLimited            = errors.New("rate limit exceeded")
	ErrInvalidLoginOrPassword = errors.New("invalid login/password")
)
