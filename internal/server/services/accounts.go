// Package services contains server-side business logic. This file implements
// AccountService: registration, email verification, the approval workflow,
// and credential checks for login.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/lakelandsports/cms/internal/common"
	"github.com/lakelandsports/cms/internal/dbx"
	"github.com/lakelandsports/cms/internal/logging"
	"github.com/lakelandsports/cms/internal/randx"
	"github.com/lakelandsports/cms/internal/server/auth"
	"github.com/lakelandsports/cms/internal/server/config"
	"github.com/lakelandsports/cms/internal/server/mailer"
	"github.com/lakelandsports/cms/internal/server/models"
	"github.com/lakelandsports/cms/internal/server/repositories/repomanager"
)

// verificationTokenValidity bounds how long an emailed verification link
// stays redeemable.
const verificationTokenValidity = 24 * time.Hour

// AccountService drives the account lifecycle:
//
//	Unverified -> VerifiedPendingApproval -> Approved | Rejected
//
// Login is gated on active AND emailVerified AND approved; every transition
// below keeps that conjunction consistent with the lifecycle flags.
type AccountService struct {
	db              *sql.DB
	repomanager     repomanager.RepositoryManager
	mail            mailer.Mailer
	logger          logging.Logger
	jwtSecret       []byte
	sessionValidity time.Duration
	baseURL         string

	// now is swappable for expiry tests.
	now func() time.Time
}

// NewAccountService constructs an AccountService from repositories, the
// mailer, and server config.
func NewAccountService(db *sql.DB, m repomanager.RepositoryManager, mail mailer.Mailer, logger logging.Logger, cfg *config.Config) *AccountService {
	return &AccountService{
		db:              db,
		repomanager:     m,
		mail:            mail,
		logger:          logger.With("module", "accounts"),
		jwtSecret:       []byte(cfg.SessionSecret),
		sessionValidity: cfg.SessionValidity,
		baseURL:         cfg.BaseURL,
		now:             time.Now,
	}
}

// Register creates an Unverified account and emails the verification link.
// A duplicate email surfaces as common.ErrorAlreadyExists; the HTTP layer
// translates it to a generic failure so account existence is not revealed.
func (s *AccountService) Register(ctx context.Context, name, email, password string) (*models.Account, error) {
	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, common.ErrorInternal
	}

	token, err := randx.URLToken(32)
	if err != nil {
		return nil, common.ErrorInternal
	}
	expires := s.now().Add(verificationTokenValidity)

	account := &models.Account{
		ID:                       uuid.NewString(),
		Name:                     name,
		Email:                    email,
		PasswordHash:             hash,
		Role:                     models.RoleEditor,
		Active:                   false,
		EmailVerified:            false,
		EmailVerificationToken:   &token,
		EmailVerificationExpires: &expires,
		Approved:                 false,
	}

	repo := s.repomanager.Accounts(s.db)
	account, err = repo.Create(ctx, account)
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return nil, err
		}
		return nil, fmt.Errorf("error creating account: %w", err)
	}

	link := fmt.Sprintf("%s/api/auth/verify-email?token=%s", s.baseURL, token)
	if err := s.mail.Send(ctx, account.Email, "Verify your email address",
		"Welcome! Confirm your email address by opening this link within 24 hours:\n\n"+link); err != nil {
		// The account exists either way; the operator can re-trigger delivery.
		s.logger.Error(ctx, "verification email failed", "email", account.Email, "error", err)
	}

	return account, nil
}

// VerifyEmail redeems a verification token. Unknown tokens yield
// common.ErrorNotFound, expired ones common.ErrVerificationExpired, both
// without state change. Redeeming for an already-verified account is a
// no-op that reports alreadyVerified=true.
func (s *AccountService) VerifyEmail(ctx context.Context, token string) (alreadyVerified bool, err error) {
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Accounts(tx)

		account, err := repo.GetByVerificationToken(ctx, token)
		if err != nil {
			return err
		}

		if account.EmailVerified {
			alreadyVerified = true
			return nil
		}

		if account.EmailVerificationExpires == nil || s.now().After(*account.EmailVerificationExpires) {
			return common.ErrVerificationExpired
		}

		// The token row is kept so a repeated redemption can report
		// success; the cleared expiry makes it single-use for state
		// changes.
		account.EmailVerified = true
		account.EmailVerificationExpires = nil
		return repo.Update(ctx, account)
	})
	if err != nil {
		return false, err
	}

	if !alreadyVerified {
		s.notifyApprovers(ctx, "New registration awaiting approval",
			"A new account verified its email address and is waiting for approval in the dashboard.")
	}
	return alreadyVerified, nil
}

// Login checks credentials and the three lifecycle gates, then mints a
// session token. Bad credentials and unknown emails both yield
// common.ErrInvalidLoginOrPassword; the gates have distinct errors so the
// dashboard can tell the user what is pending.
func (s *AccountService) Login(ctx context.Context, email, password string) (*models.Account, string, error) {
	repo := s.repomanager.Accounts(s.db)

	account, err := repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, "", common.ErrInvalidLoginOrPassword
		}
		return nil, "", common.ErrorInternal
	}

	if !auth.CheckPassword(account.PasswordHash, password) {
		return nil, "", common.ErrInvalidLoginOrPassword
	}

	switch {
	case !account.Active:
		return nil, "", common.ErrAccountInactive
	case !account.EmailVerified:
		return nil, "", common.ErrEmailNotVerified
	case !account.Approved:
		return nil, "", common.ErrApprovalPending
	}
	if !account.CanLogIn() {
		return nil, "", common.ErrorUnauthorized
	}

	token, err := auth.GenerateSessionToken(account, s.jwtSecret, s.sessionValidity)
	if err != nil {
		return nil, "", common.ErrorInternal
	}
	return account, token, nil
}

// Approve moves an account from VerifiedPendingApproval to Approved. Any
// other starting state is rejected with common.ErrInvalidTransition.
// Approval also activates the account and clears a prior rejection reason.
func (s *AccountService) Approve(ctx context.Context, accountID, approverID string) (*models.Account, error) {
	var account *models.Account
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Accounts(tx)

		a, err := repo.GetByID(ctx, accountID)
		if err != nil {
			return err
		}
		if a.Approved || !a.EmailVerified {
			return common.ErrInvalidTransition
		}

		now := s.now()
		a.Approved = true
		a.Active = true
		a.ApprovedByID = &approverID
		a.ApprovedAt = &now
		a.RejectionReason = nil

		if err := repo.Update(ctx, a); err != nil {
			return err
		}
		account = a
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := s.mail.Send(ctx, account.Email, "Your account has been approved",
		"An administrator approved your account. You can now sign in to the dashboard."); err != nil {
		s.logger.Error(ctx, "approval email failed", "email", account.Email, "error", err)
	}
	return account, nil
}

// Reject deactivates an account and records the optional reason. Rejection
// is allowed before or after approval and never deletes the record; a fresh
// registration is the only way back in.
func (s *AccountService) Reject(ctx context.Context, accountID, reason string) (*models.Account, error) {
	var account *models.Account
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Accounts(tx)

		a, err := repo.GetByID(ctx, accountID)
		if err != nil {
			return err
		}

		a.Approved = false
		a.Active = false
		if reason != "" {
			a.RejectionReason = &reason
		}

		if err := repo.Update(ctx, a); err != nil {
			return err
		}
		account = a
		return nil
	})
	if err != nil {
		return nil, err
	}

	body := "An administrator declined your registration."
	if reason != "" {
		body += "\n\nReason: " + reason
	}
	if err := s.mail.Send(ctx, account.Email, "Your registration was declined", body); err != nil {
		s.logger.Error(ctx, "rejection email failed", "email", account.Email, "error", err)
	}
	return account, nil
}

// Get returns one account by id.
func (s *AccountService) Get(ctx context.Context, id string) (*models.Account, error) {
	return s.repomanager.Accounts(s.db).GetByID(ctx, id)
}

// List returns all accounts, newest first.
func (s *AccountService) List(ctx context.Context) ([]*models.Account, error) {
	return s.repomanager.Accounts(s.db).List(ctx)
}

// CreateSuperAdmin creates a pre-verified, pre-approved SUPER_ADMIN.
// Used by the bootstrap command for the first operator account.
func (s *AccountService) CreateSuperAdmin(ctx context.Context, name, email, password string) (*models.Account, error) {
	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, common.ErrorInternal
	}

	account := &models.Account{
		ID:            uuid.NewString(),
		Name:          name,
		Email:         email,
		PasswordHash:  hash,
		Role:          models.RoleSuperAdmin,
		Active:        true,
		EmailVerified: true,
		Approved:      true,
	}
	return s.repomanager.Accounts(s.db).Create(ctx, account)
}

// notifyApprovers emails every account that may approve registrations.
// Delivery failures are logged and never surfaced; notification is not part
// of the primary operation.
func (s *AccountService) notifyApprovers(ctx context.Context, subject, body string) {
	all, err := s.repomanager.Accounts(s.db).List(ctx)
	if err != nil {
		s.logger.Error(ctx, "listing approvers failed", "error", err)
		return
	}
	for _, a := range all {
		if a.Role.CanApprove() && a.CanLogIn() {
			if err := s.mail.Send(ctx, a.Email, subject, body); err != nil {
				s.logger.Error(ctx, "approver notification failed", "email", a.Email, "error", err)
			}
		}
	}
}
