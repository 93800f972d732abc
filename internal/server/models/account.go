package models

import "time"

// Role is the dashboard permission level of an account.
type Role string

const (
	RoleSuperAdmin Role = "SUPER_ADMIN"
	RoleAdmin      Role = "ADMIN"
	RoleEditor     Role = "EDITOR"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleSuperAdmin, RoleAdmin, RoleEditor:
		return true
	}
	return false
}

// CanApprove reports whether the role may approve or reject registrations.
func (r Role) CanApprove() bool {
	return r == RoleSuperAdmin || r == RoleAdmin
}

// Account is a dashboard user. Lifecycle: created unverified + unapproved +
// inactive on registration; EmailVerified flips once via token redemption;
// Approved flips via an administrator decision, which also activates the
// account. Rejection deactivates without deleting the record.
type Account struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Role         Role
	Active       bool

	EmailVerified            bool
	EmailVerificationToken   *string
	EmailVerificationExpires *time.Time

	Approved        bool
	ApprovedByID    *string
	ApprovedAt      *time.Time
	RejectionReason *string

	CreatedAt time.Time
}

// CanLogIn is the authoritative login guard: all three gates must hold
// regardless of which lifecycle path led to the current state.
func (a *Account) CanLogIn() bool {
	return a.Active && a.EmailVerified && a.Approved
}
