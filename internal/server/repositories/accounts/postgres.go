package accounts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/lakelandsports/cms/internal/common"
	"github.com/lakelandsports/cms/internal/dbx"
	"github.com/lakelandsports/cms/internal/server/models"
)

const accountColumns = `id, name, email, password_hash, role, active,
	   email_verified, email_verification_token, email_verification_expires,
	   approved, approved_by_id, approved_at, rejection_reason, created_at`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, account *models.Account) (*models.Account, error) {
	query :=
		`INSERT INTO accounts (id, name, email, password_hash, role, active,
		        email_verified, email_verification_token, email_verification_expires,
		        approved)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 RETURNING created_at
		 `

	err := r.db.QueryRowContext(ctx, query,
		account.ID, account.Name, account.Email, account.PasswordHash,
		account.Role, account.Active, account.EmailVerified,
		account.EmailVerificationToken, account.EmailVerificationExpires,
		account.Approved).Scan(&account.CreatedAt)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, common.ErrorAlreadyExists
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return account, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`
	return r.scanOne(r.db.QueryRowContext(ctx, query, id))
}

func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*models.Account, error) {
	// Emails are unique case-insensitively.
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE lower(email) = lower($1)`
	return r.scanOne(r.db.QueryRowContext(ctx, query, email))
}

func (r *PostgresRepository) GetByVerificationToken(ctx context.Context, token string) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE email_verification_token = $1`
	return r.scanOne(r.db.QueryRowContext(ctx, query, token))
}

func (r *PostgresRepository) List(ctx context.Context) ([]*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var accounts []*models.Account
	for rows.Next() {
		a := &models.Account{}
		if err := scanAccount(rows, a); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		accounts = append(accounts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return accounts, nil
}

func (r *PostgresRepository) Update(ctx context.Context, account *models.Account) error {
	query :=
		`UPDATE accounts
		 SET name = $2, email = $3, password_hash = $4, role = $5, active = $6,
		     email_verified = $7, email_verification_token = $8,
		     email_verification_expires = $9, approved = $10,
		     approved_by_id = $11, approved_at = $12, rejection_reason = $13
		 WHERE id = $1
		 `

	res, err := r.db.ExecContext(ctx, query,
		account.ID, account.Name, account.Email, account.PasswordHash,
		account.Role, account.Active, account.EmailVerified,
		account.EmailVerificationToken, account.EmailVerificationExpires,
		account.Approved, account.ApprovedByID, account.ApprovedAt,
		account.RejectionReason)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner, a *models.Account) error {
	return row.Scan(&a.ID, &a.Name, &a.Email, &a.PasswordHash, &a.Role,
		&a.Active, &a.EmailVerified, &a.EmailVerificationToken,
		&a.EmailVerificationExpires, &a.Approved, &a.ApprovedByID,
		&a.ApprovedAt, &a.RejectionReason, &a.CreatedAt)
}

func (r *PostgresRepository) scanOne(row *sql.Row) (*models.Account, error) {
	a := &models.Account{}
	if err := scanAccount(row, a); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return a, nil
}
