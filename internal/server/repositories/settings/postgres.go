package settings

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lakelandsports/cms/internal/common"
	"github.com/lakelandsports/cms/internal/dbx"
	"github.com/lakelandsports/cms/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Get(ctx context.Context, key string) (*models.Setting, error) {
	query :=
		`SELECT key, value, secret, updated_at FROM settings
		 WHERE key = $1
		 `

	s := &models.Setting{}
	err := r.db.QueryRowContext(ctx, query, key).Scan(&s.Key, &s.Value, &s.Secret, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return s, nil
}

func (r *PostgresRepository) Set(ctx context.Context, setting *models.Setting) error {
	query :=
		`INSERT INTO settings (key, value, secret, updated_at)
		 VALUES ($1, $2, $3, now())
		 ON CONFLICT (key) DO UPDATE
		 SET value = EXCLUDED.value, secret = EXCLUDED.secret, updated_at = now()
		 `

	if _, err := r.db.ExecContext(ctx, query, setting.Key, setting.Value, setting.Secret); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Delete(ctx context.Context, key string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM settings WHERE key = $1`, key); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) List(ctx context.Context) ([]*models.Setting, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT key, value, secret, updated_at FROM settings ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var out []*models.Setting
	for rows.Next() {
		s := &models.Setting{}
		if err := rows.Scan(&s.Key, &s.Value, &s.Secret, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return out, nil
}
