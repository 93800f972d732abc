package posts

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

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, post *models.Post) (*models.Post, error) {
	query :=
		`INSERT INTO posts (id, title, slug, body, published, author_id)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING created_at, updated_at
		 `

	err := r.db.QueryRowContext(ctx, query,
		post.ID, post.Title, post.Slug, post.Body, post.Published, post.AuthorID).
		Scan(&post.CreatedAt, &post.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, common.ErrorAlreadyExists
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return post, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Post, error) {
	query := `SELECT id, title, slug, body, published, author_id, created_at, updated_at
		 FROM posts WHERE id = $1`
	return r.scanOne(r.db.QueryRowContext(ctx, query, id))
}

func (r *PostgresRepository) GetBySlug(ctx context.Context, slug string) (*models.Post, error) {
	query := `SELECT id, title, slug, body, published, author_id, created_at, updated_at
		 FROM posts WHERE slug = $1`
	return r.scanOne(r.db.QueryRowContext(ctx, query, slug))
}

func (r *PostgresRepository) List(ctx context.Context, publishedOnly bool) ([]*models.Post, error) {
	query := `SELECT id, title, slug, body, published, author_id, created_at, updated_at
		 FROM posts`
	if publishedOnly {
		query += ` WHERE published`
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var out []*models.Post
	for rows.Next() {
		p := &models.Post{}
		if err := rows.Scan(&p.ID, &p.Title, &p.Slug, &p.Body, &p.Published,
			&p.AuthorID, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return out, nil
}

func (r *PostgresRepository) Update(ctx context.Context, post *models.Post) error {
	query :=
		`UPDATE posts
		 SET title = $2, slug = $3, body = $4, published = $5, updated_at = now()
		 WHERE id = $1
		 `

	res, err := r.db.ExecContext(ctx, query,
		post.ID, post.Title, post.Slug, post.Body, post.Published)
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

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM posts WHERE id = $1`, id)
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

func (r *PostgresRepository) scanOne(row *sql.Row) (*models.Post, error) {
	p := &models.Post{}
	err := row.Scan(&p.ID, &p.Title, &p.Slug, &p.Body, &p.Published,
		&p.AuthorID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return p, nil
}
