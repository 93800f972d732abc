package services

import (
	"context"
	"database/sql"
	"strings"
	"unicode"

	"github.com/google/uuid"

	"github.com/lakelandsports/cms/internal/common"
	"github.com/lakelandsports/cms/internal/server/models"
	"github.com/lakelandsports/cms/internal/server/repositories/repomanager"
)

// PostService manages the news resource exposed on the marketing site and
// edited from the dashboard.
type PostService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
}

func NewPostService(db *sql.DB, m repomanager.RepositoryManager) *PostService {
	return &PostService{db: db, repomanager: m}
}

// Slugify derives a URL slug from a title: lower-cased, non-alphanumerics
// collapsed into single dashes.
func Slugify(title string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(title) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

func (s *PostService) Create(ctx context.Context, authorID, title, body string, published bool) (*models.Post, error) {
	slug := Slugify(title)
	if slug == "" {
		return nil, common.ErrorValidation
	}

	post := &models.Post{
		ID:        uuid.NewString(),
		Title:     title,
		Slug:      slug,
		Body:      body,
		Published: published,
		AuthorID:  authorID,
	}
	return s.repomanager.Posts(s.db).Create(ctx, post)
}

func (s *PostService) Get(ctx context.Context, id string) (*models.Post, error) {
	return s.repomanager.Posts(s.db).GetByID(ctx, id)
}

func (s *PostService) GetBySlug(ctx context.Context, slug string) (*models.Post, error) {
	return s.repomanager.Posts(s.db).GetBySlug(ctx, slug)
}

func (s *PostService) List(ctx context.Context, publishedOnly bool) ([]*models.Post, error) {
	return s.repomanager.Posts(s.db).List(ctx, publishedOnly)
}

func (s *PostService) Update(ctx context.Context, id, title, body string, published bool) (*models.Post, error) {
	repo := s.repomanager.Posts(s.db)

	post, err := repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	post.Title = title
	post.Slug = Slugify(title)
	post.Body = body
	post.Published = published
	if post.Slug == "" {
		return nil, common.ErrorValidation
	}

	if err := repo.Update(ctx, post); err != nil {
		return nil, err
	}
	return post, nil
}

func (s *PostService) Delete(ctx context.Context, id string) error {
	return s.repomanager.Posts(s.db).Delete(ctx, id)
}
