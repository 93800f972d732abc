package posts

import (
	"context"

	"github.com/lakelandsports/cms/internal/server/models"
)

// Repository persists news posts, the representative content resource of
// the dashboard's generic data-access layer.
type Repository interface {
	Create(ctx context.Context, post *models.Post) (*models.Post, error)
	GetByID(ctx context.Context, id string) (*models.Post, error)
	GetBySlug(ctx context.Context, slug string) (*models.Post, error)
	List(ctx context.Context, publishedOnly bool) ([]*models.Post, error)
	Update(ctx context.Context, post *models.Post) error
	Delete(ctx context.Context, id string) error
}
