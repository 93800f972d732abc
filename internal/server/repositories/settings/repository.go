package settings

import (
	"context"

	"github.com/lakelandsports/cms/internal/server/models"
)

// Repository is the generic key/value settings store. Secret values arrive
// already encrypted; the repository never sees cleartext secrets.
type Repository interface {
	Get(ctx context.Context, key string) (*models.Setting, error)
	Set(ctx context.Context, setting *models.Setting) error
	Delete(ctx context.Context, key string) error
	List(ctx context.Context) ([]*models.Setting, error)
}
