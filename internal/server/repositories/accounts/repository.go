package accounts

import (
	"context"

	"github.com/lakelandsports/cms/internal/server/models"
)

// Repository persists dashboard accounts. Implementations translate driver
// errors to the sentinels in internal/common (ErrorNotFound,
// ErrorAlreadyExists).
type Repository interface {
	Create(ctx context.Context, account *models.Account) (*models.Account, error)
	GetByID(ctx context.Context, id string) (*models.Account, error)
	GetByEmail(ctx context.Context, email string) (*models.Account, error)
	GetByVerificationToken(ctx context.Context, token string) (*models.Account, error)
	List(ctx context.Context) ([]*models.Account, error)
	Update(ctx context.Context, account *models.Account) error
}
