package accounts

import (
	"context"

	"github.com/dmitrijs2005/jointbank/internal/server/models"
	"github.com/shopspring/decimal"
)

type Repository interface {
	Create(ctx context.Context, account *models.JointAccount) (*models.JointAccount, error)
	GetByID(ctx context.Context, id string) (*models.JointAccount, error)
	// GetForUpdate loads the account and locks its row until the surrounding
	// transaction ends. It must be called on a transactional DBTX.
	GetForUpdate(ctx context.Context, id string) (*models.JointAccount, error)
	ListByOwner(ctx context.Context, userID string) ([]*models.JointAccount, error)
	// UpdateBalance sets the balance to newBalance only if it still equals
	// oldBalance. It returns common.ErrVersionConflict otherwise.
	UpdateBalance(ctx context.Context, id string, oldBalance, newBalance decimal.Decimal) error
}
