package transactions

import (
	"context"

	"github.com/dmitrijs2005/jointbank/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, t *models.Transaction) (*models.Transaction, error)
	// ListByAccount returns a page of transactions, newest first.
	ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]*models.Transaction, error)
	// ListAll returns the full history of the account in chronological order.
	ListAll(ctx context.Context, accountID string) ([]*models.Transaction, error)
}
