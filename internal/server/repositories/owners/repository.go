package owners

import (
	"context"

	"github.com/dmitrijs2005/jointbank/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, owner *models.JointOwner) (*models.JointOwner, error)
	// IsOwner reports whether a membership row exists for the pair.
	IsOwner(ctx context.Context, accountID, userID string) (bool, error)
}
