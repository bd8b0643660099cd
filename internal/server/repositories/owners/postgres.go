// Package owners persists account memberships. A row grants its user access
// to the account.
package owners

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/jointbank/internal/common"
	"github.com/dmitrijs2005/jointbank/internal/dbx"
	"github.com/dmitrijs2005/jointbank/internal/server/models"
	"github.com/jackc/pgx/v5/pgconn"
)

const sqlStateUniqueViolation = "23505"

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts the membership. An existing pair returns
// common.ErrorAlreadyExists.
func (r *PostgresRepository) Create(ctx context.Context, o *models.JointOwner) (*models.JointOwner, error) {
	query :=
		`INSERT INTO joint_owners (account_id, user_id, role)
		 VALUES ($1, $2, $3)
		 RETURNING created_at`

	err := r.db.QueryRowContext(ctx, query, o.AccountID, o.UserID, o.Role).Scan(&o.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == sqlStateUniqueViolation {
			return nil, common.ErrorAlreadyExists
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return o, nil
}

func (r *PostgresRepository) IsOwner(ctx context.Context, accountID, userID string) (bool, error) {
	query :=
		`SELECT EXISTS (
		   SELECT 1 FROM joint_owners WHERE account_id = $1 AND user_id = $2
		 )`

	var ok bool
	if err := r.db.QueryRowContext(ctx, query, accountID, userID).Scan(&ok); err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return ok, nil
}
