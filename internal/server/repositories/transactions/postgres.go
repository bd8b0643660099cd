// Package transactions persists the append-only transaction log.
package transactions

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/jointbank/internal/dbx"
	"github.com/dmitrijs2005/jointbank/internal/server/models"
)

const transactionColumns = `id, account_id, user_id, type, amount, description, balance_after,
	status, recipient_iban, recipient_name, created_at, updated_at`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, t *models.Transaction) (*models.Transaction, error) {
	query :=
		`INSERT INTO transactions (id, account_id, user_id, type, amount, description,
		   balance_after, status, recipient_iban, recipient_name)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 RETURNING created_at, updated_at`

	err := r.db.QueryRowContext(ctx, query,
		t.ID, t.AccountID, t.UserID, string(t.Type), t.Amount, t.Description,
		t.BalanceAfter, t.Status, t.RecipientIBAN, t.RecipientName,
	).Scan(&t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return t, nil
}

func (r *PostgresRepository) ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]*models.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions
		WHERE account_id = $1
		ORDER BY created_at DESC, id
		LIMIT $2 OFFSET $3`

	rows, err := r.db.QueryContext(ctx, query, accountID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return scanTransactions(rows)
}

func (r *PostgresRepository) ListAll(ctx context.Context, accountID string) ([]*models.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions
		WHERE account_id = $1
		ORDER BY created_at, id`

	rows, err := r.db.QueryContext(ctx, query, accountID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return scanTransactions(rows)
}

func scanTransactions(rows *sql.Rows) ([]*models.Transaction, error) {
	defer rows.Close()

	var result []*models.Transaction
	for rows.Next() {
		t := &models.Transaction{}
		var typ string
		if err := rows.Scan(&t.ID, &t.AccountID, &t.UserID, &typ, &t.Amount, &t.Description,
			&t.BalanceAfter, &t.Status, &t.RecipientIBAN, &t.RecipientName, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		t.Type = models.TransactionType(typ)
		result = append(result, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}
