// Package accounts persists joint accounts and their balances.
package accounts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/jointbank/internal/common"
	"github.com/dmitrijs2005/jointbank/internal/dbx"
	"github.com/dmitrijs2005/jointbank/internal/server/models"
	"github.com/shopspring/decimal"
)

const accountColumns = `id, name, currency, balance, status, created_at, updated_at`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, a *models.JointAccount) (*models.JointAccount, error) {
	query :=
		`INSERT INTO joint_accounts (id, name, currency, balance, status)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING created_at, updated_at`

	err := r.db.QueryRowContext(ctx, query, a.ID, a.Name, a.Currency, a.Balance, a.Status).
		Scan(&a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return a, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.JointAccount, error) {
	query := `SELECT ` + accountColumns + ` FROM joint_accounts WHERE id = $1`
	return scanAccount(r.db.QueryRowContext(ctx, query, id))
}

func (r *PostgresRepository) GetForUpdate(ctx context.Context, id string) (*models.JointAccount, error) {
	query := `SELECT ` + accountColumns + ` FROM joint_accounts WHERE id = $1 FOR UPDATE`
	return scanAccount(r.db.QueryRowContext(ctx, query, id))
}

func (r *PostgresRepository) ListByOwner(ctx context.Context, userID string) ([]*models.JointAccount, error) {
	query :=
		`SELECT a.id, a.name, a.currency, a.balance, a.status, a.created_at, a.updated_at
		 FROM joint_accounts a
		 JOIN joint_owners o ON o.account_id = a.id
		 WHERE o.user_id = $1
		 ORDER BY a.created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.JointAccount
	for rows.Next() {
		a := &models.JointAccount{}
		if err := rows.Scan(&a.ID, &a.Name, &a.Currency, &a.Balance, &a.Status, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

func (r *PostgresRepository) UpdateBalance(ctx context.Context, id string, oldBalance, newBalance decimal.Decimal) error {
	query :=
		`UPDATE joint_accounts SET balance = $2, updated_at = now()
		 WHERE id = $1 AND balance = $3`

	res, err := r.db.ExecContext(ctx, query, id, newBalance, oldBalance)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrVersionConflict
	}
	return nil
}

func scanAccount(row *sql.Row) (*models.JointAccount, error) {
	a := &models.JointAccount{}
	err := row.Scan(&a.ID, &a.Name, &a.Currency, &a.Balance, &a.Status, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return a, nil
}
