package services

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/csv"
	"fmt"
	"time"

	"github.com/dmitrijs2005/jointbank/internal/server/models"
	"github.com/dmitrijs2005/jointbank/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

const (
	statementContentType = "text/csv"
	statementURLValidity = 15 * time.Minute
)

var statementHeader = []string{
	"date", "id", "type", "amount", "description", "balance_after",
	"recipient_iban", "recipient_name", "user_id",
}

// StatementLink points at an uploaded statement.
type StatementLink struct {
	Key string
	URL string
}

// StatementService renders an account's full history as CSV and publishes it
// through an ObjectStore.
type StatementService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	accounts    *AccountService
	store       ObjectStore
	now         func() time.Time
}

func NewStatementService(db *sql.DB, m repomanager.RepositoryManager, accounts *AccountService, store ObjectStore) *StatementService {
	return &StatementService{
		db:          db,
		repomanager: m,
		accounts:    accounts,
		store:       store,
		now:         time.Now,
	}
}

// Export uploads a statement for accountID and returns a short-lived
// download link.
func (s *StatementService) Export(ctx context.Context, accountID, userID string) (*StatementLink, error) {
	account, err := s.accounts.GetAccount(ctx, accountID, userID)
	if err != nil {
		return nil, err
	}

	txs, err := s.repomanager.Transactions(s.db).ListAll(ctx, accountID)
	if err != nil {
		return nil, err
	}

	body, err := renderStatement(txs)
	if err != nil {
		return nil, fmt.Errorf("error rendering statement: %w", err)
	}

	key := statementKey(account.ID, s.now())
	if err := s.store.PutObject(ctx, key, body, statementContentType); err != nil {
		return nil, err
	}

	url, err := s.store.PresignGet(ctx, key, statementURLValidity)
	if err != nil {
		return nil, err
	}
	return &StatementLink{Key: key, URL: url}, nil
}

func statementKey(accountID string, d time.Time) string {
	d = d.UTC()
	return fmt.Sprintf("statements/%s/%04d/%02d/%02d/%s.csv", accountID, d.Year(), d.Month(), d.Day(), uuid.New())
}

func renderStatement(txs []*models.Transaction) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(statementHeader); err != nil {
		return nil, err
	}
	for _, t := range txs {
		record := []string{
			t.CreatedAt.UTC().Format(time.RFC3339),
			t.ID,
			string(t.Type),
			t.Amount.StringFixed(amountScale),
			t.Description,
			t.BalanceAfter.StringFixed(amountScale),
			t.RecipientIBAN,
			t.RecipientName,
			t.UserID,
		}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
