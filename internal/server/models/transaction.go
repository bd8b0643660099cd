package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type TransactionType string

const (
	TransactionDeposit    TransactionType = "DEPOSIT"
	TransactionWithdrawal TransactionType = "WITHDRAWAL"
	TransactionTransfer   TransactionType = "TRANSFER"
)

// Valid reports whether t is one of the known transaction types.
func (t TransactionType) Valid() bool {
	switch t {
	case TransactionDeposit, TransactionWithdrawal, TransactionTransfer:
		return true
	}
	return false
}

// Debit reports whether the transaction takes money out of the account.
func (t TransactionType) Debit() bool {
	return t == TransactionWithdrawal || t == TransactionTransfer
}

const TransactionStatusCompleted = "COMPLETED"

// Transaction is an immutable record of one balance change.
type Transaction struct {
	ID            string
	AccountID     string
	UserID        string
	Type          TransactionType
	Amount        decimal.Decimal
	Description   string
	BalanceAfter  decimal.Decimal
	Status        string
	RecipientIBAN string
	RecipientName string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
