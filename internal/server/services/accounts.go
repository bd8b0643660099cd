package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dmitrijs2005/jointbank/internal/common"
	"github.com/dmitrijs2005/jointbank/internal/dbx"
	"github.com/dmitrijs2005/jointbank/internal/logging"
	"github.com/dmitrijs2005/jointbank/internal/server/config"
	"github.com/dmitrijs2005/jointbank/internal/server/models"
	"github.com/dmitrijs2005/jointbank/internal/server/repositories/repomanager"
	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"
	"github.com/shopspring/decimal"
)

const (
	DefaultTransactionsLimit = 50
	MaxTransactionsLimit     = 200

	maxDescriptionLength = 255
	amountScale          = 2

	// amounts and balances are stored as NUMERIC(20,2)
	maxAmountDigits = 18
	minAmountExp    = -amountScale - 16
)

// maxAmount is the first value that no longer fits an amount or balance column.
var maxAmount = decimal.New(1, maxAmountDigits)

// TransactionRequest is the caller's input to CreateTransaction.
type TransactionRequest struct {
	Type          models.TransactionType
	Amount        decimal.Decimal
	Description   string
	RecipientIBAN string
	RecipientName string
}

// AccountService manages joint accounts, their owners and the transaction log.
type AccountService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	log         logging.Logger
	maxRetries  uint64
	retryDelay  time.Duration
}

func NewAccountService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config, log logging.Logger) *AccountService {
	return &AccountService{
		db:          db,
		repomanager: m,
		log:         log.With("module", "accounts"),
		maxRetries:  cfg.MaxTxRetries,
		retryDelay:  cfg.TxRetryBaseDelay,
	}
}

// CreateAccount opens an ACTIVE account with a zero balance and makes userID
// its OWNER. Both rows are written in one transaction.
func (s *AccountService) CreateAccount(ctx context.Context, userID, name, currency string) (*models.JointAccount, error) {
	name = strings.TrimSpace(name)
	if name == "" || utf8.RuneCountInString(name) > maxNameLength {
		return nil, common.ErrorInvalid
	}

	currency = strings.ToUpper(strings.TrimSpace(currency))
	if currency == "" {
		currency = common.DefaultCurrency
	}
	if !validCurrency(currency) {
		return nil, common.ErrorInvalid
	}

	account := &models.JointAccount{
		ID:       uuid.NewString(),
		Name:     name,
		Currency: currency,
		Balance:  decimal.Zero,
		Status:   models.AccountStatusActive,
	}

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if _, err := s.repomanager.Accounts(tx).Create(ctx, account); err != nil {
			return fmt.Errorf("error creating account: %w", err)
		}
		owner := &models.JointOwner{AccountID: account.ID, UserID: userID, Role: models.RoleOwner}
		if _, err := s.repomanager.Owners(tx).Create(ctx, owner); err != nil {
			return fmt.Errorf("error creating owner: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return account, nil
}

// InviteOwner adds inviteeID to the account as a MEMBER. Only an existing
// owner may invite.
func (s *AccountService) InviteOwner(ctx context.Context, accountID, actingUserID, inviteeID string) (*models.JointOwner, error) {
	if err := parseIDs(accountID, inviteeID); err != nil {
		return nil, err
	}
	if err := s.requireOwner(ctx, s.db, accountID, actingUserID); err != nil {
		return nil, err
	}

	if _, err := s.repomanager.Users(s.db).GetByID(ctx, inviteeID); err != nil {
		return nil, err
	}

	owner, err := s.repomanager.Owners(s.db).Create(ctx, &models.JointOwner{
		AccountID: accountID,
		UserID:    inviteeID,
		Role:      models.RoleMember,
	})
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return nil, fmt.Errorf("%w: user already owns the account", common.ErrorInvalid)
		}
		return nil, err
	}
	return owner, nil
}

// ListAccounts returns the accounts userID owns, newest first.
func (s *AccountService) ListAccounts(ctx context.Context, userID string) ([]*models.JointAccount, error) {
	return s.repomanager.Accounts(s.db).ListByOwner(ctx, userID)
}

func (s *AccountService) GetAccount(ctx context.Context, accountID, userID string) (*models.JointAccount, error) {
	if err := parseIDs(accountID); err != nil {
		return nil, err
	}
	if err := s.requireOwner(ctx, s.db, accountID, userID); err != nil {
		return nil, err
	}
	return s.repomanager.Accounts(s.db).GetByID(ctx, accountID)
}

// ListTransactions returns a page of the account's transactions, newest
// first. A non-positive limit selects DefaultTransactionsLimit; larger
// limits are capped at MaxTransactionsLimit.
func (s *AccountService) ListTransactions(ctx context.Context, accountID, userID string, limit, offset int) ([]*models.Transaction, error) {
	if err := parseIDs(accountID); err != nil {
		return nil, err
	}
	if offset < 0 {
		return nil, common.ErrorInvalid
	}
	if limit <= 0 {
		limit = DefaultTransactionsLimit
	}
	if limit > MaxTransactionsLimit {
		limit = MaxTransactionsLimit
	}

	if err := s.requireOwner(ctx, s.db, accountID, userID); err != nil {
		return nil, err
	}
	if _, err := s.repomanager.Accounts(s.db).GetByID(ctx, accountID); err != nil {
		return nil, err
	}
	return s.repomanager.Transactions(s.db).ListByAccount(ctx, accountID, limit, offset)
}

// CreateTransaction applies one balance change and records it.
//
// The ownership check, the locked balance read, the conditional balance
// update and the transaction insert share one serializable transaction. An
// attempt aborted by a concurrent writer is retried from the start with
// exponential backoff; once the retry budget is spent the call fails with
// common.ErrVersionConflict.
func (s *AccountService) CreateTransaction(ctx context.Context, accountID, userID string, req TransactionRequest) (*models.Transaction, error) {
	if err := parseIDs(accountID); err != nil {
		return nil, err
	}
	if err := validateTransaction(&req); err != nil {
		return nil, err
	}

	var (
		created *models.Transaction
		attempt int
	)
	opts := &sql.TxOptions{Isolation: sql.LevelSerializable}

	err := dbx.WithRetryTx(ctx, s.db, opts, s.backoff(), isConflict, func(ctx context.Context, tx dbx.DBTX) error {
		attempt++
		if attempt > 1 {
			s.log.Warn(ctx, "retrying balance update", "account_id", accountID, "attempt", attempt)
		}
		t, err := s.applyTransaction(ctx, tx, accountID, userID, req)
		if err != nil {
			return err
		}
		created = t
		return nil
	})
	if err != nil {
		if isConflict(err) {
			s.log.Error(ctx, "balance update gave up", "account_id", accountID, "attempts", attempt, "error", err)
			return nil, common.ErrVersionConflict
		}
		return nil, err
	}

	s.log.Info(ctx, "transaction created",
		"account_id", accountID, "transaction_id", created.ID, "type", string(created.Type))
	return created, nil
}

func (s *AccountService) applyTransaction(ctx context.Context, tx dbx.DBTX, accountID, userID string, req TransactionRequest) (*models.Transaction, error) {
	if err := s.requireOwner(ctx, tx, accountID, userID); err != nil {
		return nil, err
	}

	accounts := s.repomanager.Accounts(tx)
	account, err := accounts.GetForUpdate(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if account.Status != models.AccountStatusActive {
		return nil, fmt.Errorf("%w: account is %s", common.ErrorInvalid, account.Status)
	}

	newBalance := account.Balance.Add(req.Amount)
	if req.Type.Debit() {
		if req.Amount.GreaterThan(account.Balance) {
			return nil, common.ErrorInsufficientFunds
		}
		newBalance = account.Balance.Sub(req.Amount)
	}
	if newBalance.GreaterThanOrEqual(maxAmount) {
		return nil, fmt.Errorf("%w: balance limit exceeded", common.ErrorInvalid)
	}

	if err := accounts.UpdateBalance(ctx, account.ID, account.Balance, newBalance); err != nil {
		return nil, err
	}

	return s.repomanager.Transactions(tx).Create(ctx, &models.Transaction{
		ID:            uuid.NewString(),
		AccountID:     accountID,
		UserID:        userID,
		Type:          req.Type,
		Amount:        req.Amount,
		Description:   req.Description,
		BalanceAfter:  newBalance,
		Status:        models.TransactionStatusCompleted,
		RecipientIBAN: req.RecipientIBAN,
		RecipientName: req.RecipientName,
	})
}

// requireOwner returns common.ErrorUnauthorized unless userID owns accountID.
func (s *AccountService) requireOwner(ctx context.Context, db dbx.DBTX, accountID, userID string) error {
	ok, err := s.repomanager.Owners(db).IsOwner(ctx, accountID, userID)
	if err != nil {
		return err
	}
	if !ok {
		return common.ErrorUnauthorized
	}
	return nil
}

func (s *AccountService) backoff() retry.Backoff {
	return retry.WithMaxRetries(s.maxRetries, retry.NewExponential(s.retryDelay))
}

func isConflict(err error) bool {
	return errors.Is(err, common.ErrVersionConflict) || dbx.IsSerializationFailure(err)
}

// validateTransaction checks req and normalizes its recipient fields.
func validateTransaction(req *TransactionRequest) error {
	if !req.Type.Valid() {
		return fmt.Errorf("%w: unknown transaction type %q", common.ErrorInvalid, req.Type)
	}
	if !req.Amount.IsPositive() {
		return fmt.Errorf("%w: amount must be positive", common.ErrorInvalid)
	}
	// Round and compare rescale the coefficient, so the exponent is bounded first.
	if exp := req.Amount.Exponent(); exp < minAmountExp || exp > maxAmountDigits {
		return fmt.Errorf("%w: amount out of range", common.ErrorInvalid)
	}
	if req.Amount.GreaterThanOrEqual(maxAmount) {
		return fmt.Errorf("%w: amount out of range", common.ErrorInvalid)
	}
	if !req.Amount.Equal(req.Amount.Round(amountScale)) {
		return fmt.Errorf("%w: amount must have at most two decimals", common.ErrorInvalid)
	}
	if utf8.RuneCountInString(req.Description) > maxDescriptionLength {
		return fmt.Errorf("%w: description too long", common.ErrorInvalid)
	}

	req.RecipientIBAN = normalizeIBAN(req.RecipientIBAN)
	req.RecipientName = strings.TrimSpace(req.RecipientName)
	if req.Type != models.TransactionTransfer {
		if req.RecipientIBAN != "" || req.RecipientName != "" {
			return fmt.Errorf("%w: recipient is only allowed on transfers", common.ErrorInvalid)
		}
		return nil
	}
	if req.RecipientIBAN != "" && !validIBAN(req.RecipientIBAN) {
		return fmt.Errorf("%w: invalid recipient IBAN", common.ErrorInvalid)
	}
	if utf8.RuneCountInString(req.RecipientName) > maxNameLength {
		return fmt.Errorf("%w: recipient name too long", common.ErrorInvalid)
	}
	return nil
}

func validCurrency(c string) bool {
	if len(c) != 3 {
		return false
	}
	for i := 0; i < len(c); i++ {
		if !isUpperLetter(c[i]) {
			return false
		}
	}
	return true
}

// parseIDs rejects ids that are not UUIDs before they reach the database.
func parseIDs(ids ...string) error {
	for _, id := range ids {
		if _, err := uuid.Parse(id); err != nil {
			return fmt.Errorf("%w: malformed id", common.ErrorInvalid)
		}
	}
	return nil
}
