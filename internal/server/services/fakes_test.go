package services

import (
	"context"
	"database/sql"
	"sort"
	"sync"
	"time"

	"github.com/dmitrijs2005/jointbank/internal/common"
	"github.com/dmitrijs2005/jointbank/internal/dbx"
	"github.com/dmitrijs2005/jointbank/internal/server/models"
	accountsrepo "github.com/dmitrijs2005/jointbank/internal/server/repositories/accounts"
	ownersrepo "github.com/dmitrijs2005/jointbank/internal/server/repositories/owners"
	refreshtokensrepo "github.com/dmitrijs2005/jointbank/internal/server/repositories/refreshtokens"
	transactionsrepo "github.com/dmitrijs2005/jointbank/internal/server/repositories/transactions"
	usersrepo "github.com/dmitrijs2005/jointbank/internal/server/repositories/users"
	"github.com/shopspring/decimal"
)

const (
	accountID = "0b8f6f36-3c51-4d6e-9a53-1f0c7e4a2b01"
	aliceID   = "5a2d3c1e-8b7f-4e6d-a5c4-b3a291807f01"
	bobID     = "5a2d3c1e-8b7f-4e6d-a5c4-b3a291807f02"
	carolID   = "5a2d3c1e-8b7f-4e6d-a5c4-b3a291807f03"
)

type errBoom struct{}

func (errBoom) Error() string { return "boom" }

// --- users ---

type fakeUsersRepo struct {
	mu        sync.Mutex
	byID      map[string]*models.User
	createErr error
	getErr    error
}

func (f *fakeUsersRepo) Create(_ context.Context, u *models.User) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return nil, f.createErr
	}
	for _, existing := range f.byID {
		if existing.Email == u.Email {
			return nil, common.ErrorAlreadyExists
		}
	}
	u.CreatedAt, u.UpdatedAt = time.Now(), time.Now()
	cp := *u
	f.byID[u.ID] = &cp
	return u, nil
}

func (f *fakeUsersRepo) GetByEmail(_ context.Context, email string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	for _, u := range f.byID {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (f *fakeUsersRepo) GetByID(_ context.Context, id string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	u, ok := f.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *u
	return &cp, nil
}

// --- refresh tokens ---

type fakeRefreshRepo struct {
	mu        sync.Mutex
	tokens    map[string]*models.RefreshToken
	findErr   error
	delErr    error
	createErr error
}

func (f *fakeRefreshRepo) Create(_ context.Context, userID, token string, validity time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	f.tokens[token] = &models.RefreshToken{UserID: userID, Token: token, ExpiresAt: time.Now().Add(validity)}
	return nil
}

func (f *fakeRefreshRepo) Find(_ context.Context, token string) (*models.RefreshToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.findErr != nil {
		return nil, f.findErr
	}
	t, ok := f.tokens[token]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *t
	return &cp, nil
}

func (f *fakeRefreshRepo) Delete(_ context.Context, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.delErr != nil {
		return f.delErr
	}
	delete(f.tokens, token)
	return nil
}

// --- accounts ---

type fakeAccountsRepo struct {
	mu        sync.Mutex
	byID      map[string]*models.JointAccount
	createErr error
	listErr   error

	// updateErrs are returned, in order, by the first UpdateBalance calls.
	updateErrs []error
	updates    int

	// When barrier is set, the first barrierSize GetForUpdate calls wait for
	// each other so they all observe the same balance.
	barrier     *sync.WaitGroup
	barrierSize int
	reads       int
}

func (f *fakeAccountsRepo) put(a *models.JointAccount) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *a
	f.byID[a.ID] = &cp
}

func (f *fakeAccountsRepo) balance(id string) decimal.Decimal {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.byID[id].Balance
}

func (f *fakeAccountsRepo) Create(_ context.Context, a *models.JointAccount) (*models.JointAccount, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	a.CreatedAt, a.UpdatedAt = time.Now(), time.Now()
	f.put(a)
	return a, nil
}

func (f *fakeAccountsRepo) GetByID(_ context.Context, id string) (*models.JointAccount, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *a
	return &cp, nil
}

func (f *fakeAccountsRepo) GetForUpdate(ctx context.Context, id string) (*models.JointAccount, error) {
	a, err := f.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	f.mu.Lock()
	hold := f.barrier != nil && f.reads < f.barrierSize
	f.reads++
	f.mu.Unlock()

	if hold {
		f.barrier.Done()
		f.barrier.Wait()
	}
	return a, nil
}

func (f *fakeAccountsRepo) ListByOwner(_ context.Context, userID string) ([]*models.JointAccount, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []*models.JointAccount
	for _, a := range f.byID {
		cp := *a
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeAccountsRepo) UpdateBalance(_ context.Context, id string, oldBalance, newBalance decimal.Decimal) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.updates++
	if f.updates <= len(f.updateErrs) && f.updateErrs[f.updates-1] != nil {
		return f.updateErrs[f.updates-1]
	}

	a, ok := f.byID[id]
	if !ok || !a.Balance.Equal(oldBalance) {
		return common.ErrVersionConflict
	}
	a.Balance = newBalance
	return nil
}

// --- owners ---

type fakeOwnersRepo struct {
	mu        sync.Mutex
	rows      map[string]string
	createErr error
	existsErr error
}

func ownerKey(accountID, userID string) string { return accountID + "/" + userID }

func (f *fakeOwnersRepo) Create(_ context.Context, o *models.JointOwner) (*models.JointOwner, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return nil, f.createErr
	}
	k := ownerKey(o.AccountID, o.UserID)
	if _, ok := f.rows[k]; ok {
		return nil, common.ErrorAlreadyExists
	}
	f.rows[k] = o.Role
	o.CreatedAt = time.Now()
	return o, nil
}

func (f *fakeOwnersRepo) IsOwner(_ context.Context, accountID, userID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.existsErr != nil {
		return false, f.existsErr
	}
	_, ok := f.rows[ownerKey(accountID, userID)]
	return ok, nil
}

// --- transactions ---

type fakeTransactionsRepo struct {
	mu        sync.Mutex
	rows      []*models.Transaction
	createErr error
	listErr   error

	lastLimit, lastOffset int
}

func (f *fakeTransactionsRepo) Create(_ context.Context, t *models.Transaction) (*models.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return nil, f.createErr
	}
	t.CreatedAt, t.UpdatedAt = time.Now(), time.Now()
	cp := *t
	f.rows = append(f.rows, &cp)
	return t, nil
}

func (f *fakeTransactionsRepo) ListByAccount(_ context.Context, accountID string, limit, offset int) ([]*models.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastLimit, f.lastOffset = limit, offset
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []*models.Transaction
	for i := len(f.rows) - 1; i >= 0; i-- {
		if f.rows[i].AccountID == accountID {
			out = append(out, f.rows[i])
		}
	}
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeTransactionsRepo) ListAll(_ context.Context, accountID string) ([]*models.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []*models.Transaction
	for _, t := range f.rows {
		if t.AccountID == accountID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *fakeTransactionsRepo) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.rows)
}

// --- manager ---

type fakeRepoManager struct {
	users    *fakeUsersRepo
	refresh  *fakeRefreshRepo
	accounts *fakeAccountsRepo
	owners   *fakeOwnersRepo
	txs      *fakeTransactionsRepo
}

func newFakeRepoManager() *fakeRepoManager {
	return &fakeRepoManager{
		users:    &fakeUsersRepo{byID: map[string]*models.User{}},
		refresh:  &fakeRefreshRepo{tokens: map[string]*models.RefreshToken{}},
		accounts: &fakeAccountsRepo{byID: map[string]*models.JointAccount{}},
		owners:   &fakeOwnersRepo{rows: map[string]string{}},
		txs:      &fakeTransactionsRepo{},
	}
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }

func (m *fakeRepoManager) Users(dbx.DBTX) usersrepo.Repository { return m.users }

func (m *fakeRepoManager) RefreshTokens(dbx.DBTX) refreshtokensrepo.Repository { return m.refresh }

func (m *fakeRepoManager) Accounts(dbx.DBTX) accountsrepo.Repository { return m.accounts }

func (m *fakeRepoManager) Owners(dbx.DBTX) ownersrepo.Repository { return m.owners }

func (m *fakeRepoManager) Transactions(dbx.DBTX) transactionsrepo.Repository { return m.txs }

// withAccount seeds an ACTIVE account owned by the given users.
func (m *fakeRepoManager) withAccount(balance string, owners ...string) *fakeRepoManager {
	m.accounts.put(&models.JointAccount{
		ID:       accountID,
		Name:     "Household",
		Currency: "EUR",
		Balance:  decimal.RequireFromString(balance),
		Status:   models.AccountStatusActive,
	})
	for i, u := range owners {
		role := models.RoleMember
		if i == 0 {
			role = models.RoleOwner
		}
		m.owners.rows[ownerKey(accountID, u)] = role
	}
	return m
}
