package http

import (
	"time"

	"github.com/dmitrijs2005/jointbank/internal/server/models"
	"github.com/dmitrijs2005/jointbank/internal/server/services"
	"github.com/shopspring/decimal"
)

// money renders as a JSON number with two fractional digits.
type money decimal.Decimal

func (m money) MarshalJSON() ([]byte, error) {
	return []byte(decimal.Decimal(m).StringFixed(2)), nil
}

type registerRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type createAccountRequest struct {
	Name     string `json:"name"`
	Currency string `json:"currency"`
}

type inviteRequest struct {
	UserID string `json:"userId"`
}

type createTransactionRequest struct {
	Type          string          `json:"type"`
	Amount        decimal.Decimal `json:"amount"`
	Description   string          `json:"description"`
	RecipientIBAN string          `json:"recipientIban"`
	RecipientName string          `json:"recipientName"`
}

type tokenPairResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

type userResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

type accountResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Currency  string    `json:"currency"`
	Balance   money     `json:"balance"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type ownershipResponse struct {
	AccountID string    `json:"accountId"`
	UserID    string    `json:"userId"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

type transactionResponse struct {
	ID            string    `json:"id"`
	AccountID     string    `json:"accountId"`
	UserID        string    `json:"userId"`
	Type          string    `json:"type"`
	Amount        money     `json:"amount"`
	Description   string    `json:"description"`
	BalanceAfter  money     `json:"balanceAfter"`
	Status        string    `json:"status"`
	RecipientIBAN string    `json:"recipientIban,omitempty"`
	RecipientName string    `json:"recipientName,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
}

type statementResponse struct {
	URL string `json:"url"`
	Key string `json:"key"`
}

func toTokenPair(p *services.TokenPair) tokenPairResponse {
	return tokenPairResponse{AccessToken: p.AccessToken, RefreshToken: p.RefreshToken}
}

func toUser(u *models.User) userResponse {
	return userResponse{ID: u.ID, Email: u.Email, Name: u.Name, CreatedAt: u.CreatedAt}
}

func toAccount(a *models.JointAccount) accountResponse {
	return accountResponse{
		ID:        a.ID,
		Name:      a.Name,
		Currency:  a.Currency,
		Balance:   money(a.Balance),
		Status:    a.Status,
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
}

func toOwnership(o *models.JointOwner) ownershipResponse {
	return ownershipResponse{AccountID: o.AccountID, UserID: o.UserID, Role: o.Role, CreatedAt: o.CreatedAt}
}

func toTransaction(t *models.Transaction) transactionResponse {
	return transactionResponse{
		ID:            t.ID,
		AccountID:     t.AccountID,
		UserID:        t.UserID,
		Type:          string(t.Type),
		Amount:        money(t.Amount),
		Description:   t.Description,
		BalanceAfter:  money(t.BalanceAfter),
		Status:        t.Status,
		RecipientIBAN: t.RecipientIBAN,
		RecipientName: t.RecipientName,
		CreatedAt:     t.CreatedAt,
	}
}
