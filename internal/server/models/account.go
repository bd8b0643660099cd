// Package models defines server-side data models persisted in the database.
package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Account statuses. Only ACTIVE accounts accept transactions.
const (
	AccountStatusActive = "ACTIVE"
	AccountStatusFrozen = "FROZEN"
	AccountStatusClosed = "CLOSED"
)

// Owner roles. Any role grants access; the creator is OWNER.
const (
	RoleOwner  = "OWNER"
	RoleMember = "MEMBER"
)

// JointAccount is a named balance shared by one or more owners.
type JointAccount struct {
	ID        string
	Name      string
	Currency  string
	Balance   decimal.Decimal
	Status    string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// JointOwner links a user to an account.
type JointOwner struct {
	AccountID string
	UserID    string
	Role      string
	CreatedAt time.Time
}
