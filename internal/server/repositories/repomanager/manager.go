package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/jointbank/internal/dbx"
	"github.com/dmitrijs2005/jointbank/internal/server/repositories/accounts"
	"github.com/dmitrijs2005/jointbank/internal/server/repositories/owners"
	"github.com/dmitrijs2005/jointbank/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/jointbank/internal/server/repositories/transactions"
	"github.com/dmitrijs2005/jointbank/internal/server/repositories/users"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	RefreshTokens(db dbx.DBTX) refreshtokens.Repository
	Accounts(db dbx.DBTX) accounts.Repository
	Owners(db dbx.DBTX) owners.Repository
	Transactions(db dbx.DBTX) transactions.Repository
}
