package repomanager

import (
	"context"
	"database/sql"

	"github.com/yapplr/yapplr/internal/dbx"
	"github.com/yapplr/yapplr/internal/server/repositories/accounts"
	"github.com/yapplr/yapplr/internal/server/repositories/resettokens"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Accounts(db dbx.DBTX) accounts.Repository
	ResetTokens(db dbx.DBTX) resettokens.Repository
}
