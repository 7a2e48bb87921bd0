package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/voicegate/internal/dbx"
	"github.com/dmitrijs2005/voicegate/internal/server/repositories/credits"
	"github.com/dmitrijs2005/voicegate/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/voicegate/internal/server/repositories/users"
)

// RepositoryManager vends repositories bound to a DBTX so that callers can
// choose between the pool and an open transaction.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	RefreshTokens(db dbx.DBTX) refreshtokens.Repository
	Credits(db dbx.DBTX) credits.Repository
}
