package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/channelauth/internal/dbx"
	"github.com/dmitrijs2005/channelauth/internal/server/repositories/subscriptions"
	"github.com/dmitrijs2005/channelauth/internal/server/repositories/users"
)

// RepositoryManager vends repositories bound to a DBTX and owns the
// transaction boundary of its backend.
type RepositoryManager interface {
	RunMigrations(ctx context.Context) error
	Users(db dbx.DBTX) users.Repository
	Subscriptions(db dbx.DBTX) subscriptions.Repository
	// WithTx runs fn in one transaction. Repositories built from the tx
	// handle passed to fn take part in it.
	WithTx(ctx context.Context, opts *sql.TxOptions, fn dbx.TxFunc) error
	// DB returns the non-transactional handle.
	DB() dbx.DBTX
}
