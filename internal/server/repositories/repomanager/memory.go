package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/channelauth/internal/dbx"
	"github.com/dmitrijs2005/channelauth/internal/server/repositories/memstore"
	"github.com/dmitrijs2005/channelauth/internal/server/repositories/subscriptions"
	"github.com/dmitrijs2005/channelauth/internal/server/repositories/users"
)

// MemoryRepositoryManager serves repositories from a memstore.Store.
// Nothing survives a restart.
type MemoryRepositoryManager struct {
	store *memstore.Store
}

func NewMemoryRepositoryManager() *MemoryRepositoryManager {
	return &MemoryRepositoryManager{store: memstore.New()}
}

func (m *MemoryRepositoryManager) Users(db dbx.DBTX) users.Repository {
	return m.store.Users(db)
}

func (m *MemoryRepositoryManager) Subscriptions(db dbx.DBTX) subscriptions.Repository {
	return m.store.Subscriptions(db)
}

func (m *MemoryRepositoryManager) WithTx(ctx context.Context, opts *sql.TxOptions, fn dbx.TxFunc) error {
	return m.store.WithTx(ctx, opts, fn)
}

func (m *MemoryRepositoryManager) DB() dbx.DBTX {
	return m.store.DB()
}

// RunMigrations is a no-op; the memory schema needs none.
func (m *MemoryRepositoryManager) RunMigrations(context.Context) error {
	return nil
}

var _ RepositoryManager = (*MemoryRepositoryManager)(nil)
