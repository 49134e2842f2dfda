package repomanager

import (
	"database/sql"
	"fmt"
	"io"

	"github.com/dmitrijs2005/channelauth/internal/server/config"
)

// openDB is a seam for sql.Open.
var openDB = func(dsn string) (*sql.DB, error) {
	return sql.Open("pgx", dsn)
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// Open returns the RepositoryManager for driver and a Closer that releases
// its resources. dsn is only used by the postgres driver.
func Open(driver, dsn string) (RepositoryManager, io.Closer, error) {
	switch driver {
	case config.StorageMemory:
		return NewMemoryRepositoryManager(), nopCloser{}, nil
	case config.StoragePostgres:
		db, err := openDB(dsn)
		if err != nil {
			return nil, nil, fmt.Errorf("db init error: %w", err)
		}
		m, err := NewPostgresRepositoryManager(db)
		if err != nil {
			_ = db.Close()
			return nil, nil, fmt.Errorf("db init error: %w", err)
		}
		return m, db, nil
	}
	return nil, nil, fmt.Errorf("unknown storage driver %q", driver)
}
