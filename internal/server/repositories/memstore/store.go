// Package memstore is an in-process implementation of the repositories.
// One mutex guards all tables, so a transaction on the store sees and
// changes users and subscriptions atomically.
package memstore

import (
	"context"
	"database/sql"
	"errors"
	"maps"
	"sync"
	"time"

	"github.com/dmitrijs2005/channelauth/internal/dbx"
	"github.com/dmitrijs2005/channelauth/internal/server/models"
)

var (
	errNoSQL    = errors.New("memstore: SQL is not supported")
	errReadOnly = errors.New("memstore: write in read-only transaction")
)

type edge struct {
	subscriber string
	channel    string
}

// Store holds every table in memory.
type Store struct {
	mu sync.RWMutex

	users      map[string]*models.User
	byUserName map[string]string
	byEmail    map[string]string
	edges      map[edge]time.Time

	now func() time.Time
}

func New() *Store {
	return &Store{
		users:      make(map[string]*models.User),
		byUserName: make(map[string]string),
		byEmail:    make(map[string]string),
		edges:      make(map[edge]time.Time),
		now:        time.Now,
	}
}

// Handle is the dbx.DBTX a Store hands to repositories. A handle created by
// WithTx marks the store lock as already held by the caller.
type Handle struct {
	store    *Store
	locked   bool
	readOnly bool
}

func (h *Handle) ExecContext(context.Context, string, ...any) (sql.Result, error) {
	return nil, errNoSQL
}

func (h *Handle) QueryContext(context.Context, string, ...any) (*sql.Rows, error) {
	return nil, errNoSQL
}

// QueryRowContext returns nil; callers must not issue SQL against a Handle.
func (h *Handle) QueryRowContext(context.Context, string, ...any) *sql.Row {
	return nil
}

var _ dbx.DBTX = (*Handle)(nil)

// DB returns the unlocked handle; each repository call takes the lock itself.
func (s *Store) DB() *Handle {
	return &Handle{store: s}
}

// handleFor resolves db to a handle of s. Anything else (including a nil
// or foreign DBTX) yields the unlocked handle.
func (s *Store) handleFor(db dbx.DBTX) *Handle {
	if h, ok := db.(*Handle); ok && h != nil && h.store == s {
		return h
	}
	return s.DB()
}

func (h *Handle) rlock() func() {
	if h.locked {
		return func() {}
	}
	h.store.mu.RLock()
	return h.store.mu.RUnlock
}

// lock takes the write lock. Writers check h.readOnly first.
func (h *Handle) lock() func() {
	if h.locked {
		return func() {}
	}
	h.store.mu.Lock()
	return h.store.mu.Unlock
}

// WithTx runs fn while holding the store lock: a read lock for read-only
// options, the write lock otherwise. A failed write transaction restores
// the tables to their state before fn.
func (s *Store) WithTx(ctx context.Context, opts *sql.TxOptions, fn dbx.TxFunc) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}

	if opts != nil && opts.ReadOnly {
		s.mu.RLock()
		defer s.mu.RUnlock()
		return fn(ctx, &Handle{store: s, locked: true, readOnly: true})
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	saved := s.snapshot()
	defer func() {
		if p := recover(); p != nil {
			s.restore(saved)
			panic(p)
		}
		if err != nil {
			s.restore(saved)
		}
	}()

	return fn(ctx, &Handle{store: s, locked: true})
}

type tables struct {
	users      map[string]*models.User
	byUserName map[string]string
	byEmail    map[string]string
	edges      map[edge]time.Time
}

// snapshot copies the tables. User values are copied because repositories
// replace them on update rather than mutating in place.
func (s *Store) snapshot() tables {
	return tables{
		users:      maps.Clone(s.users),
		byUserName: maps.Clone(s.byUserName),
		byEmail:    maps.Clone(s.byEmail),
		edges:      maps.Clone(s.edges),
	}
}

func (s *Store) restore(t tables) {
	s.users = t.users
	s.byUserName = t.byUserName
	s.byEmail = t.byEmail
	s.edges = t.edges
}
