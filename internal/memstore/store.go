// Copyright (c) 2026 Crate. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package memstore is an in-memory catalogue backend.

It implements the lookup and release repositories plus a transaction manager
with the same observable behaviour as the PostgreSQL backend: tenant scoping,
exact (tenant, name) uniqueness, per-tenant external ID uniqueness and
all-or-nothing transactions. It backs STORAGE_DRIVER=memory and the tests.

# Transactions

One transaction runs at a time. A transaction snapshots the whole state on
entry and restores it on failure; ID counters are never rewound. Writes made
outside a transaction wait for a running transaction to finish. Reads do not
wait and may observe uncommitted writes.
*/
package memstore

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/taibuivan/crate/internal/core/lookup"
	"github.com/taibuivan/crate/internal/core/release"
	"github.com/taibuivan/crate/internal/platform/ctxkey"
)

// Operation names accepted by [Store.FailOn].
const (
	OpLookupFindByName = "lookup.find_by_name"
	OpLookupCreate     = "lookup.create"
	OpLookupNames      = "lookup.names"
	OpReleaseGet       = "release.get"
	OpReleaseList      = "release.list"
	OpReleaseCreate    = "release.create"
	OpReleaseUpdate    = "release.update"
	OpReleaseDelete    = "release.delete"
	OpReleaseFind      = "release.find"
)

// Store holds every tenant's catalogue.
type Store struct {
	mu   sync.RWMutex
	txMu sync.Mutex

	state         state
	nextLookupID  int64
	nextReleaseID int64
	failures      map[string]error
	now           func() time.Time
}

type state struct {
	lookups  map[lookup.Kind]map[int64]*lookup.Lookup
	releases map[int64]*release.Release
}

// New returns an empty store.
func New() *Store {
	return &Store{
		state:    newState(),
		failures: make(map[string]error),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func newState() state {
	s := state{
		lookups:  make(map[lookup.Kind]map[int64]*lookup.Lookup, len(lookup.Kinds)),
		releases: make(map[int64]*release.Release),
	}
	for _, kind := range lookup.Kinds {
		s.lookups[kind] = make(map[int64]*lookup.Lookup)
	}
	return s
}

func (s state) clone() state {
	c := newState()
	for kind, rows := range s.lookups {
		for id, l := range rows {
			copied := *l
			c.lookups[kind][id] = &copied
		}
	}
	for id, r := range s.releases {
		c.releases[id] = r.Clone()
	}
	return c
}

// FailOn makes every later call of op fail with err. A nil err clears it.
func (s *Store) FailOn(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err == nil {
		delete(s.failures, op)
		return
	}
	s.failures[op] = err
}

// injected returns the failure registered for op. Callers hold mu.
func (s *Store) injected(op string) error {
	if err, ok := s.failures[op]; ok {
		return fmt.Errorf("memstore: %s: %w", op, err)
	}
	return nil
}

// # Transactions

func (s *Store) inTransaction(ctx context.Context) bool {
	owner, ok := ctx.Value(ctxkey.KeyTx).(*Store)
	return ok && owner == s
}

// WithinTransaction runs fn atomically. Nested calls join the outer
// transaction.
func (s *Store) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if s.inTransaction(ctx) {
		return fn(ctx)
	}

	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.RLock()
	snapshot := s.state.clone()
	s.mu.RUnlock()

	rollback := func() {
		s.mu.Lock()
		s.state = snapshot
		s.mu.Unlock()
	}

	defer func() {
		if p := recover(); p != nil {
			rollback()
			panic(p)
		}
	}()

	if err := fn(context.WithValue(ctx, ctxkey.KeyTx, s)); err != nil {
		rollback()
		return err
	}
	return nil
}

// write runs fn under the write lock, first waiting for any running
// transaction unless ctx belongs to it.
func (s *Store) write(ctx context.Context, fn func() error) error {
	if !s.inTransaction(ctx) {
		s.txMu.Lock()
		defer s.txMu.Unlock()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return fn()
}

func (s *Store) read(fn func() error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn()
}

// LookupRepository returns the store's [lookup.Repository].
func (s *Store) LookupRepository() *LookupRepository {
	return &LookupRepository{store: s}
}

// ReleaseRepository returns the store's [release.Repository].
func (s *Store) ReleaseRepository() *ReleaseRepository {
	return &ReleaseRepository{store: s}
}
