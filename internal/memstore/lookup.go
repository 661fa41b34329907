// Copyright (c) 2026 Crate. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package memstore

import (
	"cmp"
	"context"
	"fmt"
	"slices"

	"github.com/taibuivan/crate/internal/core/lookup"
	"github.com/taibuivan/crate/internal/platform/dberr"
	"github.com/taibuivan/crate/internal/platform/tenant"
	"github.com/taibuivan/crate/pkg/textkey"
)

// LookupRepository is the in-memory [lookup.Repository].
type LookupRepository struct {
	store *Store
}

var _ lookup.Repository = (*LookupRepository)(nil)

func (repository *LookupRepository) rows(kind lookup.Kind) map[int64]*lookup.Lookup {
	return repository.store.state.lookups[kind]
}

// owned returns the tenant's row id, or nil.
func (repository *LookupRepository) owned(kind lookup.Kind, tenantID tenant.ID, id int64) *lookup.Lookup {
	l, ok := repository.rows(kind)[id]
	if !ok || l.TenantID != tenantID.Int64() {
		return nil
	}
	return l
}

// nameTaken reports whether another of the tenant's rows has exactly name.
func (repository *LookupRepository) nameTaken(kind lookup.Kind, tenantID tenant.ID, name string, self int64) bool {
	for _, l := range repository.rows(kind) {
		if l.TenantID == tenantID.Int64() && l.ID != self && l.Name == name {
			return true
		}
	}
	return false
}

func (repository *LookupRepository) Get(_ context.Context, kind lookup.Kind, tenantID tenant.ID, id int64) (*lookup.Lookup, error) {
	var found lookup.Lookup
	err := repository.store.read(func() error {
		l := repository.owned(kind, tenantID, id)
		if l == nil {
			return dberr.ErrNotFound
		}
		found = *l
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &found, nil
}

func (repository *LookupRepository) FindByName(_ context.Context, kind lookup.Kind, tenantID tenant.ID, name string) (*lookup.Lookup, error) {
	var found *lookup.Lookup
	err := repository.store.read(func() error {
		if err := repository.store.injected(OpLookupFindByName); err != nil {
			return err
		}
		for _, l := range repository.rows(kind) {
			if l.TenantID != tenantID.Int64() || !textkey.Equal(l.Name, name) {
				continue
			}
			if found == nil || l.ID < found.ID {
				copied := *l
				found = &copied
			}
		}
		if found == nil {
			return dberr.ErrNotFound
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return found, nil
}

func (repository *LookupRepository) Create(ctx context.Context, kind lookup.Kind, tenantID tenant.ID, name string) (*lookup.Lookup, error) {
	var created lookup.Lookup
	err := repository.store.write(ctx, func() error {
		if err := repository.store.injected(OpLookupCreate); err != nil {
			return err
		}
		if repository.nameTaken(kind, tenantID, name, 0) {
			return fmt.Errorf("memstore: create %s: %w", kind, dberr.ErrUniqueViolation)
		}

		repository.store.nextLookupID++
		now := repository.store.now()
		l := &lookup.Lookup{
			ID:        repository.store.nextLookupID,
			TenantID:  tenantID.Int64(),
			Kind:      kind,
			Name:      name,
			CreatedAt: now,
			UpdatedAt: now,
		}
		repository.rows(kind)[l.ID] = l
		created = *l
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &created, nil
}

func (repository *LookupRepository) Rename(ctx context.Context, kind lookup.Kind, tenantID tenant.ID, id int64, name string) (*lookup.Lookup, error) {
	var renamed lookup.Lookup
	err := repository.store.write(ctx, func() error {
		l := repository.owned(kind, tenantID, id)
		if l == nil {
			return dberr.ErrNotFound
		}
		if repository.nameTaken(kind, tenantID, name, id) {
			return fmt.Errorf("memstore: rename %s: %w", kind, dberr.ErrUniqueViolation)
		}
		l.Name = name
		l.UpdatedAt = repository.store.now()
		renamed = *l
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &renamed, nil
}

// Delete removes the row and clears single-valued release references to it.
// Encoded ID lists keep the stale ID, which later maps to a placeholder.
func (repository *LookupRepository) Delete(ctx context.Context, kind lookup.Kind, tenantID tenant.ID, id int64) error {
	return repository.store.write(ctx, func() error {
		if repository.owned(kind, tenantID, id) == nil {
			return dberr.ErrNotFound
		}
		delete(repository.rows(kind), id)

		for _, r := range repository.store.state.releases {
			if r.TenantID != tenantID.Int64() {
				continue
			}
			var ref **int64
			switch kind {
			case lookup.KindLabel:
				ref = &r.LabelID
			case lookup.KindCountry:
				ref = &r.CountryID
			case lookup.KindFormat:
				ref = &r.FormatID
			case lookup.KindPackaging:
				ref = &r.PackagingID
			default:
				continue
			}
			if *ref != nil && **ref == id {
				*ref = nil
			}
		}
		return nil
	})
}

func (repository *LookupRepository) List(_ context.Context, kind lookup.Kind, tenantID tenant.ID) ([]*lookup.Lookup, error) {
	lookups := make([]*lookup.Lookup, 0)
	err := repository.store.read(func() error {
		for _, l := range repository.rows(kind) {
			if l.TenantID == tenantID.Int64() {
				copied := *l
				lookups = append(lookups, &copied)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	slices.SortFunc(lookups, func(a, b *lookup.Lookup) int {
		return cmp.Or(cmp.Compare(textkey.Key(a.Name), textkey.Key(b.Name)), cmp.Compare(a.ID, b.ID))
	})
	return lookups, nil
}

func (repository *LookupRepository) Count(_ context.Context, kind lookup.Kind, tenantID tenant.ID) (int, error) {
	total := 0
	err := repository.store.read(func() error {
		for _, l := range repository.rows(kind) {
			if l.TenantID == tenantID.Int64() {
				total++
			}
		}
		return nil
	})
	return total, err
}

func (repository *LookupRepository) NamesByIDs(_ context.Context, kind lookup.Kind, tenantID tenant.ID, ids []int64) (map[int64]string, error) {
	names := make(map[int64]string, len(ids))
	err := repository.store.read(func() error {
		if err := repository.store.injected(OpLookupNames); err != nil {
			return err
		}
		for _, id := range ids {
			if l := repository.owned(kind, tenantID, id); l != nil {
				names[id] = l.Name
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return names, nil
}
