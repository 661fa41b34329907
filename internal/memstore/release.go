// Copyright (c) 2026 Crate. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package memstore

import (
	"cmp"
	"context"
	"fmt"
	"slices"

	"github.com/taibuivan/crate/internal/core/release"
	"github.com/taibuivan/crate/internal/platform/dberr"
	"github.com/taibuivan/crate/internal/platform/tenant"
	"github.com/taibuivan/crate/pkg/textkey"
)

// ReleaseRepository is the in-memory [release.Repository]. Rows are cloned on
// the way in and out.
type ReleaseRepository struct {
	store *Store
}

var _ release.Repository = (*ReleaseRepository)(nil)

func (repository *ReleaseRepository) rows() map[int64]*release.Release {
	return repository.store.state.releases
}

func (repository *ReleaseRepository) owned(tenantID tenant.ID, id int64) *release.Release {
	r, ok := repository.rows()[id]
	if !ok || r.TenantID != tenantID.Int64() {
		return nil
	}
	return r
}

// externalIDTaken enforces the per-tenant external ID uniqueness.
func (repository *ReleaseRepository) externalIDTaken(r *release.Release) bool {
	if r.ExternalID == nil {
		return false
	}
	for _, stored := range repository.rows() {
		if stored.TenantID == r.TenantID && stored.ID != r.ID &&
			stored.ExternalID != nil && *stored.ExternalID == *r.ExternalID {
			return true
		}
	}
	return false
}

// filter returns clones of the tenant's rows accepted by keep, oldest first.
func (repository *ReleaseRepository) filter(op string, tenantID tenant.ID, keep func(*release.Release) bool) ([]*release.Release, error) {
	releases := make([]*release.Release, 0)
	err := repository.store.read(func() error {
		if err := repository.store.injected(op); err != nil {
			return err
		}
		for _, r := range repository.rows() {
			if r.TenantID == tenantID.Int64() && keep(r) {
				releases = append(releases, r.Clone())
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	slices.SortFunc(releases, func(a, b *release.Release) int { return cmp.Compare(a.ID, b.ID) })
	return releases, nil
}

func (repository *ReleaseRepository) Get(_ context.Context, tenantID tenant.ID, id int64) (*release.Release, error) {
	var found *release.Release
	err := repository.store.read(func() error {
		if err := repository.store.injected(OpReleaseGet); err != nil {
			return err
		}
		r := repository.owned(tenantID, id)
		if r == nil {
			return dberr.ErrNotFound
		}
		found = r.Clone()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return found, nil
}

func (repository *ReleaseRepository) List(_ context.Context, tenantID tenant.ID) ([]*release.Release, error) {
	releases, err := repository.filter(OpReleaseList, tenantID, func(*release.Release) bool { return true })
	if err != nil {
		return nil, err
	}

	slices.SortFunc(releases, func(a, b *release.Release) int {
		return cmp.Or(b.CreatedAt.Compare(a.CreatedAt), cmp.Compare(b.ID, a.ID))
	})
	return releases, nil
}

func (repository *ReleaseRepository) Create(ctx context.Context, r *release.Release) error {
	return repository.store.write(ctx, func() error {
		if err := repository.store.injected(OpReleaseCreate); err != nil {
			return err
		}

		row := r.Clone()
		row.ID = 0
		if repository.externalIDTaken(row) {
			return fmt.Errorf("memstore: create release: %w", dberr.ErrUniqueViolation)
		}

		repository.store.nextReleaseID++
		now := repository.store.now()
		row.ID = repository.store.nextReleaseID
		row.CreatedAt = now
		row.UpdatedAt = now
		repository.rows()[row.ID] = row

		r.ID = row.ID
		r.CreatedAt = now
		r.UpdatedAt = now
		return nil
	})
}

func (repository *ReleaseRepository) Update(ctx context.Context, r *release.Release) error {
	return repository.store.write(ctx, func() error {
		if err := repository.store.injected(OpReleaseUpdate); err != nil {
			return err
		}

		existing := repository.owned(tenant.ID(r.TenantID), r.ID)
		if existing == nil {
			return dberr.ErrNotFound
		}
		if repository.externalIDTaken(r) {
			return fmt.Errorf("memstore: update release: %w", dberr.ErrUniqueViolation)
		}

		row := r.Clone()
		row.CreatedAt = existing.CreatedAt
		row.UpdatedAt = repository.store.now()
		repository.rows()[row.ID] = row

		r.UpdatedAt = row.UpdatedAt
		return nil
	})
}

func (repository *ReleaseRepository) Delete(ctx context.Context, tenantID tenant.ID, id int64) error {
	return repository.store.write(ctx, func() error {
		if err := repository.store.injected(OpReleaseDelete); err != nil {
			return err
		}
		if repository.owned(tenantID, id) == nil {
			return dberr.ErrNotFound
		}
		delete(repository.rows(), id)
		return nil
	})
}

func (repository *ReleaseRepository) Count(_ context.Context, tenantID tenant.ID) (int, error) {
	total := 0
	err := repository.store.read(func() error {
		for _, r := range repository.rows() {
			if r.TenantID == tenantID.Int64() {
				total++
			}
		}
		return nil
	})
	return total, err
}

func (repository *ReleaseRepository) FindByCatalogNumber(_ context.Context, tenantID tenant.ID, catalogNumber string) ([]*release.Release, error) {
	return repository.filter(OpReleaseFind, tenantID, func(r *release.Release) bool {
		return r.CatalogNumber != nil && textkey.Equal(*r.CatalogNumber, catalogNumber)
	})
}

func (repository *ReleaseRepository) FindByTitle(_ context.Context, tenantID tenant.ID, title string) ([]*release.Release, error) {
	return repository.filter(OpReleaseFind, tenantID, func(r *release.Release) bool {
		return textkey.Equal(r.Title, title)
	})
}

func (repository *ReleaseRepository) FindByExternalID(_ context.Context, tenantID tenant.ID, externalID string) (*release.Release, error) {
	matches, err := repository.filter(OpReleaseFind, tenantID, func(r *release.Release) bool {
		return r.ExternalID != nil && *r.ExternalID == externalID
	})
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, dberr.ErrNotFound
	}
	return matches[0], nil
}
