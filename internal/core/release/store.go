// Copyright (c) 2026 Crate. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package release

import (
	"context"

	"github.com/taibuivan/crate/internal/platform/tenant"
)

// Repository is the tenant-scoped release storage contract.
//
// Implementations join the transaction bound to ctx when one is open. Missing
// rows are reported as [dberr.ErrNotFound].
type Repository interface {
	Get(ctx context.Context, tenantID tenant.ID, id int64) (*Release, error)

	// List returns every release of the tenant, newest first.
	List(ctx context.Context, tenantID tenant.ID) ([]*Release, error)

	// Create inserts r and sets its ID and timestamps.
	Create(ctx context.Context, r *Release) error

	// Update replaces every stored field of r except identity and CreatedAt.
	Update(ctx context.Context, r *Release) error

	Delete(ctx context.Context, tenantID tenant.ID, id int64) error
	Count(ctx context.Context, tenantID tenant.ID) (int, error)

	// FindByCatalogNumber and FindByTitle match after trimming, ignoring case.
	FindByCatalogNumber(ctx context.Context, tenantID tenant.ID, catalogNumber string) ([]*Release, error)
	FindByTitle(ctx context.Context, tenantID tenant.ID, title string) ([]*Release, error)

	FindByExternalID(ctx context.Context, tenantID tenant.ID, externalID string) (*Release, error)
}
