// Copyright (c) 2026 Crate. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package lookup

import (
	"context"

	"github.com/taibuivan/crate/internal/platform/tenant"
)

// Repository is the tenant-scoped storage contract shared by every kind.
//
// Implementations join the transaction bound to ctx when one is open.
// Missing rows are reported as [dberr.ErrNotFound]; a Create or Rename that
// collides with an existing (tenant, name) pair wraps [dberr.ErrUniqueViolation].
type Repository interface {
	Get(ctx context.Context, kind Kind, tenantID tenant.ID, id int64) (*Lookup, error)

	// FindByName matches case-insensitively after trimming. When several rows
	// match, the oldest wins.
	FindByName(ctx context.Context, kind Kind, tenantID tenant.ID, name string) (*Lookup, error)

	Create(ctx context.Context, kind Kind, tenantID tenant.ID, name string) (*Lookup, error)
	Rename(ctx context.Context, kind Kind, tenantID tenant.ID, id int64, name string) (*Lookup, error)
	Delete(ctx context.Context, kind Kind, tenantID tenant.ID, id int64) error

	// List returns the tenant's rows ordered by name.
	List(ctx context.Context, kind Kind, tenantID tenant.ID) ([]*Lookup, error)
	Count(ctx context.Context, kind Kind, tenantID tenant.ID) (int, error)

	// NamesByIDs returns the names of the ids that exist. Unknown ids are absent
	// from the map.
	NamesByIDs(ctx context.Context, kind Kind, tenantID tenant.ID, ids []int64) (map[int64]string, error)
}
