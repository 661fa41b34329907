// Copyright (c) 2026 Crate. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package lookup

import (
	"context"
	"log/slog"

	"github.com/taibuivan/crate/internal/platform/apperr"
	"github.com/taibuivan/crate/internal/platform/constants"
	"github.com/taibuivan/crate/internal/platform/dberr"
	"github.com/taibuivan/crate/internal/platform/tenant"
	"github.com/taibuivan/crate/internal/platform/validate"
	"github.com/taibuivan/crate/pkg/slice"
	"github.com/taibuivan/crate/pkg/textkey"
)

// Transactor runs fn inside one storage transaction.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// Service exposes lookup maintenance: CRUD and bulk seeding.
type Service struct {
	repo   Repository
	tx     Transactor
	cache  NameCache
	logger *slog.Logger
}

// NewService creates a Service. cache may be nil.
func NewService(repo Repository, tx Transactor, cache NameCache, logger *slog.Logger) *Service {
	return &Service{repo: repo, tx: tx, cache: cache, logger: logger}
}

// SeedResult reports the outcome of [Service.Seed].
type SeedResult struct {
	Created []Lookup `json:"created"`
	// Existing counts the distinct lookups that were already stored.
	Existing int `json:"existing"`
}

func (service *Service) List(ctx context.Context, kind Kind, tenantID tenant.ID) ([]*Lookup, error) {
	if err := tenant.Require(tenantID); err != nil {
		return nil, err
	}
	lookups, err := service.repo.List(ctx, kind, tenantID)
	if err != nil {
		return nil, service.mapErr(kind, err)
	}
	return lookups, nil
}

func (service *Service) Get(ctx context.Context, kind Kind, tenantID tenant.ID, id int64) (*Lookup, error) {
	if err := tenant.Require(tenantID); err != nil {
		return nil, err
	}
	l, err := service.repo.Get(ctx, kind, tenantID, id)
	if err != nil {
		return nil, service.mapErr(kind, err)
	}
	return l, nil
}

// Create adds a lookup. A case-insensitive name clash is a conflict.
func (service *Service) Create(ctx context.Context, kind Kind, tenantID tenant.ID, name string) (*Lookup, error) {
	if err := tenant.Require(tenantID); err != nil {
		return nil, err
	}

	name = textkey.Clean(name)
	if err := validateName(name); err != nil {
		return nil, err
	}

	if _, err := service.repo.FindByName(ctx, kind, tenantID, name); err == nil {
		return nil, apperr.Conflict(kind.Label() + " already exists")
	} else if !dberr.IsNotFound(err) {
		return nil, service.mapErr(kind, err)
	}

	l, err := service.repo.Create(ctx, kind, tenantID, name)
	if err != nil {
		return nil, service.mapErr(kind, err)
	}

	service.logger.InfoContext(ctx, "lookup_created",
		slog.String("kind", string(kind)),
		slog.Int64("lookup_id", l.ID),
		slog.String("tenant_id", tenantID.String()),
	)
	return l, nil
}

// Rename changes a lookup's name. Releases keep pointing at the same ID.
func (service *Service) Rename(ctx context.Context, kind Kind, tenantID tenant.ID, id int64, name string) (*Lookup, error) {
	if err := tenant.Require(tenantID); err != nil {
		return nil, err
	}

	name = textkey.Clean(name)
	if err := validateName(name); err != nil {
		return nil, err
	}

	if existing, err := service.repo.FindByName(ctx, kind, tenantID, name); err == nil && existing.ID != id {
		return nil, apperr.Conflict(kind.Label() + " already exists")
	} else if err != nil && !dberr.IsNotFound(err) {
		return nil, service.mapErr(kind, err)
	}

	l, err := service.repo.Rename(ctx, kind, tenantID, id, name)
	if err != nil {
		return nil, service.mapErr(kind, err)
	}

	service.invalidate(ctx, kind, tenantID, id)
	service.logger.InfoContext(ctx, "lookup_renamed",
		slog.String("kind", string(kind)),
		slog.Int64("lookup_id", id),
	)
	return l, nil
}

// Delete removes a lookup. Releases referencing it show a placeholder afterwards.
func (service *Service) Delete(ctx context.Context, kind Kind, tenantID tenant.ID, id int64) error {
	if err := tenant.Require(tenantID); err != nil {
		return err
	}

	if err := service.repo.Delete(ctx, kind, tenantID, id); err != nil {
		return service.mapErr(kind, err)
	}

	service.invalidate(ctx, kind, tenantID, id)
	service.logger.WarnContext(ctx, "lookup_deleted",
		slog.String("kind", string(kind)),
		slog.Int64("lookup_id", id),
	)
	return nil
}

// Seed resolves every name, creating the missing ones, in one transaction.
func (service *Service) Seed(ctx context.Context, kind Kind, tenantID tenant.ID, names []string) (*SeedResult, error) {
	if err := tenant.Require(tenantID); err != nil {
		return nil, err
	}

	validator := &validate.Validator{}
	validator.Custom(FieldNames, len(names) == 0, "At least one name is required")
	for _, name := range names {
		validator.MaxLen(FieldNames, textkey.Clean(name), constants.MaxLookupNameLength)
	}
	if err := validator.Err(); err != nil {
		return nil, err
	}

	resolver := NewResolver(service.repo, tenantID, service.logger)

	var resolved []int64
	err := service.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		resolved, err = resolver.ResolveOrCreateMany(ctx, kind, nil, names)
		return err
	})
	if err != nil {
		return nil, service.mapErr(kind, err)
	}

	created := resolver.Created()
	result := &SeedResult{Created: created.ofKind(kind)}

	fresh := make(map[int64]struct{}, len(result.Created))
	for _, l := range result.Created {
		fresh[l.ID] = struct{}{}
	}
	result.Existing = len(slice.Filter(slice.Unique(resolved), func(id int64) bool {
		_, ok := fresh[id]
		return !ok
	}))
	if result.Created == nil {
		result.Created = []Lookup{}
	}

	service.logger.InfoContext(ctx, "lookups_seeded",
		slog.String("kind", string(kind)),
		slog.String("tenant_id", tenantID.String()),
		slog.Int("created", len(result.Created)),
		slog.Int("existing", result.Existing),
	)
	return result, nil
}

func (service *Service) invalidate(ctx context.Context, kind Kind, tenantID tenant.ID, id int64) {
	if service.cache == nil {
		return
	}
	if err := service.cache.Invalidate(ctx, kind, tenantID, id); err != nil {
		service.logger.WarnContext(ctx, "name_cache_invalidate_failed", slog.Any("error", err))
	}
}

// mapErr converts repository failures into client-facing errors.
func (service *Service) mapErr(kind Kind, err error) error {
	switch {
	case apperr.IsAppError(err) && !dberr.IsNotFound(err):
		return err
	case dberr.IsNotFound(err):
		return apperr.NotFound(kind.Label())
	case dberr.IsUniqueViolation(err):
		return apperr.Conflict(kind.Label() + " already exists")
	default:
		return apperr.Storage(err)
	}
}

func validateName(name string) error {
	validator := &validate.Validator{}
	return validator.
		Required(FieldName, name).
		MaxLen(FieldName, name, constants.MaxLookupNameLength).
		Err()
}
