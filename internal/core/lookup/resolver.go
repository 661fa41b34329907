// Copyright (c) 2026 Crate. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package lookup

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/taibuivan/crate/internal/platform/constants"
	"github.com/taibuivan/crate/internal/platform/dberr"
	"github.com/taibuivan/crate/internal/platform/tenant"
	"github.com/taibuivan/crate/pkg/pointer"
	"github.com/taibuivan/crate/pkg/textkey"
)

// Created records the lookups a resolver inserted, grouped by kind.
type Created struct {
	Artists    []Lookup `json:"artists,omitempty"`
	Genres     []Lookup `json:"genres,omitempty"`
	Labels     []Lookup `json:"labels,omitempty"`
	Countries  []Lookup `json:"countries,omitempty"`
	Formats    []Lookup `json:"formats,omitempty"`
	Packagings []Lookup `json:"packagings,omitempty"`
	Stores     []Lookup `json:"stores,omitempty"`
}

// Add appends l to the slot for its kind.
func (c *Created) Add(l Lookup) {
	switch l.Kind {
	case KindArtist:
		c.Artists = append(c.Artists, l)
	case KindGenre:
		c.Genres = append(c.Genres, l)
	case KindLabel:
		c.Labels = append(c.Labels, l)
	case KindCountry:
		c.Countries = append(c.Countries, l)
	case KindFormat:
		c.Formats = append(c.Formats, l)
	case KindPackaging:
		c.Packagings = append(c.Packagings, l)
	case KindStore:
		c.Stores = append(c.Stores, l)
	}
}

// Count returns the total number of created lookups.
func (c Created) Count() int {
	return len(c.Artists) + len(c.Genres) + len(c.Labels) + len(c.Countries) +
		len(c.Formats) + len(c.Packagings) + len(c.Stores)
}

// IsEmpty reports whether nothing was created.
func (c Created) IsEmpty() bool {
	return c.Count() == 0
}

// Resolver turns explicit IDs or free-text names into lookup IDs for one
// tenant, creating rows for names it has not seen.
//
// # Concurrency
//
// A Resolver belongs to one request and is not safe for concurrent use. Its
// writes go through the repository with the caller's ctx, so they commit or
// roll back with the caller's transaction.
type Resolver struct {
	repo     Repository
	tenantID tenant.ID
	logger   *slog.Logger
	created  Created
}

// NewResolver binds a resolver to tenantID.
func NewResolver(repo Repository, tenantID tenant.ID, logger *slog.Logger) *Resolver {
	return &Resolver{repo: repo, tenantID: tenantID, logger: logger}
}

// ResolveOrCreate returns explicitID unchanged when set. Otherwise it resolves
// name, creating the lookup when no case-insensitive match exists. A nil or
// blank name yields nil.
func (r *Resolver) ResolveOrCreate(ctx context.Context, kind Kind, explicitID *int64, name *string) (*int64, error) {
	if err := tenant.Require(r.tenantID); err != nil {
		return nil, err
	}

	if explicitID != nil {
		return pointer.To(*explicitID), nil
	}

	if name == nil {
		return nil, nil
	}
	return r.resolveName(ctx, kind, *name)
}

// ResolveOrCreateMany returns ids followed by the resolved names, in input
// order. Overlaps between the two inputs are kept.
func (r *Resolver) ResolveOrCreateMany(ctx context.Context, kind Kind, ids []int64, names []string) ([]int64, error) {
	if err := tenant.Require(r.tenantID); err != nil {
		return nil, err
	}

	result := make([]int64, 0, len(ids)+len(names))
	result = append(result, ids...)

	for _, name := range names {
		id, err := r.resolveName(ctx, kind, name)
		if err != nil {
			return nil, err
		}
		if id != nil {
			result = append(result, *id)
		}
	}
	return result, nil
}

// Created returns the lookups inserted so far.
func (r *Resolver) Created() Created {
	return r.created
}

// resolveName reads, then creates, then re-reads after losing an insert race.
func (r *Resolver) resolveName(ctx context.Context, kind Kind, raw string) (*int64, error) {
	name := textkey.Clean(raw)
	if name == "" {
		return nil, nil
	}

	var lastErr error
	for attempt := 1; attempt <= constants.MaxResolveAttempts; attempt++ {
		existing, err := r.repo.FindByName(ctx, kind, r.tenantID, name)
		if err == nil {
			return &existing.ID, nil
		}
		if !dberr.IsNotFound(err) {
			return nil, err
		}

		created, err := r.repo.Create(ctx, kind, r.tenantID, name)
		if err == nil {
			r.created.Add(*created)
			r.logger.InfoContext(ctx, "lookup_created",
				slog.String("kind", string(kind)),
				slog.Int64("lookup_id", created.ID),
				slog.String("tenant_id", r.tenantID.String()),
			)
			return &created.ID, nil
		}
		if !dberr.IsUniqueViolation(err) {
			return nil, err
		}

		lastErr = err
		r.logger.DebugContext(ctx, "lookup_create_raced",
			slog.String("kind", string(kind)),
			slog.Int("attempt", attempt),
		)
	}

	return nil, fmt.Errorf("lookup: resolve %s %q: %w", kind, name, lastErr)
}

// ofKind returns the slot for kind.
func (c Created) ofKind(kind Kind) []Lookup {
	switch kind {
	case KindArtist:
		return c.Artists
	case KindGenre:
		return c.Genres
	case KindLabel:
		return c.Labels
	case KindCountry:
		return c.Countries
	case KindFormat:
		return c.Formats
	case KindPackaging:
		return c.Packagings
	case KindStore:
		return c.Stores
	default:
		return nil
	}
}
