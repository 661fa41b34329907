// Copyright (c) 2026 Crate. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package release

import (
	"context"
	"log/slog"
	"strings"

	"github.com/taibuivan/crate/internal/core/lookup"
	"github.com/taibuivan/crate/internal/platform/tenant"
	"github.com/taibuivan/crate/pkg/slice"
	"github.com/taibuivan/crate/pkg/textkey"
)

// Candidate describes a release that may already be catalogued.
type Candidate struct {
	CatalogNumber    *string  `json:"catalog_number"`
	Title            string   `json:"title"`
	ArtistIDs        []int64  `json:"artist_ids"`
	ArtistNames      []string `json:"artist_names"`
	ExcludeReleaseID *int64   `json:"exclude_release_id"`
}

// Detector finds existing releases that a candidate would duplicate.
//
// # Algorithm
//
//  1. Catalog pass: a non-blank catalog number matching a stored one (ignoring
//     case and surrounding space) is decisive. Matches end the search.
//  2. Title+artist pass: same title and at least one shared artist. Artist
//     IDs compare directly; names compare against the stored IDs' names.
//
// Title alone is never enough, and a release without artists cannot match
// the second pass.
type Detector struct {
	releases Repository
	lookups  lookup.Repository
	logger   *slog.Logger
}

func NewDetector(releases Repository, lookups lookup.Repository, logger *slog.Logger) *Detector {
	return &Detector{releases: releases, lookups: lookups, logger: logger}
}

// FindDuplicates returns the distinct matches for c. An invalid tenant has
// nothing to compare against and yields an empty result.
func (d *Detector) FindDuplicates(ctx context.Context, tenantID tenant.ID, c Candidate) ([]*Release, error) {
	if !tenantID.Valid() {
		return []*Release{}, nil
	}

	// 1. Catalog pass
	if c.CatalogNumber != nil && strings.TrimSpace(*c.CatalogNumber) != "" {
		matches, err := d.catalogMatches(ctx, tenantID, *c.CatalogNumber, c.ExcludeReleaseID)
		if err != nil {
			return nil, err
		}
		if len(matches) > 0 {
			return matches, nil
		}
	}

	// 2. Title+artist pass
	if len(c.ArtistIDs) == 0 && !hasNonBlank(c.ArtistNames) {
		return []*Release{}, nil
	}
	return d.titleArtistMatches(ctx, tenantID, c)
}

func (d *Detector) catalogMatches(ctx context.Context, tenantID tenant.ID, catalogNumber string, exclude *int64) ([]*Release, error) {
	rows, err := d.releases.FindByCatalogNumber(ctx, tenantID, strings.TrimSpace(catalogNumber))
	if err != nil {
		return nil, err
	}

	key := textkey.Key(catalogNumber)
	matches := make([]*Release, 0, len(rows))
	for _, r := range rows {
		if excluded(r, exclude) || r.CatalogNumber == nil || textkey.Key(*r.CatalogNumber) != key {
			continue
		}
		matches = append(matches, r)
	}
	return distinct(matches), nil
}

func (d *Detector) titleArtistMatches(ctx context.Context, tenantID tenant.ID, c Candidate) ([]*Release, error) {
	title := textkey.Key(c.Title)
	if title == "" {
		return []*Release{}, nil
	}

	rows, err := d.releases.FindByTitle(ctx, tenantID, strings.TrimSpace(c.Title))
	if err != nil {
		return nil, err
	}

	wantIDs := make(map[int64]struct{}, len(c.ArtistIDs))
	for _, id := range c.ArtistIDs {
		wantIDs[id] = struct{}{}
	}
	wantNames := make(map[string]struct{}, len(c.ArtistNames))
	for _, name := range c.ArtistNames {
		if key := textkey.Key(name); key != "" {
			wantNames[key] = struct{}{}
		}
	}

	type pending struct {
		release *Release
		ids     []int64
	}
	var byName []pending

	matches := make([]*Release, 0)
	for _, r := range rows {
		if excluded(r, c.ExcludeReleaseID) || textkey.Key(r.Title) != title {
			continue
		}

		ids, err := DecodeIDs(r.ArtistIDs)
		if err != nil {
			d.logger.WarnContext(ctx, "duplicate_check_artist_decode_failed",
				slog.Int64("release_id", r.ID),
				slog.Any("error", err),
			)
			continue
		}
		if len(ids) == 0 {
			continue
		}

		if sharesID(ids, wantIDs) {
			matches = append(matches, r)
			continue
		}
		if len(wantNames) > 0 {
			byName = append(byName, pending{release: r, ids: ids})
		}
	}

	if len(byName) > 0 {
		var lookupIDs []int64
		for _, p := range byName {
			lookupIDs = append(lookupIDs, p.ids...)
		}

		names, err := d.lookups.NamesByIDs(ctx, lookup.KindArtist, tenantID, slice.Unique(lookupIDs))
		if err != nil {
			return nil, err
		}

		for _, p := range byName {
			for _, id := range p.ids {
				name, ok := names[id]
				if !ok {
					continue
				}
				if _, hit := wantNames[textkey.Key(name)]; hit {
					matches = append(matches, p.release)
					break
				}
			}
		}
	}

	return distinct(matches), nil
}

func excluded(r *Release, exclude *int64) bool {
	return exclude != nil && r.ID == *exclude
}

func sharesID(ids []int64, want map[int64]struct{}) bool {
	for _, id := range ids {
		if _, ok := want[id]; ok {
			return true
		}
	}
	return false
}

func hasNonBlank(values []string) bool {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return true
		}
	}
	return false
}

// distinct drops repeated release IDs, keeping first occurrences.
func distinct(releases []*Release) []*Release {
	seen := make(map[int64]struct{}, len(releases))
	result := make([]*Release, 0, len(releases))
	for _, r := range releases {
		if _, ok := seen[r.ID]; ok {
			continue
		}
		seen[r.ID] = struct{}{}
		result = append(result, r)
	}
	return result
}
