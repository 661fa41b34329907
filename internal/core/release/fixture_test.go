// Copyright (c) 2026 Crate. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package release_test

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/taibuivan/crate/internal/core/lookup"
	"github.com/taibuivan/crate/internal/core/release"
	"github.com/taibuivan/crate/internal/memstore"
	"github.com/taibuivan/crate/internal/platform/tenant"
	"github.com/taibuivan/crate/pkg/pointer"
)

const testTenant = tenant.ID(7)

type fixture struct {
	store    *memstore.Store
	lookups  *memstore.LookupRepository
	releases *memstore.ReleaseRepository
	detector *release.Detector
	mapper   *release.Mapper
	writer   *release.Writer
	service  *release.Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := memstore.New()
	lookups := store.LookupRepository()
	releases := store.ReleaseRepository()

	detector := release.NewDetector(releases, lookups, logger)
	writer := release.NewWriter(releases, lookups, detector, store,
		release.WriterConfig{DuplicateCheckOnUpdate: true}, logger)
	mapper := release.NewMapper(lookup.NewNameSource(lookups, nil, logger), logger)

	return &fixture{
		store:    store,
		lookups:  lookups,
		releases: releases,
		detector: detector,
		mapper:   mapper,
		writer:   writer,
		service:  release.NewService(releases, writer, detector, mapper, logger),
	}
}

func (f *fixture) count(t *testing.T, kind lookup.Kind) int {
	t.Helper()
	total, err := f.lookups.Count(context.Background(), kind, testTenant)
	require.NoError(t, err)
	return total
}

func (f *fixture) create(t *testing.T, in release.CreateInput) *release.Release {
	t.Helper()
	result, err := f.writer.Create(context.Background(), testTenant, in)
	require.NoError(t, err)
	return result.Release
}

// bloodFireDeath is a complete submission naming every lookup by text.
func bloodFireDeath() release.CreateInput {
	return release.CreateInput{
		Details: release.Details{
			Title:         "Blood Fire Death",
			ReleaseDate:   pointer.To("1988-10-08"),
			CatalogNumber: pointer.To("BMLP 666-1"),
			Purchase: &release.PurchaseInput{
				StoreName:    pointer.To("Rough Trade"),
				Price:        pointer.To(24.5),
				Currency:     pointer.To("EUR"),
				PurchaseDate: pointer.To("2024-03-01"),
			},
			Images: &release.Images{Front: pointer.To("releases/bfd/front.jpg")},
			Links: []release.Link{
				{URL: "https://bathory.example/bfd", Type: "discography"},
			},
			Media: []release.Medium{
				{
					Title: "LP",
					Tracks: []release.Track{
						{Index: 1, Title: "Odens Ride Over Nordland", DurationSeconds: pointer.To(190)},
						{Index: 2, Title: "A Fine Day to Die", DurationSeconds: pointer.To(516)},
					},
				},
			},
		},
		LabelName:   pointer.To("Black Mark"),
		CountryName: pointer.To("Sweden"),
		FormatName:  pointer.To("Vinyl"),
		ArtistNames: []string{"Bathory"},
		GenreNames:  []string{"Black Metal"},
	}
}
