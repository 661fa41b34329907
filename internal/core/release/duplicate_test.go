// Copyright (c) 2026 Crate. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package release_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/crate/internal/core/lookup"
	"github.com/taibuivan/crate/internal/core/release"
	"github.com/taibuivan/crate/internal/platform/tenant"
	"github.com/taibuivan/crate/pkg/pointer"
)

func ids(releases []*release.Release) []int64 {
	result := make([]int64, len(releases))
	for i, r := range releases {
		result[i] = r.ID
	}
	return result
}

/*
TestFindDuplicates_CatalogNumber verifies that catalog numbers match ignoring
case and surrounding space, and that a catalog hit ends the search.
*/
func TestFindDuplicates_CatalogNumber(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	stored := f.create(t, bloodFireDeath())

	other := bloodFireDeath()
	other.Title = "Under the Sign of the Black Mark"
	other.CatalogNumber = pointer.To("BMLP 666-2")
	second := f.create(t, other)

	matches, err := f.detector.FindDuplicates(ctx, testTenant, release.Candidate{
		CatalogNumber: pointer.To("  bmlp 666-1 "),
		Title:         "Under the Sign of the Black Mark",
		ArtistNames:   []string{"Bathory"},
	})
	require.NoError(t, err)
	assert.Equal(t, []int64{stored.ID}, ids(matches))

	// Without a catalog hit the title+artist pass finds the second release.
	matches, err = f.detector.FindDuplicates(ctx, testTenant, release.Candidate{
		CatalogNumber: pointer.To("XYZ-1"),
		Title:         "under the sign of the black mark",
		ArtistNames:   []string{"BATHORY"},
	})
	require.NoError(t, err)
	assert.Equal(t, []int64{second.ID}, ids(matches))
}

/*
TestFindDuplicates_TitleNeedsArtist verifies that a shared title alone is not
a duplicate.
*/
func TestFindDuplicates_TitleNeedsArtist(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	hits := bloodFireDeath()
	hits.Title = "Greatest Hits"
	hits.CatalogNumber = nil
	hits.ArtistNames = []string{"Queen"}
	f.create(t, hits)

	matches, err := f.detector.FindDuplicates(ctx, testTenant, release.Candidate{
		Title:       "Greatest Hits",
		ArtistNames: []string{"ABBA"},
	})
	require.NoError(t, err)
	assert.Empty(t, matches)

	matches, err = f.detector.FindDuplicates(ctx, testTenant, release.Candidate{Title: "Greatest Hits"})
	require.NoError(t, err)
	assert.Empty(t, matches)

	// A second release with the same title and another artist is accepted.
	hits.ArtistNames = []string{"ABBA"}
	_, err = f.writer.Create(ctx, testTenant, hits)
	assert.NoError(t, err)
}

/*
TestFindDuplicates_ArtistIDs verifies matching on resolved IDs and exclusion
of the release being edited.
*/
func TestFindDuplicates_ArtistIDs(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	stored := f.create(t, bloodFireDeath())

	bathory, err := f.lookups.FindByName(ctx, lookup.KindArtist, testTenant, "Bathory")
	require.NoError(t, err)

	candidate := release.Candidate{Title: "BLOOD FIRE DEATH", ArtistIDs: []int64{404, bathory.ID}}
	matches, err := f.detector.FindDuplicates(ctx, testTenant, candidate)
	require.NoError(t, err)
	assert.Equal(t, []int64{stored.ID}, ids(matches))

	candidate.ExcludeReleaseID = &stored.ID
	matches, err = f.detector.FindDuplicates(ctx, testTenant, candidate)
	require.NoError(t, err)
	assert.Empty(t, matches)
}

/*
TestFindDuplicates_UndecodableArtists verifies that a corrupt artist list
contributes no signal instead of failing the check.
*/
func TestFindDuplicates_UndecodableArtists(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	stored := f.create(t, bloodFireDeath())

	stored.ArtistIDs = "{corrupt"
	require.NoError(t, f.releases.Update(ctx, stored))

	matches, err := f.detector.FindDuplicates(ctx, testTenant, release.Candidate{
		Title:       "Blood Fire Death",
		ArtistNames: []string{"Bathory"},
	})
	require.NoError(t, err)
	assert.Empty(t, matches)
}

/*
TestFindDuplicates_TenantScope verifies tenant isolation and the invalid-tenant result.
*/
func TestFindDuplicates_TenantScope(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.create(t, bloodFireDeath())

	candidate := release.Candidate{CatalogNumber: pointer.To("BMLP 666-1"), Title: "Blood Fire Death"}

	matches, err := f.detector.FindDuplicates(ctx, tenant.ID(8), candidate)
	require.NoError(t, err)
	assert.Empty(t, matches)

	matches, err = f.detector.FindDuplicates(ctx, tenant.None, candidate)
	require.NoError(t, err)
	assert.NotNil(t, matches)
	assert.Empty(t, matches)
}
