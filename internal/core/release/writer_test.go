// Copyright (c) 2026 Crate. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package release_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/crate/internal/core/lookup"
	"github.com/taibuivan/crate/internal/core/release"
	"github.com/taibuivan/crate/internal/memstore"
	"github.com/taibuivan/crate/internal/platform/apperr"
	"github.com/taibuivan/crate/internal/platform/dberr"
	"github.com/taibuivan/crate/internal/platform/tenant"
	"github.com/taibuivan/crate/pkg/pointer"
)

/*
TestWriter_Create verifies a first ingestion with every lookup named by text.
*/
func TestWriter_Create(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	result, err := f.writer.Create(ctx, testTenant, bloodFireDeath())
	require.NoError(t, err)

	r := result.Release
	assert.NotZero(t, r.ID)
	assert.Equal(t, "Blood Fire Death", r.Title)
	require.NotNil(t, r.LabelID)
	require.NotNil(t, r.PurchaseInfo)

	require.NotNil(t, result.Created)
	assert.Len(t, result.Created.Artists, 1)
	assert.Len(t, result.Created.Genres, 1)
	assert.Len(t, result.Created.Labels, 1)
	assert.Len(t, result.Created.Countries, 1)
	assert.Len(t, result.Created.Formats, 1)
	assert.Len(t, result.Created.Stores, 1)
	assert.Empty(t, result.Created.Packagings)

	stored, err := f.releases.Get(ctx, testTenant, r.ID)
	require.NoError(t, err)
	artistIDs, err := release.DecodeIDs(stored.ArtistIDs)
	require.NoError(t, err)
	assert.Equal(t, []int64{result.Created.Artists[0].ID}, artistIDs)

	purchase, err := release.DecodePurchase(*stored.PurchaseInfo)
	require.NoError(t, err)
	assert.Equal(t, result.Created.Stores[0].ID, *purchase.StoreID)
}

/*
TestWriter_CreateReusesLookups verifies that known names create nothing and
that Created is nil when nothing was created.
*/
func TestWriter_CreateReusesLookups(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.create(t, bloodFireDeath())

	next := bloodFireDeath()
	next.Title = "Hammerheart"
	next.CatalogNumber = pointer.To("NUK 153")
	next.LabelName = pointer.To("black mark")

	result, err := f.writer.Create(ctx, testTenant, next)
	require.NoError(t, err)
	assert.Nil(t, result.Created)
	assert.Equal(t, 1, f.count(t, lookup.KindLabel))
}

/*
TestWriter_CreateDuplicate verifies that resubmitting a release is rejected
without creating any lookup.
*/
func TestWriter_CreateDuplicate(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	first := f.create(t, bloodFireDeath())

	_, err := f.writer.Create(ctx, testTenant, bloodFireDeath())
	require.Error(t, err)

	ae := apperr.As(err)
	require.NotNil(t, ae)
	assert.Equal(t, apperr.CodeDuplicate, ae.Code)
	require.Len(t, ae.Conflicts, 1)
	assert.Equal(t, first.ID, ae.Conflicts[0].ID)
	assert.Equal(t, "Blood Fire Death", ae.Conflicts[0].Title)

	for _, kind := range lookup.Kinds {
		want := 1
		if kind == lookup.KindPackaging {
			want = 0
		}
		assert.Equal(t, want, f.count(t, kind), kind)
	}
}

/*
TestWriter_CreateRollsBackLookups verifies that lookups created before a
duplicate rejection are rolled back with it.
*/
func TestWriter_CreateRollsBackLookups(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.create(t, bloodFireDeath())

	reissue := bloodFireDeath()
	reissue.Title = "Blood Fire Death (Reissue)"
	reissue.CatalogNumber = pointer.To(" bmlp 666-1")
	reissue.ArtistNames = []string{"Quorthon"}
	reissue.GenreNames = []string{"Viking Metal"}
	reissue.PackagingName = pointer.To("Gatefold")

	_, err := f.writer.Create(ctx, testTenant, reissue)
	assert.True(t, apperr.HasCode(err, apperr.CodeDuplicate))

	assert.Equal(t, 1, f.count(t, lookup.KindArtist))
	assert.Equal(t, 1, f.count(t, lookup.KindGenre))
	assert.Zero(t, f.count(t, lookup.KindPackaging))

	_, err = f.lookups.FindByName(ctx, lookup.KindArtist, testTenant, "Quorthon")
	assert.True(t, dberr.IsNotFound(err))

	total, err := f.releases.Count(ctx, testTenant)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
}

/*
TestWriter_CreateStorageFailure verifies that storage failures are sanitized
and leave nothing behind.
*/
func TestWriter_CreateStorageFailure(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.store.FailOn(memstore.OpReleaseCreate, errors.New("disk full"))

	_, err := f.writer.Create(ctx, testTenant, bloodFireDeath())
	require.Error(t, err)

	ae := apperr.As(err)
	require.NotNil(t, ae)
	assert.Equal(t, apperr.CodeStorage, ae.Code)
	assert.NotContains(t, ae.Message, "disk full")

	for _, kind := range lookup.Kinds {
		assert.Zero(t, f.count(t, kind), kind)
	}
}

/*
TestWriter_CreateExternalID verifies per-tenant external ID uniqueness.
*/
func TestWriter_CreateExternalID(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	first := bloodFireDeath()
	first.ExternalID = pointer.To("discogs:368521")
	stored := f.create(t, first)

	other := bloodFireDeath()
	other.Title = "Twilight of the Gods"
	other.CatalogNumber = nil
	other.ExternalID = pointer.To("discogs:368521")

	_, err := f.writer.Create(ctx, testTenant, other)
	require.True(t, apperr.HasCode(err, apperr.CodeDuplicate))
	assert.Equal(t, stored.ID, apperr.As(err).Conflicts[0].ID)

	_, err = f.writer.Create(ctx, tenant.ID(8), other)
	assert.NoError(t, err)
}

/*
TestWriter_CreateValidation covers rejected submissions.
*/
func TestWriter_CreateValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(in *release.CreateInput)
		field  string
	}{
		{"blank_title", func(in *release.CreateInput) { in.Title = "  " }, release.FieldTitle},
		{"no_artists", func(in *release.CreateInput) { in.ArtistNames = []string{" "} }, release.FieldArtists},
		{"negative_duration", func(in *release.CreateInput) { in.DurationSeconds = pointer.To(-1) }, release.FieldDurationSeconds},
		{"bad_date", func(in *release.CreateInput) { in.ReleaseDate = pointer.To("08/10/1988") }, "release_date"},
		{"track_without_title", func(in *release.CreateInput) { in.Media[0].Tracks[1].Title = "" }, "media[0].tracks[1].title"},
		{"relative_link", func(in *release.CreateInput) { in.Links[0].URL = "/bfd" }, "links[0].url"},
		{"absolute_image", func(in *release.CreateInput) { in.Images.Front = pointer.To("/var/covers/bfd.jpg") }, "images.front"},
		{"long_artist_name", func(in *release.CreateInput) { in.ArtistNames = append(in.ArtistNames, strings.Repeat("a", 400)) }, "artist_names[1]"},
		{"long_label_name", func(in *release.CreateInput) { in.LabelName = pointer.To(strings.Repeat("x", 256)) }, release.FieldLabelName},
		{"long_store_name", func(in *release.CreateInput) { in.Purchase.StoreName = pointer.To(strings.Repeat("s", 256)) }, release.FieldStoreName},
		{"unknown_genre_id", func(in *release.CreateInput) { in.GenreIDs = []int64{424242} }, release.FieldGenreIDs},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			in := bloodFireDeath()
			tt.mutate(&in)

			_, err := f.writer.Create(context.Background(), testTenant, in)
			require.Error(t, err)

			ae := apperr.As(err)
			require.NotNil(t, ae)
			assert.Equal(t, apperr.CodeValidation, ae.Code)
			require.NotEmpty(t, ae.Details)
			assert.Equal(t, tt.field, ae.Details[0].Field)

			for _, kind := range lookup.Kinds {
				assert.Zero(t, f.count(t, kind), kind)
			}
		})
	}
}

/*
TestWriter_CreateForeignReferences verifies that IDs owned by another tenant
are rejected like unknown ones.
*/
func TestWriter_CreateForeignReferences(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	label, err := f.lookups.Create(ctx, lookup.KindLabel, tenant.ID(99), "Noise Records")
	require.NoError(t, err)
	artist, err := f.lookups.Create(ctx, lookup.KindArtist, tenant.ID(99), "Celtic Frost")
	require.NoError(t, err)

	in := bloodFireDeath()
	in.LabelName = nil
	in.LabelID = &label.ID
	in.ArtistIDs = []int64{artist.ID, 424242}

	_, err = f.writer.Create(ctx, testTenant, in)
	require.Error(t, err)

	ae := apperr.As(err)
	require.NotNil(t, ae)
	assert.Equal(t, apperr.CodeValidation, ae.Code)

	fields := make([]string, len(ae.Details))
	for i, detail := range ae.Details {
		fields[i] = detail.Field
	}
	assert.Equal(t, []string{release.FieldLabelID, release.FieldArtistIDs}, fields)

	total, err := f.releases.Count(ctx, testTenant)
	require.NoError(t, err)
	assert.Zero(t, total)
	for _, kind := range lookup.Kinds {
		assert.Zero(t, f.count(t, kind), kind)
	}
}

/*
TestWriter_UpdateRejectsBadReferences verifies the reference and name checks
on edits.
*/
func TestWriter_UpdateRejectsBadReferences(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	stored := f.create(t, bloodFireDeath())

	foreign, err := f.lookups.Create(ctx, lookup.KindLabel, tenant.ID(99), "Noise Records")
	require.NoError(t, err)

	in := updateFrom(t, stored)
	in.LabelID = &foreign.ID
	_, err = f.writer.Update(ctx, testTenant, stored.ID, in)
	require.True(t, apperr.HasCode(err, apperr.CodeValidation))
	assert.Equal(t, release.FieldLabelID, apperr.As(err).Details[0].Field)

	in = updateFrom(t, stored)
	in.Purchase = &release.PurchaseInput{StoreName: pointer.To(strings.Repeat("s", 300))}
	_, err = f.writer.Update(ctx, testTenant, stored.ID, in)
	require.True(t, apperr.HasCode(err, apperr.CodeValidation))
	assert.Equal(t, release.FieldStoreName, apperr.As(err).Details[0].Field)
	assert.Equal(t, 1, f.count(t, lookup.KindStore))

	unchanged, err := f.releases.Get(ctx, testTenant, stored.ID)
	require.NoError(t, err)
	assert.Equal(t, *stored.LabelID, *unchanged.LabelID)
}

/*
TestWriter_Unauthenticated verifies that every operation requires a tenant.
*/
func TestWriter_Unauthenticated(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.writer.Create(ctx, tenant.None, bloodFireDeath())
	assert.True(t, apperr.HasCode(err, apperr.CodeUnauthenticated))

	_, err = f.writer.Update(ctx, tenant.None, 1, release.UpdateInput{})
	assert.True(t, apperr.HasCode(err, apperr.CodeUnauthenticated))

	err = f.writer.Delete(ctx, tenant.None, 1)
	assert.True(t, apperr.HasCode(err, apperr.CodeUnauthenticated))
}

func updateFrom(t *testing.T, r *release.Release) release.UpdateInput {
	t.Helper()
	artistIDs, err := release.DecodeIDs(r.ArtistIDs)
	require.NoError(t, err)

	return release.UpdateInput{
		Details: release.Details{
			Title:         r.Title,
			CatalogNumber: r.CatalogNumber,
		},
		LabelID:   r.LabelID,
		ArtistIDs: artistIDs,
	}
}

/*
TestWriter_Update verifies full replacement and store resolution by name.
*/
func TestWriter_Update(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	stored := f.create(t, bloodFireDeath())

	in := updateFrom(t, stored)
	in.Title = "Blood Fire Death (Remastered)"
	in.Purchase = &release.PurchaseInput{StoreName: pointer.To("Discogs Marketplace")}

	result, err := f.writer.Update(ctx, testTenant, stored.ID, in)
	require.NoError(t, err)
	require.NotNil(t, result.Created)
	assert.Len(t, result.Created.Stores, 1)

	updated, err := f.releases.Get(ctx, testTenant, stored.ID)
	require.NoError(t, err)
	assert.Equal(t, "Blood Fire Death (Remastered)", updated.Title)
	assert.Equal(t, stored.CreatedAt, updated.CreatedAt)
	assert.Nil(t, updated.Media)
	assert.Nil(t, updated.CountryID)
	assert.Equal(t, "[]", updated.GenreIDs)
}

/*
TestWriter_UpdateDuplicate verifies that an edit may keep its own catalog
number but not take another release's.
*/
func TestWriter_UpdateDuplicate(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	first := f.create(t, bloodFireDeath())

	other := bloodFireDeath()
	other.Title = "The Return"
	other.CatalogNumber = pointer.To("BMLP 666-4")
	second := f.create(t, other)

	_, err := f.writer.Update(ctx, testTenant, first.ID, updateFrom(t, first))
	require.NoError(t, err)

	in := updateFrom(t, second)
	in.CatalogNumber = pointer.To("bmlp 666-1")
	_, err = f.writer.Update(ctx, testTenant, second.ID, in)
	require.True(t, apperr.HasCode(err, apperr.CodeDuplicate))
	assert.Equal(t, first.ID, apperr.As(err).Conflicts[0].ID)

	unchanged, err := f.releases.Get(ctx, testTenant, second.ID)
	require.NoError(t, err)
	assert.Equal(t, "BMLP 666-4", *unchanged.CatalogNumber)
}

/*
TestWriter_UpdateNotFound verifies missing and foreign releases.
*/
func TestWriter_UpdateNotFound(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	stored := f.create(t, bloodFireDeath())

	_, err := f.writer.Update(ctx, testTenant, 404, updateFrom(t, stored))
	assert.True(t, apperr.HasCode(err, apperr.CodeNotFound))

	_, err = f.writer.Update(ctx, tenant.ID(8), stored.ID, updateFrom(t, stored))
	assert.True(t, apperr.HasCode(err, apperr.CodeNotFound))
}

/*
TestWriter_Delete verifies deletion and the distinct not-found outcome.
*/
func TestWriter_Delete(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	stored := f.create(t, bloodFireDeath())

	require.NoError(t, f.writer.Delete(ctx, testTenant, stored.ID))

	_, err := f.releases.Get(ctx, testTenant, stored.ID)
	assert.True(t, dberr.IsNotFound(err))

	err = f.writer.Delete(ctx, testTenant, stored.ID)
	assert.True(t, apperr.HasCode(err, apperr.CodeNotFound))

	// Lookups outlive the releases that referenced them.
	assert.Equal(t, 1, f.count(t, lookup.KindArtist))
}
