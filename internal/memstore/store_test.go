// Copyright (c) 2026 Crate. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package memstore_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/crate/internal/core/lookup"
	"github.com/taibuivan/crate/internal/core/release"
	"github.com/taibuivan/crate/internal/memstore"
	"github.com/taibuivan/crate/internal/platform/dberr"
	"github.com/taibuivan/crate/internal/platform/tenant"
	"github.com/taibuivan/crate/pkg/pointer"
)

const testTenant = tenant.ID(3)

/*
TestWithinTransaction_RollsBack verifies that a failed transaction discards
its writes but never reuses IDs.
*/
func TestWithinTransaction_RollsBack(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	repo := store.LookupRepository()

	var rolledBack int64
	err := store.WithinTransaction(ctx, func(ctx context.Context) error {
		l, err := repo.Create(ctx, lookup.KindArtist, testTenant, "Mayhem")
		require.NoError(t, err)
		rolledBack = l.ID
		return errors.New("abort")
	})
	require.EqualError(t, err, "abort")

	_, err = repo.FindByName(ctx, lookup.KindArtist, testTenant, "Mayhem")
	assert.True(t, dberr.IsNotFound(err))

	next, err := repo.Create(ctx, lookup.KindArtist, testTenant, "Mayhem")
	require.NoError(t, err)
	assert.Greater(t, next.ID, rolledBack)
}

/*
TestWithinTransaction_Nested verifies that an inner call joins the outer
transaction and the outer outcome decides.
*/
func TestWithinTransaction_Nested(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	repo := store.LookupRepository()

	err := store.WithinTransaction(ctx, func(ctx context.Context) error {
		inner := store.WithinTransaction(ctx, func(ctx context.Context) error {
			_, err := repo.Create(ctx, lookup.KindGenre, testTenant, "Doom")
			return err
		})
		require.NoError(t, inner)
		return errors.New("outer failed")
	})
	require.Error(t, err)

	total, err := repo.Count(ctx, lookup.KindGenre, testTenant)
	require.NoError(t, err)
	assert.Zero(t, total)
}

/*
TestWithinTransaction_Panic verifies rollback when the unit of work panics.
*/
func TestWithinTransaction_Panic(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	repo := store.LookupRepository()

	assert.Panics(t, func() {
		_ = store.WithinTransaction(ctx, func(ctx context.Context) error {
			_, _ = repo.Create(ctx, lookup.KindLabel, testTenant, "Peaceville")
			panic("boom")
		})
	})

	total, err := repo.Count(ctx, lookup.KindLabel, testTenant)
	require.NoError(t, err)
	assert.Zero(t, total)
}

/*
TestWithinTransaction_Serializes verifies that concurrent resolutions of one
name inside transactions create a single row.
*/
func TestWithinTransaction_Serializes(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	repo := store.LookupRepository()

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = store.WithinTransaction(ctx, func(ctx context.Context) error {
				resolver := lookup.NewResolver(repo, testTenant, discardLogger())
				_, err := resolver.ResolveOrCreate(ctx, lookup.KindArtist, nil, pointer.To("Darkthrone"))
				return err
			})
		}()
	}
	wg.Wait()

	total, err := repo.Count(ctx, lookup.KindArtist, testTenant)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
}

/*
TestLookupRepository_Uniqueness verifies that exact names collide and names
differing only in case do not.
*/
func TestLookupRepository_Uniqueness(t *testing.T) {
	ctx := context.Background()
	repo := memstore.New().LookupRepository()

	_, err := repo.Create(ctx, lookup.KindCountry, testTenant, "Norway")
	require.NoError(t, err)

	_, err = repo.Create(ctx, lookup.KindCountry, testTenant, "Norway")
	assert.True(t, dberr.IsUniqueViolation(err))

	second, err := repo.Create(ctx, lookup.KindCountry, testTenant, "NORWAY")
	require.NoError(t, err)

	// The oldest row wins name lookups.
	found, err := repo.FindByName(ctx, lookup.KindCountry, testTenant, "norway")
	require.NoError(t, err)
	assert.Less(t, found.ID, second.ID)

	_, err = repo.Create(ctx, lookup.KindCountry, tenant.ID(4), "Norway")
	assert.NoError(t, err)
}

/*
TestLookupRepository_DeleteClearsReferences verifies the single-valued
reference cleanup on delete.
*/
func TestLookupRepository_DeleteClearsReferences(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	lookups := store.LookupRepository()
	releases := store.ReleaseRepository()

	label, err := lookups.Create(ctx, lookup.KindLabel, testTenant, "Deathlike Silence")
	require.NoError(t, err)

	r := &release.Release{TenantID: testTenant.Int64(), Title: "Deathcrush", LabelID: &label.ID, ArtistIDs: "[]", GenreIDs: "[]"}
	require.NoError(t, releases.Create(ctx, r))

	require.NoError(t, lookups.Delete(ctx, lookup.KindLabel, testTenant, label.ID))

	stored, err := releases.Get(ctx, testTenant, r.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.LabelID)

	err = lookups.Delete(ctx, lookup.KindLabel, testTenant, label.ID)
	assert.True(t, dberr.IsNotFound(err))
}

/*
TestReleaseRepository_Isolation verifies cloning and tenant scoping.
*/
func TestReleaseRepository_Isolation(t *testing.T) {
	ctx := context.Background()
	releases := memstore.New().ReleaseRepository()

	r := &release.Release{TenantID: testTenant.Int64(), Title: "A Blaze in the Northern Sky", ExternalID: pointer.To("ext-1"), ArtistIDs: "[]", GenreIDs: "[]"}
	require.NoError(t, releases.Create(ctx, r))
	require.NotZero(t, r.ID)
	assert.False(t, r.CreatedAt.IsZero())

	r.Title = "mutated after insert"
	stored, err := releases.Get(ctx, testTenant, r.ID)
	require.NoError(t, err)
	assert.Equal(t, "A Blaze in the Northern Sky", stored.Title)

	_, err = releases.Get(ctx, tenant.ID(4), r.ID)
	assert.True(t, dberr.IsNotFound(err))

	dup := &release.Release{TenantID: testTenant.Int64(), Title: "Other", ExternalID: pointer.To("ext-1"), ArtistIDs: "[]", GenreIDs: "[]"}
	assert.True(t, dberr.IsUniqueViolation(releases.Create(ctx, dup)))

	found, err := releases.FindByTitle(ctx, testTenant, "  a blaze in the northern sky")
	require.NoError(t, err)
	assert.Len(t, found, 1)
}

/*
TestFailOn verifies failure injection and its reset.
*/
func TestFailOn(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	releases := store.ReleaseRepository()

	store.FailOn(memstore.OpReleaseList, errors.New("connection reset"))
	_, err := releases.List(ctx, testTenant)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")

	store.FailOn(memstore.OpReleaseList, nil)
	_, err = releases.List(ctx, testTenant)
	assert.NoError(t, err)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
