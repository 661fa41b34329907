// Copyright (c) 2026 Crate. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package release

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/taibuivan/crate/internal/core/lookup"
	"github.com/taibuivan/crate/internal/platform/apperr"
	"github.com/taibuivan/crate/internal/platform/dberr"
	"github.com/taibuivan/crate/internal/platform/tenant"
	"github.com/taibuivan/crate/internal/platform/validate"
	"github.com/taibuivan/crate/pkg/slice"
)

// Transactor runs fn inside one storage transaction. Nested calls join the
// outer transaction.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// Stage is a step of a write operation.
type Stage string

const (
	StageStarted          Stage = "started"
	StageEntitiesResolved Stage = "entities_resolved"
	StageValidated        Stage = "validated"
	StageDuplicateChecked Stage = "duplicate_checked"
	StagePersisted        Stage = "persisted"
	StageCommitted        Stage = "committed"
	StageRolledBack       Stage = "rolled_back"
)

// WriterConfig tunes the writer.
type WriterConfig struct {
	// DuplicateCheckOnUpdate runs duplicate detection on edits, excluding the edited release.
	DuplicateCheckOnUpdate bool
}

// Result is a persisted release and the lookups created while writing it.
// Created is nil when nothing was created.
type Result struct {
	Release *Release
	Created *lookup.Created
}

// Writer creates, updates and deletes releases. Every operation runs in one
// transaction; any failure rolls back all of its writes, including lookups
// created on the fly.
type Writer struct {
	releases Repository
	lookups  lookup.Repository
	detector *Detector
	tx       Transactor
	config   WriterConfig
	logger   *slog.Logger
}

func NewWriter(releases Repository, lookups lookup.Repository, detector *Detector, tx Transactor, config WriterConfig, logger *slog.Logger) *Writer {
	return &Writer{
		releases: releases,
		lookups:  lookups,
		detector: detector,
		tx:       tx,
		config:   config,
		logger:   logger,
	}
}

// Create ingests a new release.
//
// # Flow
//  1. Resolve or create every referenced lookup, then confirm that every
//     resulting ID belongs to the tenant.
//  2. Validate the submission, requiring at least one artist.
//  3. Reject external ID clashes and duplicates found with the resolved artist IDs.
//  4. Persist and commit.
func (w *Writer) Create(ctx context.Context, tenantID tenant.ID, in CreateInput) (*Result, error) {
	if err := tenant.Require(tenantID); err != nil {
		return nil, err
	}

	op := w.start(ctx, "create", tenantID, in.Title)
	resolver := lookup.NewResolver(w.lookups, tenantID, w.logger)

	var row *Release
	err := w.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		// ── 1. Resolution ─────────────────────────────────────────────────
		if err := in.validateNames(); err != nil {
			return err
		}
		refs, err := resolveCreate(ctx, resolver, in)
		if err != nil {
			return err
		}
		if err := w.checkReferences(ctx, tenantID, refs); err != nil {
			return err
		}
		op.advance(ctx, StageEntitiesResolved)

		// ── 2. Validation ─────────────────────────────────────────────────
		if err := in.validate(len(refs.ArtistIDs)); err != nil {
			return err
		}
		if row, err = in.toRow(tenantID.Int64(), refs); err != nil {
			return err
		}
		op.advance(ctx, StageValidated)

		// ── 3. Duplicate Detection ────────────────────────────────────────
		if err := w.checkExternalID(ctx, tenantID, row.ExternalID, nil); err != nil {
			return err
		}
		if err := w.checkDuplicates(ctx, tenantID, Candidate{
			CatalogNumber: row.CatalogNumber,
			Title:         row.Title,
			ArtistIDs:     refs.ArtistIDs,
			ArtistNames:   in.ArtistNames,
		}); err != nil {
			return err
		}
		op.advance(ctx, StageDuplicateChecked)

		// ── 4. Persistence ────────────────────────────────────────────────
		if err := w.releases.Create(ctx, row); err != nil {
			return err
		}
		op.advance(ctx, StagePersisted)
		return nil
	})
	if err != nil {
		return nil, op.fail(ctx, err)
	}

	op.commit(ctx, "release_created", row.ID)
	return newResult(row, resolver.Created()), nil
}

// Update replaces the stored fields of release id. Lists and nested
// structures are replaced, not merged.
func (w *Writer) Update(ctx context.Context, tenantID tenant.ID, id int64, in UpdateInput) (*Result, error) {
	if err := tenant.Require(tenantID); err != nil {
		return nil, err
	}

	op := w.start(ctx, "update", tenantID, in.Title)
	resolver := lookup.NewResolver(w.lookups, tenantID, w.logger)

	var row *Release
	err := w.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		existing, err := w.releases.Get(ctx, tenantID, id)
		if err != nil {
			return err
		}

		// Only the purchase store may still be named on update.
		refs := references{
			LabelID:     in.LabelID,
			CountryID:   in.CountryID,
			FormatID:    in.FormatID,
			PackagingID: in.PackagingID,
			ArtistIDs:   in.ArtistIDs,
			GenreIDs:    in.GenreIDs,
		}
		if err := in.validateNames(); err != nil {
			return err
		}
		if p := in.Purchase; p != nil {
			if refs.StoreID, err = resolver.ResolveOrCreate(ctx, lookup.KindStore, p.StoreID, p.StoreName); err != nil {
				return err
			}
		}
		if err := w.checkReferences(ctx, tenantID, refs); err != nil {
			return err
		}
		op.advance(ctx, StageEntitiesResolved)

		if err := in.validate(len(refs.ArtistIDs)); err != nil {
			return err
		}
		if row, err = in.toRow(tenantID.Int64(), refs); err != nil {
			return err
		}
		row.ID = existing.ID
		row.CreatedAt = existing.CreatedAt
		op.advance(ctx, StageValidated)

		if err := w.checkExternalID(ctx, tenantID, row.ExternalID, &row.ID); err != nil {
			return err
		}
		if w.config.DuplicateCheckOnUpdate {
			if err := w.checkDuplicates(ctx, tenantID, Candidate{
				CatalogNumber:    row.CatalogNumber,
				Title:            row.Title,
				ArtistIDs:        refs.ArtistIDs,
				ExcludeReleaseID: &row.ID,
			}); err != nil {
				return err
			}
		}
		op.advance(ctx, StageDuplicateChecked)

		if err := w.releases.Update(ctx, row); err != nil {
			return err
		}
		op.advance(ctx, StagePersisted)
		return nil
	})
	if err != nil {
		return nil, op.fail(ctx, err)
	}

	op.commit(ctx, "release_updated", row.ID)
	return newResult(row, resolver.Created()), nil
}

// Delete removes release id. Lookups it referenced are kept.
func (w *Writer) Delete(ctx context.Context, tenantID tenant.ID, id int64) error {
	if err := tenant.Require(tenantID); err != nil {
		return err
	}

	op := w.start(ctx, "delete", tenantID, "")

	err := w.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		existing, err := w.releases.Get(ctx, tenantID, id)
		if err != nil {
			return err
		}
		op.title = existing.Title

		if err := w.releases.Delete(ctx, tenantID, id); err != nil {
			return err
		}
		op.advance(ctx, StagePersisted)
		return nil
	})
	if err != nil {
		return op.fail(ctx, err)
	}

	op.commit(ctx, "release_deleted", id)
	return nil
}

func resolveCreate(ctx context.Context, resolver *lookup.Resolver, in CreateInput) (references, error) {
	var (
		refs references
		err  error
	)

	singles := []struct {
		kind   lookup.Kind
		id     *int64
		name   *string
		target **int64
	}{
		{lookup.KindLabel, in.LabelID, in.LabelName, &refs.LabelID},
		{lookup.KindCountry, in.CountryID, in.CountryName, &refs.CountryID},
		{lookup.KindFormat, in.FormatID, in.FormatName, &refs.FormatID},
		{lookup.KindPackaging, in.PackagingID, in.PackagingName, &refs.PackagingID},
	}
	for _, single := range singles {
		if *single.target, err = resolver.ResolveOrCreate(ctx, single.kind, single.id, single.name); err != nil {
			return refs, err
		}
	}

	if refs.ArtistIDs, err = resolver.ResolveOrCreateMany(ctx, lookup.KindArtist, in.ArtistIDs, in.ArtistNames); err != nil {
		return refs, err
	}
	if refs.GenreIDs, err = resolver.ResolveOrCreateMany(ctx, lookup.KindGenre, in.GenreIDs, in.GenreNames); err != nil {
		return refs, err
	}

	if p := in.Purchase; p != nil {
		if refs.StoreID, err = resolver.ResolveOrCreate(ctx, lookup.KindStore, p.StoreID, p.StoreName); err != nil {
			return refs, err
		}
	}
	return refs, nil
}

// checkReferences rejects IDs that do not name a lookup owned by tenantID.
func (w *Writer) checkReferences(ctx context.Context, tenantID tenant.ID, refs references) error {
	checks := []struct {
		field string
		kind  lookup.Kind
		ids   []int64
	}{
		{FieldLabelID, lookup.KindLabel, optionalIDs(refs.LabelID)},
		{FieldCountryID, lookup.KindCountry, optionalIDs(refs.CountryID)},
		{FieldFormatID, lookup.KindFormat, optionalIDs(refs.FormatID)},
		{FieldPackagingID, lookup.KindPackaging, optionalIDs(refs.PackagingID)},
		{FieldStoreID, lookup.KindStore, optionalIDs(refs.StoreID)},
		{FieldArtistIDs, lookup.KindArtist, refs.ArtistIDs},
		{FieldGenreIDs, lookup.KindGenre, refs.GenreIDs},
	}

	validator := &validate.Validator{}
	for _, check := range checks {
		if len(check.ids) == 0 {
			continue
		}

		names, err := w.lookups.NamesByIDs(ctx, check.kind, tenantID, slice.Unique(check.ids))
		if err != nil {
			return err
		}

		unknown := slice.Unique(slice.Filter(check.ids, func(id int64) bool {
			_, ok := names[id]
			return !ok
		}))
		validator.Custom(check.field, len(unknown) > 0,
			fmt.Sprintf("Unknown %s: %v", check.kind.Plural(), unknown))
	}
	return validator.Err()
}

func optionalIDs(id *int64) []int64 {
	if id == nil {
		return nil
	}
	return []int64{*id}
}

func (w *Writer) checkExternalID(ctx context.Context, tenantID tenant.ID, externalID *string, self *int64) error {
	if externalID == nil {
		return nil
	}

	existing, err := w.releases.FindByExternalID(ctx, tenantID, *externalID)
	if dberr.IsNotFound(err) {
		return nil
	}
	if err != nil {
		return err
	}
	if self != nil && existing.ID == *self {
		return nil
	}

	return apperr.Duplicate("A release with this external ID already exists",
		apperr.DuplicateOf{ID: existing.ID, Title: existing.Title})
}

func (w *Writer) checkDuplicates(ctx context.Context, tenantID tenant.ID, candidate Candidate) error {
	matches, err := w.detector.FindDuplicates(ctx, tenantID, candidate)
	if err != nil {
		return err
	}
	if len(matches) == 0 {
		return nil
	}

	conflicts := slice.Map(matches, func(match *Release) apperr.DuplicateOf {
		return apperr.DuplicateOf{ID: match.ID, Title: match.Title}
	})
	return apperr.Duplicate("This release already exists in the catalogue", conflicts...)
}

func newResult(row *Release, created lookup.Created) *Result {
	result := &Result{Release: row}
	if !created.IsEmpty() {
		result.Created = &created
	}
	return result
}

// # Operation Tracking

// operation follows one write through its stages for logging.
type operation struct {
	name     string
	tenantID tenant.ID
	title    string
	stage    Stage
	logger   *slog.Logger
}

func (w *Writer) start(ctx context.Context, name string, tenantID tenant.ID, title string) *operation {
	op := &operation{
		name:     name,
		tenantID: tenantID,
		title:    title,
		stage:    StageStarted,
		logger: w.logger.With(
			slog.String("operation", name),
			slog.String("tenant_id", tenantID.String()),
		),
	}
	op.logger.DebugContext(ctx, "release_write_stage", slog.String("stage", string(op.stage)))
	return op
}

func (op *operation) advance(ctx context.Context, stage Stage) {
	op.stage = stage
	op.logger.DebugContext(ctx, "release_write_stage", slog.String("stage", string(stage)))
}

func (op *operation) commit(ctx context.Context, event string, releaseID int64) {
	op.stage = StageCommitted
	op.logger.InfoContext(ctx, event,
		slog.Int64("release_id", releaseID),
		slog.String("title", op.title),
		slog.String("stage", string(op.stage)),
	)
}

// fail records the rollback and maps err to a client-facing error. Domain
// rejections pass through; storage failures are sanitized.
func (op *operation) fail(ctx context.Context, err error) error {
	failedAt := op.stage
	op.stage = StageRolledBack

	attrs := []any{
		slog.String("title", op.title),
		slog.String("failed_stage", string(failedAt)),
		slog.String("stage", string(op.stage)),
	}

	if dberr.IsNotFound(err) {
		op.logger.InfoContext(ctx, "release_write_rejected", append(attrs, slog.String("code", apperr.CodeNotFound))...)
		return apperr.NotFound("Release")
	}

	if appErr := apperr.As(err); appErr != nil && appErr.HTTPStatus < 500 {
		op.logger.InfoContext(ctx, "release_write_rejected", append(attrs, slog.String("code", appErr.Code))...)
		return appErr
	}

	op.logger.ErrorContext(ctx, "release_write_rolled_back", append(attrs, slog.Any("error", err))...)
	return apperr.Storage(err)
}
