// Copyright (c) 2026 Crate. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package release

import (
	"context"
	"log/slog"

	"github.com/taibuivan/crate/internal/core/lookup"
	"github.com/taibuivan/crate/internal/platform/apperr"
	"github.com/taibuivan/crate/internal/platform/dberr"
	"github.com/taibuivan/crate/internal/platform/tenant"
)

// Service is the release catalogue facade used by the HTTP layer. Writes go
// through the [Writer]; reads are mapped to views.
type Service struct {
	releases Repository
	writer   *Writer
	detector *Detector
	mapper   *Mapper
	logger   *slog.Logger
}

func NewService(releases Repository, writer *Writer, detector *Detector, mapper *Mapper, logger *slog.Logger) *Service {
	return &Service{
		releases: releases,
		writer:   writer,
		detector: detector,
		mapper:   mapper,
		logger:   logger,
	}
}

// WriteResult is a written release in display form, with the lookups the
// write created.
type WriteResult struct {
	Release *DetailView     `json:"release"`
	Created *lookup.Created `json:"created"`
}

// Get returns the detail view of release id.
func (service *Service) Get(ctx context.Context, tenantID tenant.ID, id int64) (*DetailView, error) {
	if err := tenant.Require(tenantID); err != nil {
		return nil, err
	}

	r, err := service.releases.Get(ctx, tenantID, id)
	if err != nil {
		return nil, service.mapErr(ctx, "get", err)
	}

	view, err := service.mapper.ToDetailView(ctx, r)
	if err != nil {
		return nil, service.mapErr(ctx, "get", err)
	}
	return view, nil
}

// List returns every release of the tenant, newest first.
func (service *Service) List(ctx context.Context, tenantID tenant.ID) ([]*SummaryView, error) {
	views, _, err := service.Page(ctx, tenantID, 0, 0)
	return views, err
}

// Page returns one window of [Service.List] and the total count. A limit of
// zero returns everything from offset.
func (service *Service) Page(ctx context.Context, tenantID tenant.ID, limit, offset int) ([]*SummaryView, int, error) {
	if err := tenant.Require(tenantID); err != nil {
		return nil, 0, err
	}

	rows, err := service.releases.List(ctx, tenantID)
	if err != nil {
		return nil, 0, service.mapErr(ctx, "list", err)
	}

	total := len(rows)
	rows = window(rows, limit, offset)

	views, err := service.mapper.ToSummaryViews(ctx, rows)
	if err != nil {
		return nil, 0, service.mapErr(ctx, "list", err)
	}
	return views, total, nil
}

// CheckDuplicates reports the releases c would duplicate, without writing.
func (service *Service) CheckDuplicates(ctx context.Context, tenantID tenant.ID, c Candidate) ([]*SummaryView, error) {
	if err := tenant.Require(tenantID); err != nil {
		return nil, err
	}

	matches, err := service.detector.FindDuplicates(ctx, tenantID, c)
	if err != nil {
		return nil, service.mapErr(ctx, "check_duplicates", err)
	}

	views, err := service.mapper.ToSummaryViews(ctx, matches)
	if err != nil {
		return nil, service.mapErr(ctx, "check_duplicates", err)
	}
	return views, nil
}

func (service *Service) Create(ctx context.Context, tenantID tenant.ID, in CreateInput) (*WriteResult, error) {
	result, err := service.writer.Create(ctx, tenantID, in)
	if err != nil {
		return nil, err
	}
	return service.toWriteResult(ctx, result)
}

func (service *Service) Update(ctx context.Context, tenantID tenant.ID, id int64, in UpdateInput) (*WriteResult, error) {
	result, err := service.writer.Update(ctx, tenantID, id, in)
	if err != nil {
		return nil, err
	}
	return service.toWriteResult(ctx, result)
}

func (service *Service) Delete(ctx context.Context, tenantID tenant.ID, id int64) error {
	return service.writer.Delete(ctx, tenantID, id)
}

func (service *Service) toWriteResult(ctx context.Context, result *Result) (*WriteResult, error) {
	view, err := service.mapper.ToDetailView(ctx, result.Release)
	if err != nil {
		return nil, service.mapErr(ctx, "map", err)
	}
	return &WriteResult{Release: view, Created: result.Created}, nil
}

func (service *Service) mapErr(ctx context.Context, operation string, err error) error {
	if dberr.IsNotFound(err) {
		return apperr.NotFound("Release")
	}
	if appErr := apperr.As(err); appErr != nil {
		return appErr
	}
	service.logger.ErrorContext(ctx, "release_read_failed",
		slog.String("operation", operation),
		slog.Any("error", err),
	)
	return apperr.Storage(err)
}

func window(rows []*Release, limit, offset int) []*Release {
	if offset >= len(rows) {
		return []*Release{}
	}
	rows = rows[offset:]
	if limit > 0 && limit < len(rows) {
		rows = rows[:limit]
	}
	return rows
}
