// Copyright (c) 2026 Crate. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package release

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taibuivan/crate/internal/platform/database/schema"
	"github.com/taibuivan/crate/internal/platform/dberr"
	"github.com/taibuivan/crate/internal/platform/postgres"
	"github.com/taibuivan/crate/internal/platform/tenant"
)

// PostgresRepository stores releases in catalog.release.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

var (
	releaseColumns = strings.Join(schema.CatalogRelease.Columns(), ", ")
	writeColumns   = schema.CatalogRelease.WritableColumns()
)

func scanRelease(row pgx.Row) (*Release, error) {
	r := &Release{}
	err := row.Scan(
		&r.ID, &r.TenantID, &r.Title, &r.ReleaseDate, &r.OriginalReleaseDate, &r.IsLive,
		&r.CatalogNumber, &r.UPC, &r.DurationSeconds, &r.Notes, &r.ExternalID,
		&r.LabelID, &r.CountryID, &r.FormatID, &r.PackagingID,
		&r.ArtistIDs, &r.GenreIDs, &r.PurchaseInfo, &r.Images, &r.Links, &r.Media,
		&r.CreatedAt, &r.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return r, nil
}

// writeArgs returns the values for [schema.CatalogReleaseTable.WritableColumns].
func writeArgs(r *Release) []any {
	return []any{
		r.TenantID, r.Title, r.ReleaseDate, r.OriginalReleaseDate, r.IsLive,
		r.CatalogNumber, r.UPC, r.DurationSeconds, r.Notes, r.ExternalID,
		r.LabelID, r.CountryID, r.FormatID, r.PackagingID,
		r.ArtistIDs, r.GenreIDs, r.PurchaseInfo, r.Images, r.Links, r.Media,
	}
}

func (repository *PostgresRepository) queryReleases(ctx context.Context, action, query string, args ...any) ([]*Release, error) {
	rows, err := postgres.Conn(ctx, repository.pool).Query(ctx, query, args...)
	if err != nil {
		return nil, dberr.Wrap(err, action)
	}
	defer rows.Close()

	releases := make([]*Release, 0)
	for rows.Next() {
		r, err := scanRelease(rows)
		if err != nil {
			return nil, dberr.Wrap(err, "scan_release")
		}
		releases = append(releases, r)
	}
	if err := rows.Err(); err != nil {
		return nil, dberr.Wrap(err, action)
	}
	return releases, nil
}

func (repository *PostgresRepository) Get(ctx context.Context, tenantID tenant.ID, id int64) (*Release, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1 AND %s = $2`,
		releaseColumns, schema.CatalogRelease.Table, schema.CatalogRelease.TenantID, schema.CatalogRelease.ID)

	r, err := scanRelease(postgres.Conn(ctx, repository.pool).QueryRow(ctx, query, tenantID.Int64(), id))
	if err != nil {
		return nil, dberr.Wrap(err, "get_release")
	}
	return r, nil
}

func (repository *PostgresRepository) List(ctx context.Context, tenantID tenant.ID) ([]*Release, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1 ORDER BY %s DESC, %s DESC`,
		releaseColumns, schema.CatalogRelease.Table, schema.CatalogRelease.TenantID,
		schema.CatalogRelease.CreatedAt, schema.CatalogRelease.ID)

	return repository.queryReleases(ctx, "list_releases", query, tenantID.Int64())
}

func (repository *PostgresRepository) Create(ctx context.Context, r *Release) error {
	placeholders := make([]string, len(writeColumns))
	for i := range writeColumns {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}

	query := fmt.Sprintf(`INSERT INTO %s (%s) VALUES (%s) RETURNING %s, %s, %s`,
		schema.CatalogRelease.Table, strings.Join(writeColumns, ", "), strings.Join(placeholders, ", "),
		schema.CatalogRelease.ID, schema.CatalogRelease.CreatedAt, schema.CatalogRelease.UpdatedAt)

	err := postgres.Conn(ctx, repository.pool).QueryRow(ctx, query, writeArgs(r)...).
		Scan(&r.ID, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return dberr.Wrap(err, "create_release")
	}
	return nil
}

func (repository *PostgresRepository) Update(ctx context.Context, r *Release) error {
	// Tenant is the first writable column and is used as a filter, not a target.
	assignments := make([]string, 0, len(writeColumns))
	for i, column := range writeColumns[1:] {
		assignments = append(assignments, fmt.Sprintf("%s = $%d", column, i+2))
	}
	assignments = append(assignments, schema.CatalogRelease.UpdatedAt+" = now()")

	idPlaceholder := len(writeColumns) + 1
	query := fmt.Sprintf(`UPDATE %s SET %s WHERE %s = $1 AND %s = $%d RETURNING %s`,
		schema.CatalogRelease.Table, strings.Join(assignments, ", "),
		schema.CatalogRelease.TenantID, schema.CatalogRelease.ID, idPlaceholder,
		schema.CatalogRelease.UpdatedAt)

	args := append(writeArgs(r), r.ID)
	if err := postgres.Conn(ctx, repository.pool).QueryRow(ctx, query, args...).Scan(&r.UpdatedAt); err != nil {
		return dberr.Wrap(err, "update_release")
	}
	return nil
}

func (repository *PostgresRepository) Delete(ctx context.Context, tenantID tenant.ID, id int64) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE %s = $1 AND %s = $2`,
		schema.CatalogRelease.Table, schema.CatalogRelease.TenantID, schema.CatalogRelease.ID)

	tag, err := postgres.Conn(ctx, repository.pool).Exec(ctx, query, tenantID.Int64(), id)
	if err != nil {
		return dberr.Wrap(err, "delete_release")
	}
	if tag.RowsAffected() == 0 {
		return dberr.ErrNotFound
	}
	return nil
}

func (repository *PostgresRepository) Count(ctx context.Context, tenantID tenant.ID) (int, error) {
	query := fmt.Sprintf(`SELECT count(*) FROM %s WHERE %s = $1`, schema.CatalogRelease.Table, schema.CatalogRelease.TenantID)

	var total int
	if err := postgres.Conn(ctx, repository.pool).QueryRow(ctx, query, tenantID.Int64()).Scan(&total); err != nil {
		return 0, dberr.Wrap(err, "count_releases")
	}
	return total, nil
}

func (repository *PostgresRepository) FindByCatalogNumber(ctx context.Context, tenantID tenant.ID, catalogNumber string) ([]*Release, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE %s = $1 AND lower(btrim(%s)) = lower(btrim($2))
		ORDER BY %s ASC
	`, releaseColumns, schema.CatalogRelease.Table,
		schema.CatalogRelease.TenantID, schema.CatalogRelease.CatalogNumber, schema.CatalogRelease.ID)

	return repository.queryReleases(ctx, "find_release_by_catalog_number", query, tenantID.Int64(), catalogNumber)
}

func (repository *PostgresRepository) FindByTitle(ctx context.Context, tenantID tenant.ID, title string) ([]*Release, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE %s = $1 AND lower(btrim(%s)) = lower(btrim($2))
		ORDER BY %s ASC
	`, releaseColumns, schema.CatalogRelease.Table,
		schema.CatalogRelease.TenantID, schema.CatalogRelease.Title, schema.CatalogRelease.ID)

	return repository.queryReleases(ctx, "find_release_by_title", query, tenantID.Int64(), title)
}

func (repository *PostgresRepository) FindByExternalID(ctx context.Context, tenantID tenant.ID, externalID string) (*Release, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1 AND %s = $2`,
		releaseColumns, schema.CatalogRelease.Table, schema.CatalogRelease.TenantID, schema.CatalogRelease.ExternalID)

	r, err := scanRelease(postgres.Conn(ctx, repository.pool).QueryRow(ctx, query, tenantID.Int64(), externalID))
	if err != nil {
		return nil, dberr.Wrap(err, "find_release_by_external_id")
	}
	return r, nil
}
