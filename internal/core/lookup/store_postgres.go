// Copyright (c) 2026 Crate. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package lookup

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taibuivan/crate/internal/platform/dberr"
	"github.com/taibuivan/crate/internal/platform/postgres"
	"github.com/taibuivan/crate/internal/platform/tenant"
)

// PostgresRepository stores lookups in the catalog.<kind> tables.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

func selectColumns(kind Kind) string {
	return strings.Join(kind.table().Columns(), ", ")
}

func scanLookup(kind Kind, row pgx.Row) (*Lookup, error) {
	l := &Lookup{Kind: kind}
	if err := row.Scan(&l.ID, &l.TenantID, &l.Name, &l.CreatedAt, &l.UpdatedAt); err != nil {
		return nil, err
	}
	return l, nil
}

func (repository *PostgresRepository) Get(ctx context.Context, kind Kind, tenantID tenant.ID, id int64) (*Lookup, error) {
	t := kind.table()
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1 AND %s = $2`,
		selectColumns(kind), t.Table, t.TenantID, t.ID)

	l, err := scanLookup(kind, postgres.Conn(ctx, repository.pool).QueryRow(ctx, query, tenantID.Int64(), id))
	if err != nil {
		return nil, dberr.Wrap(err, "get_"+string(kind))
	}
	return l, nil
}

func (repository *PostgresRepository) FindByName(ctx context.Context, kind Kind, tenantID tenant.ID, name string) (*Lookup, error) {
	t := kind.table()
	query := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE %s = $1 AND lower(btrim(%s)) = lower(btrim($2))
		ORDER BY %s ASC
		LIMIT 1
	`, selectColumns(kind), t.Table, t.TenantID, t.Name, t.ID)

	l, err := scanLookup(kind, postgres.Conn(ctx, repository.pool).QueryRow(ctx, query, tenantID.Int64(), name))
	if err != nil {
		return nil, dberr.Wrap(err, "find_"+string(kind)+"_by_name")
	}
	return l, nil
}

// Create inserts a row without aborting the surrounding transaction when the
// exact name already exists: ON CONFLICT DO NOTHING returns no row, which is
// reported as a unique violation so the caller can re-read.
func (repository *PostgresRepository) Create(ctx context.Context, kind Kind, tenantID tenant.ID, name string) (*Lookup, error) {
	t := kind.table()
	query := fmt.Sprintf(`
		INSERT INTO %s (%s, %s) VALUES ($1, $2)
		ON CONFLICT (%s, %s) DO NOTHING
		RETURNING %s
	`, t.Table, t.TenantID, t.Name, t.TenantID, t.Name, selectColumns(kind))

	l, err := scanLookup(kind, postgres.Conn(ctx, repository.pool).QueryRow(ctx, query, tenantID.Int64(), name))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("create_%s: %w", kind, dberr.ErrUniqueViolation)
	}
	if err != nil {
		return nil, dberr.Wrap(err, "create_"+string(kind))
	}
	return l, nil
}

func (repository *PostgresRepository) Rename(ctx context.Context, kind Kind, tenantID tenant.ID, id int64, name string) (*Lookup, error) {
	t := kind.table()
	query := fmt.Sprintf(`
		UPDATE %s SET %s = $3, %s = now()
		WHERE %s = $1 AND %s = $2
		RETURNING %s
	`, t.Table, t.Name, t.UpdatedAt, t.TenantID, t.ID, selectColumns(kind))

	l, err := scanLookup(kind, postgres.Conn(ctx, repository.pool).QueryRow(ctx, query, tenantID.Int64(), id, name))
	if err != nil {
		return nil, dberr.Wrap(err, "rename_"+string(kind))
	}
	return l, nil
}

func (repository *PostgresRepository) Delete(ctx context.Context, kind Kind, tenantID tenant.ID, id int64) error {
	t := kind.table()
	query := fmt.Sprintf(`DELETE FROM %s WHERE %s = $1 AND %s = $2`, t.Table, t.TenantID, t.ID)

	tag, err := postgres.Conn(ctx, repository.pool).Exec(ctx, query, tenantID.Int64(), id)
	if err != nil {
		return dberr.Wrap(err, "delete_"+string(kind))
	}
	if tag.RowsAffected() == 0 {
		return dberr.ErrNotFound
	}
	return nil
}

func (repository *PostgresRepository) List(ctx context.Context, kind Kind, tenantID tenant.ID) ([]*Lookup, error) {
	t := kind.table()
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1 ORDER BY lower(%s) ASC, %s ASC`,
		selectColumns(kind), t.Table, t.TenantID, t.Name, t.ID)

	rows, err := postgres.Conn(ctx, repository.pool).Query(ctx, query, tenantID.Int64())
	if err != nil {
		return nil, dberr.Wrap(err, "list_"+string(kind))
	}
	defer rows.Close()

	lookups := make([]*Lookup, 0)
	for rows.Next() {
		l, err := scanLookup(kind, rows)
		if err != nil {
			return nil, dberr.Wrap(err, "scan_"+string(kind))
		}
		lookups = append(lookups, l)
	}
	if err := rows.Err(); err != nil {
		return nil, dberr.Wrap(err, "list_"+string(kind))
	}
	return lookups, nil
}

func (repository *PostgresRepository) Count(ctx context.Context, kind Kind, tenantID tenant.ID) (int, error) {
	t := kind.table()
	query := fmt.Sprintf(`SELECT count(*) FROM %s WHERE %s = $1`, t.Table, t.TenantID)

	var total int
	if err := postgres.Conn(ctx, repository.pool).QueryRow(ctx, query, tenantID.Int64()).Scan(&total); err != nil {
		return 0, dberr.Wrap(err, "count_"+string(kind))
	}
	return total, nil
}

func (repository *PostgresRepository) NamesByIDs(ctx context.Context, kind Kind, tenantID tenant.ID, ids []int64) (map[int64]string, error) {
	names := make(map[int64]string, len(ids))
	if len(ids) == 0 {
		return names, nil
	}

	t := kind.table()
	query := fmt.Sprintf(`SELECT %s, %s FROM %s WHERE %s = $1 AND %s = ANY($2)`,
		t.ID, t.Name, t.Table, t.TenantID, t.ID)

	rows, err := postgres.Conn(ctx, repository.pool).Query(ctx, query, tenantID.Int64(), ids)
	if err != nil {
		return nil, dberr.Wrap(err, "names_"+string(kind))
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id   int64
			name string
		)
		if err := rows.Scan(&id, &name); err != nil {
			return nil, dberr.Wrap(err, "scan_"+string(kind)+"_name")
		}
		names[id] = name
	}
	if err := rows.Err(); err != nil {
		return nil, dberr.Wrap(err, "names_"+string(kind))
	}
	return names, nil
}
