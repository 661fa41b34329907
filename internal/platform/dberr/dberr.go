// Copyright (c) 2026 Crate. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package dberr provides a bridge between low-level database errors and
// higher-level application errors.
package dberr

import (
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/taibuivan/crate/internal/platform/apperr"
)

var (
	// ErrNotFound is a standard error returned when a queried row doesn't exist.
	ErrNotFound = apperr.NotFound("Resource")

	// ErrUniqueViolation is returned when an insert collides with a unique index.
	ErrUniqueViolation = errors.New("dberr: unique violation")
)

// Wrap inspects a database error and classifies it.
//
// Missing rows become [ErrNotFound], unique violations are wrapped with
// [ErrUniqueViolation] so callers can retry, and anything else keeps the
// action name for server-side logs.
func Wrap(err error, action string) error {
	if err == nil {
		return nil
	}

	// 1. Not Found mapping
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}

	// 2. Identity collisions
	if IsUniqueViolation(err) {
		return fmt.Errorf("%s: %w: %w", action, ErrUniqueViolation, err)
	}

	// 3. Everything else stays an opaque storage failure
	return fmt.Errorf("postgres: %s: %w", action, err)
}

// IsUniqueViolation reports whether err is a PostgreSQL 23505 error.
func IsUniqueViolation(err error) bool {
	if errors.Is(err, ErrUniqueViolation) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}

// IsNotFound reports whether err is the standard not-found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
