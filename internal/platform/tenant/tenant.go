// Copyright (c) 2026 Crate. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package tenant defines the identity that scopes every catalogue read and write.
//
// # Explicit Passing
//
// Services never read the tenant from ambient state. The HTTP layer derives an
// [ID] once per request and threads it through every call, so an administrator
// acting on behalf of another tenant is a visible parameter rather than a
// side channel.
package tenant

import (
	"strconv"

	"github.com/taibuivan/crate/internal/platform/apperr"
)

// ID identifies the owning account of catalogue data. The zero value means
// "no tenant" (unauthenticated).
type ID int64

// None is the absent tenant.
const None ID = 0

// Valid reports whether the identity refers to a real tenant.
func (id ID) Valid() bool {
	return id > 0
}

// Int64 returns the raw storage value.
func (id ID) Int64() int64 {
	return int64(id)
}

// String implements fmt.Stringer.
func (id ID) String() string {
	return strconv.FormatInt(int64(id), 10)
}

// Require returns an Unauthenticated error when id is not a valid tenant.
func Require(id ID) error {
	if !id.Valid() {
		return apperr.Unauthenticated("Authentication required")
	}
	return nil
}

// Parse converts a decimal string into an [ID]. Blank or malformed input yields [None].
func Parse(raw string) ID {
	value, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || value <= 0 {
		return None
	}
	return ID(value)
}
