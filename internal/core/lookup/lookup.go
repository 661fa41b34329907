// Copyright (c) 2026 Crate. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package lookup manages the small named reference entities a release points
// at: artists, genres, labels, countries, formats, packagings and stores.
//
// # Architecture
//
// The seven kinds share one shape and one [Repository]. A [Kind] selects the
// table; nothing else differs between them. The [Resolver] turns free-text
// names submitted with a release into IDs, creating rows on the fly inside the
// caller's transaction.
package lookup

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/taibuivan/crate/internal/platform/database/schema"
)

// Kind identifies one reference table.
type Kind string

const (
	KindArtist    Kind = "artist"
	KindGenre     Kind = "genre"
	KindLabel     Kind = "label"
	KindCountry   Kind = "country"
	KindFormat    Kind = "format"
	KindPackaging Kind = "packaging"
	KindStore     Kind = "store"
)

// Kinds lists every lookup kind in display order.
var Kinds = []Kind{KindArtist, KindGenre, KindLabel, KindCountry, KindFormat, KindPackaging, KindStore}

// ParseKind maps a route segment ("artists", "genre") to a [Kind].
func ParseKind(raw string) (Kind, bool) {
	for _, kind := range Kinds {
		if raw == string(kind) || raw == kind.Plural() {
			return kind, true
		}
	}
	return "", false
}

// Plural returns the collection name used in routes.
func (k Kind) Plural() string {
	if k == KindCountry {
		return "countries"
	}
	return string(k) + "s"
}

// Label returns the capitalized display word ("Artist").
func (k Kind) Label() string {
	if k == "" {
		return ""
	}
	return strings.ToUpper(string(k[:1])) + string(k[1:])
}

// Placeholder is the display name used when id no longer resolves.
func (k Kind) Placeholder(id int64) string {
	return k.Label() + " " + strconv.FormatInt(id, 10)
}

// table returns the schema definition backing the kind.
func (k Kind) table() schema.CatalogLookupTable {
	switch k {
	case KindArtist:
		return schema.CatalogArtist
	case KindGenre:
		return schema.CatalogGenre
	case KindLabel:
		return schema.CatalogLabel
	case KindCountry:
		return schema.CatalogCountry
	case KindFormat:
		return schema.CatalogFormat
	case KindPackaging:
		return schema.CatalogPackaging
	case KindStore:
		return schema.CatalogStore
	default:
		panic(fmt.Sprintf("lookup: unknown kind %q", string(k)))
	}
}

// Lookup is one reference row owned by a tenant.
type Lookup struct {
	ID        int64     `json:"id"`
	TenantID  int64     `json:"-"`
	Kind      Kind      `json:"kind"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// # JSON Field Identifiers

const (
	FieldName  = "name"
	FieldNames = "names"
)
