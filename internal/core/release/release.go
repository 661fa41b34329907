// Copyright (c) 2026 Crate. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package release implements the release ingestion pipeline: duplicate
// detection, the transactional writer and the read-side mapper.
//
// # Storage Model
//
// A release is one row. Artist and genre references are stored as encoded ID
// lists, and nested structures (media, purchase info, images, links) as
// versioned JSON text. See codec.go for the formats.
package release

import (
	"time"
)

// Release is the stored row. Encoded fields hold codec output; nil means the
// structure is absent.
type Release struct {
	ID       int64
	TenantID int64

	Title               string
	ReleaseDate         *time.Time
	OriginalReleaseDate *time.Time
	IsLive              bool
	CatalogNumber       *string
	UPC                 *string
	DurationSeconds     *int
	Notes               *string
	ExternalID          *string

	LabelID     *int64
	CountryID   *int64
	FormatID    *int64
	PackagingID *int64

	ArtistIDs    string
	GenreIDs     string
	PurchaseInfo *string
	Images       *string
	Links        *string
	Media        *string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Clone returns a deep copy so stored rows never alias caller memory.
func (r *Release) Clone() *Release {
	if r == nil {
		return nil
	}
	c := *r
	c.ReleaseDate = clonePtr(r.ReleaseDate)
	c.OriginalReleaseDate = clonePtr(r.OriginalReleaseDate)
	c.CatalogNumber = clonePtr(r.CatalogNumber)
	c.UPC = clonePtr(r.UPC)
	c.DurationSeconds = clonePtr(r.DurationSeconds)
	c.Notes = clonePtr(r.Notes)
	c.ExternalID = clonePtr(r.ExternalID)
	c.LabelID = clonePtr(r.LabelID)
	c.CountryID = clonePtr(r.CountryID)
	c.FormatID = clonePtr(r.FormatID)
	c.PackagingID = clonePtr(r.PackagingID)
	c.PurchaseInfo = clonePtr(r.PurchaseInfo)
	c.Images = clonePtr(r.Images)
	c.Links = clonePtr(r.Links)
	c.Media = clonePtr(r.Media)
	return &c
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// # Nested Structures

// Medium is one disc, side or file set with its ordered tracks.
type Medium struct {
	Title  string  `json:"title"`
	Tracks []Track `json:"tracks"`
}

// Track is one entry on a medium. Artist and genre names are free text and
// are not resolved to lookups.
type Track struct {
	Index           int      `json:"index"`
	Title           string   `json:"title"`
	Year            *int     `json:"year"`
	Artists         []string `json:"artists"`
	Genres          []string `json:"genres"`
	IsLive          bool     `json:"is_live"`
	DurationSeconds *int     `json:"duration_seconds"`
}

// Images names the cover files, relative to the media storage root.
type Images struct {
	Front     *string `json:"front"`
	Back      *string `json:"back"`
	Thumbnail *string `json:"thumbnail"`
}

// Link is an external reference such as a shop or discography page.
type Link struct {
	URL         string  `json:"url"`
	Type        string  `json:"type"`
	Description *string `json:"description"`
}

// PurchaseInfo records where and how a copy was bought.
type PurchaseInfo struct {
	StoreID      *int64   `json:"store_id"`
	Price        *float64 `json:"price"`
	Currency     *string  `json:"currency"`
	PurchaseDate *string  `json:"purchase_date"`
	Notes        *string  `json:"notes"`
}

// # JSON Field Identifiers

const (
	FieldTitle           = "title"
	FieldArtists         = "artists"
	FieldDurationSeconds = "duration_seconds"
	FieldCatalogNumber   = "catalog_number"
	FieldUPC             = "upc"
	FieldNotes           = "notes"
	FieldMedia           = "media"
	FieldLinks           = "links"
	FieldImages          = "images"
	FieldPurchase        = "purchase"
	FieldExternalID      = "external_id"

	FieldLabelID       = "label_id"
	FieldLabelName     = "label_name"
	FieldCountryID     = "country_id"
	FieldCountryName   = "country_name"
	FieldFormatID      = "format_id"
	FieldFormatName    = "format_name"
	FieldPackagingID   = "packaging_id"
	FieldPackagingName = "packaging_name"
	FieldArtistIDs     = "artist_ids"
	FieldArtistNames   = "artist_names"
	FieldGenreIDs      = "genre_ids"
	FieldGenreNames    = "genre_names"
	FieldStoreID       = "purchase.store_id"
	FieldStoreName     = "purchase.store_name"
)
