// Copyright (c) 2026 Crate. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package release

import (
	"fmt"
	"strings"
	"time"

	"github.com/taibuivan/crate/internal/platform/constants"
	"github.com/taibuivan/crate/internal/platform/validate"
	"github.com/taibuivan/crate/pkg/pointer"
	"github.com/taibuivan/crate/pkg/textkey"
)

// Details holds the fields shared by create and update submissions.
type Details struct {
	Title               string         `json:"title"`
	ReleaseDate         *string        `json:"release_date"`
	OriginalReleaseDate *string        `json:"original_release_date"`
	IsLive              bool           `json:"is_live"`
	CatalogNumber       *string        `json:"catalog_number"`
	UPC                 *string        `json:"upc"`
	DurationSeconds     *int           `json:"duration_seconds"`
	Notes               *string        `json:"notes"`
	ExternalID          *string        `json:"external_id"`
	Purchase            *PurchaseInput `json:"purchase"`
	Images              *Images        `json:"images"`
	Links               []Link         `json:"links"`
	Media               []Medium       `json:"media"`
}

// PurchaseInput names the store by ID or by free text.
type PurchaseInput struct {
	StoreID      *int64   `json:"store_id"`
	StoreName    *string  `json:"store_name"`
	Price        *float64 `json:"price"`
	Currency     *string  `json:"currency"`
	PurchaseDate *string  `json:"purchase_date"`
	Notes        *string  `json:"notes"`
}

// CreateInput is a new release. Every reference may be given by ID or by
// name; unknown names create lookups.
type CreateInput struct {
	Details

	LabelID       *int64  `json:"label_id"`
	LabelName     *string `json:"label_name"`
	CountryID     *int64  `json:"country_id"`
	CountryName   *string `json:"country_name"`
	FormatID      *int64  `json:"format_id"`
	FormatName    *string `json:"format_name"`
	PackagingID   *int64  `json:"packaging_id"`
	PackagingName *string `json:"packaging_name"`

	ArtistIDs   []int64  `json:"artist_ids"`
	ArtistNames []string `json:"artist_names"`
	GenreIDs    []int64  `json:"genre_ids"`
	GenreNames  []string `json:"genre_names"`
}

// UpdateInput replaces an existing release. References are already-resolved
// IDs, except the purchase store which may still be named.
type UpdateInput struct {
	Details

	LabelID     *int64 `json:"label_id"`
	CountryID   *int64 `json:"country_id"`
	FormatID    *int64 `json:"format_id"`
	PackagingID *int64 `json:"packaging_id"`

	ArtistIDs []int64 `json:"artist_ids"`
	GenreIDs  []int64 `json:"genre_ids"`
}

// references are the resolved lookup IDs of a submission.
type references struct {
	LabelID     *int64
	CountryID   *int64
	FormatID    *int64
	PackagingID *int64
	StoreID     *int64
	ArtistIDs   []int64
	GenreIDs    []int64
}

// validate checks d together with the resolved artist count.
func (d *Details) validate(artistCount int) error {
	validator := &validate.Validator{}

	validator.
		Required(FieldTitle, d.Title).
		MaxLen(FieldTitle, strings.TrimSpace(d.Title), constants.MaxTitleLength).
		Custom(FieldArtists, artistCount == 0, "At least one artist is required").
		NonNegative(FieldDurationSeconds, d.DurationSeconds)

	checkDate(validator, "release_date", d.ReleaseDate)
	checkDate(validator, "original_release_date", d.OriginalReleaseDate)

	if d.CatalogNumber != nil {
		validator.MaxLen(FieldCatalogNumber, strings.TrimSpace(*d.CatalogNumber), constants.MaxCatalogNumberLength)
	}
	if d.UPC != nil {
		validator.MaxLen(FieldUPC, strings.TrimSpace(*d.UPC), constants.MaxCatalogNumberLength)
	}
	if d.ExternalID != nil {
		validator.MaxLen(FieldExternalID, strings.TrimSpace(*d.ExternalID), constants.MaxCatalogNumberLength)
	}

	for i, medium := range d.Media {
		field := fmt.Sprintf("%s[%d]", FieldMedia, i)
		validator.MaxLen(field+".title", medium.Title, constants.MaxTitleLength)

		for j, track := range medium.Tracks {
			trackField := fmt.Sprintf("%s.tracks[%d]", field, j)
			validator.
				Required(trackField+".title", track.Title).
				MaxLen(trackField+".title", track.Title, constants.MaxTitleLength).
				NonNegative(trackField+".duration_seconds", track.DurationSeconds)
			if track.Year != nil {
				validator.Range(trackField+".year", *track.Year, 1000, 9999)
			}
		}
	}

	for i, link := range d.Links {
		field := fmt.Sprintf("%s[%d]", FieldLinks, i)
		validator.URL(field+".url", link.URL).MaxLen(field+".type", link.Type, 50)
	}

	if d.Images != nil {
		files := []struct {
			name  string
			value *string
		}{
			{"front", d.Images.Front},
			{"back", d.Images.Back},
			{"thumbnail", d.Images.Thumbnail},
		}
		for _, file := range files {
			if file.value != nil {
				validator.RelativePath(FieldImages+"."+file.name, *file.value)
			}
		}
	}

	if p := d.Purchase; p != nil {
		validator.Custom(FieldPurchase+".price", p.Price != nil && *p.Price < 0, "Must not be negative")
		if p.Currency != nil {
			validator.MaxLen(FieldPurchase+".currency", strings.TrimSpace(*p.Currency), 3)
		}
		checkDate(validator, FieldPurchase+".purchase_date", p.PurchaseDate)
	}

	return validator.Err()
}

// validateNames bounds the free-text lookup names before any of them is
// resolved or created.
func (in *CreateInput) validateNames() error {
	validator := &validate.Validator{}

	checkName(validator, FieldLabelName, pointer.Val(in.LabelName))
	checkName(validator, FieldCountryName, pointer.Val(in.CountryName))
	checkName(validator, FieldFormatName, pointer.Val(in.FormatName))
	checkName(validator, FieldPackagingName, pointer.Val(in.PackagingName))
	for i, name := range in.ArtistNames {
		checkName(validator, fmt.Sprintf("%s[%d]", FieldArtistNames, i), name)
	}
	for i, name := range in.GenreNames {
		checkName(validator, fmt.Sprintf("%s[%d]", FieldGenreNames, i), name)
	}
	in.checkStoreName(validator)

	return validator.Err()
}

// validateNames bounds the purchase store name, the only name an update resolves.
func (in *UpdateInput) validateNames() error {
	validator := &validate.Validator{}
	in.checkStoreName(validator)
	return validator.Err()
}

func (d *Details) checkStoreName(validator *validate.Validator) {
	if d.Purchase != nil {
		checkName(validator, FieldStoreName, pointer.Val(d.Purchase.StoreName))
	}
}

func checkName(validator *validate.Validator, field, name string) {
	validator.MaxLen(field, textkey.Clean(name), constants.MaxLookupNameLength)
}

func checkDate(validator *validate.Validator, field string, value *string) {
	if value == nil {
		return
	}
	_, err := time.Parse(time.DateOnly, strings.TrimSpace(*value))
	validator.Custom(field, err != nil, "Must be a date in YYYY-MM-DD format")
}

// toRow assembles the stored row. d must have passed validate.
func (d *Details) toRow(tenantID int64, refs references) (*Release, error) {
	row := &Release{
		TenantID:            tenantID,
		Title:               strings.TrimSpace(d.Title),
		ReleaseDate:         parseDate(d.ReleaseDate),
		OriginalReleaseDate: parseDate(d.OriginalReleaseDate),
		IsLive:              d.IsLive,
		CatalogNumber:       trimmed(d.CatalogNumber),
		UPC:                 trimmed(d.UPC),
		DurationSeconds:     d.DurationSeconds,
		Notes:               trimmed(d.Notes),
		ExternalID:          trimmed(d.ExternalID),
		LabelID:             refs.LabelID,
		CountryID:           refs.CountryID,
		FormatID:            refs.FormatID,
		PackagingID:         refs.PackagingID,
		ArtistIDs:           EncodeIDs(refs.ArtistIDs),
		GenreIDs:            EncodeIDs(refs.GenreIDs),
	}

	var err error
	if d.Purchase != nil {
		purchase := PurchaseInfo{
			StoreID:      refs.StoreID,
			Price:        d.Purchase.Price,
			Currency:     trimmed(d.Purchase.Currency),
			PurchaseDate: trimmed(d.Purchase.PurchaseDate),
			Notes:        trimmed(d.Purchase.Notes),
		}
		if row.PurchaseInfo, err = EncodeOptional(purchase, true); err != nil {
			return nil, err
		}
	}
	if row.Images, err = EncodeOptional(d.Images, d.Images != nil); err != nil {
		return nil, err
	}
	if row.Links, err = EncodeOptional(d.Links, len(d.Links) > 0); err != nil {
		return nil, err
	}
	if row.Media, err = EncodeOptional(d.Media, len(d.Media) > 0); err != nil {
		return nil, err
	}

	return row, nil
}

func parseDate(value *string) *time.Time {
	if value == nil {
		return nil
	}
	parsed, err := time.Parse(time.DateOnly, strings.TrimSpace(*value))
	if err != nil {
		return nil
	}
	return &parsed
}

// trimmed returns nil for nil or blank values.
func trimmed(value *string) *string {
	if value == nil {
		return nil
	}
	v := strings.TrimSpace(*value)
	if v == "" {
		return nil
	}
	return &v
}
