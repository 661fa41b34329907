// Copyright (c) 2026 Crate. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package release

import (
	"context"
	"log/slog"
	"time"

	"github.com/taibuivan/crate/internal/core/lookup"
	"github.com/taibuivan/crate/internal/platform/tenant"
	"github.com/taibuivan/crate/pkg/slice"
)

// Namer resolves lookup IDs to their current display names. Unknown IDs are
// absent from the result.
type Namer interface {
	Names(ctx context.Context, kind lookup.Kind, tenantID tenant.ID, ids []int64) (map[int64]string, error)
}

// ── Views ────────────────────────────────────────────────────────────────────

// Ref is a resolved lookup reference.
type Ref struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// PurchaseView is purchase info normalized from either stored shape.
type PurchaseView struct {
	StoreID      *int64   `json:"store_id"`
	StoreName    *string  `json:"store_name"`
	Price        *float64 `json:"price"`
	Currency     *string  `json:"currency"`
	PurchaseDate *string  `json:"purchase_date"`
	Notes        *string  `json:"notes"`
}

// DetailView is the full display form of a release.
type DetailView struct {
	ID                  int64         `json:"id"`
	Title               string        `json:"title"`
	ReleaseDate         *string       `json:"release_date"`
	OriginalReleaseDate *string       `json:"original_release_date"`
	IsLive              bool          `json:"is_live"`
	CatalogNumber       *string       `json:"catalog_number"`
	UPC                 *string       `json:"upc"`
	DurationSeconds     *int          `json:"duration_seconds"`
	Notes               *string       `json:"notes"`
	ExternalID          *string       `json:"external_id"`
	Label               *Ref          `json:"label"`
	Country             *Ref          `json:"country"`
	Format              *Ref          `json:"format"`
	Packaging           *Ref          `json:"packaging"`
	Artists             []Ref         `json:"artists"`
	Genres              []Ref         `json:"genres"`
	Purchase            *PurchaseView `json:"purchase"`
	Images              *Images       `json:"images"`
	Links               []Link        `json:"links"`
	Media               []Medium      `json:"media"`
	CreatedAt           time.Time     `json:"created_at"`
	UpdatedAt           time.Time     `json:"updated_at"`
}

// SummaryView is the list form of a release.
type SummaryView struct {
	ID            int64     `json:"id"`
	Title         string    `json:"title"`
	ReleaseDate   *string   `json:"release_date"`
	CatalogNumber *string   `json:"catalog_number"`
	Artists       []Ref     `json:"artists"`
	Format        *Ref      `json:"format"`
	CoverImage    *string   `json:"cover_image"`
	CreatedAt     time.Time `json:"created_at"`
}

// ── Mapper ───────────────────────────────────────────────────────────────────

// Mapper turns stored rows into views. A name that no longer exists becomes
// a placeholder, and an optional field that fails to decode is logged and
// left out; neither fails the mapping.
type Mapper struct {
	names  Namer
	logger *slog.Logger
}

func NewMapper(names Namer, logger *slog.Logger) *Mapper {
	return &Mapper{names: names, logger: logger}
}

// ToDetailView maps one release with every nested structure decoded.
func (m *Mapper) ToDetailView(ctx context.Context, r *Release) (*DetailView, error) {
	ids := newIDSet()
	artistIDs := m.decodeIDs(ctx, r, FieldArtists, r.ArtistIDs)
	genreIDs := m.decodeIDs(ctx, r, "genres", r.GenreIDs)
	purchase := m.decodePurchase(ctx, r)

	ids.add(lookup.KindArtist, artistIDs...)
	ids.add(lookup.KindGenre, genreIDs...)
	ids.addOptional(lookup.KindLabel, r.LabelID)
	ids.addOptional(lookup.KindCountry, r.CountryID)
	ids.addOptional(lookup.KindFormat, r.FormatID)
	ids.addOptional(lookup.KindPackaging, r.PackagingID)
	if purchase != nil {
		ids.addOptional(lookup.KindStore, purchase.StoreID)
	}

	names, err := m.resolve(ctx, r.TenantID, ids)
	if err != nil {
		return nil, err
	}

	view := &DetailView{
		ID:                  r.ID,
		Title:               r.Title,
		ReleaseDate:         formatDate(r.ReleaseDate),
		OriginalReleaseDate: formatDate(r.OriginalReleaseDate),
		IsLive:              r.IsLive,
		CatalogNumber:       r.CatalogNumber,
		UPC:                 r.UPC,
		DurationSeconds:     r.DurationSeconds,
		Notes:               r.Notes,
		ExternalID:          r.ExternalID,
		Label:               names.ref(lookup.KindLabel, r.LabelID),
		Country:             names.ref(lookup.KindCountry, r.CountryID),
		Format:              names.ref(lookup.KindFormat, r.FormatID),
		Packaging:           names.ref(lookup.KindPackaging, r.PackagingID),
		Artists:             names.refs(lookup.KindArtist, artistIDs),
		Genres:              names.refs(lookup.KindGenre, genreIDs),
		Images:              decodeOptional[*Images](ctx, m, r, FieldImages, r.Images),
		Links:               decodeOptional[[]Link](ctx, m, r, FieldLinks, r.Links),
		Media:               decodeOptional[[]Medium](ctx, m, r, FieldMedia, r.Media),
		CreatedAt:           r.CreatedAt,
		UpdatedAt:           r.UpdatedAt,
	}

	if purchase != nil {
		view.Purchase = &PurchaseView{
			StoreID:      purchase.StoreID,
			StoreName:    purchase.StoreName,
			Price:        purchase.Price,
			Currency:     purchase.Currency,
			PurchaseDate: purchase.PurchaseDate,
			Notes:        purchase.Notes,
		}
		if store := names.ref(lookup.KindStore, purchase.StoreID); store != nil {
			view.Purchase.StoreName = &store.Name
		}
	}

	if view.Links == nil {
		view.Links = []Link{}
	}
	if view.Media == nil {
		view.Media = []Medium{}
	}
	return view, nil
}

// ToSummaryView maps one release for list display.
func (m *Mapper) ToSummaryView(ctx context.Context, r *Release) (*SummaryView, error) {
	views, err := m.ToSummaryViews(ctx, []*Release{r})
	if err != nil {
		return nil, err
	}
	return views[0], nil
}

// ToSummaryViews maps a page of releases, resolving names once per kind for
// the whole batch.
func (m *Mapper) ToSummaryViews(ctx context.Context, releases []*Release) ([]*SummaryView, error) {
	views := make([]*SummaryView, 0, len(releases))
	if len(releases) == 0 {
		return views, nil
	}

	ids := newIDSet()
	artistIDs := make([][]int64, len(releases))
	for i, r := range releases {
		artistIDs[i] = m.decodeIDs(ctx, r, FieldArtists, r.ArtistIDs)
		ids.add(lookup.KindArtist, artistIDs[i]...)
		ids.addOptional(lookup.KindFormat, r.FormatID)
	}

	// Every row of one call belongs to the same tenant.
	names, err := m.resolve(ctx, releases[0].TenantID, ids)
	if err != nil {
		return nil, err
	}

	for i, r := range releases {
		view := &SummaryView{
			ID:            r.ID,
			Title:         r.Title,
			ReleaseDate:   formatDate(r.ReleaseDate),
			CatalogNumber: r.CatalogNumber,
			Artists:       names.refs(lookup.KindArtist, artistIDs[i]),
			Format:        names.ref(lookup.KindFormat, r.FormatID),
			CreatedAt:     r.CreatedAt,
		}
		if images := decodeOptional[*Images](ctx, m, r, FieldImages, r.Images); images != nil {
			view.CoverImage = images.Thumbnail
			if view.CoverImage == nil {
				view.CoverImage = images.Front
			}
		}
		views = append(views, view)
	}
	return views, nil
}

func (m *Mapper) resolve(ctx context.Context, tenantID int64, ids idSet) (nameTable, error) {
	table := make(nameTable, len(ids))
	for kind, kindIDs := range ids {
		names, err := m.names.Names(ctx, kind, tenant.ID(tenantID), slice.Unique(kindIDs))
		if err != nil {
			return nil, err
		}
		table[kind] = names
	}
	return table, nil
}

func (m *Mapper) decodeIDs(ctx context.Context, r *Release, field, text string) []int64 {
	ids, err := DecodeIDs(text)
	if err != nil {
		m.logDecodeFailure(ctx, r, field, err)
		return nil
	}
	return ids
}

func (m *Mapper) decodePurchase(ctx context.Context, r *Release) *DecodedPurchase {
	if r.PurchaseInfo == nil {
		return nil
	}
	purchase, err := DecodePurchase(*r.PurchaseInfo)
	if err != nil {
		m.logDecodeFailure(ctx, r, FieldPurchase, err)
		return nil
	}
	return purchase
}

func decodeOptional[T any](ctx context.Context, m *Mapper, r *Release, field string, text *string) T {
	var zero T
	if text == nil {
		return zero
	}
	value, err := Decode[T](*text)
	if err != nil {
		m.logDecodeFailure(ctx, r, field, err)
		return zero
	}
	return value
}

func (m *Mapper) logDecodeFailure(ctx context.Context, r *Release, field string, err error) {
	m.logger.WarnContext(ctx, "release_field_decode_failed",
		slog.Int64("release_id", r.ID),
		slog.String("field", field),
		slog.Any("error", err),
	)
}

func formatDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	text := t.Format(time.DateOnly)
	return &text
}

// idSet collects the IDs to resolve, per kind.
type idSet map[lookup.Kind][]int64

func newIDSet() idSet { return idSet{} }

func (s idSet) add(kind lookup.Kind, ids ...int64) {
	if len(ids) > 0 {
		s[kind] = append(s[kind], ids...)
	}
}

func (s idSet) addOptional(kind lookup.Kind, id *int64) {
	if id != nil {
		s.add(kind, *id)
	}
}

// nameTable holds resolved names, per kind.
type nameTable map[lookup.Kind]map[int64]string

func (t nameTable) name(kind lookup.Kind, id int64) string {
	if name, ok := t[kind][id]; ok {
		return name
	}
	return kind.Placeholder(id)
}

func (t nameTable) ref(kind lookup.Kind, id *int64) *Ref {
	if id == nil {
		return nil
	}
	return &Ref{ID: *id, Name: t.name(kind, *id)}
}

func (t nameTable) refs(kind lookup.Kind, ids []int64) []Ref {
	refs := make([]Ref, len(ids))
	for i, id := range ids {
		refs[i] = Ref{ID: id, Name: t.name(kind, id)}
	}
	return refs
}
