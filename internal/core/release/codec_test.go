// Copyright (c) 2026 Crate. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package release_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/crate/internal/core/release"
	"github.com/taibuivan/crate/pkg/pointer"
)

/*
TestCodec_Media checks that nested media survive encoding unchanged.
*/
func TestCodec_Media(t *testing.T) {
	media := []release.Medium{
		{
			Title: "Disc 1",
			Tracks: []release.Track{
				{Index: 1, Title: "Hammerheart", Year: pointer.To(1990), Artists: []string{"Bathory"}, Genres: []string{}, DurationSeconds: pointer.To(310)},
				{Index: 2, Title: "Shores in Flames", Artists: []string{}, Genres: []string{"Viking Metal"}, IsLive: true},
			},
		},
	}

	text, err := release.Encode(media)
	require.NoError(t, err)
	assert.Contains(t, text, `"v":1`)

	decoded, err := release.Decode[[]release.Medium](text)
	require.NoError(t, err)
	assert.Equal(t, media, decoded)
}

/*
TestCodec_BarePayload checks that text without an envelope is read as version 1.
*/
func TestCodec_BarePayload(t *testing.T) {
	images, err := release.Decode[release.Images](`{"front":"cover.jpg"}`)
	require.NoError(t, err)
	require.NotNil(t, images.Front)
	assert.Equal(t, "cover.jpg", *images.Front)
}

/*
TestCodec_Errors covers malformed and unknown-version payloads.
*/
func TestCodec_Errors(t *testing.T) {
	_, err := release.Decode[[]release.Link](`{"v":2,"data":[]}`)
	assert.ErrorIs(t, err, release.ErrUnsupportedVersion)

	_, err = release.Decode[[]release.Link](`[{"url":`)
	assert.Error(t, err)

	_, err = release.Decode[[]release.Link]("  ")
	assert.Error(t, err)
}

/*
TestCodec_IDs checks ID lists in the current and legacy formats.
*/
func TestCodec_IDs(t *testing.T) {
	assert.Equal(t, "[]", release.EncodeIDs(nil))
	assert.Equal(t, "[3,17]", release.EncodeIDs([]int64{3, 17}))

	tests := []struct {
		name string
		text string
		want []int64
	}{
		{"json", "[3,17]", []int64{3, 17}},
		{"json_with_space", " [ 3, 17 ] ", []int64{3, 17}},
		{"comma", "3,17", []int64{3, 17}},
		{"pipe", "3|17|3", []int64{3, 17, 3}},
		{"blank", "", []int64{}},
		{"empty_array", "[]", []int64{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ids, err := release.DecodeIDs(tt.text)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids)
		})
	}

	_, err := release.DecodeIDs("3,abc")
	assert.Error(t, err)
}

/*
TestCodec_Purchase checks that both stored shapes normalize to one value.
*/
func TestCodec_Purchase(t *testing.T) {
	current, err := release.Encode(release.PurchaseInfo{
		StoreID:  pointer.To(int64(4)),
		Price:    pointer.To(19.99),
		Currency: pointer.To("SEK"),
	})
	require.NoError(t, err)

	decoded, err := release.DecodePurchase(current)
	require.NoError(t, err)
	assert.Equal(t, int64(4), *decoded.StoreID)
	assert.Equal(t, 19.99, *decoded.Price)
	assert.Nil(t, decoded.StoreName)

	legacy := `{"storeName":"Rough Trade","pricePaid":12.5,"currencyCode":"GBP","purchasedOn":"1999-05-01","comment":"signed"}`
	decoded, err = release.DecodePurchase(legacy)
	require.NoError(t, err)
	assert.Nil(t, decoded.StoreID)
	assert.Equal(t, "Rough Trade", *decoded.StoreName)
	assert.Equal(t, 12.5, *decoded.Price)
	assert.Equal(t, "GBP", *decoded.Currency)
	assert.Equal(t, "1999-05-01", *decoded.PurchaseDate)
	assert.Equal(t, "signed", *decoded.Notes)

	_, err = release.DecodePurchase(`"not an object"`)
	assert.Error(t, err)
}
