// Copyright (c) 2026 Crate. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package release

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// # Encoding Formats
//
// ID lists are JSON arrays of integers: [3,17]. Rows written before the JSON
// format may hold comma- or pipe-separated digits ("3,17"); both decode.
//
// Nested structures are wrapped in a version envelope: {"v":1,"data":...}.
// Text without the envelope is read as a bare version 1 payload.

// EncodingVersion is the envelope version written by [Encode].
const EncodingVersion = 1

// ErrUnsupportedVersion is returned for envelopes newer than this build understands.
var ErrUnsupportedVersion = errors.New("codec: unsupported encoding version")

type envelope[T any] struct {
	Version int `json:"v"`
	Data    T   `json:"data"`
}

// Encode serializes value inside a version envelope.
func Encode[T any](value T) (string, error) {
	raw, err := json.Marshal(envelope[T]{Version: EncodingVersion, Data: value})
	if err != nil {
		return "", fmt.Errorf("codec: encode: %w", err)
	}
	return string(raw), nil
}

// Decode parses text produced by [Encode], or a bare legacy payload.
func Decode[T any](text string) (T, error) {
	var zero T

	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return zero, errors.New("codec: empty payload")
	}

	if version, ok := envelopeVersion(trimmed); ok {
		if version != EncodingVersion {
			return zero, fmt.Errorf("%w: %d", ErrUnsupportedVersion, version)
		}
		var env envelope[T]
		if err := json.Unmarshal([]byte(trimmed), &env); err != nil {
			return zero, fmt.Errorf("codec: decode: %w", err)
		}
		return env.Data, nil
	}

	var value T
	if err := json.Unmarshal([]byte(trimmed), &value); err != nil {
		return zero, fmt.Errorf("codec: decode: %w", err)
	}
	return value, nil
}

// envelopeVersion reports the "v" field when text is an envelope object.
func envelopeVersion(text string) (int, bool) {
	if !strings.HasPrefix(text, "{") {
		return 0, false
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(text), &fields); err != nil {
		return 0, false
	}

	rawVersion, hasVersion := fields["v"]
	_, hasData := fields["data"]
	if !hasVersion || !hasData || len(fields) != 2 {
		return 0, false
	}

	var version int
	if err := json.Unmarshal(rawVersion, &version); err != nil {
		return 0, false
	}
	return version, true
}

// EncodeOptional encodes value, returning nil when present is false.
func EncodeOptional[T any](value T, present bool) (*string, error) {
	if !present {
		return nil, nil
	}
	text, err := Encode(value)
	if err != nil {
		return nil, err
	}
	return &text, nil
}

// # ID Lists

// EncodeIDs serializes an ID list. A nil or empty list encodes as "[]".
func EncodeIDs(ids []int64) string {
	if len(ids) == 0 {
		return "[]"
	}

	var buffer bytes.Buffer
	buffer.WriteByte('[')
	for i, id := range ids {
		if i > 0 {
			buffer.WriteByte(',')
		}
		buffer.WriteString(strconv.FormatInt(id, 10))
	}
	buffer.WriteByte(']')
	return buffer.String()
}

// DecodeIDs parses an encoded ID list. Blank text is an empty list.
func DecodeIDs(text string) ([]int64, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return []int64{}, nil
	}

	if strings.HasPrefix(trimmed, "[") {
		ids := []int64{}
		if err := json.Unmarshal([]byte(trimmed), &ids); err != nil {
			return nil, fmt.Errorf("codec: decode ids: %w", err)
		}
		return ids, nil
	}

	fields := strings.FieldsFunc(trimmed, func(r rune) bool { return r == ',' || r == '|' })
	ids := make([]int64, 0, len(fields))
	for _, field := range fields {
		id, err := strconv.ParseInt(strings.TrimSpace(field), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("codec: decode ids: %q: %w", field, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// # Purchase Info

// legacyPurchaseInfo is the shape written by the previous catalogue, which
// stored the store by name.
type legacyPurchaseInfo struct {
	StoreName    *string  `json:"storeName"`
	PricePaid    *float64 `json:"pricePaid"`
	CurrencyCode *string  `json:"currencyCode"`
	PurchasedOn  *string  `json:"purchasedOn"`
	Comment      *string  `json:"comment"`
}

var legacyPurchaseKeys = []string{"storeName", "pricePaid", "currencyCode", "purchasedOn", "comment"}

// DecodedPurchase is purchase info normalized from either stored shape.
// StoreName is only set by the legacy shape.
type DecodedPurchase struct {
	PurchaseInfo
	StoreName *string
}

// DecodePurchase reads purchase info in the current or the legacy shape. The
// shape is chosen by the field names present.
func DecodePurchase(text string) (*DecodedPurchase, error) {
	raw, err := Decode[json.RawMessage](text)
	if err != nil {
		return nil, err
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("codec: decode purchase: %w", err)
	}

	for _, key := range legacyPurchaseKeys {
		if _, ok := fields[key]; !ok {
			continue
		}

		var legacy legacyPurchaseInfo
		if err := json.Unmarshal(raw, &legacy); err != nil {
			return nil, fmt.Errorf("codec: decode legacy purchase: %w", err)
		}
		return &DecodedPurchase{
			PurchaseInfo: PurchaseInfo{
				Price:        legacy.PricePaid,
				Currency:     legacy.CurrencyCode,
				PurchaseDate: legacy.PurchasedOn,
				Notes:        legacy.Comment,
			},
			StoreName: legacy.StoreName,
		}, nil
	}

	var current PurchaseInfo
	if err := json.Unmarshal(raw, &current); err != nil {
		return nil, fmt.Errorf("codec: decode purchase: %w", err)
	}
	return &DecodedPurchase{PurchaseInfo: current}, nil
}
