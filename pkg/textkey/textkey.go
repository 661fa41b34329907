// Copyright (c) 2026 Crate. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package textkey derives comparison keys for human-entered names.
//
// # Usage
//
// Two names that a user would consider "the same" (differing only in case,
// surrounding whitespace or Unicode composition) produce the same key. Keys
// are used for lookup-name matching and duplicate detection, never for display.
package textkey

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

var folder = cases.Fold()

// Key returns the comparison key for s.
//
// # Transformation Pipeline
//
// 1. Trims surrounding whitespace.
// 2. Normalizes to NFC (é and e + combining acute compare equal).
// 3. Applies Unicode case folding.
func Key(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	return folder.String(norm.NFC.String(s))
}

// Equal reports whether a and b produce the same key.
func Equal(a, b string) bool {
	return Key(a) == Key(b)
}

// Clean trims s and normalizes it to NFC for storage, preserving case.
func Clean(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}
