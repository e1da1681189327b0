// Copyright (c) 2026 Plaquier. All rights reserved.
// Author: m.joris.pro@gmail.com

// Package labelkey derives canonical comparison keys from catalog labels.
//
// # Usage
//
// Catalog entries are matched against operator-typed text ("Boîte Burger",
// "boite burger") by exact label, ignoring case, accents, and surrounding or
// repeated whitespace. This package produces the key both sides are folded to
// before comparison.
package labelkey

import (
	"strings"
	"unicode"

	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// From folds an arbitrary Unicode label into its canonical comparison key.
//
// # Transformation Pipeline
//
// 1. Normalizes to NFD (decomposes accented chars: é → e + combining acute).
// 2. Removes combining marks (accents).
// 3. Converts to lowercase.
// 4. Collapses internal whitespace runs and trims the ends.
func From(s string) string {
	// 1. Normalize and remove accents
	t := transform.Chain(norm.NFD, transform.RemoveFunc(isMn))
	result, _, _ := transform.String(t, s)

	// 2. Lowercase
	result = strings.ToLower(result)

	// 3. Collapse whitespace
	return strings.Join(strings.Fields(result), " ")
}

// Equal reports whether two labels fold to the same canonical key.
func Equal(a, b string) bool {
	return From(a) == From(b)
}

// isMn reports whether r is a Unicode non-spacing mark (e.g., accents).
func isMn(r rune) bool {
	return unicode.Is(unicode.Mn, r)
}
