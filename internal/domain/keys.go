// Package domain defines the core types of the gift arbitrage engine:
// canonical matching keys, marketplace listings, floor quotes, and the
// arbitrage candidates produced by a scan.
package domain

import (
	"strings"
	"unicode"
)

// CanonicalKey is the canonical matching identity of a gift name. Two display
// names refer to the same gift iff their CanonicalKeys are equal.
type CanonicalKey string

// ModelKey identifies one sub-variant ("model") of a gift across markets.
type ModelKey struct {
	Gift  CanonicalKey
	Model CanonicalKey
}

// Canonicalize maps a free-text gift or model name to its CanonicalKey:
// whitespace, hyphens, and apostrophes (plain and typographic) are removed
// and the remainder is lower-cased. The function is pure and idempotent.
// An empty input yields the empty key, which matches nothing.
//
// Both marketplaces use different capitalization and punctuation for the
// same gift ("Plush Pepe" vs "plush-pepe"), so all cross-market matching
// goes through this function.
func Canonicalize(name string) CanonicalKey {
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		switch {
		case unicode.IsSpace(r):
		case r == '-' || r == '\'' || r == '’' || r == '‘':
		default:
			b.WriteRune(r)
		}
	}
	return CanonicalKey(strings.ToLower(b.String()))
}

// NewModelKey canonicalizes a gift/model name pair.
func NewModelKey(gift, model string) ModelKey {
	return ModelKey{Gift: Canonicalize(gift), Model: Canonicalize(model)}
}
