// Package normalize canonicalizes free-text item names and derives the
// deterministic keys used to cache and compare pairs and triples.
package normalize

import (
	"regexp"
	"sort"
	"strings"

	"interactions-backend/internal/apperr"
	"interactions-backend/internal/domain"
)

var slashSpacingPattern = regexp.MustCompile(`\s*/\s*`)

// PairKeySeparator joins the two sorted canonical values of a pair key.
const PairKeySeparator = "::"

// MaxItems is the policy bound on the number of items accepted per
// request (spec §4.1: "≥1, ≤10 — bounded by policy").
const MaxItems = 10

// Canonicalize trims, lowercases, and collapses a free-text item name into
// its canonical form. It is idempotent: Canonicalize(Canonicalize(s)) == Canonicalize(s).
func Canonicalize(s string) string {
	s = strings.TrimSpace(s)
	s = strings.ToLower(s)
	s = collapseWhitespace(s)
	s = normalizeSlashSpacing(s)
	return s
}

// collapseWhitespace reduces any run of whitespace to a single space.
func collapseWhitespace(s string) string {
	var b strings.Builder
	inSpace := false
	for _, r := range s {
		if isSpace(r) {
			if !inSpace {
				b.WriteByte(' ')
				inSpace = true
			}
			continue
		}
		inSpace = false
		b.WriteRune(r)
	}
	return strings.TrimSpace(b.String())
}

func isSpace(r rune) bool {
	switch r {
	case ' ', '\t', '\n', '\r', '\v', '\f':
		return true
	default:
		return false
	}
}

// normalizeSlashSpacing collapses any whitespace around '/' so that
// combination products ("a / b", "a/ b", "a /b") share a canonical
// spelling ("a/b").
func normalizeSlashSpacing(s string) string {
	return slashSpacingPattern.ReplaceAllString(s, "/")
}

// Item builds a NormalizedItem from free-text input.
func Item(original string) domain.NormalizedItem {
	return domain.NormalizedItem{
		Normalized: Canonicalize(original),
		Original:   original,
	}
}

// Items canonicalizes a batch of free-text inputs, enforcing the policy
// bound on count (spec §4.1: fails with InvalidInput when zero or over
// the bound).
func Items(originals []string) ([]domain.NormalizedItem, error) {
	if len(originals) == 0 {
		return nil, apperr.InvalidInput("NO_ITEMS", "at least one item is required").
			WithOperation("normalize.Items").Build()
	}
	if len(originals) > MaxItems {
		return nil, apperr.InvalidInput("TOO_MANY_ITEMS", "at most 10 items are allowed").
			WithOperation("normalize.Items").Build()
	}

	items := make([]domain.NormalizedItem, 0, len(originals))
	for _, o := range originals {
		if strings.TrimSpace(o) == "" {
			return nil, apperr.InvalidInput("EMPTY_ITEM_VALUE", "item value must not be empty").
				WithOperation("normalize.Items").Build()
		}
		items = append(items, Item(o))
	}
	return items, nil
}

// PairKey forms the order-insensitive identifier for a pair of canonical
// values: the two sorted lexicographically and joined with "::".
// PairKey(a, b) == PairKey(b, a) for all a, b.
func PairKey(a, b string) string {
	pair := []string{a, b}
	sort.Strings(pair)
	return pair[0] + PairKeySeparator + pair[1]
}

// Pairs enumerates every unordered pair of the given items. No two pairs
// share the same unordered set of normalized values.
func Pairs(items []domain.NormalizedItem) []domain.Pair {
	var pairs []domain.Pair
	for i := 0; i < len(items); i++ {
		for j := i + 1; j < len(items); j++ {
			pairs = append(pairs, domain.Pair{
				A:   items[i],
				B:   items[j],
				Key: PairKey(items[i].Normalized, items[j].Normalized),
			})
		}
	}
	return pairs
}

// Triples enumerates every unordered triple of the given items by
// combinatoric expansion of the set. No two triples share the same set.
func Triples(items []domain.NormalizedItem) []domain.Triple {
	var triples []domain.Triple
	for i := 0; i < len(items); i++ {
		for j := i + 1; j < len(items); j++ {
			for k := j + 1; k < len(items); k++ {
				triples = append(triples, domain.Triple{A: items[i], B: items[j], C: items[k]})
			}
		}
	}
	return triples
}
