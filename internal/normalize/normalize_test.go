package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanonicalizeIdempotent(t *testing.T) {
	inputs := []string{"  Ibuprofen  ", "St. John's Wort", "Warfarin /  Aspirin", "ALREADY lower"}
	for _, in := range inputs {
		once := Canonicalize(in)
		twice := Canonicalize(once)
		assert.Equal(t, once, twice, "Canonicalize must be idempotent for %q", in)
	}
}

func TestCanonicalizeCollapsesSlashSpacing(t *testing.T) {
	assert.Equal(t, "a/b", Canonicalize("a / b"))
	assert.Equal(t, "a/b", Canonicalize("a/ b"))
	assert.Equal(t, "a/b", Canonicalize("a /b"))
}

func TestPairKeyCommutative(t *testing.T) {
	a, b := Canonicalize("Warfarin"), Canonicalize("Aspirin")
	assert.Equal(t, PairKey(a, b), PairKey(b, a))
}

func TestItemsRejectsEmptyBatch(t *testing.T) {
	_, err := Items(nil)
	require.Error(t, err)
}

func TestItemsRejectsOverBound(t *testing.T) {
	originals := make([]string, MaxItems+1)
	for i := range originals {
		originals[i] = "x"
	}
	_, err := Items(originals)
	require.Error(t, err)
}

func TestItemsRejectsEmptyValue(t *testing.T) {
	_, err := Items([]string{"warfarin", "  "})
	require.Error(t, err)
}

func TestPairsOneItemIsEmpty(t *testing.T) {
	items, err := Items([]string{"aspirin"})
	require.NoError(t, err)
	assert.Empty(t, Pairs(items))
	assert.Empty(t, Triples(items))
}

func TestPairsTwoItemsOnePairNoTriples(t *testing.T) {
	items, err := Items([]string{"aspirin", "warfarin"})
	require.NoError(t, err)
	assert.Len(t, Pairs(items), 1)
	assert.Empty(t, Triples(items))
}

func TestTriplesThreeItemsOneTriple(t *testing.T) {
	items, err := Items([]string{"aspirin", "warfarin", "ibuprofen"})
	require.NoError(t, err)
	assert.Len(t, Pairs(items), 3)
	assert.Len(t, Triples(items), 1)
}
