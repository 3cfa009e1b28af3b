package orchestrator

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"interactions-backend/internal/apperr"
	"interactions-backend/internal/cache"
	"interactions-backend/internal/concurrency"
	"interactions-backend/internal/domain"
	"interactions-backend/internal/providers"
)

func testDeps(t *testing.T, ctx context.Context, rxnorm *fakeRxNorm, supplement *fakeSupplement, label *fakeLabel, adverse *fakeAdverse, literature *fakeLiterature, exposure *fakeExposure) *Deps {
	t.Helper()
	return &Deps{
		RxNorm:          rxnorm,
		Supplement:      supplement,
		Label:           label,
		Adverse:         adverse,
		Literature:      literature,
		Exposure:        exposure,
		ItemStore:       newFakeItemStore(),
		PairStore:       newFakePairStore(),
		ExposureStore:   newFakeExposureStore(),
		UpstreamLimiter: concurrency.New(ctx, "upstream", 6),
		PairLimiter:     concurrency.New(ctx, "pair", 3),
	}
}

// Scenario 1 (spec §8): RxNorm-only severe.
func TestProcessRxNormOnlySevere(t *testing.T) {
	ctx := context.Background()
	rxnorm := &fakeRxNorm{
		lookup: func(name string) (string, error) { return "RX-" + name, nil },
		interactions: func(idA, idB string) (*providers.InteractionResult, error) {
			return &providers.InteractionResult{Severity: "severe", Description: "warfarin potentiates bleeding risk with ibuprofen"}, nil
		},
	}
	d := testDeps(t, ctx, rxnorm, &fakeSupplement{}, &fakeLabel{}, &fakeAdverse{}, &fakeLiterature{}, &fakeExposure{})

	resp, err := Process(ctx, d, []string{"warfarin", "ibuprofen"}, Options{})
	require.NoError(t, err)
	require.Len(t, resp.Results.Pairs, 1)

	pair := resp.Results.Pairs[0]
	assert.Equal(t, domain.SeveritySevere, pair.Severity)
	assert.InDelta(t, 0.85, pair.Confidence, 0.01)
	require.Len(t, pair.Sources, 1)
	assert.Equal(t, domain.OriginRxNormInteractions, pair.Sources[0].Origin)
	assert.Equal(t, "warfarin potentiates bleeding risk with ibuprofen", pair.Summary)
}

// Scenario 2 (spec §8): normalized empty.
func TestProcessNormalizedEmpty(t *testing.T) {
	ctx := context.Background()
	rxnorm := &fakeRxNorm{
		lookup: func(name string) (string, error) { return "RX-" + name, nil },
	}
	adverse := &fakeAdverse{}
	d := testDeps(t, ctx, rxnorm, &fakeSupplement{}, &fakeLabel{}, adverse, &fakeLiterature{}, &fakeExposure{})

	resp, err := Process(ctx, d, []string{"metformin", "ibuprofen"}, Options{})
	require.NoError(t, err)
	require.Len(t, resp.Results.Pairs, 1)

	pair := resp.Results.Pairs[0]
	assert.Equal(t, domain.SeverityNone, pair.Severity)
	assert.GreaterOrEqual(t, pair.Confidence, 0.30)
	assert.LessOrEqual(t, pair.Confidence, 0.70)
	assert.True(t, strings.HasPrefix(pair.Summary, "No significant interactions found"), pair.Summary)
}

// Scenario 3 (spec §8): RxNorm absent, primaries error.
func TestProcessRxNormAbsentPrimariesError(t *testing.T) {
	ctx := context.Background()
	rxnorm := &fakeRxNorm{
		lookup: func(name string) (string, error) {
			if name == "drugx" {
				return "RX-1", nil
			}
			return "", nil
		},
	}
	adverse := &fakeAdverse{
		pair: func(a, b string) (*providers.AdverseEventCounts, error) {
			return nil, errors.New("upstream unavailable")
		},
	}
	d := testDeps(t, ctx, rxnorm, &fakeSupplement{}, &fakeLabel{}, adverse, &fakeLiterature{}, &fakeExposure{})

	resp, err := Process(ctx, d, []string{"drugx", "drugy"}, Options{Debug: true})
	require.NoError(t, err)
	require.Len(t, resp.Results.Pairs, 1)

	pair := resp.Results.Pairs[0]
	assert.Equal(t, domain.SeverityUnknown, pair.Severity)
	assert.Equal(t, float64(0), pair.Confidence)
	assert.True(t, strings.HasPrefix(pair.Summary, "Limited evidence available"), pair.Summary)

	statuses := resp.Debug.ProviderStatuses["drugx::drugy"]
	var sawNotAttempted bool
	for _, s := range statuses {
		if s.Origin == domain.OriginRxNormInteractions && !s.Attempted {
			sawNotAttempted = true
		}
	}
	assert.True(t, sawNotAttempted, "rxnorm_interactions must be recorded as not attempted when an identifier is absent")
}

func TestProcessOneItemHasNoPairsOneSingle(t *testing.T) {
	ctx := context.Background()
	d := testDeps(t, ctx, &fakeRxNorm{}, &fakeSupplement{}, &fakeLabel{}, &fakeAdverse{}, &fakeLiterature{}, &fakeExposure{})

	resp, err := Process(ctx, d, []string{"aspirin"}, Options{})
	require.NoError(t, err)
	assert.Empty(t, resp.Results.Pairs)
	assert.Empty(t, resp.Results.Triples)
	assert.Len(t, resp.Results.Singles, 1)
}

// SingleReport is analogous to PairReport/TripleReport: it carries its own
// consensus severity, aggregated confidence, and key notes rather than
// just a bag of sources.
func TestProcessSingleReportCarriesSeverityConfidenceAndKeyNotes(t *testing.T) {
	ctx := context.Background()
	label := &fakeLabel{
		fetch: func(name, identifier string) (*providers.LabelRecord, error) {
			return &providers.LabelRecord{Warnings: []string{"avoid alcohol"}, Identifier: "123"}, nil
		},
	}
	adverse := &fakeAdverse{
		single: func(name string) (*providers.AdverseEventCounts, error) {
			return &providers.AdverseEventCounts{TotalEvents: 50, SeriousEvents: 2}, nil
		},
	}
	d := testDeps(t, ctx, &fakeRxNorm{}, &fakeSupplement{}, label, adverse, &fakeLiterature{}, &fakeExposure{})

	resp, err := Process(ctx, d, []string{"ibuprofen"}, Options{})
	require.NoError(t, err)
	require.Len(t, resp.Results.Singles, 1)

	single := resp.Results.Singles[0]
	assert.Equal(t, domain.SeverityModerate, single.Severity)
	assert.Greater(t, single.Confidence, 0.0)
	require.Len(t, single.KeyNotes, 2)
	assert.Contains(t, single.KeyNotes[0], string(domain.OriginLabelWarnings))
}

func TestProcessTwoItemsOnePairNoTriples(t *testing.T) {
	ctx := context.Background()
	d := testDeps(t, ctx, &fakeRxNorm{}, &fakeSupplement{}, &fakeLabel{}, &fakeAdverse{}, &fakeLiterature{}, &fakeExposure{})

	resp, err := Process(ctx, d, []string{"aspirin", "warfarin"}, Options{})
	require.NoError(t, err)
	assert.Len(t, resp.Results.Pairs, 1)
	assert.Empty(t, resp.Results.Triples)
	assert.Len(t, resp.Results.Singles, 2)
}

// Spec §7: cache-write failures on the item or pair stores are surfaced
// as apperr.Internal to the caller after the in-memory response has been
// computed.
func TestProcessSurfacesItemCacheWriteFailure(t *testing.T) {
	ctx := context.Background()
	d := testDeps(t, ctx, &fakeRxNorm{}, &fakeSupplement{}, &fakeLabel{}, &fakeAdverse{}, &fakeLiterature{}, &fakeExposure{})
	d.ItemStore.(*fakeItemStore).putErr = errors.New("connection refused")

	resp, err := Process(ctx, d, []string{"aspirin", "warfarin"}, Options{})
	require.Error(t, err)
	assert.Nil(t, resp)
	assert.True(t, apperr.Is(err, apperr.KindInternal))
}

func TestProcessSurfacesPairCacheWriteFailure(t *testing.T) {
	ctx := context.Background()
	d := testDeps(t, ctx, &fakeRxNorm{}, &fakeSupplement{}, &fakeLabel{}, &fakeAdverse{}, &fakeLiterature{}, &fakeExposure{})
	d.PairStore.(*fakePairStore).putErr = errors.New("connection refused")

	resp, err := Process(ctx, d, []string{"aspirin", "warfarin"}, Options{})
	require.Error(t, err)
	assert.Nil(t, resp)
	assert.True(t, apperr.Is(err, apperr.KindInternal))
}

func TestResolveItemFromCacheRefreshesOnlyStaleNegativeField(t *testing.T) {
	ctx := context.Background()
	var rxnormCalled, supplementCalled bool
	rxnorm := &fakeRxNorm{
		lookup: func(name string) (string, error) { rxnormCalled = true; return "RX-999", nil },
	}
	supplement := &fakeSupplement{
		enabled: true,
		lookup:  func(name string) (string, error) { supplementCalled = true; return "SUP-999", nil },
	}
	d := testDeps(t, ctx, rxnorm, supplement, &fakeLabel{}, &fakeAdverse{}, &fakeLiterature{}, &fakeExposure{})

	store := d.ItemStore.(*fakeItemStore)
	store.entries["aspirin"] = cache.ItemRecord{
		Normalized:        "aspirin",
		RxCUI:              "",
		RxCUIUpdated:       time.Now().Add(-48 * time.Hour),
		SupplementID:       "SUP-111",
		SupplementUpdated:  time.Now(),
		LabelIdentifier:    "label-111",
		LabelWarnings:      []string{"avoid alcohol"},
		LabelUpdated:       time.Now(),
		UpdatedAt:          time.Now(),
	}

	res := resolveItem(ctx, d, domain.NormalizedItem{Original: "aspirin", Normalized: "aspirin"},
		Options{}, &CacheStats{}, newStatusTrace(), newCacheErrorSink())

	assert.True(t, rxnormCalled, "a stale-negative RxCUI field must be refetched")
	assert.False(t, supplementCalled, "a fresh, non-negative supplement field must not be refetched")
	assert.Equal(t, "RX-999", res.RxCUI)
	assert.Equal(t, "SUP-111", res.SupplementID, "the fresh cached field must survive a partial refresh")
	require.NotNil(t, res.LabelRecord)
	assert.Equal(t, "label-111", res.LabelRecord.Identifier)

	written := store.entries["aspirin"]
	assert.Equal(t, "RX-999", written.RxCUI)
	assert.Equal(t, "SUP-111", written.SupplementID, "the write-back must not erase the untouched field")
	assert.Equal(t, "label-111", written.LabelIdentifier)
}

func TestProcessThreeItemsOneTriple(t *testing.T) {
	ctx := context.Background()
	d := testDeps(t, ctx, &fakeRxNorm{}, &fakeSupplement{}, &fakeLabel{}, &fakeAdverse{}, &fakeLiterature{}, &fakeExposure{})

	resp, err := Process(ctx, d, []string{"aspirin", "warfarin", "ibuprofen"}, Options{})
	require.NoError(t, err)
	assert.Len(t, resp.Results.Pairs, 3)
	assert.Len(t, resp.Results.Triples, 1)
	assert.Len(t, resp.Results.Singles, 3)
}
