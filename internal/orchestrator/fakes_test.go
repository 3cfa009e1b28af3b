package orchestrator

import (
	"context"

	"interactions-backend/internal/cache"
	"interactions-backend/internal/providers"
)

// fakeRxNorm, fakeSupplement, etc. are minimal interface-satisfying test
// doubles for the orchestrator's narrowed provider interfaces. Every call
// is recorded so tests can assert on attempted/skipped behavior.

type fakeRxNorm struct {
	lookup       func(name string) (string, error)
	interactions func(idA, idB string) (*providers.InteractionResult, error)
}

func (f *fakeRxNorm) Lookup(_ context.Context, name string) (string, error) {
	if f.lookup == nil {
		return "", nil
	}
	return f.lookup(name)
}

func (f *fakeRxNorm) Interactions(_ context.Context, idA, idB string) (*providers.InteractionResult, error) {
	if f.interactions == nil {
		return nil, nil
	}
	return f.interactions(idA, idB)
}

type fakeSupplement struct {
	enabled      bool
	lookup       func(name string) (string, error)
	interactions func(names, ids []string) ([]providers.SupplementInteraction, error)
}

func (f *fakeSupplement) Enabled() bool { return f.enabled }

func (f *fakeSupplement) Lookup(_ context.Context, name string) (string, error) {
	if f.lookup == nil {
		return "", nil
	}
	return f.lookup(name)
}

func (f *fakeSupplement) Interactions(_ context.Context, names, ids []string) ([]providers.SupplementInteraction, error) {
	if f.interactions == nil {
		return nil, nil
	}
	return f.interactions(names, ids)
}

type fakeLabel struct {
	fetch func(name, identifier string) (*providers.LabelRecord, error)
}

func (f *fakeLabel) Fetch(_ context.Context, name, identifier string) (*providers.LabelRecord, error) {
	if f.fetch == nil {
		return nil, nil
	}
	return f.fetch(name, identifier)
}

type fakeAdverse struct {
	pair   func(a, b string) (*providers.AdverseEventCounts, error)
	single func(name string) (*providers.AdverseEventCounts, error)
}

func (f *fakeAdverse) Pair(_ context.Context, a, b string) (*providers.AdverseEventCounts, error) {
	if f.pair == nil {
		return nil, nil
	}
	return f.pair(a, b)
}

func (f *fakeAdverse) Single(_ context.Context, name string) (*providers.AdverseEventCounts, error) {
	if f.single == nil {
		return nil, nil
	}
	return f.single(name)
}

type fakeLiterature struct {
	enabled  bool
	evaluate func(a, b string) (*providers.LiteratureEvidence, error)
}

func (f *fakeLiterature) Enabled() bool { return f.enabled }

func (f *fakeLiterature) Evaluate(_ context.Context, a, b string) (*providers.LiteratureEvidence, error) {
	if f.evaluate == nil {
		return nil, nil
	}
	return f.evaluate(a, b)
}

type fakeExposure struct {
	fetch func(name string) (*providers.ExposureData, error)
}

func (f *fakeExposure) Fetch(_ context.Context, name string) (*providers.ExposureData, error) {
	if f.fetch == nil {
		return nil, nil
	}
	return f.fetch(name)
}

// fakeItemStore, fakePairStore, and fakeExposureStore are in-memory
// implementations that always miss unless primed, so tests exercise the
// provider fan-out path by default.

type fakeItemStore struct {
	entries map[string]cache.ItemRecord
	putErr  error
}

func newFakeItemStore() *fakeItemStore { return &fakeItemStore{entries: map[string]cache.ItemRecord{}} }

func (s *fakeItemStore) Get(_ context.Context, normalized string, forceRefresh bool) (*cache.ItemRecord, bool, error) {
	if forceRefresh {
		return nil, false, nil
	}
	rec, ok := s.entries[normalized]
	if !ok {
		return nil, false, nil
	}
	return &rec, true, nil
}

func (s *fakeItemStore) Put(_ context.Context, record cache.ItemRecord) error {
	if s.putErr != nil {
		return s.putErr
	}
	s.entries[record.Normalized] = record
	return nil
}

type fakePairStore struct {
	entries map[string]cache.PairRecord
	putErr  error
}

func newFakePairStore() *fakePairStore { return &fakePairStore{entries: map[string]cache.PairRecord{}} }

func (s *fakePairStore) Get(_ context.Context, pairKey string, forceRefresh bool) (*cache.PairRecord, bool, error) {
	if forceRefresh {
		return nil, false, nil
	}
	rec, ok := s.entries[pairKey]
	if !ok {
		return nil, false, nil
	}
	return &rec, true, nil
}

func (s *fakePairStore) Put(_ context.Context, record cache.PairRecord) error {
	if s.putErr != nil {
		return s.putErr
	}
	s.entries[record.PairKey] = record
	return nil
}

type fakeExposureStore struct {
	entries map[string]cache.ExposureRecord
}

func newFakeExposureStore() *fakeExposureStore {
	return &fakeExposureStore{entries: map[string]cache.ExposureRecord{}}
}

func (s *fakeExposureStore) Get(_ context.Context, normalized string, forceRefresh bool) (*cache.ExposureRecord, bool, error) {
	if forceRefresh {
		return nil, false, nil
	}
	rec, ok := s.entries[normalized]
	if !ok {
		return nil, false, nil
	}
	return &rec, true, nil
}

func (s *fakeExposureStore) Put(_ context.Context, record cache.ExposureRecord) error {
	s.entries[record.Normalized] = record
	return nil
}
