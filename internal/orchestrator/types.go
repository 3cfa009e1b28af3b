// Package orchestrator composes normalization, providers, caching,
// standardization, merging, consensus, and confidence into the
// end-to-end per-request pipeline (spec §4.10).
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"interactions-backend/internal/apperr"
	"interactions-backend/internal/cache"
	"interactions-backend/internal/concurrency"
	"interactions-backend/internal/config"
	"interactions-backend/internal/domain"
	"interactions-backend/internal/providers"
	"interactions-backend/internal/providers/label"
)

// RxNormProvider is the subset of *providers.RxNorm the orchestrator
// drives, narrowed to an interface so tests can substitute fakes.
type RxNormProvider interface {
	Lookup(ctx context.Context, canonicalName string) (string, error)
	Interactions(ctx context.Context, idA, idB string) (*providers.InteractionResult, error)
}

// SupplementProvider is the subset of *providers.Supplement the
// orchestrator drives.
type SupplementProvider interface {
	Enabled() bool
	Lookup(ctx context.Context, canonicalName string) (string, error)
	Interactions(ctx context.Context, canonicalNames, ids []string) ([]providers.SupplementInteraction, error)
}

// LabelProvider is the subset of *providers.Label the orchestrator drives.
type LabelProvider interface {
	Fetch(ctx context.Context, canonicalName, identifier string) (*providers.LabelRecord, error)
}

// AdverseEventsProvider is the subset of *providers.AdverseEvents the
// orchestrator drives.
type AdverseEventsProvider interface {
	Pair(ctx context.Context, nameA, nameB string) (*providers.AdverseEventCounts, error)
	Single(ctx context.Context, name string) (*providers.AdverseEventCounts, error)
}

// LiteratureProvider is the subset of *providers.Literature the
// orchestrator drives.
type LiteratureProvider interface {
	Enabled() bool
	Evaluate(ctx context.Context, nameA, nameB string) (*providers.LiteratureEvidence, error)
}

// ExposureProvider is the subset of *providers.Exposure the orchestrator
// drives.
type ExposureProvider interface {
	Fetch(ctx context.Context, canonicalName string) (*providers.ExposureData, error)
}

// Deps bundles every collaborator the orchestrator drives. Constructing
// it is the wiring seam between cmd/server and the pipeline itself.
type Deps struct {
	Config *config.Config

	RxNorm     RxNormProvider
	Supplement SupplementProvider
	Label      LabelProvider
	Adverse    AdverseEventsProvider
	Literature LiteratureProvider
	Exposure   ExposureProvider

	ItemStore     cache.ItemStore
	PairStore     cache.PairStore
	ExposureStore cache.ExposureStore

	UpstreamLimiter *concurrency.Limiter
	PairLimiter     *concurrency.Limiter
}

// New constructs the provider and limiter graph for a process from cfg,
// sharing one http.Client across every provider adapter the way the
// teacher shares one SDK client across its repositories. labelMatcher may
// be nil to use the default NSAID block-list policy with no hot reload.
func New(ctx context.Context, cfg *config.Config, itemStore cache.ItemStore, pairStore cache.PairStore, exposureStore cache.ExposureStore, labelMatcher *label.Matcher, rxnormBaseURL, supplementBaseURL, labelBaseURL, adverseBaseURL, literatureBaseURL, exposureBaseURL string) *Deps {
	doer := &http.Client{}
	return &Deps{
		Config:        cfg,
		RxNorm:        providers.NewRxNorm(rxnormBaseURL, doer),
		Supplement:    providers.NewSupplement(supplementBaseURL, cfg.SupplementAPIKey, doer),
		Label:         providers.NewLabel(labelBaseURL, doer, labelMatcher),
		Adverse:       providers.NewAdverseEvents(adverseBaseURL, doer),
		Literature:    providers.NewLiterature(literatureBaseURL, cfg.LiteratureAPIKey, doer),
		Exposure:      providers.NewExposure(exposureBaseURL, doer),
		ItemStore:     itemStore,
		PairStore:     pairStore,
		ExposureStore: exposureStore,

		UpstreamLimiter: concurrency.New(ctx, "upstream", cfg.UpstreamConcurrency),
		PairLimiter:     concurrency.New(ctx, "pair", cfg.PairConcurrency),
	}
}

// Options configures one Process call.
type Options struct {
	ForceRefresh bool
	Debug        bool
}

// CacheStats tallies hit/miss counts per cache family for one request.
type CacheStats struct {
	MedLookupHits    int64 `json:"medLookupHits"`
	MedLookupMisses  int64 `json:"medLookupMisses"`
	PairCacheHits    int64 `json:"pairCacheHits"`
	PairCacheMisses  int64 `json:"pairCacheMisses"`
	CMSCacheHits     int64 `json:"cmsCacheHits"`
	CMSCacheMisses   int64 `json:"cmsCacheMisses"`
}

func (c *CacheStats) recordMedLookup(hit bool) {
	if hit {
		atomicAdd(&c.MedLookupHits, 1)
	} else {
		atomicAdd(&c.MedLookupMisses, 1)
	}
}

func (c *CacheStats) recordPair(hit bool) {
	if hit {
		atomicAdd(&c.PairCacheHits, 1)
	} else {
		atomicAdd(&c.PairCacheMisses, 1)
	}
}

func (c *CacheStats) recordCMS(hit bool) {
	if hit {
		atomicAdd(&c.CMSCacheHits, 1)
	} else {
		atomicAdd(&c.CMSCacheMisses, 1)
	}
}

// Timing reports the wall-clock breakdown of one request.
type Timing struct {
	TotalMs            int64 `json:"totalMs"`
	LookupMs           int64 `json:"lookupMs"`
	PairProcessingMs   int64 `json:"pairProcessingMs"`
	TripleProcessingMs int64 `json:"tripleProcessingMs"`
}

// Meta carries the non-report metadata of a response.
type Meta struct {
	CalcVersion string     `json:"calcVersion"`
	CacheStats  CacheStats `json:"cacheStats"`
	Timing      Timing     `json:"timing"`
}

// Results bundles the three report families.
type Results struct {
	Singles []domain.SingleReport `json:"singles"`
	Pairs   []domain.PairReport   `json:"pairs"`
	Triples []domain.TripleReport `json:"triples"`
}

// Debug is the optional provider-status trace, present only when Options.Debug
// is set (spec §4.10's observability contract).
type Debug struct {
	ProviderStatuses map[string][]providers.Status `json:"providerStatuses"`
	RxCUIResolutions map[string]string             `json:"rxcuiResolutions,omitempty"`
}

// Response is the full shape returned by Process.
type Response struct {
	Items   []domain.NormalizedItem `json:"items"`
	Results Results                 `json:"results"`
	Meta    Meta                    `json:"meta"`
	Debug   *Debug                  `json:"debug,omitempty"`
}

// statusTrace accumulates per-origin provider statuses across a request,
// keyed by a caller-chosen scope label (an item's normalized name or a
// pair key) so the debug payload can attribute each status.
type statusTrace struct {
	mu   sync.Mutex
	byScope map[string][]providers.Status
}

func newStatusTrace() *statusTrace {
	return &statusTrace{byScope: make(map[string][]providers.Status)}
}

func (t *statusTrace) record(scope string, status providers.Status) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.byScope[scope] = append(t.byScope[scope], status)
}

func (t *statusTrace) snapshot() map[string][]providers.Status {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make(map[string][]providers.Status, len(t.byScope))
	for k, v := range t.byScope {
		out[k] = append([]providers.Status(nil), v...)
	}
	return out
}

func elapsedMs(start time.Time) int64 {
	return time.Since(start).Milliseconds()
}

// cacheErrorSink accumulates cache-write failures across a request so they
// can be surfaced once, after the in-memory response has been fully
// computed, per spec §7's cache-failure propagation policy.
type cacheErrorSink struct {
	mu   sync.Mutex
	errs []error
}

func newCacheErrorSink() *cacheErrorSink {
	return &cacheErrorSink{}
}

func (s *cacheErrorSink) add(err error) {
	if err == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errs = append(s.errs, err)
}

// err returns a single apperr.Internal wrapping every accumulated failure,
// or nil if none occurred.
func (s *cacheErrorSink) err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.errs) == 0 {
		return nil
	}
	return apperr.Internal("CACHE_WRITE_FAILED", fmt.Sprintf("%d cache write(s) failed", len(s.errs))).
		WithCause(errors.Join(s.errs...)).Build()
}
