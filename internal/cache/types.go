// Package cache defines the keyed store abstractions consulted and
// populated by the orchestrator: item identifiers, pair reports, and
// exposure (beneficiary count) data.
package cache

import (
	"context"
	"time"

	"interactions-backend/internal/domain"
)

// NegativeEntryMaxAge is the staleness window for a negative item-store
// field (an absent identifier) past which a read is treated as a partial
// miss requiring re-fetch for exactly that field (spec §4.5).
const NegativeEntryMaxAge = 24 * time.Hour

// ItemRecord is the cached per-item composite entry: identifiers from
// each authority (empty string means "looked up, not found" — a negative
// entry) and label warnings. Exposure data is cached separately in
// ExposureRecord.
type ItemRecord struct {
	Normalized        string
	RxCUI             string
	RxCUIUpdated      time.Time
	SupplementID      string
	SupplementUpdated time.Time
	LabelWarnings     []string
	LabelIdentifier   string
	LabelUpdated      time.Time
	UpdatedAt         time.Time
}

// RxCUINegativeStale reports whether a negative (absent) RxCUI field has
// aged past the negative-entry window and must be re-fetched.
func (r ItemRecord) RxCUINegativeStale(now time.Time) bool {
	return r.RxCUI == "" && now.Sub(r.RxCUIUpdated) > NegativeEntryMaxAge
}

// SupplementNegativeStale reports whether a negative (absent) supplement
// identifier field has aged past the negative-entry window.
func (r ItemRecord) SupplementNegativeStale(now time.Time) bool {
	return r.SupplementID == "" && now.Sub(r.SupplementUpdated) > NegativeEntryMaxAge
}

// ItemStore persists ItemRecord by normalized name.
type ItemStore interface {
	Get(ctx context.Context, normalized string, forceRefresh bool) (*ItemRecord, bool, error)
	Put(ctx context.Context, record ItemRecord) error
}

// PairRecord is the cached per-pair composite entry, scoped to the
// calcVersion it was computed under.
type PairRecord struct {
	PairKey     string
	AValue      string
	BValue      string
	Report      domain.PairReport
	SourcesHash string
	CalcVersion string
	UpdatedAt   time.Time
}

// PairStore persists PairRecord by pair key, scoped to calcVersion: reads
// for a different calcVersion than the one the store was built for are
// invisible (spec §4.5).
type PairStore interface {
	Get(ctx context.Context, pairKey string, forceRefresh bool) (*PairRecord, bool, error)
	Put(ctx context.Context, record PairRecord) error
}

// ExposureRecord is the cached beneficiary-count entry for a normalized
// item, sourced from an external claims/exposure dataset.
type ExposureRecord struct {
	Normalized    string
	Beneficiaries int
	Year          int
	SourceMeta    map[string]any
	UpdatedAt     time.Time
}

// ExposureStore persists ExposureRecord by normalized name.
type ExposureStore interface {
	Get(ctx context.Context, normalized string, forceRefresh bool) (*ExposureRecord, bool, error)
	Put(ctx context.Context, record ExposureRecord) error
}
