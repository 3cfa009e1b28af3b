package supabase

import (
	"context"
	"encoding/json"
	"time"

	"interactions-backend/internal/apperr"
	"interactions-backend/internal/cache"
	"interactions-backend/internal/domain"
)

// pairRow is the wire shape of a pair_cache row.
type pairRow struct {
	PairKey     string            `json:"pair_key"`
	AValue      string            `json:"a_value"`
	BValue      string            `json:"b_value"`
	Report      domain.PairReport `json:"report"`
	SourcesHash string            `json:"sources_hash"`
	CalcVersion string            `json:"calc_version"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

// PairStore implements cache.PairStore against pair_cache, scoped to a
// fixed calcVersion (spec §4.5: reads with a version mismatch are
// invisible).
type PairStore struct {
	stores      *Stores
	calcVersion string
}

// NewPairStore builds a PairStore pinned to calcVersion.
func NewPairStore(stores *Stores, calcVersion string) *PairStore {
	return &PairStore{stores: stores, calcVersion: calcVersion}
}

// Get reads the cached report for pairKey, invisible unless its stored
// calcVersion matches. forceRefresh always reports a miss.
func (s *PairStore) Get(ctx context.Context, pairKey string, forceRefresh bool) (*cache.PairRecord, bool, error) {
	if forceRefresh {
		return nil, false, nil
	}

	var rows []pairRow
	_, err := s.stores.client.From(PairTable).
		Select("*", "", false).
		Eq("pair_key", pairKey).
		Eq("calc_version", s.calcVersion).
		Limit(1, "").
		ExecuteTo(&rows)
	if err != nil {
		return nil, false, transportErr("cache.PairStore.Get", err)
	}
	if len(rows) == 0 {
		return nil, false, nil
	}

	row := rows[0]
	rec := &cache.PairRecord{
		PairKey:     row.PairKey,
		AValue:      row.AValue,
		BValue:      row.BValue,
		Report:      row.Report,
		SourcesHash: row.SourcesHash,
		CalcVersion: row.CalcVersion,
		UpdatedAt:   row.UpdatedAt,
	}
	return rec, true, nil
}

// Put upserts the report for record.PairKey under the store's pinned
// calcVersion.
func (s *PairStore) Put(ctx context.Context, record cache.PairRecord) error {
	record.CalcVersion = s.calcVersion
	row := pairRow{
		PairKey:     record.PairKey,
		AValue:      record.AValue,
		BValue:      record.BValue,
		Report:      record.Report,
		SourcesHash: record.SourcesHash,
		CalcVersion: record.CalcVersion,
		UpdatedAt:   record.UpdatedAt,
	}
	payload, err := json.Marshal(row)
	if err != nil {
		return apperr.Internal("PAIR_ROW_MARSHAL", err.Error()).WithCause(err).Build()
	}

	_, _, err = s.stores.client.From(PairTable).
		Upsert(json.RawMessage(payload), "pair_key,calc_version", "", "").
		Execute()
	if err != nil {
		return transportErr("cache.PairStore.Put", err)
	}
	return nil
}
