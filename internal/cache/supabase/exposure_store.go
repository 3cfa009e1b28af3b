package supabase

import (
	"context"
	"encoding/json"
	"time"

	"interactions-backend/internal/apperr"
	"interactions-backend/internal/cache"
)

// exposureRow is the wire shape of an exposure_cache row.
type exposureRow struct {
	Normalized    string         `json:"normalized"`
	Beneficiaries int            `json:"beneficiaries"`
	Year          int            `json:"year"`
	SourceMeta    map[string]any `json:"source_meta"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

// ExposureStore implements cache.ExposureStore against exposure_cache.
type ExposureStore struct {
	stores *Stores
}

// NewExposureStore builds an ExposureStore sharing stores' underlying
// client.
func NewExposureStore(stores *Stores) *ExposureStore {
	return &ExposureStore{stores: stores}
}

// Get reads the cached exposure entry for normalized. forceRefresh always
// reports a miss.
func (s *ExposureStore) Get(ctx context.Context, normalized string, forceRefresh bool) (*cache.ExposureRecord, bool, error) {
	if forceRefresh {
		return nil, false, nil
	}

	var rows []exposureRow
	_, err := s.stores.client.From(ExposureTable).
		Select("*", "", false).
		Eq("normalized", normalized).
		Limit(1, "").
		ExecuteTo(&rows)
	if err != nil {
		return nil, false, transportErr("cache.ExposureStore.Get", err)
	}
	if len(rows) == 0 {
		return nil, false, nil
	}

	row := rows[0]
	return &cache.ExposureRecord{
		Normalized:    row.Normalized,
		Beneficiaries: row.Beneficiaries,
		Year:          row.Year,
		SourceMeta:    row.SourceMeta,
		UpdatedAt:     row.UpdatedAt,
	}, true, nil
}

// Put upserts the exposure entry for record.Normalized.
func (s *ExposureStore) Put(ctx context.Context, record cache.ExposureRecord) error {
	row := exposureRow{
		Normalized:    record.Normalized,
		Beneficiaries: record.Beneficiaries,
		Year:          record.Year,
		SourceMeta:    record.SourceMeta,
		UpdatedAt:     record.UpdatedAt,
	}
	payload, err := json.Marshal(row)
	if err != nil {
		return apperr.Internal("EXPOSURE_ROW_MARSHAL", err.Error()).WithCause(err).Build()
	}

	_, _, err = s.stores.client.From(ExposureTable).
		Upsert(json.RawMessage(payload), "normalized", "", "").
		Execute()
	if err != nil {
		return transportErr("cache.ExposureStore.Put", err)
	}
	return nil
}
