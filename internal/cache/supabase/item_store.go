package supabase

import (
	"context"
	"encoding/json"
	"time"

	"interactions-backend/internal/apperr"
	"interactions-backend/internal/cache"
)

// itemRow is the wire shape of a med_lookup_cache row.
type itemRow struct {
	Normalized        string    `json:"normalized"`
	RxCUI             string    `json:"rxcui"`
	RxCUIUpdatedAt    time.Time `json:"rxcui_updated_at"`
	SupplementID      string    `json:"supplement_id"`
	SupplementUpdated time.Time `json:"supplement_updated_at"`
	LabelWarnings     []string  `json:"label_warnings"`
	LabelIdentifier   string    `json:"label_identifier"`
	LabelUpdatedAt    time.Time `json:"label_updated_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

func (r itemRow) toRecord() cache.ItemRecord {
	return cache.ItemRecord{
		Normalized:        r.Normalized,
		RxCUI:              r.RxCUI,
		RxCUIUpdated:       r.RxCUIUpdatedAt,
		SupplementID:       r.SupplementID,
		SupplementUpdated:  r.SupplementUpdated,
		LabelWarnings:      r.LabelWarnings,
		LabelIdentifier:    r.LabelIdentifier,
		LabelUpdated:       r.LabelUpdatedAt,
		UpdatedAt:          r.UpdatedAt,
	}
}

func fromItemRecord(rec cache.ItemRecord) itemRow {
	return itemRow{
		Normalized:        rec.Normalized,
		RxCUI:              rec.RxCUI,
		RxCUIUpdatedAt:     rec.RxCUIUpdated,
		SupplementID:       rec.SupplementID,
		SupplementUpdated:  rec.SupplementUpdated,
		LabelWarnings:      rec.LabelWarnings,
		LabelIdentifier:    rec.LabelIdentifier,
		LabelUpdatedAt:     rec.LabelUpdated,
		UpdatedAt:          rec.UpdatedAt,
	}
}

// ItemStore implements cache.ItemStore against med_lookup_cache.
type ItemStore struct {
	stores *Stores
}

// NewItemStore builds an ItemStore sharing stores' underlying client.
func NewItemStore(stores *Stores) *ItemStore {
	return &ItemStore{stores: stores}
}

// Get reads the cached composite entry for normalized. The entry as a
// whole is a hit whenever a row exists; a negative RxCUI or supplement-ID
// field older than cache.NegativeEntryMaxAge stays inside that hit record
// so the caller can refresh exactly that field (spec §4.5's partial miss)
// instead of the whole entry — see
// cache.ItemRecord.RxCUINegativeStale/SupplementNegativeStale and
// internal/orchestrator/item.go's resolveItemFromCache. forceRefresh
// always reports a miss.
func (s *ItemStore) Get(ctx context.Context, normalized string, forceRefresh bool) (*cache.ItemRecord, bool, error) {
	if forceRefresh {
		return nil, false, nil
	}

	var rows []itemRow
	_, err := s.stores.client.From(ItemTable).
		Select("*", "", false).
		Eq("normalized", normalized).
		Limit(1, "").
		ExecuteTo(&rows)
	if err != nil {
		return nil, false, transportErr("cache.ItemStore.Get", err)
	}
	if len(rows) == 0 {
		return nil, false, nil
	}

	rec := rows[0].toRecord()
	return &rec, true, nil
}

// Put upserts the composite entry for record.Normalized.
func (s *ItemStore) Put(ctx context.Context, record cache.ItemRecord) error {
	row := fromItemRecord(record)
	payload, err := json.Marshal(row)
	if err != nil {
		return apperr.Internal("ITEM_ROW_MARSHAL", err.Error()).WithCause(err).Build()
	}

	_, _, err = s.stores.client.From(ItemTable).
		Upsert(json.RawMessage(payload), "normalized", "", "").
		Execute()
	if err != nil {
		return transportErr("cache.ItemStore.Put", err)
	}
	return nil
}
