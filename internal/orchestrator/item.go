package orchestrator

import (
	"context"
	"sync"
	"time"

	"interactions-backend/internal/cache"
	"interactions-backend/internal/domain"
	"interactions-backend/internal/providers"
)

// itemResolution is the in-memory result of resolving one normalized item,
// whether served from cache or freshly fetched.
type itemResolution struct {
	Item          domain.NormalizedItem
	RxCUI         string
	SupplementID  string
	LabelRecord   *providers.LabelRecord
	Beneficiaries int
	ExposureKnown bool
}

// resolveItem implements spec §4.10 step 2, run inside one upstream
// limiter slot. Exposure is resolved against its own cache family
// (exposure_cache) independently of the identifier/label composite entry.
func resolveItem(ctx context.Context, d *Deps, item domain.NormalizedItem, opts Options, stats *CacheStats, trace *statusTrace, errs *cacheErrorSink) *itemResolution {
	cached, hit, err := d.ItemStore.Get(ctx, item.Normalized, opts.ForceRefresh)
	if err != nil {
		// Cache read failures degrade to a miss; the fetch path below
		// still produces a usable resolution.
		hit = false
	}
	stats.recordMedLookup(hit)

	var res *itemResolution
	if hit {
		res = resolveItemFromCache(ctx, d, item, cached, trace, errs)
	} else {
		res = resolveItemFromProviders(ctx, d, item, trace, errs)
	}

	res.Beneficiaries, res.ExposureKnown = resolveExposure(ctx, d, item.Normalized, opts, stats, trace, errs)
	return res
}

func resolveItemFromCache(ctx context.Context, d *Deps, item domain.NormalizedItem, cached *cache.ItemRecord, trace *statusTrace, errs *cacheErrorSink) *itemResolution {
	res := &itemResolution{
		Item:         item,
		RxCUI:        cached.RxCUI,
		SupplementID: cached.SupplementID,
	}
	if cached.LabelIdentifier != "" || len(cached.LabelWarnings) > 0 {
		res.LabelRecord = &providers.LabelRecord{Warnings: cached.LabelWarnings, Identifier: cached.LabelIdentifier}
	}

	trace.record(item.Normalized, providers.Status{
		Origin: domain.OriginRxNormInteractions, Attempted: true, OK: cached.RxCUI != "", Cached: true,
	})
	if d.Supplement.Enabled() {
		trace.record(item.Normalized, providers.Status{
			Origin: domain.OriginSupplementInteractions, Attempted: true, OK: cached.SupplementID != "", Cached: true,
		})
	}
	trace.record(item.Normalized, providers.Status{
		Origin: domain.OriginLabelWarnings, Attempted: true, OK: res.LabelRecord != nil, Cached: true,
	})

	now := time.Now()
	updated := false
	if cached.RxCUINegativeStale(now) {
		rxcui, err := d.RxNorm.Lookup(ctx, item.Normalized)
		if err != nil {
			trace.record(item.Normalized, providers.Status{Origin: domain.OriginRxNormInteractions, Attempted: true, Error: err.Error()})
		} else {
			res.RxCUI = rxcui
			updated = true
		}
	}
	if d.Supplement.Enabled() && cached.SupplementNegativeStale(now) {
		id, err := d.Supplement.Lookup(ctx, item.Normalized)
		if err != nil {
			trace.record(item.Normalized, providers.Status{Origin: domain.OriginSupplementInteractions, Attempted: true, Error: err.Error()})
		} else {
			res.SupplementID = id
			updated = true
		}
	}

	if updated {
		writeItemCache(ctx, d, res, errs)
	}
	return res
}

func resolveItemFromProviders(ctx context.Context, d *Deps, item domain.NormalizedItem, trace *statusTrace, errs *cacheErrorSink) *itemResolution {
	res := &itemResolution{Item: item}
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		start := time.Now()
		rxcui, err := d.RxNorm.Lookup(ctx, item.Normalized)
		trace.record(item.Normalized, providers.Status{
			Origin: domain.OriginRxNormInteractions, Attempted: true, OK: err == nil && rxcui != "",
			ElapsedMs: elapsedMs(start), Error: errString(err),
		})
		if err == nil {
			res.RxCUI = rxcui
		}
	}()

	if d.Supplement.Enabled() {
		wg.Add(1)
		go func() {
			defer wg.Done()
			start := time.Now()
			id, err := d.Supplement.Lookup(ctx, item.Normalized)
			trace.record(item.Normalized, providers.Status{
				Origin: domain.OriginSupplementInteractions, Attempted: true, OK: err == nil && id != "",
				ElapsedMs: elapsedMs(start), Error: errString(err),
			})
			if err == nil {
				res.SupplementID = id
			}
		}()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		start := time.Now()
		rec, err := d.Label.Fetch(ctx, item.Normalized, "")
		trace.record(item.Normalized, providers.Status{
			Origin: domain.OriginLabelWarnings, Attempted: true, OK: err == nil && rec != nil,
			ElapsedMs: elapsedMs(start), Error: errString(err),
		})
		if err == nil {
			res.LabelRecord = rec
		}
	}()

	wg.Wait()
	writeItemCache(ctx, d, res, errs)
	return res
}

// resolveExposure resolves the beneficiary-count denominator for
// normalized against exposure_cache, falling back to the exposure
// provider on a miss and writing the result back.
func resolveExposure(ctx context.Context, d *Deps, normalized string, opts Options, stats *CacheStats, trace *statusTrace, errs *cacheErrorSink) (int, bool) {
	cached, hit, err := d.ExposureStore.Get(ctx, normalized, opts.ForceRefresh)
	if err != nil {
		hit = false
	}
	stats.recordCMS(hit)
	if hit {
		return cached.Beneficiaries, true
	}

	start := time.Now()
	exposure, err := d.Exposure.Fetch(ctx, normalized)
	trace.record(normalized, providers.Status{
		Attempted: true, OK: err == nil, ElapsedMs: elapsedMs(start), Error: errString(err),
	})
	if err != nil || exposure == nil {
		return 0, false
	}

	errs.add(d.ExposureStore.Put(ctx, cache.ExposureRecord{
		Normalized:    normalized,
		Beneficiaries: exposure.Beneficiaries,
		Year:          exposure.Year,
		SourceMeta:    exposure.SourceMeta,
		UpdatedAt:     time.Now(),
	}))
	return exposure.Beneficiaries, true
}

func writeItemCache(ctx context.Context, d *Deps, res *itemResolution, errs *cacheErrorSink) {
	now := time.Now()
	record := cache.ItemRecord{
		Normalized:        res.Item.Normalized,
		RxCUI:             res.RxCUI,
		RxCUIUpdated:      now,
		SupplementID:      res.SupplementID,
		SupplementUpdated: now,
		UpdatedAt:         now,
	}
	if res.LabelRecord != nil {
		record.LabelWarnings = res.LabelRecord.Warnings
		record.LabelIdentifier = res.LabelRecord.Identifier
		record.LabelUpdated = now
	}
	// Cache-write failures on the item store are accumulated in errs and
	// surfaced to the caller as apperr.Internal once the in-memory
	// response has been fully computed (spec §7); this task itself does
	// not fail.
	errs.add(d.ItemStore.Put(ctx, record))
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
