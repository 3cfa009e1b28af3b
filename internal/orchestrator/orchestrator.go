package orchestrator

import (
	"context"
	"time"

	"interactions-backend/internal/config"
	"interactions-backend/internal/domain"
	"interactions-backend/internal/normalize"
)

// Process runs the full per-request pipeline of spec §4.10: normalize,
// resolve items, resolve pairs, resolve singles, resolve triples, and
// assemble the response.
func Process(ctx context.Context, d *Deps, originals []string, opts Options) (*Response, error) {
	start := time.Now()
	stats := &CacheStats{}
	trace := newStatusTrace()
	errs := newCacheErrorSink()

	items, err := normalize.Items(originals)
	if err != nil {
		return nil, err
	}

	pairs := normalize.Pairs(items)
	triples := normalize.Triples(items)

	lookupStart := time.Now()
	itemResults := runBounded(ctx, d.UpstreamLimiter, items, func(ctx context.Context, item domain.NormalizedItem) *itemResolution {
		return resolveItem(ctx, d, item, opts, stats, trace, errs)
	})
	lookupMs := elapsedMs(lookupStart)

	byNormalized := make(map[string]*itemResolution, len(itemResults))
	for _, r := range itemResults {
		byNormalized[r.Item.Normalized] = r
	}

	pairStart := time.Now()
	pairOutcomes := runBounded(ctx, d.PairLimiter, pairs, func(ctx context.Context, pr domain.Pair) pairOutcome {
		a := byNormalized[pr.A.Normalized]
		b := byNormalized[pr.B.Normalized]
		return pairOutcome{key: pr.Key, report: resolvePair(ctx, d, pr, a, b, opts, stats, trace, errs)}
	})
	pairMs := elapsedMs(pairStart)

	pairByKey := make(map[string]domain.PairReport, len(pairOutcomes))
	pairList := make([]domain.PairReport, len(pairOutcomes))
	for i, o := range pairOutcomes {
		pairByKey[o.key] = o.report
		pairList[i] = o.report
	}

	singles := runBounded(ctx, d.UpstreamLimiter, itemResults, func(ctx context.Context, r *itemResolution) domain.SingleReport {
		return resolveSingle(ctx, d, r, trace)
	})

	tripleStart := time.Now()
	tripleList := make([]domain.TripleReport, 0, len(triples))
	for _, t := range triples {
		tripleList = append(tripleList, resolveTriple(t, normalize.PairKey, pairByKey))
	}
	tripleMs := elapsedMs(tripleStart)

	resp := &Response{
		Items: items,
		Results: Results{
			Singles: singles,
			Pairs:   pairList,
			Triples: tripleList,
		},
		Meta: Meta{
			CalcVersion: config.CalcVersion,
			CacheStats:  *stats,
			Timing: Timing{
				TotalMs:            elapsedMs(start),
				LookupMs:           lookupMs,
				PairProcessingMs:   pairMs,
				TripleProcessingMs: tripleMs,
			},
		},
	}
	if opts.Debug {
		resp.Debug = &Debug{
			ProviderStatuses: trace.snapshot(),
			RxCUIResolutions: rxcuiResolutions(itemResults),
		}
	}

	// Cache-write failures on the item or pair stores are surfaced as
	// apperr.Internal to the caller only now, after the in-memory response
	// above has been fully computed (spec §7). A future revision may
	// demote these to warnings and return resp alongside the error instead
	// of discarding it.
	if err := errs.err(); err != nil {
		return nil, err
	}
	return resp, nil
}

// pairOutcome carries a pair's key alongside its report through
// runBounded, since the pair limiter fans out by domain.Pair rather than
// by key directly.
type pairOutcome struct {
	key    string
	report domain.PairReport
}

func rxcuiResolutions(results []*itemResolution) map[string]string {
	out := make(map[string]string, len(results))
	for _, r := range results {
		if r.RxCUI != "" {
			out[r.Item.Normalized] = r.RxCUI
		}
	}
	return out
}
