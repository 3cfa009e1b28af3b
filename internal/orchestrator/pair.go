package orchestrator

import (
	"context"
	"crypto/sha256"
	"fmt"
	"sort"
	"sync"
	"time"

	"interactions-backend/internal/cache"
	"interactions-backend/internal/confidence"
	"interactions-backend/internal/consensus"
	"interactions-backend/internal/domain"
	"interactions-backend/internal/merge"
	"interactions-backend/internal/providers"
	"interactions-backend/internal/standardize"
)

// resolvePair implements spec §4.10 step 3, run inside one pair limiter
// slot.
func resolvePair(ctx context.Context, d *Deps, pr domain.Pair, a, b *itemResolution, opts Options, stats *CacheStats, trace *statusTrace, errs *cacheErrorSink) domain.PairReport {
	cached, hit, err := d.PairStore.Get(ctx, pr.Key, opts.ForceRefresh)
	if err != nil {
		hit = false
	}
	stats.recordPair(hit)

	if hit {
		for _, src := range cached.Report.Sources {
			trace.record(pr.Key, providers.Status{Origin: src.Origin, Attempted: true, OK: true, Cached: true})
		}
		return cached.Report
	}

	return resolvePairFromProviders(ctx, d, pr, a, b, trace, errs)
}

type pairFanout struct {
	rxnorm     *providers.InteractionResult
	supplement []providers.SupplementInteraction
	adverse    *providers.AdverseEventCounts
	literature *providers.LiteratureEvidence

	primarySourcesRan int64
}

func resolvePairFromProviders(ctx context.Context, d *Deps, pr domain.Pair, a, b *itemResolution, trace *statusTrace, errs *cacheErrorSink) domain.PairReport {
	var fan pairFanout
	var wg sync.WaitGroup

	if a.RxCUI == "" || b.RxCUI == "" {
		trace.record(pr.Key, providers.NotAttempted(domain.OriginRxNormInteractions))
	} else {
		wg.Add(1)
		go func() {
			defer wg.Done()
			start := time.Now()
			res, err := d.RxNorm.Interactions(ctx, a.RxCUI, b.RxCUI)
			trace.record(pr.Key, providers.Status{
				Origin: domain.OriginRxNormInteractions, Attempted: true, OK: err == nil,
				ElapsedMs: elapsedMs(start), Error: errString(err),
			})
			if err == nil {
				atomicAdd(&fan.primarySourcesRan, 1)
				fan.rxnorm = res
			}
		}()
	}

	if !d.Supplement.Enabled() || a.SupplementID == "" || b.SupplementID == "" {
		if d.Supplement.Enabled() {
			trace.record(pr.Key, providers.NotAttempted(domain.OriginSupplementInteractions))
		}
	} else {
		wg.Add(1)
		go func() {
			defer wg.Done()
			start := time.Now()
			res, err := d.Supplement.Interactions(ctx, []string{a.Item.Normalized, b.Item.Normalized}, []string{a.SupplementID, b.SupplementID})
			trace.record(pr.Key, providers.Status{
				Origin: domain.OriginSupplementInteractions, Attempted: true, OK: err == nil,
				ElapsedMs: elapsedMs(start), Error: errString(err),
			})
			if err == nil {
				atomicAdd(&fan.primarySourcesRan, 1)
				fan.supplement = res
			}
		}()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		start := time.Now()
		res, err := d.Adverse.Pair(ctx, a.Item.Normalized, b.Item.Normalized)
		trace.record(pr.Key, providers.Status{
			Origin: domain.OriginPairAdverseEvents, Attempted: true, OK: err == nil,
			ElapsedMs: elapsedMs(start), Error: errString(err),
		})
		if err == nil {
			atomicAdd(&fan.primarySourcesRan, 1)
			fan.adverse = res
		}
	}()

	if d.Literature.Enabled() {
		wg.Add(1)
		go func() {
			defer wg.Done()
			start := time.Now()
			res, err := d.Literature.Evaluate(ctx, a.Item.Normalized, b.Item.Normalized)
			trace.record(pr.Key, providers.Status{
				Origin: domain.OriginLiteratureAI, Attempted: true, OK: err == nil,
				ElapsedMs: elapsedMs(start), Error: errString(err),
			})
			if err == nil {
				fan.literature = res
			}
		}()
	}

	wg.Wait()

	report := buildPairReport(pr, a, b, fan)
	writePairCache(ctx, d, pr, report, errs)
	return report
}

// buildPairReport standardizes the fanout results, merges them, and runs
// the consensus and confidence engines, per spec §4.6-4.9.
func buildPairReport(pr domain.Pair, a, b *itemResolution, fan pairFanout) domain.PairReport {
	now := time.Now()
	var raw []domain.EvidenceRecord

	if fan.rxnorm != nil {
		raw = append(raw, standardize.RxNormInteraction(fan.rxnorm, now))
	}
	for i := range fan.supplement {
		raw = append(raw, standardize.SupplementInteraction(&fan.supplement[i], now))
	}
	if fan.adverse != nil {
		raw = append(raw, standardize.PairAdverseEvents(adverseInput(a, b, fan.adverse), now))
	}
	if a.LabelRecord != nil {
		raw = append(raw, standardize.LabelWarnings(a.LabelRecord, now))
	}
	if b.LabelRecord != nil {
		raw = append(raw, standardize.LabelWarnings(b.LabelRecord, now))
	}
	if fan.literature != nil {
		raw = append(raw, standardize.LiteratureAI(fan.literature, now))
	}

	merged := merge.ByOrigin(raw)
	primaryRan := int(fan.primarySourcesRan)

	severity := consensus.Resolve(merged)
	if len(merged) == 0 && primaryRan > 0 {
		severity = domain.SeverityNone
	}
	confidenceVal := confidence.Aggregate(merged, primaryRan)

	return domain.PairReport{
		AOriginal:  a.Item.Original,
		BOriginal:  b.Item.Original,
		Severity:   severity,
		Confidence: confidenceVal,
		Sources:    merged,
		Summary:    pairSummary(merged, primaryRan),
		KeyNotes:   keyNotesFrom(merged),
	}
}

// adverseInput derives the denominator for a pair's adverse-event record:
// the smaller of the two items' beneficiary counts when both are known
// (spec's min-of-pair denominator method).
func adverseInput(a, b *itemResolution, counts *providers.AdverseEventCounts) standardize.AdverseEventsInput {
	in := standardize.AdverseEventsInput{Counts: counts}
	if a.ExposureKnown && b.ExposureKnown {
		in.DenominatorKnown = true
		in.DenominatorMethod = domain.DenominatorMinOfPair
		in.Beneficiaries = a.Beneficiaries
		if b.Beneficiaries < in.Beneficiaries {
			in.Beneficiaries = b.Beneficiaries
		}
	}
	return in
}

// pairSummary implements the three-way summary rule of spec §4.10's
// user-visible behavior note.
func pairSummary(merged []domain.EvidenceRecord, primaryRan int) string {
	if primaryRan == 0 {
		return "Limited evidence available: no primary source returned a result."
	}
	if len(merged) == 0 {
		return "No significant interactions found among the queried sources."
	}

	best := merged[0]
	for _, r := range merged[1:] {
		if r.Severity.Rank() > best.Severity.Rank() ||
			(r.Severity.Rank() == best.Severity.Rank() && len(r.Summary) > len(best.Summary)) {
			best = r
		}
	}
	if best.Summary != "" {
		return best.Summary
	}
	return "No significant interactions found among the queried sources."
}

// keyNotesFrom surfaces up to domain.MaxKeyNotes short highlights, one per
// merged source, ordered by severity (most severe first) — shared by
// single, pair, and triple reports.
func keyNotesFrom(merged []domain.EvidenceRecord) []string {
	ordered := append([]domain.EvidenceRecord(nil), merged...)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Severity.Rank() > ordered[j].Severity.Rank()
	})

	var notes []string
	for _, r := range ordered {
		if r.Severity == domain.SeverityUnknown {
			continue
		}
		notes = append(notes, fmt.Sprintf("%s: %s", r.Origin, r.Severity))
		if len(notes) == domain.MaxKeyNotes {
			break
		}
	}
	return notes
}

func writePairCache(ctx context.Context, d *Deps, pr domain.Pair, report domain.PairReport, errs *cacheErrorSink) {
	record := cache.PairRecord{
		PairKey:     pr.Key,
		AValue:      pr.A.Normalized,
		BValue:      pr.B.Normalized,
		Report:      report,
		SourcesHash: hashSources(report.Sources),
		UpdatedAt:   time.Now(),
	}
	// Cache-write failures on the pair store are accumulated in errs and
	// surfaced to the caller as apperr.Internal once the in-memory
	// response has been fully computed (spec §7).
	errs.add(d.PairStore.Put(ctx, record))
}

// hashSources fingerprints a merged source list for change detection.
func hashSources(sources []domain.EvidenceRecord) string {
	h := sha256.New()
	for _, s := range sources {
		fmt.Fprintf(h, "%s:%s:%.4f|", s.Origin, s.Severity, s.Confidence)
	}
	return fmt.Sprintf("%x", h.Sum(nil))
}
