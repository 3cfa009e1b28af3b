package orchestrator

import (
	"context"
	"time"

	"interactions-backend/internal/confidence"
	"interactions-backend/internal/consensus"
	"interactions-backend/internal/domain"
	"interactions-backend/internal/merge"
	"interactions-backend/internal/providers"
	"interactions-backend/internal/standardize"
)

// resolveSingle implements spec §4.10 step 4: a non-blocking single-drug
// adverse-event fetch combined with the item's cached label warnings into
// one SingleReport, run through the same consensus/confidence engines as
// PairReport and TripleReport (spec.md's "SingleReport and TripleReport
// are analogous"). A failed adverse-event fetch does not fail the item.
func resolveSingle(ctx context.Context, d *Deps, res *itemResolution, trace *statusTrace) domain.SingleReport {
	now := time.Now()

	start := time.Now()
	counts, err := d.Adverse.Single(ctx, res.Item.Normalized)
	trace.record(res.Item.Normalized, providers.Status{
		Origin: domain.OriginSingleDrugAdverseEvents, Attempted: true, OK: err == nil,
		ElapsedMs: elapsedMs(start), Error: errString(err),
	})

	var raw []domain.EvidenceRecord
	primaryRan := 0
	if err == nil && counts != nil {
		in := standardize.AdverseEventsInput{Counts: counts}
		if res.ExposureKnown {
			in.DenominatorKnown = true
			in.DenominatorMethod = domain.DenominatorSingleDrugA
			in.Beneficiaries = res.Beneficiaries
		}
		raw = append(raw, standardize.SingleDrugAdverseEvents(in, now))
		primaryRan = 1
	}
	if res.LabelRecord != nil {
		raw = append(raw, standardize.LabelWarnings(res.LabelRecord, now))
	}

	merged := merge.ByOrigin(raw)
	severity := consensus.Resolve(merged)
	if len(merged) == 0 && primaryRan > 0 {
		severity = domain.SeverityNone
	}

	return domain.SingleReport{
		Original:   res.Item.Original,
		Normalized: res.Item.Normalized,
		Severity:   severity,
		Confidence: confidence.Aggregate(merged, primaryRan),
		Sources:    merged,
		Summary:    singleSummary(merged),
		KeyNotes:   keyNotesFrom(merged),
	}
}

func singleSummary(merged []domain.EvidenceRecord) string {
	if len(merged) == 0 {
		return "No significant findings among the queried sources."
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
	return "No significant findings among the queried sources."
}
