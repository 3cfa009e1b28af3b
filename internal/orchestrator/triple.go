package orchestrator

import (
	"interactions-backend/internal/confidence"
	"interactions-backend/internal/consensus"
	"interactions-backend/internal/domain"
	"interactions-backend/internal/merge"
)

// resolveTriple implements spec §4.10 step 5: the union of a triple's
// three constituent pairs' merged source lists, re-merged and re-run
// through consensus and confidence. No new upstream calls are made.
func resolveTriple(t domain.Triple, keyFn func(a, b string) string, pairReports map[string]domain.PairReport) domain.TripleReport {
	constituents := t.Pairs(keyFn)

	var union []domain.EvidenceRecord
	var primaryRan int
	for _, c := range constituents {
		report, ok := pairReports[c.Key]
		if !ok {
			continue
		}
		union = append(union, report.Sources...)
		if report.Severity != domain.SeverityUnknown {
			primaryRan++
		}
	}

	merged := merge.ByOrigin(union)
	severity := consensus.Resolve(merged)
	if len(merged) == 0 && primaryRan > 0 {
		severity = domain.SeverityNone
	}

	return domain.TripleReport{
		AOriginal:  t.A.Original,
		BOriginal:  t.B.Original,
		COriginal:  t.C.Original,
		Severity:   severity,
		Confidence: confidence.Aggregate(merged, primaryRan),
		Sources:    merged,
		Summary:    pairSummary(merged, primaryRan),
		KeyNotes:   keyNotesFrom(merged),
	}
}
