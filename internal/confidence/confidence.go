// Package confidence implements the per-source and aggregate confidence
// engine (C9): bounded additive adjustments layered on a base-confidence
// table, folded into a weighted-mean aggregate with reliability
// guardrails.
package confidence

import (
	"math"

	"interactions-backend/internal/domain"
)

// Ceiling is the hard cap confidence may never reach, per spec §4.9.
const Ceiling = 0.95

// baselineBySourceCount is the baseline applied when the merged set is
// empty but at least one primary source ran without error, keyed by the
// number of such sources (capped at 3+).
var baselineBySourceCount = map[int]float64{1: 0.30, 2: 0.50, 3: 0.70}

// Adjust applies the per-record additive adjustments of spec §4.9 to a
// single merged evidence record's base confidence, returning the
// adjusted, clamped value. It does not mutate rec.
func Adjust(rec domain.EvidenceRecord) float64 {
	c := rec.Confidence

	if rec.Stats != nil && rec.Stats.DenominatorKnown {
		c += math.Min(math.Log10(float64(rec.Stats.Beneficiaries)+1)/10, 0.15)
		if rec.Stats.EventRate > 0 && rec.Stats.SeriousEventRate > 0 {
			c += 0.05
		}
	}

	if rec.Stats != nil {
		switch {
		case rec.Stats.TotalEvents > 1000:
			c += 0.05
		case rec.Stats.TotalEvents > 100:
			c += 0.02
		case rec.Stats.TotalEvents > 0 && rec.Stats.TotalEvents < 10:
			c -= 0.05
		}
	}

	if rec.Severity == domain.SeverityUnknown {
		c *= 0.7
	}

	return clamp01(c)
}

// Aggregate computes the weighted-mean confidence across a pair's merged
// records, weighting each by its origin's base-confidence value, then
// applies the guardrails of spec §4.9:
//   - capped at 0 if no primary source ran successfully;
//   - a count-based baseline if the merged set is empty but at least one
//     primary source ran without error;
//   - never reaching the 1.0 ceiling (effective cap 0.95).
//
// primarySourcesRan is the count of primary providers (rxnorm_interactions,
// pair_adverse_events, supplement_interactions) that were attempted and
// completed without error, regardless of whether they produced a record.
func Aggregate(merged []domain.EvidenceRecord, primarySourcesRan int) float64 {
	if primarySourcesRan == 0 {
		return 0
	}

	if len(merged) == 0 {
		n := primarySourcesRan
		if n > 3 {
			n = 3
		}
		return clampCeiling(baselineBySourceCount[n])
	}

	var weightedSum, weightSum float64
	for _, r := range merged {
		adjusted := Adjust(r)
		weight := domain.BaseConfidence[r.Origin]
		weightedSum += adjusted * weight
		weightSum += weight
	}
	if weightSum == 0 {
		return 0
	}
	return clampCeiling(weightedSum / weightSum)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func clampCeiling(v float64) float64 {
	v = clamp01(v)
	if v > Ceiling {
		return Ceiling
	}
	return v
}
