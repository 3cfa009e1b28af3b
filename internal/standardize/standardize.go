// Package standardize implements the pure, per-provider mapping functions
// that turn each provider's raw result shape into a uniform
// domain.EvidenceRecord.
package standardize

import (
	"strings"
	"time"

	"interactions-backend/internal/domain"
	"interactions-backend/internal/providers"
)

// severityTokens translates a provider's own free-text label into the
// closed Severity enum, per spec §4.6.
var severityTokens = map[string]domain.Severity{
	"major":    domain.SeveritySevere,
	"severe":   domain.SeveritySevere,
	"moderate": domain.SeverityModerate,
	"minor":    domain.SeverityMild,
	"mild":     domain.SeverityMild,
}

// TranslateSeverityToken maps a provider-supplied label to the closed
// Severity enum. Unrecognized or empty tokens map to unknown.
func TranslateSeverityToken(token string) domain.Severity {
	if s, ok := severityTokens[strings.ToLower(strings.TrimSpace(token))]; ok {
		return s
	}
	return domain.SeverityUnknown
}

// RxNormInteraction standardizes a rxnorm_interactions evidence record.
func RxNormInteraction(r *providers.InteractionResult, observedAt time.Time) domain.EvidenceRecord {
	rec := domain.EvidenceRecord{
		Origin:     domain.OriginRxNormInteractions,
		Confidence: domain.BaseConfidence[domain.OriginRxNormInteractions],
		ObservedAt: observedAt,
	}
	if r == nil {
		rec.Severity = domain.SeverityUnknown
		return rec
	}
	rec.Severity = TranslateSeverityToken(r.Severity)
	rec.Summary = r.Description
	if r.Source != "" {
		rec.Details = map[string]any{"source": r.Source}
	}
	return rec
}

// SupplementInteraction standardizes a supplement_interactions record.
func SupplementInteraction(s *providers.SupplementInteraction, observedAt time.Time) domain.EvidenceRecord {
	rec := domain.EvidenceRecord{
		Origin:     domain.OriginSupplementInteractions,
		Confidence: domain.BaseConfidence[domain.OriginSupplementInteractions],
		ObservedAt: observedAt,
	}
	if s == nil {
		rec.Severity = domain.SeverityUnknown
		return rec
	}
	rec.Severity = TranslateSeverityToken(s.Severity)
	rec.Summary = s.Description
	return rec
}

// LabelWarnings standardizes a label_warnings record. Per spec §4.6,
// label records default to moderate severity regardless of upstream
// content — FDA warnings are always at least moderate.
func LabelWarnings(l *providers.LabelRecord, observedAt time.Time) domain.EvidenceRecord {
	rec := domain.EvidenceRecord{
		Origin:     domain.OriginLabelWarnings,
		Confidence: domain.BaseConfidence[domain.OriginLabelWarnings],
		ObservedAt: observedAt,
	}
	if l == nil {
		rec.Severity = domain.SeverityUnknown
		return rec
	}
	rec.Severity = domain.SeverityModerate
	rec.Summary = strings.Join(l.Warnings, " ")
	if l.Identifier != "" {
		rec.Details = map[string]any{"identifier": l.Identifier}
	}
	return rec
}

// LiteratureAI standardizes a literature_ai record.
func LiteratureAI(l *providers.LiteratureEvidence, observedAt time.Time) domain.EvidenceRecord {
	rec := domain.EvidenceRecord{
		Origin:     domain.OriginLiteratureAI,
		Confidence: domain.BaseConfidence[domain.OriginLiteratureAI],
		ObservedAt: observedAt,
	}
	if l == nil {
		rec.Severity = domain.SeverityUnknown
		return rec
	}
	rec.Severity = TranslateSeverityToken(l.Severity)
	rec.Summary = l.Summary
	rec.Citations = append([]string(nil), l.Citations...)
	return rec
}

// AdverseEventsInput bundles the raw counts plus any exposure-derived
// denominator information available for a single origin's record.
type AdverseEventsInput struct {
	Counts              *providers.AdverseEventCounts
	Beneficiaries       int
	DenominatorKnown    bool
	DenominatorMethod   domain.DenominatorMethod
}

// PairAdverseEvents standardizes a pair_adverse_events record.
func PairAdverseEvents(in AdverseEventsInput, observedAt time.Time) domain.EvidenceRecord {
	return adverseEvents(domain.OriginPairAdverseEvents, in, observedAt)
}

// SingleDrugAdverseEvents standardizes a single_drug_adverse_events record.
func SingleDrugAdverseEvents(in AdverseEventsInput, observedAt time.Time) domain.EvidenceRecord {
	return adverseEvents(domain.OriginSingleDrugAdverseEvents, in, observedAt)
}

func adverseEvents(origin domain.Origin, in AdverseEventsInput, observedAt time.Time) domain.EvidenceRecord {
	rec := domain.EvidenceRecord{
		Origin:     origin,
		Confidence: domain.BaseConfidence[origin],
		ObservedAt: observedAt,
	}
	if in.Counts == nil {
		rec.Severity = domain.SeverityUnknown
		return rec
	}

	stats := &domain.Stats{
		TotalEvents:      in.Counts.TotalEvents,
		SeriousEvents:    in.Counts.SeriousEvents,
		Beneficiaries:    in.Beneficiaries,
		DenominatorKnown: in.DenominatorKnown,
	}
	if in.DenominatorKnown {
		stats.DenominatorMethod = in.DenominatorMethod
	}
	if in.DenominatorKnown && in.Beneficiaries > 0 {
		stats.EventRate = float64(stats.TotalEvents) / float64(in.Beneficiaries)
		stats.SeriousEventRate = float64(stats.SeriousEvents) / float64(in.Beneficiaries)
	}
	rec.Stats = stats
	rec.Severity = severityFromCounts(stats)
	return rec
}

// severityFromCounts implements the count- and rate-derived severity rule
// from spec §4.6, applying rate-based overrides when a denominator is
// known.
func severityFromCounts(s *domain.Stats) domain.Severity {
	sev := domain.SeverityUnknown
	switch {
	case s.SeriousEvents > 1000:
		sev = domain.SeveritySevere
	case s.SeriousEvents > 100:
		sev = domain.SeverityModerate
	case s.SeriousEvents > 0:
		sev = domain.SeverityMild
	}
	if s.DenominatorKnown {
		switch {
		case s.SeriousEventRate > 1e-2:
			sev = domain.SeveritySevere
		case s.SeriousEventRate > 1e-3:
			sev = domain.SeverityModerate
		}
	}
	return sev
}
