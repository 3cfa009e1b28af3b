package standardize

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"interactions-backend/internal/domain"
	"interactions-backend/internal/providers"
)

func TestTranslateSeverityToken(t *testing.T) {
	cases := map[string]domain.Severity{
		"major":    domain.SeveritySevere,
		"Severe":   domain.SeveritySevere,
		"MODERATE": domain.SeverityModerate,
		"minor":    domain.SeverityMild,
		"mild":     domain.SeverityMild,
		"":         domain.SeverityUnknown,
		"garbage":  domain.SeverityUnknown,
	}
	for token, want := range cases {
		assert.Equal(t, want, TranslateSeverityToken(token), "token %q", token)
	}
}

func TestRxNormInteractionNilIsUnknown(t *testing.T) {
	rec := RxNormInteraction(nil, time.Now())
	assert.Equal(t, domain.SeverityUnknown, rec.Severity)
	assert.Equal(t, domain.OriginRxNormInteractions, rec.Origin)
}

func TestLabelWarningsDefaultsToModerate(t *testing.T) {
	l := &providers.LabelRecord{Warnings: []string{"may increase bleeding risk"}}
	rec := LabelWarnings(l, time.Now())
	assert.Equal(t, domain.SeverityModerate, rec.Severity)
}

func TestStandardizeIsDeterministic(t *testing.T) {
	now := time.Now()
	in := &providers.InteractionResult{Severity: "major", Description: "x"}
	first := RxNormInteraction(in, now)
	second := RxNormInteraction(in, now)
	assert.Equal(t, first, second)
}

func TestSeverityFromCountsThresholds(t *testing.T) {
	cases := []struct {
		name    string
		stats   domain.Stats
		want    domain.Severity
	}{
		{"zero", domain.Stats{}, domain.SeverityUnknown},
		{"mild", domain.Stats{SeriousEvents: 1}, domain.SeverityMild},
		{"moderate", domain.Stats{SeriousEvents: 101}, domain.SeverityModerate},
		{"severe", domain.Stats{SeriousEvents: 1001}, domain.SeveritySevere},
		{"rate overrides to severe", domain.Stats{SeriousEvents: 1, DenominatorKnown: true, SeriousEventRate: 0.02}, domain.SeveritySevere},
		{"rate overrides to moderate", domain.Stats{SeriousEvents: 1, DenominatorKnown: true, SeriousEventRate: 0.002}, domain.SeverityModerate},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.want, severityFromCounts(&c.stats))
		})
	}
}

func TestPairAdverseEventsNilCountsIsUnknown(t *testing.T) {
	rec := PairAdverseEvents(AdverseEventsInput{}, time.Now())
	assert.Equal(t, domain.SeverityUnknown, rec.Severity)
	assert.Nil(t, rec.Stats)
}

func TestPairAdverseEventsComputesRates(t *testing.T) {
	rec := PairAdverseEvents(AdverseEventsInput{
		Counts:            &providers.AdverseEventCounts{TotalEvents: 200, SeriousEvents: 20},
		Beneficiaries:     1000,
		DenominatorKnown:  true,
		DenominatorMethod: domain.DenominatorMinOfPair,
	}, time.Now())
	assert.InDelta(t, 0.2, rec.Stats.EventRate, 1e-9)
	assert.InDelta(t, 0.02, rec.Stats.SeriousEventRate, 1e-9)
	assert.Equal(t, domain.SeveritySevere, rec.Severity, "0.02 serious event rate exceeds the severe threshold")
}
