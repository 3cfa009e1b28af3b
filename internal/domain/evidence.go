package domain

import "time"

// DenominatorMethod records how an adverse-event exposure denominator was
// derived, when one is known.
type DenominatorMethod string

const (
	DenominatorMinOfPair   DenominatorMethod = "min_of_pair"
	DenominatorSingleDrugA DenominatorMethod = "single_drug_a"
	DenominatorSingleDrugB DenominatorMethod = "single_drug_b"
)

// Stats carries the optional adverse-event counts and derived rates that
// accompany certain evidence records.
type Stats struct {
	TotalEvents        int               `json:"totalEvents,omitempty"`
	SeriousEvents       int               `json:"seriousEvents,omitempty"`
	Beneficiaries       int               `json:"beneficiaries,omitempty"`
	EventRate           float64           `json:"eventRate,omitempty"`
	SeriousEventRate    float64           `json:"seriousEventRate,omitempty"`
	DenominatorKnown     bool              `json:"denominatorKnown,omitempty"`
	DenominatorMethod    DenominatorMethod `json:"denominatorMethod,omitempty"`
}

// EvidenceRecord is the uniform shape produced by every standardizer,
// regardless of which provider originated the underlying data.
type EvidenceRecord struct {
	Origin      Origin         `json:"origin"`
	Severity    Severity       `json:"severity"`
	Confidence  float64        `json:"confidence"`
	Summary     string         `json:"summary"`
	Details     map[string]any `json:"details,omitempty"`
	Citations   []string       `json:"citations,omitempty"`
	Stats       *Stats         `json:"stats,omitempty"`
	ObservedAt  time.Time      `json:"observedAt"`
}

// Clone returns a deep-enough copy of the record safe for the merger to
// mutate (details/citations get fresh backing storage).
func (e EvidenceRecord) Clone() EvidenceRecord {
	c := e
	if e.Details != nil {
		c.Details = make(map[string]any, len(e.Details))
		for k, v := range e.Details {
			c.Details[k] = v
		}
	}
	if e.Citations != nil {
		c.Citations = append([]string(nil), e.Citations...)
	}
	if e.Stats != nil {
		s := *e.Stats
		c.Stats = &s
	}
	return c
}

// AddCitation appends cite to the record's citation set if not already
// present.
func (e *EvidenceRecord) AddCitation(cite string) {
	if cite == "" {
		return
	}
	for _, c := range e.Citations {
		if c == cite {
			return
		}
	}
	e.Citations = append(e.Citations, cite)
}
