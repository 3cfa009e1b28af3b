package domain

// PairReport is the fully-reduced result for one unordered pair of items.
type PairReport struct {
	AOriginal  string           `json:"aOriginal"`
	BOriginal  string           `json:"bOriginal"`
	Severity   Severity         `json:"severity"`
	Confidence float64          `json:"confidence"`
	Sources    []EvidenceRecord `json:"sources"`
	Summary    string           `json:"summary"`
	KeyNotes   []string         `json:"keyNotes,omitempty"`
}

// SingleReport is the fully-reduced result for one item in isolation,
// analogous to PairReport and TripleReport.
type SingleReport struct {
	Original   string           `json:"original"`
	Normalized string           `json:"normalized"`
	Severity   Severity         `json:"severity"`
	Confidence float64          `json:"confidence"`
	Sources    []EvidenceRecord `json:"sources"`
	Summary    string           `json:"summary"`
	KeyNotes   []string         `json:"keyNotes,omitempty"`
}

// TripleReport is the fully-reduced result for one unordered triple,
// derived entirely from the union of its three constituent pairs' sources.
type TripleReport struct {
	AOriginal  string           `json:"aOriginal"`
	BOriginal  string           `json:"bOriginal"`
	COriginal  string           `json:"cOriginal"`
	Severity   Severity         `json:"severity"`
	Confidence float64          `json:"confidence"`
	Sources    []EvidenceRecord `json:"sources"`
	Summary    string           `json:"summary"`
	KeyNotes   []string         `json:"keyNotes,omitempty"`
}

// MaxKeyNotes is the upper bound on the KeyNotes slice for single, pair
// and triple reports.
const MaxKeyNotes = 3
