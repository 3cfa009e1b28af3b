// Package providers implements the six upstream-authority adapters the
// orchestrator fans out to: two RxNorm calls, two supplement calls, the
// label-warnings fetch, adverse-event counts (pair and single-drug), and
// the literature_ai evidence bundle. Each adapter returns a typed result
// or a typed error, never both, and distinguishes "looked, found nothing"
// from an error per spec §4.4.
package providers

import (
	"time"

	"interactions-backend/internal/domain"
)

// Result wraps a provider call's outcome for the orchestrator's debug
// trace: Data is nil with Err nil for the normalized "looked, found
// nothing" case, which is distinct from a non-nil Err.
type Result struct {
	Data      any
	Err       error
	Cached    bool
	ElapsedMs int64
}

// Status is the debug trace entry per spec §4.10's observability contract.
type Status struct {
	Origin    domain.Origin `json:"origin"`
	Attempted bool          `json:"attempted"`
	OK        bool          `json:"ok"`
	ElapsedMs int64         `json:"elapsedMs"`
	Cached    bool          `json:"cached"`
	Error     string        `json:"error,omitempty"`
}

// NotAttempted returns a Status for a provider that was skipped cleanly
// (e.g. a missing identifier) — "attempted=false" per scenario 3 in §8.
func NotAttempted(origin domain.Origin) Status {
	return Status{Origin: origin, Attempted: false, OK: false}
}

// clock is overridable in tests.
var clock = time.Now
