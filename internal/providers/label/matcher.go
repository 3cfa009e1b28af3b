package label

import (
	"strings"
	"sync/atomic"
)

// Candidate is one label record as returned by the upstream before the
// matcher's post-filter is applied.
type Candidate struct {
	Identifier  string
	GenericName string
	BrandName   string
	Warnings    []string
}

// Matcher applies the primary-ingredient accept/reject policy described in
// spec §4.4. The active ClassTable is held behind an atomic pointer so a
// policy reload (see internal/config.PolicyWatcher) can swap the
// block-list without a lock held across Accept/FilterWarnings calls.
type Matcher struct {
	classes atomic.Pointer[ClassTable]
}

// NewMatcher builds a Matcher. A nil ClassTable uses the default NSAID
// block-list.
func NewMatcher(classes *ClassTable) *Matcher {
	if classes == nil {
		classes = NewClassTable(nil)
	}
	m := &Matcher{}
	m.classes.Store(classes)
	return m
}

// SetClassTable atomically replaces the block-list the matcher consults.
func (m *Matcher) SetClassTable(classes *ClassTable) {
	if classes == nil {
		classes = NewClassTable(nil)
	}
	m.classes.Store(classes)
}

// Accept reports whether candidate may be attributed to the queried
// canonical item name: its generic/brand name must contain the queried
// name, and it must not list a different well-known same-class drug as
// its primary ingredient.
func (m *Matcher) Accept(c Candidate, queriedCanonicalName string) bool {
	classes := m.classes.Load()
	name := strings.ToLower(queriedCanonicalName)
	primaryMatches := strings.Contains(strings.ToLower(c.GenericName), name) ||
		strings.Contains(strings.ToLower(c.BrandName), name)
	if !primaryMatches {
		return false
	}
	if classes.ConflictsWithDifferentMember(c.GenericName, name) {
		return false
	}
	if classes.ConflictsWithDifferentMember(c.BrandName, name) {
		return false
	}
	return true
}

// FilterWarnings drops any warning text that mentions a different
// class member than the queried item, per spec §4.4: "warnings whose text
// mentions a different class member are filtered out of the returned
// set". Returns nil (absent) if every warning was filtered.
func (m *Matcher) FilterWarnings(warnings []string, queriedCanonicalName string) []string {
	classes := m.classes.Load()
	var kept []string
	for _, w := range warnings {
		if classes.ConflictsWithDifferentMember(w, queriedCanonicalName) {
			continue
		}
		kept = append(kept, w)
	}
	return kept
}
