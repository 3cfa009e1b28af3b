package label_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"interactions-backend/internal/providers/label"
)

func TestMatcherAcceptsCandidateWhosePrimaryIngredientMatchesQuery(t *testing.T) {
	m := label.NewMatcher(nil)
	c := label.Candidate{GenericName: "ibuprofen", BrandName: "Advil"}

	assert.True(t, m.Accept(c, "ibuprofen"))
}

func TestMatcherRejectsCandidateWithNoNameOverlap(t *testing.T) {
	m := label.NewMatcher(nil)
	c := label.Candidate{GenericName: "acetaminophen", BrandName: "Tylenol"}

	assert.False(t, m.Accept(c, "ibuprofen"))
}

func TestMatcherRejectsCandidateNamingDifferentClassMember(t *testing.T) {
	m := label.NewMatcher(nil)
	// Queried "ibuprofen" but the candidate's own generic name is a
	// different NSAID — the confusable-class rejection from spec §4.4.
	c := label.Candidate{GenericName: "naproxen ibuprofen combination"}

	assert.False(t, m.Accept(c, "ibuprofen"))
}

func TestMatcherFilterWarningsDropsOnlyDifferentClassMemberMentions(t *testing.T) {
	m := label.NewMatcher(nil)
	warnings := []string{
		"do not take with alcohol",
		"avoid combining with naproxen",
		"consult a doctor before extended use",
	}

	kept := m.FilterWarnings(warnings, "ibuprofen")

	assert.Equal(t, []string{
		"do not take with alcohol",
		"consult a doctor before extended use",
	}, kept)
}

func TestMatcherFilterWarningsReturnsNilWhenEverythingFiltered(t *testing.T) {
	m := label.NewMatcher(nil)
	warnings := []string{"avoid combining with naproxen or diclofenac"}

	kept := m.FilterWarnings(warnings, "ibuprofen")

	assert.Nil(t, kept)
}

func TestMatcherSetClassTableSwapsPolicyAtomically(t *testing.T) {
	m := label.NewMatcher(label.NewClassTable([]label.ClassGroup{
		{Name: "custom", Drugs: []string{"drugx", "drugy"}},
	}))
	c := label.Candidate{GenericName: "drugx drugy combination"}

	// Under the custom table drugx/drugy conflict, so a candidate that also
	// names drugy is rejected when queried as drugx.
	assert.False(t, m.Accept(c, "drugx"))

	m.SetClassTable(label.NewClassTable(nil))

	// After swapping back to the default NSAID table, drugx/drugy no
	// longer collide with anything, so the same candidate is accepted.
	assert.True(t, m.Accept(c, "drugx"))
}
