// Package label implements the label-warnings matching policy: a tiered
// query strategy plus a primary-ingredient post-filter that rejects
// candidates naming a different well-known drug of the same class. This
// is a configurable heuristic policy, not a general drug-class classifier
// — see spec §9's open question and SPEC_FULL.md's resolution.
package label

import "strings"

// ClassGroup names a set of drugs the matcher treats as confusable with
// one another — e.g. two different NSAIDs showing up on the same label.
type ClassGroup struct {
	Name  string
	Drugs []string
}

// DefaultClassGroups is the documented default block-list: the common
// NSAIDs. Consulted only for rejection, never to infer an interaction.
var DefaultClassGroups = []ClassGroup{
	{
		Name: "NSAID",
		Drugs: []string{
			"ibuprofen", "naproxen", "diclofenac", "celecoxib", "meloxicam",
			"indomethacin", "ketorolac", "piroxicam", "etodolac", "nabumetone",
			"aspirin",
		},
	},
}

// ClassTable answers "is drug a member of the same class as drug b, but a
// different drug" queries against a configurable set of class groups.
type ClassTable struct {
	groups []ClassGroup
}

// NewClassTable builds a ClassTable from the given groups. Passing nil
// uses DefaultClassGroups.
func NewClassTable(groups []ClassGroup) *ClassTable {
	if groups == nil {
		groups = DefaultClassGroups
	}
	return &ClassTable{groups: groups}
}

// ConflictsWithDifferentMember reports whether text mentions a drug from
// the same class as queried that is not queried itself — the signal used
// to reject a label candidate whose primary ingredient is a different
// class member (spec §4.4: "the candidate does not list a different
// well-known drug of the same class as its primary ingredient").
func (t *ClassTable) ConflictsWithDifferentMember(text, queried string) bool {
	lowered := strings.ToLower(text)
	queried = strings.ToLower(queried)
	for _, group := range t.groups {
		if !containsAny(lowered, group.Drugs) {
			continue
		}
		if !groupContains(group, queried) {
			// text mentions a class member, but the queried drug isn't
			// even in this class — not a same-class confusion, skip.
			continue
		}
		for _, member := range group.Drugs {
			if member == queried {
				continue
			}
			if strings.Contains(lowered, member) {
				return true
			}
		}
	}
	return false
}

func containsAny(text string, candidates []string) bool {
	for _, c := range candidates {
		if strings.Contains(text, c) {
			return true
		}
	}
	return false
}

func groupContains(g ClassGroup, drug string) bool {
	for _, d := range g.Drugs {
		if d == drug {
			return true
		}
	}
	return false
}
