package producer

import (
	"slices"
	"strings"

	"github.com/ppiankov/argscope/internal/model"
)

// Requirements is what a producer needs before it can run: either one flat
// set of keywords, or an ordered list of alternative sets of which any one
// suffices. Both forms normalize to an ordered list of sets at construction.
type Requirements struct {
	sets         [][]model.Keyword
	alternatives bool
}

// Flat requires every keyword listed. Flat() is always satisfied.
func Flat(kws ...model.Keyword) Requirements {
	return Requirements{sets: [][]model.Keyword{cloneSet(kws)}}
}

// Alternatives requires any one of the given sets. Order matters: the first
// set decides which producers get pulled in when none is satisfied.
func Alternatives(sets ...[]model.Keyword) Requirements {
	if len(sets) == 0 {
		return Flat()
	}
	norm := make([][]model.Keyword, len(sets))
	for i, s := range sets {
		norm[i] = cloneSet(s)
	}
	return Requirements{sets: norm, alternatives: true}
}

// cloneSet copies s into a non-nil slice, so an empty set stays distinct
// from a missing one.
func cloneSet(s []model.Keyword) []model.Keyword {
	return append([]model.Keyword{}, s...)
}

// Sets returns a copy of the normalized requirement sets. The zero value,
// which Registry.Validate rejects, reads as one empty set.
func (r Requirements) Sets() [][]model.Keyword {
	if r.sets == nil {
		return [][]model.Keyword{{}}
	}
	out := make([][]model.Keyword, len(r.sets))
	for i, s := range r.sets {
		out[i] = cloneSet(s)
	}
	return out
}

// Declared reports whether r was built with Flat or Alternatives.
func (r Requirements) Declared() bool { return r.sets != nil }

// IsAlternatives reports whether r was built with Alternatives.
func (r Requirements) IsAlternatives() bool { return r.alternatives }

// Keywords returns every keyword mentioned in any set, first mention first.
func (r Requirements) Keywords() []model.Keyword {
	var out []model.Keyword
	for _, s := range r.sets {
		for _, kw := range s {
			if !slices.Contains(out, kw) {
				out = append(out, kw)
			}
		}
	}
	return out
}

// Satisfied returns the indexes of the sets that are fully available.
func (r Requirements) Satisfied(available func(model.Keyword) bool) []int {
	var idx []int
	for i, s := range r.Sets() {
		ok := true
		for _, kw := range s {
			if !available(kw) {
				ok = false
				break
			}
		}
		if ok {
			idx = append(idx, i)
		}
	}
	return idx
}

// Missing returns the keywords of the first set that are not available, in
// declaration order.
func (r Requirements) Missing(available func(model.Keyword) bool) []model.Keyword {
	var out []model.Keyword
	for _, kw := range r.Sets()[0] {
		if !available(kw) {
			out = append(out, kw)
		}
	}
	return out
}

// String renders a flat spec as {a, b} and alternatives as
// any of {a, b} | {c}.
func (r Requirements) String() string {
	parts := make([]string, 0, len(r.sets))
	for _, s := range r.Sets() {
		names := make([]string, len(s))
		for i, kw := range s {
			names[i] = string(kw)
		}
		parts = append(parts, "{"+strings.Join(names, ", ")+"}")
	}
	out := strings.Join(parts, " | ")
	if r.IsAlternatives() {
		return "any of " + out
	}
	return out
}
