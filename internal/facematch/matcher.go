package facematch

import (
	"math"
	"slices"
)

// Match finds the gallery entry closest to query under metric.
// Entries with a different feature length or a NaN distance are skipped. The first
// entry reaching the minimum distance wins, and the match only counts when that
// distance is strictly below tolerance.
func Match(query []float32, entries []Entry, metric Metric, tolerance float64) (Result, bool) {
	best := Result{Index: -1}
	for i := range entries {
		e := &entries[i]
		if len(e.Feature) != len(query) || len(query) == 0 {
			continue
		}
		d := metric.Distance(query, e.Feature)
		if math.IsNaN(d) {
			continue
		}
		if best.Index < 0 || d < best.Distance {
			best = Result{Name: e.Name, Distance: d, Index: i}
		}
	}

	if best.Index < 0 || best.Distance >= tolerance {
		return best, false
	}
	return best, true
}

// MatchCandidates applies the Match rule to the entries at the given gallery positions.
// Positions are visited in ascending order so ties still resolve by gallery order, and
// the returned Index refers to the full gallery.
func MatchCandidates(query []float32, entries []Entry, positions []int, metric Metric, tolerance float64) (Result, bool) {
	subset := make([]Entry, 0, len(positions))
	index := make([]int, 0, len(positions))
	for _, p := range sortedUnique(positions) {
		if p < 0 || p >= len(entries) {
			continue
		}
		subset = append(subset, entries[p])
		index = append(index, p)
	}

	res, ok := Match(query, subset, metric, tolerance)
	if res.Index >= 0 {
		res.Index = index[res.Index]
	}
	return res, ok
}

// Matcher binds a Strategy to the Match rule.
type Matcher struct {
	Strategy Strategy
}

// NewMatcher creates a matcher for the given strategy.
func NewMatcher(s Strategy) *Matcher {
	return &Matcher{Strategy: s}
}

// Match compares query against entries using the matcher's metric and tolerance.
func (m *Matcher) Match(query []float32, entries []Entry) (Result, bool) {
	return Match(query, entries, m.Strategy.Metric, m.Strategy.Tolerance)
}

// MatchCandidates is Match restricted to the given gallery positions.
func (m *Matcher) MatchCandidates(query []float32, entries []Entry, positions []int) (Result, bool) {
	return MatchCandidates(query, entries, positions, m.Strategy.Metric, m.Strategy.Tolerance)
}

func sortedUnique(in []int) []int {
	out := slices.Clone(in)
	slices.Sort(out)
	return slices.Compact(out)
}
