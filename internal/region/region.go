// Package region groups segments by country and state for folder output.
package region

import (
	"sort"

	"bikelog/internal/model"
)

// Tree maps country to the set of states seen for it.
// Segments without a country are grouped under "".
type Tree map[string]map[string]struct{}

// Group builds the country -> state tree for segments
func Group(segments []model.Segment) Tree {
	tree := make(Tree)
	for _, s := range segments {
		states, ok := tree[s.Country]
		if !ok {
			states = make(map[string]struct{})
			tree[s.Country] = states
		}
		states[s.State] = struct{}{}
	}
	return tree
}

// Countries returns the countries in sorted order
func (t Tree) Countries() []string {
	countries := make([]string, 0, len(t))
	for c := range t {
		countries = append(countries, c)
	}
	sort.Strings(countries)
	return countries
}

// States returns the states of a country in sorted order
func (t Tree) States(country string) []string {
	states := make([]string, 0, len(t[country]))
	for s := range t[country] {
		states = append(states, s)
	}
	sort.Strings(states)
	return states
}

// Filter returns the segments in country/state, keeping input order
func Filter(segments []model.Segment, country, state string) []model.Segment {
	var out []model.Segment
	for _, s := range segments {
		if s.Country == country && s.State == state {
			out = append(out, s)
		}
	}
	return out
}
