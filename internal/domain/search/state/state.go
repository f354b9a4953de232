// Package state holds the search state owned by one orchestrator.
//
// Transitions are value methods returning a new State; the receiver is never
// mutated, so a State handed to the persister or a reader stays stable.
package state

import (
	"slices"

	"github.com/kailas-cloud/vibesearch/internal/domain/search/filter"
	"github.com/kailas-cloud/vibesearch/internal/domain/search/kind"
)

// State is the current search: its inputs and the rank-ordered result Ids.
// JSON names match the persisted format.
type State struct {
	ResultIDs       []string    `json:"apartmentIds"`
	QueryText       string      `json:"searchTerm"`
	Filters         *filter.Set `json:"filterValues"`
	ImageURLs       []string    `json:"imageUrls"`
	SearchType      kind.Type   `json:"searchType"`
	SearchPerformed bool        `json:"-"`
}

// Empty returns the initial state.
func Empty() State {
	return State{SearchType: kind.None}
}

// Seed sets the inputs of a search that has not run yet.
func (s State) Seed(query string, filters *filter.Set, imageURLs []string) State {
	s.QueryText = query
	s.Filters = cloneFilters(filters)
	s.ImageURLs = slices.Clone(imageURLs)
	return s
}

// WithResults replaces the result set with the first page of a completed search.
func (s State) WithResults(query string, filters *filter.Set, imageURLs, ids []string) State {
	return State{
		ResultIDs:       Dedupe(ids),
		QueryText:       query,
		Filters:         cloneFilters(filters),
		ImageURLs:       slices.Clone(imageURLs),
		SearchType:      kind.Classify(query, imageURLs),
		SearchPerformed: true,
	}
}

// Append adds the Ids not already present, keeping their arrival order.
// It returns the new state and the Ids that were actually added.
func (s State) Append(ids []string) (State, []string) {
	seen := make(map[string]struct{}, len(s.ResultIDs)+len(ids))
	for _, id := range s.ResultIDs {
		seen[id] = struct{}{}
	}
	out := slices.Clone(s.ResultIDs)
	var added []string
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
		added = append(added, id)
	}
	s.ResultIDs = out
	return s, added
}

// ClearResults drops the result Ids and keeps the inputs.
func (s State) ClearResults() State {
	s.ResultIDs = nil
	return s
}

// Restored marks a state loaded from storage as a performed search.
func (s State) Restored() State {
	s.SearchPerformed = true
	if !s.SearchType.IsValid() {
		s.SearchType = kind.Classify(s.QueryText, s.ImageURLs)
	}
	s.ResultIDs = Dedupe(s.ResultIDs)
	return s
}

// FilterSet returns the filters or an empty set.
func (s State) FilterSet() filter.Set {
	if s.Filters == nil {
		return filter.Set{}
	}
	return *s.Filters
}

// Dedupe returns ids without repeats, keeping the first occurrence of each.
func Dedupe(ids []string) []string {
	if len(ids) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func cloneFilters(f *filter.Set) *filter.Set {
	if f == nil {
		return nil
	}
	c := *f
	return &c
}
