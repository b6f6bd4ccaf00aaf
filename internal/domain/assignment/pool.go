package assignment

import (
	"sort"

	"github.com/okian/gridbet/internal/domain/model"
)

// Load replaces the pool and empties every position. Candidates keep the
// order they were supplied in; a repeated id keeps its first occurrence.
func (a *Assignment) Load(candidates []Candidate) {
	a.pool = make([]Candidate, 0, len(candidates))
	a.byID = make(map[CandidateID]int, len(candidates))
	for _, c := range candidates {
		if _, dup := a.byID[c.ID]; dup {
			continue
		}
		a.byID[c.ID] = len(a.pool)
		a.pool = append(a.pool, c)
	}
	a.loaded = true
	a.resetSlots()
}

// Pool returns every loaded candidate in load order.
func (a *Assignment) Pool() []Candidate {
	out := make([]Candidate, len(a.pool))
	copy(out, a.pool)
	return out
}

// IsAvailable reports whether the candidate is in the pool and unplaced.
func (a *Assignment) IsAvailable(id CandidateID) bool {
	if _, ok := a.byID[id]; !ok {
		return false
	}
	_, placed := a.placed[id]
	return !placed
}

// Available returns the unplaced candidates in load order.
func (a *Assignment) Available() []Candidate {
	out := make([]Candidate, 0, len(a.pool)-len(a.placed))
	for _, c := range a.pool {
		if _, placed := a.placed[c.ID]; !placed {
			out = append(out, c)
		}
	}
	return out
}

// Prefill empties the positions and applies a previously stored bet.
// Rows are applied in position order; rows with an out-of-range position or
// an id missing from the pool are skipped, as is a driver listed twice
// (the lower position wins). Two rows for one position follow Place
// semantics: the later row evicts the earlier. It returns the number of
// filled positions afterwards.
func (a *Assignment) Prefill(rows []model.ExistingPrediction) int {
	a.resetSlots()

	sorted := make([]model.ExistingPrediction, len(rows))
	copy(sorted, rows)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].PredictedPosition < sorted[j].PredictedPosition
	})

	for _, row := range sorted {
		// Errors here mean the row does not fit the current form; skip it.
		_ = a.Place(row.Driver, row.PredictedPosition)
	}
	return a.Filled()
}
