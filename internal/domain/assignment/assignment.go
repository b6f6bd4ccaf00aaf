// Package assignment maintains the mapping between a pool of candidates and a
// fixed array of ranked positions.
//
// An Assignment is owned by exactly one ranking session and is not safe for
// concurrent use; callers serialize access (see repository.Store).
//
// Invariant: every pool candidate is either available or occupies exactly one
// position, never both.
package assignment

import (
	"fmt"

	"github.com/okian/gridbet/internal/domain/model"
)

// DefaultSize is the number of positions in a Top 10 bet.
const DefaultSize = 10

const empty = -1

// Candidate is the placeable entity.
type Candidate = model.Candidate

// CandidateID identifies a Candidate.
type CandidateID = model.CandidateID

// Slot is a read-only view of one position.
type Slot struct {
	Position  int
	Candidate *Candidate
}

// Filled reports whether the slot has an occupant.
func (s Slot) Filled() bool { return s.Candidate != nil }

// Assignment is the slot array plus the candidate pool it draws from.
type Assignment struct {
	size   int
	loaded bool

	pool []Candidate
	byID map[CandidateID]int // candidate id -> pool index

	slots  []int               // pool index per position, empty when unset
	placed map[CandidateID]int // candidate id -> 1-based position
}

// New creates an empty Assignment. Until Load is called the pool is empty
// and every placement fails with ErrUnknownCandidate.
func New(opts ...Option) *Assignment {
	a := &Assignment{size: DefaultSize}
	for _, opt := range opts {
		opt(a)
	}
	a.byID = make(map[CandidateID]int)
	a.slots = make([]int, a.size)
	a.placed = make(map[CandidateID]int, a.size)
	a.resetSlots()
	return a
}

// Size returns the number of positions.
func (a *Assignment) Size() int { return a.size }

// Loaded reports whether a pool has been loaded.
func (a *Assignment) Loaded() bool { return a.loaded }

// Filled returns the number of occupied positions.
func (a *Assignment) Filled() int { return len(a.placed) }

// IsComplete reports whether every position holds a distinct candidate.
func (a *Assignment) IsComplete() bool {
	return len(a.placed) == a.size
}

// Place puts the candidate at position pos. A different occupant of pos is
// evicted back to the pool. Placing a candidate that already sits at another
// position is rejected with ErrDuplicateCandidate.
func (a *Assignment) Place(id CandidateID, pos int) error {
	if err := a.checkPosition(pos); err != nil {
		return err
	}
	idx, err := a.lookup(id)
	if err != nil {
		return err
	}
	if at, ok := a.placed[id]; ok {
		if at == pos {
			return nil
		}
		return fmt.Errorf("%w: driver %d is already at position %d", ErrDuplicateCandidate, id, at)
	}
	if prev := a.slots[pos-1]; prev != empty {
		delete(a.placed, a.pool[prev].ID)
	}
	a.slots[pos-1] = idx
	a.placed[id] = pos
	return nil
}

// PlaceFirstEmpty places the candidate at the lowest empty position and
// returns that position.
func (a *Assignment) PlaceFirstEmpty(id CandidateID) (int, error) {
	if _, err := a.lookup(id); err != nil {
		return 0, err
	}
	pos := a.firstEmpty()
	if pos == 0 {
		return 0, fmt.Errorf("%w: all %d positions are filled", ErrNoEmptySlot, a.size)
	}
	if err := a.Place(id, pos); err != nil {
		return 0, err
	}
	return pos, nil
}

// Swap exchanges the occupants of two positions, empty ones included.
func (a *Assignment) Swap(p, q int) error {
	if err := a.checkPosition(p); err != nil {
		return err
	}
	if err := a.checkPosition(q); err != nil {
		return err
	}
	if p == q {
		return nil
	}
	a.slots[p-1], a.slots[q-1] = a.slots[q-1], a.slots[p-1]
	if idx := a.slots[p-1]; idx != empty {
		a.placed[a.pool[idx].ID] = p
	}
	if idx := a.slots[q-1]; idx != empty {
		a.placed[a.pool[idx].ID] = q
	}
	return nil
}

// Remove empties position pos and returns its former occupant, if any.
func (a *Assignment) Remove(pos int) (Candidate, bool, error) {
	if err := a.checkPosition(pos); err != nil {
		return Candidate{}, false, err
	}
	idx := a.slots[pos-1]
	if idx == empty {
		return Candidate{}, false, nil
	}
	c := a.pool[idx]
	a.slots[pos-1] = empty
	delete(a.placed, c.ID)
	return c, true, nil
}

// Clear empties every position. The pool is kept.
func (a *Assignment) Clear() {
	a.resetSlots()
}

// Slot returns the occupant of position pos.
func (a *Assignment) Slot(pos int) (Candidate, bool, error) {
	if err := a.checkPosition(pos); err != nil {
		return Candidate{}, false, err
	}
	idx := a.slots[pos-1]
	if idx == empty {
		return Candidate{}, false, nil
	}
	return a.pool[idx], true, nil
}

// Slots returns a snapshot of all positions in order.
func (a *Assignment) Slots() []Slot {
	out := make([]Slot, a.size)
	for i, idx := range a.slots {
		out[i].Position = i + 1
		if idx != empty {
			c := a.pool[idx]
			out[i].Candidate = &c
		}
	}
	return out
}

// PositionOf returns the position held by the candidate, or 0.
func (a *Assignment) PositionOf(id CandidateID) int {
	return a.placed[id]
}

func (a *Assignment) firstEmpty() int {
	for i, idx := range a.slots {
		if idx == empty {
			return i + 1
		}
	}
	return 0
}

func (a *Assignment) checkPosition(pos int) error {
	if pos < 1 || pos > a.size {
		return fmt.Errorf("%w: %d is outside 1..%d", ErrInvalidPosition, pos, a.size)
	}
	return nil
}

func (a *Assignment) lookup(id CandidateID) (int, error) {
	idx, ok := a.byID[id]
	if !ok {
		return empty, fmt.Errorf("%w: driver %d", ErrUnknownCandidate, id)
	}
	return idx, nil
}

func (a *Assignment) resetSlots() {
	for i := range a.slots {
		a.slots[i] = empty
	}
	clear(a.placed)
}
