package assignment

import (
	"errors"
	"fmt"
)

// Sentinel kinds for assignment errors. A rejected operation never changes state.
var (
	ErrInvalidPosition      = errors.New("invalid position")
	ErrDuplicateCandidate   = errors.New("candidate already placed")
	ErrNoEmptySlot          = errors.New("no empty slot")
	ErrIncompleteAssignment = errors.New("incomplete assignment")
	ErrUnknownCandidate     = errors.New("unknown candidate")
)

// IncompleteError reports how many slots were filled when a submission was
// attempted. It matches ErrIncompleteAssignment with errors.Is.
type IncompleteError struct {
	Filled int
	Size   int
}

func (e *IncompleteError) Error() string {
	return fmt.Sprintf("%s: %d of %d positions filled", ErrIncompleteAssignment, e.Filled, e.Size)
}

func (e *IncompleteError) Unwrap() error { return ErrIncompleteAssignment }
