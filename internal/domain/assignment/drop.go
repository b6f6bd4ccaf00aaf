package assignment

// Source is what a drag gesture carries: a pool candidate or an occupied position.
type Source struct {
	fromPool  bool
	candidate CandidateID
	position  int
}

// FromPool is a drag that started on a candidate in the pool.
func FromPool(id CandidateID) Source {
	return Source{fromPool: true, candidate: id}
}

// FromSlot is a drag that started on an occupied position.
func FromSlot(pos int) Source {
	return Source{position: pos}
}

// DropResult tells the host what a drop did.
type DropResult int

const (
	DropIgnored DropResult = iota
	DropPlaced
	DropSwapped
)

func (r DropResult) String() string {
	switch r {
	case DropPlaced:
		return "placed"
	case DropSwapped:
		return "swapped"
	default:
		return "ignored"
	}
}

// Drop dispatches a finished drag onto target. A pool candidate that is
// already placed somewhere is ignored, so dragging can never duplicate a
// driver; a drag from a position swaps it with target.
func (a *Assignment) Drop(src Source, target int) (DropResult, error) {
	if err := a.checkPosition(target); err != nil {
		return DropIgnored, err
	}
	if src.fromPool {
		if _, err := a.lookup(src.candidate); err != nil {
			return DropIgnored, err
		}
		if _, placed := a.placed[src.candidate]; placed {
			return DropIgnored, nil
		}
		if err := a.Place(src.candidate, target); err != nil {
			return DropIgnored, err
		}
		return DropPlaced, nil
	}
	if src.position == target {
		if err := a.checkPosition(src.position); err != nil {
			return DropIgnored, err
		}
		return DropIgnored, nil
	}
	if err := a.Swap(src.position, target); err != nil {
		return DropIgnored, err
	}
	return DropSwapped, nil
}
