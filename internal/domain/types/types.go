// Package types contains common types used across the application
package types

import (
	"github.com/okian/gridbet/internal/domain/assignment"
	"github.com/okian/gridbet/internal/domain/model"
)

// SlotView is one ranked position as shown to the user.
type SlotView struct {
	Position int              `json:"position"`
	Driver   *model.Candidate `json:"driver"`
}

// SessionView is the read model of a ranking session.
type SessionView struct {
	ID        string            `json:"id"`
	RaceID    int               `json:"race_id"`
	Size      int               `json:"size"`
	Filled    int               `json:"filled"`
	Complete  bool              `json:"complete"`
	Editing   bool              `json:"editing"`
	Revision  uint64            `json:"revision"`
	Slots     []SlotView        `json:"slots"`
	Available []model.Candidate `json:"available"`
}

// NewSessionView snapshots an assignment. The result shares no memory with a.
func NewSessionView(id string, raceID int, editing bool, revision uint64, a *assignment.Assignment) SessionView {
	slots := a.Slots()
	views := make([]SlotView, len(slots))
	for i, s := range slots {
		views[i] = SlotView{Position: s.Position, Driver: s.Candidate}
	}

	return SessionView{
		ID:        id,
		RaceID:    raceID,
		Size:      a.Size(),
		Filled:    a.Filled(),
		Complete:  a.IsComplete(),
		Editing:   editing,
		Revision:  revision,
		Slots:     views,
		Available: a.Available(),
	}
}

// PlacedView answers a place-first request.
type PlacedView struct {
	Position int         `json:"position"`
	Session  SessionView `json:"session"`
}

// DropView answers a drop request.
type DropView struct {
	Action  string      `json:"action"`
	Session SessionView `json:"session"`
}

// SubmitResult reports a submission.
type SubmitResult struct {
	Status    string `json:"status"`
	Message   string `json:"message,omitempty"`
	Duplicate bool   `json:"duplicate"`
}
