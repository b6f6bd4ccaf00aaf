// Package repository keeps ranking sessions: one Assignment per user editing
// a bet, owned by the store and mutated only under that session's lock.
package repository

import (
	"context"
	"time"

	"github.com/okian/gridbet/internal/adapters/bettingapi"
	"github.com/okian/gridbet/internal/domain/assignment"
)

// Session is the state of one ranking form.
type Session struct {
	ID     string
	RaceID int
	Creds  bettingapi.Credentials

	Assignment *assignment.Assignment

	// Editing is true when the session was prefilled from an existing bet.
	Editing bool

	// Revision increases with every change to Assignment.
	Revision uint64

	CreatedAt time.Time
	LastSeen  time.Time
}

// Store provides serialized access to sessions.
type Store interface {
	// Create registers s. An empty ID is replaced with a fresh one.
	// Returns ErrCapacity when the store is full.
	Create(ctx context.Context, s *Session) error

	// View runs fn with the session locked. fn must not retain s.
	View(ctx context.Context, id string, fn func(s *Session) error) error

	// Update runs fn with the session locked. When fn reports a change the
	// revision is bumped. LastSeen is refreshed either way.
	Update(ctx context.Context, id string, fn func(s *Session) (changed bool, err error)) error

	// Delete discards a session. Returns ErrNotFound if it is unknown.
	Delete(ctx context.Context, id string) error

	// Count returns the number of live sessions.
	Count(ctx context.Context) int

	// Sweep discards sessions idle since before now minus the idle TTL and
	// returns how many were removed.
	Sweep(ctx context.Context, now time.Time) int

	// Close stops background work. Further calls return ErrClosed.
	Close() error
}
