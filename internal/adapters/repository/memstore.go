package repository

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okian/gridbet/pkg/logger"
	"github.com/okian/gridbet/pkg/metrics"
)

const (
	defaultIdleTTL       = 30 * time.Minute
	defaultSweepInterval = time.Minute
	defaultMaxSessions   = 10_000
)

// entry guards one session. deleted is set under mu so a caller that fetched
// the entry before removal sees ErrNotFound instead of editing an orphan.
type entry struct {
	mu      sync.Mutex
	session *Session
	deleted bool
}

// MemoryStore is an in-memory Store with idle expiry.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*entry
	closed   bool

	idleTTL       time.Duration
	sweepInterval time.Duration
	maxSessions   int
	now           func() time.Time
	log           logger.Logger

	wg       sync.WaitGroup
	stopChan chan struct{}
}

// NewMemoryStore constructs a store and starts its janitor. The janitor stops
// when ctx is done or Close is called.
func NewMemoryStore(ctx context.Context, opts ...Option) *MemoryStore {
	s := &MemoryStore{
		sessions:      make(map[string]*entry),
		idleTTL:       defaultIdleTTL,
		sweepInterval: defaultSweepInterval,
		maxSessions:   defaultMaxSessions,
		now:           time.Now,
		stopChan:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}

	metrics.UpdateSessionsActive(0)
	if s.idleTTL > 0 {
		s.startJanitor(ctx)
	}
	return s
}

// startJanitor periodically discards idle sessions.
func (s *MemoryStore) startJanitor(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.sweepInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-s.stopChan:
				return
			case <-ticker.C:
				if n := s.Sweep(ctx, s.now()); n > 0 && s.log != nil {
					s.log.Info(ctx, "discarded idle sessions", logger.Int("count", n))
				}
			}
		}
	}()
}

// Create implements Store.Create.
func (s *MemoryStore) Create(_ context.Context, sess *Session) error {
	if sess == nil {
		return errors.New("create session: nil session")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	if s.maxSessions > 0 && len(s.sessions) >= s.maxSessions {
		metrics.RecordErrorByType("session_limit", "warning")
		return fmt.Errorf("%w: %d sessions", ErrCapacity, len(s.sessions))
	}
	if sess.ID == "" {
		sess.ID = uuid.NewString()
	}
	if _, exists := s.sessions[sess.ID]; exists {
		return fmt.Errorf("create session %s: id already in use", sess.ID)
	}

	now := s.now()
	sess.CreatedAt = now
	sess.LastSeen = now
	s.sessions[sess.ID] = &entry{session: sess}
	metrics.UpdateSessionsActive(len(s.sessions))
	return nil
}

func (s *MemoryStore) lookup(id string) (*entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}
	e, ok := s.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return e, nil
}

// View implements Store.View.
func (s *MemoryStore) View(_ context.Context, id string, fn func(*Session) error) error {
	e, err := s.lookup(id)
	if err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.deleted {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	e.session.LastSeen = s.now()
	return fn(e.session)
}

// Update implements Store.Update.
func (s *MemoryStore) Update(_ context.Context, id string, fn func(*Session) (bool, error)) error {
	e, err := s.lookup(id)
	if err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.deleted {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	e.session.LastSeen = s.now()
	changed, err := fn(e.session)
	if changed {
		e.session.Revision++
	}
	return err
}

// Delete implements Store.Delete.
func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	e, ok := s.sessions[id]
	if ok {
		delete(s.sessions, id)
	}
	count := len(s.sessions)
	s.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	e.mu.Lock()
	e.deleted = true
	e.mu.Unlock()
	metrics.UpdateSessionsActive(count)
	return nil
}

// Count implements Store.Count.
func (s *MemoryStore) Count(_ context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Sweep implements Store.Sweep. Sessions whose lock is held are in use and
// are skipped.
func (s *MemoryStore) Sweep(_ context.Context, now time.Time) int {
	if s.idleTTL <= 0 {
		return 0
	}
	cutoff := now.Add(-s.idleTTL)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0
	}

	removed := 0
	for id, e := range s.sessions {
		if !e.mu.TryLock() {
			continue
		}
		if e.session.LastSeen.Before(cutoff) {
			e.deleted = true
			delete(s.sessions, id)
			removed++
		}
		e.mu.Unlock()
	}

	if removed > 0 {
		metrics.RecordSessionsExpired(removed)
		metrics.UpdateSessionsActive(len(s.sessions))
	}
	return removed
}

// Close stops the janitor and rejects further calls.
func (s *MemoryStore) Close() error {
	select {
	case <-s.stopChan:
	default:
		close(s.stopChan)
	}
	s.wg.Wait()

	s.mu.Lock()
	s.closed = true
	s.sessions = make(map[string]*entry)
	s.mu.Unlock()
	metrics.UpdateSessionsActive(0)
	return nil
}

var _ Store = (*MemoryStore)(nil)
