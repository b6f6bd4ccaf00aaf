// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/okian/gridbet/internal/adapters/bettingapi"
	"github.com/okian/gridbet/internal/adapters/repository"
	"github.com/okian/gridbet/internal/domain/assignment"
	"github.com/okian/gridbet/internal/domain/dedupe"
	"github.com/okian/gridbet/internal/domain/model"
	"github.com/okian/gridbet/internal/domain/types"
	"github.com/okian/gridbet/pkg/logger"
	"github.com/okian/gridbet/pkg/metrics"
)

// Upstream is the part of the betting backend the service relies on.
// *bettingapi.Client implements it.
type Upstream interface {
	Drivers(ctx context.Context, creds bettingapi.Credentials) ([]model.Candidate, error)
	MyBets(ctx context.Context, creds bettingapi.Credentials, raceID int) ([]model.ExistingPrediction, error)
	ResolveBetType(ctx context.Context, creds bettingapi.Credentials, code string) (model.BetType, error)
	SubmitBet(ctx context.Context, creds bettingapi.Credentials, sub model.Submission) (string, error)
}

// Submission outcomes, used as metric labels and in SubmitResult.Status.
const (
	OutcomeSent       = "submitted"
	OutcomeDuplicate  = "duplicate"
	OutcomeIncomplete = "incomplete"
	OutcomeRejected   = "rejected"
	OutcomeFailed     = "failed"
)

// Service owns ranking sessions and talks to the betting backend.
type Service struct {
	mu sync.RWMutex

	// Core components
	store     repository.Store
	ownsStore bool
	deduper   dedupe.Deduper
	upstream  Upstream
	inflight  singleflight.Group

	// Configuration
	slotCount   int
	betTypeCode string
	dedupeSize  int

	// State
	started bool

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(logger logger.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithUpstream sets the betting backend.
func WithUpstream(u Upstream) Option {
	return func(s *Service) {
		s.upstream = u
	}
}

// WithStore injects a session store. Without it Start creates an in-memory
// store that Stop closes.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		s.store = store
	}
}

// WithSlotCount sets the number of ranked positions per session.
func WithSlotCount(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.slotCount = n
		}
	}
}

// WithBetTypeCode sets the bet type resolved at submission.
func WithBetTypeCode(code string) Option {
	return func(s *Service) {
		if code != "" {
			s.betTypeCode = code
		}
	}
}

// WithDedupeSize sets how many submission fingerprints are remembered.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		slotCount:   assignment.DefaultSize,
		betTypeCode: "top10",
		dedupeSize:  10_000,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start initializes the service components.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Get()
	}
	if s.upstream == nil {
		return ErrNoUpstream
	}

	s.logger.Info(ctx, "starting ranking service...")

	if s.store == nil {
		s.store = repository.NewMemoryStore(ctx, repository.WithLogger(s.logger.Named("store")))
		s.ownsStore = true
	}
	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))

	s.started = true
	s.logger.Info(ctx, "ranking service started",
		logger.Int("slots", s.slotCount),
		logger.String("betType", s.betTypeCode),
		logger.Int("dedupeSize", s.dedupeSize),
	)
	return nil
}

// Stop shuts down the service. Sessions held by an owned store are discarded.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	s.logger.Info(context.Background(), "stopping ranking service...")

	if s.ownsStore && s.store != nil {
		_ = s.store.Close()
		s.store = nil
		s.ownsStore = false
	}

	s.started = false
	s.logger.Info(context.Background(), "ranking service stopped")
}

func (s *Service) components() (repository.Store, dedupe.Deduper, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return nil, nil, ErrNotStarted
	}
	return s.store, s.deduper, nil
}

// OpenSession loads the driver pool and the caller's existing bet for the
// race, then registers a new session. Nothing is registered until both loads
// have finished. A failure to read the existing bet is logged and the
// session starts empty.
func (s *Service) OpenSession(ctx context.Context, creds bettingapi.Credentials, raceID int) (types.SessionView, error) {
	store, _, err := s.components()
	if err != nil {
		return types.SessionView{}, err
	}
	if raceID <= 0 {
		return types.SessionView{}, fmt.Errorf("%w: %d", ErrInvalidRace, raceID)
	}

	var (
		drivers []model.Candidate
		prior   []model.ExistingPrediction
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		d, err := s.upstream.Drivers(gctx, creds)
		if err != nil {
			return fmt.Errorf("load drivers: %w", err)
		}
		drivers = d
		return nil
	})
	g.Go(func() error {
		rows, err := s.upstream.MyBets(gctx, creds, raceID)
		if err != nil {
			if gctx.Err() != nil {
				return gctx.Err()
			}
			s.logger.Warn(ctx, "could not load existing bet, starting empty",
				logger.Int("race", raceID), logger.Error(err))
			return nil
		}
		prior = rows
		return nil
	})
	if err := g.Wait(); err != nil {
		metrics.RecordOperation("open", "upstream_error")
		return types.SessionView{}, err
	}

	a := assignment.New(assignment.WithSize(s.slotCount))
	a.Load(drivers)
	applied := a.Prefill(prior)

	sess := &repository.Session{
		RaceID:     raceID,
		Creds:      creds,
		Assignment: a,
		Editing:    applied > 0,
	}
	if err := store.Create(ctx, sess); err != nil {
		metrics.RecordOperation("open", resultLabel(err))
		return types.SessionView{}, err
	}

	metrics.RecordOperation("open", "ok")
	metrics.RecordSessionOpened(applied)
	s.logger.Info(ctx, "session opened",
		logger.String("session", sess.ID),
		logger.Int("race", raceID),
		logger.Int("drivers", len(drivers)),
		logger.Int("prefilled", applied),
	)
	return types.NewSessionView(sess.ID, sess.RaceID, sess.Editing, sess.Revision, a), nil
}

// Session returns the current view of a session.
func (s *Service) Session(ctx context.Context, id string) (types.SessionView, error) {
	store, _, err := s.components()
	if err != nil {
		return types.SessionView{}, err
	}
	var view types.SessionView
	err = store.View(ctx, id, func(sess *repository.Session) error {
		view = viewOf(sess, sess.Revision)
		return nil
	})
	return view, err
}

// CloseSession discards a session without submitting it.
func (s *Service) CloseSession(ctx context.Context, id string) error {
	store, _, err := s.components()
	if err != nil {
		return err
	}
	if err := store.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Debug(ctx, "session closed", logger.String("session", id))
	return nil
}

// Place puts a driver at a position, evicting any occupant to the pool.
func (s *Service) Place(ctx context.Context, id string, driver model.CandidateID, pos int) (types.SessionView, error) {
	return s.mutate(ctx, id, "place", func(a *assignment.Assignment) (bool, error) {
		before := a.PositionOf(driver)
		if err := a.Place(driver, pos); err != nil {
			return false, err
		}
		return before != pos, nil
	})
}

// PlaceFirstEmpty puts a driver at the lowest empty position.
func (s *Service) PlaceFirstEmpty(ctx context.Context, id string, driver model.CandidateID) (types.PlacedView, error) {
	var pos int
	view, err := s.mutate(ctx, id, "place_first", func(a *assignment.Assignment) (bool, error) {
		p, err := a.PlaceFirstEmpty(driver)
		if err != nil {
			return false, err
		}
		pos = p
		return true, nil
	})
	if err != nil {
		return types.PlacedView{}, err
	}
	return types.PlacedView{Position: pos, Session: view}, nil
}

// Swap exchanges the contents of two positions.
func (s *Service) Swap(ctx context.Context, id string, from, to int) (types.SessionView, error) {
	return s.mutate(ctx, id, "swap", func(a *assignment.Assignment) (bool, error) {
		if err := a.Swap(from, to); err != nil {
			return false, err
		}
		return from != to, nil
	})
}

// Remove empties a position, returning its driver to the pool.
func (s *Service) Remove(ctx context.Context, id string, pos int) (types.SessionView, error) {
	return s.mutate(ctx, id, "remove", func(a *assignment.Assignment) (bool, error) {
		_, removed, err := a.Remove(pos)
		return removed, err
	})
}

// Clear empties every position.
func (s *Service) Clear(ctx context.Context, id string) (types.SessionView, error) {
	return s.mutate(ctx, id, "clear", func(a *assignment.Assignment) (bool, error) {
		had := a.Filled() > 0
		a.Clear()
		return had, nil
	})
}

// Drop resolves a drag-and-drop gesture onto target.
func (s *Service) Drop(ctx context.Context, id string, src assignment.Source, target int) (types.DropView, error) {
	var result assignment.DropResult
	view, err := s.mutate(ctx, id, "drop", func(a *assignment.Assignment) (bool, error) {
		r, err := a.Drop(src, target)
		if err != nil {
			return false, err
		}
		result = r
		return r != assignment.DropIgnored, nil
	})
	if err != nil {
		return types.DropView{}, err
	}
	return types.DropView{Action: result.String(), Session: view}, nil
}

// mutate applies fn under the session lock and returns the resulting view.
func (s *Service) mutate(ctx context.Context, id, op string, fn func(*assignment.Assignment) (bool, error)) (types.SessionView, error) {
	store, _, err := s.components()
	if err != nil {
		return types.SessionView{}, err
	}

	var view types.SessionView
	err = store.Update(ctx, id, func(sess *repository.Session) (bool, error) {
		changed, err := fn(sess.Assignment)
		if err != nil {
			return false, err
		}
		rev := sess.Revision
		if changed {
			rev++
		}
		view = viewOf(sess, rev)
		return changed, nil
	})
	metrics.RecordOperation(op, resultLabel(err))
	if err != nil {
		s.logger.Debug(ctx, "operation rejected",
			logger.String("op", op), logger.String("session", id), logger.Error(err))
		return types.SessionView{}, err
	}
	return view, nil
}

// errAlreadySent is returned inside the submission flight when another
// caller finished sending the same fingerprint first.
var errAlreadySent = errors.New("already sent")

// Submit sends the completed ranking to the backend once per revision.
// Resubmitting an unchanged session is acknowledged as a duplicate without
// calling the backend. Concurrent submissions of one revision share a single
// send; a fingerprint is only recorded once that send succeeds, so a failed
// submission may be retried by the caller.
func (s *Service) Submit(ctx context.Context, id string) (types.SubmitResult, error) {
	start := time.Now()
	store, deduper, err := s.components()
	if err != nil {
		return types.SubmitResult{}, err
	}

	var (
		preds       []model.Prediction
		creds       bettingapi.Credentials
		raceID      int
		fingerprint string
	)
	err = store.View(ctx, id, func(sess *repository.Session) error {
		p, err := sess.Assignment.Serialize()
		if err != nil {
			return err
		}
		preds, creds, raceID = p, sess.Creds, sess.RaceID
		fingerprint = fmt.Sprintf("%s@%d", sess.ID, sess.Revision)
		return nil
	})
	if err != nil {
		if errors.Is(err, assignment.ErrIncompleteAssignment) {
			s.recordSubmission(OutcomeIncomplete, start)
		}
		return types.SubmitResult{}, err
	}

	if deduper.Seen(ctx, fingerprint) {
		return s.duplicate(ctx, fingerprint, start), nil
	}

	leader := false
	v, err, _ := s.inflight.Do(fingerprint, func() (interface{}, error) {
		leader = true
		if deduper.Seen(ctx, fingerprint) {
			return "", errAlreadySent
		}
		msg, err := s.send(ctx, creds, raceID, preds)
		if err != nil {
			return "", err
		}
		deduper.SeenAndRecord(ctx, fingerprint)
		return msg, nil
	})
	if errors.Is(err, errAlreadySent) || (err == nil && !leader) {
		return s.duplicate(ctx, fingerprint, start), nil
	}
	if err != nil {
		outcome := OutcomeFailed
		var apiErr *bettingapi.APIError
		if errors.As(err, &apiErr) && apiErr.Status < 500 {
			outcome = OutcomeRejected
		}
		s.recordSubmission(outcome, start)
		s.logger.Warn(ctx, "bet submission failed",
			logger.String("session", id), logger.Int("race", raceID), logger.Error(err))
		return types.SubmitResult{}, err
	}

	// The bet now exists upstream; later submissions edit it.
	_ = store.Update(ctx, id, func(sess *repository.Session) (bool, error) {
		sess.Editing = true
		return false, nil
	})

	s.recordSubmission(OutcomeSent, start)
	s.logger.Info(ctx, "bet submitted",
		logger.String("session", id), logger.Int("race", raceID), logger.Int("positions", len(preds)))
	msg, _ := v.(string)
	return types.SubmitResult{Status: OutcomeSent, Message: msg}, nil
}

func (s *Service) duplicate(ctx context.Context, fingerprint string, start time.Time) types.SubmitResult {
	s.recordSubmission(OutcomeDuplicate, start)
	s.logger.Debug(ctx, "duplicate submission acknowledged", logger.String("fingerprint", fingerprint))
	return types.SubmitResult{Status: OutcomeDuplicate, Duplicate: true}
}

func (s *Service) send(ctx context.Context, creds bettingapi.Credentials, raceID int, preds []model.Prediction) (string, error) {
	bt, err := s.upstream.ResolveBetType(ctx, creds, s.betTypeCode)
	if err != nil {
		return "", err
	}
	return s.upstream.SubmitBet(ctx, creds, model.Submission{Race: raceID, BetType: bt.ID, Predictions: preds})
}

func (s *Service) recordSubmission(outcome string, start time.Time) {
	metrics.RecordSubmission(outcome, float64(time.Since(start).Nanoseconds())/1e6)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":     s.started,
		"slotCount":   s.slotCount,
		"betTypeCode": s.betTypeCode,
		"dedupeSize":  s.dedupeSize,
	}

	if s.started {
		sessions := s.store.Count(context.Background())
		stats["sessions"] = sessions
		stats["fingerprints"] = s.deduper.Size()
		metrics.UpdateSessionsActive(sessions)
	}

	return stats
}

// Size returns the current number of entries in the deduper.
func (s *Service) Size() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.deduper == nil {
		return 0
	}
	return s.deduper.Size()
}

func viewOf(sess *repository.Session, revision uint64) types.SessionView {
	return types.NewSessionView(sess.ID, sess.RaceID, sess.Editing, revision, sess.Assignment)
}

// resultLabel maps an operation error to a metric label.
func resultLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, assignment.ErrInvalidPosition):
		return "invalid_position"
	case errors.Is(err, assignment.ErrDuplicateCandidate):
		return "duplicate_candidate"
	case errors.Is(err, assignment.ErrNoEmptySlot):
		return "no_empty_slot"
	case errors.Is(err, assignment.ErrUnknownCandidate):
		return "unknown_candidate"
	case errors.Is(err, repository.ErrNotFound):
		return "not_found"
	case errors.Is(err, repository.ErrCapacity):
		return "session_limit"
	default:
		return "error"
	}
}
