package placebet

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/okian/gridbet/internal/adapters/bettingapi"
	"github.com/okian/gridbet/internal/domain/assignment"
	"github.com/okian/gridbet/internal/domain/model"
	"github.com/okian/gridbet/pkg/logger"
)

// Backend is the part of the betting backend a run talks to.
type Backend interface {
	Drivers(ctx context.Context, creds bettingapi.Credentials) ([]model.Candidate, error)
	MyBets(ctx context.Context, creds bettingapi.Credentials, raceID int) ([]model.ExistingPrediction, error)
	ResolveBetType(ctx context.Context, creds bettingapi.Credentials, code string) (model.BetType, error)
	SubmitBet(ctx context.Context, creds bettingapi.Credentials, sub model.Submission) (string, error)
	Standings(ctx context.Context, creds bettingapi.Credentials, competitionID int) ([]model.Standing, error)
}

// Report summarizes a run.
type Report struct {
	Drivers   int
	Prefilled int
	Filled    int
	Submitted bool
	Message   string
	Duration  time.Duration
}

// Run executes one run against backend and writes tables to out.
func Run(ctx context.Context, cfg *Config, backend Backend, out io.Writer) (*Report, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	report := &Report{}
	start := time.Now()
	defer func() { report.Duration = time.Since(start) }()

	if cfg.Standings > 0 {
		return report, showStandings(ctx, cfg, backend, out)
	}

	logger.Get().Info(ctx, "loading race",
		logger.String("baseURL", cfg.BaseURL),
		logger.Int("race", cfg.RaceID),
		logger.Int("slots", cfg.Slots))

	drivers, prior, err := load(ctx, cfg, backend)
	if err != nil {
		return nil, fmt.Errorf("load race: %w", err)
	}
	report.Drivers = len(drivers)

	a := assignment.New(assignment.WithSize(cfg.Slots))
	a.Load(drivers)
	report.Prefilled = a.Prefill(prior)
	if report.Prefilled > 0 {
		logger.Get().Info(ctx, "editing stored bet", logger.Int("positions", report.Prefilled))
	}

	if err := applyRanking(a, drivers, cfg.Ranking, cfg.Append); err != nil {
		return nil, err
	}
	report.Filled = a.Filled()

	renderSlots(out, a)
	renderPool(out, a)

	if cfg.DryRun {
		_, _ = success.Fprintln(out, "\nDry run, nothing submitted.")
		return report, nil
	}

	msg, err := submit(ctx, cfg, backend, a)
	if err != nil {
		var incomplete *assignment.IncompleteError
		if errors.As(err, &incomplete) {
			_, _ = warning.Fprintf(out, "\nPlace all %d drivers before submitting (%d placed).\n", incomplete.Size, incomplete.Filled)
		}
		return nil, err
	}
	report.Submitted = true
	report.Message = msg
	_, _ = success.Fprintf(out, "\n%s\n", msg)

	logger.Get().Info(ctx, "bet submitted", logger.Int("race", cfg.RaceID), logger.Int("positions", report.Filled))
	return report, nil
}

// load fetches the drivers and the stored bet concurrently. A failing bet
// lookup only means there is nothing to edit.
func load(ctx context.Context, cfg *Config, backend Backend) ([]model.Candidate, []model.ExistingPrediction, error) {
	creds := cfg.Credentials()
	var (
		drivers []model.Candidate
		prior   []model.ExistingPrediction
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		drivers, err = backend.Drivers(gctx, creds)
		return err
	})
	g.Go(func() error {
		rows, err := backend.MyBets(gctx, creds, cfg.RaceID)
		if err != nil {
			if gctx.Err() != nil {
				return gctx.Err()
			}
			logger.Get().Warn(gctx, "could not load stored bet", logger.Int("race", cfg.RaceID), logger.Error(err))
			return nil
		}
		prior = rows
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return drivers, prior, nil
}

// applyRanking places drivers by car number. Without appendMode the i-th
// number goes to position i+1; with it each unplaced driver goes to the first
// empty position.
func applyRanking(a *assignment.Assignment, drivers []model.Candidate, numbers []int, appendMode bool) error {
	byNumber := make(map[int]model.CandidateID, len(drivers))
	for _, d := range drivers {
		if _, ok := byNumber[d.Number]; !ok {
			byNumber[d.Number] = d.ID
		}
	}
	for i, n := range numbers {
		id, ok := byNumber[n]
		if !ok {
			return fmt.Errorf("%w: #%d", ErrUnknownDriver, n)
		}
		if appendMode {
			if a.PositionOf(id) != 0 {
				continue
			}
			if _, err := a.PlaceFirstEmpty(id); err != nil {
				return fmt.Errorf("place #%d: %w", n, err)
			}
			continue
		}
		pos := i + 1
		// A driver kept from the stored bet moves; the target's occupant takes its old place.
		if at := a.PositionOf(id); at != 0 {
			if err := a.Swap(at, pos); err != nil {
				return fmt.Errorf("move #%d to P%d: %w", n, pos, err)
			}
			continue
		}
		if err := a.Place(id, pos); err != nil {
			return fmt.Errorf("place #%d at P%d: %w", n, pos, err)
		}
	}
	return nil
}

func submit(ctx context.Context, cfg *Config, backend Backend, a *assignment.Assignment) (string, error) {
	if _, err := a.Serialize(); err != nil {
		return "", err
	}
	creds := cfg.Credentials()
	bt, err := backend.ResolveBetType(ctx, creds, cfg.BetType)
	if err != nil {
		return "", fmt.Errorf("resolve bet type: %w", err)
	}
	sub, err := a.Submission(cfg.RaceID, bt.ID)
	if err != nil {
		return "", err
	}
	msg, err := backend.SubmitBet(ctx, creds, sub)
	if err != nil {
		return "", fmt.Errorf("submit bet: %w", err)
	}
	return msg, nil
}

func showStandings(ctx context.Context, cfg *Config, backend Backend, out io.Writer) error {
	rows, err := backend.Standings(ctx, cfg.Credentials(), cfg.Standings)
	if err != nil {
		return fmt.Errorf("load standings: %w", err)
	}
	renderStandings(out, cfg.Standings, rows)
	return nil
}
