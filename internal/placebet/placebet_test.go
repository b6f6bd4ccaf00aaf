package placebet

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/fatih/color"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/gridbet/internal/adapters/bettingapi"
	"github.com/okian/gridbet/internal/domain/assignment"
	"github.com/okian/gridbet/internal/domain/model"
	"github.com/okian/gridbet/pkg/logger"
)

func init() {
	color.NoColor = true
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

type fakeBackend struct {
	drivers   []model.Candidate
	prior     []model.ExistingPrediction
	betsErr   error
	standings []model.Standing
	submitted []model.Submission
}

func newFakeBackend(n int) *fakeBackend {
	b := &fakeBackend{}
	for i := 1; i <= n; i++ {
		b.drivers = append(b.drivers, model.Candidate{
			ID:        model.CandidateID(100 + i),
			Number:    i,
			FirstName: "Driver",
			LastName:  fmt.Sprintf("N%d", i),
			Team:      "Team",
		})
	}
	return b
}

func (b *fakeBackend) Drivers(context.Context, bettingapi.Credentials) ([]model.Candidate, error) {
	return b.drivers, nil
}

func (b *fakeBackend) MyBets(context.Context, bettingapi.Credentials, int) ([]model.ExistingPrediction, error) {
	return b.prior, b.betsErr
}

func (b *fakeBackend) ResolveBetType(_ context.Context, _ bettingapi.Credentials, code string) (model.BetType, error) {
	return model.BetType{ID: 7, Code: code, IsActive: true}, nil
}

func (b *fakeBackend) SubmitBet(_ context.Context, _ bettingapi.Credentials, sub model.Submission) (string, error) {
	b.submitted = append(b.submitted, sub)
	return fmt.Sprintf("Successfully created %d bets", len(sub.Predictions)), nil
}

func (b *fakeBackend) Standings(context.Context, bettingapi.Credentials, int) ([]model.Standing, error) {
	return b.standings, nil
}

func baseConfig() *Config {
	return &Config{
		BaseURL: "http://backend",
		RaceID:  12,
		BetType: "top10",
		Slots:   10,
		Timeout: time.Second,
	}
}

func TestParseRanking(t *testing.T) {
	Convey("Given ranking flag values", t, func() {
		Convey("When the list is well formed", func() {
			got, err := ParseRanking(" 1, 44 ,16")
			So(err, ShouldBeNil)
			So(got, ShouldResemble, []int{1, 44, 16})
		})

		Convey("When the list is blank", func() {
			got, err := ParseRanking("  ")
			So(err, ShouldBeNil)
			So(got, ShouldBeEmpty)
		})

		Convey("When a number is malformed or repeated", func() {
			_, err := ParseRanking("1,x")
			So(errors.Is(err, ErrUsage), ShouldBeTrue)

			_, err = ParseRanking("1,2,1")
			So(errors.Is(err, ErrUsage), ShouldBeTrue)
		})
	})
}

func TestConfigValidate(t *testing.T) {
	Convey("Given a run config", t, func() {
		cfg := baseConfig()
		So(cfg.Validate(), ShouldBeNil)

		Convey("Then a missing race is rejected", func() {
			cfg.RaceID = 0
			So(errors.Is(cfg.Validate(), ErrUsage), ShouldBeTrue)

			Convey("Unless only standings are requested", func() {
				cfg.Standings = 1
				So(cfg.Validate(), ShouldBeNil)
			})
		})

		Convey("Then a ranking longer than the slots is rejected", func() {
			cfg.Slots = 2
			cfg.Ranking = []int{1, 2, 3}
			So(errors.Is(cfg.Validate(), ErrUsage), ShouldBeTrue)
		})
	})
}

func TestRun(t *testing.T) {
	ctx := context.Background()

	Convey("Given a backend with twelve drivers", t, func() {
		backend := newFakeBackend(12)
		cfg := baseConfig()
		var out bytes.Buffer

		Convey("When a full ranking is submitted", func() {
			cfg.Ranking = []int{10, 9, 8, 7, 6, 5, 4, 3, 2, 1}
			report, err := Run(ctx, cfg, backend, &out)

			Convey("Then the backend receives it in rank order", func() {
				So(err, ShouldBeNil)
				So(report.Submitted, ShouldBeTrue)
				So(report.Filled, ShouldEqual, 10)
				So(backend.submitted, ShouldHaveLength, 1)
				sub := backend.submitted[0]
				So(sub.Race, ShouldEqual, 12)
				So(sub.BetType, ShouldEqual, 7)
				So(sub.Predictions[0], ShouldResemble, model.Prediction{Driver: 110, Position: 1})
				So(sub.Predictions[9], ShouldResemble, model.Prediction{Driver: 101, Position: 10})
				So(out.String(), ShouldContainSubstring, "Successfully created 10 bets")
				So(out.String(), ShouldContainSubstring, "Available drivers (2)")
			})
		})

		Convey("When a stored bet exists", func() {
			for i := 1; i <= 10; i++ {
				backend.prior = append(backend.prior, model.ExistingPrediction{
					Driver: model.CandidateID(100 + i), PredictedPosition: i,
				})
			}
			cfg.Ranking = []int{12}
			report, err := Run(ctx, cfg, backend, &out)

			Convey("Then the ranking edits it in place", func() {
				So(err, ShouldBeNil)
				So(report.Prefilled, ShouldEqual, 10)
				So(backend.submitted[0].Predictions[0].Driver, ShouldEqual, model.CandidateID(112))
				So(backend.submitted[0].Predictions[1].Driver, ShouldEqual, model.CandidateID(102))
			})
		})

		Convey("When the ranking reorders drivers of the stored bet", func() {
			for i := 1; i <= 10; i++ {
				backend.prior = append(backend.prior, model.ExistingPrediction{
					Driver: model.CandidateID(100 + i), PredictedPosition: i,
				})
			}
			cfg.Ranking = []int{5, 1}
			_, err := Run(ctx, cfg, backend, &out)

			Convey("Then moved drivers trade places with the occupants", func() {
				So(err, ShouldBeNil)
				preds := backend.submitted[0].Predictions
				So(preds[0].Driver, ShouldEqual, model.CandidateID(105))
				So(preds[1].Driver, ShouldEqual, model.CandidateID(101))
				So(preds[4].Driver, ShouldEqual, model.CandidateID(102))
			})
		})

		Convey("When append mode is used on a partial stored bet", func() {
			backend.prior = []model.ExistingPrediction{{Driver: 101, PredictedPosition: 1}}
			cfg.Append = true
			cfg.DryRun = true
			cfg.Ranking = []int{1, 5, 6}
			report, err := Run(ctx, cfg, backend, &out)

			Convey("Then drivers fill the next empty positions", func() {
				So(err, ShouldBeNil)
				So(report.Filled, ShouldEqual, 3)
				So(report.Submitted, ShouldBeFalse)
				So(out.String(), ShouldContainSubstring, "Dry run")
			})
		})

		Convey("When the stored bet cannot be loaded", func() {
			backend.betsErr = errors.New("boom")
			cfg.DryRun = true
			report, err := Run(ctx, cfg, backend, &out)

			Convey("Then the run continues with an empty form", func() {
				So(err, ShouldBeNil)
				So(report.Prefilled, ShouldEqual, 0)
			})
		})

		Convey("When the ranking is incomplete", func() {
			cfg.Ranking = []int{1, 2, 3}
			_, err := Run(ctx, cfg, backend, &out)

			Convey("Then nothing is submitted", func() {
				So(errors.Is(err, assignment.ErrIncompleteAssignment), ShouldBeTrue)
				So(backend.submitted, ShouldBeEmpty)
				So(out.String(), ShouldContainSubstring, "3 placed")
			})
		})

		Convey("When the ranking names an unknown number", func() {
			cfg.Ranking = []int{99}
			_, err := Run(ctx, cfg, backend, &out)
			So(errors.Is(err, ErrUnknownDriver), ShouldBeTrue)
		})

		Convey("When standings are requested", func() {
			backend.standings = []model.Standing{
				{Rank: 1, UserDisplayName: "Max", TotalPoints: 42, RacesPredicted: 3},
				{Rank: 2, UserEmail: "lando@example.com", TotalPoints: 30, RacesPredicted: 3},
			}
			cfg.Standings = 1
			_, err := Run(ctx, cfg, backend, &out)

			Convey("Then the leaderboard is printed", func() {
				So(err, ShouldBeNil)
				So(out.String(), ShouldContainSubstring, "Standings for competition 1")
				So(out.String(), ShouldContainSubstring, "Max")
				So(out.String(), ShouldContainSubstring, "lando@example.com")
			})
		})
	})
}
