package service_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/okian/gridbet/internal/adapters/bettingapi"
	service "github.com/okian/gridbet/internal/app"
	"github.com/okian/gridbet/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

// backend imitates the betting REST API closely enough for an end-to-end run:
// paginated driver list, driver_number field, CSRF check and bulk_create.
type backend struct {
	mu     sync.Mutex
	bets   map[int][]model.Prediction
	closed map[int]bool
}

func newBackend() *backend {
	return &backend{bets: make(map[int][]model.Prediction), closed: make(map[int]bool)}
}

func (b *backend) stored(race int) []model.Prediction {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.bets[race]
}

func (b *backend) closeRace(race int) {
	b.mu.Lock()
	b.closed[race] = true
	b.mu.Unlock()
}

func (b *backend) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/drivers/", func(w http.ResponseWriter, _ *http.Request) {
		var rows []string
		for i := 1; i <= 20; i++ {
			rows = append(rows, fmt.Sprintf(`{"id": %d, "driver_number": %d, "first_name": "F%d", "last_name": "L%d", "team": "T"}`, i+100, i, i, i))
		}
		_, _ = fmt.Fprintf(w, `{"count": 20, "results": [%s]}`, strings.Join(rows, ","))
	})
	mux.HandleFunc("GET /api/bets/my_bets/", func(w http.ResponseWriter, r *http.Request) {
		var race int
		_, _ = fmt.Sscanf(r.URL.Query().Get("race"), "%d", &race)
		b.mu.Lock()
		defer b.mu.Unlock()
		out := make([]map[string]any, 0)
		for _, p := range b.bets[race] {
			out = append(out, map[string]any{"driver": p.Driver, "predicted_position": p.Position, "bet_type": 1})
		}
		_ = json.NewEncoder(w).Encode(out)
	})
	mux.HandleFunc("GET /api/bet-types/", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`[{"id": 1, "name": "Top 10", "code": "top10", "is_active": true}]`))
	})
	mux.HandleFunc("POST /api/bets/bulk_create/", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-CSRFToken") == "" {
			w.WriteHeader(http.StatusForbidden)
			_, _ = w.Write([]byte(`{"detail": "CSRF Failed: CSRF token missing."}`))
			return
		}
		var sub model.Submission
		if err := json.NewDecoder(r.Body).Decode(&sub); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		b.mu.Lock()
		defer b.mu.Unlock()
		if b.closed[sub.Race] {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"non_field_errors": ["Betting is closed for this race"]}`))
			return
		}
		b.bets[sub.Race] = sub.Predictions
		w.WriteHeader(http.StatusCreated)
		_, _ = fmt.Fprintf(w, `{"message": "Successfully created %d bets"}`, len(sub.Predictions))
	})
	return mux
}

func TestServiceIntegration(t *testing.T) {
	Convey("Given a service wired to a betting backend", t, func() {
		b := newBackend()
		srv := httptest.NewServer(b.handler())
		defer srv.Close()

		client := bettingapi.New(srv.URL, bettingapi.WithTimeout(5*time.Second))
		svc := service.New(service.WithUpstream(client))
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()

		user := bettingapi.Credentials{Cookie: "sessionid=s; csrftoken=c", CSRFToken: "c"}

		Convey("When a user ranks ten drivers and submits", func() {
			view, err := svc.OpenSession(ctx, user, 12)
			So(err, ShouldBeNil)
			So(view.Editing, ShouldBeFalse)
			So(view.Available, ShouldHaveLength, 20)
			So(view.Available[0].Number, ShouldEqual, 1)

			for i := 10; i >= 1; i-- {
				_, err := svc.PlaceFirstEmpty(ctx, view.ID, model.CandidateID(100+i))
				So(err, ShouldBeNil)
			}
			res, err := svc.Submit(ctx, view.ID)

			Convey("Then the backend stores the ranking", func() {
				So(err, ShouldBeNil)
				So(res.Message, ShouldEqual, "Successfully created 10 bets")
				stored := b.stored(12)
				So(stored, ShouldHaveLength, 10)
				So(stored[0], ShouldResemble, model.Prediction{Driver: 110, Position: 1})
				So(stored[9], ShouldResemble, model.Prediction{Driver: 101, Position: 10})
			})

			Convey("And reopening the race restores it for editing", func() {
				again, err := svc.OpenSession(ctx, user, 12)
				So(err, ShouldBeNil)
				So(again.ID, ShouldNotEqual, view.ID)
				So(again.Editing, ShouldBeTrue)
				So(again.Complete, ShouldBeTrue)
				So(again.Slots[0].Driver.ID, ShouldEqual, 110)
				So(again.Available, ShouldHaveLength, 10)
			})
		})

		Convey("When betting has closed for the race", func() {
			b.closeRace(3)
			view, err := svc.OpenSession(ctx, user, 3)
			So(err, ShouldBeNil)
			for i := 1; i <= 10; i++ {
				_, err := svc.Place(ctx, view.ID, model.CandidateID(100+i), i)
				So(err, ShouldBeNil)
			}
			_, err = svc.Submit(ctx, view.ID)

			Convey("Then the backend message reaches the caller", func() {
				var apiErr *bettingapi.APIError
				So(err, ShouldNotBeNil)
				So(errors.As(err, &apiErr), ShouldBeTrue)
				So(apiErr.Status, ShouldEqual, http.StatusBadRequest)
				So(apiErr.Text(), ShouldEqual, "Betting is closed for this race")
			})
		})

		Convey("When the CSRF token is missing", func() {
			view, err := svc.OpenSession(ctx, bettingapi.Credentials{Cookie: "sessionid=s"}, 5)
			So(err, ShouldBeNil)
			for i := 1; i <= 10; i++ {
				_, err := svc.Place(ctx, view.ID, model.CandidateID(100+i), i)
				So(err, ShouldBeNil)
			}
			_, err = svc.Submit(ctx, view.ID)

			Convey("Then the submission is refused", func() {
				var apiErr *bettingapi.APIError
				So(errors.As(err, &apiErr), ShouldBeTrue)
				So(apiErr.Status, ShouldEqual, http.StatusForbidden)
			})
		})
	})
}
