// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/okian/gridbet/internal/adapters/bettingapi"
	"github.com/okian/gridbet/internal/domain/assignment"
	"github.com/okian/gridbet/internal/domain/model"
	"github.com/okian/gridbet/internal/domain/types"
	"github.com/okian/gridbet/pkg/metrics"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	OpenSession(ctx context.Context, creds bettingapi.Credentials, raceID int) (types.SessionView, error)
	Session(ctx context.Context, id string) (types.SessionView, error)
	CloseSession(ctx context.Context, id string) error

	Place(ctx context.Context, id string, driver model.CandidateID, pos int) (types.SessionView, error)
	PlaceFirstEmpty(ctx context.Context, id string, driver model.CandidateID) (types.PlacedView, error)
	Swap(ctx context.Context, id string, from, to int) (types.SessionView, error)
	Remove(ctx context.Context, id string, pos int) (types.SessionView, error)
	Clear(ctx context.Context, id string) (types.SessionView, error)
	Drop(ctx context.Context, id string, src assignment.Source, target int) (types.DropView, error)

	Submit(ctx context.Context, id string) (types.SubmitResult, error)
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler   *HealthHandler
	statsHandler    *StatsHandler
	sessionsHandler *SessionsHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider) *Server {
	return &Server{
		healthHandler:   NewHealthHandler(metrics.GetRegistry()),
		statsHandler:    NewStatsHandler(statsProvider),
		sessionsHandler: NewSessionsHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(mux *http.ServeMux) {
	h := s.sessionsHandler
	routes := []struct {
		pattern  string
		endpoint string
		handler  http.HandlerFunc
	}{
		{"GET /healthz", "healthz", s.healthHandler.HandleHealth},
		{"GET /stats", "stats", s.statsHandler.HandleStats},
		{"POST /sessions", "sessions_open", h.HandleOpen},
		{"GET /sessions/{id}", "sessions_get", h.HandleGet},
		{"DELETE /sessions/{id}", "sessions_close", h.HandleClose},
		{"POST /sessions/{id}/place", "place", h.HandlePlace},
		{"POST /sessions/{id}/place-first", "place_first", h.HandlePlaceFirst},
		{"POST /sessions/{id}/swap", "swap", h.HandleSwap},
		{"POST /sessions/{id}/remove", "remove", h.HandleRemove},
		{"POST /sessions/{id}/clear", "clear", h.HandleClear},
		{"POST /sessions/{id}/drop", "drop", h.HandleDrop},
		{"POST /sessions/{id}/submit", "submit", h.HandleSubmit},
	}
	for _, rt := range routes {
		mux.HandleFunc(rt.pattern, MetricsMiddleware(rt.handler, rt.endpoint))
	}
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Filled  *int   `json:"filled,omitempty"`
	Size    *int   `json:"size,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}
