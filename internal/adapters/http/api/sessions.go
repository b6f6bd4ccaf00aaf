package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/okian/gridbet/internal/adapters/bettingapi"
	"github.com/okian/gridbet/internal/domain/assignment"
	"github.com/okian/gridbet/internal/domain/model"
	"github.com/okian/gridbet/internal/domain/types"
)

const (
	maxBodyBytes = 1 << 16
	csrfHeader   = "X-CSRFToken"
	csrfCookie   = "csrftoken"
)

// SessionsHandler serves the ranking session routes.
type SessionsHandler struct {
	deps Dependencies
}

// NewSessionsHandler creates a new sessions handler.
func NewSessionsHandler(deps Dependencies) *SessionsHandler {
	return &SessionsHandler{deps: deps}
}

type openRequest struct {
	RaceID int `json:"race_id"`
}

type placeRequest struct {
	DriverID model.CandidateID `json:"driver_id"`
	Position int               `json:"position"`
}

type placeFirstRequest struct {
	DriverID model.CandidateID `json:"driver_id"`
}

type swapRequest struct {
	From int `json:"from"`
	To   int `json:"to"`
}

type removeRequest struct {
	Position int `json:"position"`
}

// dropRequest carries exactly one of DriverID (drag from the pool) or
// FromPosition (drag from a slot).
type dropRequest struct {
	DriverID     *model.CandidateID `json:"driver_id"`
	FromPosition *int               `json:"from_position"`
	Target       int                `json:"target"`
}

func (d dropRequest) source() (assignment.Source, error) {
	switch {
	case d.DriverID != nil && d.FromPosition != nil:
		return assignment.Source{}, errors.New("driver_id and from_position are mutually exclusive")
	case d.DriverID != nil:
		return assignment.FromPool(*d.DriverID), nil
	case d.FromPosition != nil:
		return assignment.FromSlot(*d.FromPosition), nil
	default:
		return assignment.Source{}, errors.New("missing driver_id or from_position")
	}
}

// decode reads a JSON body into v.
func decode(r *http.Request, v any) error {
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("empty request body")
		}
		return fmt.Errorf("invalid JSON: %w", err)
	}
	return nil
}

// credentials forwards the caller's backend session. The CSRF token falls
// back to the csrftoken cookie when the header is absent.
func credentials(r *http.Request) bettingapi.Credentials {
	creds := bettingapi.Credentials{
		Cookie:    r.Header.Get("Cookie"),
		CSRFToken: strings.TrimSpace(r.Header.Get(csrfHeader)),
	}
	if creds.CSRFToken == "" {
		if c, err := r.Cookie(csrfCookie); err == nil {
			creds.CSRFToken = c.Value
		}
	}
	return creds
}

// HandleOpen handles POST /sessions.
func (h *SessionsHandler) HandleOpen(w http.ResponseWriter, r *http.Request) {
	const op = "api.open_session"
	var req openRequest
	if err := decode(r, &req); err != nil {
		writeFailure(w, WrapKind(op, ErrBadRequest, err))
		return
	}
	if req.RaceID <= 0 {
		writeFailure(w, WrapKind(op, ErrBadRequest, errors.New("race_id must be a positive integer")))
		return
	}
	view, err := h.deps.OpenSession(r.Context(), credentials(r), req.RaceID)
	if err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusCreated, view)
}

// HandleGet handles GET /sessions/{id}.
func (h *SessionsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_session"
	view, err := h.deps.Session(r.Context(), r.PathValue("id"))
	if err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// HandleClose handles DELETE /sessions/{id}.
func (h *SessionsHandler) HandleClose(w http.ResponseWriter, r *http.Request) {
	const op = "api.close_session"
	if err := h.deps.CloseSession(r.Context(), r.PathValue("id")); err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandlePlace handles POST /sessions/{id}/place.
func (h *SessionsHandler) HandlePlace(w http.ResponseWriter, r *http.Request) {
	const op = "api.place"
	var req placeRequest
	if err := decode(r, &req); err != nil {
		writeFailure(w, WrapKind(op, ErrBadRequest, err))
		return
	}
	respond(w, op)(h.deps.Place(r.Context(), r.PathValue("id"), req.DriverID, req.Position))
}

// HandlePlaceFirst handles POST /sessions/{id}/place-first.
func (h *SessionsHandler) HandlePlaceFirst(w http.ResponseWriter, r *http.Request) {
	const op = "api.place_first"
	var req placeFirstRequest
	if err := decode(r, &req); err != nil {
		writeFailure(w, WrapKind(op, ErrBadRequest, err))
		return
	}
	placed, err := h.deps.PlaceFirstEmpty(r.Context(), r.PathValue("id"), req.DriverID)
	if err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, placed)
}

// HandleSwap handles POST /sessions/{id}/swap.
func (h *SessionsHandler) HandleSwap(w http.ResponseWriter, r *http.Request) {
	const op = "api.swap"
	var req swapRequest
	if err := decode(r, &req); err != nil {
		writeFailure(w, WrapKind(op, ErrBadRequest, err))
		return
	}
	respond(w, op)(h.deps.Swap(r.Context(), r.PathValue("id"), req.From, req.To))
}

// HandleRemove handles POST /sessions/{id}/remove.
func (h *SessionsHandler) HandleRemove(w http.ResponseWriter, r *http.Request) {
	const op = "api.remove"
	var req removeRequest
	if err := decode(r, &req); err != nil {
		writeFailure(w, WrapKind(op, ErrBadRequest, err))
		return
	}
	respond(w, op)(h.deps.Remove(r.Context(), r.PathValue("id"), req.Position))
}

// HandleClear handles POST /sessions/{id}/clear. The body is ignored.
func (h *SessionsHandler) HandleClear(w http.ResponseWriter, r *http.Request) {
	const op = "api.clear"
	respond(w, op)(h.deps.Clear(r.Context(), r.PathValue("id")))
}

// HandleDrop handles POST /sessions/{id}/drop.
func (h *SessionsHandler) HandleDrop(w http.ResponseWriter, r *http.Request) {
	const op = "api.drop"
	var req dropRequest
	if err := decode(r, &req); err != nil {
		writeFailure(w, WrapKind(op, ErrBadRequest, err))
		return
	}
	src, err := req.source()
	if err != nil {
		writeFailure(w, WrapKind(op, ErrBadRequest, err))
		return
	}
	dropped, err := h.deps.Drop(r.Context(), r.PathValue("id"), src, req.Target)
	if err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, dropped)
}

// HandleSubmit handles POST /sessions/{id}/submit. A new bet answers 201; a
// resubmission of an unchanged ranking answers 200 with duplicate set.
func (h *SessionsHandler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	const op = "api.submit"
	res, err := h.deps.Submit(r.Context(), r.PathValue("id"))
	if err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	status := http.StatusCreated
	if res.Duplicate {
		status = http.StatusOK
	}
	writeJSON(w, status, res)
}

// respond writes a session view or the failure that replaced it.
func respond(w http.ResponseWriter, op string) func(types.SessionView, error) {
	return func(view types.SessionView, err error) {
		if err != nil {
			writeFailure(w, Wrap(op, err))
			return
		}
		writeJSON(w, http.StatusOK, view)
	}
}
