package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/okian/gridbet/internal/adapters/bettingapi"
	"github.com/okian/gridbet/internal/adapters/repository"
	"github.com/okian/gridbet/internal/domain/assignment"
)

// ErrBadRequest marks a request the handler could not decode or validate.
var ErrBadRequest = errors.New("bad request")

// OpError ties an error to the handler operation that produced it and to a
// kind that callers match with errors.Is.
type OpError struct {
	Op   string
	Kind error
	Err  error
}

func (e *OpError) Error() string {
	switch {
	case e.Err == nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Kind)
	case e.Kind == nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	default:
		return fmt.Sprintf("%s: %v: %v", e.Op, e.Kind, e.Err)
	}
}

// Unwrap exposes both the kind and the cause.
func (e *OpError) Unwrap() []error {
	out := make([]error, 0, 2)
	if e.Kind != nil {
		out = append(out, e.Kind)
	}
	if e.Err != nil {
		out = append(out, e.Err)
	}
	return out
}

// NewKind returns an error of the given kind with no further cause.
func NewKind(op string, kind error) error {
	return &OpError{Op: op, Kind: kind}
}

// WrapKind attaches op and kind to err.
func WrapKind(op string, kind, err error) error {
	return &OpError{Op: op, Kind: kind, Err: err}
}

// Wrap attaches op to err, keeping err's own kind.
func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return &OpError{Op: op, Err: err}
}

// Error codes returned in the JSON body.
const (
	codeBadRequest         = "bad_request"
	codeInvalidPosition    = "invalid_position"
	codeUnknownCandidate   = "unknown_candidate"
	codeDuplicateCandidate = "duplicate_candidate"
	codeNoEmptySlot        = "no_empty_slot"
	codeIncomplete         = "incomplete_assignment"
	codeNotFound           = "not_found"
	codeSessionLimit       = "session_limit"
	codeUpstream           = "upstream_error"
	codeInternal           = "internal_error"
)

// writeFailure maps err to a status and code and writes it.
func writeFailure(w http.ResponseWriter, err error) {
	var incomplete *assignment.IncompleteError
	if errors.As(err, &incomplete) {
		filled, size := incomplete.Filled, incomplete.Size
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{
			Code:    codeIncomplete,
			Message: incomplete.Error(),
			Filled:  &filled,
			Size:    &size,
		})
		return
	}

	var apiErr *bettingapi.APIError
	if errors.As(err, &apiErr) {
		status := http.StatusBadGateway
		if apiErr.Status >= 400 && apiErr.Status < 500 {
			status = apiErr.Status
		}
		writeJSON(w, status, errorResponse{Code: codeUpstream, Message: apiErr.Text()})
		return
	}

	status, code := classify(err)
	writeError(w, status, code, err)
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, ErrBadRequest):
		return http.StatusBadRequest, codeBadRequest
	case errors.Is(err, assignment.ErrInvalidPosition):
		return http.StatusBadRequest, codeInvalidPosition
	case errors.Is(err, assignment.ErrUnknownCandidate):
		return http.StatusBadRequest, codeUnknownCandidate
	case errors.Is(err, assignment.ErrDuplicateCandidate):
		return http.StatusConflict, codeDuplicateCandidate
	case errors.Is(err, assignment.ErrNoEmptySlot):
		return http.StatusConflict, codeNoEmptySlot
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound, codeNotFound
	case errors.Is(err, repository.ErrCapacity):
		return http.StatusTooManyRequests, codeSessionLimit
	case errors.Is(err, bettingapi.ErrUpstream),
		errors.Is(err, bettingapi.ErrDecode),
		errors.Is(err, bettingapi.ErrBetTypeNotFound):
		return http.StatusBadGateway, codeUpstream
	default:
		return http.StatusInternalServerError, codeInternal
	}
}
