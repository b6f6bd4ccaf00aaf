// Package bettingapi is a client for the F1 betting backend REST API.
//
// It reads drivers, bet types, standings and the caller's existing bets, and
// submits a complete ranked prediction in one request. Authentication is the
// caller's browser session: a Cookie header and the matching CSRF token.
package bettingapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/okian/gridbet/internal/domain/model"
	"github.com/okian/gridbet/pkg/logger"
	"github.com/okian/gridbet/pkg/metrics"
)

const (
	defaultTimeout   = 10 * time.Second
	defaultUserAgent = "gridbet/1.0"
	maxResponseBytes = 4 << 20

	pathDrivers    = "/api/drivers/"
	pathMyBets     = "/api/bets/my_bets/"
	pathBetTypes   = "/api/bet-types/"
	pathBulkCreate = "/api/bets/bulk_create/"
	pathStandings  = "/api/standings/"
)

// Credentials identify the end user to the backend.
type Credentials struct {
	Cookie    string
	CSRFToken string
}

// CSRFFromCookie extracts the csrftoken value from a Cookie header, or "".
func CSRFFromCookie(header string) string {
	cookies, err := http.ParseCookie(header)
	if err != nil {
		return ""
	}
	for _, c := range cookies {
		if c.Name == "csrftoken" {
			return c.Value
		}
	}
	return ""
}

// Client talks to the betting backend. It is safe for concurrent use.
type Client struct {
	baseURL   string
	http      *http.Client
	timeout   time.Duration
	userAgent string
	log       logger.Logger
}

// New creates a client for the backend rooted at baseURL, e.g. "http://localhost:8000".
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		timeout:   defaultTimeout,
		userAgent: defaultUserAgent,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.http == nil {
		c.http = &http.Client{Timeout: c.timeout}
	}
	return c
}

// driverWire accepts both the backend's driver_number and a plain number field.
type driverWire struct {
	ID           model.CandidateID `json:"id"`
	DriverNumber *int              `json:"driver_number"`
	Number       *int              `json:"number"`
	FirstName    string            `json:"first_name"`
	LastName     string            `json:"last_name"`
	Team         string            `json:"team"`
}

func (d driverWire) candidate() model.Candidate {
	c := model.Candidate{ID: d.ID, FirstName: d.FirstName, LastName: d.LastName, Team: d.Team}
	switch {
	case d.DriverNumber != nil:
		c.Number = *d.DriverNumber
	case d.Number != nil:
		c.Number = *d.Number
	}
	return c
}

// Drivers lists the drivers available for betting, in backend order.
func (c *Client) Drivers(ctx context.Context, creds Credentials) ([]model.Candidate, error) {
	var wire []driverWire
	if err := c.getList(ctx, creds, "drivers", pathDrivers, nil, &wire); err != nil {
		return nil, err
	}
	out := make([]model.Candidate, len(wire))
	for i, d := range wire {
		out[i] = d.candidate()
	}
	return out, nil
}

// MyBets lists the caller's existing predictions for a race.
func (c *Client) MyBets(ctx context.Context, creds Credentials, raceID int) ([]model.ExistingPrediction, error) {
	q := url.Values{"race": {strconv.Itoa(raceID)}}
	var rows []model.ExistingPrediction
	if err := c.getList(ctx, creds, "my_bets", pathMyBets, q, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// BetTypes lists the bet types the backend offers.
func (c *Client) BetTypes(ctx context.Context, creds Credentials) ([]model.BetType, error) {
	var types []model.BetType
	if err := c.getList(ctx, creds, "bet_types", pathBetTypes, nil, &types); err != nil {
		return nil, err
	}
	return types, nil
}

// ResolveBetType returns the bet type with the given code, preferring an
// active one.
func (c *Client) ResolveBetType(ctx context.Context, creds Credentials, code string) (model.BetType, error) {
	types, err := c.BetTypes(ctx, creds)
	if err != nil {
		return model.BetType{}, err
	}
	var (
		found    model.BetType
		hasMatch bool
	)
	for _, bt := range types {
		if bt.Code != code {
			continue
		}
		if bt.IsActive {
			return bt, nil
		}
		if !hasMatch {
			found, hasMatch = bt, true
		}
	}
	if !hasMatch {
		return model.BetType{}, fmt.Errorf("%w: %q", ErrBetTypeNotFound, code)
	}
	return found, nil
}

// SubmitBet creates the whole prediction set for a race in one request and
// returns the backend's confirmation message. The backend replaces any
// previous bet of the same type for that race.
func (c *Client) SubmitBet(ctx context.Context, creds Credentials, sub model.Submission) (string, error) {
	body, err := json.Marshal(sub)
	if err != nil {
		return "", fmt.Errorf("encode submission: %w", err)
	}
	var reply struct {
		Message string `json:"message"`
	}
	if err := c.do(ctx, creds, http.MethodPost, "bulk_create", pathBulkCreate, nil, body, &reply); err != nil {
		return "", err
	}
	return reply.Message, nil
}

// Standings returns the leaderboard of a competition.
func (c *Client) Standings(ctx context.Context, creds Credentials, competitionID int) ([]model.Standing, error) {
	q := url.Values{"competition": {strconv.Itoa(competitionID)}}
	var rows []model.Standing
	if err := c.getList(ctx, creds, "standings", pathStandings, q, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// getList fetches a collection that may come back bare or paginated as
// {"results": [...]}.
func (c *Client) getList(ctx context.Context, creds Credentials, endpoint, path string, q url.Values, out any) error {
	var raw json.RawMessage
	if err := c.do(ctx, creds, http.MethodGet, endpoint, path, q, nil, &raw); err != nil {
		return err
	}
	return decodeList(raw, out)
}

func decodeList(raw json.RawMessage, out any) error {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var page struct {
			Results json.RawMessage `json:"results"`
		}
		if err := json.Unmarshal(trimmed, &page); err != nil {
			return fmt.Errorf("%w: %w", ErrDecode, err)
		}
		trimmed = page.Results
	}
	if len(trimmed) == 0 || string(trimmed) == "null" {
		return nil
	}
	if err := json.Unmarshal(trimmed, out); err != nil {
		return fmt.Errorf("%w: %w", ErrDecode, err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, creds Credentials, method, endpoint, path string, q url.Values, body []byte, out any) error {
	target := c.baseURL + path
	if len(q) > 0 {
		target += "?" + q.Encode()
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return fmt.Errorf("%w: build %s request: %w", ErrUpstream, endpoint, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if creds.Cookie != "" {
		req.Header.Set("Cookie", creds.Cookie)
	}
	if creds.CSRFToken != "" {
		req.Header.Set("X-CSRFToken", creds.CSRFToken)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	elapsed := float64(time.Since(start).Nanoseconds()) / 1e6
	if err != nil {
		metrics.RecordUpstreamRequest(endpoint, "error", elapsed)
		c.debug(ctx, "backend request failed", endpoint, method, 0, elapsed, err)
		return fmt.Errorf("%w: %s %s: %w", ErrUpstream, method, endpoint, err)
	}
	defer func() { _ = resp.Body.Close() }()

	status := strconv.Itoa(resp.StatusCode)
	metrics.RecordUpstreamRequest(endpoint, status, elapsed)

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		c.debug(ctx, "backend response unreadable", endpoint, method, resp.StatusCode, elapsed, err)
		return fmt.Errorf("%w: read %s response: %w", ErrUpstream, endpoint, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := parseAPIError(resp.StatusCode, data)
		c.debug(ctx, "backend rejected request", endpoint, method, resp.StatusCode, elapsed, apiErr)
		return apiErr
	}
	c.debug(ctx, "backend request", endpoint, method, resp.StatusCode, elapsed, nil)

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrDecode, endpoint, err)
	}
	return nil
}

func (c *Client) debug(ctx context.Context, msg, endpoint, method string, status int, ms float64, err error) {
	if c.log == nil {
		return
	}
	fields := []logger.Field{
		logger.String("endpoint", endpoint),
		logger.String("method", method),
		logger.Int("status", status),
		logger.Float64("duration_ms", ms),
	}
	if err != nil {
		fields = append(fields, logger.Error(err))
	}
	c.log.Debug(ctx, msg, fields...)
}
