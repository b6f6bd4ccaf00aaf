package service

import "errors"

// Sentinel errors returned by the Service.
var (
	ErrNotStarted  = errors.New("service not started")
	ErrInvalidRace = errors.New("race id must be positive")
	ErrNoUpstream  = errors.New("no betting backend configured")
)
