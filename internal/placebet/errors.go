package placebet

import "errors"

var (
	// ErrUsage reports invalid flags or ranking input.
	ErrUsage = errors.New("invalid usage")
	// ErrUnknownDriver reports a ranking number that matches no driver of the race.
	ErrUnknownDriver = errors.New("unknown driver number")
)
