package placebet

import (
	"io"
)

// ShowHelp prints usage information for the placebet tool.
func ShowHelp(w io.Writer) {
	_, _ = io.WriteString(w, `gridbet placebet
================

Builds a ranked "Top 10" bet for one race and submits it to the betting backend.
A bet already stored for the race is loaded first and edited in place.

Usage:
  go run ./cmd/placebet [options]

Options:
  -url string
        Betting backend base URL (default "http://localhost:8000")
  -race int
        Race id to bet on
  -cookie string
        Cookie header of a logged-in backend session (or GRIDBET_COOKIE)
  -csrf string
        CSRF token; taken from the csrftoken cookie when empty (or GRIDBET_CSRF)
  -ranking string
        Comma separated driver numbers, first is P1 (e.g. "1,44,16")
  -append
        Put ranked drivers into the first empty positions instead of 1..k
  -bet-type string
        Bet type code (default "top10")
  -slots int
        Number of ranked positions (default 10)
  -timeout duration
        Backend request timeout (default 10s)
  -dry-run
        Print the ranking without submitting it
  -standings int
        Print the standings of a competition instead of betting
  -help
        Show this help message

Examples:
  # Review the stored bet for race 12
  go run ./cmd/placebet -race 12 -cookie "$COOKIE" -dry-run

  # Submit a full ranking
  go run ./cmd/placebet -race 12 -cookie "$COOKIE" -ranking 1,4,16,81,44,63,14,55,10,23

  # Show the season leaderboard
  go run ./cmd/placebet -standings 1 -cookie "$COOKIE"
`)
}
