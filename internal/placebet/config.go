// Package placebet drives one ranked bet from the command line: it loads the
// race's drivers and any prior bet, applies a ranking, prints the result and
// submits it.
package placebet

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/okian/gridbet/internal/adapters/bettingapi"
)

// Config holds the options of one run.
type Config struct {
	BaseURL   string        // Betting backend base URL
	RaceID    int           // Race to bet on
	Cookie    string        // Session cookie forwarded to the backend
	CSRFToken string        // CSRF token forwarded to the backend
	Ranking   []int         // Driver numbers, first entry is P1
	BetType   string        // Bet type code, e.g. "top10"
	Slots     int           // Number of ranked positions
	Timeout   time.Duration // Backend request timeout
	DryRun    bool          // Render but do not submit
	Append    bool          // Fill empty positions instead of overwriting 1..k
	Standings int           // Competition id; when set, print standings only
}

// Credentials returns the backend credentials carried by the config.
func (c *Config) Credentials() bettingapi.Credentials {
	return bettingapi.Credentials{Cookie: c.Cookie, CSRFToken: c.CSRFToken}
}

// Validate checks the fields a run needs.
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("%w: url is required", ErrUsage)
	}
	if c.Standings > 0 {
		return nil
	}
	if c.RaceID <= 0 {
		return fmt.Errorf("%w: race must be a positive id", ErrUsage)
	}
	if c.Slots < 1 {
		return fmt.Errorf("%w: slots must be at least 1", ErrUsage)
	}
	if len(c.Ranking) > c.Slots {
		return fmt.Errorf("%w: ranking has %d drivers for %d positions", ErrUsage, len(c.Ranking), c.Slots)
	}
	return nil
}

// ParseRanking parses a comma separated list of driver numbers such as
// "1,44,16". Blank input yields an empty ranking.
func ParseRanking(s string) ([]int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	out := make([]int, 0, len(parts))
	seen := make(map[int]struct{}, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil || n < 0 {
			return nil, fmt.Errorf("%w: %q is not a driver number", ErrUsage, p)
		}
		if _, dup := seen[n]; dup {
			return nil, fmt.Errorf("%w: driver #%d is listed twice", ErrUsage, n)
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out, nil
}
