// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults.
// - Load layers dotenv, YAML and environment over those defaults.
// - External errors are wrapped with this package's sentinels.
package config

import "time"

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// APIBaseURL is the root of the betting backend, without the /api suffix.
	APIBaseURL string `koanf:"api_base_url"`

	// APITimeoutMS bounds every backend request.
	APITimeoutMS int `koanf:"api_timeout_ms"`

	// UserAgent is sent with backend requests.
	UserAgent string `koanf:"user_agent"`

	// SlotCount is the number of ranked positions per bet.
	SlotCount int `koanf:"slot_count"`

	// BetTypeCode selects the bet type resolved at submission.
	BetTypeCode string `koanf:"bet_type_code"`

	// SessionIdleTTLSeconds discards sessions nobody touched for this long.
	SessionIdleTTLSeconds int `koanf:"session_idle_ttl_seconds"`

	// SessionSweepIntervalSeconds is the janitor period.
	SessionSweepIntervalSeconds int `koanf:"session_sweep_interval_seconds"`

	// MaxSessions caps the number of live sessions.
	MaxSessions int `koanf:"max_sessions"`

	// DedupeSize sets how many submission fingerprints are remembered.
	DedupeSize int `koanf:"dedupe_size"`

	// MetricsEnabled turns Prometheus recording on or off.
	MetricsEnabled bool `koanf:"metrics_enabled"`

	// MetricsRefreshSeconds is how often runtime gauges are sampled.
	MetricsRefreshSeconds int `koanf:"metrics_refresh_seconds"`

	// Instance, when set, is attached to every metric as a constant label.
	Instance string `koanf:"instance"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:                    "info",
		LogFormat:                   "text",
		Addr:                        ":9080",
		APIBaseURL:                  "http://localhost:8000",
		APITimeoutMS:                10_000,
		UserAgent:                   "gridbet/1.0",
		SlotCount:                   10,
		BetTypeCode:                 "top10",
		SessionIdleTTLSeconds:       1800,
		SessionSweepIntervalSeconds: 60,
		MaxSessions:                 10_000,
		DedupeSize:                  10_000,
		MetricsEnabled:              true,
		MetricsRefreshSeconds:       10,
	}
}

// APITimeout returns the backend timeout as a duration.
func (c *Config) APITimeout() time.Duration {
	return time.Duration(c.APITimeoutMS) * time.Millisecond
}

// SessionIdleTTL returns the idle timeout as a duration.
func (c *Config) SessionIdleTTL() time.Duration {
	return time.Duration(c.SessionIdleTTLSeconds) * time.Second
}

// SessionSweepInterval returns the janitor period as a duration.
func (c *Config) SessionSweepInterval() time.Duration {
	return time.Duration(c.SessionSweepIntervalSeconds) * time.Second
}

// MetricsRefresh returns the runtime sampling period as a duration.
func (c *Config) MetricsRefresh() time.Duration {
	return time.Duration(c.MetricsRefreshSeconds) * time.Second
}
