package metrics

import (
	"sort"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Option configures a Manager.
type Option func(*Manager)

// WithNamespace overrides the "gridbet" namespace.
func WithNamespace(namespace string) Option {
	return func(m *Manager) {
		if namespace != "" {
			m.namespace = namespace
		}
	}
}

// WithSubsystem overrides the subsystem of the assignment and session metrics.
func WithSubsystem(subsystem string) Option {
	return func(m *Manager) {
		if subsystem != "" {
			m.subsystem = subsystem
		}
	}
}

// WithMetricPrefix prepends prefix to every metric name.
func WithMetricPrefix(prefix string) Option {
	return func(m *Manager) {
		m.metricPrefix = prefix
	}
}

// WithLatencyBuckets sets the millisecond buckets of every latency histogram.
// Empty or unsorted slices are ignored.
func WithLatencyBuckets(buckets []float64) Option {
	return func(m *Manager) {
		if len(buckets) == 0 || !sort.Float64sAreSorted(buckets) {
			return
		}
		m.latencyBuckets = append([]float64(nil), buckets...)
	}
}

// WithExponentialLatencyBuckets is WithLatencyBuckets over
// prometheus.ExponentialBuckets(start, factor, count).
func WithExponentialLatencyBuckets(start, factor float64, count int) Option {
	return func(m *Manager) {
		if start <= 0 || factor <= 1 || count < 1 {
			return
		}
		m.latencyBuckets = prometheus.ExponentialBuckets(start, factor, count)
	}
}

// WithEnabled turns recording on or off. Metrics are still registered.
func WithEnabled(enabled bool) Option {
	return func(m *Manager) {
		m.enabled = enabled
	}
}

// WithRefreshInterval sets how often runtime gauges should be sampled.
func WithRefreshInterval(interval time.Duration) Option {
	return func(m *Manager) {
		if interval > 0 {
			m.refreshInterval = interval
		}
	}
}

// WithConstLabel attaches name=value to every metric. Empty values are skipped.
func WithConstLabel(name, value string) Option {
	return func(m *Manager) {
		if name != "" && value != "" {
			m.constLabels[name] = value
		}
	}
}

// WithConstLabels merges labels into the constant labels.
func WithConstLabels(labels map[string]string) Option {
	return func(m *Manager) {
		for k, v := range labels {
			WithConstLabel(k, v)(m)
		}
	}
}

// WithRegisterer registers the metrics with reg instead of the default registerer.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(m *Manager) {
		if reg != nil {
			m.registry = reg
		}
	}
}
