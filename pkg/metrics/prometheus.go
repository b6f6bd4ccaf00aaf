// Package metrics provides Prometheus metrics for the gridbet service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Default metrics configuration constants.
const (
	defaultRefreshInterval = 10 * time.Second
)

// latencyBucketsMs covers in-process operations up to slow backend calls.
var latencyBucketsMs = []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000} //nolint:gochecknoglobals // bucket layout

// Manager manages all Prometheus metrics for the gridbet service.
type Manager struct {
	namespace       string
	subsystem       string
	latencyBuckets  []float64
	enabled         bool
	refreshInterval time.Duration
	constLabels     map[string]string
	metricPrefix    string
	registry        prometheus.Registerer

	// Assignment metrics
	operations *prometheus.CounterVec

	// Session metrics
	sessionsActive  prometheus.Gauge
	sessionsOpened  prometheus.Counter
	sessionsExpired prometheus.Counter
	prefilledSlots  prometheus.Histogram

	// Submission metrics
	submissions        *prometheus.CounterVec
	submissionDuration prometheus.Histogram

	// Backend (upstream) metrics
	upstreamRequests *prometheus.CounterVec
	upstreamDuration *prometheus.HistogramVec

	// HTTP metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Error metrics
	errorRateByType     *prometheus.CounterVec
	errorRateByEndpoint *prometheus.CounterVec

	// System metrics
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

// Initialize global metrics.
func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithRegisterer(customRegistry))
}

// Init replaces the global manager with one built from opts on a fresh
// registry. Call it once at startup, before metrics are recorded concurrently.
// A registerer passed in opts is overridden.
func Init(opts ...Option) {
	registry := prometheus.NewRegistry()
	globalManager = NewManager(append(append([]Option(nil), opts...), WithRegisterer(registry))...)
	customRegistry = registry
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:       "gridbet",
		subsystem:       "assignment",
		latencyBuckets:  latencyBucketsMs,
		enabled:         true,
		refreshInterval: defaultRefreshInterval,
		constLabels:     make(map[string]string),
		registry:        prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()
	return m
}

func (m *Manager) name(n string) string {
	return m.metricPrefix + n
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // long function required for comprehensive metrics initialization
	auto := promauto.With(m.registry)
	labels := prometheus.Labels(m.constLabels)

	m.operations = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("operations_total"),
		Help:        "Assignment operations by kind and outcome",
		ConstLabels: labels,
	}, []string{"op", "result"})

	m.sessionsActive = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("sessions_active"),
		Help:        "Ranking sessions currently held in memory",
		ConstLabels: labels,
	})
	m.sessionsOpened = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("sessions_opened_total"),
		Help:        "Ranking sessions opened",
		ConstLabels: labels,
	})
	m.sessionsExpired = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("sessions_expired_total"),
		Help:        "Ranking sessions discarded after being idle",
		ConstLabels: labels,
	})
	m.prefilledSlots = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("prefilled_slots"),
		Help:        "Positions restored from a prior bet when a session opens",
		Buckets:     prometheus.LinearBuckets(0, 1, 11),
		ConstLabels: labels,
	})

	m.submissions = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("submissions_total"),
		Help:        "Bet submissions by outcome (submitted, duplicate, incomplete, rejected, failed)",
		ConstLabels: labels,
	}, []string{"outcome"})
	m.submissionDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("submission_duration_ms"),
		Help:        "End-to-end submission time in milliseconds",
		Buckets:     m.latencyBuckets,
		ConstLabels: labels,
	})

	m.upstreamRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   "upstream",
		Name:        m.name("requests_total"),
		Help:        "Requests sent to the betting backend",
		ConstLabels: labels,
	}, []string{"endpoint", "status"})
	m.upstreamDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   "upstream",
		Name:        m.name("duration_ms"),
		Help:        "Betting backend latency in milliseconds",
		Buckets:     m.latencyBuckets,
		ConstLabels: labels,
	}, []string{"endpoint"})

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   "http",
		Name:        m.name("requests_total"),
		Help:        "HTTP requests served",
		ConstLabels: labels,
	}, []string{"endpoint", "method", "status_code"})
	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   "http",
		Name:        m.name("request_duration_ms"),
		Help:        "HTTP request duration in milliseconds",
		Buckets:     m.latencyBuckets,
		ConstLabels: labels,
	}, []string{"endpoint", "method", "status_code"})

	m.errorRateByType = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   "errors",
		Name:        m.name("by_type_total"),
		Help:        "Errors by type and severity",
		ConstLabels: labels,
	}, []string{"error_type", "severity"})
	m.errorRateByEndpoint = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   "errors",
		Name:        m.name("by_endpoint_total"),
		Help:        "Errors by HTTP endpoint",
		ConstLabels: labels,
	}, []string{"endpoint", "method", "error_type"})

	m.systemMemoryUsage = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   "system",
		Name:        m.name("memory_bytes"),
		Help:        "Allocated heap bytes",
		ConstLabels: labels,
	})
	m.systemGoroutineCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   "system",
		Name:        m.name("goroutines"),
		Help:        "Number of goroutines",
		ConstLabels: labels,
	})
	m.systemGCPauseTime = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   "system",
		Name:        m.name("gc_pause_ms"),
		Help:        "Average GC pause in milliseconds",
		Buckets:     []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10},
		ConstLabels: labels,
	})
}

// RecordOperation records one assignment operation and its result.
func (m *Manager) RecordOperation(op, result string) {
	if m.enabled {
		m.operations.WithLabelValues(op, result).Inc()
	}
}

// RecordOperation records one assignment operation on the global manager.
func RecordOperation(op, result string) {
	globalManager.RecordOperation(op, result)
}

// UpdateSessionsActive sets the number of live sessions.
func UpdateSessionsActive(count int) {
	if globalManager.enabled {
		globalManager.sessionsActive.Set(float64(count))
	}
}

// RecordSessionOpened counts a new session and how many slots it restored.
func RecordSessionOpened(prefilled int) {
	if globalManager.enabled {
		globalManager.sessionsOpened.Inc()
		globalManager.prefilledSlots.Observe(float64(prefilled))
	}
}

// RecordSessionsExpired counts sessions discarded by the idle sweep.
func RecordSessionsExpired(n int) {
	if globalManager.enabled && n > 0 {
		globalManager.sessionsExpired.Add(float64(n))
	}
}

// RecordSubmission records a submission outcome and its duration.
func RecordSubmission(outcome string, durationMs float64) {
	if globalManager.enabled {
		globalManager.submissions.WithLabelValues(outcome).Inc()
		globalManager.submissionDuration.Observe(durationMs)
	}
}

// RecordUpstreamRequest records one call to the betting backend.
func RecordUpstreamRequest(endpoint, status string, durationMs float64) {
	if globalManager.enabled {
		globalManager.upstreamRequests.WithLabelValues(endpoint, status).Inc()
		globalManager.upstreamDuration.WithLabelValues(endpoint).Observe(durationMs)
	}
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	if globalManager.enabled {
		globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
	}
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	if globalManager.enabled {
		globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
	}
}

// RecordErrorByType records an error by type and severity.
func RecordErrorByType(errorType, severity string) {
	if globalManager.enabled {
		globalManager.errorRateByType.WithLabelValues(errorType, severity).Inc()
	}
}

// RecordErrorByEndpoint records an error by HTTP endpoint.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	if globalManager.enabled {
		globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
	}
}

// UpdateSystemMemoryUsage updates system memory usage.
func UpdateSystemMemoryUsage(bytes uint64) {
	if globalManager.enabled {
		globalManager.systemMemoryUsage.Set(float64(bytes))
	}
}

// UpdateSystemGoroutineCount updates the goroutine count.
func UpdateSystemGoroutineCount(count int) {
	if globalManager.enabled {
		globalManager.systemGoroutineCount.Set(float64(count))
	}
}

// RecordSystemGCPauseTime records GC pause time.
func RecordSystemGCPauseTime(pauseMs float64) {
	if globalManager.enabled {
		globalManager.systemGCPauseTime.Observe(pauseMs)
	}
}

// GetRegistry returns the custom registry used for metrics exposition.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}

// RefreshInterval returns how often gauge updaters should sample the runtime.
func RefreshInterval() time.Duration {
	return globalManager.refreshInterval
}
