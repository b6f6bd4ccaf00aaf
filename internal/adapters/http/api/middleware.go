package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/okian/gridbet/pkg/metrics"
)

// errorClass labels a failed response in the error metrics.
type errorClass struct {
	kind     string
	severity string
}

// Assignment conflicts and incomplete rankings are normal user mistakes.
var errorClasses = map[int]errorClass{ //nolint:gochecknoglobals // lookup table
	http.StatusBadRequest:          {"client_error", "medium"},
	http.StatusNotFound:            {"not_found", "medium"},
	http.StatusMethodNotAllowed:    {"client_error", "medium"},
	http.StatusConflict:            {"conflict", "low"},
	http.StatusUnprocessableEntity: {"incomplete", "low"},
	http.StatusTooManyRequests:     {"rate_limit", "medium"},
	http.StatusBadGateway:          {"upstream_error", "high"},
}

func classifyStatus(code int) errorClass {
	if c, ok := errorClasses[code]; ok {
		return c
	}
	if code >= http.StatusInternalServerError {
		return errorClass{"server_error", "high"}
	}
	return errorClass{"client_error", "medium"}
}

// MetricsMiddleware records request count, latency and error class for next
// under the endpoint label.
func MetricsMiddleware(next http.HandlerFunc, endpoint string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		ms := float64(time.Since(start).Nanoseconds()) / 1e6
		status := strconv.Itoa(rec.status)
		metrics.RecordHTTPRequest(endpoint, r.Method, status)
		metrics.RecordHTTPRequestDuration(endpoint, r.Method, status, ms)

		if rec.status >= http.StatusBadRequest {
			class := classifyStatus(rec.status)
			metrics.RecordErrorByEndpoint(endpoint, r.Method, class.kind)
			metrics.RecordErrorByType(class.kind, class.severity)
		}
	}
}

// statusRecorder remembers the first status written.
type statusRecorder struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (s *statusRecorder) WriteHeader(code int) {
	if !s.wroteHeader {
		s.status = code
		s.wroteHeader = true
	}
	s.ResponseWriter.WriteHeader(code)
}

func (s *statusRecorder) Write(b []byte) (int, error) {
	s.wroteHeader = true
	return s.ResponseWriter.Write(b)
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (s *statusRecorder) Unwrap() http.ResponseWriter {
	return s.ResponseWriter
}
