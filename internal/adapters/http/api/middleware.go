package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/okian/scoreline/pkg/metrics"
)

// MetricsMiddleware records request count, latency and, for failed
// requests, the API error code the handler answered with.
func MetricsMiddleware(next http.HandlerFunc, endpoint string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		durationMs := metrics.SinceMs(start)
		status := strconv.Itoa(rec.status)
		metrics.RecordHTTPRequest(endpoint, r.Method, status)
		metrics.RecordHTTPRequestDuration(endpoint, r.Method, status, durationMs)

		if rec.status < http.StatusBadRequest {
			return
		}
		code := rec.code
		if code == "" {
			// written by the mux or a handler that bypassed writeError
			code = "http_" + status
		}
		metrics.RecordErrorByEndpoint(endpoint, r.Method, code)
		metrics.RecordErrorByType(code, severity(code))
		metrics.RecordErrorLatency("http", code, durationMs)
	}
}

// severity ranks API error codes. Lookup misses are expected answers, not
// faults.
func severity(code string) string {
	switch code {
	case "internal_error":
		return "high"
	case "unavailable", "backpressure":
		return "medium"
	default:
		return "low"
	}
}

// statusRecorder captures the status and API error code of a response.
type statusRecorder struct {
	http.ResponseWriter
	status int
	code   string
}

func (rw *statusRecorder) WriteHeader(status int) {
	rw.status = status
	rw.ResponseWriter.WriteHeader(status)
}

// recordCode lets writeError report its code to an enclosing recorder.
func recordCode(w http.ResponseWriter, code string) {
	if rec, ok := w.(*statusRecorder); ok {
		rec.code = code
	}
}
