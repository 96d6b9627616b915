package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/okian/bncc/pkg/metrics"
)

// MetricsMiddleware records request count, latency and, for failures, the
// error class of every call to next under the endpoint label.
func MetricsMiddleware(next http.HandlerFunc, endpoint string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		rec := &statusRecorder{ResponseWriter: w}
		next.ServeHTTP(rec, r)

		durationMs := float64(time.Since(start).Microseconds()) / 1000
		status := rec.status()
		code := strconv.Itoa(status)

		metrics.RecordHTTPRequest(endpoint, r.Method, code)
		metrics.RecordHTTPRequestDuration(endpoint, r.Method, code, durationMs)

		class, ok := failureClass(status)
		if !ok {
			return
		}
		metrics.RecordErrorByEndpoint(endpoint, r.Method, class.kind)
		metrics.RecordErrorByType(class.kind, class.severity)
		metrics.RecordErrorLatency("http", class.kind, durationMs)
	}
}

type errorClass struct {
	kind     string
	severity string
}

// failureClass maps a response status onto the error labels. 207 counts as a
// failure because some batch entries were not stored.
func failureClass(status int) (errorClass, bool) {
	switch {
	case status == http.StatusMultiStatus:
		return errorClass{"partial_batch", "medium"}, true
	case status == http.StatusBadGateway:
		return errorClass{"store_error", "critical"}, true
	case status >= http.StatusInternalServerError:
		return errorClass{"server_error", "high"}, true
	case status == http.StatusConflict:
		return errorClass{"conflict", "low"}, true
	case status == http.StatusNotFound:
		return errorClass{"not_found", "low"}, true
	case status >= http.StatusBadRequest:
		return errorClass{"client_error", "medium"}, true
	default:
		return errorClass{}, false
	}
}

// statusRecorder captures the status written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	code int
}

func (s *statusRecorder) WriteHeader(code int) {
	if s.code == 0 {
		s.code = code
	}
	s.ResponseWriter.WriteHeader(code)
}

func (s *statusRecorder) Write(b []byte) (int, error) {
	if s.code == 0 {
		s.code = http.StatusOK
	}
	return s.ResponseWriter.Write(b)
}

func (s *statusRecorder) status() int {
	if s.code == 0 {
		return http.StatusOK
	}
	return s.code
}
