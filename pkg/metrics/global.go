package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Package-level helpers record on the global manager.

func RecordStoreRequest(op, outcome string, latencyMs float64) {
	globalManager.RecordStoreRequest(op, outcome, latencyMs)
}
func UpdateRecordsLoaded(n int)             { globalManager.UpdateRecordsLoaded(n) }
func RecordCacheHit()                       { globalManager.RecordCacheHit() }
func RecordCacheMiss()                      { globalManager.RecordCacheMiss() }
func RecordCacheInvalidation()              { globalManager.RecordCacheInvalidation() }
func UpdateActiveSessions(n int)            { globalManager.UpdateActiveSessions(n) }
func RecordSessionEvicted()                 { globalManager.RecordSessionEvicted() }
func RecordBatchSubmission(result string)   { globalManager.RecordBatchSubmission(result) }
func RecordBatchEntry(outcome string)       { globalManager.RecordBatchEntry(outcome) }
func RecordLookupMutation(kind, op string)  { globalManager.RecordLookupMutation(kind, op) }
func RecordValidationError(field string)    { globalManager.RecordValidationError(field) }
func RecordReport(latencyMs float64)        { globalManager.RecordReport(latencyMs) }
func RecordReportError(kind string)         { globalManager.RecordReportError(kind) }
func UpdateSystemMemoryUsage(bytes uint64)  { globalManager.UpdateSystemMemoryUsage(bytes) }
func UpdateSystemGoroutineCount(count int)  { globalManager.UpdateSystemGoroutineCount(count) }
func RecordSystemGCPauseTime(pause float64) { globalManager.RecordSystemGCPauseTime(pause) }

func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.RecordHTTPRequest(endpoint, method, statusCode)
}

func RecordHTTPRequestDuration(endpoint, method, statusCode string, durationMs float64) {
	globalManager.RecordHTTPRequestDuration(endpoint, method, statusCode, durationMs)
}

func RecordErrorByComponent(component, errorType string) {
	globalManager.RecordErrorByComponent(component, errorType)
}

func RecordErrorByType(errorType, severity string) {
	globalManager.RecordErrorByType(errorType, severity)
}

func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.RecordErrorByEndpoint(endpoint, method, errorType)
}

func RecordErrorLatency(component, errorType string, latencyMs float64) {
	globalManager.RecordErrorLatency(component, errorType, latencyMs)
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}

// RefreshInterval is how often the process should refresh runtime gauges.
func RefreshInterval() time.Duration { return globalManager.RefreshInterval() }
