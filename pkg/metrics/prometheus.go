// Package metrics provides Prometheus metrics for the BNCC report service.
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

// defaultLatencyBuckets span a cached read (sub-millisecond) up to the store
// timeout, in milliseconds.
var defaultLatencyBuckets = []float64{0.5, 1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000} //nolint:gochecknoglobals // read-only defaults

// Outcome label values.
const (
	OutcomeOK      = "ok"
	OutcomeError   = "error"
	OutcomeTimeout = "timeout"
)

// Manager manages all Prometheus metrics for the report service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	refreshInterval  time.Duration
	customLabels     map[string]string
	metricPrefix     string
	registry         prometheus.Registerer

	// Store adapter
	storeRequests *prometheus.CounterVec
	storeLatency  *prometheus.HistogramVec
	recordsLoaded prometheus.Gauge

	// Session cache
	cacheHits          prometheus.Counter
	cacheMisses        prometheus.Counter
	cacheInvalidations prometheus.Counter

	// Sessions
	sessionsActive  prometheus.Gauge
	sessionsEvicted prometheus.Counter

	// Write paths
	batchSubmissions *prometheus.CounterVec
	batchEntries     *prometheus.CounterVec
	lookupMutations  *prometheus.CounterVec
	validationErrors *prometheus.CounterVec

	// Reports
	reportsGenerated prometheus.Counter
	reportLatency    prometheus.Histogram
	reportErrors     *prometheus.CounterVec

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Errors
	errorRateByComponent *prometheus.CounterVec
	errorRateByType      *prometheus.CounterVec
	errorRateByEndpoint  *prometheus.CounterVec
	errorLatency         *prometheus.HistogramVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "bncc",
		subsystem:        "report",
		histogramBuckets: defaultLatencyBuckets,
		enabled:          true,
		refreshInterval:  defaultRefreshInterval,
		customLabels:     make(map[string]string),
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

// RefreshInterval is how often callers should refresh gauge metrics.
func (m *Manager) RefreshInterval() time.Duration {
	return m.refreshInterval
}

// Enabled reports whether observations are recorded.
func (m *Manager) Enabled() bool {
	return m.enabled
}

func (m *Manager) name(n string) string {
	return m.metricPrefix + n
}

func (m *Manager) counterOpts(name, help string) prometheus.CounterOpts {
	return prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name(name),
		Help:        help,
		ConstLabels: m.customLabels,
	}
}

func (m *Manager) gaugeOpts(name, help string) prometheus.GaugeOpts {
	return prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name(name),
		Help:        help,
		ConstLabels: m.customLabels,
	}
}

func (m *Manager) histogramOpts(name, help string) prometheus.HistogramOpts {
	return prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name(name),
		Help:        help,
		Buckets:     m.histogramBuckets,
		ConstLabels: m.customLabels,
	}
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // long function required for comprehensive metrics initialization
	auto := promauto.With(m.registry)

	m.storeRequests = auto.NewCounterVec(
		m.counterOpts("store_requests_total", "Store adapter calls by operation and outcome"),
		[]string{"op", "outcome"},
	)
	m.storeLatency = auto.NewHistogramVec(
		m.histogramOpts("store_request_duration_milliseconds", "Store adapter call latency in milliseconds"),
		[]string{"op"},
	)
	m.recordsLoaded = auto.NewGauge(m.gaugeOpts("records_loaded", "Records in the most recently loaded snapshot"))

	m.cacheHits = auto.NewCounter(m.counterOpts("cache_hits_total", "Session cache lookups served from memory"))
	m.cacheMisses = auto.NewCounter(m.counterOpts("cache_misses_total", "Session cache lookups that reached the store"))
	m.cacheInvalidations = auto.NewCounter(m.counterOpts("cache_invalidations_total", "Wholesale session cache invalidations"))

	m.sessionsActive = auto.NewGauge(m.gaugeOpts("sessions_active", "Live sessions held by the registry"))
	m.sessionsEvicted = auto.NewCounter(m.counterOpts("sessions_evicted_total", "Sessions evicted to respect the registry bound"))

	m.batchSubmissions = auto.NewCounterVec(
		m.counterOpts("batch_submissions_total", "Pending-buffer submissions by result"),
		[]string{"result"},
	)
	m.batchEntries = auto.NewCounterVec(
		m.counterOpts("batch_entries_total", "Submitted pending entries by outcome"),
		[]string{"outcome"},
	)
	m.lookupMutations = auto.NewCounterVec(
		m.counterOpts("lookup_mutations_total", "Lookup list inserts and deletes"),
		[]string{"kind", "op"},
	)
	m.validationErrors = auto.NewCounterVec(
		m.counterOpts("validation_errors_total", "Rejected user input by field"),
		[]string{"field"},
	)

	m.reportsGenerated = auto.NewCounter(m.counterOpts("reports_generated_total", "Reports computed"))
	m.reportLatency = auto.NewHistogram(m.histogramOpts("report_duration_milliseconds", "Report computation latency in milliseconds"))
	m.reportErrors = auto.NewCounterVec(
		m.counterOpts("report_errors_total", "Render cycles halted by an error"),
		[]string{"kind"},
	)

	m.httpRequests = auto.NewCounterVec(
		m.counterOpts("http_requests_total", "Total number of HTTP requests by endpoint and method"),
		[]string{"endpoint", "method", "status_code"},
	)
	m.httpRequestDuration = auto.NewHistogramVec(
		m.histogramOpts("http_request_duration_milliseconds", "HTTP request duration in milliseconds"),
		[]string{"endpoint", "method", "status_code"},
	)

	m.errorRateByComponent = auto.NewCounterVec(
		m.counterOpts("errors_by_component_total", "Errors by component and type"),
		[]string{"component", "error_type"},
	)
	m.errorRateByType = auto.NewCounterVec(
		m.counterOpts("errors_by_type_total", "Errors by type and severity"),
		[]string{"error_type", "severity"},
	)
	m.errorRateByEndpoint = auto.NewCounterVec(
		m.counterOpts("errors_by_endpoint_total", "Errors by endpoint, method and type"),
		[]string{"endpoint", "method", "error_type"},
	)
	m.errorLatency = auto.NewHistogramVec(
		m.histogramOpts("error_latency_milliseconds", "Latency of operations that ended in an error"),
		[]string{"component", "error_type"},
	)

	m.systemMemoryUsage = auto.NewGauge(m.gaugeOpts("system_memory_bytes", "Allocated heap memory in bytes"))
	m.systemGoroutineCount = auto.NewGauge(m.gaugeOpts("system_goroutines", "Number of goroutines"))
	m.systemGCPauseTime = auto.NewHistogram(m.histogramOpts("system_gc_pause_milliseconds", "Average GC pause time in milliseconds"))
}

// RecordStoreRequest counts one store call and observes its latency.
func (m *Manager) RecordStoreRequest(op, outcome string, latencyMs float64) {
	if !m.enabled {
		return
	}
	m.storeRequests.WithLabelValues(op, outcome).Inc()
	m.storeLatency.WithLabelValues(op).Observe(latencyMs)
}

// UpdateRecordsLoaded sets the size of the last loaded snapshot.
func (m *Manager) UpdateRecordsLoaded(n int) {
	if !m.enabled {
		return
	}
	m.recordsLoaded.Set(float64(n))
}

// RecordCacheHit counts a cache hit.
func (m *Manager) RecordCacheHit() {
	if m.enabled {
		m.cacheHits.Inc()
	}
}

// RecordCacheMiss counts a cache miss.
func (m *Manager) RecordCacheMiss() {
	if m.enabled {
		m.cacheMisses.Inc()
	}
}

// RecordCacheInvalidation counts a wholesale invalidation.
func (m *Manager) RecordCacheInvalidation() {
	if m.enabled {
		m.cacheInvalidations.Inc()
	}
}

// UpdateActiveSessions sets the number of live sessions.
func (m *Manager) UpdateActiveSessions(n int) {
	if m.enabled {
		m.sessionsActive.Set(float64(n))
	}
}

// RecordSessionEvicted counts an evicted session.
func (m *Manager) RecordSessionEvicted() {
	if m.enabled {
		m.sessionsEvicted.Inc()
	}
}

// RecordBatchSubmission counts a submission; result is "complete" or "partial".
func (m *Manager) RecordBatchSubmission(result string) {
	if m.enabled {
		m.batchSubmissions.WithLabelValues(result).Inc()
	}
}

// RecordBatchEntry counts one submitted entry by outcome.
func (m *Manager) RecordBatchEntry(outcome string) {
	if m.enabled {
		m.batchEntries.WithLabelValues(outcome).Inc()
	}
}

// RecordLookupMutation counts a lookup insert or delete.
func (m *Manager) RecordLookupMutation(kind, op string) {
	if m.enabled {
		m.lookupMutations.WithLabelValues(kind, op).Inc()
	}
}

// RecordValidationError counts rejected input for field.
func (m *Manager) RecordValidationError(field string) {
	if m.enabled {
		m.validationErrors.WithLabelValues(field).Inc()
	}
}

// RecordReport counts a computed report and its latency.
func (m *Manager) RecordReport(latencyMs float64) {
	if !m.enabled {
		return
	}
	m.reportsGenerated.Inc()
	m.reportLatency.Observe(latencyMs)
}

// RecordReportError counts a halted render cycle.
func (m *Manager) RecordReportError(kind string) {
	if m.enabled {
		m.reportErrors.WithLabelValues(kind).Inc()
	}
}

// RecordHTTPRequest counts an HTTP request.
func (m *Manager) RecordHTTPRequest(endpoint, method, statusCode string) {
	if m.enabled {
		m.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
	}
}

// RecordHTTPRequestDuration observes an HTTP request duration.
func (m *Manager) RecordHTTPRequestDuration(endpoint, method, statusCode string, durationMs float64) {
	if m.enabled {
		m.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
	}
}

// RecordErrorByComponent records an error with component and type labels.
func (m *Manager) RecordErrorByComponent(component, errorType string) {
	if m.enabled {
		m.errorRateByComponent.WithLabelValues(component, errorType).Inc()
	}
}

// RecordErrorByType records an error with type and severity labels.
func (m *Manager) RecordErrorByType(errorType, severity string) {
	if m.enabled {
		m.errorRateByType.WithLabelValues(errorType, severity).Inc()
	}
}

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func (m *Manager) RecordErrorByEndpoint(endpoint, method, errorType string) {
	if m.enabled {
		m.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
	}
}

// RecordErrorLatency records the latency of an operation that resulted in an error.
func (m *Manager) RecordErrorLatency(component, errorType string, latencyMs float64) {
	if m.enabled {
		m.errorLatency.WithLabelValues(component, errorType).Observe(latencyMs)
	}
}

// UpdateSystemMemoryUsage sets the system memory usage in bytes.
func (m *Manager) UpdateSystemMemoryUsage(bytes uint64) {
	if m.enabled {
		m.systemMemoryUsage.Set(float64(bytes))
	}
}

// UpdateSystemGoroutineCount sets the number of goroutines.
func (m *Manager) UpdateSystemGoroutineCount(count int) {
	if m.enabled {
		m.systemGoroutineCount.Set(float64(count))
	}
}

// RecordSystemGCPauseTime records GC pause time in milliseconds.
func (m *Manager) RecordSystemGCPauseTime(pauseMs float64) {
	if m.enabled {
		m.systemGCPauseTime.Observe(pauseMs)
	}
}
