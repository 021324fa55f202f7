// Package metrics provides Prometheus metrics for the aoelookup service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome labels for committed search results.
const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
)

// Manager owns every Prometheus collector exported by the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      map[string]string
	registry         prometheus.Registerer

	// Search state machine
	searchesStarted   prometheus.Counter
	searchesCommitted *prometheus.CounterVec
	searchesStale     prometheus.Counter
	searchesCancelled prometheus.Counter
	searchLatency     prometheus.Histogram
	searchesShared    prometheus.Counter
	playerFocus       prometheus.Counter
	stateTransitions  *prometheus.CounterVec

	// Sessions
	sessionsActive  prometheus.Gauge
	sessionsCreated prometheus.Counter
	sessionsEvicted prometheus.Counter

	// Player directory
	directoryPlayers      prometheus.Gauge
	directoryQueryLatency prometheus.Histogram

	// Match data
	matchDataEmpty prometheus.Counter

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	websocketClients    prometheus.Gauge

	// Errors
	errorRateByComponent *prometheus.CounterVec
	errorRateByType      *prometheus.CounterVec
	errorRateByEndpoint  *prometheus.CounterVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

// customRegistry keeps the default Go collectors out of /healthz.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // metrics registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "aoelookup",
		subsystem:        "search",
		histogramBuckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
		constLabels:      map[string]string{},
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

func (m *Manager) counter(name, help string) prometheus.Counter {
	return promauto.With(m.registry).NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	})
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	}, labels)
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	})
}

func (m *Manager) histogram(name, help string, buckets []float64) prometheus.Histogram {
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels, Buckets: buckets,
	})
}

func (m *Manager) initializeMetrics() { //nolint:funlen // one registration per collector
	m.searchesStarted = m.counter("searches_started_total",
		"Total number of fetches issued by query-change events")
	m.searchesCommitted = m.counterVec("searches_committed_total",
		"Fetch results committed to session state, by outcome", "outcome")
	m.searchesStale = m.counter("searches_stale_total",
		"Fetch results discarded because a newer query superseded them")
	m.searchesCancelled = m.counter("searches_cancelled_total",
		"In-flight fetches cancelled by a newer query, an empty query or session close")
	m.searchLatency = m.histogram("search_latency_milliseconds",
		"Fetch latency in milliseconds", m.histogramBuckets)
	m.searchesShared = m.counter("searches_shared_total",
		"Directory searches answered by an identical in-flight search")
	m.playerFocus = m.counter("player_focus_total",
		"Total number of accepted player-selection events")
	m.stateTransitions = m.counterVec("state_transitions_total",
		"Session state transitions by target state", "state")

	m.sessionsActive = m.gauge("sessions_active", "Number of live search sessions")
	m.sessionsCreated = m.counter("sessions_created_total", "Total number of sessions created")
	m.sessionsEvicted = m.counter("sessions_evicted_total", "Sessions discarded after the idle timeout")

	m.directoryPlayers = m.gauge("directory_players", "Number of players in the player directory")
	m.directoryQueryLatency = m.histogram("directory_query_latency_milliseconds",
		"Player directory lookup latency in milliseconds", m.histogramBuckets)

	m.matchDataEmpty = m.counter("match_data_empty_total",
		"Match data lookups for players without any rating record")

	m.httpRequests = m.counterVec("http_requests_total",
		"Total number of HTTP requests by endpoint and method", "endpoint", "method", "status_code")
	m.httpRequestDuration = promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "http_request_duration_milliseconds",
		Help:        "HTTP request duration in milliseconds",
		ConstLabels: m.constLabels,
		Buckets:     m.histogramBuckets,
	}, []string{"endpoint", "method", "status_code"})
	m.websocketClients = m.gauge("websocket_clients", "Connected state watchers")

	m.errorRateByComponent = m.counterVec("errors_by_component_total",
		"Errors by component and error type", "component", "error_type")
	m.errorRateByType = m.counterVec("errors_by_type_total",
		"Errors by error type and severity", "error_type", "severity")
	m.errorRateByEndpoint = m.counterVec("errors_by_endpoint_total",
		"Errors by HTTP endpoint", "endpoint", "method", "error_type")

	m.systemMemoryUsage = m.gauge("system_memory_usage_bytes", "System memory usage in bytes")
	m.systemGoroutineCount = m.gauge("system_goroutine_count", "Number of goroutines")
	m.systemGCPauseTime = m.histogram("system_gc_pause_time_milliseconds", "GC pause time in milliseconds",
		[]float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000})
}

// RecordSearchStarted counts a fetch issued for a query-change event.
func RecordSearchStarted() {
	globalManager.searchesStarted.Inc()
}

// RecordSearchCommitted counts a fetch result that reached session state.
func RecordSearchCommitted(outcome string) {
	globalManager.searchesCommitted.WithLabelValues(outcome).Inc()
}

// RecordSearchStale counts a fetch result dropped by last-query-wins.
func RecordSearchStale() {
	globalManager.searchesStale.Inc()
}

// RecordSearchCancelled counts an in-flight fetch cancelled before it returned.
func RecordSearchCancelled() {
	globalManager.searchesCancelled.Inc()
}

// RecordSearchLatency records fetch latency in milliseconds.
func RecordSearchLatency(latencyMs float64) {
	globalManager.searchLatency.Observe(latencyMs)
}

// RecordSearchShared counts a search that piggybacked on an identical one.
func RecordSearchShared() {
	globalManager.searchesShared.Inc()
}

// RecordPlayerFocus counts an accepted player selection.
func RecordPlayerFocus() {
	globalManager.playerFocus.Inc()
}

// RecordStateTransition counts a transition into state.
func RecordStateTransition(state string) {
	globalManager.stateTransitions.WithLabelValues(state).Inc()
}

// UpdateSessionsActive sets the live session count.
func UpdateSessionsActive(count int) {
	globalManager.sessionsActive.Set(float64(count))
}

// RecordSessionCreated counts a new session.
func RecordSessionCreated() {
	globalManager.sessionsCreated.Inc()
}

// RecordSessionEvicted counts a session discarded by the idle janitor.
func RecordSessionEvicted() {
	globalManager.sessionsEvicted.Inc()
}

// UpdateDirectoryPlayers sets the player directory size.
func UpdateDirectoryPlayers(count int) {
	globalManager.directoryPlayers.Set(float64(count))
}

// RecordDirectoryQueryLatency records directory lookup latency in milliseconds.
func RecordDirectoryQueryLatency(latencyMs float64) {
	globalManager.directoryQueryLatency.Observe(latencyMs)
}

// RecordMatchDataEmpty counts a lookup that produced the "no data" result.
func RecordMatchDataEmpty() {
	globalManager.matchDataEmpty.Inc()
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// AddWebsocketClients adjusts the connected watcher gauge by delta.
func AddWebsocketClients(delta int) {
	globalManager.websocketClients.Add(float64(delta))
}

// RecordErrorByComponent records errors by component and error type.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorRateByComponent.WithLabelValues(component, errorType).Inc()
}

// RecordErrorByType records errors by type and severity.
func RecordErrorByType(errorType, severity string) {
	globalManager.errorRateByType.WithLabelValues(errorType, severity).Inc()
}

// RecordErrorByEndpoint records errors by HTTP endpoint.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// UpdateSystemMemoryUsage sets system memory usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the goroutine count.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime records GC pause time in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) {
	globalManager.systemGCPauseTime.Observe(pauseMs)
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
