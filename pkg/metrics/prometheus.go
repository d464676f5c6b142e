// Package metrics provides Prometheus metrics for the seasonrank pipeline.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every Prometheus collector of the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      map[string]string
	registry         prometheus.Registerer

	// Pipeline metrics
	rowsIngested      *prometheus.CounterVec
	rowsDiscarded     *prometheus.CounterVec
	playersAggregated *prometheus.GaugeVec
	identityDrift     *prometheus.CounterVec
	groupsRanked      *prometheus.CounterVec
	dualRolePitchers  prometheus.Counter
	degenerateStats   *prometheus.CounterVec
	pipelineRuns      *prometheus.CounterVec
	pipelineFailures  *prometheus.CounterVec
	pipelineDuration  *prometheus.HistogramVec

	// Leaderboard serving
	publishedTables     prometheus.Gauge
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Stats source
	sourceRequests *prometheus.CounterVec
	sourceLatency  prometheus.Histogram
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // metrics registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "seasonrank",
		subsystem:        "pipeline",
		histogramBuckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500},
		constLabels:      map[string]string{},
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	}, labels)
}

func (m *Manager) histogramVec(name, help string, labels ...string) *prometheus.HistogramVec {
	return promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
		ConstLabels: m.constLabels, Buckets: m.histogramBuckets,
	}, labels)
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.rowsIngested = m.counterVec("rows_ingested_total", "Raw stat rows handed to the cleaning pipeline", "domain")
	m.rowsDiscarded = m.counterVec("rows_discarded_total", "Rows dropped before scoring, by reason", "domain", "reason")
	m.playersAggregated = auto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: m.constLabels,
		Name: "players_aggregated", Help: "Players in the last cleaned table per season and domain",
	}, []string{"season", "domain"})
	m.identityDrift = m.counterVec("identity_drift_total", "Players whose identity fields changed between stints", "domain")
	m.groupsRanked = m.counterVec("groups_ranked_total", "Comparability groups scored and ranked", "domain")
	m.dualRolePitchers = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: m.constLabels,
		Name: "dual_role_pitchers_total", Help: "Pitchers ranked as both starter and reliever",
	})
	m.degenerateStats = m.counterVec("degenerate_stats_total", "Statistics constant within a group", "domain", "stat")
	m.pipelineRuns = m.counterVec("runs_total", "Pipeline runs per domain and outcome", "domain", "outcome")
	m.pipelineFailures = m.counterVec("failures_total", "Fatal pipeline failures by kind", "domain", "kind")
	m.pipelineDuration = m.histogramVec("duration_milliseconds", "Wall time of one domain run", "domain")

	m.publishedTables = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: "leaderboard", ConstLabels: m.constLabels,
		Name: "published_tables", Help: "Ranked tables currently served",
	})
	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: "leaderboard", ConstLabels: m.constLabels,
		Name: "http_requests_total", Help: "HTTP requests by endpoint, method and status",
	}, []string{"endpoint", "method", "status_code"})
	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: "leaderboard", ConstLabels: m.constLabels,
		Name: "http_request_duration_milliseconds", Help: "HTTP request duration in milliseconds",
		Buckets: m.histogramBuckets,
	}, []string{"endpoint", "method", "status_code"})

	m.sourceRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: "source", ConstLabels: m.constLabels,
		Name: "requests_total", Help: "Stats source requests by endpoint and outcome",
	}, []string{"endpoint", "outcome"})
	m.sourceLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: "source", ConstLabels: m.constLabels,
		Name: "request_latency_milliseconds", Help: "Stats source request latency",
		Buckets: m.histogramBuckets,
	})
}

// RecordRowsIngested adds n raw rows for domain.
func (m *Manager) RecordRowsIngested(domain string, n int) {
	m.rowsIngested.WithLabelValues(domain).Add(float64(n))
}

// RecordRowsDiscarded adds n dropped rows for domain and reason.
func (m *Manager) RecordRowsDiscarded(domain, reason string, n int) {
	if n > 0 {
		m.rowsDiscarded.WithLabelValues(domain, reason).Add(float64(n))
	}
}

// SetPlayersAggregated records the size of a cleaned table.
func (m *Manager) SetPlayersAggregated(season int, domain string, n int) {
	m.playersAggregated.WithLabelValues(fmt.Sprint(season), domain).Set(float64(n))
}

// RecordIdentityDrift adds n drifted players.
func (m *Manager) RecordIdentityDrift(domain string, n int) {
	if n > 0 {
		m.identityDrift.WithLabelValues(domain).Add(float64(n))
	}
}

// RecordGroupRanked counts one ranked group.
func (m *Manager) RecordGroupRanked(domain string) { m.groupsRanked.WithLabelValues(domain).Inc() }

// RecordDualRole adds n dual-role pitchers.
func (m *Manager) RecordDualRole(n int) { m.dualRolePitchers.Add(float64(n)) }

// RecordDegenerateStat counts one constant statistic.
func (m *Manager) RecordDegenerateStat(domain, stat string) {
	m.degenerateStats.WithLabelValues(domain, stat).Inc()
}

// RecordRun records a finished domain run.
func (m *Manager) RecordRun(domain, outcome string, durationMs float64) {
	m.pipelineRuns.WithLabelValues(domain, outcome).Inc()
	m.pipelineDuration.WithLabelValues(domain).Observe(durationMs)
}

// RecordFailure counts a fatal failure of kind.
func (m *Manager) RecordFailure(domain, kind string) {
	m.pipelineFailures.WithLabelValues(domain, kind).Inc()
}

// SetPublishedTables sets the number of served tables.
func (m *Manager) SetPublishedTables(n int) { m.publishedTables.Set(float64(n)) }

// RecordHTTPRequest increments the HTTP request counter.
func (m *Manager) RecordHTTPRequest(endpoint, method, statusCode string, durationMs float64) {
	m.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
	m.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
}

// RecordSourceRequest records one stats source call.
func (m *Manager) RecordSourceRequest(endpoint, outcome string, latencyMs float64) {
	m.sourceRequests.WithLabelValues(endpoint, outcome).Inc()
	m.sourceLatency.Observe(latencyMs)
}

// Package-level helpers bound to the global manager.

// RecordRowsIngested adds n raw rows for domain.
func RecordRowsIngested(domain string, n int) { globalManager.RecordRowsIngested(domain, n) }

// RecordRowsDiscarded adds n dropped rows for domain and reason.
func RecordRowsDiscarded(domain, reason string, n int) {
	globalManager.RecordRowsDiscarded(domain, reason, n)
}

// SetPlayersAggregated records the size of a cleaned table.
func SetPlayersAggregated(season int, domain string, n int) {
	globalManager.SetPlayersAggregated(season, domain, n)
}

// RecordIdentityDrift adds n drifted players.
func RecordIdentityDrift(domain string, n int) { globalManager.RecordIdentityDrift(domain, n) }

// RecordGroupRanked counts one ranked group.
func RecordGroupRanked(domain string) { globalManager.RecordGroupRanked(domain) }

// RecordDualRole adds n dual-role pitchers.
func RecordDualRole(n int) { globalManager.RecordDualRole(n) }

// RecordDegenerateStat counts one constant statistic.
func RecordDegenerateStat(domain, stat string) { globalManager.RecordDegenerateStat(domain, stat) }

// RecordRun records a finished domain run.
func RecordRun(domain, outcome string, durationMs float64) {
	globalManager.RecordRun(domain, outcome, durationMs)
}

// RecordFailure counts a fatal failure of kind.
func RecordFailure(domain, kind string) { globalManager.RecordFailure(domain, kind) }

// SetPublishedTables sets the number of served tables.
func SetPublishedTables(n int) { globalManager.SetPublishedTables(n) }

// RecordHTTPRequest records one HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string, durationMs float64) {
	globalManager.RecordHTTPRequest(endpoint, method, statusCode, durationMs)
}

// RecordSourceRequest records one stats source call.
func RecordSourceRequest(endpoint, outcome string, latencyMs float64) {
	globalManager.RecordSourceRequest(endpoint, outcome, latencyMs)
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}

// WriteTextfile dumps the registry in text exposition format for the
// node-exporter textfile collector.
func WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, customRegistry); err != nil {
		return fmt.Errorf("%w: %w", ErrObserveFailed, err)
	}
	return nil
}
