// Package metrics provides Prometheus metrics for the EcoLens progression service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns all Prometheus collectors for the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// Progression metrics
	analysesProcessed prometheus.Counter
	analysesFailed    prometheus.Counter
	levelUps          prometheus.Counter
	historyCleared    prometheus.Counter

	// Analysis provider metrics
	providerLatency   prometheus.Histogram
	providerErrors    prometheus.Counter
	providerCacheHits prometheus.Counter

	// Leaderboard snapshot metrics
	leaderboardRebuilds        prometheus.Counter
	leaderboardRebuildDuration prometheus.Histogram
	leaderboardSize            prometheus.Gauge

	// KV store metrics
	kvOperationLatency *prometheus.HistogramVec
	kvErrors           *prometheus.CounterVec

	// HTTP metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// System metrics
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
}

// Global metrics manager instance backed by a custom registry so the
// default Go collectors stay out of /healthz output.
var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // singleton registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithRegistry(customRegistry))
}

// NewManager creates a metrics manager with the given options.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "ecolens",
		subsystem:        "progression",
		histogramBuckets: prometheus.DefBuckets,
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	factory := promauto.With(m.registry)

	m.analysesProcessed = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "analyses_processed_total",
		Help:      "Analyses applied to a user's ledger.",
	})
	m.analysesFailed = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "analyses_failed_total",
		Help:      "Analysis submissions that failed before the ledger was updated.",
	})
	m.levelUps = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "level_ups_total",
		Help:      "Ledger updates that crossed a level boundary.",
	})
	m.historyCleared = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "history_cleared_total",
		Help:      "Explicit history clear operations.",
	})

	m.providerLatency = factory.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: "provider",
		Name:      "latency_seconds",
		Help:      "Latency of external analysis provider calls.",
		Buckets:   m.histogramBuckets,
	})
	m.providerErrors = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "provider",
		Name:      "errors_total",
		Help:      "Failed analysis provider calls.",
	})
	m.providerCacheHits = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "provider",
		Name:      "cache_hits_total",
		Help:      "Analysis results served from the provider cache.",
	})

	m.leaderboardRebuilds = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "leaderboard",
		Name:      "rebuilds_total",
		Help:      "Full leaderboard snapshot rebuilds.",
	})
	m.leaderboardRebuildDuration = factory.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: "leaderboard",
		Name:      "rebuild_duration_seconds",
		Help:      "Duration of full leaderboard snapshot rebuilds.",
		Buckets:   m.histogramBuckets,
	})
	m.leaderboardSize = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: "leaderboard",
		Name:      "size",
		Help:      "Number of ranked users in the latest snapshot.",
	})

	m.kvOperationLatency = factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: "kv",
		Name:      "operation_latency_seconds",
		Help:      "Latency of KV store operations.",
		Buckets:   m.histogramBuckets,
	}, []string{"op"})
	m.kvErrors = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "kv",
		Name:      "errors_total",
		Help:      "Failed KV store operations.",
	}, []string{"op"})

	m.httpRequests = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "HTTP requests by endpoint, method and status.",
	}, []string{"endpoint", "method", "status"})
	m.httpRequestDuration = factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request duration by endpoint, method and status.",
		Buckets:   m.histogramBuckets,
	}, []string{"endpoint", "method", "status"})

	m.systemMemoryUsage = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: "system",
		Name:      "memory_bytes",
		Help:      "Current heap allocation.",
	})
	m.systemGoroutineCount = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: "system",
		Name:      "goroutines",
		Help:      "Current goroutine count.",
	})

	return m
}

// GetRegistry returns the registry backing the global manager, for serving.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}

// Package-level recording helpers delegating to the global manager.

func RecordAnalysisProcessed() { globalManager.analysesProcessed.Inc() }
func RecordAnalysisFailed()    { globalManager.analysesFailed.Inc() }
func RecordLevelUp()           { globalManager.levelUps.Inc() }
func RecordHistoryCleared()    { globalManager.historyCleared.Inc() }

func RecordProviderLatency(d time.Duration) { globalManager.providerLatency.Observe(d.Seconds()) }
func RecordProviderError()                  { globalManager.providerErrors.Inc() }
func RecordProviderCacheHit()               { globalManager.providerCacheHits.Inc() }

func RecordLeaderboardRebuild(d time.Duration) {
	globalManager.leaderboardRebuilds.Inc()
	globalManager.leaderboardRebuildDuration.Observe(d.Seconds())
}

func UpdateLeaderboardSize(n int) { globalManager.leaderboardSize.Set(float64(n)) }

func RecordKVOperation(op string, d time.Duration) {
	globalManager.kvOperationLatency.WithLabelValues(op).Observe(d.Seconds())
}

func RecordKVError(op string) { globalManager.kvErrors.WithLabelValues(op).Inc() }

func RecordHTTPRequest(endpoint, method, status string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, status).Inc()
}

func RecordHTTPRequestDuration(endpoint, method, status string, d time.Duration) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, status).Observe(d.Seconds())
}

func UpdateSystemMemoryUsage(bytes uint64) { globalManager.systemMemoryUsage.Set(float64(bytes)) }
func UpdateSystemGoroutineCount(n int)     { globalManager.systemGoroutineCount.Set(float64(n)) }
