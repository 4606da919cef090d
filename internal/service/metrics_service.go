package service

import (
	"net/http"
	"runtime"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/noah-isme/school-records-api/internal/models"
)

const metricsNamespace = "school_records"

// runningTotal accumulates a count and a summed duration for averages.
type runningTotal struct {
	count uint64
	nanos uint64
}

func (r *runningTotal) add(d time.Duration) {
	atomic.AddUint64(&r.count, 1)
	atomic.AddUint64(&r.nanos, uint64(d.Nanoseconds()))
}

func (r *runningTotal) load() (uint64, float64) {
	count := atomic.LoadUint64(&r.count)
	if count == 0 {
		return 0, 0
	}
	avg := float64(atomic.LoadUint64(&r.nanos)) / float64(count) / float64(time.Millisecond)
	return count, avg
}

// MetricsService owns the Prometheus registry for HTTP traffic, the ledger
// cache and record persistence. It also keeps running totals for the JSON
// snapshot. A nil *MetricsService records nothing.
type MetricsService struct {
	registry *prometheus.Registry
	handler  http.Handler

	httpDuration  *prometheus.HistogramVec
	httpRequests  *prometheus.CounterVec
	cacheDuration *prometheus.HistogramVec
	cacheLookups  *prometheus.CounterVec
	storeDuration *prometheus.HistogramVec
	storeFailures *prometheus.CounterVec

	cacheHits   uint64
	cacheMisses uint64
	requests    runningTotal
	storeOps    runningTotal
}

// NewMetricsService registers the collectors on a private registry.
func NewMetricsService() *MetricsService {
	m := &MetricsService{registry: prometheus.NewRegistry()}

	m.httpDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: metricsNamespace,
		Name:      "http_request_duration_seconds",
		Help:      "Duration of HTTP requests by route template.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "path", "status"})
	m.httpRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      "http_requests_total",
		Help:      "HTTP requests by route template and status.",
	}, []string{"method", "path", "status"})
	m.cacheDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: metricsNamespace,
		Name:      "ledger_cache_duration_seconds",
		Help:      "Latency of ledger cache reads and writes.",
		Buckets:   []float64{.0005, .001, .0025, .005, .01, .025, .05, .1},
	}, []string{"op"})
	m.cacheLookups = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      "ledger_cache_lookups_total",
		Help:      "Ledger cache lookups by result.",
	}, []string{"result"})
	m.storeDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: metricsNamespace,
		Name:      "store_duration_seconds",
		Help:      "Duration of record collection loads and saves.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"op", "kinds"})
	m.storeFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      "store_failures_total",
		Help:      "Failed record collection loads and saves.",
	}, []string{"op"})
	hitRatio := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: metricsNamespace,
		Name:      "ledger_cache_hit_ratio",
		Help:      "Share of ledger cache lookups that were hits.",
	}, m.hitRatio)

	m.registry.MustRegister(
		m.httpDuration, m.httpRequests,
		m.cacheDuration, m.cacheLookups, hitRatio,
		m.storeDuration, m.storeFailures,
		collectors.NewGoCollector(),
	)
	m.handler = promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records one served request.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	code := strconv.Itoa(status)
	m.httpDuration.WithLabelValues(method, path, code).Observe(duration.Seconds())
	m.httpRequests.WithLabelValues(method, path, code).Inc()
	m.requests.add(duration)
}

// RecordCacheOperation records a ledger cache read.
func (m *MetricsService) RecordCacheOperation(hit bool, duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheDuration.WithLabelValues("get").Observe(duration.Seconds())
	if hit {
		m.cacheLookups.WithLabelValues("hit").Inc()
		atomic.AddUint64(&m.cacheHits, 1)
		return
	}
	m.cacheLookups.WithLabelValues("miss").Inc()
	atomic.AddUint64(&m.cacheMisses, 1)
}

// ObserveCacheWrite records a ledger cache write.
func (m *MetricsService) ObserveCacheWrite(duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheDuration.WithLabelValues("set").Observe(duration.Seconds())
}

// ObserveStore records the timing of one persistence call. kinds is the
// comma-joined list of collections the call touched.
func (m *MetricsService) ObserveStore(op, kinds string, duration time.Duration, err error) {
	if m == nil {
		return
	}
	m.storeDuration.WithLabelValues(op, kinds).Observe(duration.Seconds())
	if err != nil {
		m.storeFailures.WithLabelValues(op).Inc()
	}
	m.storeOps.add(duration)
}

func (m *MetricsService) hitRatio() float64 {
	hits := atomic.LoadUint64(&m.cacheHits)
	total := hits + atomic.LoadUint64(&m.cacheMisses)
	if total == 0 {
		return 0
	}
	return float64(hits) / float64(total)
}

// Snapshot returns the running totals as JSON friendly values.
func (m *MetricsService) Snapshot() models.RuntimeMetrics {
	if m == nil {
		return models.RuntimeMetrics{}
	}
	requests, avgRequest := m.requests.load()
	storeOps, avgStore := m.storeOps.load()
	return models.RuntimeMetrics{
		CacheHitRatio:            m.hitRatio(),
		CacheHits:                atomic.LoadUint64(&m.cacheHits),
		CacheMisses:              atomic.LoadUint64(&m.cacheMisses),
		RequestsTotal:            requests,
		AverageRequestDurationMs: avgRequest,
		StoreOperations:          storeOps,
		AverageStoreDurationMs:   avgStore,
		Goroutines:               runtime.NumGoroutine(),
		GeneratedAt:              time.Now().UTC(),
	}
}
