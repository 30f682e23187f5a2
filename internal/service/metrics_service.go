package service

import (
	"fmt"
	"net/http"
	"runtime"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/construtora/agenda-api/internal/dto"
)

// MetricsService encapsulates Prometheus instrumentation and provides lightweight snapshots for API consumption.
type MetricsService struct {
	registry             *prometheus.Registry
	handler              http.Handler
	requestDuration      *prometheus.HistogramVec
	requestTotal         *prometheus.CounterVec
	cacheLatency         prometheus.Observer
	cacheWrite           prometheus.Observer
	cacheHitRatio        prometheus.Gauge
	cacheHits            prometheus.Counter
	cacheMisses          prometheus.Counter
	persistenceWrites    *prometheus.CounterVec
	persistenceRetries   *prometheus.CounterVec
	persistenceFallbacks *prometheus.CounterVec
	outboxDepth          prometheus.Gauge
	responseSources      *prometheus.CounterVec

	cacheHitCount        uint64
	cacheMissCount       uint64
	requestCount         uint64
	requestDurationTotal uint64
	degradedWrites       uint64
}

// NewMetricsService registers core Prometheus collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	cacheLatency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cache_latency_seconds",
		Help:    "Latency for cache operations",
		Buckets: prometheus.DefBuckets,
	})

	cacheWrite := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cache_write_seconds",
		Help:    "Latency for cache set operations",
		Buckets: prometheus.DefBuckets,
	})

	cacheHitRatio := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "cache_hit_ratio",
		Help: "Ratio of cache hits to total cache lookups",
	})

	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_hits_total",
		Help: "Total cache hits",
	})

	cacheMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_misses_total",
		Help: "Total cache misses",
	})

	persistenceWrites := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "agenda_persistence_writes_total",
		Help: "Agenda writes per backend and outcome (ok, error, degraded)",
	}, []string{"backend", "outcome"})

	persistenceRetries := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "agenda_persistence_retries_total",
		Help: "Retried backend calls",
	}, []string{"backend"})

	persistenceFallbacks := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "agenda_persistence_fallbacks_total",
		Help: "Operations served by a fallback backend",
	}, []string{"from", "to"})

	outboxDepth := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "agenda_outbox_pending",
		Help: "Writes waiting to be replayed on the primary backend",
	})

	responseSources := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "agenda_responses_by_source_total",
		Help: "Agenda responses per backend that served them",
	}, []string{"source", "degraded"})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, cacheLatency, cacheWrite, cacheHitRatio, cacheHits, cacheMisses,
		persistenceWrites, persistenceRetries, persistenceFallbacks, outboxDepth, responseSources, goroutines)

	handler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})

	return &MetricsService{
		registry:             registry,
		handler:              handler,
		requestDuration:      requestDuration,
		requestTotal:         requestTotal,
		cacheLatency:         cacheLatency,
		cacheWrite:           cacheWrite,
		cacheHitRatio:        cacheHitRatio,
		cacheHits:            cacheHits,
		cacheMisses:          cacheMisses,
		persistenceWrites:    persistenceWrites,
		persistenceRetries:   persistenceRetries,
		persistenceFallbacks: persistenceFallbacks,
		outboxDepth:          outboxDepth,
		responseSources:      responseSources,
	}
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records request metrics and aggregates simple stats for snapshots.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
	atomic.AddUint64(&m.requestCount, 1)
	atomic.AddUint64(&m.requestDurationTotal, uint64(duration.Nanoseconds()))
}

// ObserveResponseSource counts an agenda response by the backend that served it.
func (m *MetricsService) ObserveResponseSource(source string, degraded bool) {
	if m == nil {
		return
	}
	m.responseSources.WithLabelValues(source, strconv.FormatBool(degraded)).Inc()
}

// RecordCacheOperation records cache hit/miss metrics and updates hit ratio.
func (m *MetricsService) RecordCacheOperation(hit bool, duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheLatency.Observe(duration.Seconds())
	if hit {
		m.cacheHits.Inc()
		atomic.AddUint64(&m.cacheHitCount, 1)
	} else {
		m.cacheMisses.Inc()
		atomic.AddUint64(&m.cacheMissCount, 1)
	}
	hits := atomic.LoadUint64(&m.cacheHitCount)
	misses := atomic.LoadUint64(&m.cacheMissCount)
	if total := hits + misses; total > 0 {
		m.cacheHitRatio.Set(float64(hits) / float64(total))
	}
}

// ObserveCacheWrite tracks the duration for cache write operations.
func (m *MetricsService) ObserveCacheWrite(duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheWrite.Observe(duration.Seconds())
}

// ObservePersistenceWrite counts a write attempt against a backend.
func (m *MetricsService) ObservePersistenceWrite(backend, outcome string) {
	if m == nil {
		return
	}
	m.persistenceWrites.WithLabelValues(backend, outcome).Inc()
	if outcome == "degraded" {
		atomic.AddUint64(&m.degradedWrites, 1)
	}
}

// ObservePersistenceRetry counts a retried backend call.
func (m *MetricsService) ObservePersistenceRetry(backend string) {
	if m == nil {
		return
	}
	m.persistenceRetries.WithLabelValues(backend).Inc()
}

// ObservePersistenceFallback counts an operation served by a fallback backend.
func (m *MetricsService) ObservePersistenceFallback(from, to string) {
	if m == nil {
		return
	}
	m.persistenceFallbacks.WithLabelValues(from, to).Inc()
}

// SetOutboxDepth publishes the number of pending writes.
func (m *MetricsService) SetOutboxDepth(depth int) {
	if m == nil {
		return
	}
	m.outboxDepth.Set(float64(depth))
}

// CacheSnapshot returns cache counters since start.
func (m *MetricsService) CacheSnapshot() dto.MetricsSnapshot {
	if m == nil {
		return dto.MetricsSnapshot{}
	}
	hits := atomic.LoadUint64(&m.cacheHitCount)
	misses := atomic.LoadUint64(&m.cacheMissCount)
	snapshot := dto.MetricsSnapshot{CacheHits: hits, CacheMisses: misses}
	if total := hits + misses; total > 0 {
		snapshot.CacheHitRatio = float64(hits) / float64(total)
	}
	return snapshot
}

// Snapshot returns aggregated metrics for the diagnostics endpoint.
func (m *MetricsService) Snapshot() dto.MetricsSnapshot {
	if m == nil {
		return dto.MetricsSnapshot{}
	}
	snapshot := m.CacheSnapshot()
	requests := atomic.LoadUint64(&m.requestCount)
	reqDuration := atomic.LoadUint64(&m.requestDurationTotal)
	snapshot.RequestsTotal = requests
	if requests > 0 {
		snapshot.AverageRequestDurationMs = float64(reqDuration) / float64(requests) / float64(time.Millisecond)
	}
	snapshot.DegradedWrites = atomic.LoadUint64(&m.degradedWrites)
	snapshot.Goroutines = runtime.NumGoroutine()
	return snapshot
}
