package service

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsServiceExposesPersistenceCounters(t *testing.T) {
	metrics := NewMetricsService()
	metrics.ObservePersistenceWrite("postgres", "error")
	metrics.ObservePersistenceWrite("local", "degraded")
	metrics.ObservePersistenceRetry("postgres")
	metrics.ObservePersistenceFallback("postgres", "local")
	metrics.SetOutboxDepth(2)
	metrics.ObserveHTTPRequest(http.MethodGet, "/api/v1/events", http.StatusOK, 20*time.Millisecond)

	rec := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `agenda_persistence_writes_total{backend="local",outcome="degraded"} 1`)
	assert.Contains(t, body, `agenda_persistence_fallbacks_total{from="postgres",to="local"} 1`)
	assert.Contains(t, body, "agenda_outbox_pending 2")

	snapshot := metrics.Snapshot()
	assert.Equal(t, uint64(1), snapshot.RequestsTotal)
	assert.Equal(t, uint64(1), snapshot.DegradedWrites)
	assert.InDelta(t, 20.0, snapshot.AverageRequestDurationMs, 0.001)
}

func TestMetricsServiceNilSafe(t *testing.T) {
	var metrics *MetricsService
	metrics.ObservePersistenceWrite("postgres", "ok")
	metrics.SetOutboxDepth(1)
	assert.Equal(t, uint64(0), metrics.Snapshot().RequestsTotal)

	rec := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestMetricsServiceCountsResponseSources(t *testing.T) {
	metrics := NewMetricsService()
	metrics.ObserveResponseSource("local", true)
	metrics.ObserveResponseSource("postgres", false)

	rec := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := rec.Body.String()
	assert.Contains(t, body, `agenda_responses_by_source_total{degraded="true",source="local"} 1`)
	assert.Contains(t, body, `agenda_responses_by_source_total{degraded="false",source="postgres"} 1`)
}
