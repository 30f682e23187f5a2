package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/construtora/agenda-api/internal/models"
	"github.com/construtora/agenda-api/internal/service"
)

type backendHealth interface {
	Health(ctx context.Context) []models.BackendStatus
}

// MetricsHandler exposes observability endpoints.
type MetricsHandler struct {
	metrics *service.MetricsService
	store   backendHealth
}

// NewMetricsHandler constructs a metrics handler.
func NewMetricsHandler(metrics *service.MetricsService, store backendHealth) *MetricsHandler {
	return &MetricsHandler{metrics: metrics, store: store}
}

// Prometheus serves the Prometheus metrics endpoint.
func (h *MetricsHandler) Prometheus(c *gin.Context) {
	if h.metrics == nil {
		c.Status(http.StatusServiceUnavailable)
		return
	}
	h.metrics.Handler().ServeHTTP(c.Writer, c.Request)
}

// Health responds with a generic OK payload for liveness usage.
func (h *MetricsHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Ready reports 200 while at least one backend can serve the agenda.
func (h *MetricsHandler) Ready(c *gin.Context) {
	if h.store == nil {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
		return
	}
	statuses := h.store.Health(c.Request.Context())
	for _, status := range statuses {
		if status.Healthy {
			c.JSON(http.StatusOK, gin.H{"status": "ok", "backends": statuses})
			return
		}
	}
	c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "backends": statuses})
}
