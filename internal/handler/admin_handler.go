package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/construtora/agenda-api/internal/dto"
	"github.com/construtora/agenda-api/internal/models"
	"github.com/construtora/agenda-api/pkg/response"
)

type diagnosticsService interface {
	Report(ctx context.Context) (*dto.DiagnosticsReport, error)
	Sync(ctx context.Context) (models.SyncReport, error)
	ClearCache(ctx context.Context) (dto.CacheClearResult, error)
}

// AdminHandler exposes operational endpoints for administrators.
type AdminHandler struct {
	service diagnosticsService
}

// NewAdminHandler constructs the handler.
func NewAdminHandler(svc diagnosticsService) *AdminHandler {
	return &AdminHandler{service: svc}
}

// Diagnostics godoc
// @Summary Persistence diagnostics
// @Description Backend health, pending writes, cache status and roster counts
// @Tags Admin
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /admin/diagnostics [get]
func (h *AdminHandler) Diagnostics(c *gin.Context) {
	report, err := h.service.Report(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report, nil)
}

// Sync godoc
// @Summary Force synchronisation
// @Description Replays pending writes and reconciles the mirror and local copy with the primary
// @Tags Admin
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 503 {object} response.Envelope
// @Router /admin/sync [post]
func (h *AdminHandler) Sync(c *gin.Context) {
	report, err := h.service.Sync(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report, nil)
}

// ClearCache godoc
// @Summary Clear calendar cache
// @Tags Admin
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /admin/cache/clear [post]
func (h *AdminHandler) ClearCache(c *gin.Context) {
	result, err := h.service.ClearCache(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}
