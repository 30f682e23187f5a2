package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/construtora/agenda-api/internal/dto"
	"github.com/construtora/agenda-api/internal/models"
	"github.com/construtora/agenda-api/internal/service"
	appErrors "github.com/construtora/agenda-api/pkg/errors"
	"github.com/construtora/agenda-api/pkg/response"
)

type agendaService interface {
	Personal(ctx context.Context, viewer models.Viewer, fromRaw string, days int) (*dto.PersonalAgenda, error)
}

type exportService interface {
	Agenda(ctx context.Context, viewer models.Viewer, format, fromRaw, toRaw string) (*service.ExportFile, error)
}

// AgendaHandler serves the personal agenda and its printable export.
type AgendaHandler struct {
	agenda agendaService
	export exportService
}

// NewAgendaHandler constructs the handler.
func NewAgendaHandler(agenda agendaService, export exportService) *AgendaHandler {
	return &AgendaHandler{agenda: agenda, export: export}
}

// Personal godoc
// @Summary Personal agenda
// @Description Overdue tasks, today, tomorrow and the upcoming days for the caller
// @Tags Agenda
// @Produce json
// @Param de query string false "Start date (YYYY-MM-DD), defaults to today"
// @Param dias query int false "Window in days, default 7, max 31"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /agenda [get]
func (h *AgendaHandler) Personal(c *gin.Context) {
	viewer, ok := currentViewer(c)
	if !ok {
		return
	}
	days := 0
	if raw := c.Query("dias"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "dias must be a number"))
			return
		}
		days = parsed
	}
	agenda, err := h.agenda.Personal(c.Request.Context(), viewer, c.Query("de"), days)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, agenda, nil)
}

// Export godoc
// @Summary Export agenda
// @Description Visible events and tasks in the range as CSV or PDF
// @Tags Agenda
// @Produce octet-stream
// @Param format query string false "csv or pdf" default(csv)
// @Param de query string false "From date (YYYY-MM-DD)"
// @Param ate query string false "To date (YYYY-MM-DD)"
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Router /export/agenda [get]
func (h *AgendaHandler) Export(c *gin.Context) {
	viewer, ok := currentViewer(c)
	if !ok {
		return
	}
	file, err := h.export.Agenda(c.Request.Context(), viewer, c.DefaultQuery("format", service.ExportFormatCSV), c.Query("de"), c.Query("ate"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.File(c, file.Filename, file.ContentType, file.Data)
}
