package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/construtora/agenda-api/internal/dto"
	"github.com/construtora/agenda-api/internal/models"
	appErrors "github.com/construtora/agenda-api/pkg/errors"
	"github.com/construtora/agenda-api/pkg/response"
)

type calendarService interface {
	Month(ctx context.Context, viewer models.Viewer, year, month int) (*dto.CalendarMonth, error)
	Day(ctx context.Context, viewer models.Viewer, raw string) (*dto.CalendarDay, error)
}

// CalendarHandler serves the month grid and day views.
type CalendarHandler struct {
	service calendarService
}

// NewCalendarHandler constructs the handler.
func NewCalendarHandler(svc calendarService) *CalendarHandler {
	return &CalendarHandler{service: svc}
}

// Month godoc
// @Summary Month calendar
// @Description Six week grid starting on Sunday with the events and calendar tasks of each day
// @Tags Calendar
// @Produce json
// @Param ano query int false "Year, defaults to the current year"
// @Param mes query int false "Month 1-12, defaults to the current month"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /calendar/month [get]
func (h *CalendarHandler) Month(c *gin.Context) {
	viewer, ok := currentViewer(c)
	if !ok {
		return
	}

	year, month := 0, 0
	if raw := c.Query("ano"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "ano must be a number"))
			return
		}
		year = parsed
	}
	if raw := c.Query("mes"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "mes must be a number"))
			return
		}
		month = parsed
	}
	if (year == 0) != (month == 0) {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "ano and mes must be given together"))
		return
	}

	grid, err := h.service.Month(c.Request.Context(), viewer, year, month)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, grid, nil)
}

// Day godoc
// @Summary Day view
// @Tags Calendar
// @Produce json
// @Param data query string true "Date (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /calendar/day [get]
func (h *CalendarHandler) Day(c *gin.Context) {
	viewer, ok := currentViewer(c)
	if !ok {
		return
	}
	raw := c.Query("data")
	if raw == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "data is required"))
		return
	}
	day, err := h.service.Day(c.Request.Context(), viewer, raw)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, day, nil)
}
