package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/construtora/agenda-api/internal/dto"
	"github.com/construtora/agenda-api/internal/models"
	"github.com/construtora/agenda-api/internal/persistence"
	"github.com/construtora/agenda-api/pkg/response"
)

type eventService interface {
	List(ctx context.Context, viewer models.Viewer, query dto.EventQuery) ([]models.Event, string, error)
	Get(ctx context.Context, viewer models.Viewer, id string) (*models.Event, string, error)
	Create(ctx context.Context, viewer models.Viewer, req dto.EventRequest) (*models.Event, persistence.WriteResult, error)
	Update(ctx context.Context, viewer models.Viewer, id string, req dto.EventRequest) (*models.Event, persistence.WriteResult, error)
	UpdateStatus(ctx context.Context, viewer models.Viewer, id string, req dto.EventStatusRequest) (*models.Event, persistence.WriteResult, error)
	Delete(ctx context.Context, viewer models.Viewer, id string) (persistence.WriteResult, error)
}

// EventHandler serves the team calendar events.
type EventHandler struct {
	service eventService
}

// NewEventHandler constructs the handler.
func NewEventHandler(svc eventService) *EventHandler {
	return &EventHandler{service: svc}
}

// List godoc
// @Summary List events
// @Description Events visible to the caller, ordered by date and start time
// @Tags Events
// @Produce json
// @Param de query string false "From date (YYYY-MM-DD)"
// @Param ate query string false "To date (YYYY-MM-DD)"
// @Param tipo query string false "Event type"
// @Param status query string false "Event status"
// @Param responsavel query string false "Responsible user ID"
// @Param participante query string false "Participant user ID"
// @Param incluirCancelados query bool false "Include cancelled events"
// @Success 200 {object} response.Envelope
// @Router /events [get]
func (h *EventHandler) List(c *gin.Context) {
	viewer, ok := currentViewer(c)
	if !ok {
		return
	}
	var query dto.EventQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, bindError(err, "invalid query parameters"))
		return
	}
	events, source, err := h.service.List(c.Request.Context(), viewer, query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, events, nil, readMeta(c, source))
}

// Get godoc
// @Summary Get event
// @Tags Events
// @Produce json
// @Param id path string true "Event ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /events/{id} [get]
func (h *EventHandler) Get(c *gin.Context) {
	viewer, ok := currentViewer(c)
	if !ok {
		return
	}
	event, source, err := h.service.Get(c.Request.Context(), viewer, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, event, nil, readMeta(c, source))
}

// Create godoc
// @Summary Create event
// @Tags Events
// @Accept json
// @Produce json
// @Param payload body dto.EventRequest true "Event"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /events [post]
func (h *EventHandler) Create(c *gin.Context) {
	viewer, ok := currentViewer(c)
	if !ok {
		return
	}
	var req dto.EventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid event payload"))
		return
	}
	event, result, err := h.service.Create(c.Request.Context(), viewer, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, event, writeMeta(c, result))
}

// Update godoc
// @Summary Update event
// @Description Replaces the event; atualizadoEm older than the stored record is rejected with 409
// @Tags Events
// @Accept json
// @Produce json
// @Param id path string true "Event ID"
// @Param payload body dto.EventRequest true "Event"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /events/{id} [put]
func (h *EventHandler) Update(c *gin.Context) {
	viewer, ok := currentViewer(c)
	if !ok {
		return
	}
	var req dto.EventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid event payload"))
		return
	}
	event, result, err := h.service.Update(c.Request.Context(), viewer, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, event, nil, writeMeta(c, result))
}

// UpdateStatus godoc
// @Summary Change event status
// @Tags Events
// @Accept json
// @Produce json
// @Param id path string true "Event ID"
// @Param payload body dto.EventStatusRequest true "Status"
// @Success 200 {object} response.Envelope
// @Router /events/{id}/status [patch]
func (h *EventHandler) UpdateStatus(c *gin.Context) {
	viewer, ok := currentViewer(c)
	if !ok {
		return
	}
	var req dto.EventStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid status payload"))
		return
	}
	event, result, err := h.service.UpdateStatus(c.Request.Context(), viewer, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, event, nil, writeMeta(c, result))
}

// Delete godoc
// @Summary Delete event
// @Tags Events
// @Param id path string true "Event ID"
// @Success 204 {object} response.Envelope
// @Router /events/{id} [delete]
func (h *EventHandler) Delete(c *gin.Context) {
	viewer, ok := currentViewer(c)
	if !ok {
		return
	}
	result, err := h.service.Delete(c.Request.Context(), viewer, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	writeMeta(c, result)
	if result.Source != "" {
		c.Header(response.SourceHeader, result.Source)
	}
	response.NoContent(c)
}
