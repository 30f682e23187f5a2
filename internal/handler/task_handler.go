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

type taskService interface {
	List(ctx context.Context, viewer models.Viewer, query dto.TaskQuery) ([]models.Task, string, error)
	Get(ctx context.Context, viewer models.Viewer, id string) (*models.Task, string, error)
	Create(ctx context.Context, viewer models.Viewer, req dto.TaskRequest) (*models.Task, persistence.WriteResult, error)
	Update(ctx context.Context, viewer models.Viewer, id string, req dto.TaskRequest) (*models.Task, persistence.WriteResult, error)
	UpdateProgress(ctx context.Context, viewer models.Viewer, id string, req dto.TaskProgressRequest) (*models.Task, persistence.WriteResult, error)
	Delete(ctx context.Context, viewer models.Viewer, id string) (persistence.WriteResult, error)
}

// TaskHandler serves the team task board.
type TaskHandler struct {
	service taskService
}

// NewTaskHandler constructs the handler.
func NewTaskHandler(svc taskService) *TaskHandler {
	return &TaskHandler{service: svc}
}

// List godoc
// @Summary List tasks
// @Description Tasks visible to the caller, overdue first, then by due date and priority
// @Tags Tasks
// @Produce json
// @Param de query string false "From date (YYYY-MM-DD)"
// @Param ate query string false "To date (YYYY-MM-DD)"
// @Param escopo query string false "Scope"
// @Param status query string false "Status"
// @Param prioridade query string false "Priority"
// @Param responsavel query string false "Responsible user ID"
// @Param incluirCancelados query bool false "Include cancelled tasks"
// @Success 200 {object} response.Envelope
// @Router /tasks [get]
func (h *TaskHandler) List(c *gin.Context) {
	viewer, ok := currentViewer(c)
	if !ok {
		return
	}
	var query dto.TaskQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, bindError(err, "invalid query parameters"))
		return
	}
	tasks, source, err := h.service.List(c.Request.Context(), viewer, query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, tasks, nil, readMeta(c, source))
}

// Get godoc
// @Summary Get task
// @Tags Tasks
// @Produce json
// @Param id path string true "Task ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /tasks/{id} [get]
func (h *TaskHandler) Get(c *gin.Context) {
	viewer, ok := currentViewer(c)
	if !ok {
		return
	}
	task, source, err := h.service.Get(c.Request.Context(), viewer, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, task, nil, readMeta(c, source))
}

// Create godoc
// @Summary Create task
// @Tags Tasks
// @Accept json
// @Produce json
// @Param payload body dto.TaskRequest true "Task"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /tasks [post]
func (h *TaskHandler) Create(c *gin.Context) {
	viewer, ok := currentViewer(c)
	if !ok {
		return
	}
	var req dto.TaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid task payload"))
		return
	}
	task, result, err := h.service.Create(c.Request.Context(), viewer, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, task, writeMeta(c, result))
}

// Update godoc
// @Summary Update task
// @Tags Tasks
// @Accept json
// @Produce json
// @Param id path string true "Task ID"
// @Param payload body dto.TaskRequest true "Task"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /tasks/{id} [put]
func (h *TaskHandler) Update(c *gin.Context) {
	viewer, ok := currentViewer(c)
	if !ok {
		return
	}
	var req dto.TaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid task payload"))
		return
	}
	task, result, err := h.service.Update(c.Request.Context(), viewer, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, task, nil, writeMeta(c, result))
}

// UpdateProgress godoc
// @Summary Update task progress
// @Tags Tasks
// @Accept json
// @Produce json
// @Param id path string true "Task ID"
// @Param payload body dto.TaskProgressRequest true "Progress"
// @Success 200 {object} response.Envelope
// @Router /tasks/{id}/progress [patch]
func (h *TaskHandler) UpdateProgress(c *gin.Context) {
	viewer, ok := currentViewer(c)
	if !ok {
		return
	}
	var req dto.TaskProgressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid progress payload"))
		return
	}
	task, result, err := h.service.UpdateProgress(c.Request.Context(), viewer, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, task, nil, writeMeta(c, result))
}

// Delete godoc
// @Summary Delete task
// @Tags Tasks
// @Param id path string true "Task ID"
// @Success 204 {object} response.Envelope
// @Router /tasks/{id} [delete]
func (h *TaskHandler) Delete(c *gin.Context) {
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
