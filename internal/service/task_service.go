package service

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/construtora/agenda-api/internal/dto"
	"github.com/construtora/agenda-api/internal/models"
	"github.com/construtora/agenda-api/internal/persistence"
	appErrors "github.com/construtora/agenda-api/pkg/errors"
)

type taskStore interface {
	ListTasks(ctx context.Context, filter models.TaskFilter) ([]models.Task, string, error)
	GetTask(ctx context.Context, id string) (*models.Task, string, error)
	SaveTask(ctx context.Context, task *models.Task) (persistence.WriteResult, error)
	DeleteTask(ctx context.Context, id string) (persistence.WriteResult, error)
}

// TaskService implements the task workflows on top of the persistence store.
type TaskService struct {
	store     taskStore
	roster    rosterLookup
	views     viewInvalidator
	validator *validator.Validate
	logger    *zap.Logger
	location  *time.Location
	now       func() time.Time
}

// NewTaskService constructs a TaskService. loc defines which day is "today" for overdue checks.
func NewTaskService(store taskStore, roster rosterLookup, views viewInvalidator, validate *validator.Validate, logger *zap.Logger, loc *time.Location) *TaskService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = NewValidator()
	}
	if loc == nil {
		loc = time.UTC
	}
	return &TaskService{
		store:     store,
		roster:    roster,
		views:     views,
		validator: validate,
		logger:    logger,
		location:  loc,
		now:       func() time.Time { return time.Now().UTC().Truncate(time.Microsecond) },
	}
}

// List returns the tasks visible to the viewer: overdue first, then by due date and priority.
func (s *TaskService) List(ctx context.Context, viewer models.Viewer, query dto.TaskQuery) ([]models.Task, string, error) {
	if err := s.validator.Struct(query); err != nil {
		return nil, "", validationError(err, "invalid task filters")
	}
	from, to, err := parseRange(query.From, query.To)
	if err != nil {
		return nil, "", err
	}
	filter := models.TaskFilter{
		From:        from,
		To:          to,
		Scope:       models.TaskScope(query.Scope),
		Status:      models.TaskStatus(query.Status),
		Priority:    models.TaskPriority(query.Priority),
		Responsible: query.Responsible,
	}

	tasks, source, err := s.store.ListTasks(ctx, filter)
	if err != nil {
		return nil, source, storeError(err, "failed to list tasks")
	}
	visible, err := s.visible(ctx, viewer, tasks, query.IncludeCancelled || filter.Status == models.TaskStatusCancelled)
	if err != nil {
		return nil, source, err
	}
	SortTasks(visible, s.today())
	return visible, source, nil
}

// Get returns one task. Invisible tasks are reported as not found.
func (s *TaskService) Get(ctx context.Context, viewer models.Viewer, id string) (*models.Task, string, error) {
	task, source, err := s.store.GetTask(ctx, id)
	if err != nil {
		return nil, source, storeError(err, "task not found")
	}
	departments, err := loadDepartments(ctx, s.roster, teamTaskOwners([]models.Task{*task}))
	if err != nil {
		return nil, source, appErrors.Internal(err, "failed to resolve departments")
	}
	if !CanSeeTask(viewer, task, departments) {
		return nil, source, appErrors.Clone(appErrors.ErrNotFound, "task not found")
	}
	return task, source, nil
}

// Create stores a new task owned by the viewer.
func (s *TaskService) Create(ctx context.Context, viewer models.Viewer, req dto.TaskRequest) (*models.Task, persistence.WriteResult, error) {
	if !viewer.Permission.CanWrite() {
		return nil, persistence.WriteResult{}, appErrors.Clone(appErrors.ErrForbidden, "viewers cannot create tasks")
	}
	now := s.now()
	task := &models.Task{
		ID:        uuid.NewString(),
		CreatedBy: viewer.UserID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.apply(ctx, task, req); err != nil {
		return nil, persistence.WriteResult{}, err
	}
	return s.save(ctx, task)
}

// Update replaces a task, refusing requests based on an outdated version.
func (s *TaskService) Update(ctx context.Context, viewer models.Viewer, id string, req dto.TaskRequest) (*models.Task, persistence.WriteResult, error) {
	task, err := s.editable(ctx, viewer, id)
	if err != nil {
		return nil, persistence.WriteResult{}, err
	}
	if stale(task.UpdatedAt, req.UpdatedAt) {
		return nil, persistence.WriteResult{}, appErrors.Clone(appErrors.ErrStaleWrite, "task was changed by someone else, reload and try again")
	}
	if err := s.apply(ctx, task, req); err != nil {
		return nil, persistence.WriteResult{}, err
	}
	task.UpdatedAt = s.now()
	return s.save(ctx, task)
}

// UpdateProgress sets the completion percentage and moves the status along with it.
func (s *TaskService) UpdateProgress(ctx context.Context, viewer models.Viewer, id string, req dto.TaskProgressRequest) (*models.Task, persistence.WriteResult, error) {
	task, err := s.editable(ctx, viewer, id)
	if err != nil {
		return nil, persistence.WriteResult{}, err
	}
	if task.Status == models.TaskStatusCancelled {
		return nil, persistence.WriteResult{}, appErrors.Clone(appErrors.ErrValidation, "cancelled tasks cannot change progress")
	}
	if task.Status == models.TaskStatusDone && req.Progress < 100 {
		task.Status = models.TaskStatusInProgress
		if req.Progress <= 0 {
			task.Status = models.TaskStatusPending
		}
	}
	task.ApplyProgress(req.Progress)
	task.UpdatedAt = s.now()
	return s.save(ctx, task)
}

// Delete removes a task.
func (s *TaskService) Delete(ctx context.Context, viewer models.Viewer, id string) (persistence.WriteResult, error) {
	if _, err := s.editable(ctx, viewer, id); err != nil {
		return persistence.WriteResult{}, err
	}
	result, err := s.store.DeleteTask(ctx, id)
	if err != nil {
		return result, storeError(err, "task not found")
	}
	s.invalidate(ctx)
	return result, nil
}

func (s *TaskService) editable(ctx context.Context, viewer models.Viewer, id string) (*models.Task, error) {
	task, _, err := s.Get(ctx, viewer, id)
	if err != nil {
		return nil, err
	}
	if !CanEditTask(viewer, task) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "you cannot edit this task")
	}
	return task, nil
}

func (s *TaskService) save(ctx context.Context, task *models.Task) (*models.Task, persistence.WriteResult, error) {
	task.EnsureDefaults()
	result, err := s.store.SaveTask(ctx, task)
	if err != nil {
		return nil, result, storeError(err, "failed to save task")
	}
	if result.Degraded {
		s.logger.Warn("task saved locally, primary unavailable", zap.String("task_id", task.ID))
	}
	s.invalidate(ctx)
	return task, result, nil
}

func (s *TaskService) apply(ctx context.Context, task *models.Task, req dto.TaskRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return validationError(err, "invalid task payload")
	}
	start, due, err := parseNamedRange(req.StartDate, req.DueDate, "dataInicio", "dataFim")
	if err != nil {
		return err
	}

	scope := req.Scope
	if scope == "" {
		scope = models.TaskScopePersonal
	}
	responsible := strings.TrimSpace(req.Responsible)
	if responsible == "" {
		responsible = task.Responsible
	}
	if responsible == "" {
		responsible = task.CreatedBy
	}
	participants := NormalizeParticipants(req.Participants)
	if scope == models.TaskScopePersonal {
		participants = personalParticipants(participants, responsible)
	}
	if err := checkRoster(ctx, s.roster, append([]string{responsible}, participants...)); err != nil {
		return err
	}

	task.Title = strings.TrimSpace(req.Title)
	task.Description = strings.TrimSpace(req.Description)
	task.Scope = scope
	task.Responsible = responsible
	task.Participants = participants
	task.ShowOnCal = req.ShowOnCal
	if req.Status != "" {
		task.Status = req.Status
	}
	task.Priority = req.Priority
	task.StartDate = start
	task.DueDate = due
	task.Progress = req.Progress
	if task.Title == "" {
		return appErrors.Clone(appErrors.ErrValidation, "titulo is required")
	}
	return nil
}

func (s *TaskService) visible(ctx context.Context, viewer models.Viewer, tasks []models.Task, includeCancelled bool) ([]models.Task, error) {
	departments, err := loadDepartments(ctx, s.roster, teamTaskOwners(tasks))
	if err != nil {
		return nil, appErrors.Internal(err, "failed to resolve departments")
	}
	out := make([]models.Task, 0, len(tasks))
	for i := range tasks {
		if !includeCancelled && tasks[i].Status == models.TaskStatusCancelled {
			continue
		}
		if CanSeeTask(viewer, &tasks[i], departments) {
			out = append(out, tasks[i])
		}
	}
	return out, nil
}

func (s *TaskService) today() models.Date {
	return models.NewDate(s.now().In(s.location))
}

func (s *TaskService) invalidate(ctx context.Context) {
	if s.views != nil {
		s.views.InvalidateCalendars(ctx)
	}
}

// SortTasks puts overdue tasks first, then orders by due date (undated last) and priority.
func SortTasks(tasks []models.Task, today models.Date) {
	sort.SliceStable(tasks, func(i, j int) bool {
		a, b := &tasks[i], &tasks[j]
		if ao, bo := a.Overdue(today), b.Overdue(today); ao != bo {
			return ao
		}
		switch {
		case a.DueDate == nil && b.DueDate != nil:
			return false
		case a.DueDate != nil && b.DueDate == nil:
			return true
		case a.DueDate != nil && b.DueDate != nil && !a.DueDate.Equal(*b.DueDate):
			return a.DueDate.Before(*b.DueDate)
		}
		if a.Priority.Rank() != b.Priority.Rank() {
			return a.Priority.Rank() > b.Priority.Rank()
		}
		return strings.ToLower(a.Title) < strings.ToLower(b.Title)
	})
}

// personalParticipants keeps only the responsible on a personal task.
func personalParticipants(participants []string, responsible string) []string {
	if contains(participants, responsible) {
		return []string{responsible}
	}
	return []string{}
}
