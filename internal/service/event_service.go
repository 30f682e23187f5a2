package service

import (
	"context"
	"errors"
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

type eventStore interface {
	ListEvents(ctx context.Context, filter models.EventFilter) ([]models.Event, string, error)
	GetEvent(ctx context.Context, id string) (*models.Event, string, error)
	SaveEvent(ctx context.Context, event *models.Event) (persistence.WriteResult, error)
	DeleteEvent(ctx context.Context, id string) (persistence.WriteResult, error)
}

// viewInvalidator drops cached calendar views after agenda writes.
type viewInvalidator interface {
	InvalidateCalendars(ctx context.Context)
}

// EventService implements the event workflows on top of the persistence store.
type EventService struct {
	store     eventStore
	roster    rosterLookup
	views     viewInvalidator
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewEventService constructs an EventService. views may be nil.
func NewEventService(store eventStore, roster rosterLookup, views viewInvalidator, validate *validator.Validate, logger *zap.Logger) *EventService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = NewValidator()
	}
	return &EventService{
		store:     store,
		roster:    roster,
		views:     views,
		validator: validate,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC().Truncate(time.Microsecond) },
	}
}

// List returns the events visible to the viewer, ordered by day and time.
func (s *EventService) List(ctx context.Context, viewer models.Viewer, query dto.EventQuery) ([]models.Event, string, error) {
	filter, err := s.buildFilter(query)
	if err != nil {
		return nil, "", err
	}
	events, source, err := s.store.ListEvents(ctx, filter)
	if err != nil {
		return nil, source, storeError(err, "failed to list events")
	}

	visible, err := s.visible(ctx, viewer, events, query.IncludeCancelled || filter.Status == models.EventStatusCancelled)
	if err != nil {
		return nil, source, err
	}
	SortEvents(visible)
	return visible, source, nil
}

// Get returns one event. Invisible events are reported as not found.
func (s *EventService) Get(ctx context.Context, viewer models.Viewer, id string) (*models.Event, string, error) {
	event, source, err := s.store.GetEvent(ctx, id)
	if err != nil {
		return nil, source, storeError(err, "event not found")
	}
	departments, err := s.departmentsFor(ctx, []models.Event{*event})
	if err != nil {
		return nil, source, err
	}
	if !CanSeeEvent(viewer, event, departments) {
		return nil, source, appErrors.Clone(appErrors.ErrNotFound, "event not found")
	}
	return event, source, nil
}

// Create stores a new event owned by the viewer.
func (s *EventService) Create(ctx context.Context, viewer models.Viewer, req dto.EventRequest) (*models.Event, persistence.WriteResult, error) {
	if !viewer.Permission.CanWrite() {
		return nil, persistence.WriteResult{}, appErrors.Clone(appErrors.ErrForbidden, "viewers cannot create events")
	}

	now := s.now()
	event := &models.Event{
		ID:        uuid.NewString(),
		CreatedBy: viewer.UserID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.apply(ctx, event, req); err != nil {
		return nil, persistence.WriteResult{}, err
	}
	return s.save(ctx, event)
}

// Update replaces an event. A request carrying an older atualizadoEm than the stored record is refused.
func (s *EventService) Update(ctx context.Context, viewer models.Viewer, id string, req dto.EventRequest) (*models.Event, persistence.WriteResult, error) {
	event, err := s.editable(ctx, viewer, id)
	if err != nil {
		return nil, persistence.WriteResult{}, err
	}
	if stale(event.UpdatedAt, req.UpdatedAt) {
		return nil, persistence.WriteResult{}, appErrors.Clone(appErrors.ErrStaleWrite, "event was changed by someone else, reload and try again")
	}
	if err := s.apply(ctx, event, req); err != nil {
		return nil, persistence.WriteResult{}, err
	}
	event.UpdatedAt = s.now()
	return s.save(ctx, event)
}

// UpdateStatus changes only the status of an event.
func (s *EventService) UpdateStatus(ctx context.Context, viewer models.Viewer, id string, req dto.EventStatusRequest) (*models.Event, persistence.WriteResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, persistence.WriteResult{}, validationError(err, "invalid status")
	}
	event, err := s.editable(ctx, viewer, id)
	if err != nil {
		return nil, persistence.WriteResult{}, err
	}
	event.Status = req.Status
	event.UpdatedAt = s.now()
	return s.save(ctx, event)
}

// Delete removes an event.
func (s *EventService) Delete(ctx context.Context, viewer models.Viewer, id string) (persistence.WriteResult, error) {
	if _, err := s.editable(ctx, viewer, id); err != nil {
		return persistence.WriteResult{}, err
	}
	result, err := s.store.DeleteEvent(ctx, id)
	if err != nil {
		return result, storeError(err, "event not found")
	}
	s.invalidate(ctx)
	return result, nil
}

func (s *EventService) editable(ctx context.Context, viewer models.Viewer, id string) (*models.Event, error) {
	event, _, err := s.Get(ctx, viewer, id)
	if err != nil {
		return nil, err
	}
	if !CanEditEvent(viewer, event) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "you cannot edit this event")
	}
	return event, nil
}

func (s *EventService) save(ctx context.Context, event *models.Event) (*models.Event, persistence.WriteResult, error) {
	event.EnsureDefaults()
	result, err := s.store.SaveEvent(ctx, event)
	if err != nil {
		return nil, result, storeError(err, "failed to save event")
	}
	if result.Degraded {
		s.logger.Warn("event saved locally, primary unavailable", zap.String("event_id", event.ID))
	}
	s.invalidate(ctx)
	return event, result, nil
}

// apply validates req and copies it onto event.
func (s *EventService) apply(ctx context.Context, event *models.Event, req dto.EventRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return validationError(err, "invalid event payload")
	}
	date, err := models.ParseDate(req.Date)
	if err != nil {
		return validationError(err, "invalid event date")
	}
	if req.EndTime != "" && req.StartTime == "" {
		return appErrors.Clone(appErrors.ErrValidation, "horarioFim requires horarioInicio")
	}
	if req.StartTime != "" && req.EndTime != "" && models.ClockMinutes(req.EndTime) <= models.ClockMinutes(req.StartTime) {
		return appErrors.Clone(appErrors.ErrValidation, "horarioFim must be after horarioInicio")
	}

	participants := NormalizeParticipants(req.Participants)
	responsible := strings.TrimSpace(req.Responsible)
	if responsible == "" {
		responsible = event.Responsible
	}
	if responsible == "" {
		responsible = event.CreatedBy
	}
	if err := checkRoster(ctx, s.roster, append([]string{responsible}, participants...)); err != nil {
		return err
	}

	event.Title = strings.TrimSpace(req.Title)
	event.Description = strings.TrimSpace(req.Description)
	event.Date = date
	event.StartTime = req.StartTime
	event.EndTime = req.EndTime
	event.Type = req.Type
	if req.Status != "" {
		event.Status = req.Status
	}
	event.Participants = participants
	event.Visibility = req.Visibility
	event.Responsible = responsible
	event.Location = strings.TrimSpace(req.Location)
	if event.Title == "" {
		return appErrors.Clone(appErrors.ErrValidation, "titulo is required")
	}
	return nil
}

func (s *EventService) buildFilter(query dto.EventQuery) (models.EventFilter, error) {
	if err := s.validator.Struct(query); err != nil {
		return models.EventFilter{}, validationError(err, "invalid event filters")
	}
	from, to, err := parseRange(query.From, query.To)
	if err != nil {
		return models.EventFilter{}, err
	}
	return models.EventFilter{
		From:        from,
		To:          to,
		Type:        models.EventType(query.Type),
		Status:      models.EventStatus(query.Status),
		Responsible: query.Responsible,
		Participant: query.Participant,
	}, nil
}

func (s *EventService) visible(ctx context.Context, viewer models.Viewer, events []models.Event, includeCancelled bool) ([]models.Event, error) {
	departments, err := s.departmentsFor(ctx, events)
	if err != nil {
		return nil, err
	}
	out := make([]models.Event, 0, len(events))
	for i := range events {
		if !includeCancelled && events[i].Status == models.EventStatusCancelled {
			continue
		}
		if CanSeeEvent(viewer, &events[i], departments) {
			out = append(out, events[i])
		}
	}
	return out, nil
}

func (s *EventService) departmentsFor(ctx context.Context, events []models.Event) (departmentIndex, error) {
	departments, err := loadDepartments(ctx, s.roster, teamEventOwners(events))
	if err != nil {
		return nil, appErrors.Internal(err, "failed to resolve departments")
	}
	return departments, nil
}

func (s *EventService) invalidate(ctx context.Context) {
	if s.views != nil {
		s.views.InvalidateCalendars(ctx)
	}
}

// SortEvents orders events by day, untimed first, then start time and title.
func SortEvents(events []models.Event) {
	sort.SliceStable(events, func(i, j int) bool {
		a, b := events[i], events[j]
		if !a.Date.Equal(b.Date) {
			return a.Date.Before(b.Date)
		}
		if a.Timed() != b.Timed() {
			return !a.Timed()
		}
		if a.StartTime != b.StartTime {
			return a.StartTime < b.StartTime
		}
		return strings.ToLower(a.Title) < strings.ToLower(b.Title)
	})
}

// NormalizeParticipants trims, drops blanks and removes duplicates keeping the first occurrence.
func NormalizeParticipants(ids []string) []string {
	trimmed := make([]string, 0, len(ids))
	for _, id := range ids {
		trimmed = append(trimmed, strings.TrimSpace(id))
	}
	return uniqueNonBlank(trimmed)
}

// checkRoster rejects ids that do not belong to a known user.
func checkRoster(ctx context.Context, roster rosterLookup, ids []string) error {
	unique := uniqueNonBlank(ids)
	if len(unique) == 0 || roster == nil {
		return nil
	}
	users, err := roster.FindByIDs(ctx, unique)
	if err != nil {
		return appErrors.Internal(err, "failed to load participants")
	}
	known := make(map[string]struct{}, len(users))
	for _, u := range users {
		known[u.ID] = struct{}{}
	}
	var unknown []string
	for _, id := range unique {
		if _, ok := known[id]; !ok {
			unknown = append(unknown, id)
		}
	}
	if len(unknown) > 0 {
		return appErrors.Clone(appErrors.ErrValidation, "unknown users: "+strings.Join(unknown, ", "))
	}
	return nil
}

func parseRange(fromRaw, toRaw string) (*models.Date, *models.Date, error) {
	return parseNamedRange(fromRaw, toRaw, "de", "ate")
}

// parseNamedRange parses an optional date pair, naming the offending field in errors.
func parseNamedRange(fromRaw, toRaw, fromField, toField string) (*models.Date, *models.Date, error) {
	var from, to *models.Date
	if fromRaw != "" {
		d, err := models.ParseDate(fromRaw)
		if err != nil {
			return nil, nil, validationError(err, fromField+" must be a YYYY-MM-DD date")
		}
		from = &d
	}
	if toRaw != "" {
		d, err := models.ParseDate(toRaw)
		if err != nil {
			return nil, nil, validationError(err, toField+" must be a YYYY-MM-DD date")
		}
		to = &d
	}
	if from != nil && to != nil && to.Before(*from) {
		return nil, nil, appErrors.Clone(appErrors.ErrValidation, toField+" must not be before "+fromField)
	}
	return from, to, nil
}

// stale reports whether the stored version is newer than the one the client edited.
func stale(stored time.Time, seen *time.Time) bool {
	if seen == nil || seen.IsZero() {
		return false
	}
	return stored.Truncate(time.Millisecond).After(seen.Truncate(time.Millisecond))
}

// storeError maps persistence failures onto API errors.
func storeError(err error, notFound string) error {
	switch {
	case errors.Is(err, persistence.ErrNotFound):
		return appErrors.Clone(appErrors.ErrNotFound, notFound)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return appErrors.Wrap(err, appErrors.ErrBackendUnavailable.Code, appErrors.ErrBackendUnavailable.Status, "storage did not answer in time")
	default:
		return appErrors.Wrap(err, appErrors.ErrBackendUnavailable.Code, appErrors.ErrBackendUnavailable.Status, appErrors.ErrBackendUnavailable.Message)
	}
}
