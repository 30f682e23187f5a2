package service

import (
	"context"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/construtora/agenda-api/internal/dto"
	"github.com/construtora/agenda-api/internal/models"
	appErrors "github.com/construtora/agenda-api/pkg/errors"
)

const (
	defaultAgendaDays = 7
	maxAgendaDays     = 31
)

// AgendaService builds the personal agenda: what the caller is involved in, grouped by day.
type AgendaService struct {
	events   eventLister
	tasks    taskLister
	logger   *zap.Logger
	location *time.Location
	now      func() time.Time
}

// NewAgendaService constructs the service. loc decides which day is today.
func NewAgendaService(events eventLister, tasks taskLister, logger *zap.Logger, loc *time.Location) *AgendaService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if loc == nil {
		loc = time.UTC
	}
	return &AgendaService{events: events, tasks: tasks, logger: logger, location: loc, now: time.Now}
}

// Personal returns the agenda window starting at fromRaw (today when blank) spanning days days.
func (s *AgendaService) Personal(ctx context.Context, viewer models.Viewer, fromRaw string, days int) (*dto.PersonalAgenda, error) {
	today := models.NewDate(s.now().In(s.location))
	from := today
	if strings.TrimSpace(fromRaw) != "" {
		parsed, err := models.ParseDate(fromRaw)
		if err != nil {
			return nil, validationError(err, "invalid de")
		}
		from = parsed
	}
	if days < 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "dias must be positive")
	}
	if days == 0 {
		days = defaultAgendaDays
	}
	if days > maxAgendaDays {
		days = maxAgendaDays
	}
	to := from.AddDays(days - 1)
	tomorrow := today.AddDays(1)

	events, _, err := s.events.List(ctx, viewer, dto.EventQuery{From: from.String(), To: to.String()})
	if err != nil {
		return nil, err
	}
	tasks, _, err := s.tasks.List(ctx, viewer, dto.TaskQuery{})
	if err != nil {
		return nil, err
	}

	agenda := &dto.PersonalAgenda{
		From:     from.String(),
		To:       to.String(),
		Today:    today.String(),
		Overdue:  []dto.AgendaItem{},
		Current:  []dto.AgendaItem{},
		Tomorrow: []dto.AgendaItem{},
		Upcoming: []dto.AgendaItem{},
	}
	// place files the item by day and reports false for days before today.
	place := func(day models.Date, item dto.AgendaItem) bool {
		switch {
		case day.Equal(today):
			agenda.Current = append(agenda.Current, item)
		case day.Equal(tomorrow):
			agenda.Tomorrow = append(agenda.Tomorrow, item)
		case day.After(tomorrow):
			agenda.Upcoming = append(agenda.Upcoming, item)
		default:
			return false
		}
		return true
	}

	for i := range events {
		e := events[i]
		if !EventInvolves(&e, viewer.UserID) {
			continue
		}
		if place(e.Date, eventItem(&e)) {
			agenda.Summary.Events++
		}
	}

	weekStart := today.AddDays(-int(today.Weekday()))
	for i := range tasks {
		t := tasks[i]
		if !TaskInvolves(&t, viewer.UserID) {
			continue
		}
		if t.Status == models.TaskStatusDone && !models.NewDate(t.UpdatedAt.In(s.location)).Before(weekStart) {
			agenda.Summary.CompletedThisWeek++
		}
		if !t.Open() {
			continue
		}
		agenda.Summary.OpenTasks++
		if t.Overdue(today) {
			agenda.Overdue = append(agenda.Overdue, taskItem(&t, true))
			continue
		}
		day := agendaDay(&t)
		if day == nil || day.Before(from) || day.After(to) {
			continue
		}
		place(*day, taskItem(&t, false))
	}
	agenda.Summary.Overdue = len(agenda.Overdue)

	for _, section := range [][]dto.AgendaItem{agenda.Overdue, agenda.Current, agenda.Tomorrow, agenda.Upcoming} {
		sortAgendaItems(section)
	}
	return agenda, nil
}

// agendaDay is the day a task is listed under: its due date, else its start date.
func agendaDay(t *models.Task) *models.Date {
	if t.DueDate != nil {
		return t.DueDate
	}
	return t.StartDate
}

func eventItem(e *models.Event) dto.AgendaItem {
	return dto.AgendaItem{
		Kind:      dto.AgendaItemEvent,
		ID:        e.ID,
		Title:     e.Title,
		Date:      e.Date.String(),
		StartTime: e.StartTime,
		EndTime:   e.EndTime,
		Status:    string(e.Status),
		Event:     e,
	}
}

func taskItem(t *models.Task, overdue bool) dto.AgendaItem {
	item := dto.AgendaItem{
		Kind:     dto.AgendaItemTask,
		ID:       t.ID,
		Title:    t.Title,
		Status:   string(t.Status),
		Priority: string(t.Priority),
		Overdue:  overdue,
		Task:     t,
	}
	if day := agendaDay(t); day != nil {
		item.Date = day.String()
	}
	return item
}

// sortAgendaItems orders by date, then start time with untimed items first, then title.
func sortAgendaItems(items []dto.AgendaItem) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if a.Date != b.Date {
			return a.Date < b.Date
		}
		if a.StartTime != b.StartTime {
			return a.StartTime < b.StartTime
		}
		return strings.ToLower(a.Title) < strings.ToLower(b.Title)
	})
}
