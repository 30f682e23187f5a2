package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/construtora/agenda-api/internal/dto"
	"github.com/construtora/agenda-api/internal/models"
	appErrors "github.com/construtora/agenda-api/pkg/errors"
)

// CalendarCachePattern matches every cached calendar view.
const CalendarCachePattern = "calendar:*"

const (
	gridWeeks = 6
	gridDays  = gridWeeks * 7
)

type eventLister interface {
	List(ctx context.Context, viewer models.Viewer, query dto.EventQuery) ([]models.Event, string, error)
}

type taskLister interface {
	List(ctx context.Context, viewer models.Viewer, query dto.TaskQuery) ([]models.Task, string, error)
}

type viewCache interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// CalendarService builds the month grid and day views.
type CalendarService struct {
	events   eventLister
	tasks    taskLister
	cache    viewCache
	ttl      time.Duration
	logger   *zap.Logger
	location *time.Location
	now      func() time.Time
}

// NewCalendarService constructs the service. cache may be nil.
func NewCalendarService(events eventLister, tasks taskLister, cache viewCache, ttl time.Duration, logger *zap.Logger, loc *time.Location) *CalendarService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if loc == nil {
		loc = time.UTC
	}
	return &CalendarService{events: events, tasks: tasks, cache: cache, ttl: ttl, logger: logger, location: loc, now: time.Now}
}

// Month returns a six week grid starting on the Sunday on or before the first of the month.
// Zero year and month select the current month.
func (s *CalendarService) Month(ctx context.Context, viewer models.Viewer, year, month int) (*dto.CalendarMonth, error) {
	if year == 0 && month == 0 {
		now := s.now().In(s.location)
		year, month = now.Year(), int(now.Month())
	}
	if month < 1 || month > 12 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "mes must be between 1 and 12")
	}
	if year < 1970 || year > 9999 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "ano is out of range")
	}

	today := s.today()
	key := fmt.Sprintf("calendar:%s:%04d-%02d:%s", viewer.UserID, year, month, today)
	if s.cache != nil {
		var cached dto.CalendarMonth
		if hit, err := s.cache.Get(ctx, key, &cached); err == nil && hit {
			return &cached, nil
		}
	}

	first := models.NewDate(time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC))
	start := first.AddDays(-int(first.Weekday()))
	end := start.AddDays(gridDays - 1)

	events, tasks, err := s.load(ctx, viewer, start, end)
	if err != nil {
		return nil, err
	}

	grid := &dto.CalendarMonth{
		Year:  year,
		Month: month,
		Start: start.String(),
		End:   end.String(),
		Weeks: make([][]dto.CalendarCell, gridWeeks),
	}
	day := start
	for w := 0; w < gridWeeks; w++ {
		week := make([]dto.CalendarCell, 7)
		for d := 0; d < 7; d++ {
			week[d] = dto.CalendarCell{
				Date:    day.String(),
				InMonth: int(day.Month()) == month,
				IsToday: day.Equal(today),
				Events:  eventsOn(events, day),
				Tasks:   tasksOn(tasks, day),
			}
			day = day.AddDays(1)
		}
		grid.Weeks[w] = week
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, grid, s.ttl); err != nil {
			s.logger.Debug("calendar cache set failed", zap.String("key", key), zap.Error(err))
		}
	}
	return grid, nil
}

// Day lists the visible events and calendar tasks of one day.
func (s *CalendarService) Day(ctx context.Context, viewer models.Viewer, raw string) (*dto.CalendarDay, error) {
	day, err := models.ParseDate(raw)
	if err != nil {
		return nil, validationError(err, "invalid data")
	}
	events, tasks, err := s.load(ctx, viewer, day, day)
	if err != nil {
		return nil, err
	}
	return &dto.CalendarDay{Date: day.String(), Events: eventsOn(events, day), Tasks: tasksOn(tasks, day)}, nil
}

func (s *CalendarService) load(ctx context.Context, viewer models.Viewer, from, to models.Date) ([]models.Event, []models.Task, error) {
	events, _, err := s.events.List(ctx, viewer, dto.EventQuery{From: from.String(), To: to.String()})
	if err != nil {
		return nil, nil, err
	}
	tasks, _, err := s.tasks.List(ctx, viewer, dto.TaskQuery{From: from.String(), To: to.String()})
	if err != nil {
		return nil, nil, err
	}
	onCalendar := tasks[:0]
	for _, t := range tasks {
		if t.ShowOnCal {
			onCalendar = append(onCalendar, t)
		}
	}
	return events, onCalendar, nil
}

func (s *CalendarService) today() models.Date {
	return models.NewDate(s.now().In(s.location))
}

func eventsOn(events []models.Event, day models.Date) []models.Event {
	out := []models.Event{}
	for _, e := range events {
		if e.Date.Equal(day) {
			out = append(out, e)
		}
	}
	return out
}

func tasksOn(tasks []models.Task, day models.Date) []models.Task {
	out := []models.Task{}
	for i := range tasks {
		if tasks[i].Covers(day) {
			out = append(out, tasks[i])
		}
	}
	return out
}
