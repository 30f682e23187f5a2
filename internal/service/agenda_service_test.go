package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/construtora/agenda-api/internal/dto"
	"github.com/construtora/agenda-api/internal/models"
	appErrors "github.com/construtora/agenda-api/pkg/errors"
)

func newAgendaFixture() (*AgendaService, *memAgendaStore, *mockRoster) {
	store := newMemAgendaStore()
	roster := newTeamRoster()
	events := NewEventService(store, roster, nil, nil, zap.NewNop())
	tasks := NewTaskService(store, roster, nil, nil, zap.NewNop(), time.UTC)
	tasks.now = func() time.Time { return fixedNow }
	svc := NewAgendaService(events, tasks, zap.NewNop(), time.UTC)
	svc.now = func() time.Time { return fixedNow }
	return svc, store, roster
}

func agendaIDs(items []dto.AgendaItem) []string {
	ids := make([]string, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ID)
	}
	return ids
}

func TestAgendaServicePersonal(t *testing.T) {
	svc, store, roster := newAgendaFixture()
	public := models.VisibilityPublic
	store.events = map[string]models.Event{
		"today-late":   {ID: "today-late", Title: "Reunião", Date: mustDate("2026-10-17"), StartTime: "14:00", Responsible: "joao", Visibility: public},
		"today-allday": {ID: "today-allday", Title: "Plantão", Date: mustDate("2026-10-17"), CreatedBy: "ana", Responsible: "ana", Participants: pq.StringArray{"joao"}, Visibility: public},
		"tomorrow":     {ID: "tomorrow", Title: "Reunião de obra", Date: mustDate("2026-10-18"), CreatedBy: "joao", Visibility: public},
		"next":         {ID: "next", Title: "Visita", Date: mustDate("2026-10-21"), Responsible: "joao", Visibility: public},
		"other":        {ID: "other", Title: "Outro", Date: mustDate("2026-10-18"), CreatedBy: "ana", Responsible: "ana", Visibility: public},
		"far":          {ID: "far", Title: "Longe", Date: mustDate("2026-10-30"), Responsible: "joao", Visibility: public},
	}
	personal := models.TaskScopePersonal
	store.tasks = map[string]models.Task{
		"overdue":      {ID: "overdue", Title: "Atrasada", Scope: personal, CreatedBy: "joao", Responsible: "joao", Status: models.TaskStatusPending, DueDate: datePtr("2026-10-10")},
		"due-tomorrow": {ID: "due-tomorrow", Title: "Enviar relatório", Scope: personal, CreatedBy: "joao", Responsible: "joao", Status: models.TaskStatusInProgress, DueDate: datePtr("2026-10-18")},
		"done":         {ID: "done", Title: "Feita", Scope: personal, CreatedBy: "joao", Responsible: "joao", Status: models.TaskStatusDone, Progress: 100, UpdatedAt: time.Date(2026, 10, 12, 9, 0, 0, 0, time.UTC)},
		"old-done":     {ID: "old-done", Title: "Antiga", Scope: personal, CreatedBy: "joao", Responsible: "joao", Status: models.TaskStatusDone, Progress: 100, UpdatedAt: time.Date(2026, 10, 5, 9, 0, 0, 0, time.UTC)},
		"undated":      {ID: "undated", Title: "Sem data", Scope: personal, CreatedBy: "joao", Responsible: "joao", Status: models.TaskStatusPending},
	}

	agenda, err := svc.Personal(context.Background(), viewerOf(roster, "joao"), "", 0)
	require.NoError(t, err)
	assert.Equal(t, "2026-10-17", agenda.From)
	assert.Equal(t, "2026-10-23", agenda.To)
	assert.Equal(t, "2026-10-17", agenda.Today)

	assert.Equal(t, []string{"overdue"}, agendaIDs(agenda.Overdue))
	assert.True(t, agenda.Overdue[0].Overdue)
	assert.Equal(t, []string{"today-allday", "today-late"}, agendaIDs(agenda.Current))
	assert.Equal(t, []string{"due-tomorrow", "tomorrow"}, agendaIDs(agenda.Tomorrow))
	assert.Equal(t, []string{"next"}, agendaIDs(agenda.Upcoming))

	assert.Equal(t, dto.AgendaSummary{Events: 4, OpenTasks: 3, Overdue: 1, CompletedThisWeek: 1}, agenda.Summary)
}

func TestAgendaServiceWindow(t *testing.T) {
	svc, _, roster := newAgendaFixture()

	agenda, err := svc.Personal(context.Background(), viewerOf(roster, "joao"), "2026-10-20", 90)
	require.NoError(t, err)
	assert.Equal(t, "2026-11-19", agenda.To)
	assert.NotNil(t, agenda.Current)

	_, err = svc.Personal(context.Background(), viewerOf(roster, "joao"), "", -1)
	assert.True(t, errors.Is(err, appErrors.ErrValidation))

	_, err = svc.Personal(context.Background(), viewerOf(roster, "joao"), "amanhã", 7)
	assert.True(t, errors.Is(err, appErrors.ErrValidation))
}

func TestAgendaServicePastStartCountsOnlyListedEvents(t *testing.T) {
	svc, store, roster := newAgendaFixture()
	public := models.VisibilityPublic
	store.events = map[string]models.Event{
		"yesterday": {ID: "yesterday", Title: "Vistoria", Date: mustDate("2026-10-16"), Responsible: "joao", Visibility: public},
		"today":     {ID: "today", Title: "Reunião", Date: mustDate("2026-10-17"), Responsible: "joao", Visibility: public},
	}

	agenda, err := svc.Personal(context.Background(), viewerOf(roster, "joao"), "2026-10-15", 7)
	require.NoError(t, err)
	assert.Equal(t, []string{"today"}, agendaIDs(agenda.Current))
	assert.Empty(t, agenda.Tomorrow)
	assert.Empty(t, agenda.Upcoming)
	assert.Equal(t, 1, agenda.Summary.Events)
}
