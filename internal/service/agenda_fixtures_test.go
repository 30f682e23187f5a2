package service

import (
	"context"
	"sync"

	"github.com/construtora/agenda-api/internal/models"
	"github.com/construtora/agenda-api/internal/persistence"
)

type memAgendaStore struct {
	mu       sync.Mutex
	events   map[string]models.Event
	tasks    map[string]models.Task
	degraded bool
	saves    int
}

func newMemAgendaStore() *memAgendaStore {
	return &memAgendaStore{events: map[string]models.Event{}, tasks: map[string]models.Task{}}
}

func (m *memAgendaStore) result() persistence.WriteResult {
	if m.degraded {
		return persistence.WriteResult{Source: persistence.SourceLocal, Degraded: true}
	}
	return persistence.WriteResult{Source: "postgres"}
}

func (m *memAgendaStore) ListEvents(ctx context.Context, filter models.EventFilter) ([]models.Event, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Event{}
	for _, e := range m.events {
		e := e
		if filter.Matches(&e) {
			out = append(out, e)
		}
	}
	return out, "postgres", nil
}

func (m *memAgendaStore) GetEvent(ctx context.Context, id string) (*models.Event, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.events[id]
	if !ok {
		return nil, "postgres", persistence.ErrNotFound
	}
	return &e, "postgres", nil
}

func (m *memAgendaStore) SaveEvent(ctx context.Context, event *models.Event) (persistence.WriteResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events[event.ID] = *event
	m.saves++
	return m.result(), nil
}

func (m *memAgendaStore) DeleteEvent(ctx context.Context, id string) (persistence.WriteResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.events[id]; !ok {
		return persistence.WriteResult{}, persistence.ErrNotFound
	}
	delete(m.events, id)
	return m.result(), nil
}

func (m *memAgendaStore) ListTasks(ctx context.Context, filter models.TaskFilter) ([]models.Task, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Task{}
	for _, t := range m.tasks {
		t := t
		if filter.Matches(&t) {
			out = append(out, t)
		}
	}
	return out, "postgres", nil
}

func (m *memAgendaStore) GetTask(ctx context.Context, id string) (*models.Task, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tasks[id]
	if !ok {
		return nil, "postgres", persistence.ErrNotFound
	}
	return &t, "postgres", nil
}

func (m *memAgendaStore) SaveTask(ctx context.Context, task *models.Task) (persistence.WriteResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tasks[task.ID] = *task
	m.saves++
	return m.result(), nil
}

func (m *memAgendaStore) DeleteTask(ctx context.Context, id string) (persistence.WriteResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tasks[id]; !ok {
		return persistence.WriteResult{}, persistence.ErrNotFound
	}
	delete(m.tasks, id)
	return m.result(), nil
}

type mockRoster struct {
	users map[string]models.User
	calls int
}

func (m *mockRoster) FindByIDs(ctx context.Context, ids []string) ([]models.User, error) {
	m.calls++
	out := []models.User{}
	for _, id := range ids {
		if u, ok := m.users[id]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}

type countingViews struct {
	invalidations int
}

func (c *countingViews) InvalidateCalendars(ctx context.Context) {
	c.invalidations++
}

// Team fixture: carla (admin, Engenharia), joao (editor, Obras), ana (editor, Obras),
// pedro (viewer, Engenharia).
func newTeamRoster() *mockRoster {
	return &mockRoster{users: map[string]models.User{
		"carla": {ID: "carla", Name: "Carla", Department: "Engenharia", Permission: models.PermissionAdmin, Active: true},
		"joao":  {ID: "joao", Name: "João", Department: "Obras", Permission: models.PermissionEditor, Active: true},
		"ana":   {ID: "ana", Name: "Ana", Department: "Obras", Permission: models.PermissionEditor, Active: true},
		"pedro": {ID: "pedro", Name: "Pedro", Department: "Engenharia", Permission: models.PermissionViewer, Active: true},
	}}
}

func viewerOf(roster *mockRoster, id string) models.Viewer {
	u := roster.users[id]
	return models.Viewer{UserID: u.ID, Department: u.Department, Permission: u.Permission}
}

func mustDate(raw string) models.Date {
	d, err := models.ParseDate(raw)
	if err != nil {
		panic(err)
	}
	return d
}

func datePtr(raw string) *models.Date {
	d := mustDate(raw)
	return &d
}
