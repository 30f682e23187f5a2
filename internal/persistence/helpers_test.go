package persistence

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/construtora/agenda-api/internal/models"
	"github.com/construtora/agenda-api/pkg/database"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type memBackend struct {
	name   string
	mu     sync.Mutex
	events map[string]models.Event
	tasks  map[string]models.Task
	down   atomic.Bool
	writes atomic.Int32
}

func newMemBackend(name string) *memBackend {
	return &memBackend{name: name, events: map[string]models.Event{}, tasks: map[string]models.Task{}}
}

func (m *memBackend) unavailable() error {
	if m.down.Load() {
		return errors.New(m.name + " unavailable")
	}
	return nil
}

func (m *memBackend) Name() string                   { return m.name }
func (m *memBackend) Ping(ctx context.Context) error { return m.unavailable() }

func (m *memBackend) ListEvents(ctx context.Context, filter models.EventFilter) ([]models.Event, error) {
	if err := m.unavailable(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.Event, 0, len(m.events))
	for _, e := range m.events {
		out = append(out, e)
	}
	return filterEvents(out, filter), nil
}

func (m *memBackend) GetEvent(ctx context.Context, id string) (*models.Event, error) {
	if err := m.unavailable(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.events[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &e, nil
}

func (m *memBackend) SaveEvent(ctx context.Context, event *models.Event) error {
	m.writes.Add(1)
	if err := m.unavailable(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events[event.ID] = *event
	return nil
}

func (m *memBackend) DeleteEvent(ctx context.Context, id string) error {
	m.writes.Add(1)
	if err := m.unavailable(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.events[id]; !ok {
		return ErrNotFound
	}
	delete(m.events, id)
	return nil
}

func (m *memBackend) ListTasks(ctx context.Context, filter models.TaskFilter) ([]models.Task, error) {
	if err := m.unavailable(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.Task, 0, len(m.tasks))
	for _, t := range m.tasks {
		out = append(out, t)
	}
	return filterTasks(out, filter), nil
}

func (m *memBackend) GetTask(ctx context.Context, id string) (*models.Task, error) {
	if err := m.unavailable(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tasks[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &t, nil
}

func (m *memBackend) SaveTask(ctx context.Context, task *models.Task) error {
	m.writes.Add(1)
	if err := m.unavailable(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tasks[task.ID] = *task
	return nil
}

func (m *memBackend) DeleteTask(ctx context.Context, id string) error {
	m.writes.Add(1)
	if err := m.unavailable(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tasks[id]; !ok {
		return ErrNotFound
	}
	delete(m.tasks, id)
	return nil
}

func (m *memBackend) hasEvent(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.events[id]
	return ok
}

func newLocal(t *testing.T) *LocalBackend {
	t.Helper()
	db, err := database.NewSQLite(filepath.Join(t.TempDir(), "backup.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	local, err := NewLocalBackend(context.Background(), db)
	require.NoError(t, err)
	return local
}

func testOptions() Options {
	return Options{Timeout: time.Second, Attempts: 2, RetryDelay: time.Millisecond, SyncInterval: 10 * time.Millisecond}
}

func sampleEvent(id string, day string) *models.Event {
	d, _ := models.ParseDate(day)
	e := &models.Event{ID: id, Title: "Reunião " + id, Date: d, CreatedBy: "u1", UpdatedAt: time.Now().UTC()}
	e.EnsureDefaults()
	return e
}
