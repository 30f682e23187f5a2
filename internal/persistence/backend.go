// Package persistence stores agenda events and tasks across a primary backend, an optional
// mirror and a local SQLite snapshot, with an outbox for writes the primary could not take.
package persistence

import (
	"context"
	"errors"

	"github.com/construtora/agenda-api/internal/models"
)

// ErrNotFound is returned by backends when a record does not exist.
var ErrNotFound = errors.New("record not found")

// Backend is one place agenda records can be stored.
type Backend interface {
	Name() string
	Ping(ctx context.Context) error

	ListEvents(ctx context.Context, filter models.EventFilter) ([]models.Event, error)
	GetEvent(ctx context.Context, id string) (*models.Event, error)
	SaveEvent(ctx context.Context, event *models.Event) error
	DeleteEvent(ctx context.Context, id string) error

	ListTasks(ctx context.Context, filter models.TaskFilter) ([]models.Task, error)
	GetTask(ctx context.Context, id string) (*models.Task, error)
	SaveTask(ctx context.Context, task *models.Task) error
	DeleteTask(ctx context.Context, id string) error
}

// Recorder receives persistence metrics. A nil Recorder is ignored.
type Recorder interface {
	ObservePersistenceWrite(backend, outcome string)
	ObservePersistenceRetry(backend string)
	ObservePersistenceFallback(from, to string)
	SetOutboxDepth(depth int)
}

type nopRecorder struct{}

func (nopRecorder) ObservePersistenceWrite(string, string)    {}
func (nopRecorder) ObservePersistenceRetry(string)            {}
func (nopRecorder) ObservePersistenceFallback(string, string) {}
func (nopRecorder) SetOutboxDepth(int)                        {}

func filterEvents(events []models.Event, filter models.EventFilter) []models.Event {
	out := make([]models.Event, 0, len(events))
	for i := range events {
		if filter.Matches(&events[i]) {
			out = append(out, events[i])
		}
	}
	return out
}

func filterTasks(tasks []models.Task, filter models.TaskFilter) []models.Task {
	out := make([]models.Task, 0, len(tasks))
	for i := range tasks {
		if filter.Matches(&tasks[i]) {
			out = append(out, tasks[i])
		}
	}
	return out
}
