package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/construtora/agenda-api/internal/models"
)

const (
	eventColumns = `id, title, description, event_date, start_time, end_time, event_type, status, participants, visibility, created_by, responsible, location, created_at, updated_at`
	taskColumns  = `id, title, description, scope, responsible, participants, show_on_calendar, status, priority, progress, start_date, due_date, created_by, created_at, updated_at`
)

// PostgresBackend keeps agenda records in the events and tasks tables.
type PostgresBackend struct {
	db *sqlx.DB
}

// NewPostgresBackend constructs the backend.
func NewPostgresBackend(db *sqlx.DB) *PostgresBackend {
	return &PostgresBackend{db: db}
}

// Name implements Backend.
func (b *PostgresBackend) Name() string { return "postgres" }

// Ping implements Backend.
func (b *PostgresBackend) Ping(ctx context.Context) error {
	return b.db.PingContext(ctx)
}

// ListEvents pushes the date range and scalar filters into SQL.
func (b *PostgresBackend) ListEvents(ctx context.Context, filter models.EventFilter) ([]models.Event, error) {
	var conditions []string
	var args []interface{}

	if filter.From != nil {
		conditions = append(conditions, fmt.Sprintf("event_date >= $%d", len(args)+1))
		args = append(args, *filter.From)
	}
	if filter.To != nil {
		conditions = append(conditions, fmt.Sprintf("event_date <= $%d", len(args)+1))
		args = append(args, *filter.To)
	}
	if filter.Type != "" {
		conditions = append(conditions, fmt.Sprintf("event_type = $%d", len(args)+1))
		args = append(args, filter.Type)
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}
	if filter.Responsible != "" {
		conditions = append(conditions, fmt.Sprintf("responsible = $%d", len(args)+1))
		args = append(args, filter.Responsible)
	}
	if filter.Participant != "" {
		conditions = append(conditions, fmt.Sprintf("$%d = ANY(participants)", len(args)+1))
		args = append(args, filter.Participant)
	}

	query := `SELECT ` + eventColumns + ` FROM events`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY event_date ASC, start_time ASC, title ASC"

	var events []models.Event
	if err := b.db.SelectContext(ctx, &events, query, args...); err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	for i := range events {
		events[i].EnsureDefaults()
	}
	return events, nil
}

// GetEvent implements Backend.
func (b *PostgresBackend) GetEvent(ctx context.Context, id string) (*models.Event, error) {
	var event models.Event
	if err := b.db.GetContext(ctx, &event, `SELECT `+eventColumns+` FROM events WHERE id = $1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	event.EnsureDefaults()
	return &event, nil
}

// SaveEvent upserts the event by id.
func (b *PostgresBackend) SaveEvent(ctx context.Context, event *models.Event) error {
	const query = `INSERT INTO events (` + eventColumns + `) VALUES (:id, :title, :description, :event_date, :start_time, :end_time, :event_type, :status, :participants, :visibility, :created_by, :responsible, :location, :created_at, :updated_at)
ON CONFLICT (id) DO UPDATE SET title = EXCLUDED.title, description = EXCLUDED.description, event_date = EXCLUDED.event_date,
start_time = EXCLUDED.start_time, end_time = EXCLUDED.end_time, event_type = EXCLUDED.event_type, status = EXCLUDED.status,
participants = EXCLUDED.participants, visibility = EXCLUDED.visibility, responsible = EXCLUDED.responsible,
location = EXCLUDED.location, updated_at = EXCLUDED.updated_at`
	if _, err := b.db.NamedExecContext(ctx, query, event); err != nil {
		return fmt.Errorf("save event: %w", err)
	}
	return nil
}

// DeleteEvent implements Backend.
func (b *PostgresBackend) DeleteEvent(ctx context.Context, id string) error {
	return b.delete(ctx, "events", id)
}

// ListTasks pushes scalar filters into SQL and applies the span overlap in SQL as well.
func (b *PostgresBackend) ListTasks(ctx context.Context, filter models.TaskFilter) ([]models.Task, error) {
	var conditions []string
	var args []interface{}

	if filter.From != nil {
		conditions = append(conditions, fmt.Sprintf("COALESCE(due_date, start_date) >= $%d", len(args)+1))
		args = append(args, *filter.From)
	}
	if filter.To != nil {
		conditions = append(conditions, fmt.Sprintf("COALESCE(start_date, due_date) <= $%d", len(args)+1))
		args = append(args, *filter.To)
	}
	if filter.Scope != "" {
		conditions = append(conditions, fmt.Sprintf("scope = $%d", len(args)+1))
		args = append(args, filter.Scope)
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}
	if filter.Priority != "" {
		conditions = append(conditions, fmt.Sprintf("priority = $%d", len(args)+1))
		args = append(args, filter.Priority)
	}
	if filter.Responsible != "" {
		conditions = append(conditions, fmt.Sprintf("responsible = $%d", len(args)+1))
		args = append(args, filter.Responsible)
	}

	query := `SELECT ` + taskColumns + ` FROM tasks`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY due_date ASC NULLS LAST, title ASC"

	var tasks []models.Task
	if err := b.db.SelectContext(ctx, &tasks, query, args...); err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	for i := range tasks {
		tasks[i].EnsureDefaults()
	}
	return tasks, nil
}

// GetTask implements Backend.
func (b *PostgresBackend) GetTask(ctx context.Context, id string) (*models.Task, error) {
	var task models.Task
	if err := b.db.GetContext(ctx, &task, `SELECT `+taskColumns+` FROM tasks WHERE id = $1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get task: %w", err)
	}
	task.EnsureDefaults()
	return &task, nil
}

// SaveTask upserts the task by id.
func (b *PostgresBackend) SaveTask(ctx context.Context, task *models.Task) error {
	const query = `INSERT INTO tasks (` + taskColumns + `) VALUES (:id, :title, :description, :scope, :responsible, :participants, :show_on_calendar, :status, :priority, :progress, :start_date, :due_date, :created_by, :created_at, :updated_at)
ON CONFLICT (id) DO UPDATE SET title = EXCLUDED.title, description = EXCLUDED.description, scope = EXCLUDED.scope,
responsible = EXCLUDED.responsible, participants = EXCLUDED.participants, show_on_calendar = EXCLUDED.show_on_calendar,
status = EXCLUDED.status, priority = EXCLUDED.priority, progress = EXCLUDED.progress, start_date = EXCLUDED.start_date,
due_date = EXCLUDED.due_date, updated_at = EXCLUDED.updated_at`
	if _, err := b.db.NamedExecContext(ctx, query, task); err != nil {
		return fmt.Errorf("save task: %w", err)
	}
	return nil
}

// DeleteTask implements Backend.
func (b *PostgresBackend) DeleteTask(ctx context.Context, id string) error {
	return b.delete(ctx, "tasks", id)
}

func (b *PostgresBackend) delete(ctx context.Context, table, id string) error {
	res, err := b.db.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s WHERE id = $1", table), id)
	if err != nil {
		return fmt.Errorf("delete from %s: %w", table, err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return ErrNotFound
	}
	return nil
}
