package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/construtora/agenda-api/internal/models"
)

// LocalBackend keeps a JSON snapshot of every record and the outbox in a SQLite file.
// It survives restarts, so pending writes are not lost when the primary is down.
type LocalBackend struct {
	db *sqlx.DB
}

type snapshotRow struct {
	Payload string `db:"payload"`
}

type outboxRow struct {
	ID         string `db:"id"`
	Collection string `db:"collection"`
	RecordID   string `db:"record_id"`
	Op         string `db:"op"`
	Payload    string `db:"payload"`
	Attempts   int    `db:"attempts"`
	LastError  string `db:"last_error"`
	CreatedAt  string `db:"created_at"`
}

// NewLocalBackend wraps an open SQLite handle and creates the schema when missing.
func NewLocalBackend(ctx context.Context, db *sqlx.DB) (*LocalBackend, error) {
	b := &LocalBackend{db: db}
	if err := b.initSchema(ctx); err != nil {
		return nil, err
	}
	return b, nil
}

func (b *LocalBackend) initSchema(ctx context.Context) error {
	const schema = `
	CREATE TABLE IF NOT EXISTS snapshot (
		collection TEXT NOT NULL,
		id TEXT NOT NULL,
		payload TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		PRIMARY KEY (collection, id)
	);
	CREATE TABLE IF NOT EXISTS outbox (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		id TEXT NOT NULL UNIQUE,
		collection TEXT NOT NULL,
		record_id TEXT NOT NULL,
		op TEXT NOT NULL,
		payload TEXT NOT NULL DEFAULT '',
		attempts INTEGER NOT NULL DEFAULT 0,
		last_error TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL
	);`
	if _, err := b.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("init local schema: %w", err)
	}
	return nil
}

// Name implements Backend.
func (b *LocalBackend) Name() string { return "local" }

// Ping implements Backend.
func (b *LocalBackend) Ping(ctx context.Context) error {
	return b.db.PingContext(ctx)
}

// ListEvents implements Backend.
func (b *LocalBackend) ListEvents(ctx context.Context, filter models.EventFilter) ([]models.Event, error) {
	rows, err := b.list(ctx, models.CollectionEvents)
	if err != nil {
		return nil, err
	}
	events := make([]models.Event, 0, len(rows))
	for _, row := range rows {
		var event models.Event
		if err := json.Unmarshal([]byte(row.Payload), &event); err != nil {
			return nil, fmt.Errorf("decode local event: %w", err)
		}
		event.EnsureDefaults()
		events = append(events, event)
	}
	return filterEvents(events, filter), nil
}

// GetEvent implements Backend.
func (b *LocalBackend) GetEvent(ctx context.Context, id string) (*models.Event, error) {
	var event models.Event
	if err := b.get(ctx, models.CollectionEvents, id, &event); err != nil {
		return nil, err
	}
	event.EnsureDefaults()
	return &event, nil
}

// SaveEvent implements Backend.
func (b *LocalBackend) SaveEvent(ctx context.Context, event *models.Event) error {
	return b.put(ctx, models.CollectionEvents, event.ID, event)
}

// DeleteEvent implements Backend.
func (b *LocalBackend) DeleteEvent(ctx context.Context, id string) error {
	return b.remove(ctx, models.CollectionEvents, id)
}

// ListTasks implements Backend.
func (b *LocalBackend) ListTasks(ctx context.Context, filter models.TaskFilter) ([]models.Task, error) {
	rows, err := b.list(ctx, models.CollectionTasks)
	if err != nil {
		return nil, err
	}
	tasks := make([]models.Task, 0, len(rows))
	for _, row := range rows {
		var task models.Task
		if err := json.Unmarshal([]byte(row.Payload), &task); err != nil {
			return nil, fmt.Errorf("decode local task: %w", err)
		}
		task.EnsureDefaults()
		tasks = append(tasks, task)
	}
	return filterTasks(tasks, filter), nil
}

// GetTask implements Backend.
func (b *LocalBackend) GetTask(ctx context.Context, id string) (*models.Task, error) {
	var task models.Task
	if err := b.get(ctx, models.CollectionTasks, id, &task); err != nil {
		return nil, err
	}
	task.EnsureDefaults()
	return &task, nil
}

// SaveTask implements Backend.
func (b *LocalBackend) SaveTask(ctx context.Context, task *models.Task) error {
	return b.put(ctx, models.CollectionTasks, task.ID, task)
}

// DeleteTask implements Backend.
func (b *LocalBackend) DeleteTask(ctx context.Context, id string) error {
	return b.remove(ctx, models.CollectionTasks, id)
}

// ReplaceEvents swaps the whole event snapshot in one transaction.
func (b *LocalBackend) ReplaceEvents(ctx context.Context, events []models.Event) error {
	docs := make(map[string]interface{}, len(events))
	for i := range events {
		docs[events[i].ID] = &events[i]
	}
	return b.replace(ctx, models.CollectionEvents, docs)
}

// ReplaceTasks swaps the whole task snapshot in one transaction.
func (b *LocalBackend) ReplaceTasks(ctx context.Context, tasks []models.Task) error {
	docs := make(map[string]interface{}, len(tasks))
	for i := range tasks {
		docs[tasks[i].ID] = &tasks[i]
	}
	return b.replace(ctx, models.CollectionTasks, docs)
}

// Enqueue appends a pending write to the outbox.
func (b *LocalBackend) Enqueue(ctx context.Context, w *models.PendingWrite) error {
	if w.CreatedAt.IsZero() {
		w.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO outbox (id, collection, record_id, op, payload, attempts, last_error, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := b.db.ExecContext(ctx, query, w.ID, string(w.Collection), w.RecordID, string(w.Op), string(w.Payload),
		w.Attempts, w.LastError, w.CreatedAt.Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("enqueue pending write: %w", err)
	}
	return nil
}

// Pending returns queued writes in the order they were enqueued. limit <= 0 returns all of them.
func (b *LocalBackend) Pending(ctx context.Context, limit int) ([]models.PendingWrite, error) {
	query := `SELECT id, collection, record_id, op, payload, attempts, last_error, created_at FROM outbox ORDER BY seq ASC`
	args := []interface{}{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	var rows []outboxRow
	if err := b.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list pending writes: %w", err)
	}

	out := make([]models.PendingWrite, 0, len(rows))
	for _, row := range rows {
		created, _ := time.Parse(time.RFC3339Nano, row.CreatedAt)
		w := models.PendingWrite{
			ID:         row.ID,
			Collection: models.Collection(row.Collection),
			RecordID:   row.RecordID,
			Op:         models.WriteOp(row.Op),
			Attempts:   row.Attempts,
			LastError:  row.LastError,
			CreatedAt:  created,
		}
		if row.Payload != "" {
			w.Payload = json.RawMessage(row.Payload)
		}
		out = append(out, w)
	}
	return out, nil
}

// PendingCount returns the outbox depth.
func (b *LocalBackend) PendingCount(ctx context.Context) (int, error) {
	var total int
	if err := b.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM outbox`); err != nil {
		return 0, fmt.Errorf("count pending writes: %w", err)
	}
	return total, nil
}

// Acknowledge removes an applied write from the outbox.
func (b *LocalBackend) Acknowledge(ctx context.Context, id string) error {
	if _, err := b.db.ExecContext(ctx, `DELETE FROM outbox WHERE id = ?`, id); err != nil {
		return fmt.Errorf("acknowledge pending write: %w", err)
	}
	return nil
}

// MarkFailed records a failed replay attempt.
func (b *LocalBackend) MarkFailed(ctx context.Context, id string, cause error) error {
	msg := ""
	if cause != nil {
		msg = cause.Error()
	}
	if _, err := b.db.ExecContext(ctx, `UPDATE outbox SET attempts = attempts + 1, last_error = ? WHERE id = ?`, msg, id); err != nil {
		return fmt.Errorf("mark pending write failed: %w", err)
	}
	return nil
}

func (b *LocalBackend) list(ctx context.Context, collection models.Collection) ([]snapshotRow, error) {
	var rows []snapshotRow
	if err := b.db.SelectContext(ctx, &rows, `SELECT payload FROM snapshot WHERE collection = ?`, string(collection)); err != nil {
		return nil, fmt.Errorf("list local %s: %w", collection, err)
	}
	return rows, nil
}

func (b *LocalBackend) get(ctx context.Context, collection models.Collection, id string, dest interface{}) error {
	var row snapshotRow
	err := b.db.GetContext(ctx, &row, `SELECT payload FROM snapshot WHERE collection = ? AND id = ?`, string(collection), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("get local %s/%s: %w", collection, id, err)
	}
	if err := json.Unmarshal([]byte(row.Payload), dest); err != nil {
		return fmt.Errorf("decode local %s/%s: %w", collection, id, err)
	}
	return nil
}

const upsertSnapshot = `INSERT INTO snapshot (collection, id, payload, updated_at) VALUES (?, ?, ?, ?)
ON CONFLICT (collection, id) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at`

func (b *LocalBackend) put(ctx context.Context, collection models.Collection, id string, value interface{}) error {
	doc, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode local %s/%s: %w", collection, id, err)
	}
	if _, err := b.db.ExecContext(ctx, upsertSnapshot, string(collection), id, string(doc), time.Now().UTC().Format(time.RFC3339Nano)); err != nil {
		return fmt.Errorf("put local %s/%s: %w", collection, id, err)
	}
	return nil
}

func (b *LocalBackend) remove(ctx context.Context, collection models.Collection, id string) error {
	res, err := b.db.ExecContext(ctx, `DELETE FROM snapshot WHERE collection = ? AND id = ?`, string(collection), id)
	if err != nil {
		return fmt.Errorf("delete local %s/%s: %w", collection, id, err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (b *LocalBackend) replace(ctx context.Context, collection models.Collection, docs map[string]interface{}) error {
	tx, err := b.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin local replace: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM snapshot WHERE collection = ?`, string(collection)); err != nil {
		return fmt.Errorf("clear local %s: %w", collection, err)
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)
	for id, value := range docs {
		doc, err := json.Marshal(value)
		if err != nil {
			return fmt.Errorf("encode local %s/%s: %w", collection, id, err)
		}
		if _, err := tx.ExecContext(ctx, upsertSnapshot, string(collection), id, string(doc), now); err != nil {
			return fmt.Errorf("replace local %s/%s: %w", collection, id, err)
		}
	}
	return tx.Commit()
}
