package persistence

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/construtora/agenda-api/internal/models"
)

// ChangeNotice is published on the changes channel after every realtime write.
type ChangeNotice struct {
	Collection models.Collection `json:"colecao"`
	ID         string            `json:"id"`
	Op         models.WriteOp    `json:"operacao"`
	At         time.Time         `json:"em"`
}

// RealtimeBackend stores records as JSON documents in one Redis hash per collection,
// keyed "<namespace>:<collection>", and publishes a ChangeNotice for each write.
type RealtimeBackend struct {
	client    redis.UniversalClient
	namespace string
}

// NewRealtimeBackend constructs the backend.
func NewRealtimeBackend(client redis.UniversalClient, namespace string) *RealtimeBackend {
	if namespace == "" {
		namespace = "agenda"
	}
	return &RealtimeBackend{client: client, namespace: namespace}
}

// Name implements Backend.
func (b *RealtimeBackend) Name() string { return "realtime" }

// Ping implements Backend.
func (b *RealtimeBackend) Ping(ctx context.Context) error {
	return b.client.Ping(ctx).Err()
}

// ChangesChannel returns the pub/sub channel used for change notices.
func (b *RealtimeBackend) ChangesChannel() string {
	return b.namespace + ":changes"
}

func (b *RealtimeBackend) key(collection models.Collection) string {
	return b.namespace + ":" + string(collection)
}

// ListEvents implements Backend.
func (b *RealtimeBackend) ListEvents(ctx context.Context, filter models.EventFilter) ([]models.Event, error) {
	docs, err := b.client.HGetAll(ctx, b.key(models.CollectionEvents)).Result()
	if err != nil {
		return nil, fmt.Errorf("realtime list events: %w", err)
	}
	events := make([]models.Event, 0, len(docs))
	for id, doc := range docs {
		var event models.Event
		if err := json.Unmarshal([]byte(doc), &event); err != nil {
			return nil, fmt.Errorf("decode event %s: %w", id, err)
		}
		event.EnsureDefaults()
		events = append(events, event)
	}
	return filterEvents(events, filter), nil
}

// GetEvent implements Backend.
func (b *RealtimeBackend) GetEvent(ctx context.Context, id string) (*models.Event, error) {
	var event models.Event
	if err := b.get(ctx, models.CollectionEvents, id, &event); err != nil {
		return nil, err
	}
	event.EnsureDefaults()
	return &event, nil
}

// SaveEvent implements Backend.
func (b *RealtimeBackend) SaveEvent(ctx context.Context, event *models.Event) error {
	return b.put(ctx, models.CollectionEvents, event.ID, event)
}

// DeleteEvent implements Backend.
func (b *RealtimeBackend) DeleteEvent(ctx context.Context, id string) error {
	return b.remove(ctx, models.CollectionEvents, id)
}

// ListTasks implements Backend.
func (b *RealtimeBackend) ListTasks(ctx context.Context, filter models.TaskFilter) ([]models.Task, error) {
	docs, err := b.client.HGetAll(ctx, b.key(models.CollectionTasks)).Result()
	if err != nil {
		return nil, fmt.Errorf("realtime list tasks: %w", err)
	}
	tasks := make([]models.Task, 0, len(docs))
	for id, doc := range docs {
		var task models.Task
		if err := json.Unmarshal([]byte(doc), &task); err != nil {
			return nil, fmt.Errorf("decode task %s: %w", id, err)
		}
		task.EnsureDefaults()
		tasks = append(tasks, task)
	}
	return filterTasks(tasks, filter), nil
}

// GetTask implements Backend.
func (b *RealtimeBackend) GetTask(ctx context.Context, id string) (*models.Task, error) {
	var task models.Task
	if err := b.get(ctx, models.CollectionTasks, id, &task); err != nil {
		return nil, err
	}
	task.EnsureDefaults()
	return &task, nil
}

// SaveTask implements Backend.
func (b *RealtimeBackend) SaveTask(ctx context.Context, task *models.Task) error {
	return b.put(ctx, models.CollectionTasks, task.ID, task)
}

// DeleteTask implements Backend.
func (b *RealtimeBackend) DeleteTask(ctx context.Context, id string) error {
	return b.remove(ctx, models.CollectionTasks, id)
}

func (b *RealtimeBackend) get(ctx context.Context, collection models.Collection, id string, dest interface{}) error {
	doc, err := b.client.HGet(ctx, b.key(collection), id).Bytes()
	if err != nil {
		if err == redis.Nil {
			return ErrNotFound
		}
		return fmt.Errorf("realtime get %s/%s: %w", collection, id, err)
	}
	if err := json.Unmarshal(doc, dest); err != nil {
		return fmt.Errorf("decode %s/%s: %w", collection, id, err)
	}
	return nil
}

func (b *RealtimeBackend) put(ctx context.Context, collection models.Collection, id string, value interface{}) error {
	doc, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s/%s: %w", collection, id, err)
	}
	notice, _ := json.Marshal(ChangeNotice{Collection: collection, ID: id, Op: models.WriteOpUpsert, At: time.Now().UTC()})

	pipe := b.client.TxPipeline()
	pipe.HSet(ctx, b.key(collection), id, doc)
	pipe.Publish(ctx, b.ChangesChannel(), notice)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("realtime put %s/%s: %w", collection, id, err)
	}
	return nil
}

func (b *RealtimeBackend) remove(ctx context.Context, collection models.Collection, id string) error {
	notice, _ := json.Marshal(ChangeNotice{Collection: collection, ID: id, Op: models.WriteOpDelete, At: time.Now().UTC()})

	pipe := b.client.TxPipeline()
	removed := pipe.HDel(ctx, b.key(collection), id)
	pipe.Publish(ctx, b.ChangesChannel(), notice)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("realtime delete %s/%s: %w", collection, id, err)
	}
	if removed.Val() == 0 {
		return ErrNotFound
	}
	return nil
}
