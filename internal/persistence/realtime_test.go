package persistence

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/construtora/agenda-api/internal/models"
)

func newRealtime(t *testing.T) (*RealtimeBackend, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRealtimeBackend(client, "obra"), mr
}

func nextNotice(t *testing.T, sub *miniredis.Subscriber) ChangeNotice {
	t.Helper()
	select {
	case msg := <-sub.Messages():
		var notice ChangeNotice
		require.NoError(t, json.Unmarshal([]byte(msg.Message), &notice))
		return notice
	case <-time.After(time.Second):
		t.Fatal("no change notice published")
		return ChangeNotice{}
	}
}

func TestRealtimeSaveAndGetEvent(t *testing.T) {
	ctx := context.Background()
	backend, mr := newRealtime(t)
	sub := mr.NewSubscriber()
	defer sub.Close()
	sub.Subscribe(backend.ChangesChannel())

	require.NoError(t, backend.SaveEvent(ctx, sampleEvent("e1", "2026-10-05")))

	assert.True(t, mr.Exists("obra:eventos"))
	doc := mr.HGet("obra:eventos", "e1")
	assert.Contains(t, doc, `"titulo":"Reunião e1"`)

	got, err := backend.GetEvent(ctx, "e1")
	require.NoError(t, err)
	assert.Equal(t, "2026-10-05", got.Date.String())
	assert.NotNil(t, got.Participants)

	notice := nextNotice(t, sub)
	assert.Equal(t, models.CollectionEvents, notice.Collection)
	assert.Equal(t, "e1", notice.ID)
	assert.Equal(t, models.WriteOpUpsert, notice.Op)
}

func TestRealtimeGetMissingIsNotFound(t *testing.T) {
	backend, _ := newRealtime(t)

	_, err := backend.GetTask(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRealtimeListTasksAppliesFilter(t *testing.T) {
	ctx := context.Background()
	backend, _ := newRealtime(t)
	require.NoError(t, backend.SaveTask(ctx, &models.Task{ID: "t1", Title: "Medição", Priority: models.TaskPriorityHigh}))
	require.NoError(t, backend.SaveTask(ctx, &models.Task{ID: "t2", Title: "Compra", Priority: models.TaskPriorityLow}))

	tasks, err := backend.ListTasks(ctx, models.TaskFilter{Priority: models.TaskPriorityHigh})
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "t1", tasks[0].ID)
	assert.Equal(t, models.TaskStatusPending, tasks[0].Status)
}

func TestRealtimeDeletePublishesNotice(t *testing.T) {
	ctx := context.Background()
	backend, mr := newRealtime(t)
	require.NoError(t, backend.SaveEvent(ctx, sampleEvent("e1", "2026-10-05")))

	sub := mr.NewSubscriber()
	defer sub.Close()
	sub.Subscribe(backend.ChangesChannel())

	require.NoError(t, backend.DeleteEvent(ctx, "e1"))
	assert.Empty(t, mr.HGet("obra:eventos", "e1"))

	notice := nextNotice(t, sub)
	assert.Equal(t, models.WriteOpDelete, notice.Op)
	assert.Equal(t, "e1", notice.ID)

	err := backend.DeleteEvent(ctx, "e1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRealtimeErrorsAreNotNotFound(t *testing.T) {
	ctx := context.Background()
	backend, mr := newRealtime(t)
	mr.SetError("ERR backend offline")

	err := backend.DeleteEvent(ctx, "e1")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)

	assert.Error(t, backend.Ping(ctx))
}
