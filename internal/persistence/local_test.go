package persistence

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/construtora/agenda-api/internal/models"
)

func TestLocalBackendSnapshotRoundTrip(t *testing.T) {
	ctx := context.Background()
	local := newLocal(t)

	require.NoError(t, local.SaveEvent(ctx, sampleEvent("e1", "2026-10-05")))
	require.NoError(t, local.SaveEvent(ctx, sampleEvent("e2", "2026-10-20")))

	got, err := local.GetEvent(ctx, "e1")
	require.NoError(t, err)
	assert.Equal(t, "Reunião e1", got.Title)
	assert.Equal(t, "2026-10-05", got.Date.String())
	assert.NotNil(t, got.Participants)

	from, _ := models.ParseDate("2026-10-10")
	list, err := local.ListEvents(ctx, models.EventFilter{From: &from})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "e2", list[0].ID)

	require.NoError(t, local.DeleteEvent(ctx, "e1"))
	_, err = local.GetEvent(ctx, "e1")
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.ErrorIs(t, local.DeleteEvent(ctx, "e1"), ErrNotFound)
}

func TestLocalBackendReplaceTasks(t *testing.T) {
	ctx := context.Background()
	local := newLocal(t)

	require.NoError(t, local.SaveTask(ctx, &models.Task{ID: "old", Title: "Antiga"}))
	require.NoError(t, local.ReplaceTasks(ctx, []models.Task{{ID: "t1", Title: "Nova", Progress: 100}}))

	tasks, err := local.ListTasks(ctx, models.TaskFilter{})
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "t1", tasks[0].ID)
	assert.Equal(t, models.TaskStatusDone, tasks[0].Status)
}

func TestLocalBackendOutboxOrder(t *testing.T) {
	ctx := context.Background()
	local := newLocal(t)

	require.NoError(t, local.Enqueue(ctx, &models.PendingWrite{ID: "w1", Collection: models.CollectionEvents, RecordID: "e1", Op: models.WriteOpUpsert, Payload: []byte(`{"id":"e1"}`)}))
	require.NoError(t, local.Enqueue(ctx, &models.PendingWrite{ID: "w2", Collection: models.CollectionEvents, RecordID: "e1", Op: models.WriteOpDelete}))

	pending, err := local.Pending(ctx, 0)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, "w1", pending[0].ID)
	assert.JSONEq(t, `{"id":"e1"}`, string(pending[0].Payload))
	assert.Equal(t, models.WriteOpDelete, pending[1].Op)
	assert.Nil(t, pending[1].Payload)
	assert.False(t, pending[0].CreatedAt.IsZero())

	require.NoError(t, local.MarkFailed(ctx, "w1", errors.New("timeout")))
	first, err := local.Pending(ctx, 1)
	require.NoError(t, err)
	require.Len(t, first, 1)
	assert.Equal(t, 1, first[0].Attempts)
	assert.Equal(t, "timeout", first[0].LastError)

	require.NoError(t, local.Acknowledge(ctx, "w1"))
	count, err := local.PendingCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
