package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/construtora/agenda-api/internal/models"
	appErrors "github.com/construtora/agenda-api/pkg/errors"
)

type fakePersistenceAdmin struct {
	statuses   []models.BackendStatus
	pending    int
	syncReport models.SyncReport
	reconciles int
}

func (f *fakePersistenceAdmin) PrimaryName() string { return "postgres" }

func (f *fakePersistenceAdmin) Health(ctx context.Context) []models.BackendStatus { return f.statuses }

func (f *fakePersistenceAdmin) PendingCount(ctx context.Context) (int, error) { return f.pending, nil }

func (f *fakePersistenceAdmin) SyncNow(ctx context.Context) (models.SyncReport, error) {
	return f.syncReport, nil
}

func (f *fakePersistenceAdmin) Reconcile(ctx context.Context) (models.SyncReport, error) {
	f.reconciles++
	return models.SyncReport{EventsCopied: 4, TasksCopied: 2, FinishedAt: time.Now().UTC()}, nil
}

type fakeDepartmentCounter struct{ total int }

func (f fakeDepartmentCounter) Count(ctx context.Context) (int, error) { return f.total, nil }

func TestDiagnosticsServiceReport(t *testing.T) {
	store := &fakePersistenceAdmin{
		statuses: []models.BackendStatus{
			{Name: "postgres", Role: "primary", Healthy: true},
			{Name: "realtime", Role: "mirror", Healthy: false, Error: "connection refused"},
			{Name: "local", Role: "local", Healthy: true},
		},
		pending: 2,
	}
	users := &mockUserRepo{listUsers: []models.User{{ID: "joao"}}, listCount: 7}
	cache := NewCacheService(&memCacheRepo{entries: map[string]interface{}{}}, nil, time.Minute, zap.NewNop(), true)
	svc := NewDiagnosticsService(store, cache, users, fakeDepartmentCounter{total: 3}, NewMetricsService(), "1.2.0", zap.NewNop())

	report, err := svc.Report(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "degraded", report.Status)
	assert.Equal(t, "postgres", report.Primary)
	assert.Len(t, report.Backends, 3)
	assert.Equal(t, 2, report.PendingWrites)
	assert.True(t, report.Cache.Enabled)
	assert.True(t, report.Cache.Healthy)
	assert.Equal(t, 7, report.Roster.ActiveUsers)
	assert.Equal(t, 3, report.Roster.Departments)
	assert.Equal(t, "1.2.0", report.Build.Version)
}

func TestDiagnosticsServiceSync(t *testing.T) {
	store := &fakePersistenceAdmin{syncReport: models.SyncReport{Replayed: 3}}
	svc := NewDiagnosticsService(store, nil, &mockUserRepo{}, fakeDepartmentCounter{}, nil, "dev", zap.NewNop())

	report, err := svc.Sync(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, report.Replayed)
	assert.Equal(t, 4, report.EventsCopied)
	assert.Equal(t, 1, store.reconciles)

	store.syncReport = models.SyncReport{Replayed: 1, Pending: 2}
	report, err = svc.Sync(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrBackendUnavailable))
	assert.Equal(t, 2, report.Pending)
	assert.Equal(t, 1, store.reconciles)
}

func TestDiagnosticsServiceClearCache(t *testing.T) {
	repo := &memCacheRepo{entries: map[string]interface{}{"calendar:a:2026-10": "x", "calendar:b:2026-10": "y"}}
	cache := NewCacheService(repo, nil, time.Minute, zap.NewNop(), true)
	svc := NewDiagnosticsService(&fakePersistenceAdmin{}, cache, &mockUserRepo{}, fakeDepartmentCounter{}, nil, "dev", zap.NewNop())

	result, err := svc.ClearCache(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, result.Removed)
}
