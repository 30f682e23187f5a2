package service

import (
	"context"
	"path"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	appErrors "github.com/construtora/agenda-api/pkg/errors"
)

type memCacheRepo struct {
	mu      sync.Mutex
	entries map[string]interface{}
	deletes int
}

func (m *memCacheRepo) Get(ctx context.Context, key string, dest interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	value, ok := m.entries[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	if p, ok := dest.(*string); ok {
		*p = value.(string)
	}
	return nil
}

func (m *memCacheRepo) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = value
	return nil
}

func (m *memCacheRepo) DeleteByPattern(ctx context.Context, pattern string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deletes++
	removed := 0
	for key := range m.entries {
		if ok, _ := path.Match(pattern, key); ok {
			delete(m.entries, key)
			removed++
		}
	}
	return removed, nil
}

func (m *memCacheRepo) Ping(ctx context.Context) error { return nil }

func (m *memCacheRepo) deleteCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.deletes
}

func TestCacheServiceGetSetInvalidate(t *testing.T) {
	repo := &memCacheRepo{entries: map[string]interface{}{}}
	metrics := NewMetricsService()
	svc := NewCacheService(repo, metrics, time.Minute, zap.NewNop(), true)

	var out string
	hit, err := svc.Get(context.Background(), "calendar:joao:2026-10", &out)
	require.NoError(t, err)
	assert.False(t, hit)

	require.NoError(t, svc.Set(context.Background(), "calendar:joao:2026-10", "grid", 0))
	require.NoError(t, svc.Set(context.Background(), "other:key", "x", 0))
	hit, err = svc.Get(context.Background(), "calendar:joao:2026-10", &out)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, "grid", out)

	svc.InvalidateCalendars(context.Background())
	assert.NotContains(t, repo.entries, "calendar:joao:2026-10")
	assert.Contains(t, repo.entries, "other:key")

	snapshot := metrics.CacheSnapshot()
	assert.Equal(t, uint64(1), snapshot.CacheHits)
	assert.Equal(t, uint64(1), snapshot.CacheMisses)
}

func TestCacheServiceDisabled(t *testing.T) {
	svc := NewCacheService(nil, nil, 0, nil, true)
	assert.False(t, svc.Enabled())

	hit, err := svc.Get(context.Background(), "k", new(string))
	require.NoError(t, err)
	assert.False(t, hit)
	assert.NoError(t, svc.Set(context.Background(), "k", "v", 0))
	assert.Error(t, svc.Ping(context.Background()))
}

func TestCacheJanitorClearsOnInterval(t *testing.T) {
	repo := &memCacheRepo{entries: map[string]interface{}{"calendar:a": "x"}}
	svc := NewCacheService(repo, nil, time.Minute, zap.NewNop(), true)
	janitor := NewCacheJanitor(svc, 5*time.Millisecond, zap.NewNop())

	janitor.Start(context.Background())
	assert.Eventually(t, func() bool { return repo.deleteCount() > 0 }, time.Second, 5*time.Millisecond)
	janitor.Stop()
	janitor.Stop()
}
