package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	appErrors "github.com/construtora/agenda-api/pkg/errors"
)

// CacheRepository abstracts persistence for cached payloads.
type CacheRepository interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) (int, error)
	Ping(ctx context.Context) error
}

// CacheService orchestrates cache operations and related metrics.
type CacheService struct {
	repo       CacheRepository
	metrics    *MetricsService
	defaultTTL time.Duration
	logger     *zap.Logger
	enabled    bool
}

// NewCacheService constructs a cache service.
func NewCacheService(repo CacheRepository, metrics *MetricsService, defaultTTL time.Duration, logger *zap.Logger, enabled bool) *CacheService {
	if defaultTTL <= 0 {
		defaultTTL = 5 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CacheService{repo: repo, metrics: metrics, defaultTTL: defaultTTL, logger: logger, enabled: enabled}
}

// Enabled indicates whether caching is active.
func (s *CacheService) Enabled() bool {
	return s != nil && s.enabled && s.repo != nil
}

// Get attempts to retrieve a cached entry. It returns true when the cache was hit.
func (s *CacheService) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	if !s.Enabled() {
		return false, nil
	}
	start := time.Now()
	err := s.repo.Get(ctx, key, dest)
	duration := time.Since(start)
	if err != nil {
		if s.metrics != nil {
			s.metrics.RecordCacheOperation(false, duration)
		}
		if errors.Is(err, appErrors.ErrCacheMiss) {
			return false, nil
		}
		s.logger.Warn("cache get failed", zap.String("key", key), zap.Error(err))
		return false, err
	}
	if s.metrics != nil {
		s.metrics.RecordCacheOperation(true, duration)
	}
	return true, nil
}

// Set stores the value in cache.
func (s *CacheService) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if !s.Enabled() {
		return nil
	}
	if ttl <= 0 {
		ttl = s.defaultTTL
	}
	start := time.Now()
	err := s.repo.Set(ctx, key, value, ttl)
	if s.metrics != nil {
		s.metrics.ObserveCacheWrite(time.Since(start))
	}
	if err != nil {
		s.logger.Warn("cache set failed", zap.String("key", key), zap.Error(err))
	}
	return err
}

// Invalidate removes cached values for the provided pattern and returns how many were dropped.
func (s *CacheService) Invalidate(ctx context.Context, pattern string) (int, error) {
	if !s.Enabled() {
		return 0, nil
	}
	removed, err := s.repo.DeleteByPattern(ctx, pattern)
	if err != nil {
		s.logger.Warn("cache invalidate failed", zap.String("pattern", pattern), zap.Error(err))
		return removed, err
	}
	return removed, nil
}

// InvalidateCalendars drops every cached calendar view. Failures are logged only.
func (s *CacheService) InvalidateCalendars(ctx context.Context) {
	_, _ = s.Invalidate(ctx, CalendarCachePattern)
}

// Ping checks the cache backend.
func (s *CacheService) Ping(ctx context.Context) error {
	if !s.Enabled() {
		return errors.New("cache disabled")
	}
	return s.repo.Ping(ctx)
}

// CacheJanitor clears the calendar cache on a fixed interval.
type CacheJanitor struct {
	cache    *CacheService
	interval time.Duration
	logger   *zap.Logger

	stop chan struct{}
	wg   sync.WaitGroup
	once sync.Once
}

// NewCacheJanitor constructs a janitor. A non-positive interval disables it.
func NewCacheJanitor(cache *CacheService, interval time.Duration, logger *zap.Logger) *CacheJanitor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CacheJanitor{cache: cache, interval: interval, logger: logger.Named("cache-janitor"), stop: make(chan struct{})}
}

// Start launches the clearing loop until ctx is done or Stop is called.
func (j *CacheJanitor) Start(ctx context.Context) {
	if j.interval <= 0 || !j.cache.Enabled() {
		return
	}
	j.wg.Add(1)
	go func() {
		defer j.wg.Done()
		ticker := time.NewTicker(j.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-j.stop:
				return
			case <-ticker.C:
				removed, err := j.cache.Invalidate(ctx, CalendarCachePattern)
				if err != nil {
					continue
				}
				j.logger.Debug("calendar cache cleared", zap.Int("removed", removed))
			}
		}
	}()
}

// Stop ends the loop and waits for it.
func (j *CacheJanitor) Stop() {
	j.once.Do(func() { close(j.stop) })
	j.wg.Wait()
}
