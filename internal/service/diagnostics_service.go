package service

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/construtora/agenda-api/internal/dto"
	"github.com/construtora/agenda-api/internal/models"
	appErrors "github.com/construtora/agenda-api/pkg/errors"
)

type persistenceAdmin interface {
	PrimaryName() string
	Health(ctx context.Context) []models.BackendStatus
	PendingCount(ctx context.Context) (int, error)
	SyncNow(ctx context.Context) (models.SyncReport, error)
	Reconcile(ctx context.Context) (models.SyncReport, error)
}

type cacheAdmin interface {
	Enabled() bool
	Ping(ctx context.Context) error
	Invalidate(ctx context.Context, pattern string) (int, error)
}

type userCounter interface {
	List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error)
}

type departmentCounter interface {
	Count(ctx context.Context) (int, error)
}

// DiagnosticsService reports on backends, outbox and cache, and drives manual syncs.
type DiagnosticsService struct {
	store       persistenceAdmin
	cache       cacheAdmin
	users       userCounter
	departments departmentCounter
	metrics     *MetricsService
	version     string
	startedAt   time.Time
	logger      *zap.Logger
}

// NewDiagnosticsService constructs the service. cache and metrics may be nil.
func NewDiagnosticsService(store persistenceAdmin, cache cacheAdmin, users userCounter, departments departmentCounter, metrics *MetricsService, version string, logger *zap.Logger) *DiagnosticsService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DiagnosticsService{
		store:       store,
		cache:       cache,
		users:       users,
		departments: departments,
		metrics:     metrics,
		version:     version,
		startedAt:   time.Now().UTC(),
		logger:      logger,
	}
}

// Report gathers every check in parallel.
func (s *DiagnosticsService) Report(ctx context.Context) (*dto.DiagnosticsReport, error) {
	report := &dto.DiagnosticsReport{
		Primary: s.store.PrimaryName(),
		Build: dto.BuildInfo{
			Version:   s.version,
			GoVersion: runtime.Version(),
			StartedAt: s.startedAt.Format(time.RFC3339),
		},
		Metrics: s.metrics.Snapshot(),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		report.Backends = s.store.Health(gctx)
		return nil
	})
	g.Go(func() error {
		pending, err := s.store.PendingCount(gctx)
		if err != nil {
			return fmt.Errorf("count pending writes: %w", err)
		}
		report.PendingWrites = pending
		return nil
	})
	g.Go(func() error {
		report.Cache = s.cacheStatus(gctx)
		return nil
	})
	g.Go(func() error {
		_, active, err := s.users.List(gctx, models.UserFilter{Active: boolPtr(true), Page: 1, PageSize: 1})
		if err != nil {
			return fmt.Errorf("count users: %w", err)
		}
		report.Roster.ActiveUsers = active
		return nil
	})
	g.Go(func() error {
		total, err := s.departments.Count(gctx)
		if err != nil {
			return fmt.Errorf("count departments: %w", err)
		}
		report.Roster.Departments = total
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, appErrors.Internal(err, "failed to collect diagnostics")
	}

	report.Status = "ok"
	for _, b := range report.Backends {
		if !b.Healthy {
			report.Status = "degraded"
		}
	}
	if report.PendingWrites > 0 {
		report.Status = "degraded"
	}
	report.GeneratedAt = time.Now().UTC()
	return report, nil
}

// Sync replays pending writes and, once the outbox is empty, reconciles every backend with the primary.
func (s *DiagnosticsService) Sync(ctx context.Context) (models.SyncReport, error) {
	report, err := s.store.SyncNow(ctx)
	if err != nil {
		return report, appErrors.Wrap(err, appErrors.ErrBackendUnavailable.Code, appErrors.ErrBackendUnavailable.Status, "outbox replay failed")
	}
	if report.Pending > 0 {
		return report, appErrors.Clone(appErrors.ErrBackendUnavailable, fmt.Sprintf("primary still unreachable, %d writes pending", report.Pending))
	}

	reconciled, err := s.store.Reconcile(ctx)
	if err != nil {
		return report, appErrors.Wrap(err, appErrors.ErrBackendUnavailable.Code, appErrors.ErrBackendUnavailable.Status, "reconcile failed")
	}
	reconciled.Replayed += report.Replayed
	reconciled.Failed += report.Failed
	s.logger.Info("manual sync finished",
		zap.Int("replayed", reconciled.Replayed),
		zap.Int("events", reconciled.EventsCopied),
		zap.Int("tasks", reconciled.TasksCopied))
	return reconciled, nil
}

// ClearCache drops every cached calendar view.
func (s *DiagnosticsService) ClearCache(ctx context.Context) (dto.CacheClearResult, error) {
	if s.cache == nil || !s.cache.Enabled() {
		return dto.CacheClearResult{}, nil
	}
	removed, err := s.cache.Invalidate(ctx, CalendarCachePattern)
	if err != nil {
		return dto.CacheClearResult{}, appErrors.Internal(err, "failed to clear cache")
	}
	return dto.CacheClearResult{Removed: removed}, nil
}

func (s *DiagnosticsService) cacheStatus(ctx context.Context) dto.CacheStatus {
	if s.cache == nil || !s.cache.Enabled() {
		return dto.CacheStatus{}
	}
	status := dto.CacheStatus{Enabled: true, Healthy: true}
	if err := s.cache.Ping(ctx); err != nil {
		status.Healthy = false
		status.Error = err.Error()
	}
	return status
}

func boolPtr(v bool) *bool { return &v }
