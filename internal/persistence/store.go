package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/construtora/agenda-api/internal/models"
	"github.com/construtora/agenda-api/pkg/jobs"
)

// SourceLocal is reported when a result came from the local snapshot.
const SourceLocal = "local"

var errRecordQueued = errors.New("earlier writes to this record are still queued")

// Options tunes the write policy around the backends.
type Options struct {
	Timeout      time.Duration
	Attempts     int
	RetryDelay   time.Duration
	SyncInterval time.Duration
	Logger       *zap.Logger
	Metrics      Recorder
}

// WriteResult tells the caller where a write landed.
type WriteResult struct {
	Source   string
	Degraded bool
}

// Store fronts the configured backends. Writes go to the primary with a fixed retry policy
// and are copied to the mirror and the local snapshot. When the primary keeps failing the
// write is kept locally, queued in the outbox and replayed by the sync worker.
type Store struct {
	primary Backend
	mirror  Backend
	local   *LocalBackend
	opts    Options
	logger  *zap.Logger
	metrics Recorder

	queue *jobs.Queue
	// orderMu serialises writes with outbox replays so a record's writes reach the
	// primary in the order they were accepted.
	orderMu sync.Mutex
	stop     chan struct{}
	done     sync.WaitGroup
	running  bool
	runMu    sync.Mutex
}

// NewStore builds a store. primary and mirror may be nil; local is required.
func NewStore(primary, mirror Backend, local *LocalBackend, opts Options) *Store {
	if opts.Timeout <= 0 {
		opts.Timeout = 5 * time.Second
	}
	if opts.Attempts <= 0 {
		opts.Attempts = 3
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = time.Second
	}
	if opts.SyncInterval <= 0 {
		opts.SyncInterval = time.Minute
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Metrics == nil {
		opts.Metrics = nopRecorder{}
	}

	s := &Store{
		primary: primary,
		mirror:  mirror,
		local:   local,
		opts:    opts,
		logger:  opts.Logger.Named("persistence"),
		metrics: opts.Metrics,
	}
	s.queue = jobs.NewQueue("outbox", s.handleReplay, jobs.QueueConfig{
		Workers:    1,
		BufferSize: 8,
		MaxRetries: opts.Attempts,
		RetryDelay: opts.RetryDelay,
		Logger:     s.logger,
	})
	return s
}

// PrimaryName returns the primary backend name, or "local" when running without one.
func (s *Store) PrimaryName() string {
	if s.primary == nil {
		return SourceLocal
	}
	return s.primary.Name()
}

// Backends lists every configured backend with its role.
func (s *Store) Backends() map[string]Backend {
	out := map[string]Backend{"local": s.local}
	if s.primary != nil {
		out["primary"] = s.primary
	}
	if s.mirror != nil {
		out["mirror"] = s.mirror
	}
	return out
}

// ListEvents reads events from the first backend that answers, overlaid with pending writes.
func (s *Store) ListEvents(ctx context.Context, filter models.EventFilter) ([]models.Event, string, error) {
	var events []models.Event
	source, err := s.read(ctx, func(ctx context.Context, b Backend) error {
		var err error
		events, err = b.ListEvents(ctx, filter)
		return err
	})
	if err != nil {
		return nil, source, err
	}
	if source == SourceLocal {
		return events, source, nil
	}
	return s.overlayEvents(ctx, events, filter), source, nil
}

// GetEvent reads one event, falling back through mirror and local snapshot.
func (s *Store) GetEvent(ctx context.Context, id string) (*models.Event, string, error) {
	var event *models.Event
	source, err := s.read(ctx, func(ctx context.Context, b Backend) error {
		var err error
		event, err = b.GetEvent(ctx, id)
		return err
	})
	if source != SourceLocal && (err == nil || errors.Is(err, ErrNotFound)) {
		if pending, ok := s.pendingFor(ctx, models.CollectionEvents, id); ok {
			if pending.Op == models.WriteOpDelete {
				return nil, SourceLocal, ErrNotFound
			}
			var local models.Event
			if json.Unmarshal(pending.Payload, &local) == nil {
				local.EnsureDefaults()
				return &local, SourceLocal, nil
			}
		}
	}
	return event, source, err
}

// SaveEvent writes an event through the resilient path.
func (s *Store) SaveEvent(ctx context.Context, event *models.Event) (WriteResult, error) {
	return s.write(ctx, models.CollectionEvents, event.ID, models.WriteOpUpsert, event, func(ctx context.Context, b Backend) error {
		return b.SaveEvent(ctx, event)
	})
}

// DeleteEvent removes an event through the resilient path.
func (s *Store) DeleteEvent(ctx context.Context, id string) (WriteResult, error) {
	return s.write(ctx, models.CollectionEvents, id, models.WriteOpDelete, nil, func(ctx context.Context, b Backend) error {
		return b.DeleteEvent(ctx, id)
	})
}

// ListTasks reads tasks from the first backend that answers, overlaid with pending writes.
func (s *Store) ListTasks(ctx context.Context, filter models.TaskFilter) ([]models.Task, string, error) {
	var tasks []models.Task
	source, err := s.read(ctx, func(ctx context.Context, b Backend) error {
		var err error
		tasks, err = b.ListTasks(ctx, filter)
		return err
	})
	if err != nil {
		return nil, source, err
	}
	if source == SourceLocal {
		return tasks, source, nil
	}
	return s.overlayTasks(ctx, tasks, filter), source, nil
}

// GetTask reads one task, falling back through mirror and local snapshot.
func (s *Store) GetTask(ctx context.Context, id string) (*models.Task, string, error) {
	var task *models.Task
	source, err := s.read(ctx, func(ctx context.Context, b Backend) error {
		var err error
		task, err = b.GetTask(ctx, id)
		return err
	})
	if source != SourceLocal && (err == nil || errors.Is(err, ErrNotFound)) {
		if pending, ok := s.pendingFor(ctx, models.CollectionTasks, id); ok {
			if pending.Op == models.WriteOpDelete {
				return nil, SourceLocal, ErrNotFound
			}
			var local models.Task
			if json.Unmarshal(pending.Payload, &local) == nil {
				local.EnsureDefaults()
				return &local, SourceLocal, nil
			}
		}
	}
	return task, source, err
}

// SaveTask writes a task through the resilient path.
func (s *Store) SaveTask(ctx context.Context, task *models.Task) (WriteResult, error) {
	return s.write(ctx, models.CollectionTasks, task.ID, models.WriteOpUpsert, task, func(ctx context.Context, b Backend) error {
		return b.SaveTask(ctx, task)
	})
}

// DeleteTask removes a task through the resilient path.
func (s *Store) DeleteTask(ctx context.Context, id string) (WriteResult, error) {
	return s.write(ctx, models.CollectionTasks, id, models.WriteOpDelete, nil, func(ctx context.Context, b Backend) error {
		return b.DeleteTask(ctx, id)
	})
}

// PendingCount returns the outbox depth.
func (s *Store) PendingCount(ctx context.Context) (int, error) {
	return s.local.PendingCount(ctx)
}

// call runs op against b once, bounded by the configured timeout.
func (s *Store) call(ctx context.Context, b Backend, op func(context.Context, Backend) error) error {
	cctx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
	defer cancel()
	return op(cctx, b)
}

// callWithRetry runs op with a constant delay between attempts. ErrNotFound is not retried.
func (s *Store) callWithRetry(ctx context.Context, b Backend, op func(context.Context, Backend) error) error {
	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		err := s.call(ctx, b, op)
		if errors.Is(err, ErrNotFound) {
			return struct{}{}, backoff.Permanent(err)
		}
		return struct{}{}, err
	},
		backoff.WithBackOff(backoff.NewConstantBackOff(s.opts.RetryDelay)),
		backoff.WithMaxTries(uint(s.opts.Attempts)),
		backoff.WithNotify(func(err error, next time.Duration) {
			s.metrics.ObservePersistenceRetry(b.Name())
			s.logger.Warn("backend call failed, retrying",
				zap.String("backend", b.Name()), zap.Duration("next", next), zap.Error(err))
		}),
	)
	return err
}

func (s *Store) write(ctx context.Context, collection models.Collection, id string, op models.WriteOp, record interface{}, apply func(context.Context, Backend) error) (WriteResult, error) {
	if s.primary == nil {
		if err := s.call(ctx, s.local, apply); err != nil {
			s.metrics.ObservePersistenceWrite(SourceLocal, "error")
			return WriteResult{}, err
		}
		s.metrics.ObservePersistenceWrite(SourceLocal, "ok")
		return WriteResult{Source: SourceLocal}, nil
	}

	s.orderMu.Lock()
	defer s.orderMu.Unlock()

	if _, queued := s.pendingFor(ctx, collection, id); queued {
		if _, rerr := s.replayLocked(ctx); rerr != nil {
			s.logger.Warn("outbox replay before write failed", zap.String("id", id), zap.Error(rerr))
		}
		if _, queued := s.pendingFor(ctx, collection, id); queued {
			return s.keepLocally(ctx, collection, id, op, record, apply, errRecordQueued)
		}
	}

	err := s.callWithRetry(ctx, s.primary, apply)
	if err == nil {
		s.metrics.ObservePersistenceWrite(s.primary.Name(), "ok")
		s.copyToSecondaries(ctx, apply)
		return WriteResult{Source: s.primary.Name()}, nil
	}
	if errors.Is(err, ErrNotFound) {
		return WriteResult{}, err
	}
	if ctx.Err() != nil {
		return WriteResult{}, ctx.Err()
	}

	s.metrics.ObservePersistenceWrite(s.primary.Name(), "error")
	s.logger.Warn("primary write failed, keeping it locally",
		zap.String("backend", s.primary.Name()), zap.String("collection", string(collection)),
		zap.String("id", id), zap.Error(err))
	return s.keepLocally(ctx, collection, id, op, record, apply, err)
}

// keepLocally applies the write to the local snapshot and queues it in the outbox.
// The caller holds orderMu.
func (s *Store) keepLocally(ctx context.Context, collection models.Collection, id string, op models.WriteOp, record interface{}, apply func(context.Context, Backend) error, err error) (WriteResult, error) {
	if lerr := s.call(ctx, s.local, apply); lerr != nil && !errors.Is(lerr, ErrNotFound) {
		s.logger.Error("local snapshot write failed", zap.String("id", id), zap.Error(lerr))
		return WriteResult{}, fmt.Errorf("primary: %v; local: %w", err, lerr)
	}

	pending := &models.PendingWrite{
		ID:         uuid.NewString(),
		Collection: collection,
		RecordID:   id,
		Op:         op,
		LastError:  err.Error(),
	}
	if record != nil {
		payload, merr := json.Marshal(record)
		if merr != nil {
			return WriteResult{}, fmt.Errorf("encode pending write: %w", merr)
		}
		pending.Payload = payload
	}
	if qerr := s.local.Enqueue(ctx, pending); qerr != nil {
		return WriteResult{}, fmt.Errorf("primary: %v; outbox: %w", err, qerr)
	}

	s.metrics.ObservePersistenceFallback(s.primary.Name(), SourceLocal)
	s.metrics.ObservePersistenceWrite(SourceLocal, "degraded")
	s.refreshOutboxDepth(ctx)
	s.scheduleReplay()
	return WriteResult{Source: SourceLocal, Degraded: true}, nil
}

// copyToSecondaries applies a successful write to the mirror and the local snapshot.
// Failures are logged and counted, never returned.
func (s *Store) copyToSecondaries(ctx context.Context, apply func(context.Context, Backend) error) {
	for _, b := range []Backend{s.mirror, s.local} {
		if b == nil {
			continue
		}
		if err := s.call(ctx, b, apply); err != nil && !errors.Is(err, ErrNotFound) {
			s.metrics.ObservePersistenceWrite(b.Name(), "error")
			s.logger.Warn("secondary write failed", zap.String("backend", b.Name()), zap.Error(err))
			continue
		}
		s.metrics.ObservePersistenceWrite(b.Name(), "ok")
	}
}

// read tries primary, mirror and local in that order. A not-found answer from a
// reachable backend is final.
func (s *Store) read(ctx context.Context, op func(context.Context, Backend) error) (string, error) {
	chain := make([]Backend, 0, 3)
	if s.primary != nil {
		chain = append(chain, s.primary)
	}
	if s.mirror != nil {
		chain = append(chain, s.mirror)
	}
	chain = append(chain, s.local)

	var lastErr error
	for i, b := range chain {
		err := s.call(ctx, b, op)
		if err == nil || errors.Is(err, ErrNotFound) {
			if i > 0 {
				s.metrics.ObservePersistenceFallback(chain[0].Name(), b.Name())
			}
			return b.Name(), err
		}
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		s.logger.Warn("backend read failed", zap.String("backend", b.Name()), zap.Error(err))
		lastErr = err
	}
	return "", lastErr
}

func (s *Store) pendingFor(ctx context.Context, collection models.Collection, id string) (models.PendingWrite, bool) {
	pending, err := s.local.Pending(ctx, 0)
	if err != nil {
		return models.PendingWrite{}, false
	}
	var latest models.PendingWrite
	found := false
	for _, w := range pending {
		if w.Collection == collection && w.RecordID == id {
			latest = w
			found = true
		}
	}
	return latest, found
}

func (s *Store) overlayEvents(ctx context.Context, events []models.Event, filter models.EventFilter) []models.Event {
	pending, err := s.local.Pending(ctx, 0)
	if err != nil || len(pending) == 0 {
		return events
	}
	byID := make(map[string]int, len(events))
	for i := range events {
		byID[events[i].ID] = i
	}
	removed := map[string]bool{}
	for _, w := range pending {
		if w.Collection != models.CollectionEvents {
			continue
		}
		if w.Op == models.WriteOpDelete {
			removed[w.RecordID] = true
			continue
		}
		var event models.Event
		if json.Unmarshal(w.Payload, &event) != nil {
			continue
		}
		event.EnsureDefaults()
		delete(removed, w.RecordID)
		if idx, ok := byID[event.ID]; ok {
			events[idx] = event
			continue
		}
		byID[event.ID] = len(events)
		events = append(events, event)
	}
	out := make([]models.Event, 0, len(events))
	for i := range events {
		if !removed[events[i].ID] && filter.Matches(&events[i]) {
			out = append(out, events[i])
		}
	}
	return out
}

func (s *Store) overlayTasks(ctx context.Context, tasks []models.Task, filter models.TaskFilter) []models.Task {
	pending, err := s.local.Pending(ctx, 0)
	if err != nil || len(pending) == 0 {
		return tasks
	}
	byID := make(map[string]int, len(tasks))
	for i := range tasks {
		byID[tasks[i].ID] = i
	}
	removed := map[string]bool{}
	for _, w := range pending {
		if w.Collection != models.CollectionTasks {
			continue
		}
		if w.Op == models.WriteOpDelete {
			removed[w.RecordID] = true
			continue
		}
		var task models.Task
		if json.Unmarshal(w.Payload, &task) != nil {
			continue
		}
		task.EnsureDefaults()
		delete(removed, w.RecordID)
		if idx, ok := byID[task.ID]; ok {
			tasks[idx] = task
			continue
		}
		byID[task.ID] = len(tasks)
		tasks = append(tasks, task)
	}
	out := make([]models.Task, 0, len(tasks))
	for i := range tasks {
		if !removed[tasks[i].ID] && filter.Matches(&tasks[i]) {
			out = append(out, tasks[i])
		}
	}
	return out
}

func (s *Store) refreshOutboxDepth(ctx context.Context) {
	if depth, err := s.local.PendingCount(ctx); err == nil {
		s.metrics.SetOutboxDepth(depth)
	}
}
