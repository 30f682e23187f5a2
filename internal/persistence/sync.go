package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/construtora/agenda-api/internal/models"
	"github.com/construtora/agenda-api/pkg/jobs"
)

const replayJobKind = "outbox.replay"

// Start launches the replay worker and the periodic sync ticker.
func (s *Store) Start(ctx context.Context) {
	s.runMu.Lock()
	defer s.runMu.Unlock()
	if s.running {
		return
	}
	s.running = true
	s.stop = make(chan struct{})
	s.queue.Start(ctx)

	s.done.Add(1)
	go func() {
		defer s.done.Done()
		ticker := time.NewTicker(s.opts.SyncInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-s.stop:
				return
			case <-ticker.C:
				if n, err := s.local.PendingCount(ctx); err == nil && n > 0 {
					s.scheduleReplay()
				}
			}
		}
	}()

	s.scheduleReplay()
}

// Stop halts the ticker and the worker and waits for them.
func (s *Store) Stop() {
	s.runMu.Lock()
	if !s.running {
		s.runMu.Unlock()
		return
	}
	s.running = false
	close(s.stop)
	s.runMu.Unlock()

	s.done.Wait()
	s.queue.Stop()
}

func (s *Store) scheduleReplay() {
	if s.primary == nil {
		return
	}
	if err := s.queue.Enqueue(jobs.Job{ID: fmt.Sprintf("replay-%d", time.Now().UnixNano()), Kind: replayJobKind}); err != nil {
		s.logger.Debug("replay not scheduled", zap.Error(err))
	}
}

func (s *Store) handleReplay(ctx context.Context, job jobs.Job) error {
	report, err := s.replay(ctx)
	if err != nil {
		return err
	}
	if report.Pending > 0 {
		return fmt.Errorf("%d writes still pending", report.Pending)
	}
	return nil
}

// SyncNow replays the outbox immediately.
func (s *Store) SyncNow(ctx context.Context) (models.SyncReport, error) {
	return s.replay(ctx)
}

func (s *Store) replay(ctx context.Context) (models.SyncReport, error) {
	s.orderMu.Lock()
	defer s.orderMu.Unlock()
	return s.replayLocked(ctx)
}

// replayLocked applies pending writes to the primary in the order they were queued. It
// stops at the first failure so later writes to a record never overtake earlier ones.
func (s *Store) replayLocked(ctx context.Context) (models.SyncReport, error) {
	report := models.SyncReport{}
	defer func() {
		report.FinishedAt = time.Now().UTC()
	}()
	if s.primary == nil {
		return report, nil
	}

	pending, err := s.local.Pending(ctx, 0)
	if err != nil {
		return report, err
	}

	for i, w := range pending {
		apply, err := replayOp(w)
		if err != nil {
			s.logger.Error("dropping undecodable pending write", zap.String("id", w.ID), zap.Error(err))
			_ = s.local.Acknowledge(ctx, w.ID)
			report.Failed++
			continue
		}

		err = s.call(ctx, s.primary, apply)
		if err != nil && !errors.Is(err, ErrNotFound) {
			_ = s.local.MarkFailed(ctx, w.ID, err)
			report.Failed++
			report.Pending = len(pending) - i
			s.logger.Warn("outbox replay stopped", zap.String("id", w.ID), zap.Int("pending", report.Pending), zap.Error(err))
			break
		}
		if err := s.local.Acknowledge(ctx, w.ID); err != nil {
			return report, err
		}
		s.copyToSecondaries(ctx, apply)
		report.Replayed++
	}

	s.refreshOutboxDepth(ctx)
	if report.Replayed > 0 {
		s.logger.Info("outbox replayed", zap.Int("replayed", report.Replayed), zap.Int("pending", report.Pending))
	}
	return report, nil
}

func replayOp(w models.PendingWrite) (func(context.Context, Backend) error, error) {
	switch {
	case w.Collection == models.CollectionEvents && w.Op == models.WriteOpDelete:
		return func(ctx context.Context, b Backend) error { return b.DeleteEvent(ctx, w.RecordID) }, nil
	case w.Collection == models.CollectionTasks && w.Op == models.WriteOpDelete:
		return func(ctx context.Context, b Backend) error { return b.DeleteTask(ctx, w.RecordID) }, nil
	case w.Collection == models.CollectionEvents:
		var event models.Event
		if err := json.Unmarshal(w.Payload, &event); err != nil {
			return nil, err
		}
		event.EnsureDefaults()
		return func(ctx context.Context, b Backend) error { return b.SaveEvent(ctx, &event) }, nil
	case w.Collection == models.CollectionTasks:
		var task models.Task
		if err := json.Unmarshal(w.Payload, &task); err != nil {
			return nil, err
		}
		task.EnsureDefaults()
		return func(ctx context.Context, b Backend) error { return b.SaveTask(ctx, &task) }, nil
	default:
		return nil, fmt.Errorf("unknown pending write %s/%s", w.Collection, w.Op)
	}
}

// Reconcile replays the outbox and then copies the primary data set to the mirror and
// the local snapshot.
func (s *Store) Reconcile(ctx context.Context) (models.SyncReport, error) {
	report, err := s.replay(ctx)
	if err != nil {
		return report, err
	}
	if s.primary == nil || report.Pending > 0 {
		return report, nil
	}

	var events []models.Event
	var tasks []models.Task
	if err := s.call(ctx, s.primary, func(ctx context.Context, b Backend) error {
		var err error
		events, err = b.ListEvents(ctx, models.EventFilter{})
		return err
	}); err != nil {
		return report, fmt.Errorf("reconcile events: %w", err)
	}
	if err := s.call(ctx, s.primary, func(ctx context.Context, b Backend) error {
		var err error
		tasks, err = b.ListTasks(ctx, models.TaskFilter{})
		return err
	}); err != nil {
		return report, fmt.Errorf("reconcile tasks: %w", err)
	}

	if err := s.local.ReplaceEvents(ctx, events); err != nil {
		return report, err
	}
	if err := s.local.ReplaceTasks(ctx, tasks); err != nil {
		return report, err
	}

	if s.mirror != nil {
		if err := s.pruneMirror(ctx, events, tasks); err != nil {
			return report, err
		}
		for i := range events {
			if err := s.call(ctx, s.mirror, func(ctx context.Context, b Backend) error { return b.SaveEvent(ctx, &events[i]) }); err != nil {
				return report, fmt.Errorf("mirror event %s: %w", events[i].ID, err)
			}
		}
		for i := range tasks {
			if err := s.call(ctx, s.mirror, func(ctx context.Context, b Backend) error { return b.SaveTask(ctx, &tasks[i]) }); err != nil {
				return report, fmt.Errorf("mirror task %s: %w", tasks[i].ID, err)
			}
		}
	}

	report.EventsCopied = len(events)
	report.TasksCopied = len(tasks)
	report.FinishedAt = time.Now().UTC()
	s.logger.Info("backends reconciled", zap.Int("events", len(events)), zap.Int("tasks", len(tasks)))
	return report, nil
}

// pruneMirror deletes mirror records the primary no longer has.
func (s *Store) pruneMirror(ctx context.Context, events []models.Event, tasks []models.Task) error {
	keepEvents := make(map[string]bool, len(events))
	for i := range events {
		keepEvents[events[i].ID] = true
	}
	keepTasks := make(map[string]bool, len(tasks))
	for i := range tasks {
		keepTasks[tasks[i].ID] = true
	}

	var mirrorEvents []models.Event
	var mirrorTasks []models.Task
	err := s.call(ctx, s.mirror, func(ctx context.Context, b Backend) error {
		var err error
		if mirrorEvents, err = b.ListEvents(ctx, models.EventFilter{}); err != nil {
			return err
		}
		mirrorTasks, err = b.ListTasks(ctx, models.TaskFilter{})
		return err
	})
	if err != nil {
		return fmt.Errorf("list mirror: %w", err)
	}

	for _, e := range mirrorEvents {
		if keepEvents[e.ID] {
			continue
		}
		if err := s.call(ctx, s.mirror, func(ctx context.Context, b Backend) error { return b.DeleteEvent(ctx, e.ID) }); err != nil && !errors.Is(err, ErrNotFound) {
			return fmt.Errorf("prune mirror event %s: %w", e.ID, err)
		}
	}
	for _, t := range mirrorTasks {
		if keepTasks[t.ID] {
			continue
		}
		if err := s.call(ctx, s.mirror, func(ctx context.Context, b Backend) error { return b.DeleteTask(ctx, t.ID) }); err != nil && !errors.Is(err, ErrNotFound) {
			return fmt.Errorf("prune mirror task %s: %w", t.ID, err)
		}
	}
	return nil
}

// Health pings every backend concurrently, each under the store timeout.
func (s *Store) Health(ctx context.Context) []models.BackendStatus {
	roles := []string{"primary", "mirror", "local"}
	backends := s.Backends()
	statuses := make([]models.BackendStatus, len(roles))

	g, gctx := errgroup.WithContext(ctx)
	for i, role := range roles {
		b, ok := backends[role]
		if !ok {
			statuses[i] = models.BackendStatus{Name: "none", Role: role}
			continue
		}
		g.Go(func() error {
			start := time.Now()
			err := s.call(gctx, b, func(ctx context.Context, b Backend) error { return b.Ping(ctx) })
			status := models.BackendStatus{Name: b.Name(), Role: role, Healthy: err == nil, LatencyMs: time.Since(start).Milliseconds()}
			if err != nil {
				status.Error = err.Error()
			}
			statuses[i] = status
			return nil
		})
	}
	_ = g.Wait()

	out := statuses[:0]
	for _, st := range statuses {
		if st.Name != "none" {
			out = append(out, st)
		}
	}
	return out
}
