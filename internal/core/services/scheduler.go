package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-rag/internal/logger"
)

// Ensure Scheduler implements the interface.
var _ driving.Scheduler = (*Scheduler)(nil)

const (
	// historyRetention is the number of results kept per task.
	historyRetention = 100

	// pendingBatch bounds the chunks one index-pending run embeds.
	pendingBatch = 200

	defaultTick = time.Minute
)

// Scheduler runs cache purges and pending indexing on their intervals.
// Task state lives in a SchedulerStore, so a restart does not re-run tasks
// that ran recently.
type Scheduler struct {
	config domain.SchedulerConfig
	store  driven.SchedulerStore
	cache  driving.CacheService
	index  driving.IndexService
	tick   time.Duration
	now    func() time.Time

	mu       sync.Mutex
	running  bool
	stopCh   chan struct{}
	inFlight map[string]bool
	wg       sync.WaitGroup
}

// NewScheduler creates a scheduler. cache and index may be nil, which
// disables their task.
func NewScheduler(
	config domain.SchedulerConfig,
	store driven.SchedulerStore,
	cache driving.CacheService,
	index driving.IndexService,
) *Scheduler {
	return &Scheduler{
		config:   config,
		store:    store,
		cache:    cache,
		index:    index,
		tick:     defaultTick,
		now:      time.Now,
		inFlight: make(map[string]bool),
	}
}

// WithTick changes how often due tasks are checked.
func (s *Scheduler) WithTick(d time.Duration) *Scheduler {
	if d > 0 {
		s.tick = d
	}
	return s
}

// WithClock replaces the time source.
func (s *Scheduler) WithClock(now func() time.Time) *Scheduler {
	s.now = now
	return s
}

// Start begins the scheduler loop. This method blocks until ctx is done or
// Stop is called. A disabled scheduler returns at once.
func (s *Scheduler) Start(ctx context.Context) error {
	if !s.config.Enabled {
		logger.Debug("scheduler: disabled")
		return nil
	}

	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil // Already running
	}
	s.running = true
	s.stopCh = make(chan struct{})
	stopCh := s.stopCh
	s.mu.Unlock()

	if err := s.initialiseTasks(ctx); err != nil {
		logger.Warn("scheduler: failed to initialise tasks: %v", err)
	}

	return s.run(ctx, stopCh)
}

// Stop gracefully shuts down the scheduler and waits for running tasks.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	if s.running {
		s.running = false
		close(s.stopCh)
	}
	s.mu.Unlock()

	s.wg.Wait()
	return nil
}

// Tasks returns the persisted state of every task.
func (s *Scheduler) Tasks(ctx context.Context) ([]domain.ScheduledTask, error) {
	return s.store.ListTasks(ctx)
}

// initialiseTasks ensures every configured task exists in the store.
func (s *Scheduler) initialiseTasks(ctx context.Context) error {
	tasks := []struct {
		id, name string
		enabled  bool
	}{
		{domain.TaskIDCachePurge, "Cache Purge", s.cache != nil},
		{domain.TaskIDIndexPending, "Index Pending Chunks", s.index != nil},
	}
	for _, t := range tasks {
		cfg := s.config.GetTaskConfig(t.id)
		cfg.Enabled = cfg.Enabled && t.enabled && cfg.Interval > 0
		if err := s.ensureTask(ctx, t.id, t.name, cfg); err != nil {
			return err
		}
	}
	return nil
}

// ensureTask creates or updates a task in the store.
func (s *Scheduler) ensureTask(ctx context.Context, id, name string, cfg domain.TaskConfig) error {
	task, err := s.store.GetTask(ctx, id)
	if err != nil {
		return err
	}

	if task == nil {
		// New tasks run on the first check.
		task = &domain.ScheduledTask{
			ID:       id,
			Name:     name,
			Interval: cfg.Interval,
			Enabled:  cfg.Enabled,
		}
	} else {
		if task.Interval != cfg.Interval {
			task.Interval = cfg.Interval
			task.NextRun = s.now().Add(cfg.Interval)
		}
		task.Enabled = cfg.Enabled
	}

	return s.store.SaveTask(ctx, task)
}

// run is the main scheduler loop.
func (s *Scheduler) run(ctx context.Context, stopCh <-chan struct{}) error {
	s.checkAndRunDueTasks(ctx)

	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-stopCh:
			return nil
		case <-ticker.C:
			s.checkAndRunDueTasks(ctx)
		}
	}
}

// checkAndRunDueTasks finds and executes tasks that are due.
func (s *Scheduler) checkAndRunDueTasks(ctx context.Context) {
	tasks, err := s.store.ListTasks(ctx)
	if err != nil {
		logger.Warn("scheduler: failed to list tasks: %v", err)
		return
	}

	now := s.now()
	for i := range tasks {
		if tasks[i].IsDue(now) {
			s.runTask(ctx, tasks[i])
		}
	}
}

// runTask executes a single task in the background. A task still running
// from an earlier tick is not started again.
func (s *Scheduler) runTask(ctx context.Context, task domain.ScheduledTask) {
	s.mu.Lock()
	if s.inFlight[task.ID] {
		s.mu.Unlock()
		return
	}
	s.inFlight[task.ID] = true
	s.wg.Add(1)
	s.mu.Unlock()

	go func() {
		defer func() {
			s.mu.Lock()
			delete(s.inFlight, task.ID)
			s.mu.Unlock()
			s.wg.Done()
		}()

		result := &domain.TaskResult{
			TaskID:    task.ID,
			StartedAt: s.now(),
		}

		var err error
		switch task.ID {
		case domain.TaskIDCachePurge:
			result.ItemsProcessed, err = s.runCachePurge(ctx)
		case domain.TaskIDIndexPending:
			result.ItemsProcessed, err = s.runIndexPending(ctx)
		default:
			logger.Warn("scheduler: unknown task ID: %s", task.ID)
			return
		}

		result.EndedAt = s.now()
		if err != nil {
			result.Error = err.Error()
			task.LastError = err.Error()
			logger.Warn("scheduler: %s failed: %v", task.ID, err)
		} else {
			result.Success = true
			task.LastError = ""
			task.LastSuccess = result.EndedAt
			logger.Debug("scheduler: %s processed %d items", task.ID, result.ItemsProcessed)
		}

		task.LastRun = result.StartedAt
		task.NextRun = result.EndedAt.Add(task.Interval)

		// The run context may be cancelled by now; state must still be saved.
		saveCtx := context.WithoutCancel(ctx)
		if saveErr := s.store.SaveTask(saveCtx, &task); saveErr != nil {
			logger.Warn("scheduler: failed to save task %s: %v", task.ID, saveErr)
		}
		if recordErr := s.store.RecordResult(saveCtx, result); recordErr != nil {
			logger.Warn("scheduler: failed to record result for %s: %v", task.ID, recordErr)
		}
		if pruneErr := s.store.PruneHistory(saveCtx, historyRetention); pruneErr != nil {
			logger.Warn("scheduler: failed to prune history: %v", pruneErr)
		}
	}()
}

func (s *Scheduler) runCachePurge(ctx context.Context) (int, error) {
	if s.cache == nil {
		return 0, nil
	}
	return s.cache.Purge(ctx, 0)
}

func (s *Scheduler) runIndexPending(ctx context.Context) (int, error) {
	if s.index == nil {
		return 0, nil
	}
	stats, err := s.index.EmbedPending(ctx, "", pendingBatch)
	if err != nil {
		return stats.Embedded, err
	}
	if stats.Failed > 0 {
		return stats.Embedded, fmt.Errorf("%d of %d chunks failed", stats.Failed, stats.Chunks)
	}
	return stats.Embedded, nil
}
