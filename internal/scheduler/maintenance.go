package scheduler

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/mikestefanello/backlite"
	"github.com/robfig/cron/v3"

	"github.com/vicabt/library/internal/config"
	"github.com/vicabt/library/internal/tasks"
)

var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// Enqueuer adds a task to the queue.
type Enqueuer interface {
	Enqueue(ctx context.Context, task backlite.Task) (string, error)
}

// MaintenanceScheduler enqueues the periodic maintenance tasks: activity
// retention cleanup and copy reconciliation. The work itself runs on the
// task queue workers.
type MaintenanceScheduler struct {
	queue         Enqueuer
	config        config.Maintenance
	retentionDays int

	cron       *cron.Cron
	entries    map[string]cron.EntryID
	mu         sync.RWMutex
	isRunning  bool
	cancelFunc context.CancelFunc
}

func NewMaintenanceScheduler(queue Enqueuer, cfg config.Maintenance, retentionDays int) *MaintenanceScheduler {
	return &MaintenanceScheduler{
		queue:         queue,
		config:        cfg,
		retentionDays: retentionDays,
		cron:          cron.New(cron.WithParser(cronParser)),
		entries:       make(map[string]cron.EntryID),
	}
}

// ValidateSchedule checks a five-field cron expression.
func ValidateSchedule(schedule string) error {
	_, err := cronParser.Parse(schedule)
	return err
}

// Start registers the jobs and starts the cron loop. The scheduler stops
// when ctx is cancelled. Empty schedules disable the corresponding job.
func (s *MaintenanceScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return nil
	}
	if !s.config.Enabled {
		log.Printf("Maintenance scheduler: disabled")
		return nil
	}

	jobs := []struct {
		schedule string
		task     backlite.Task
	}{
		{s.config.CleanupSchedule, tasks.CleanupActivityTask{RetentionDays: s.retentionDays}},
		{s.config.ReconcileSchedule, tasks.ReconcileCopiesTask{}},
	}

	runCtx, cancel := context.WithCancel(ctx)
	for _, job := range jobs {
		if job.schedule == "" {
			continue
		}
		if err := ValidateSchedule(job.schedule); err != nil {
			cancel()
			s.removeEntries()
			return fmt.Errorf("invalid cron schedule '%s': %w", job.schedule, err)
		}
		task := job.task
		name := task.Config().Name
		entryID, err := s.cron.AddFunc(job.schedule, func() {
			s.enqueue(runCtx, task)
		})
		if err != nil {
			cancel()
			s.removeEntries()
			return fmt.Errorf("failed to schedule %s: %w", name, err)
		}
		s.entries[name] = entryID
		log.Printf("Maintenance scheduler: %s scheduled with '%s'", name, job.schedule)
	}

	s.cancelFunc = cancel
	s.cron.Start()
	s.isRunning = true

	go func() {
		<-runCtx.Done()
		s.Stop()
	}()
	return nil
}

func (s *MaintenanceScheduler) removeEntries() {
	for name, id := range s.entries {
		s.cron.Remove(id)
		delete(s.entries, name)
	}
}

// Stop halts the cron loop and waits for running jobs to return.
func (s *MaintenanceScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return
	}

	<-s.cron.Stop().Done()
	s.removeEntries()
	if s.cancelFunc != nil {
		s.cancelFunc()
		s.cancelFunc = nil
	}
	s.isRunning = false
	log.Printf("Maintenance scheduler: stopped")
}

func (s *MaintenanceScheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// NextRuns returns the next run time per scheduled task type.
func (s *MaintenanceScheduler) NextRuns() map[string]time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]time.Time, len(s.entries))
	for name, id := range s.entries {
		out[name] = s.cron.Entry(id).Next
	}
	return out
}

// RunNow enqueues every maintenance task immediately and returns the task
// IDs by task type. It does not require the cron loop to be running.
func (s *MaintenanceScheduler) RunNow(ctx context.Context) (map[string]string, error) {
	ids := make(map[string]string, 2)
	for _, task := range []backlite.Task{
		tasks.CleanupActivityTask{RetentionDays: s.retentionDays},
		tasks.ReconcileCopiesTask{},
	} {
		name := task.Config().Name
		id, err := s.queue.Enqueue(ctx, task)
		if err != nil {
			return ids, fmt.Errorf("failed to enqueue %s: %w", name, err)
		}
		ids[name] = id
	}
	return ids, nil
}

func (s *MaintenanceScheduler) enqueue(ctx context.Context, task backlite.Task) {
	id, err := s.queue.Enqueue(ctx, task)
	if err != nil {
		log.Printf("Maintenance scheduler: failed to enqueue %s: %v", task.Config().Name, err)
		return
	}
	log.Printf("Maintenance scheduler: enqueued %s (%s)", task.Config().Name, id)
}
