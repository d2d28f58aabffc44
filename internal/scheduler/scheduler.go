package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/i474232898/datalake-native/internal/runner"
)

// ErrUnknownJob is returned when a trigger names a job that was never
// registered.
var ErrUnknownJob = errors.New("unknown job")

// Scheduler periodically runs registered collection jobs. The timer path and
// the manual RunOnce path share the same job entry point, so the runner's
// in-flight guard applies to both.
type Scheduler struct {
	scheduler *gocron.Scheduler

	mu   sync.RWMutex
	jobs map[string]runner.Job
}

// New creates a Scheduler operating on UTC wall-clock time.
func New() *Scheduler {
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		jobs:      make(map[string]runner.Job),
	}
}

// RegisterPeriodic schedules the job at the given interval and makes it
// available for manual triggering.
func (s *Scheduler) RegisterPeriodic(job runner.Job, interval time.Duration) error {
	s.mu.Lock()
	s.jobs[job.Name()] = job
	s.mu.Unlock()

	_, err := s.scheduler.Every(interval).Do(func() {
		log.Printf("scheduler: running job %s", job.Name())

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()

		if err := job.Run(ctx); err != nil {
			if errors.Is(err, runner.ErrAlreadyRunning) {
				log.Printf("scheduler: job %s still running, skipping tick", job.Name())
				return
			}
			log.Printf("scheduler: job %s failed: %v", job.Name(), err)
		}
	})
	if err != nil {
		return fmt.Errorf("schedule %s: %w", job.Name(), err)
	}
	return nil
}

// RunOnce triggers a registered job immediately. Returns ErrUnknownJob for
// unregistered names and runner.ErrAlreadyRunning when an invocation is
// already in flight.
func (s *Scheduler) RunOnce(ctx context.Context, jobName string) error {
	s.mu.RLock()
	job, ok := s.jobs[jobName]
	s.mu.RUnlock()

	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownJob, jobName)
	}
	return job.Run(ctx)
}

// JobNames lists the registered job names.
func (s *Scheduler) JobNames() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.jobs))
	for name := range s.jobs {
		names = append(names, name)
	}
	return names
}

// Start begins the periodic schedule without blocking.
func (s *Scheduler) Start() {
	s.scheduler.StartAsync()
}

// Stop stops the scheduler and cancels any future runs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
