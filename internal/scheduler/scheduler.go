// Package scheduler runs the daily update on a cron schedule.
package scheduler

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/robfig/cron/v3"

	"pelican-stonks/internal/logger"
)

// DefaultSchedule is 21:30 on weekdays, after the US close.
const DefaultSchedule = "0 30 21 * * 1-5"

// Job is one scheduled run.
type Job func(ctx context.Context)

// Scheduler triggers a Job on a schedule or on demand. At most one run is in
// flight; a trigger during a run is dropped.
type Scheduler struct {
	job     Job
	cron    *cron.Cron
	running atomic.Bool
	wg      sync.WaitGroup
}

func New(job Job) *Scheduler {
	return &Scheduler{
		job:  job,
		cron: cron.New(cron.WithSeconds()),
	}
}

// Start parses a six-field cron schedule and begins scheduling.
func (s *Scheduler) Start(schedule string) error {
	if schedule == "" {
		schedule = DefaultSchedule
	}

	if _, err := s.cron.AddFunc(schedule, func() { s.run("cron") }); err != nil {
		return err
	}

	s.cron.Start()
	logger.Info(context.Background(), "Daily update scheduler started", "schedule", schedule)
	return nil
}

// Stop stops scheduling and waits for an in-flight run to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.wg.Wait()
	logger.Info(context.Background(), "Daily update scheduler stopped")
}

// RunNow starts a run in the background. It returns false when a run is
// already in progress.
func (s *Scheduler) RunNow() bool {
	if s.running.Load() {
		return false
	}
	logger.Info(context.Background(), "Triggering immediate daily update")
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.run("manual")
	}()
	return true
}

// Running reports whether a run is in progress.
func (s *Scheduler) Running() bool {
	return s.running.Load()
}

func (s *Scheduler) run(trigger string) {
	ctx := context.Background()
	if !s.running.CompareAndSwap(false, true) {
		logger.Warn(ctx, "Daily update already running, skipping trigger", "trigger", trigger)
		return
	}
	defer s.running.Store(false)

	op := logger.StartOperation(ctx, "scheduled_run", "trigger", trigger)
	s.job(op.GetContext())
	op.End()
}
