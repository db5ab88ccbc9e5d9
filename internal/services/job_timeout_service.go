package services

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/vuxuanquyet204/webantoan/pkg/debug"
)

// JobTimeoutService cancels running jobs that exceed the wall-clock limit.
// It uses the same path as a user cancel.
type JobTimeoutService struct {
	jobs     OverdueJobStore
	canceler JobCanceller
	timeout  time.Duration
	schedule string
	cron     *cron.Cron
}

// NewJobTimeoutService creates a timeout supervisor
func NewJobTimeoutService(jobs OverdueJobStore, canceler JobCanceller, timeout time.Duration, schedule string) *JobTimeoutService {
	return &JobTimeoutService{
		jobs:     jobs,
		canceler: canceler,
		timeout:  timeout,
		schedule: schedule,
	}
}

// Start schedules the sweep. A zero timeout disables the supervisor.
func (s *JobTimeoutService) Start() error {
	if s.timeout <= 0 {
		debug.Info("Job timeout supervisor disabled")
		return nil
	}

	s.cron = cron.New()
	if _, err := s.cron.AddFunc(s.schedule, func() {
		if _, err := s.Sweep(context.Background()); err != nil {
			debug.Error("Job timeout sweep failed: %v", err)
		}
	}); err != nil {
		return fmt.Errorf("invalid timeout sweep schedule %q: %w", s.schedule, err)
	}
	s.cron.Start()
	debug.Info("Job timeout supervisor started (timeout=%s, schedule=%s)", s.timeout, s.schedule)
	return nil
}

// Stop halts the schedule and waits for a running sweep to finish
func (s *JobTimeoutService) Stop() {
	if s.cron == nil {
		return
	}
	<-s.cron.Stop().Done()
	debug.Info("Job timeout supervisor stopped")
}

// Sweep cancels every running job older than the timeout and returns how many
// it cancelled
func (s *JobTimeoutService) Sweep(ctx context.Context) (int, error) {
	cutoff := time.Now().UTC().Add(-s.timeout)
	ids, err := s.jobs.ListOverdueIDs(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	cancelled := 0
	for _, id := range ids {
		if _, err := s.canceler.Cancel(ctx, id); err != nil {
			debug.Warning("Failed to cancel overdue job %s: %v", id, err)
			continue
		}
		debug.Info("Cancelled job %s after exceeding %s", id, s.timeout)
		cancelled++
	}
	return cancelled, nil
}
