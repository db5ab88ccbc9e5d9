package services

import (
	"context"
	"fmt"
	"time"

	"github.com/vuxuanquyet204/webantoan/pkg/debug"
)

// JobCleanupService reconciles jobs left unfinished by a previous process
type JobCleanupService struct {
	jobs StaleJobStore
}

// NewJobCleanupService creates a new job cleanup service
func NewJobCleanupService(jobs StaleJobStore) *JobCleanupService {
	return &JobCleanupService{jobs: jobs}
}

// CleanupStaleJobsOnStartup marks queued and running jobs as failed. Their
// workers died with the previous process and progress is not resumed.
func (s *JobCleanupService) CleanupStaleJobsOnStartup(ctx context.Context) error {
	debug.Info("Starting cleanup of stale jobs on startup")

	n, err := s.jobs.FailStale(ctx, time.Now().UTC())
	if err != nil {
		debug.Error("Failed to clean up stale jobs: %v", err)
		return fmt.Errorf("failed to clean up stale jobs: %w", err)
	}

	if n == 0 {
		debug.Info("No stale jobs found during startup cleanup")
		return nil
	}
	debug.Info("Marked %d stale jobs as failed", n)
	return nil
}
