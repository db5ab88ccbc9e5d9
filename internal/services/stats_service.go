package services

import (
	"context"

	"github.com/vuxuanquyet204/webantoan/internal/models"
	"github.com/vuxuanquyet204/webantoan/pkg/debug"
)

// JobLister lists every job
type JobLister interface {
	List(ctx context.Context) ([]models.CrackJob, error)
}

// HostProbe reports the machine the benchmark runs on
type HostProbe interface {
	Snapshot(ctx context.Context) (*models.HostSnapshot, error)
}

// StatsService aggregates job records into summary counters
type StatsService struct {
	jobs JobLister
	host HostProbe
}

// NewStatsService creates a stats service. host may be nil.
func NewStatsService(jobs JobLister, host HostProbe) *StatsService {
	return &StatsService{jobs: jobs, host: host}
}

// GetStats scans all jobs once and attaches a host snapshot when available
func (s *StatsService) GetStats(ctx context.Context) (*models.CrackStats, error) {
	jobs, err := s.jobs.List(ctx)
	if err != nil {
		return nil, err
	}
	stats := ComputeStats(jobs)

	if s.host != nil {
		snapshot, err := s.host.Snapshot(ctx)
		if err != nil {
			debug.Warning("Failed to sample host metrics: %v", err)
		} else {
			stats.Host = snapshot
		}
	}
	return stats, nil
}

// ComputeStats derives counters and per-algorithm timing datasets. A job
// counts as a success only when it completed with a recovered password.
func ComputeStats(jobs []models.CrackJob) *models.CrackStats {
	stats := &models.CrackStats{
		Total:    len(jobs),
		Datasets: make(map[string][]models.CrackStatsDataset),
	}

	for _, job := range jobs {
		switch job.Status {
		case models.CrackJobStatusCompleted:
			if job.FoundPassword != nil {
				stats.Success++
			}
		case models.CrackJobStatusFailed:
			stats.Failed++
		case models.CrackJobStatusRunning:
			stats.Running++
		}

		if _, ok := stats.Datasets[job.Algorithm]; !ok {
			stats.Datasets[job.Algorithm] = []models.CrackStatsDataset{}
		}
		if job.TotalTimeMs == nil {
			continue
		}
		stats.Datasets[job.Algorithm] = append(stats.Datasets[job.Algorithm], models.CrackStatsDataset{
			JobID:          job.ID,
			UserID:         job.UserID,
			Attempts:       deref(job.Attempts),
			TotalTimeMs:    *job.TotalTimeMs,
			AttemptsPerSec: deref(job.AttemptsPerSec),
			Status:         job.Status,
			FoundPassword:  job.FoundPassword,
		})
	}
	return stats
}

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}
