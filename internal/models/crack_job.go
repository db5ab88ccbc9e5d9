package models

import (
	"time"
)

// CrackJobStatus is the lifecycle state of a cracking job
type CrackJobStatus string

const (
	CrackJobStatusQueued    CrackJobStatus = "queued"
	CrackJobStatusRunning   CrackJobStatus = "running"
	CrackJobStatusCompleted CrackJobStatus = "completed"
	CrackJobStatusFailed    CrackJobStatus = "failed"
	CrackJobStatusCancelled CrackJobStatus = "cancelled"
)

// IsTerminal reports whether no further status change is allowed
func (s CrackJobStatus) IsTerminal() bool {
	return s == CrackJobStatusCompleted || s == CrackJobStatusFailed || s == CrackJobStatusCancelled
}

// CrackJob represents a row of the crack_jobs table.
// Attempts, AttemptsPerSec and TotalTimeMs are only set together with a terminal status.
type CrackJob struct {
	ID         string `json:"id"`
	UserID     int64  `json:"user_id"`
	Username   string `json:"username,omitempty"`
	Algorithm  string `json:"algorithm"`
	AttackType string `json:"attack_type"`

	Wordlist            *string  `json:"wordlist,omitempty"`
	Wordlist2           *string  `json:"wordlist2,omitempty"`
	MaxLength           *int     `json:"max_length,omitempty"`
	Charset             *string  `json:"charset,omitempty"`
	HybridSuffixLength  *int     `json:"hybrid_suffix_length,omitempty"`
	HybridSuffixCharset *string  `json:"hybrid_suffix_charset,omitempty"`
	MaskPattern         *string  `json:"mask_pattern,omitempty"`
	RuleTypes           []string `json:"rule_types,omitempty"`

	Status         CrackJobStatus `json:"status"`
	StartedAt      time.Time      `json:"started_at"`
	FinishedAt     *time.Time     `json:"finished_at,omitempty"`
	TotalTimeMs    *int64         `json:"total_time_ms,omitempty"`
	Attempts       *int64         `json:"attempts,omitempty"`
	AttemptsPerSec *float64       `json:"attempts_per_sec,omitempty"`
	FoundPassword  *string        `json:"found_password,omitempty"`
}

// CrackJobCompletion carries the fields written when a job reaches a terminal state
type CrackJobCompletion struct {
	Status         CrackJobStatus
	FinishedAt     time.Time
	TotalTimeMs    *int64
	Attempts       *int64
	AttemptsPerSec *float64
	FoundPassword  *string
}

// CreateCrackJobRequest is the submission payload
type CreateCrackJobRequest struct {
	UserID              int64    `json:"userId"`
	AttackType          string   `json:"attackType"`
	WordlistID          string   `json:"wordlistId,omitempty"`
	WordlistID2         string   `json:"wordlistId2,omitempty"`
	MaxLength           int      `json:"maxLength,omitempty"`
	Charset             string   `json:"charset,omitempty"`
	HybridSuffixLength  int      `json:"hybridSuffixLength,omitempty"`
	HybridSuffixCharset string   `json:"hybridSuffixCharset,omitempty"`
	MaskPattern         string   `json:"maskPattern,omitempty"`
	RuleTypes           []string `json:"ruleTypes,omitempty"`
}

// CrackStats is the aggregate view over all jobs
type CrackStats struct {
	Total    int                            `json:"total"`
	Success  int                            `json:"success"`
	Failed   int                            `json:"failed"`
	Running  int                            `json:"running"`
	Datasets map[string][]CrackStatsDataset `json:"datasets"`
	Host     *HostSnapshot                  `json:"host,omitempty"`
}

// CrackStatsDataset is one timed job grouped under its algorithm
type CrackStatsDataset struct {
	JobID          string         `json:"jobId"`
	UserID         int64          `json:"userId"`
	Attempts       int64          `json:"attempts"`
	TotalTimeMs    int64          `json:"totalTimeMs"`
	AttemptsPerSec float64        `json:"attemptsPerSec"`
	Status         CrackJobStatus `json:"status"`
	FoundPassword  *string        `json:"foundPassword"`
}

// HostSnapshot describes the machine the benchmark runs on
type HostSnapshot struct {
	LogicalCPUs   int     `json:"logical_cpus"`
	CPUPercent    float64 `json:"cpu_percent"`
	MemoryTotalMB uint64  `json:"memory_total_mb"`
	MemoryUsedPct float64 `json:"memory_used_percent"`
}
