package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/vuxuanquyet204/webantoan/internal/db"
	"github.com/vuxuanquyet204/webantoan/internal/db/queries"
	"github.com/vuxuanquyet204/webantoan/internal/models"
)

// CrackJobRepository handles database operations for crack jobs
type CrackJobRepository struct {
	db *db.DB
}

// NewCrackJobRepository creates a new crack job repository
func NewCrackJobRepository(database *db.DB) *CrackJobRepository {
	return &CrackJobRepository{db: database}
}

// Create inserts a new job row
func (r *CrackJobRepository) Create(ctx context.Context, job *models.CrackJob) error {
	_, err := r.db.ExecContext(ctx, queries.InsertCrackJobQuery,
		job.ID,
		job.UserID,
		job.Algorithm,
		job.AttackType,
		job.Wordlist,
		job.Wordlist2,
		job.MaxLength,
		job.Charset,
		job.HybridSuffixLength,
		job.HybridSuffixCharset,
		job.MaskPattern,
		pq.Array(job.RuleTypes),
		job.Status,
		job.StartedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create crack job: %w", err)
	}
	return nil
}

// UpdateStatus moves a job from one status to another. It reports false when
// the job was not in the expected status.
func (r *CrackJobRepository) UpdateStatus(ctx context.Context, id string, from, to models.CrackJobStatus) (bool, error) {
	result, err := r.db.ExecContext(ctx, queries.UpdateCrackJobStatusQuery, to, id, from)
	if err != nil {
		return false, fmt.Errorf("failed to update crack job status: %w", err)
	}
	return affected(result)
}

// Finish writes a terminal status. It reports false when the job was no
// longer running, in which case nothing is written.
func (r *CrackJobRepository) Finish(ctx context.Context, id string, c models.CrackJobCompletion) (bool, error) {
	result, err := r.db.ExecContext(ctx, queries.FinishCrackJobQuery,
		c.Status,
		c.FinishedAt,
		c.TotalTimeMs,
		c.Attempts,
		c.AttemptsPerSec,
		c.FoundPassword,
		id,
	)
	if err != nil {
		return false, fmt.Errorf("failed to finish crack job: %w", err)
	}
	return affected(result)
}

// GetByID retrieves a job, returning nil when it does not exist
func (r *CrackJobRepository) GetByID(ctx context.Context, id string) (*models.CrackJob, error) {
	job, err := scanCrackJob(r.db.QueryRowContext(ctx, queries.GetCrackJobByIDQuery, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get crack job: %w", err)
	}
	return job, nil
}

// List returns every job, newest first
func (r *CrackJobRepository) List(ctx context.Context) ([]models.CrackJob, error) {
	rows, err := r.db.QueryContext(ctx, queries.ListCrackJobsQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to list crack jobs: %w", err)
	}
	defer rows.Close()

	jobs := []models.CrackJob{}
	for rows.Next() {
		job, err := scanCrackJob(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan crack job: %w", err)
		}
		jobs = append(jobs, *job)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating crack jobs: %w", err)
	}
	return jobs, nil
}

// Delete removes one job row
func (r *CrackJobRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, queries.DeleteCrackJobQuery, id); err != nil {
		return fmt.Errorf("failed to delete crack job: %w", err)
	}
	return nil
}

// DeleteAll removes every job row and returns how many were removed
func (r *CrackJobRepository) DeleteAll(ctx context.Context) (int64, error) {
	result, err := r.db.ExecContext(ctx, queries.DeleteAllCrackJobsQuery)
	if err != nil {
		return 0, fmt.Errorf("failed to delete crack jobs: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count deleted crack jobs: %w", err)
	}
	return n, nil
}

// FailStale marks every queued or running job as failed
func (r *CrackJobRepository) FailStale(ctx context.Context, now time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, queries.FailStaleCrackJobsQuery, now)
	if err != nil {
		return 0, fmt.Errorf("failed to reset stale crack jobs: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count stale crack jobs: %w", err)
	}
	return n, nil
}

// ListOverdueIDs returns running jobs submitted before cutoff
func (r *CrackJobRepository) ListOverdueIDs(ctx context.Context, cutoff time.Time) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, queries.ListOverdueCrackJobIDsQuery, cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to list overdue crack jobs: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan crack job id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanCrackJob(row rowScanner) (*models.CrackJob, error) {
	job := &models.CrackJob{}
	var (
		wordlist, wordlist2, charset, suffixCharset, mask, found sql.NullString
		maxLength, suffixLength                                 sql.NullInt32
		finishedAt                                              sql.NullTime
		totalTimeMs, attempts                                   sql.NullInt64
		attemptsPerSec                                          sql.NullFloat64
		ruleTypes                                               pq.StringArray
		status                                                  string
	)

	err := row.Scan(
		&job.ID,
		&job.UserID,
		&job.Username,
		&job.Algorithm,
		&job.AttackType,
		&wordlist,
		&wordlist2,
		&maxLength,
		&charset,
		&suffixLength,
		&suffixCharset,
		&mask,
		&ruleTypes,
		&status,
		&job.StartedAt,
		&finishedAt,
		&totalTimeMs,
		&attempts,
		&attemptsPerSec,
		&found,
	)
	if err != nil {
		return nil, err
	}

	job.Status = models.CrackJobStatus(status)
	job.Wordlist = stringPtr(wordlist)
	job.Wordlist2 = stringPtr(wordlist2)
	job.Charset = stringPtr(charset)
	job.HybridSuffixCharset = stringPtr(suffixCharset)
	job.MaskPattern = stringPtr(mask)
	job.FoundPassword = stringPtr(found)
	if maxLength.Valid {
		v := int(maxLength.Int32)
		job.MaxLength = &v
	}
	if suffixLength.Valid {
		v := int(suffixLength.Int32)
		job.HybridSuffixLength = &v
	}
	if len(ruleTypes) > 0 {
		job.RuleTypes = []string(ruleTypes)
	}
	if finishedAt.Valid {
		job.FinishedAt = &finishedAt.Time
	}
	if totalTimeMs.Valid {
		job.TotalTimeMs = &totalTimeMs.Int64
	}
	if attempts.Valid {
		job.Attempts = &attempts.Int64
	}
	if attemptsPerSec.Valid {
		job.AttemptsPerSec = &attemptsPerSec.Float64
	}
	return job, nil
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

func affected(result sql.Result) (bool, error) {
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return n > 0, nil
}
