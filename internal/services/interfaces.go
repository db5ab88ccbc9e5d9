package services

import (
	"context"
	"errors"
	"time"

	"github.com/vuxuanquyet204/webantoan/internal/models"
	"github.com/vuxuanquyet204/webantoan/internal/wordlist"
)

var (
	// ErrCapacityExceeded is returned when the concurrency ceiling is reached
	ErrCapacityExceeded = errors.New("cracking capacity reached, try again later")
	// ErrUnknownUser is returned when the referenced user does not exist
	ErrUnknownUser = errors.New("user not found")
	// ErrInvalidConfiguration is returned when attack parameters are missing or invalid
	ErrInvalidConfiguration = errors.New("invalid attack configuration")
	// ErrNotFound is returned when a job does not exist
	ErrNotFound = errors.New("job not found")
	// ErrUserExists is returned when registering a taken username
	ErrUserExists = errors.New("username already exists")
)

// CrackJobStore persists job rows
type CrackJobStore interface {
	Create(ctx context.Context, job *models.CrackJob) error
	UpdateStatus(ctx context.Context, id string, from, to models.CrackJobStatus) (bool, error)
	Finish(ctx context.Context, id string, c models.CrackJobCompletion) (bool, error)
	GetByID(ctx context.Context, id string) (*models.CrackJob, error)
	List(ctx context.Context) ([]models.CrackJob, error)
	Delete(ctx context.Context, id string) error
	DeleteAll(ctx context.Context) (int64, error)
}

// StaleJobStore resets jobs a previous process left unfinished
type StaleJobStore interface {
	FailStale(ctx context.Context, now time.Time) (int64, error)
}

// OverdueJobStore finds running jobs past a cutoff
type OverdueJobStore interface {
	ListOverdueIDs(ctx context.Context, cutoff time.Time) ([]string, error)
}

// UserStore persists users
type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	List(ctx context.Context) ([]models.User, error)
	Delete(ctx context.Context, id int64) (bool, error)
}

// UserLookup resolves the owner of a job
type UserLookup interface {
	GetByID(ctx context.Context, id int64) (*models.User, error)
}

// WordlistResolver maps wordlist ids to files
type WordlistResolver interface {
	Resolve(id string) (*wordlist.Resolved, error)
}

// JobNotifier is told about every persisted job change
type JobNotifier interface {
	JobUpdated(job *models.CrackJob)
	JobDeleted(id string)
	JobsCleared(count int64)
}

// PasswordRecorder keeps recovered passwords
type PasswordRecorder interface {
	Record(algorithm, password string) error
}

// JobCanceller cancels a job by id
type JobCanceller interface {
	Cancel(ctx context.Context, id string) (*models.CrackJob, error)
}
