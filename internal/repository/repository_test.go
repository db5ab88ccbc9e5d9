package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vuxuanquyet204/webantoan/internal/db"
	"github.com/vuxuanquyet204/webantoan/internal/db/queries"
	"github.com/vuxuanquyet204/webantoan/internal/models"
)

var crackJobRowColumns = []string{
	"id", "user_id", "username", "algorithm", "attack_type",
	"wordlist", "wordlist2", "max_length", "charset", "hybrid_suffix_length",
	"hybrid_suffix_charset", "mask_pattern", "rule_types", "status", "started_at",
	"finished_at", "total_time_ms", "attempts", "attempts_per_sec", "found_password",
}

func newMock(t *testing.T) (*db.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })
	return db.New(sqlDB), mock
}

func TestCrackJobRepository_Create(t *testing.T) {
	database, mock := newMock(t)
	repo := NewCrackJobRepository(database)

	wordlist := "small"
	job := &models.CrackJob{
		ID:         "5b0c1f0e-0000-4000-8000-000000000001",
		UserID:     7,
		Algorithm:  "md5",
		AttackType: "rule",
		Wordlist:   &wordlist,
		RuleTypes:  []string{"lowercase"},
		Status:     models.CrackJobStatusQueued,
		StartedAt:  time.Now(),
	}

	mock.ExpectExec(queries.InsertCrackJobQuery).
		WithArgs(job.ID, job.UserID, "md5", "rule", "small", nil, nil, nil, nil, nil, nil,
			sqlmock.AnyArg(), "queued", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Create(context.Background(), job))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCrackJobRepository_GetByID(t *testing.T) {
	database, mock := newMock(t)
	repo := NewCrackJobRepository(database)

	started := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	finished := started.Add(1500 * time.Millisecond)
	rows := sqlmock.NewRows(crackJobRowColumns).AddRow(
		"job-1", int64(3), "alice", "sha1", "rule",
		"small", nil, nil, nil, nil,
		nil, nil, []byte("{lowercase,addNumbers}"), "completed", started,
		finished, int64(1500), int64(42), float64(28), "letmein",
	)
	mock.ExpectQuery(queries.GetCrackJobByIDQuery).WithArgs("job-1").WillReturnRows(rows)

	job, err := repo.GetByID(context.Background(), "job-1")
	require.NoError(t, err)
	require.NotNil(t, job)
	assert.Equal(t, "alice", job.Username)
	assert.Equal(t, models.CrackJobStatusCompleted, job.Status)
	assert.Equal(t, []string{"lowercase", "addNumbers"}, job.RuleTypes)
	require.NotNil(t, job.Wordlist)
	assert.Equal(t, "small", *job.Wordlist)
	assert.Nil(t, job.Wordlist2)
	assert.Nil(t, job.MaxLength)
	require.NotNil(t, job.Attempts)
	assert.Equal(t, int64(42), *job.Attempts)
	require.NotNil(t, job.FoundPassword)
	assert.Equal(t, "letmein", *job.FoundPassword)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCrackJobRepository_GetByIDNotFound(t *testing.T) {
	database, mock := newMock(t)
	repo := NewCrackJobRepository(database)

	mock.ExpectQuery(queries.GetCrackJobByIDQuery).WithArgs("missing").
		WillReturnRows(sqlmock.NewRows(crackJobRowColumns))

	job, err := repo.GetByID(context.Background(), "missing")
	require.NoError(t, err)
	assert.Nil(t, job)
}

func TestCrackJobRepository_List(t *testing.T) {
	database, mock := newMock(t)
	repo := NewCrackJobRepository(database)

	now := time.Now()
	rows := sqlmock.NewRows(crackJobRowColumns).
		AddRow("a", int64(1), "", "bcrypt", "bruteforce", nil, nil, int64(4), "ab", nil, nil, nil, nil, "running", now, nil, nil, nil, nil, nil).
		AddRow("b", int64(1), "", "md5", "mask", nil, nil, nil, nil, nil, nil, "?d", nil, "failed", now, now, nil, nil, nil, nil)
	mock.ExpectQuery(queries.ListCrackJobsQuery).WillReturnRows(rows)

	jobs, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, jobs, 2)
	require.NotNil(t, jobs[0].MaxLength)
	assert.Equal(t, 4, *jobs[0].MaxLength)
	assert.Nil(t, jobs[0].RuleTypes)
	assert.Equal(t, "?d", *jobs[1].MaskPattern)
	assert.NotNil(t, jobs[1].FinishedAt)
}

func TestCrackJobRepository_Finish(t *testing.T) {
	tests := []struct {
		name     string
		affected int64
		want     bool
	}{
		{"running job is finished", 1, true},
		{"already terminal job is untouched", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			database, mock := newMock(t)
			repo := NewCrackJobRepository(database)

			mock.ExpectExec(queries.FinishCrackJobQuery).
				WithArgs("cancelled", sqlmock.AnyArg(), nil, nil, nil, nil, "job-1").
				WillReturnResult(sqlmock.NewResult(0, tt.affected))

			applied, err := repo.Finish(context.Background(), "job-1", models.CrackJobCompletion{
				Status:     models.CrackJobStatusCancelled,
				FinishedAt: time.Now(),
			})
			require.NoError(t, err)
			assert.Equal(t, tt.want, applied)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestCrackJobRepository_UpdateStatus(t *testing.T) {
	database, mock := newMock(t)
	repo := NewCrackJobRepository(database)

	mock.ExpectExec(queries.UpdateCrackJobStatusQuery).
		WithArgs("running", "job-1", "queued").
		WillReturnResult(sqlmock.NewResult(0, 1))

	ok, err := repo.UpdateStatus(context.Background(), "job-1", models.CrackJobStatusQueued, models.CrackJobStatusRunning)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestCrackJobRepository_DeleteAllAndFailStale(t *testing.T) {
	database, mock := newMock(t)
	repo := NewCrackJobRepository(database)

	mock.ExpectExec(queries.DeleteAllCrackJobsQuery).WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec(queries.FailStaleCrackJobsQuery).WithArgs(sqlmock.AnyArg()).WillReturnResult(sqlmock.NewResult(0, 2))

	n, err := repo.DeleteAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	n, err = repo.FailStale(context.Background(), time.Now())
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCrackJobRepository_ListOverdueIDs(t *testing.T) {
	database, mock := newMock(t)
	repo := NewCrackJobRepository(database)

	mock.ExpectQuery(queries.ListOverdueCrackJobIDsQuery).WithArgs(sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("x").AddRow("y"))

	ids, err := repo.ListOverdueIDs(context.Background(), time.Now())
	require.NoError(t, err)
	assert.Equal(t, []string{"x", "y"}, ids)
}

var userRowColumns = []string{"id", "username", "email", "hash", "algorithm", "salt", "params", "created_at"}

func TestUserRepository_Create(t *testing.T) {
	database, mock := newMock(t)
	repo := NewUserRepository(database)

	created := time.Now()
	mock.ExpectQuery(queries.CreateUserQuery).
		WithArgs("alice", "a@example.com", "hash", "bcrypt", nil, []byte(`{"rounds":4}`)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(int64(9), created))

	user := &models.User{
		Username:  "alice",
		Email:     "a@example.com",
		Hash:      "hash",
		Algorithm: "bcrypt",
		Params:    map[string]any{"rounds": 4},
	}
	require.NoError(t, repo.Create(context.Background(), user))
	assert.Equal(t, int64(9), user.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_CreateDuplicate(t *testing.T) {
	database, mock := newMock(t)
	repo := NewUserRepository(database)

	mock.ExpectQuery(queries.CreateUserQuery).WillReturnError(&pq.Error{Code: "23505"})

	err := repo.Create(context.Background(), &models.User{Username: "alice"})
	assert.ErrorIs(t, err, ErrDuplicateUsername)
}

func TestUserRepository_GetByID(t *testing.T) {
	database, mock := newMock(t)
	repo := NewUserRepository(database)

	mock.ExpectQuery(queries.GetUserByIDQuery).WithArgs(int64(2)).
		WillReturnRows(sqlmock.NewRows(userRowColumns).
			AddRow(int64(2), "bob", "", "abc", "sha1", "deadbeef", []byte(`{"useSalt":true}`), time.Now()))

	user, err := repo.GetByID(context.Background(), 2)
	require.NoError(t, err)
	require.NotNil(t, user)
	require.NotNil(t, user.Salt)
	assert.Equal(t, "deadbeef", *user.Salt)
	assert.Equal(t, true, user.Params["useSalt"])

	cred := user.Credential()
	assert.Equal(t, "deadbeef", cred.Salt)

	mock.ExpectQuery(queries.GetUserByIDQuery).WithArgs(int64(3)).
		WillReturnRows(sqlmock.NewRows(userRowColumns))
	user, err = repo.GetByID(context.Background(), 3)
	require.NoError(t, err)
	assert.Nil(t, user)
}

func TestUserRepository_Delete(t *testing.T) {
	database, mock := newMock(t)
	repo := NewUserRepository(database)

	mock.ExpectExec(queries.DeleteUserQuery).WithArgs(int64(4)).WillReturnResult(sqlmock.NewResult(0, 0))

	ok, err := repo.Delete(context.Background(), 4)
	require.NoError(t, err)
	assert.False(t, ok)
}
