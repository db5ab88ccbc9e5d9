package crack

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vuxuanquyet204/webantoan/internal/db"
	"github.com/vuxuanquyet204/webantoan/internal/db/queries"
	"github.com/vuxuanquyet204/webantoan/internal/models"
	"github.com/vuxuanquyet204/webantoan/internal/repository"
	"github.com/vuxuanquyet204/webantoan/internal/services"
	"github.com/vuxuanquyet204/webantoan/internal/wordlist"
)

type fakeJobService struct {
	submitErr error
	submitted *models.CreateCrackJobRequest
	jobs      map[string]*models.CrackJob
	deleted   int64
}

func (f *fakeJobService) Submit(_ context.Context, req *models.CreateCrackJobRequest) (*models.CrackJob, error) {
	if f.submitErr != nil {
		return nil, f.submitErr
	}
	f.submitted = req
	return &models.CrackJob{ID: "job-1", UserID: req.UserID, AttackType: req.AttackType, Status: models.CrackJobStatusRunning}, nil
}

func (f *fakeJobService) Get(_ context.Context, id string) (*models.CrackJob, error) {
	if job, ok := f.jobs[id]; ok {
		return job, nil
	}
	return nil, fmt.Errorf("%w: %s", services.ErrNotFound, id)
}

func (f *fakeJobService) List(context.Context) ([]models.CrackJob, error) {
	out := []models.CrackJob{}
	for _, job := range f.jobs {
		out = append(out, *job)
	}
	return out, nil
}

func (f *fakeJobService) Cancel(ctx context.Context, id string) (*models.CrackJob, error) {
	job, err := f.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	job.Status = models.CrackJobStatusCancelled
	return job, nil
}

func (f *fakeJobService) Delete(_ context.Context, id string) (*models.CrackJob, error) {
	job, ok := f.jobs[id]
	if !ok {
		return nil, nil
	}
	delete(f.jobs, id)
	return job, nil
}

func (f *fakeJobService) DeleteAll(context.Context) (int64, error) {
	n := int64(len(f.jobs))
	f.jobs = map[string]*models.CrackJob{}
	f.deleted += n
	return n, nil
}

type fakeStats struct{ err error }

func (f fakeStats) GetStats(context.Context) (*models.CrackStats, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &models.CrackStats{Total: 3, Success: 1, Datasets: map[string][]models.CrackStatsDataset{}}, nil
}

type fakeWordlists struct{}

func (fakeWordlists) List() []wordlist.Entry {
	return []wordlist.Entry{{ID: "small", Label: "Small", File: "small.txt"}}
}

type fakePotfile int64

func (f fakePotfile) Count() int64 { return int64(f) }

func newTestRouter(svc JobService, stats StatsProvider) *mux.Router {
	h := NewHandler(svc, stats, fakeWordlists{}, fakePotfile(7), nil)
	r := mux.NewRouter()
	r.HandleFunc("/jobs", h.CreateJob).Methods(http.MethodPost)
	r.HandleFunc("/jobs", h.ListJobs).Methods(http.MethodGet)
	r.HandleFunc("/jobs", h.DeleteAllJobs).Methods(http.MethodDelete)
	r.HandleFunc("/jobs/{id}", h.GetJob).Methods(http.MethodGet)
	r.HandleFunc("/jobs/{id}", h.DeleteJob).Methods(http.MethodDelete)
	r.HandleFunc("/jobs/{id}/cancel", h.CancelJob).Methods(http.MethodPost)
	r.HandleFunc("/stats", h.GetStats).Methods(http.MethodGet)
	r.HandleFunc("/wordlists", h.ListWordlists).Methods(http.MethodGet)
	r.HandleFunc("/potfile", h.GetPotfile).Methods(http.MethodGet)
	r.HandleFunc("/ws", h.ServeEvents).Methods(http.MethodGet)
	return r
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) APIError {
	t.Helper()
	var apiErr APIError
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &apiErr))
	return apiErr
}

func TestCreateJob(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		submitErr  error
		wantStatus int
		wantCode   string
	}{
		{"accepted", `{"userId":1,"attackType":"dictionary","wordlistId":"small"}`, nil, http.StatusAccepted, ""},
		{"malformed body", `{"userId":`, nil, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"missing attack type", `{"userId":1}`, nil, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"invalid configuration", `{"userId":1,"attackType":"combinator"}`,
			fmt.Errorf("%w: both wordlists are required", services.ErrInvalidConfiguration), http.StatusBadRequest, "VALIDATION_ERROR"},
		{"unknown wordlist", `{"userId":1,"attackType":"dictionary","wordlistId":"huge"}`,
			fmt.Errorf("%w: huge", wordlist.ErrUnknownWordlist), http.StatusBadRequest, "VALIDATION_ERROR"},
		{"unknown user", `{"userId":9,"attackType":"mask","maskPattern":"?d"}`,
			fmt.Errorf("%w: 9", services.ErrUnknownUser), http.StatusNotFound, "NOT_FOUND"},
		{"capacity", `{"userId":1,"attackType":"bruteforce"}`,
			services.ErrCapacityExceeded, http.StatusTooManyRequests, "CAPACITY_EXCEEDED"},
		{"store failure", `{"userId":1,"attackType":"bruteforce"}`,
			errors.New("connection reset"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeJobService{submitErr: tt.submitErr}
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/jobs", strings.NewReader(tt.body))

			newTestRouter(svc, fakeStats{}).ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantCode != "" {
				assert.Equal(t, tt.wantCode, decodeError(t, rec).Code)
				return
			}
			var job models.CrackJob
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &job))
			assert.Equal(t, "job-1", job.ID)
			assert.Equal(t, "small", svc.submitted.WordlistID)
		})
	}
}

func TestJobLifecycleEndpoints(t *testing.T) {
	svc := &fakeJobService{jobs: map[string]*models.CrackJob{
		"a": {ID: "a", Status: models.CrackJobStatusRunning},
		"b": {ID: "b", Status: models.CrackJobStatusCompleted},
	}}
	router := newTestRouter(svc, fakeStats{})

	serve := func(method, path string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(method, path, nil))
		return rec
	}

	rec := serve(http.MethodGet, "/jobs")
	assert.Equal(t, http.StatusOK, rec.Code)
	var jobs []models.CrackJob
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &jobs))
	assert.Len(t, jobs, 2)

	rec = serve(http.MethodGet, "/jobs/a")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = serve(http.MethodGet, "/jobs/missing")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "NOT_FOUND", decodeError(t, rec).Code)

	rec = serve(http.MethodPost, "/jobs/a/cancel")
	assert.Equal(t, http.StatusOK, rec.Code)
	var cancelled models.CrackJob
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &cancelled))
	assert.Equal(t, models.CrackJobStatusCancelled, cancelled.Status)

	rec = serve(http.MethodPost, "/jobs/missing/cancel")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = serve(http.MethodDelete, "/jobs/a")
	assert.Equal(t, http.StatusOK, rec.Code)
	var deleted DeleteJobResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &deleted))
	assert.Equal(t, "a", deleted.ID)

	rec = serve(http.MethodDelete, "/jobs/a")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = serve(http.MethodDelete, "/jobs")
	assert.Equal(t, http.StatusOK, rec.Code)
	var cleared DeleteAllJobsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &cleared))
	assert.Equal(t, int64(1), cleared.DeletedCount)
}

func TestReadOnlyEndpoints(t *testing.T) {
	router := newTestRouter(&fakeJobService{}, fakeStats{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/stats", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	var stats models.CrackStats
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.Equal(t, 3, stats.Total)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/wordlists", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"id":"small"`)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/potfile", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"entries":7}`, rec.Body.String())

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ws", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetStatsFailure(t *testing.T) {
	router := newTestRouter(&fakeJobService{}, fakeStats{err: errors.New("db down")})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/stats", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "INTERNAL_ERROR", decodeError(t, rec).Code)
}

func TestJobEndpointsUnknownIDs(t *testing.T) {
	absent := uuid.NewString()
	tests := []struct {
		name    string
		id      string
		queries int
	}{
		{"malformed id", "not-a-uuid", 0},
		{"absent job", absent, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sqlDB, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
			require.NoError(t, err)
			defer sqlDB.Close()
			for i := 0; i < tt.queries; i++ {
				mock.ExpectQuery(queries.GetCrackJobByIDQuery).WithArgs(tt.id).
					WillReturnRows(sqlmock.NewRows([]string{"id"}))
			}

			database := db.New(sqlDB)
			svc := services.NewCrackService(
				repository.NewCrackJobRepository(database),
				repository.NewUserRepository(database),
				wordlist.NewCatalog(t.TempDir(), nil),
				1, time.Second,
			)
			router := newTestRouter(svc, fakeStats{})

			for _, req := range []struct{ method, path string }{
				{http.MethodPost, "/jobs/" + tt.id + "/cancel"},
				{http.MethodGet, "/jobs/" + tt.id},
				{http.MethodDelete, "/jobs/" + tt.id},
			} {
				rec := httptest.NewRecorder()
				router.ServeHTTP(rec, httptest.NewRequest(req.method, req.path, nil))
				assert.Equal(t, http.StatusNotFound, rec.Code, "%s %s", req.method, req.path)
				assert.Equal(t, "NOT_FOUND", decodeError(t, rec).Code)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}
