package services

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vuxuanquyet204/webantoan/internal/models"
)

// memJobStore is an in-memory CrackJobStore that tracks the peak number of
// simultaneously running jobs
type memJobStore struct {
	mu          sync.Mutex
	jobs        map[string]models.CrackJob
	peakRunning int
	finishCalls int
	applied     map[string]int
	updateErr   error
}

func newMemJobStore() *memJobStore {
	return &memJobStore{jobs: make(map[string]models.CrackJob), applied: make(map[string]int)}
}

func (m *memJobStore) Create(_ context.Context, job *models.CrackJob) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.jobs[job.ID] = *job
	return nil
}

func (m *memJobStore) UpdateStatus(_ context.Context, id string, from, to models.CrackJobStatus) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.updateErr != nil {
		return false, m.updateErr
	}
	job, ok := m.jobs[id]
	if !ok || job.Status != from {
		return false, nil
	}
	job.Status = to
	m.jobs[id] = job
	if running := m.countLocked(models.CrackJobStatusRunning); running > m.peakRunning {
		m.peakRunning = running
	}
	return true, nil
}

func (m *memJobStore) Finish(_ context.Context, id string, c models.CrackJobCompletion) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.finishCalls++
	job, ok := m.jobs[id]
	if !ok || job.Status != models.CrackJobStatusRunning {
		return false, nil
	}
	finished := c.FinishedAt
	job.Status = c.Status
	job.FinishedAt = &finished
	job.TotalTimeMs = c.TotalTimeMs
	job.Attempts = c.Attempts
	job.AttemptsPerSec = c.AttemptsPerSec
	job.FoundPassword = c.FoundPassword
	m.jobs[id] = job
	m.applied[id]++
	return true, nil
}

func (m *memJobStore) GetByID(_ context.Context, id string) (*models.CrackJob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	job, ok := m.jobs[id]
	if !ok {
		return nil, nil
	}
	return &job, nil
}

func (m *memJobStore) List(context.Context) ([]models.CrackJob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.CrackJob, 0, len(m.jobs))
	for _, job := range m.jobs {
		out = append(out, job)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartedAt.After(out[j].StartedAt) })
	return out, nil
}

func (m *memJobStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.jobs, id)
	return nil
}

func (m *memJobStore) DeleteAll(context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := int64(len(m.jobs))
	m.jobs = make(map[string]models.CrackJob)
	return n, nil
}

func (m *memJobStore) FailStale(_ context.Context, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for id, job := range m.jobs {
		if job.Status == models.CrackJobStatusQueued || job.Status == models.CrackJobStatusRunning {
			job.Status = models.CrackJobStatusFailed
			job.FinishedAt = &now
			m.jobs[id] = job
			n++
		}
	}
	return n, nil
}

func (m *memJobStore) ListOverdueIDs(_ context.Context, cutoff time.Time) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var ids []string
	for id, job := range m.jobs {
		if job.Status == models.CrackJobStatusRunning && job.StartedAt.Before(cutoff) {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (m *memJobStore) status(id string) models.CrackJobStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.jobs[id].Status
}

// appliedFinishes returns how many Finish calls changed the job
func (m *memJobStore) appliedFinishes(id string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.applied[id]
}

func (m *memJobStore) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.jobs)
}

func (m *memJobStore) countLocked(status models.CrackJobStatus) int {
	n := 0
	for _, job := range m.jobs {
		if job.Status == status {
			n++
		}
	}
	return n
}

// uuidJobStore rejects ids that are not UUIDs the way a uuid column does
type uuidJobStore struct {
	*memJobStore
}

func (u uuidJobStore) GetByID(ctx context.Context, id string) (*models.CrackJob, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("failed to get crack job: invalid input syntax for type uuid: %q", id)
	}
	return u.memJobStore.GetByID(ctx, id)
}

// memUserStore is an in-memory UserStore
type memUserStore struct {
	mu     sync.Mutex
	nextID int64
	users  map[int64]models.User
}

func newMemUserStore() *memUserStore {
	return &memUserStore{users: make(map[int64]models.User)}
}

func (m *memUserStore) Create(_ context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	user.ID = m.nextID
	user.CreatedAt = time.Now()
	m.users[user.ID] = *user
	return nil
}

func (m *memUserStore) GetByID(_ context.Context, id int64) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.users[id]
	if !ok {
		return nil, nil
	}
	return &user, nil
}

func (m *memUserStore) GetByUsername(_ context.Context, username string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, user := range m.users {
		if user.Username == username {
			u := user
			return &u, nil
		}
	}
	return nil, nil
}

func (m *memUserStore) List(context.Context) ([]models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.User, 0, len(m.users))
	for _, user := range m.users {
		out = append(out, user)
	}
	return out, nil
}

func (m *memUserStore) Delete(_ context.Context, id int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[id]; !ok {
		return false, nil
	}
	delete(m.users, id)
	return true, nil
}

// slowUserLookup delays lookups of one user id
type slowUserLookup struct {
	UserLookup
	slowID int64
	delay  time.Duration
}

func (s slowUserLookup) GetByID(ctx context.Context, id int64) (*models.User, error) {
	if id == s.slowID {
		time.Sleep(s.delay)
	}
	return s.UserLookup.GetByID(ctx, id)
}

// recordingNotifier collects job events
type recordingNotifier struct {
	mu      sync.Mutex
	updated []models.CrackJob
	deleted []string
	cleared []int64
}

func (r *recordingNotifier) JobUpdated(job *models.CrackJob) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.updated = append(r.updated, *job)
}

func (r *recordingNotifier) JobDeleted(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deleted = append(r.deleted, id)
}

func (r *recordingNotifier) JobsCleared(count int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cleared = append(r.cleared, count)
}

func (r *recordingNotifier) statuses(id string) []models.CrackJobStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.CrackJobStatus
	for _, job := range r.updated {
		if job.ID == id {
			out = append(out, job.Status)
		}
	}
	return out
}

// recordingPotfile collects recorded passwords
type recordingPotfile struct {
	mu      sync.Mutex
	entries []string
}

func (r *recordingPotfile) Record(algorithm, password string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, algorithm+":"+password)
	return nil
}

func (r *recordingPotfile) all() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.entries...)
}
