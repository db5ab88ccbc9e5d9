package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vuxuanquyet204/webantoan/internal/attack"
	"github.com/vuxuanquyet204/webantoan/internal/hashing"
	"github.com/vuxuanquyet204/webantoan/internal/models"
	"github.com/vuxuanquyet204/webantoan/internal/worker"
	"github.com/vuxuanquyet204/webantoan/pkg/debug"
)

// CrackService admits cracking jobs, runs each one in its own worker and
// reconciles worker results into the job store.
//
// Every live worker has an entry in the active registry. Whoever claims an
// entry (the result watcher, cancel, delete or deleteAll) is the only party
// allowed to write the job's terminal state, and the entry keeps its slot
// until that write is done.
type CrackService struct {
	jobs      CrackJobStore
	users     UserLookup
	wordlists WordlistResolver

	notifier    JobNotifier
	potfile     PasswordRecorder
	newVerifier worker.VerifierFactory

	maxConcurrent  int
	terminateGrace time.Duration

	mu      sync.Mutex
	active  map[string]*activeJob
	pending int
}

type activeJob struct {
	handle  *worker.Handle
	claimed bool
	settled chan struct{}
}

// NewCrackService creates a new crack service
func NewCrackService(
	jobs CrackJobStore,
	users UserLookup,
	wordlists WordlistResolver,
	maxConcurrent int,
	terminateGrace time.Duration,
) *CrackService {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	return &CrackService{
		jobs:           jobs,
		users:          users,
		wordlists:      wordlists,
		newVerifier:    defaultVerifierFactory,
		maxConcurrent:  maxConcurrent,
		terminateGrace: terminateGrace,
		active:         make(map[string]*activeJob),
	}
}

func defaultVerifierFactory(cred models.Credential) (attack.Verifier, error) {
	v, err := hashing.NewVerifier(cred)
	if err != nil {
		return nil, err
	}
	return v, nil
}

// SetNotifier sets the receiver of job change events
func (s *CrackService) SetNotifier(n JobNotifier) {
	s.notifier = n
}

// SetPasswordRecorder sets where recovered passwords are kept
func (s *CrackService) SetPasswordRecorder(r PasswordRecorder) {
	s.potfile = r
}

// SetVerifierFactory replaces how workers build their verifier
func (s *CrackService) SetVerifierFactory(f worker.VerifierFactory) {
	s.newVerifier = f
}

// ActiveCount returns the number of live workers
func (s *CrackService) ActiveCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.active)
}

// reserve takes a slot under the ceiling. The slot is either converted into a
// registry entry by register or given back by unreserve.
func (s *CrackService) reserve() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.active)+s.pending >= s.maxConcurrent {
		return ErrCapacityExceeded
	}
	s.pending++
	return nil
}

func (s *CrackService) unreserve() {
	s.mu.Lock()
	s.pending--
	s.mu.Unlock()
}

func (s *CrackService) register(id string, h *worker.Handle) *activeJob {
	entry := &activeJob{handle: h, settled: make(chan struct{})}
	s.mu.Lock()
	s.pending--
	s.active[id] = entry
	s.mu.Unlock()
	return entry
}

// claim takes ownership of a specific entry
func (s *CrackService) claim(id string, entry *activeJob) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active[id] != entry || entry.claimed {
		return false
	}
	entry.claimed = true
	return true
}

// claimByID returns the entry for id and whether the caller now owns it
func (s *CrackService) claimByID(id string) (*activeJob, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.active[id]
	if !ok {
		return nil, false
	}
	if entry.claimed {
		return entry, false
	}
	entry.claimed = true
	return entry, true
}

// release drops a claimed entry and frees its slot
func (s *CrackService) release(id string, entry *activeJob) {
	s.mu.Lock()
	if s.active[id] == entry {
		delete(s.active, id)
	}
	s.mu.Unlock()
	close(entry.settled)
}

// Submit validates a request, persists a queued job and starts its worker.
// A ceiling slot is only taken once the request is known to be valid.
func (s *CrackService) Submit(ctx context.Context, req *models.CreateCrackJobRequest) (*models.CrackJob, error) {
	user, err := s.users.GetByID(ctx, req.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}
	if user == nil {
		return nil, fmt.Errorf("%w: %d", ErrUnknownUser, req.UserID)
	}

	typ, err := validateRequest(req)
	if err != nil {
		return nil, err
	}

	job := &models.CrackJob{
		ID:         uuid.NewString(),
		UserID:     user.ID,
		Username:   user.Username,
		Algorithm:  user.Algorithm,
		AttackType: string(typ),
		Status:     models.CrackJobStatusQueued,
		StartedAt:  time.Now().UTC(),
	}
	cfg, err := s.buildAttack(typ, req, job)
	if err != nil {
		return nil, err
	}

	if err := s.reserve(); err != nil {
		return nil, err
	}
	registered := false
	defer func() {
		if !registered {
			s.unreserve()
		}
	}()

	if err := s.jobs.Create(ctx, job); err != nil {
		return nil, err
	}

	h := worker.New(worker.Input{
		JobID:      job.ID,
		Credential: user.Credential(),
		Attack:     cfg,
	}, s.newVerifier)
	entry := s.register(job.ID, h)
	registered = true

	if _, err := s.jobs.UpdateStatus(ctx, job.ID, models.CrackJobStatusQueued, models.CrackJobStatusRunning); err != nil {
		debug.Error("Failed to mark job %s running: %v", job.ID, err)
		s.abandon(ctx, job.ID, entry)
		return nil, err
	}
	job.Status = models.CrackJobStatusRunning

	debug.Log("Crack job started", map[string]interface{}{
		"job_id":      job.ID,
		"user_id":     job.UserID,
		"attack_type": job.AttackType,
		"algorithm":   job.Algorithm,
	})
	s.notifyUpdated(job)

	h.Start()
	go s.watch(job.ID, job.Algorithm, entry)
	return job, nil
}

// watch applies the worker's terminal message unless a cancel or delete
// already owns the job
func (s *CrackService) watch(id, algorithm string, entry *activeJob) {
	msg, ok := <-entry.handle.Messages()
	if !ok {
		msg = worker.Message{JobID: id, Kind: worker.MessageExit, ExitCode: 1}
	}
	if !s.claim(id, entry) {
		return
	}
	defer s.release(id, entry)

	completion := completionFor(msg)
	ctx := context.Background()
	applied, err := s.jobs.Finish(ctx, id, completion)
	if err != nil {
		debug.Error("Failed to record result for job %s: %v", id, err)
		return
	}
	if !applied {
		debug.Debug("Job %s already terminal, dropping %s message", id, msg.Kind)
		return
	}

	switch msg.Kind {
	case worker.MessageDone:
		debug.Job(debug.LevelInfo, id, "Job %s completed: success=%t attempts=%d elapsed=%dms", id, msg.Success, msg.Attempts, msg.ElapsedMs)
		if msg.Success {
			debug.Debug("Job %s recovered %s", id, debug.RedactPassword(msg.Password))
			if s.potfile != nil {
				if err := s.potfile.Record(algorithm, msg.Password); err != nil {
					debug.Warning("Failed to record recovered password for job %s: %v", id, err)
				}
			}
		}
	case worker.MessageError:
		debug.Job(debug.LevelWarning, id, "Job %s failed: %s", id, msg.Err)
	default:
		debug.Job(debug.LevelWarning, id, "Job %s worker exited abnormally (code %d): %v", id, msg.ExitCode, worker.ErrWorkerFault)
	}
	s.notifyChanged(ctx, id)
}

func completionFor(msg worker.Message) models.CrackJobCompletion {
	c := models.CrackJobCompletion{
		Status:     models.CrackJobStatusFailed,
		FinishedAt: time.Now().UTC(),
	}
	if msg.Kind != worker.MessageDone {
		return c
	}
	c.Status = models.CrackJobStatusCompleted
	elapsed := msg.ElapsedMs
	attempts := msg.Attempts
	aps := msg.AttemptsPerSecond
	c.TotalTimeMs = &elapsed
	c.Attempts = &attempts
	c.AttemptsPerSec = &aps
	if msg.Success {
		password := msg.Password
		c.FoundPassword = &password
	}
	return c
}

// abandon undoes a submit whose worker never started. The queued row is
// removed so it cannot linger as a job nobody will run.
func (s *CrackService) abandon(ctx context.Context, id string, entry *activeJob) {
	if !s.claim(id, entry) {
		return
	}
	defer s.release(id, entry)
	s.terminate(id, entry)
	if err := s.jobs.Delete(ctx, id); err != nil {
		debug.Error("Failed to remove unstarted job %s: %v", id, err)
	}
}

// validJobID reports whether id can name a stored job. Job ids are UUIDs and
// anything else is treated as an unknown job.
func validJobID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// Get returns one job
func (s *CrackService) Get(ctx context.Context, id string) (*models.CrackJob, error) {
	if !validJobID(id) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	job, err := s.jobs.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if job == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return job, nil
}

// List returns every job
func (s *CrackService) List(ctx context.Context) ([]models.CrackJob, error) {
	return s.jobs.List(ctx)
}

// Cancel stops a running job and marks it cancelled. Jobs that are not
// running are returned unchanged.
func (s *CrackService) Cancel(ctx context.Context, id string) (*models.CrackJob, error) {
	job, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if job.Status != models.CrackJobStatusRunning {
		return job, nil
	}

	entry, owned := s.claimByID(id)
	if entry != nil && !owned {
		// the worker's result or another cancel is being applied
		<-entry.settled
		return s.Get(ctx, id)
	}
	if entry != nil {
		defer s.release(id, entry)
		s.terminate(id, entry)
	}

	applied, err := s.jobs.Finish(ctx, id, models.CrackJobCompletion{
		Status:     models.CrackJobStatusCancelled,
		FinishedAt: time.Now().UTC(),
	})
	if err != nil {
		return nil, err
	}
	if applied {
		debug.Job(debug.LevelInfo, id, "Job %s cancelled", id)
	}

	job, err = s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if applied {
		s.notifyUpdated(job)
	}
	return job, nil
}

// Delete stops the job's worker if needed and removes the row. It returns nil
// when the job does not exist.
func (s *CrackService) Delete(ctx context.Context, id string) (*models.CrackJob, error) {
	if !validJobID(id) {
		return nil, nil
	}
	job, err := s.jobs.GetByID(ctx, id)
	if err != nil || job == nil {
		return nil, err
	}

	if job.Status == models.CrackJobStatusRunning {
		entry, owned := s.claimByID(id)
		switch {
		case entry != nil && owned:
			defer s.release(id, entry)
			s.terminate(id, entry)
		case entry != nil:
			<-entry.settled
		}
		if job, err = s.jobs.GetByID(ctx, id); err != nil || job == nil {
			return nil, err
		}
	}

	if err := s.jobs.Delete(ctx, id); err != nil {
		return nil, err
	}
	debug.Job(debug.LevelInfo, id, "Job %s deleted", id)
	if s.notifier != nil {
		s.notifier.JobDeleted(id)
	}
	return job, nil
}

// DeleteAll stops every live worker and removes all job rows
func (s *CrackService) DeleteAll(ctx context.Context) (int64, error) {
	type ownedJob struct {
		id    string
		entry *activeJob
	}
	var owned []ownedJob
	var others []*activeJob

	s.mu.Lock()
	for id, entry := range s.active {
		if entry.claimed {
			others = append(others, entry)
			continue
		}
		entry.claimed = true
		owned = append(owned, ownedJob{id: id, entry: entry})
	}
	s.mu.Unlock()

	defer func() {
		for _, o := range owned {
			s.release(o.id, o.entry)
		}
	}()

	for _, o := range owned {
		s.terminate(o.id, o.entry)
	}
	for _, entry := range others {
		<-entry.settled
	}

	n, err := s.jobs.DeleteAll(ctx)
	if err != nil {
		return 0, err
	}
	debug.Info("Deleted %d jobs (%d workers stopped)", n, len(owned))
	if s.notifier != nil {
		s.notifier.JobsCleared(n)
	}
	return n, nil
}

// Shutdown stops every live worker and marks its job failed
func (s *CrackService) Shutdown(ctx context.Context) {
	s.mu.Lock()
	owned := make(map[string]*activeJob)
	for id, entry := range s.active {
		if !entry.claimed {
			entry.claimed = true
			owned[id] = entry
		}
	}
	s.mu.Unlock()

	for id, entry := range owned {
		s.terminate(id, entry)
		if _, err := s.jobs.Finish(ctx, id, models.CrackJobCompletion{
			Status:     models.CrackJobStatusFailed,
			FinishedAt: time.Now().UTC(),
		}); err != nil {
			debug.Error("Failed to mark job %s failed on shutdown: %v", id, err)
		}
		s.release(id, entry)
	}
	if len(owned) > 0 {
		debug.Info("Stopped %d running jobs on shutdown", len(owned))
	}
}

// terminate stops a worker. Failure is logged and never blocks the caller's
// state change.
func (s *CrackService) terminate(id string, entry *activeJob) {
	if err := entry.handle.Terminate(s.terminateGrace); err != nil {
		debug.Warning("Failed to stop worker for job %s: %v", id, err)
	}
}

func (s *CrackService) notifyUpdated(job *models.CrackJob) {
	if s.notifier != nil {
		s.notifier.JobUpdated(job)
	}
}

func (s *CrackService) notifyChanged(ctx context.Context, id string) {
	if s.notifier == nil {
		return
	}
	job, err := s.jobs.GetByID(ctx, id)
	if err != nil || job == nil {
		return
	}
	s.notifier.JobUpdated(job)
}
