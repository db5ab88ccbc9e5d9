// Package worker runs one attack in its own goroutine and reports exactly one
// terminal message back to the owner of the handle.
package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/vuxuanquyet204/webantoan/internal/attack"
	"github.com/vuxuanquyet204/webantoan/internal/models"
	"github.com/vuxuanquyet204/webantoan/pkg/debug"
)

var (
	// ErrWorkerFault marks a worker that crashed or exited without a result
	ErrWorkerFault = errors.New("worker exited abnormally")
	// ErrTerminateTimeout is returned when a worker does not stop within the grace period
	ErrTerminateTimeout = errors.New("worker did not stop within grace period")
)

// MessageKind identifies which terminal channel a message came from
type MessageKind string

const (
	MessageDone  MessageKind = "done"
	MessageError MessageKind = "error"
	MessageExit  MessageKind = "exit"
)

// Message is the single terminal report of a worker
type Message struct {
	JobID             string
	Kind              MessageKind
	Success           bool
	Password          string
	Attempts          int64
	ElapsedMs         int64
	AttemptsPerSecond float64
	Err               string
	ExitCode          int
}

// Input is everything a worker may read. It is copied on construction.
type Input struct {
	JobID      string
	Credential models.Credential
	Attack     attack.Config
}

// VerifierFactory builds the candidate verifier for a credential snapshot
type VerifierFactory func(cred models.Credential) (attack.Verifier, error)

// State is the lifecycle state of a worker
type State int

const (
	StateIdle State = iota
	StateRunning
	StateExited
)

// String returns a human-readable representation of the state
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateExited:
		return "exited"
	default:
		return "unknown"
	}
}

// Handle owns one worker goroutine
type Handle struct {
	input       Input
	newVerifier VerifierFactory

	ctx    context.Context
	cancel context.CancelFunc

	mu    sync.Mutex
	state State

	startOnce sync.Once
	emitOnce  sync.Once
	messages  chan Message
	exited    chan struct{}
}

// New prepares a worker without starting it
func New(input Input, newVerifier VerifierFactory) *Handle {
	ctx, cancel := context.WithCancel(context.Background())
	return &Handle{
		input:       copyInput(input),
		newVerifier: newVerifier,
		ctx:         ctx,
		cancel:      cancel,
		messages:    make(chan Message, 1),
		exited:      make(chan struct{}),
	}
}

func copyInput(in Input) Input {
	out := Input{JobID: in.JobID, Credential: in.Credential.Clone(), Attack: in.Attack}
	if rc, ok := in.Attack.(attack.RuleConfig); ok {
		rc.Rules = append([]string(nil), rc.Rules...)
		out.Attack = rc
	}
	return out
}

// JobID returns the id of the job the worker runs
func (h *Handle) JobID() string {
	return h.input.JobID
}

// State returns the current lifecycle state
func (h *Handle) State() State {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}

func (h *Handle) setState(s State) {
	h.mu.Lock()
	h.state = s
	h.mu.Unlock()
}

// Start launches the worker goroutine. Calling it more than once, or after
// Terminate, has no effect.
func (h *Handle) Start() {
	h.startOnce.Do(func() {
		h.setState(StateRunning)
		go h.run()
	})
}

// Messages delivers the terminal message. The channel is closed after it.
func (h *Handle) Messages() <-chan Message {
	return h.messages
}

// Done is closed once the worker goroutine has returned
func (h *Handle) Done() <-chan struct{} {
	return h.exited
}

// Terminate stops candidate generation and waits up to grace for the
// goroutine to return. A verification already in progress is allowed to
// finish. A worker that was never started is marked exited immediately.
func (h *Handle) Terminate(grace time.Duration) error {
	h.cancel()
	h.startOnce.Do(func() {
		h.setState(StateExited)
		h.emit(Message{JobID: h.input.JobID, Kind: MessageExit, ExitCode: 1})
		close(h.exited)
	})

	timer := time.NewTimer(grace)
	defer timer.Stop()
	select {
	case <-h.exited:
		return nil
	case <-timer.C:
		return fmt.Errorf("%w: job %s", ErrTerminateTimeout, h.input.JobID)
	}
}

func (h *Handle) emit(msg Message) {
	h.emitOnce.Do(func() {
		h.messages <- msg
		close(h.messages)
	})
}

func (h *Handle) run() {
	defer close(h.exited)
	defer h.setState(StateExited)
	defer func() {
		if r := recover(); r != nil {
			debug.Error("Worker for job %s panicked: %v", h.input.JobID, r)
			h.emit(Message{JobID: h.input.JobID, Kind: MessageExit, ExitCode: 1, Err: fmt.Sprint(r)})
		}
	}()

	start := time.Now()
	verifier, err := h.newVerifier(h.input.Credential)
	if err != nil {
		debug.Warning("Worker for job %s could not build verifier: %v", h.input.JobID, err)
		h.emit(Message{JobID: h.input.JobID, Kind: MessageError, Err: err.Error()})
		return
	}

	res, err := attack.Run(h.ctx, h.input.Attack, verifier)
	elapsed := time.Since(start)
	if err != nil {
		if h.ctx.Err() != nil {
			debug.Debug("Worker for job %s stopped after %d attempts", h.input.JobID, res.Attempts)
			h.emit(Message{JobID: h.input.JobID, Kind: MessageExit, ExitCode: 1, Attempts: res.Attempts})
			return
		}
		debug.Warning("Worker for job %s failed: %v", h.input.JobID, err)
		h.emit(Message{JobID: h.input.JobID, Kind: MessageError, Err: err.Error(), Attempts: res.Attempts})
		return
	}

	msg := Message{
		JobID:             h.input.JobID,
		Kind:              MessageDone,
		Success:           res.Success,
		Password:          res.Password,
		Attempts:          res.Attempts,
		ElapsedMs:         elapsed.Milliseconds(),
		AttemptsPerSecond: AttemptsPerSecond(res.Attempts, elapsed),
	}
	debug.Log("Worker finished", map[string]interface{}{
		"job_id":   h.input.JobID,
		"success":  res.Success,
		"attempts": res.Attempts,
	})
	h.emit(msg)
}

// AttemptsPerSecond returns throughput, or 0 when no time elapsed
func AttemptsPerSecond(attempts int64, elapsed time.Duration) float64 {
	if elapsed <= 0 {
		return 0
	}
	return float64(attempts) / elapsed.Seconds()
}
