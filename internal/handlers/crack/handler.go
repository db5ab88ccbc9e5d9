package crack

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/vuxuanquyet204/webantoan/internal/models"
	"github.com/vuxuanquyet204/webantoan/internal/services"
	"github.com/vuxuanquyet204/webantoan/internal/wordlist"
	"github.com/vuxuanquyet204/webantoan/pkg/debug"
)

// JobService is the part of the crack service the handler drives
type JobService interface {
	Submit(ctx context.Context, req *models.CreateCrackJobRequest) (*models.CrackJob, error)
	Get(ctx context.Context, id string) (*models.CrackJob, error)
	List(ctx context.Context) ([]models.CrackJob, error)
	Cancel(ctx context.Context, id string) (*models.CrackJob, error)
	Delete(ctx context.Context, id string) (*models.CrackJob, error)
	DeleteAll(ctx context.Context) (int64, error)
}

// StatsProvider computes the aggregate stats view
type StatsProvider interface {
	GetStats(ctx context.Context) (*models.CrackStats, error)
}

// WordlistLister lists the wordlist catalog
type WordlistLister interface {
	List() []wordlist.Entry
}

// PotfileCounter reports how many recovered passwords are kept
type PotfileCounter interface {
	Count() int64
}

// APIError represents a standardized API error response
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// DeleteJobResponse is returned when a single job is removed
type DeleteJobResponse struct {
	Message string `json:"message"`
	ID      string `json:"id"`
}

// DeleteAllJobsResponse is returned by the bulk delete
type DeleteAllJobsResponse struct {
	Message      string `json:"message"`
	DeletedCount int64  `json:"deletedCount"`
}

// PotfileResponse reports the potfile size
type PotfileResponse struct {
	Entries int64 `json:"entries"`
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Handler serves the cracking endpoints
type Handler struct {
	jobs      JobService
	stats     StatsProvider
	wordlists WordlistLister
	potfile   PotfileCounter
	hub       *services.JobEventHub
}

// NewHandler creates a new crack handler. potfile and hub may be nil.
func NewHandler(jobs JobService, stats StatsProvider, wordlists WordlistLister, potfile PotfileCounter, hub *services.JobEventHub) *Handler {
	return &Handler{
		jobs:      jobs,
		stats:     stats,
		wordlists: wordlists,
		potfile:   potfile,
		hub:       hub,
	}
}

// CreateJob handles POST /api/crack/jobs
func (h *Handler) CreateJob(w http.ResponseWriter, r *http.Request) {
	var req models.CreateCrackJobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendError(w, "VALIDATION_ERROR", "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.UserID == 0 || req.AttackType == "" {
		sendError(w, "VALIDATION_ERROR", "Missing required fields", http.StatusBadRequest)
		return
	}

	job, err := h.jobs.Submit(r.Context(), &req)
	if err != nil {
		h.sendServiceError(w, "create job", err)
		return
	}
	sendJSON(w, http.StatusAccepted, job)
}

// ListJobs handles GET /api/crack/jobs
func (h *Handler) ListJobs(w http.ResponseWriter, r *http.Request) {
	jobs, err := h.jobs.List(r.Context())
	if err != nil {
		h.sendServiceError(w, "list jobs", err)
		return
	}
	if jobs == nil {
		jobs = []models.CrackJob{}
	}
	sendJSON(w, http.StatusOK, jobs)
}

// GetJob handles GET /api/crack/jobs/{id}
func (h *Handler) GetJob(w http.ResponseWriter, r *http.Request) {
	job, err := h.jobs.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.sendServiceError(w, "get job", err)
		return
	}
	sendJSON(w, http.StatusOK, job)
}

// CancelJob handles POST /api/crack/jobs/{id}/cancel
func (h *Handler) CancelJob(w http.ResponseWriter, r *http.Request) {
	job, err := h.jobs.Cancel(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.sendServiceError(w, "cancel job", err)
		return
	}
	sendJSON(w, http.StatusOK, job)
}

// DeleteJob handles DELETE /api/crack/jobs/{id}
func (h *Handler) DeleteJob(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	job, err := h.jobs.Delete(r.Context(), id)
	if err != nil {
		h.sendServiceError(w, "delete job", err)
		return
	}
	if job == nil {
		sendError(w, "NOT_FOUND", "Job not found", http.StatusNotFound)
		return
	}
	sendJSON(w, http.StatusOK, DeleteJobResponse{Message: "Job deleted successfully", ID: id})
}

// DeleteAllJobs handles DELETE /api/crack/jobs
func (h *Handler) DeleteAllJobs(w http.ResponseWriter, r *http.Request) {
	n, err := h.jobs.DeleteAll(r.Context())
	if err != nil {
		h.sendServiceError(w, "delete all jobs", err)
		return
	}
	sendJSON(w, http.StatusOK, DeleteAllJobsResponse{Message: "All jobs deleted successfully", DeletedCount: n})
}

// GetStats handles GET /api/crack/stats
func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.stats.GetStats(r.Context())
	if err != nil {
		h.sendServiceError(w, "get stats", err)
		return
	}
	sendJSON(w, http.StatusOK, stats)
}

// ListWordlists handles GET /api/crack/wordlists
func (h *Handler) ListWordlists(w http.ResponseWriter, r *http.Request) {
	sendJSON(w, http.StatusOK, h.wordlists.List())
}

// GetPotfile handles GET /api/crack/potfile
func (h *Handler) GetPotfile(w http.ResponseWriter, r *http.Request) {
	var resp PotfileResponse
	if h.potfile != nil {
		resp.Entries = h.potfile.Count()
	}
	sendJSON(w, http.StatusOK, resp)
}

// ServeEvents upgrades GET /api/crack/ws to the job event stream
func (h *Handler) ServeEvents(w http.ResponseWriter, r *http.Request) {
	if h.hub == nil {
		sendError(w, "NOT_FOUND", "Event stream disabled", http.StatusNotFound)
		return
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		debug.Error("Failed to upgrade WebSocket connection: %v", err)
		return
	}

	client := services.NewJobEventClient(h.hub, conn)
	h.hub.Register(client)

	go client.WritePump()
	go client.ReadPump()
}

// sendServiceError maps service errors onto HTTP responses
func (h *Handler) sendServiceError(w http.ResponseWriter, action string, err error) {
	switch {
	case errors.Is(err, services.ErrInvalidConfiguration), errors.Is(err, wordlist.ErrUnknownWordlist):
		sendError(w, "VALIDATION_ERROR", err.Error(), http.StatusBadRequest)
	case errors.Is(err, services.ErrUnknownUser), errors.Is(err, services.ErrNotFound):
		sendError(w, "NOT_FOUND", err.Error(), http.StatusNotFound)
	case errors.Is(err, services.ErrCapacityExceeded):
		sendError(w, "CAPACITY_EXCEEDED", err.Error(), http.StatusTooManyRequests)
	default:
		debug.Error("Failed to %s: %v", action, err)
		sendError(w, "INTERNAL_ERROR", "Internal server error", http.StatusInternalServerError)
	}
}

// sendError sends a standardized error response
func sendError(w http.ResponseWriter, code, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(APIError{
		Code:    code,
		Message: message,
	})
}

func sendJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		debug.Error("Failed to encode response: %v", err)
	}
}
