package routes

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/vuxuanquyet204/webantoan/internal/handlers/auth"
	"github.com/vuxuanquyet204/webantoan/internal/handlers/crack"
	"github.com/vuxuanquyet204/webantoan/internal/handlers/diagnostics"
	"github.com/vuxuanquyet204/webantoan/pkg/debug"
)

// NewRouter builds the full HTTP surface
func NewRouter(authHandler *auth.Handler, crackHandler *crack.Handler, logsHandler *diagnostics.LogsHandler) *mux.Router {
	r := mux.NewRouter()
	r.Use(corsMiddleware)
	r.Use(loggingMiddleware)

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods(http.MethodGet, http.MethodOptions)

	api := r.PathPrefix("/api").Subrouter()
	SetupAuthRoutes(api, authHandler)
	SetupCrackRoutes(api, crackHandler)
	SetupDebugRoutes(api, logsHandler)
	return r
}

// SetupAuthRoutes configures user registration and login
func SetupAuthRoutes(api *mux.Router, h *auth.Handler) {
	authRouter := api.PathPrefix("/auth").Subrouter()
	authRouter.HandleFunc("/register", h.Register).Methods(http.MethodPost, http.MethodOptions)
	authRouter.HandleFunc("/login", h.Login).Methods(http.MethodPost, http.MethodOptions)
	authRouter.HandleFunc("/users", h.ListUsers).Methods(http.MethodGet, http.MethodOptions)
	authRouter.HandleFunc("/users/{id:[0-9]+}", h.DeleteUser).Methods(http.MethodDelete, http.MethodOptions)
	debug.Info("Configured auth routes: /api/auth/*")
}

// SetupCrackRoutes configures job submission, control and stats
func SetupCrackRoutes(api *mux.Router, h *crack.Handler) {
	crackRouter := api.PathPrefix("/crack").Subrouter()
	crackRouter.HandleFunc("/wordlists", h.ListWordlists).Methods(http.MethodGet, http.MethodOptions)
	crackRouter.HandleFunc("/jobs", h.CreateJob).Methods(http.MethodPost, http.MethodOptions)
	crackRouter.HandleFunc("/jobs", h.ListJobs).Methods(http.MethodGet, http.MethodOptions)
	crackRouter.HandleFunc("/jobs", h.DeleteAllJobs).Methods(http.MethodDelete, http.MethodOptions)
	crackRouter.HandleFunc("/jobs/{id}", h.GetJob).Methods(http.MethodGet, http.MethodOptions)
	crackRouter.HandleFunc("/jobs/{id}", h.DeleteJob).Methods(http.MethodDelete, http.MethodOptions)
	crackRouter.HandleFunc("/jobs/{id}/cancel", h.CancelJob).Methods(http.MethodPost, http.MethodOptions)
	crackRouter.HandleFunc("/stats", h.GetStats).Methods(http.MethodGet, http.MethodOptions)
	crackRouter.HandleFunc("/potfile", h.GetPotfile).Methods(http.MethodGet, http.MethodOptions)
	crackRouter.HandleFunc("/ws", h.ServeEvents).Methods(http.MethodGet)
	debug.Info("Configured crack routes: /api/crack/*")
}

// SetupDebugRoutes exposes the in-memory log buffer
func SetupDebugRoutes(api *mux.Router, h *diagnostics.LogsHandler) {
	api.HandleFunc("/debug/logs", h.GetLogs).Methods(http.MethodGet, http.MethodOptions)
}

// corsMiddleware allows the browser dashboard to call the API and answers
// preflight requests
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// loggingMiddleware logs every request at debug level
func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/crack/ws" {
			// the websocket upgrade needs the original writer's Hijacker
			next.ServeHTTP(w, r)
			return
		}
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		debug.Debug("%s %s -> %d (%s)", r.Method, r.URL.Path, rec.status, time.Since(start))
	})
}
