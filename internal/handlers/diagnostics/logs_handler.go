package diagnostics

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/vuxuanquyet204/webantoan/internal/logbuffer"
	"github.com/vuxuanquyet204/webantoan/pkg/debug"
)

// LogsResponse is the buffered log view
type LogsResponse struct {
	Entries []logbuffer.LogEntry `json:"entries"`
	Count   int                  `json:"count"`
}

// LogsHandler exposes the in-memory log buffer
type LogsHandler struct{}

// NewLogsHandler creates a new logs handler
func NewLogsHandler() *LogsHandler {
	return &LogsHandler{}
}

// GetLogs handles GET /api/debug/logs?since=<RFC3339>&after=<seq>&job_id=<id>&level=<LEVEL>
func (h *LogsHandler) GetLogs(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter := logbuffer.Filter{
		JobID: query.Get("job_id"),
		Level: strings.ToUpper(query.Get("level")),
	}
	if s := query.Get("since"); s != "" {
		parsed, err := time.Parse(time.RFC3339, s)
		if err != nil {
			http.Error(w, "Invalid since parameter, expected RFC3339", http.StatusBadRequest)
			return
		}
		filter.Since = parsed
	}
	if s := query.Get("after"); s != "" {
		seq, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			http.Error(w, "Invalid after parameter, expected a sequence number", http.StatusBadRequest)
			return
		}
		filter.AfterSeq = seq
	}

	entries := debug.FindBufferedLogs(filter)
	if entries == nil {
		entries = []logbuffer.LogEntry{}
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(LogsResponse{Entries: entries, Count: len(entries)}); err != nil {
		debug.Error("Failed to encode log entries: %v", err)
	}
}
