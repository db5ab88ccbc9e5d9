package logbuffer

import (
	"sort"
	"sync"
	"time"
)

const (
	// DefaultBufferSize is the default number of log entries to keep
	DefaultBufferSize = 1000
	// MaxEntrySize is the maximum size of a single message in bytes
	MaxEntrySize = 2048
)

// LogEntry is one buffered log line. Seq increases by one for every entry
// ever added, so pollers can ask for what they have not seen yet.
type LogEntry struct {
	Seq       uint64    `json:"seq"`
	Timestamp time.Time `json:"timestamp"`
	Level     string    `json:"level"`
	JobID     string    `json:"job_id,omitempty"`
	Message   string    `json:"message"`
	File      string    `json:"file"`
	Line      int       `json:"line"`
	Function  string    `json:"function"`
}

// Filter selects buffered entries. Zero fields match everything.
type Filter struct {
	Since    time.Time
	AfterSeq uint64
	JobID    string
	Level    string
}

func (f Filter) matches(e LogEntry) bool {
	if e.Timestamp.Before(f.Since) {
		return false
	}
	if f.JobID != "" && e.JobID != f.JobID {
		return false
	}
	return f.Level == "" || e.Level == f.Level
}

// Buffer keeps the most recent log entries in memory
type Buffer struct {
	mu      sync.RWMutex
	entries []LogEntry // seq order, may hold up to 2*limit before compaction
	limit   int
	lastSeq uint64
}

// New creates a Buffer; a non-positive capacity selects DefaultBufferSize
func New(capacity int) *Buffer {
	if capacity <= 0 {
		capacity = DefaultBufferSize
	}
	return &Buffer{
		entries: make([]LogEntry, 0, 2*capacity),
		limit:   capacity,
	}
}

// Add stamps the entry with the next sequence number and stores it,
// truncating oversized messages. It returns the assigned sequence number.
func (b *Buffer) Add(entry LogEntry) uint64 {
	if len(entry.Message) > MaxEntrySize {
		entry.Message = entry.Message[:MaxEntrySize-3] + "..."
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.lastSeq++
	entry.Seq = b.lastSeq
	if len(b.entries) == cap(b.entries) {
		n := copy(b.entries, b.entries[len(b.entries)-b.limit+1:])
		b.entries = b.entries[:n]
	}
	b.entries = append(b.entries, entry)
	return entry.Seq
}

// window returns the retained entries. Callers hold mu.
func (b *Buffer) window() []LogEntry {
	if len(b.entries) > b.limit {
		return b.entries[len(b.entries)-b.limit:]
	}
	return b.entries
}

// Find returns the retained entries matching f, oldest first
func (b *Buffer) Find(f Filter) []LogEntry {
	b.mu.RLock()
	defer b.mu.RUnlock()

	window := b.window()
	from := sort.Search(len(window), func(i int) bool { return window[i].Seq > f.AfterSeq })

	var result []LogEntry
	for _, entry := range window[from:] {
		if f.matches(entry) {
			result = append(result, entry)
		}
	}
	return result
}

// GetSince returns entries whose timestamp is not before since, oldest first
func (b *Buffer) GetSince(since time.Time) []LogEntry {
	return b.Find(Filter{Since: since})
}

// GetAll returns every retained entry in chronological order
func (b *Buffer) GetAll() []LogEntry {
	return b.Find(Filter{})
}

// Clear removes all entries. Sequence numbers keep increasing.
func (b *Buffer) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.entries = b.entries[:0]
}

// Count returns the number of retained entries
func (b *Buffer) Count() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.window())
}

// Capacity returns the maximum number of retained entries
func (b *Buffer) Capacity() int {
	return b.limit
}
