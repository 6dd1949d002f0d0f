package logger

import (
	"sync"
	"time"
)

// LogEntry is one retained log line for the inspection endpoint.
type LogEntry struct {
	Timestamp time.Time              `json:"ts"`
	Level     string                 `json:"level"`
	Message   string                 `json:"message"`
	Fields    map[string]interface{} `json:"fields,omitempty"`
}

// LogRing keeps the most recent log entries in a fixed-size ring.
type LogRing struct {
	mu      sync.RWMutex
	entries []LogEntry
	next    int
	full    bool
}

// NewLogRing creates a ring holding at most capacity entries.
func NewLogRing(capacity int) *LogRing {
	if capacity <= 0 {
		capacity = 100
	}
	return &LogRing{entries: make([]LogEntry, capacity)}
}

func (r *LogRing) Add(level, msg string, fields map[string]interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[r.next] = LogEntry{
		Timestamp: time.Now(),
		Level:     level,
		Message:   msg,
		Fields:    fields,
	}
	r.next++
	if r.next == len(r.entries) {
		r.next = 0
		r.full = true
	}
}

// Recent returns up to limit entries, newest first.
func (r *LogRing) Recent(limit int) []LogEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n := r.next
	if r.full {
		n = len(r.entries)
	}
	if limit <= 0 || limit > n {
		limit = n
	}
	out := make([]LogEntry, 0, limit)
	for i := 0; i < limit; i++ {
		idx := r.next - 1 - i
		if idx < 0 {
			idx += len(r.entries)
		}
		out = append(out, r.entries[idx])
	}
	return out
}

// Len reports how many entries are retained.
func (r *LogRing) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.full {
		return len(r.entries)
	}
	return r.next
}
