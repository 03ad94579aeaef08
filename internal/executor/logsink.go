package executor

import (
	"fmt"
	"sync"
	"time"
)

// DefaultLogRetention caps the execution log when no retention function
// is configured
const DefaultLogRetention = 1000

// LogLevel tags the severity of an execution log entry
type LogLevel string

// Execution log severities
const (
	LogInfo    LogLevel = "info"
	LogWarning LogLevel = "warning"
	LogError   LogLevel = "error"
)

// LogEntry is one line of the execution log
type LogEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Level     LogLevel  `json:"level"`
	Message   string    `json:"message"`
}

// LogSink is the bounded execution log surfaced to callers for live
// progress display. It is separate from operator telemetry: the sink is
// result data, the slog logger is not.
//
// The retention limit is read on every append, so a caller-supplied
// function can shrink or grow the cap mid-run. Exceeding it drops the
// oldest entries in bulk; the retained suffix keeps its relative order.
type LogSink struct {
	mu        sync.Mutex
	entries   []LogEntry
	retention func() int
}

// NewLogSink creates a log sink. A nil retention function means
// DefaultLogRetention.
func NewLogSink(retention func() int) *LogSink {
	return &LogSink{retention: retention}
}

// Append adds an entry, evicting the oldest entries when the sink is
// over its retention limit
func (s *LogSink) Append(level LogLevel, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = append(s.entries, LogEntry{
		Timestamp: time.Now(),
		Level:     level,
		Message:   message,
	})

	limit := DefaultLogRetention
	if s.retention != nil {
		if n := s.retention(); n > 0 {
			limit = n
		}
	}
	if len(s.entries) > limit {
		kept := make([]LogEntry, limit)
		copy(kept, s.entries[len(s.entries)-limit:])
		s.entries = kept
	}
}

// Appendf adds a formatted entry
func (s *LogSink) Appendf(level LogLevel, format string, args ...any) {
	s.Append(level, fmt.Sprintf(format, args...))
}

// Entries returns a copy of the retained entries, oldest first
func (s *LogSink) Entries() []LogEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]LogEntry, len(s.entries))
	copy(out, s.entries)
	return out
}

// Tail returns a copy of the newest n entries, oldest first
func (s *LogSink) Tail(n int) []LogEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	if n <= 0 || len(s.entries) == 0 {
		return nil
	}
	if n > len(s.entries) {
		n = len(s.entries)
	}
	out := make([]LogEntry, n)
	copy(out, s.entries[len(s.entries)-n:])
	return out
}

// Len returns the number of retained entries
func (s *LogSink) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Clear drops all entries
func (s *LogSink) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = nil
}
