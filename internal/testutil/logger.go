package testutil

import (
	"log/slog"
	"sync"
)

// LogRecord is one call captured by RecordingLogger.
type LogRecord struct {
	Level slog.Level
	Msg   string
	Args  []any
}

// RecordingLogger keeps every record in memory so tests can assert on
// diagnostics. Safe for concurrent use.
type RecordingLogger struct {
	mu      sync.Mutex
	records []LogRecord
}

func NewRecordingLogger() *RecordingLogger {
	return &RecordingLogger{}
}

func (l *RecordingLogger) Debug(msg string, args ...any) { l.add(slog.LevelDebug, msg, args) }
func (l *RecordingLogger) Info(msg string, args ...any)  { l.add(slog.LevelInfo, msg, args) }
func (l *RecordingLogger) Warn(msg string, args ...any)  { l.add(slog.LevelWarn, msg, args) }
func (l *RecordingLogger) Error(msg string, args ...any) { l.add(slog.LevelError, msg, args) }

func (l *RecordingLogger) add(level slog.Level, msg string, args []any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.records = append(l.records, LogRecord{Level: level, Msg: msg, Args: args})
}

// Records returns the records logged at level or above.
func (l *RecordingLogger) Records(level slog.Level) []LogRecord {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []LogRecord
	for _, r := range l.records {
		if r.Level >= level {
			out = append(out, r)
		}
	}
	return out
}

// HasMessage reports whether msg was logged at exactly level.
func (l *RecordingLogger) HasMessage(level slog.Level, msg string) bool {
	for _, r := range l.Records(level) {
		if r.Level == level && r.Msg == msg {
			return true
		}
	}
	return false
}
