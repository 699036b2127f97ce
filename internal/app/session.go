package app

import "time"

// Session tracks one CLI invocation. Sessions start clean; only commands
// that change the repository mark them dirty, and only dirty, successful
// sessions write the repository back to the store on Close.
type Session struct {
	ID      string
	Command string
	Status  string // "success" or "error"
	dirty   bool
}

// NewSession creates a clean session for command, identified by its start time.
func NewSession(command string, started time.Time) *Session {
	return &Session{
		ID:      started.UTC().Format("20060102T150405Z"),
		Command: command,
		Status:  "success",
	}
}

// MarkDirty records that the repository changed during this session.
func (s *Session) MarkDirty() {
	s.dirty = true
}

// Fail records that a command of this session returned an error.
func (s *Session) Fail() {
	s.Status = "error"
}

// NeedsSave reports whether Close should write the repository back.
func (s *Session) NeedsSave() bool {
	return s.dirty && s.Status == "success"
}
