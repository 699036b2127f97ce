package testutil

import (
	"journal/internal/journal"
	"journal/internal/store"
)

// TestEnv bundles a JournalService with the stubs it was built from.
type TestEnv struct {
	Service *journal.JournalService
	Store   *store.MemoryStore
	Clock   *StubClock
	IDs     *StubIDGenerator
	Logger  *RecordingLogger
}

// NewTestEnv creates an empty JournalService over an in-memory store, a
// FixedClock and a StubIDGenerator.
func NewTestEnv() *TestEnv {
	env := &TestEnv{
		Store:  NewTestStore(),
		Clock:  FixedClock(),
		IDs:    NewStubIDGenerator(),
		Logger: NewRecordingLogger(),
	}
	env.Service = journal.NewJournalService(env.Store, env.Logger, env.Clock, env.IDs)
	return env
}

// Reopen returns a fresh service over the same store, clock and ID
// generator, as a new process would see it before loading.
func (e *TestEnv) Reopen() *TestEnv {
	next := &TestEnv{
		Store:  e.Store,
		Clock:  e.Clock,
		IDs:    e.IDs,
		Logger: NewRecordingLogger(),
	}
	next.Service = journal.NewJournalService(next.Store, next.Logger, next.Clock, next.IDs)
	return next
}
