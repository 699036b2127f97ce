package store

import (
	"slices"
	"sync"

	"journal/internal/journal"
)

// MemoryStore is an in-memory implementation of the journal.Store interface.
// It keeps every document in memory, making it useful for testing.
// This implementation is safe for concurrent use.
type MemoryStore struct {
	documents map[string]map[string][]byte // partition -> name -> content
	mu        sync.RWMutex
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		documents: make(map[string]map[string][]byte),
	}
}

// ListPartitions returns the partitions that hold at least one document, sorted.
func (m *MemoryStore) ListPartitions() ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]string, 0, len(m.documents))
	for p := range m.documents {
		out = append(out, p)
	}
	slices.Sort(out)
	return out, nil
}

// ReadDocument returns a copy of the named document.
func (m *MemoryStore) ReadDocument(partition, name string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	data, ok := m.documents[partition][name]
	if !ok {
		return nil, journal.ErrDocumentNotFound
	}
	return slices.Clone(data), nil
}

// WriteDocument stores a copy of data under partition/name.
func (m *MemoryStore) WriteDocument(partition, name string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	docs, ok := m.documents[partition]
	if !ok {
		docs = make(map[string][]byte)
		m.documents[partition] = docs
	}
	docs[name] = slices.Clone(data)
	return nil
}

// DeleteDocument removes a document. It is used by tests that simulate a
// partially written project.
func (m *MemoryStore) DeleteDocument(partition, name string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.documents[partition], name)
}

// Compile-time check that MemoryStore implements journal.Store interface
var _ journal.Store = (*MemoryStore)(nil)
