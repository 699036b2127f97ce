package database

import (
	"errors"
	"path/filepath"
	"slices"
	"testing"

	"journal/internal/journal"
)

// newTestStore creates a new in-memory store with the schema applied.
func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	s, err := NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() {
		s.Close()
	})
	return s
}

func TestSQLiteStore_ReadDocument(t *testing.T) {
	t.Run("returns ErrDocumentNotFound for missing document", func(t *testing.T) {
		s := newTestStore(t)

		_, err := s.ReadDocument("p1", journal.DataDocument)
		if !errors.Is(err, journal.ErrDocumentNotFound) {
			t.Errorf("ReadDocument() error = %v, want ErrDocumentNotFound", err)
		}
	})

	t.Run("returns written document", func(t *testing.T) {
		s := newTestStore(t)

		if err := s.WriteDocument("p1", journal.ProjectDocument, []byte(`{"name":"a"}`)); err != nil {
			t.Fatalf("WriteDocument() error = %v", err)
		}
		got, err := s.ReadDocument("p1", journal.ProjectDocument)
		if err != nil {
			t.Fatalf("ReadDocument() error = %v", err)
		}
		if string(got) != `{"name":"a"}` {
			t.Errorf("ReadDocument() = %q, want %q", got, `{"name":"a"}`)
		}
	})
}

func TestSQLiteStore_WriteDocument_Replaces(t *testing.T) {
	s := newTestStore(t)

	for _, body := range []string{"first", "second"} {
		if err := s.WriteDocument("p1", journal.DataDocument, []byte(body)); err != nil {
			t.Fatalf("WriteDocument(%q) error = %v", body, err)
		}
	}

	got, err := s.ReadDocument("p1", journal.DataDocument)
	if err != nil {
		t.Fatalf("ReadDocument() error = %v", err)
	}
	if string(got) != "second" {
		t.Errorf("ReadDocument() = %q, want %q", got, "second")
	}

	var count int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM documents").Scan(&count); err != nil {
		t.Fatalf("count query error = %v", err)
	}
	if count != 1 {
		t.Errorf("document rows = %d, want 1", count)
	}
}

func TestSQLiteStore_ListPartitions(t *testing.T) {
	s := newTestStore(t)

	got, err := s.ListPartitions()
	if err != nil {
		t.Fatalf("ListPartitions() error = %v", err)
	}
	if len(got) != 0 {
		t.Errorf("ListPartitions() on empty store = %v, want none", got)
	}

	writes := [][2]string{
		{"b", journal.ProjectDocument},
		{"a", journal.ProjectDocument},
		{"a", journal.DataDocument},
	}
	for _, w := range writes {
		if err := s.WriteDocument(w[0], w[1], []byte("{}")); err != nil {
			t.Fatalf("WriteDocument() error = %v", err)
		}
	}

	got, err = s.ListPartitions()
	if err != nil {
		t.Fatalf("ListPartitions() error = %v", err)
	}
	if want := []string{"a", "b"}; !slices.Equal(got, want) {
		t.Errorf("ListPartitions() = %v, want %v", got, want)
	}
}

func TestNewSQLiteStore_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "journal.db")

	s, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("NewSQLiteStore() error = %v", err)
	}
	if err := s.WriteDocument("p1", journal.ProjectDocument, []byte("{}")); err != nil {
		t.Fatalf("WriteDocument() error = %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	reopened, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("reopen NewSQLiteStore() error = %v", err)
	}
	defer reopened.Close()

	if reopened.Path() != path {
		t.Errorf("Path() = %q, want %q", reopened.Path(), path)
	}
	if _, err := reopened.ReadDocument("p1", journal.ProjectDocument); err != nil {
		t.Errorf("ReadDocument() after reopen error = %v", err)
	}
}
