package store

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"journal/internal/journal"
)

// FileSystemStore is a filesystem-based implementation of the journal.Store
// interface. Each partition is a directory holding its documents:
//
//	<root>/
//	  <project id>/
//	    project.json
//	    definition.json
//	    data.json
type FileSystemStore struct {
	root string
}

// NewFileSystemStore creates a store rooted at root, creating the directory
// if needed.
func NewFileSystemStore(root string) (*FileSystemStore, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("failed to create projects directory: %w", err)
	}
	return &FileSystemStore{root: root}, nil
}

// Root returns the directory the store reads from and writes to.
func (s *FileSystemStore) Root() string {
	return s.root
}

// ListPartitions returns the name of every directory under the root, sorted.
// Plain files are ignored.
func (s *FileSystemStore) ListPartitions() ([]string, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, fmt.Errorf("reading projects directory: %w", err)
	}

	var out []string
	for _, e := range entries {
		if e.IsDir() && !strings.HasPrefix(e.Name(), ".") {
			out = append(out, e.Name())
		}
	}
	slices.Sort(out)
	return out, nil
}

// ReadDocument reads <root>/<partition>/<name>.
func (s *FileSystemStore) ReadDocument(partition, name string) ([]byte, error) {
	path, err := s.documentPath(partition, name)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, journal.ErrDocumentNotFound
		}
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return data, nil
}

// WriteDocument replaces <root>/<partition>/<name> using an atomic write
// (temp file + rename).
func (s *FileSystemStore) WriteDocument(partition, name string, data []byte) error {
	path, err := s.documentPath(partition, name)
	if err != nil {
		return err
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create project directory: %w", err)
	}

	// Create temp file in the same directory to ensure atomic rename works
	tmpFile, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmpFile.Write(data); err != nil {
		tmpFile.Close()
		return fmt.Errorf("failed to write data: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	success = true
	return nil
}

func (s *FileSystemStore) documentPath(partition, name string) (string, error) {
	for _, part := range []string{partition, name} {
		if part == "" || part == "." || part == ".." || strings.ContainsAny(part, `/\`) {
			return "", fmt.Errorf("invalid document path component: %q", part)
		}
	}
	return filepath.Join(s.root, partition, name), nil
}

// Compile-time check that FileSystemStore implements journal.Store interface
var _ journal.Store = (*FileSystemStore)(nil)
