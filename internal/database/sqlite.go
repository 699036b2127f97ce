package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"journal/internal/database/migrations"
	"journal/internal/journal"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// SQLiteStore implements journal.Store on a single documents table.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// NewSQLiteStore opens the database at path, migrates it to the latest
// schema and verifies the result. path can be a file path or ":memory:".
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := OpenConnection(path)
	if err != nil {
		return nil, err
	}
	if err := migrations.MigrateUp(db); err != nil {
		db.Close()
		return nil, err
	}
	if err := migrations.CheckDBMigrationStatus(db); err != nil {
		db.Close()
		return nil, err
	}
	return &SQLiteStore{db: db, path: path}, nil
}

// OpenConnection opens and configures a SQLite database connection with appropriate PRAGMAs.
// path can be a file path or ":memory:" for in-memory database.
func OpenConnection(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// The journal has a single writer, and every connection to ":memory:"
	// would otherwise see its own empty database.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to apply %q: %w", p, err)
		}
	}
	return db, nil
}

// ListPartitions returns every partition holding at least one document.
func (s *SQLiteStore) ListPartitions() ([]string, error) {
	rows, err := s.db.QueryContext(context.Background(),
		"SELECT DISTINCT partition FROM documents ORDER BY partition")
	if err != nil {
		return nil, fmt.Errorf("listing partitions: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, fmt.Errorf("scanning partition: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing partitions: %w", err)
	}
	return out, nil
}

func (s *SQLiteStore) ReadDocument(partition, name string) ([]byte, error) {
	var body []byte
	err := s.db.QueryRowContext(context.Background(),
		"SELECT body FROM documents WHERE partition = ? AND name = ?", partition, name).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, journal.ErrDocumentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reading document %s/%s: %w", partition, name, err)
	}
	return body, nil
}

func (s *SQLiteStore) WriteDocument(partition, name string, data []byte) error {
	_, err := s.db.ExecContext(context.Background(), `
		INSERT INTO documents (partition, name, body)
		VALUES (?, ?, ?)
		ON CONFLICT (partition, name) DO UPDATE SET
			body = excluded.body,
			updated_at = strftime('%Y-%m-%dT%H:%M:%fZ', 'now')`,
		partition, name, data)
	if err != nil {
		return fmt.Errorf("writing document %s/%s: %w", partition, name, err)
	}
	return nil
}

// Path returns the database file path.
func (s *SQLiteStore) Path() string {
	return s.path
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Compile-time check that SQLiteStore implements journal.Store interface
var _ journal.Store = (*SQLiteStore)(nil)
