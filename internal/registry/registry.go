// Package registry persists discovered works, authors, searches, cached
// BibTeX, fetch audit records, and citation keys in a single SQLite file.
//
// The store is the only shared mutable state in the system. It is written by
// independent CLI invocations, so the connection runs in WAL mode with a busy
// timeout: conflicting writers wait briefly instead of failing on first
// contention. Multi-step operations (work + authorship, search + ranked
// results) run inside one transaction.
package registry

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// Errors returned by the registry store.
var (
	// ErrNotInitialized indicates the schema has not been created yet.
	ErrNotInitialized = errors.New("registry schema is missing; run `init` first")

	// ErrWorkNotFound indicates the requested work is not in the registry.
	ErrWorkNotFound = errors.New("work not found in registry")
)

// Store is a handle to one registry database.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens (creating if necessary) the registry database at path. The
// schema is not created here; call Init for that.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("creating registry directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// SQLite doesn't support concurrent writes on one connection
	db.SetMaxOpenConns(1)

	pragmas := `
		PRAGMA foreign_keys = ON;
		PRAGMA journal_mode = WAL;
		PRAGMA synchronous = NORMAL;
		PRAGMA busy_timeout = 5000;
	`
	if _, err := db.Exec(pragmas); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting pragmas: %w", err)
	}

	return &Store{db: db, path: path}, nil
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Init creates the schema if needed and records the schema version. Safe to
// call repeatedly.
func (s *Store) Init() error {
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	_, err := s.db.Exec(
		`INSERT INTO schema_meta(key, value) VALUES('schema_version', ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		SchemaVersion,
	)
	if err != nil {
		return fmt.Errorf("recording schema version: %w", err)
	}
	return nil
}

// EnsureInitialized verifies the schema-version marker exists.
func (s *Store) EnsureInitialized() error {
	var version string
	err := s.db.QueryRow(`SELECT value FROM schema_meta WHERE key = 'schema_version'`).Scan(&version)
	if err == sql.ErrNoRows {
		return ErrNotInitialized
	}
	if err != nil {
		// A missing table means the schema was never created.
		if strings.Contains(err.Error(), "no such table") {
			return ErrNotInitialized
		}
		return fmt.Errorf("checking schema version: %w", err)
	}
	return nil
}

// withTx runs fn inside a transaction, committing on success.
func (s *Store) withTx(fn func(tx *sql.Tx) error) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// nowISO returns the canonical storage timestamp: UTC RFC 3339.
func nowISO() string {
	return time.Now().UTC().Format(time.RFC3339)
}

// hashHex returns the hex SHA-256 of data.
func hashHex(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// nullable maps "" to SQL NULL.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// isUniqueViolation reports whether err is a SQLite uniqueness violation.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
