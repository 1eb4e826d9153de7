// Package store implements the embedded relational store for the
// gateway: the contact whitelist, the append-only audit log, the
// quarantine queue, and injection telemetry. SQLite (modernc, pure Go)
// with WAL journaling; every mutating call is its own transaction and
// all queries are parameterized.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"wasp/internal/logging"
	"wasp/internal/types"
)

// DatabaseFileName is the single file kept inside the data directory.
const DatabaseFileName = "wasp.db"

// Store owns every persistent row. All other components consume
// read-only references to decision results.
type Store struct {
	db   *sql.DB
	mu   sync.RWMutex
	path string
}

// Open initializes the database inside dataDir, creating the directory,
// the file, and the schema as needed. Schema-ensure is idempotent; a
// re-open after Close is permitted.
func Open(dataDir string) (*Store, error) {
	if dataDir == "" {
		return nil, fmt.Errorf("%w: data directory required", types.ErrInvalidInput)
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: create data directory: %v", types.ErrStorageFailure, err)
	}

	path := filepath.Join(dataDir, DatabaseFileName)
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("%w: open database: %v", types.ErrStorageFailure, err)
	}

	// One connection keeps transaction interleaving off the table; the
	// driver serializes writers anyway and this store is not hot path.
	db.SetMaxOpenConns(1)

	s := &Store{db: db, path: path}
	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// OpenExisting opens the store only if it was previously initialized.
// Used by surfaces that must not silently create state (serve).
func OpenExisting(dataDir string) (*Store, error) {
	path := filepath.Join(dataDir, DatabaseFileName)
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s missing (run init first)", types.ErrNotInitialized, path)
		}
		return nil, fmt.Errorf("%w: stat database: %v", types.ErrStorageFailure, err)
	}
	return Open(dataDir)
}

// initialize applies pragmas and ensures the schema.
func (s *Store) initialize() error {
	timer := logging.StartTimer(logging.CategoryStore, "initialize")
	defer timer.Stop()

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
	}
	for _, p := range pragmas {
		if _, err := s.db.Exec(p); err != nil {
			return fmt.Errorf("%w: %s: %v", types.ErrStorageFailure, p, err)
		}
	}

	contactsTable := `
	CREATE TABLE IF NOT EXISTS contacts (
		identifier TEXT NOT NULL,
		platform   TEXT NOT NULL,
		trust      TEXT NOT NULL,
		name       TEXT NOT NULL DEFAULT '',
		notes      TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL,
		PRIMARY KEY (identifier, platform)
	);
	CREATE INDEX IF NOT EXISTS idx_contacts_created ON contacts(created_at);
	`

	auditTable := `
	CREATE TABLE IF NOT EXISTS audit_log (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		ts         TEXT NOT NULL,
		identifier TEXT NOT NULL,
		platform   TEXT NOT NULL,
		decision   TEXT NOT NULL,
		reason     TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_audit_ts ON audit_log(ts);
	CREATE INDEX IF NOT EXISTS idx_audit_decision ON audit_log(decision);
	`

	quarantineTable := `
	CREATE TABLE IF NOT EXISTS quarantine (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		identifier TEXT NOT NULL,
		platform   TEXT NOT NULL,
		preview    TEXT NOT NULL,
		body       TEXT NOT NULL,
		created_at TEXT NOT NULL,
		reviewed   INTEGER NOT NULL DEFAULT 0
	);
	CREATE INDEX IF NOT EXISTS idx_quarantine_sender ON quarantine(identifier, platform);
	CREATE INDEX IF NOT EXISTS idx_quarantine_reviewed ON quarantine(reviewed);
	`

	canaryTable := `
	CREATE TABLE IF NOT EXISTS canary_events (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		identifier TEXT NOT NULL,
		platform   TEXT NOT NULL,
		score      REAL NOT NULL,
		patterns   TEXT NOT NULL DEFAULT '[]',
		verbs      TEXT NOT NULL DEFAULT '[]',
		preview    TEXT NOT NULL,
		created_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_canary_sender ON canary_events(identifier, platform);
	CREATE INDEX IF NOT EXISTS idx_canary_created ON canary_events(created_at);
	`

	for _, table := range []string{contactsTable, auditTable, quarantineTable, canaryTable} {
		if _, err := s.db.Exec(table); err != nil {
			return fmt.Errorf("%w: create table: %v", types.ErrStorageFailure, err)
		}
	}

	if err := runMigrations(s.db); err != nil {
		return err
	}

	logging.Store("Store initialized at %s", s.path)
	return nil
}

// Close closes the database connection. The process never continues with
// a half-open handle; re-open via Open.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("%w: close: %v", types.ErrStorageFailure, err)
	}
	return nil
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// Stats returns per-table row counts.
func (s *Store) Stats() (map[string]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := make(map[string]int64)
	for _, table := range []string{"contacts", "audit_log", "quarantine", "canary_events"} {
		var count int64
		// Table names come from the fixed list above, never from callers.
		if err := s.db.QueryRow("SELECT COUNT(*) FROM " + table).Scan(&count); err != nil {
			return nil, fmt.Errorf("%w: count %s: %v", types.ErrStorageFailure, table, err)
		}
		stats[table] = count
	}
	return stats, nil
}

// now returns the canonical stored timestamp form: ISO-8601 UTC.
func now() string {
	return time.Now().UTC().Format(time.RFC3339)
}

// cutoff returns the stored-form timestamp for "days ago". RFC3339 UTC
// strings order lexicographically, so purges compare directly.
func cutoff(days int) string {
	return time.Now().UTC().AddDate(0, 0, -days).Format(time.RFC3339)
}

// parseTime reads a stored timestamp, tolerating the zero value.
func parseTime(raw string) time.Time {
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}
	}
	return t
}
