package store

import (
	"database/sql"
	"fmt"

	"wasp/internal/logging"
)

// Schema versions:
// v1: contacts, audit_log, quarantine, canary_events tables
// v2: contacts.notes column (free-text admin notes)
const CurrentSchemaVersion = 2

// migration adds a single column to an existing table. Databases created
// before the column existed gain it in place; fresh databases already
// carry it from the CREATE TABLE statements.
type migration struct {
	table  string
	column string
	def    string
}

var pendingMigrations = []migration{
	{"contacts", "notes", "TEXT NOT NULL DEFAULT ''"},
	{"quarantine", "reviewed", "INTEGER NOT NULL DEFAULT 0"},
	{"canary_events", "verbs", "TEXT NOT NULL DEFAULT '[]'"},
}

// runMigrations applies column migrations for existing databases.
func runMigrations(db *sql.DB) error {
	timer := logging.StartTimer(logging.CategoryStore, "runMigrations")
	defer timer.Stop()

	applied := 0
	for _, m := range pendingMigrations {
		if !tableExists(db, m.table) {
			continue
		}
		if columnExists(db, m.table, m.column) {
			continue
		}
		stmt := fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", m.table, m.column, m.def)
		if _, err := db.Exec(stmt); err != nil {
			logging.Get(logging.CategoryStore).Warn("migration failed: %s.%s: %v", m.table, m.column, err)
			continue
		}
		applied++
		logging.Store("migration applied: added %s.%s", m.table, m.column)
	}

	logging.StoreDebug("schema migrations complete: applied=%d", applied)
	return nil
}

// columnExists checks for a column using PRAGMA table_info.
func columnExists(db *sql.DB, table, column string) bool {
	rows, err := db.Query(fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return false
	}
	defer rows.Close()

	for rows.Next() {
		var cid int
		var name, ctype string
		var notnull, pk int
		var dflt interface{}
		if err := rows.Scan(&cid, &name, &ctype, &notnull, &dflt, &pk); err != nil {
			continue
		}
		if name == column {
			return true
		}
	}
	return false
}

// tableExists checks sqlite_master for a table.
func tableExists(db *sql.DB, table string) bool {
	var count int
	query := "SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?"
	if err := db.QueryRow(query, table).Scan(&count); err != nil {
		return false
	}
	return count > 0
}
