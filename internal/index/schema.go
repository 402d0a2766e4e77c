// Package index provides a SQLite index derived from the measurement
// ledger, with optional FTS5 search over patient, context, and notes.
// The ledger file stays the source of truth; the index is rebuildable.
package index

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

const coreSchemaSQL = `
CREATE TABLE IF NOT EXISTS measurements (
	seq                  INTEGER PRIMARY KEY,
	patient_id           TEXT NOT NULL DEFAULT '',
	taken_at             TEXT NOT NULL DEFAULT '',
	length_cm            REAL,
	width_cm             REAL,
	depth_cm             REAL,
	voided_volume_ml     REAL,
	context              TEXT NOT NULL DEFAULT '',
	notes                TEXT NOT NULL DEFAULT '',
	calculated_volume_ml REAL,
	source               TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_measurements_patient ON measurements(patient_id);

CREATE TABLE IF NOT EXISTS meta (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
`

// DB wraps a sql.DB with index-specific operations.
type DB struct {
	conn *sql.DB
}

// Open opens (or creates) the SQLite database and applies the schema.
func Open(dsn string) (*DB, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("index: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("index: ping: %w", err)
	}
	if _, err := conn.Exec(coreSchemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("index: apply core schema: %w", err)
	}
	if err := initFTS(conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("index: apply fts schema: %w", err)
	}
	return &DB{conn: conn}, nil
}

// Close closes the underlying database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}
