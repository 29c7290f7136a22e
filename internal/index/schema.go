// Package index provides a SQLite-backed browse/search index over the
// project and log records, with optional FTS5 full-text search. The JSON
// units stay authoritative: the index is derived, disposable, and rebuilt
// by Sync at any time.
package index

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

const coreSchemaSQL = `
CREATE TABLE IF NOT EXISTS cases (
	id          TEXT PRIMARY KEY,
	client_id   TEXT NOT NULL,
	path        TEXT NOT NULL DEFAULT '',
	template    TEXT NOT NULL DEFAULT '',
	status      TEXT NOT NULL DEFAULT '',
	created_at  DATETIME,
	last_opened DATETIME
);

CREATE TABLE IF NOT EXISTS logs (
	log_id  TEXT PRIMARY KEY,
	case_id TEXT NOT NULL,
	ts      DATETIME,
	user    TEXT NOT NULL DEFAULT '',
	step    TEXT NOT NULL DEFAULT '',
	notes   TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_cases_client ON cases(client_id);
CREATE INDEX IF NOT EXISTS idx_logs_case ON logs(case_id);
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
