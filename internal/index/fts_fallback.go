//go:build !sqlite_fts5

package index

import (
	"database/sql"
	"fmt"
)

func initFTS(_ *sql.DB) error {
	// FTS5 not available; log search uses a LIKE fallback on the logs table.
	return nil
}

func ftsUpsert(_ *sql.Tx, _, _, _, _ string) error {
	// Step and notes are already stored in the logs table; nothing extra to do.
	return nil
}

func ftsDeleteCase(_ *sql.Tx, _ string) {}

// SearchLogs performs a LIKE-based search (fallback when FTS5 is not compiled in).
func (db *DB) SearchLogs(query string, limit int) ([]SearchHit, error) {
	if limit <= 0 {
		limit = 20
	}
	like := "%" + query + "%"
	rows, err := db.conn.Query(`
		SELECT case_id, log_id, step, substr(notes, 1, 200)
		FROM logs
		WHERE step LIKE ? OR notes LIKE ?
		ORDER BY ts DESC
		LIMIT ?
	`, like, like, limit)
	if err != nil {
		return nil, fmt.Errorf("index: search: %w", err)
	}
	defer rows.Close()

	var out []SearchHit
	for rows.Next() {
		var h SearchHit
		if err := rows.Scan(&h.CaseID, &h.LogID, &h.Step, &h.Snippet); err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}
