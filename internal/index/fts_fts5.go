//go:build sqlite_fts5

package index

import (
	"database/sql"
	"fmt"
)

func initFTS(conn *sql.DB) error {
	_, err := conn.Exec(`
		CREATE VIRTUAL TABLE IF NOT EXISTS logs_fts USING fts5(
			log_id UNINDEXED,
			case_id UNINDEXED,
			step,
			notes,
			tokenize = 'unicode61 remove_diacritics 2'
		);
	`)
	return err
}

func ftsUpsert(tx *sql.Tx, logID, caseID, step, notes string) error {
	_, _ = tx.Exec(`DELETE FROM logs_fts WHERE log_id = ?`, logID)
	_, err := tx.Exec(`INSERT INTO logs_fts (log_id, case_id, step, notes) VALUES (?, ?, ?, ?)`,
		logID, caseID, step, notes)
	if err != nil {
		return fmt.Errorf("index: upsert fts: %w", err)
	}
	return nil
}

func ftsDeleteCase(tx *sql.Tx, caseID string) {
	_, _ = tx.Exec(`DELETE FROM logs_fts WHERE case_id = ?`, caseID)
}

// SearchLogs performs an FTS5 full-text search over log steps and notes.
func (db *DB) SearchLogs(query string, limit int) ([]SearchHit, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.conn.Query(`
		SELECT case_id,
		       log_id,
		       step,
		       snippet(logs_fts, 3, '<b>', '</b>', '...', 64)
		FROM logs_fts
		WHERE logs_fts MATCH ?
		ORDER BY rank
		LIMIT ?
	`, query, limit)
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
