package index

import (
	"database/sql"
	"fmt"
	"time"
)

// CaseRow represents a row in the cases table.
type CaseRow struct {
	ID         string
	ClientID   string
	Path       string
	Template   string
	Status     string
	CreatedAt  time.Time
	LastOpened time.Time
}

// LogRow represents a row in the logs table.
type LogRow struct {
	LogID     string
	CaseID    string
	Timestamp time.Time
	User      string
	Step      string
	Notes     string
}

// SearchHit represents one log search result.
type SearchHit struct {
	CaseID  string
	LogID   string
	Step    string
	Snippet string
}

// UpsertCase inserts or replaces a case row.
func (db *DB) UpsertCase(c CaseRow) error {
	_, err := db.conn.Exec(`
		INSERT INTO cases (id, client_id, path, template, status, created_at, last_opened)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			client_id   = excluded.client_id,
			path        = excluded.path,
			template    = excluded.template,
			status      = excluded.status,
			created_at  = excluded.created_at,
			last_opened = excluded.last_opened
	`, c.ID, c.ClientID, c.Path, c.Template, c.Status, c.CreatedAt, c.LastOpened)
	if err != nil {
		return fmt.Errorf("index: upsert case: %w", err)
	}
	return nil
}

// DeleteCase removes a case row, its log rows, and their FTS entries.
func (db *DB) DeleteCase(id string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	ftsDeleteCase(tx, id)
	_, _ = tx.Exec(`DELETE FROM logs WHERE case_id = ?`, id)
	_, _ = tx.Exec(`DELETE FROM cases WHERE id = ?`, id)

	return tx.Commit()
}

// ReplaceLogs replaces every log row of a case within a transaction. The
// log sequence in the metadata file is append-only, so a full replace is
// simply the cheapest way to mirror it.
func (db *DB) ReplaceLogs(caseID string, logs []LogRow) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	ftsDeleteCase(tx, caseID)
	_, _ = tx.Exec(`DELETE FROM logs WHERE case_id = ?`, caseID)

	if len(logs) > 0 {
		stmt, err := tx.Prepare(`INSERT OR REPLACE INTO logs (log_id, case_id, ts, user, step, notes) VALUES (?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("index: prepare log insert: %w", err)
		}
		defer stmt.Close()
		for _, l := range logs {
			if _, err := stmt.Exec(l.LogID, caseID, l.Timestamp, l.User, l.Step, l.Notes); err != nil {
				return fmt.Errorf("index: insert log: %w", err)
			}
			if err := ftsUpsert(tx, l.LogID, caseID, l.Step, l.Notes); err != nil {
				return err
			}
		}
	}

	return tx.Commit()
}

// AllCaseIDs returns every indexed case id.
func (db *DB) AllCaseIDs() (map[string]struct{}, error) {
	rows, err := db.conn.Query(`SELECT id FROM cases`)
	if err != nil {
		return nil, fmt.Errorf("index: all case ids: %w", err)
	}
	defer rows.Close()
	out := make(map[string]struct{})
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out[id] = struct{}{}
	}
	return out, rows.Err()
}

// ListCases returns case rows sorted most recently opened first, with an
// optional client filter, plus the unfiltered-within-filter total.
func (db *DB) ListCases(clientID string, limit, offset int) ([]CaseRow, int, error) {
	if limit <= 0 {
		limit = 20
	}
	where := ""
	args := []any{}
	if clientID != "" {
		where = "WHERE client_id = ?"
		args = append(args, clientID)
	}

	var total int
	if err := db.conn.QueryRow(`SELECT COUNT(*) FROM cases `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("index: count cases: %w", err)
	}

	args = append(args, limit, offset)
	rows, err := db.conn.Query(`
		SELECT id, client_id, path, template, status, created_at, last_opened
		FROM cases `+where+`
		ORDER BY COALESCE(last_opened, created_at) DESC, id
		LIMIT ? OFFSET ?
	`, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("index: list cases: %w", err)
	}
	defer rows.Close()

	var out []CaseRow
	for rows.Next() {
		var c CaseRow
		var created, opened sql.NullTime
		if err := rows.Scan(&c.ID, &c.ClientID, &c.Path, &c.Template, &c.Status, &created, &opened); err != nil {
			return nil, 0, err
		}
		if created.Valid {
			c.CreatedAt = created.Time
		}
		if opened.Valid {
			c.LastOpened = opened.Time
		}
		out = append(out, c)
	}
	return out, total, rows.Err()
}
