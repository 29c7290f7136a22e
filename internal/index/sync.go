package index

import (
	"log/slog"
	"os"

	"github.com/vollan/othala/internal/models"
	"github.com/vollan/othala/internal/store"
)

// Sync brings the index in line with the authoritative JSON units:
//   - every project record is upserted, with its log rows mirrored from
//     the per-project metadata file
//   - index rows for projects no longer in the projects unit are removed
//
// Unlike filesystem reconciliation, removal is fine here: the index is
// derived state, never the record of truth.
func Sync(db *DB, s store.Provider, logger *slog.Logger) error {
	projects, err := s.Projects()
	if err != nil {
		return err
	}
	indexed, err := db.AllCaseIDs()
	if err != nil {
		return err
	}

	for id, p := range projects {
		row := CaseRow{
			ID:         p.ID,
			ClientID:   p.ClientID,
			Path:       p.Path,
			Template:   p.Template,
			CreatedAt:  p.CreatedAt,
			LastOpened: p.LastOpened,
		}

		// An orphan record may point at a directory that no longer
		// exists; reading its metadata would recreate the directory via
		// write-on-first-read, so skip the logs for those.
		if dirExists(p.Path) {
			meta, err := s.ProjectMeta(p)
			if err != nil {
				logger.Warn("sync: read meta failed", slog.String("project", id), slog.String("error", err.Error()))
			} else {
				row.Status = meta.Status
				if err := db.ReplaceLogs(id, logRows(id, meta.Logs)); err != nil {
					logger.Warn("sync: logs failed", slog.String("project", id), slog.String("error", err.Error()))
				}
			}
		}

		if err := db.UpsertCase(row); err != nil {
			logger.Warn("sync: upsert failed", slog.String("project", id), slog.String("error", err.Error()))
		} else {
			logger.Debug("sync: indexed", slog.String("project", id))
		}
	}

	// Remove stale entries.
	for id := range indexed {
		if _, ok := projects[id]; !ok {
			if err := db.DeleteCase(id); err != nil {
				logger.Warn("sync: delete failed", slog.String("project", id), slog.String("error", err.Error()))
			} else {
				logger.Debug("sync: removed stale", slog.String("project", id))
			}
		}
	}

	return nil
}

func logRows(caseID string, logs []models.LogEntry) []LogRow {
	rows := make([]LogRow, len(logs))
	for i, l := range logs {
		rows[i] = LogRow{
			LogID:     l.LogID,
			CaseID:    caseID,
			Timestamp: l.Timestamp,
			User:      l.User,
			Step:      l.Step,
			Notes:     l.Notes,
		}
	}
	return rows
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
