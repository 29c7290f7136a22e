// Package logbook appends structured log entries to per-project metadata
// and maintains the most-recently-used step list. Log entries are
// append-only: they are never mutated or deleted once written.
package logbook

import (
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/vollan/othala/internal/identity"
	"github.com/vollan/othala/internal/models"
	"github.com/vollan/othala/internal/store"
)

// LogsDir is the per-project directory holding image folders.
const LogsDir = "logs"

// Service coordinates log writes against the store.
type Service struct {
	store store.Provider

	// Now and Rand are injectable for tests; both default in NewService.
	Now  func() time.Time
	Rand *rand.Rand
}

// NewService creates a logbook service over the given store.
func NewService(s store.Provider) *Service {
	return &Service{
		store: s,
		Now:   time.Now,
		Rand:  rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// AddLog appends a new entry to the project's log sequence, creates the
// entry's image folder, bumps LastUpdated, records the MRU step, and
// writes an activity line to the project's LOG.txt.
func (s *Service) AddLog(project *models.Project, user, step, notes string) (*models.LogEntry, error) {
	meta, err := s.store.ProjectMeta(project)
	if err != nil {
		return nil, err
	}

	now := s.Now()
	entry := models.LogEntry{
		LogID:     identity.LogID(now, s.Rand),
		Timestamp: now,
		User:      user,
		Step:      step,
		Notes:     notes,
		Images:    []string{},
	}

	if err := os.MkdirAll(imageDir(project.Path, entry.LogID), 0o755); err != nil {
		return nil, fmt.Errorf("logbook: create image folder: %w", err)
	}

	meta.Logs = append(meta.Logs, entry)
	meta.LastUpdated = now
	if err := s.store.SaveProjectMeta(project, meta); err != nil {
		return nil, err
	}

	if err := s.recordStep(step); err != nil {
		return nil, err
	}

	if err := AppendEvent(project.Path, "LOG", step, user, now); err != nil {
		return nil, err
	}
	return &entry, nil
}

// ReadLogs returns the project's log entries with Images recomputed from
// each entry's image folder. A missing folder yields empty Images; the
// entry itself is never discarded.
func (s *Service) ReadLogs(project *models.Project) ([]models.LogEntry, error) {
	meta, err := s.store.ProjectMeta(project)
	if err != nil {
		return nil, err
	}
	out := make([]models.LogEntry, len(meta.Logs))
	for i, entry := range meta.Logs {
		entry.Images = listImages(project.Path, entry.LogID)
		out[i] = entry
	}
	return out, nil
}

// recordStep pushes step onto the MRU list and persists it only when the
// list actually changed.
func (s *Service) recordStep(step string) error {
	recents, err := s.store.Recents()
	if err != nil {
		return err
	}
	if !recents.Push(step) {
		return nil
	}
	return s.store.SaveRecents(recents)
}

// imageDir is the <logID>_img folder convention under the logs directory.
func imageDir(projectPath, logID string) string {
	return filepath.Join(projectPath, LogsDir, logID+"_img")
}

func listImages(projectPath, logID string) []string {
	images := []string{}
	entries, err := os.ReadDir(imageDir(projectPath, logID))
	if err != nil {
		return images
	}
	for _, e := range entries {
		if !e.IsDir() {
			images = append(images, e.Name())
		}
	}
	return images
}
