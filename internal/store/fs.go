package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/vollan/othala/internal/apperr"
	"github.com/vollan/othala/internal/models"
)

// Unit file names inside the data directory.
const (
	clientsFile  = "clients.json"
	projectsFile = "projects.json"
	recentsFile  = "recents.json"
)

// FS implements Provider backed by the local file system. The index units
// live under dir; per-project metadata lives inside each project directory.
type FS struct {
	dir string // absolute path to the data directory
}

// NewFS creates a new FS provider rooted at the given data directory,
// creating it if needed.
func NewFS(dir string) (*FS, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("store: resolve data dir: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("store: create data dir: %w", err)
	}
	return &FS{dir: abs}, nil
}

// Clients loads the client mapping.
func (f *FS) Clients() (models.Clients, error) {
	clients := models.Clients{}
	if err := loadUnit(filepath.Join(f.dir, clientsFile), &clients); err != nil {
		return nil, err
	}
	return clients, nil
}

// SaveClients overwrites the client mapping.
func (f *FS) SaveClients(clients models.Clients) error {
	for id, c := range clients {
		if err := c.Validate(); err != nil {
			return fmt.Errorf("store: client %s: %w: %w", id, apperr.ErrInvalid, err)
		}
	}
	return writeUnit(filepath.Join(f.dir, clientsFile), clients)
}

// Projects loads the project mapping.
func (f *FS) Projects() (models.Projects, error) {
	projects := models.Projects{}
	if err := loadUnit(filepath.Join(f.dir, projectsFile), &projects); err != nil {
		return nil, err
	}
	return projects, nil
}

// SaveProjects overwrites the project mapping.
func (f *FS) SaveProjects(projects models.Projects) error {
	for id, p := range projects {
		if err := p.Validate(); err != nil {
			return fmt.Errorf("store: project %s: %w: %w", id, apperr.ErrInvalid, err)
		}
	}
	return writeUnit(filepath.Join(f.dir, projectsFile), projects)
}

// Recents loads the MRU step list.
func (f *FS) Recents() (*models.Recents, error) {
	recents := &models.Recents{Steps: []string{}}
	if err := loadUnit(filepath.Join(f.dir, recentsFile), recents); err != nil {
		return nil, err
	}
	return recents, nil
}

// SaveRecents overwrites the MRU step list.
func (f *FS) SaveRecents(recents *models.Recents) error {
	if err := recents.Validate(); err != nil {
		return fmt.Errorf("store: recents: %w: %w", apperr.ErrInvalid, err)
	}
	return writeUnit(filepath.Join(f.dir, recentsFile), recents)
}

// ProjectMeta loads the per-project metadata file, seeding a minimal
// record when the file does not exist yet.
func (f *FS) ProjectMeta(p *models.Project) (*models.ProjectMeta, error) {
	meta := &models.ProjectMeta{
		ID:        p.ID,
		ClientID:  p.ClientID,
		CreatedAt: p.CreatedAt,
		Status:    "open",
		Tags:      []string{},
		Template:  p.Template,
		Logs:      []models.LogEntry{},
	}
	if err := loadUnit(metaPath(p), meta); err != nil {
		return nil, err
	}
	return meta, nil
}

// SaveProjectMeta overwrites the per-project metadata file.
func (f *FS) SaveProjectMeta(p *models.Project, meta *models.ProjectMeta) error {
	if err := meta.Validate(); err != nil {
		return fmt.Errorf("store: meta %s: %w: %w", p.ID, apperr.ErrInvalid, err)
	}
	for i := range meta.Logs {
		if err := meta.Logs[i].Validate(); err != nil {
			return fmt.Errorf("store: meta %s log %d: %w: %w", p.ID, i, apperr.ErrInvalid, err)
		}
	}
	return writeUnit(metaPath(p), meta)
}

func metaPath(p *models.Project) string {
	return filepath.Join(p.Path, p.ID+".json")
}

// loadUnit reads a JSON unit into target. A missing file is not an error:
// the current (default) value of target is persisted and kept.
func loadUnit(path string, target any) error {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return writeUnit(path, target)
	}
	if err != nil {
		return fmt.Errorf("store: read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, target); err != nil {
		return fmt.Errorf("store: decode %s: %w", path, err)
	}
	return nil
}

// writeUnit atomically writes v as pretty-printed JSON: tmp file → fsync →
// rename. No partial write survives a crash.
func writeUnit(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("store: encode %s: %w", path, err)
	}
	data = append(data, '\n')

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("store: mkdir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".othala-tmp-*")
	if err != nil {
		return fmt.Errorf("store: create temp: %w", err)
	}
	tmpName := tmp.Name()

	// Clean up on any failure path.
	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("store: write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("store: fsync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("store: close temp: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("store: rename: %w", err)
	}
	success = true
	return nil
}
