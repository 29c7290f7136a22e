// Package registry implements the client/project operations: creating
// clients and projects, opening projects, status updates, and volume
// imports. It coordinates the store, the scaffold templates, and the
// derived sqlite index.
package registry

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/vollan/othala/internal/apperr"
	"github.com/vollan/othala/internal/identity"
	"github.com/vollan/othala/internal/importer"
	"github.com/vollan/othala/internal/index"
	"github.com/vollan/othala/internal/logbook"
	"github.com/vollan/othala/internal/models"
	"github.com/vollan/othala/internal/scaffold"
	"github.com/vollan/othala/internal/store"
)

// DefaultType is the project type used when none is given.
const DefaultType = "X"

// Service coordinates the client/project lifecycle.
type Service struct {
	store     store.Provider
	db        index.CaseIndex
	templates *scaffold.Manager
	root      string
	user      string
	logger    *slog.Logger

	// Now is injectable for tests.
	Now func() time.Time
}

// NewService creates a registry service. root is the case-tree root; user
// is recorded as the author of created projects and events.
func NewService(s store.Provider, db index.CaseIndex, templates *scaffold.Manager, root, user string, logger *slog.Logger) *Service {
	return &Service{
		store:     s,
		db:        db,
		templates: templates,
		root:      root,
		user:      user,
		logger:    logger,
		Now:       time.Now,
	}
}

// NewClientParams carries the free-text fields of a new client.
type NewClientParams struct {
	Name    string
	ID      string // empty: suggest from name
	Email   string
	Phone   string
	Contact string
	Notes   string
}

// NewClient creates a client record and its directory under the root.
// An empty ID is filled in from the name initials; collisions with
// existing ids are rejected, not auto-suffixed, when the id was chosen
// explicitly.
func (s *Service) NewClient(p NewClientParams) (*models.Client, error) {
	if strings.TrimSpace(p.Name) == "" {
		return nil, fmt.Errorf("registry: client name required: %w", apperr.ErrInvalid)
	}

	clients, err := s.store.Clients()
	if err != nil {
		return nil, err
	}

	cid := strings.ToUpper(strings.TrimSpace(p.ID))
	if cid == "" {
		existing := make(map[string]struct{}, len(clients))
		for id := range clients {
			existing[id] = struct{}{}
		}
		cid = identity.SuggestClientID(p.Name, existing)
	}
	if len(cid) < 3 {
		return nil, fmt.Errorf("registry: client id %q too short: %w", cid, apperr.ErrInvalid)
	}
	if _, taken := clients[cid]; taken {
		return nil, fmt.Errorf("registry: client id %q: %w", cid, apperr.ErrAlreadyExists)
	}

	client := &models.Client{
		ID:        cid,
		Name:      strings.TrimSpace(p.Name),
		Email:     p.Email,
		Phone:     p.Phone,
		Contact:   p.Contact,
		Notes:     p.Notes,
		Projects:  []string{},
		CreatedAt: s.Now(),
	}
	clients[cid] = client
	if err := s.store.SaveClients(clients); err != nil {
		return nil, err
	}

	if err := os.MkdirAll(filepath.Join(s.root, cid), 0o755); err != nil {
		return nil, fmt.Errorf("registry: create client dir: %w", err)
	}
	s.logger.Info("client created", slog.String("id", cid))
	return client, nil
}

// NewProject creates a project for an existing client: id, directory,
// scaffold, metadata, and index records. overflow reports the soft limit
// of more than 9 same-day same-client projects; the project is created
// regardless.
func (s *Service) NewProject(clientID, typeLetter, idOverride string) (project *models.Project, overflow bool, err error) {
	clients, err := s.store.Clients()
	if err != nil {
		return nil, false, err
	}
	projects, err := s.store.Projects()
	if err != nil {
		return nil, false, err
	}

	client, ok := clients[clientID]
	if !ok {
		return nil, false, fmt.Errorf("registry: client %q: %w", clientID, apperr.ErrNotFound)
	}

	typeLetter = strings.ToUpper(strings.TrimSpace(typeLetter))
	if typeLetter == "" {
		typeLetter = DefaultType
	}

	now := s.Now()
	pid := strings.TrimSpace(idOverride)
	if pid == "" {
		pid, overflow = identity.ProjectID(clientID, client.Projects, typeLetter, now)
	}
	if _, taken := projects[pid]; taken {
		return nil, false, fmt.Errorf("registry: project id %q: %w", pid, apperr.ErrAlreadyExists)
	}

	path := filepath.Join(s.root, clientID, pid)
	if err := os.MkdirAll(filepath.Join(path, logbook.LogsDir), 0o755); err != nil {
		return nil, false, fmt.Errorf("registry: create project dir: %w", err)
	}
	if err := ensureProtocol(path); err != nil {
		return nil, false, err
	}

	project = &models.Project{
		ID:         pid,
		ClientID:   clientID,
		Path:       path,
		CreatedAt:  now,
		LastOpened: now,
		Template:   typeLetter,
	}

	meta, err := s.store.ProjectMeta(project)
	if err != nil {
		return nil, false, err
	}
	meta.CreatedBy = s.user
	meta.LastUpdated = now
	meta.Protocol = "protocol.json"
	if err := s.store.SaveProjectMeta(project, meta); err != nil {
		return nil, false, err
	}

	projects[pid] = project
	if err := s.store.SaveProjects(projects); err != nil {
		return nil, false, err
	}
	client.Projects = append(client.Projects, pid)
	if err := s.store.SaveClients(clients); err != nil {
		return nil, false, err
	}

	tpl, err := s.templates.Load(typeLetter)
	if err != nil {
		return nil, false, err
	}
	if err := scaffold.Init(path, pid, tpl); err != nil {
		return nil, false, err
	}

	if err := logbook.AppendEvent(path, "CREATED", pid, s.user, now); err != nil {
		return nil, false, err
	}

	s.indexProject(project, meta.Status)
	s.logger.Info("project created", slog.String("id", pid), slog.String("client", clientID))
	return project, overflow, nil
}

// OpenProject returns the project and bumps its LastOpened timestamp.
func (s *Service) OpenProject(pid string) (*models.Project, error) {
	projects, err := s.store.Projects()
	if err != nil {
		return nil, err
	}
	project, ok := projects[pid]
	if !ok {
		return nil, fmt.Errorf("registry: project %q: %w", pid, apperr.ErrNotFound)
	}
	project.LastOpened = s.Now()
	if err := s.store.SaveProjects(projects); err != nil {
		return nil, err
	}
	s.indexProject(project, "")
	return project, nil
}

// UpdateStatus sets the project's status and records a STATUS event.
func (s *Service) UpdateStatus(pid, status string) error {
	if strings.TrimSpace(status) == "" {
		return fmt.Errorf("registry: empty status: %w", apperr.ErrInvalid)
	}
	projects, err := s.store.Projects()
	if err != nil {
		return err
	}
	project, ok := projects[pid]
	if !ok {
		return fmt.Errorf("registry: project %q: %w", pid, apperr.ErrNotFound)
	}

	meta, err := s.store.ProjectMeta(project)
	if err != nil {
		return err
	}
	now := s.Now()
	meta.Status = status
	meta.LastUpdated = now
	if err := s.store.SaveProjectMeta(project, meta); err != nil {
		return err
	}
	if err := logbook.AppendEvent(project.Path, "STATUS", status, s.user, now); err != nil {
		return err
	}
	s.indexProject(project, status)
	return nil
}

// ImportVolume imports an archive or directory into the project's DICOM
// area. A successful import is recorded in the activity log; a failed one
// is only surfaced to the caller.
func (s *Service) ImportVolume(pid, source string) (importer.Result, error) {
	projects, err := s.store.Projects()
	if err != nil {
		return importer.Result{}, err
	}
	project, ok := projects[pid]
	if !ok {
		return importer.Result{}, fmt.Errorf("registry: project %q: %w", pid, apperr.ErrNotFound)
	}

	now := s.Now()
	res := importer.Import(project.Path, source, now)
	if res.OK {
		msg := fmt.Sprintf("Imported to %s", res.Dest)
		if err := logbook.AppendEvent(project.Path, "DICOM", msg, s.user, now); err != nil {
			return res, err
		}
	}
	return res, nil
}

// indexProject refreshes the derived index row; failures are logged and
// never fatal since the index is rebuildable.
func (s *Service) indexProject(p *models.Project, status string) {
	if s.db == nil {
		return
	}
	err := s.db.UpsertCase(index.CaseRow{
		ID:         p.ID,
		ClientID:   p.ClientID,
		Path:       p.Path,
		Template:   p.Template,
		Status:     status,
		CreatedAt:  p.CreatedAt,
		LastOpened: p.LastOpened,
	})
	if err != nil {
		s.logger.Warn("index refresh failed", slog.String("project", p.ID), slog.String("error", err.Error()))
	}
}

// ensureProtocol seeds the project's protocol file once.
func ensureProtocol(projectPath string) error {
	p := filepath.Join(projectPath, "protocol.json")
	if _, err := os.Stat(p); err == nil {
		return nil
	}
	data, err := json.MarshalIndent(map[string][]string{"steps": {}}, "", "  ")
	if err != nil {
		return fmt.Errorf("registry: encode protocol: %w", err)
	}
	if err := os.WriteFile(p, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("registry: write protocol: %w", err)
	}
	return nil
}
