// Package reconcile heals drift between the persisted index and the
// actual client/project directory tree. Scanning is pure and produces a
// set of proposed additions; Apply merges them into the store. The merge
// is additive only: records whose directories have vanished are kept.
package reconcile

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/vollan/othala/internal/models"
	"github.com/vollan/othala/internal/store"
)

// Membership records a project id missing from its client's project list.
type Membership struct {
	ClientID  string
	ProjectID string
}

// Changes holds the additions a scan proposes. Nothing is ever removed.
// Skipped lists directory names that cannot form a valid client id and
// were left alone; they never block the rest of the pass.
type Changes struct {
	NewClients  []*models.Client
	NewProjects []*models.Project
	Memberships []Membership
	Skipped     []string
}

// Empty reports whether applying the changes would be a no-op.
func (c *Changes) Empty() bool {
	return len(c.NewClients) == 0 && len(c.NewProjects) == 0 && len(c.Memberships) == 0
}

// Scan walks the immediate subdirectories of root (candidate clients) and
// their immediate subdirectories (candidate projects) and proposes the
// records and memberships missing from the given index state. Entries
// that are not directories are skipped. Scan performs no mutation.
func Scan(root string, clients models.Clients, projects models.Projects, now time.Time) (*Changes, error) {
	changes := &Changes{}
	if root == "" {
		return changes, nil
	}

	clientDirs, err := os.ReadDir(root)
	if os.IsNotExist(err) {
		return changes, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reconcile: read root: %w", err)
	}

	for _, cd := range clientDirs {
		if !cd.IsDir() {
			continue
		}
		cid := cd.Name()
		if !models.ValidClientID(cid) {
			changes.Skipped = append(changes.Skipped, cid)
			continue
		}

		// Effective membership: what the client lists now, plus what this
		// scan has already proposed for it.
		listed := make(map[string]struct{})
		if c, ok := clients[cid]; ok {
			for _, pid := range c.Projects {
				listed[pid] = struct{}{}
			}
		} else {
			changes.NewClients = append(changes.NewClients, &models.Client{
				ID:        cid,
				Projects:  []string{},
				CreatedAt: now,
			})
		}

		projectDirs, err := os.ReadDir(filepath.Join(root, cid))
		if err != nil {
			return nil, fmt.Errorf("reconcile: read client dir %s: %w", cid, err)
		}
		for _, pd := range projectDirs {
			if !pd.IsDir() {
				continue
			}
			pid := pd.Name()

			if _, ok := projects[pid]; !ok {
				changes.NewProjects = append(changes.NewProjects, &models.Project{
					ID:         pid,
					ClientID:   cid,
					Path:       filepath.Join(root, cid, pid),
					CreatedAt:  now,
					LastOpened: now,
				})
			}
			if _, ok := listed[pid]; !ok {
				changes.Memberships = append(changes.Memberships, Membership{ClientID: cid, ProjectID: pid})
				listed[pid] = struct{}{}
			}
		}
	}
	return changes, nil
}

// Apply merges the proposed additions into the in-memory index state and
// persists both units. Applying empty changes performs no write at all,
// which keeps repeated reconciliation of a consistent tree a no-op.
func Apply(s store.Provider, clients models.Clients, projects models.Projects, changes *Changes) error {
	if changes.Empty() {
		return nil
	}

	for _, c := range changes.NewClients {
		if _, ok := clients[c.ID]; !ok {
			clients[c.ID] = c
		}
	}
	for _, p := range changes.NewProjects {
		if _, ok := projects[p.ID]; !ok {
			projects[p.ID] = p
		}
	}
	for _, m := range changes.Memberships {
		c, ok := clients[m.ClientID]
		if !ok {
			continue
		}
		if !c.HasProject(m.ProjectID) {
			c.Projects = append(c.Projects, m.ProjectID)
		}
	}

	if err := s.SaveClients(clients); err != nil {
		return err
	}
	return s.SaveProjects(projects)
}

// Run is the convenience pass used at startup and by the watcher: load
// both units, scan, apply, and report what was added.
func Run(s store.Provider, root string, now time.Time, logger *slog.Logger) (*Changes, error) {
	clients, err := s.Clients()
	if err != nil {
		return nil, err
	}
	projects, err := s.Projects()
	if err != nil {
		return nil, err
	}
	changes, err := Scan(root, clients, projects, now)
	if err != nil {
		return nil, err
	}
	if err := Apply(s, clients, projects, changes); err != nil {
		return nil, err
	}
	if len(changes.Skipped) > 0 {
		logger.Warn("reconcile: skipped directories with unusable names",
			slog.Any("names", changes.Skipped))
	}
	if !changes.Empty() {
		logger.Info("reconcile: healed index",
			slog.Int("new_clients", len(changes.NewClients)),
			slog.Int("new_projects", len(changes.NewProjects)),
			slog.Int("memberships", len(changes.Memberships)))
	}
	return changes, nil
}
