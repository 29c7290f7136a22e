// Package store persists the index units (clients, projects, recents) and
// per-project metadata as independent JSON files. Each unit is loaded with
// write-on-first-read defaults and saved with an atomic full overwrite;
// there is no cross-unit transaction — the reconciler is the recovery path
// for inconsistency between units.
package store

import "github.com/vollan/othala/internal/models"

// Provider is the interface for persisted-unit operations. Consumers
// should depend on this interface rather than the concrete *FS type to
// facilitate testing with mocks.
type Provider interface {
	// Clients loads the client mapping, persisting an empty default if absent.
	Clients() (models.Clients, error)
	// SaveClients overwrites the client mapping after validating every record.
	SaveClients(models.Clients) error
	// Projects loads the project mapping, persisting an empty default if absent.
	Projects() (models.Projects, error)
	// SaveProjects overwrites the project mapping after validating every record.
	SaveProjects(models.Projects) error
	// Recents loads the MRU step list, persisting an empty default if absent.
	Recents() (*models.Recents, error)
	// SaveRecents overwrites the MRU step list.
	SaveRecents(*models.Recents) error
	// ProjectMeta loads <projectID>.json from the project directory,
	// persisting a minimal default if absent.
	ProjectMeta(*models.Project) (*models.ProjectMeta, error)
	// SaveProjectMeta overwrites the per-project metadata file.
	SaveProjectMeta(*models.Project, *models.ProjectMeta) error
}

// Verify *FS satisfies Provider at compile time.
var _ Provider = (*FS)(nil)
