package models

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Project is the index record for one project directory. The record lives
// in the projects unit; richer per-project state lives in ProjectMeta
// inside the project directory itself.
type Project struct {
	ID         string    `json:"id"`
	ClientID   string    `json:"client_id"`
	Path       string    `json:"path"`
	CreatedAt  time.Time `json:"created_at"`
	LastOpened time.Time `json:"last_opened"`
	Template   string    `json:"template"`
}

// Validate checks the project record at the store boundary.
func (p *Project) Validate() error {
	return validation.ValidateStruct(p,
		validation.Field(&p.ID, validation.Required),
		validation.Field(&p.ClientID, validation.Required),
		validation.Field(&p.Path, validation.Required),
		validation.Field(&p.CreatedAt, validation.Required),
	)
}

// Recency returns the timestamp projects are sorted by in "recent"
// listings: LastOpened when set, CreatedAt otherwise.
func (p *Project) Recency() time.Time {
	if !p.LastOpened.IsZero() {
		return p.LastOpened
	}
	return p.CreatedAt
}

// Projects is the persisted project mapping, keyed by project id.
type Projects map[string]*Project

// ProjectMeta is the per-project metadata file (<projectID>.json) stored
// inside the project directory. Its log sequence is append-only.
type ProjectMeta struct {
	ID          string     `json:"id"`
	ClientID    string     `json:"client_id"`
	CreatedAt   time.Time  `json:"created_at"`
	LastUpdated time.Time  `json:"last_updated"`
	CreatedBy   string     `json:"created_by"`
	Status      string     `json:"status"`
	Tags        []string   `json:"tags"`
	Template    string     `json:"template"`
	Protocol    string     `json:"protocol"`
	Logs        []LogEntry `json:"logs"`
}

// Validate checks the metadata record at the store boundary.
func (m *ProjectMeta) Validate() error {
	return validation.ValidateStruct(m,
		validation.Field(&m.ID, validation.Required),
		validation.Field(&m.ClientID, validation.Required),
	)
}
