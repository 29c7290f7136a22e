package models

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// MaxRecents caps the most-recently-used step list.
const MaxRecents = 9

// LogEntry is one append-only entry in a project's log sequence. Images
// is derived from the entry's image folder at read time and is never
// authoritative in stored state.
type LogEntry struct {
	LogID     string    `json:"log_id"`
	Timestamp time.Time `json:"timestamp"`
	User      string    `json:"user"`
	Step      string    `json:"step"`
	Notes     string    `json:"notes"`
	Images    []string  `json:"images"`
}

// Validate checks the log entry at the store boundary.
func (e *LogEntry) Validate() error {
	return validation.ValidateStruct(e,
		validation.Field(&e.LogID, validation.Required),
		validation.Field(&e.Timestamp, validation.Required),
	)
}

// Recents is the persisted most-recently-used step list, front = newest.
// It is a data-entry accelerator, not authoritative state.
type Recents struct {
	Steps []string `json:"steps"`
}

// Validate enforces the cap; de-duplication is enforced on insert.
func (r *Recents) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Steps, validation.Length(0, MaxRecents)),
	)
}

// Push records step as most recently used. Empty steps and steps already
// cached are ignored; re-entering a cached step deliberately does not
// promote it. Oldest entries are evicted past the cap.
func (r *Recents) Push(step string) bool {
	if step == "" {
		return false
	}
	for _, s := range r.Steps {
		if s == step {
			return false
		}
	}
	r.Steps = append([]string{step}, r.Steps...)
	if len(r.Steps) > MaxRecents {
		r.Steps = r.Steps[:MaxRecents]
	}
	return true
}
