// Package models defines the persisted domain types for Othala.
package models

import (
	"regexp"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

var clientIDRe = regexp.MustCompile(`^[A-Z0-9]+$`)

// ValidClientID reports whether id satisfies the client id rules enforced
// at the store boundary: at least three characters, uppercase
// alphanumeric. Directory names that fail this can never become client
// records.
func ValidClientID(id string) bool {
	return len(id) >= 3 && clientIDRe.MatchString(id)
}

// Client represents one client of the studio. Clients own an ordered list
// of project ids; the order is chronological (oldest first).
type Client struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	Contact   string    `json:"contact"`
	Notes     string    `json:"notes"`
	Projects  []string  `json:"projects"`
	CreatedAt time.Time `json:"created_at"`
}

// Validate checks the client record at the store boundary.
func (c *Client) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.ID, validation.Required, validation.Length(3, 0), validation.Match(clientIDRe)),
		validation.Field(&c.Projects, validation.Each(validation.Required)),
	)
}

// HasProject reports whether pid is already listed under the client.
func (c *Client) HasProject(pid string) bool {
	for _, p := range c.Projects {
		if p == pid {
			return true
		}
	}
	return false
}

// Clients is the persisted client mapping, keyed by client id.
type Clients map[string]*Client
