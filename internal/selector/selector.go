// Package selector presents index entries in stable, page-bounded order
// for the CLI to consume. Selection itself only yields identifiers; the
// caller owns any follow-up state change such as bumping LastOpened.
package selector

import (
	"sort"

	"github.com/vollan/othala/internal/models"
)

// PageSize is the fixed number of entries per page.
const PageSize = 9

// Item is one selectable row.
type Item struct {
	ID    string
	Label string
}

// Page is one page of a listing.
type Page struct {
	Items      []Item
	Index      int
	TotalPages int
}

// ClientPage returns page n of the clients in insertion order (oldest
// created first). The second return is false when the page is out of
// range; out-of-range pages are empty, never wrapped.
func ClientPage(clients models.Clients, n int) (Page, bool) {
	ordered := make([]*models.Client, 0, len(clients))
	for _, c := range clients {
		ordered = append(ordered, c)
	}
	sort.Slice(ordered, func(i, j int) bool {
		if !ordered[i].CreatedAt.Equal(ordered[j].CreatedAt) {
			return ordered[i].CreatedAt.Before(ordered[j].CreatedAt)
		}
		return ordered[i].ID < ordered[j].ID
	})

	items := make([]Item, len(ordered))
	for i, c := range ordered {
		items[i] = Item{ID: c.ID, Label: c.Name}
	}
	return page(items, n)
}

// ProjectPage returns page n of the projects sorted most recent first,
// by LastOpened with CreatedAt as fallback.
func ProjectPage(projects models.Projects, n int) (Page, bool) {
	ordered := make([]*models.Project, 0, len(projects))
	for _, p := range projects {
		ordered = append(ordered, p)
	}
	sort.Slice(ordered, func(i, j int) bool {
		ri, rj := ordered[i].Recency(), ordered[j].Recency()
		if !ri.Equal(rj) {
			return ri.After(rj)
		}
		return ordered[i].ID < ordered[j].ID
	})

	items := make([]Item, len(ordered))
	for i, p := range ordered {
		items[i] = Item{ID: p.ID, Label: p.ClientID}
	}
	return page(items, n)
}

// page slices items into page n. TotalPages is ceil(len/PageSize).
func page(items []Item, n int) (Page, bool) {
	total := (len(items) + PageSize - 1) / PageSize
	p := Page{Index: n, TotalPages: total}
	if n < 0 || n >= total {
		return p, false
	}
	start := n * PageSize
	end := start + PageSize
	if end > len(items) {
		end = len(items)
	}
	p.Items = items[start:end]
	return p, true
}
