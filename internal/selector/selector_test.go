package selector

import (
	"fmt"
	"testing"
	"time"

	"github.com/vollan/othala/internal/models"
)

func TestClientPageInsertionOrder(t *testing.T) {
	base := time.Date(2025, 12, 1, 9, 0, 0, 0, time.UTC)
	clients := models.Clients{}
	for i := 0; i < 12; i++ {
		id := fmt.Sprintf("C%02d", i)
		clients[id] = &models.Client{ID: id, CreatedAt: base.Add(time.Duration(i) * time.Minute)}
	}

	p, ok := ClientPage(clients, 0)
	if !ok {
		t.Fatal("page 0 should exist")
	}
	if p.TotalPages != 2 {
		t.Errorf("TotalPages = %d, want 2", p.TotalPages)
	}
	if len(p.Items) != PageSize {
		t.Fatalf("page 0 size = %d, want %d", len(p.Items), PageSize)
	}
	if p.Items[0].ID != "C00" || p.Items[8].ID != "C08" {
		t.Errorf("unexpected order: first=%s last=%s", p.Items[0].ID, p.Items[8].ID)
	}

	p, ok = ClientPage(clients, 1)
	if !ok || len(p.Items) != 3 {
		t.Errorf("page 1 size = %d ok=%v, want 3 true", len(p.Items), ok)
	}
}

func TestClientPageOutOfRange(t *testing.T) {
	clients := models.Clients{"AFU": {ID: "AFU", CreatedAt: time.Now()}}
	if _, ok := ClientPage(clients, 1); ok {
		t.Error("page past the end should report no more")
	}
	if _, ok := ClientPage(clients, -1); ok {
		t.Error("negative page should report no more")
	}
}

func TestProjectPageRecencyOrder(t *testing.T) {
	base := time.Date(2025, 12, 1, 9, 0, 0, 0, time.UTC)
	projects := models.Projects{
		"old": {ID: "old", CreatedAt: base, LastOpened: base},
		// No LastOpened: falls back to CreatedAt, which is newest here.
		"fresh": {ID: "fresh", CreatedAt: base.Add(2 * time.Hour)},
		"mid":   {ID: "mid", CreatedAt: base, LastOpened: base.Add(time.Hour)},
	}

	p, ok := ProjectPage(projects, 0)
	if !ok {
		t.Fatal("page 0 should exist")
	}
	got := []string{p.Items[0].ID, p.Items[1].ID, p.Items[2].ID}
	want := []string{"fresh", "mid", "old"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order = %v, want %v", got, want)
		}
	}
}

func TestEmptyListingHasNoPages(t *testing.T) {
	p, ok := ProjectPage(models.Projects{}, 0)
	if ok || p.TotalPages != 0 {
		t.Errorf("empty listing: ok=%v total=%d", ok, p.TotalPages)
	}
}
