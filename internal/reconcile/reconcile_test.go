package reconcile

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/vollan/othala/internal/models"
	"github.com/vollan/othala/internal/store"
)

var testNow = time.Date(2025, 12, 3, 9, 0, 0, 0, time.UTC)

func discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// Local helpers: this package cannot use testutil because the watcher in
// internal/index depends on reconcile.
func makeTree(t *testing.T, paths ...string) string {
	t.Helper()
	root := t.TempDir()
	for _, p := range paths {
		if err := os.MkdirAll(filepath.Join(root, p), 0o755); err != nil {
			t.Fatal(err)
		}
	}
	return root
}

func tempStore(t *testing.T) *store.FS {
	t.Helper()
	s, err := store.NewFS(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestScanDiscoversMissingEntries(t *testing.T) {
	root := makeTree(t, "AFU/PC03-AFU-PK1", "AFU/PC03-AFU-PK2", "BER/PC03-BER-X1")

	changes, err := Scan(root, models.Clients{}, models.Projects{}, testNow)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(changes.NewClients) != 2 {
		t.Errorf("new clients = %d, want 2", len(changes.NewClients))
	}
	if len(changes.NewProjects) != 3 {
		t.Errorf("new projects = %d, want 3", len(changes.NewProjects))
	}
	if len(changes.Memberships) != 3 {
		t.Errorf("memberships = %d, want 3", len(changes.Memberships))
	}
}

func TestScanSkipsStrayFiles(t *testing.T) {
	root := makeTree(t, "AFU/PC03-AFU-PK1")
	if err := os.WriteFile(filepath.Join(root, "README.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, "AFU", "notes.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	changes, err := Scan(root, models.Clients{}, models.Projects{}, testNow)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(changes.NewClients) != 1 || len(changes.NewProjects) != 1 {
		t.Errorf("stray files were not skipped: %+v", changes)
	}
}

func TestScanMissingRootIsNoop(t *testing.T) {
	changes, err := Scan(filepath.Join(t.TempDir(), "gone"), models.Clients{}, models.Projects{}, testNow)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if !changes.Empty() {
		t.Errorf("expected empty changes, got %+v", changes)
	}
}

func TestRunSkipsUnusableDirNames(t *testing.T) {
	root := makeTree(t, "ACM/PC03-ACM-PK1", "temp", "ab/PC03-AB-X1", ".cache")
	s := tempStore(t)

	changes, err := Run(s, root, testNow, discard())
	if err != nil {
		t.Fatalf("Run must not abort on unusable directory names: %v", err)
	}

	clients, err := s.Clients()
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := clients["ACM"]; !ok {
		t.Error("valid client was not persisted")
	}
	for _, bad := range []string{"temp", "ab", ".cache"} {
		if _, ok := clients[bad]; ok {
			t.Errorf("unusable name %q became a client record", bad)
		}
	}
	if !clients["ACM"].HasProject("PC03-ACM-PK1") {
		t.Error("membership of valid client was not healed")
	}
	if len(changes.Skipped) != 3 {
		t.Errorf("skipped = %v, want 3 entries", changes.Skipped)
	}
}

func TestRunIsIdempotent(t *testing.T) {
	root := makeTree(t, "AFU/PC03-AFU-PK1")
	s := tempStore(t)

	first, err := Run(s, root, testNow, discard())
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	if first.Empty() {
		t.Fatal("first run should propose additions")
	}

	second, err := Run(s, root, testNow.Add(time.Hour), discard())
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if !second.Empty() {
		t.Errorf("second run should be a no-op, got %+v", second)
	}
}

func TestRunNeverRemovesOrphans(t *testing.T) {
	root := makeTree(t, "AFU/PC03-AFU-PK1")
	s := tempStore(t)

	// Pre-seed a project whose directory does not exist anymore.
	orphan := &models.Project{
		ID:        "PB01-AFU-X1",
		ClientID:  "AFU",
		Path:      filepath.Join(root, "AFU", "PB01-AFU-X1"),
		CreatedAt: testNow.Add(-24 * time.Hour),
	}
	if err := s.SaveProjects(models.Projects{orphan.ID: orphan}); err != nil {
		t.Fatal(err)
	}

	if _, err := Run(s, root, testNow, discard()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	projects, err := s.Projects()
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := projects[orphan.ID]; !ok {
		t.Error("orphan project was removed by reconciliation")
	}
	if _, ok := projects["PC03-AFU-PK1"]; !ok {
		t.Error("discovered project was not added")
	}
}

func TestRunHealsMembership(t *testing.T) {
	root := makeTree(t, "AFU/PC03-AFU-PK1")
	s := tempStore(t)

	// Client exists but does not list the project; project record exists.
	client := &models.Client{ID: "AFU", Projects: []string{}, CreatedAt: testNow}
	project := &models.Project{
		ID:        "PC03-AFU-PK1",
		ClientID:  "AFU",
		Path:      filepath.Join(root, "AFU", "PC03-AFU-PK1"),
		CreatedAt: testNow,
	}
	if err := s.SaveClients(models.Clients{"AFU": client}); err != nil {
		t.Fatal(err)
	}
	if err := s.SaveProjects(models.Projects{project.ID: project}); err != nil {
		t.Fatal(err)
	}

	if _, err := Run(s, root, testNow, discard()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	clients, err := s.Clients()
	if err != nil {
		t.Fatal(err)
	}
	if !clients["AFU"].HasProject("PC03-AFU-PK1") {
		t.Error("membership was not healed")
	}

	projects, err := s.Projects()
	if err != nil {
		t.Fatal(err)
	}
	// The pre-existing record must be kept, not replaced by an inferred one.
	if !projects[project.ID].CreatedAt.Equal(testNow) {
		t.Errorf("existing project record was replaced: %+v", projects[project.ID])
	}
}
