package registry

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/vollan/othala/internal/apperr"
	"github.com/vollan/othala/internal/scaffold"
	"github.com/vollan/othala/internal/store"
	"github.com/vollan/othala/internal/testutil"
)

func testService(t *testing.T) (*Service, *store.FS, string) {
	t.Helper()
	s := testutil.TestStore(t)
	templates, err := scaffold.NewManager(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	root := t.TempDir()

	svc := NewService(s, nil, templates, root, "lin", slog.New(slog.DiscardHandler))
	base := time.Date(2025, 12, 3, 9, 0, 0, 0, time.UTC)
	tick := 0
	svc.Now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Second)
	}
	return svc, s, root
}

func TestNewClientSuggestsAndCreatesDir(t *testing.T) {
	svc, s, root := testService(t)

	client, err := svc.NewClient(NewClientParams{Name: "Anna Fulton"})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	if client.ID != "AFN" {
		t.Errorf("suggested id = %q, want AFN", client.ID)
	}
	if info, err := os.Stat(filepath.Join(root, "AFN")); err != nil || !info.IsDir() {
		t.Errorf("client dir missing: %v", err)
	}

	clients, err := s.Clients()
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := clients["AFN"]; !ok {
		t.Error("client not persisted")
	}
}

func TestNewClientShortNameGetsPaddedID(t *testing.T) {
	svc, _, _ := testService(t)

	client, err := svc.NewClient(NewClientParams{Name: "Al"})
	if err != nil {
		t.Fatalf("NewClient with short name: %v", err)
	}
	if client.ID != "ALX" {
		t.Errorf("id = %q, want ALX", client.ID)
	}
}

func TestNewClientUniqueIDs(t *testing.T) {
	svc, _, _ := testService(t)

	a, err := svc.NewClient(NewClientParams{Name: "Anna Fulton"})
	if err != nil {
		t.Fatal(err)
	}
	b, err := svc.NewClient(NewClientParams{Name: "Arne Fahlin"})
	if err != nil {
		t.Fatal(err)
	}
	if a.ID == b.ID {
		t.Errorf("two clients share id %q", a.ID)
	}

	if _, err := svc.NewClient(NewClientParams{Name: "Copy Cat", ID: a.ID}); !errors.Is(err, apperr.ErrAlreadyExists) {
		t.Errorf("explicit duplicate id: err = %v", err)
	}
	if _, err := svc.NewClient(NewClientParams{Name: "Shorty", ID: "AB"}); !errors.Is(err, apperr.ErrInvalid) {
		t.Errorf("short id: err = %v", err)
	}
	if _, err := svc.NewClient(NewClientParams{Name: "   "}); !errors.Is(err, apperr.ErrInvalid) {
		t.Errorf("empty name: err = %v", err)
	}
}

func TestNewProjectEndToEnd(t *testing.T) {
	svc, s, root := testService(t)
	if _, err := svc.NewClient(NewClientParams{Name: "Anna", ID: "AFU"}); err != nil {
		t.Fatal(err)
	}

	p1, overflow, err := svc.NewProject("AFU", "PK", "")
	if err != nil {
		t.Fatalf("NewProject: %v", err)
	}
	if overflow {
		t.Error("unexpected overflow")
	}
	if p1.ID != "PC03-AFU-PK1" {
		t.Errorf("first id = %q, want PC03-AFU-PK1", p1.ID)
	}
	if p1.Path != filepath.Join(root, "AFU", "PC03-AFU-PK1") {
		t.Errorf("path = %q", p1.Path)
	}

	p2, _, err := svc.NewProject("AFU", "PK", "")
	if err != nil {
		t.Fatal(err)
	}
	if p2.ID != "PC03-AFU-PK2" {
		t.Errorf("second id = %q, want PC03-AFU-PK2", p2.ID)
	}

	// Scaffold, protocol, logs dir, metadata, membership.
	for _, f := range []string{"protocol.json", "logs", "01_INBOX", "LOG.txt", "DICOM"} {
		if _, err := os.Stat(filepath.Join(p1.Path, f)); err != nil {
			t.Errorf("missing %s: %v", f, err)
		}
	}
	meta, err := s.ProjectMeta(p1)
	if err != nil {
		t.Fatal(err)
	}
	if meta.CreatedBy != "lin" || meta.Status != "open" || meta.Protocol != "protocol.json" {
		t.Errorf("meta = %+v", meta)
	}
	clients, err := s.Clients()
	if err != nil {
		t.Fatal(err)
	}
	if !clients["AFU"].HasProject(p1.ID) || !clients["AFU"].HasProject(p2.ID) {
		t.Errorf("memberships = %v", clients["AFU"].Projects)
	}
}

func TestNewProjectUnknownClient(t *testing.T) {
	svc, _, _ := testService(t)
	if _, _, err := svc.NewProject("NOPE", "X", ""); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v", err)
	}
}

func TestNewProjectOverflowWarnsButProceeds(t *testing.T) {
	svc, _, _ := testService(t)
	if _, err := svc.NewClient(NewClientParams{Name: "Anna", ID: "AFU"}); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 9; i++ {
		if _, overflow, err := svc.NewProject("AFU", "PK", ""); err != nil || overflow {
			t.Fatalf("project %d: overflow=%v err=%v", i+1, overflow, err)
		}
	}
	p, overflow, err := svc.NewProject("AFU", "PK", "")
	if err != nil {
		t.Fatalf("tenth project: %v", err)
	}
	if !overflow {
		t.Error("expected overflow warning on tenth same-day project")
	}
	if p.ID != "PC03-AFU-PK10" {
		t.Errorf("id = %q", p.ID)
	}
}

func TestOpenProjectBumpsLastOpened(t *testing.T) {
	svc, s, _ := testService(t)
	if _, err := svc.NewClient(NewClientParams{Name: "Anna", ID: "AFU"}); err != nil {
		t.Fatal(err)
	}
	p, _, err := svc.NewProject("AFU", "X", "")
	if err != nil {
		t.Fatal(err)
	}
	before := p.LastOpened

	opened, err := svc.OpenProject(p.ID)
	if err != nil {
		t.Fatalf("OpenProject: %v", err)
	}
	if !opened.LastOpened.After(before) {
		t.Errorf("LastOpened not bumped: %v vs %v", opened.LastOpened, before)
	}

	projects, err := s.Projects()
	if err != nil {
		t.Fatal(err)
	}
	if !projects[p.ID].LastOpened.Equal(opened.LastOpened) {
		t.Error("bump not persisted")
	}

	if _, err := svc.OpenProject("NOPE"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v", err)
	}
}

func TestUpdateStatus(t *testing.T) {
	svc, s, _ := testService(t)
	if _, err := svc.NewClient(NewClientParams{Name: "Anna", ID: "AFU"}); err != nil {
		t.Fatal(err)
	}
	p, _, err := svc.NewProject("AFU", "X", "")
	if err != nil {
		t.Fatal(err)
	}

	if err := svc.UpdateStatus(p.ID, "review"); err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	meta, err := s.ProjectMeta(p)
	if err != nil {
		t.Fatal(err)
	}
	if meta.Status != "review" {
		t.Errorf("status = %q", meta.Status)
	}

	if err := svc.UpdateStatus(p.ID, "  "); !errors.Is(err, apperr.ErrInvalid) {
		t.Errorf("empty status: err = %v", err)
	}
}

func TestNewProjectRefreshesIndex(t *testing.T) {
	svc, _, _ := testService(t)
	svc.db = testutil.TestDB(t)

	if _, err := svc.NewClient(NewClientParams{Name: "Anna", ID: "AFU"}); err != nil {
		t.Fatal(err)
	}
	p, _, err := svc.NewProject("AFU", "PK", "")
	if err != nil {
		t.Fatal(err)
	}

	rows, total, err := svc.db.ListCases("AFU", 10, 0)
	if err != nil {
		t.Fatal(err)
	}
	if total != 1 || len(rows) != 1 || rows[0].ID != p.ID {
		t.Errorf("index rows = %+v (total %d)", rows, total)
	}
}

func TestImportVolumeRecordsSuccessOnly(t *testing.T) {
	svc, _, _ := testService(t)
	if _, err := svc.NewClient(NewClientParams{Name: "Anna", ID: "AFU"}); err != nil {
		t.Fatal(err)
	}
	p, _, err := svc.NewProject("AFU", "PK", "")
	if err != nil {
		t.Fatal(err)
	}

	res, err := svc.ImportVolume(p.ID, "")
	if err != nil {
		t.Fatalf("ImportVolume: %v", err)
	}
	if res.OK {
		t.Errorf("empty source should fail: %+v", res)
	}

	src := t.TempDir()
	if err := os.WriteFile(filepath.Join(src, "a.dcm"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	res, err = svc.ImportVolume(p.ID, src)
	if err != nil {
		t.Fatal(err)
	}
	if !res.OK || res.Files != 1 {
		t.Errorf("result = %+v", res)
	}
}
