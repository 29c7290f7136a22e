package importer

import (
	"archive/zip"
	"os"
	"path/filepath"
	"testing"
	"time"
)

var testNow = time.Date(2025, 12, 3, 14, 5, 9, 0, time.UTC)

func TestImportEmptyPath(t *testing.T) {
	r := Import(t.TempDir(), "  ", testNow)
	if r.OK || r.Reason != ReasonEmptyPath {
		t.Errorf("result = %+v", r)
	}
}

func TestImportMissingSource(t *testing.T) {
	r := Import(t.TempDir(), filepath.Join(t.TempDir(), "gone"), testNow)
	if r.OK || r.Reason != ReasonBadSource {
		t.Errorf("result = %+v", r)
	}
}

func TestImportFolder(t *testing.T) {
	src := t.TempDir()
	if err := os.MkdirAll(filepath.Join(src, "series1"), 0o755); err != nil {
		t.Fatal(err)
	}
	for _, f := range []string{"a.dcm", filepath.Join("series1", "b.dcm")} {
		if err := os.WriteFile(filepath.Join(src, f), []byte("data"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	project := t.TempDir()
	r := Import(project, src, testNow)
	if !r.OK || r.Mode != "folder" || r.Files != 2 {
		t.Fatalf("result = %+v", r)
	}
	wantDest := filepath.Join(project, DataDir, "20251203_140509")
	if r.Dest != wantDest {
		t.Errorf("dest = %q, want %q", r.Dest, wantDest)
	}
	if _, err := os.Stat(filepath.Join(r.Dest, "series1", "b.dcm")); err != nil {
		t.Errorf("copied file missing: %v", err)
	}
}

func TestImportZip(t *testing.T) {
	zipPath := filepath.Join(t.TempDir(), "scan.zip")
	f, err := os.Create(zipPath)
	if err != nil {
		t.Fatal(err)
	}
	zw := zip.NewWriter(f)
	for _, name := range []string{"a.dcm", "series1/b.dcm"} {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := w.Write([]byte("data")); err != nil {
			t.Fatal(err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}

	project := t.TempDir()
	r := Import(project, zipPath, testNow)
	if !r.OK || r.Mode != "zip" || r.Files != 2 {
		t.Fatalf("result = %+v", r)
	}
	if _, err := os.Stat(filepath.Join(r.Dest, "series1", "b.dcm")); err != nil {
		t.Errorf("extracted file missing: %v", err)
	}
}

func TestImportZipRejectsEscape(t *testing.T) {
	zipPath := filepath.Join(t.TempDir(), "evil.zip")
	f, err := os.Create(zipPath)
	if err != nil {
		t.Fatal(err)
	}
	zw := zip.NewWriter(f)
	w, err := zw.Create("../escape.txt")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := w.Write([]byte("x")); err != nil {
		t.Fatal(err)
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}

	r := Import(t.TempDir(), zipPath, testNow)
	if r.OK || r.Reason != ReasonZipError {
		t.Errorf("result = %+v", r)
	}
}
