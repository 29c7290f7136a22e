// Package importer copies an archive or directory of volume data into a
// project's DICOM area. It reports a structured result; the caller only
// records success into the activity log and never acts on failures.
package importer

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// DataDir is the per-project directory receiving imports.
const DataDir = "DICOM"

// Result failure reasons.
const (
	ReasonEmptyPath = "empty_path"
	ReasonZipError  = "zip_error"
	ReasonBadSource = "bad_source"
	ReasonCopyError = "copy_error"
)

// Result describes one import attempt.
type Result struct {
	OK     bool   `json:"ok"`
	Mode   string `json:"mode,omitempty"` // "zip" or "folder"
	Files  int    `json:"files,omitempty"`
	Dest   string `json:"dest,omitempty"`
	Reason string `json:"reason,omitempty"`
	Err    string `json:"error,omitempty"`
}

// Import copies source (a .zip file or a directory) into
// <projectPath>/DICOM/<timestamp>/.
func Import(projectPath, source string, now time.Time) Result {
	source = strings.TrimSpace(strings.Trim(source, `"`))
	if source == "" {
		return Result{OK: false, Reason: ReasonEmptyPath}
	}

	dest := filepath.Join(projectPath, DataDir, now.Format("20060102_150405"))
	if err := os.MkdirAll(dest, 0o755); err != nil {
		return Result{OK: false, Reason: ReasonCopyError, Err: err.Error()}
	}

	info, err := os.Stat(source)
	if err != nil {
		return Result{OK: false, Reason: ReasonBadSource, Err: err.Error()}
	}

	if !info.IsDir() && strings.EqualFold(filepath.Ext(source), ".zip") {
		count, err := extractZip(source, dest)
		if err != nil {
			return Result{OK: false, Reason: ReasonZipError, Err: err.Error()}
		}
		return Result{OK: true, Mode: "zip", Files: count, Dest: dest}
	}

	if info.IsDir() {
		count, err := copyTree(source, dest)
		if err != nil {
			return Result{OK: false, Reason: ReasonCopyError, Err: err.Error()}
		}
		return Result{OK: true, Mode: "folder", Files: count, Dest: dest}
	}

	return Result{OK: false, Reason: ReasonBadSource}
}

// extractZip unpacks the archive into dest, rejecting entries that would
// escape it, and returns the number of extracted files.
func extractZip(zipPath, dest string) (int, error) {
	r, err := zip.OpenReader(zipPath)
	if err != nil {
		return 0, err
	}
	defer r.Close()

	count := 0
	for _, f := range r.File {
		target := filepath.Join(dest, filepath.Clean(f.Name))
		if !strings.HasPrefix(target, dest+string(os.PathSeparator)) {
			return count, fmt.Errorf("importer: entry escapes destination: %s", f.Name)
		}
		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return count, err
			}
			continue
		}
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return count, err
		}
		if err := extractFile(f, target); err != nil {
			return count, err
		}
		count++
	}
	return count, nil
}

func extractFile(f *zip.File, target string) error {
	src, err := f.Open()
	if err != nil {
		return err
	}
	defer src.Close()
	dst, err := os.Create(target)
	if err != nil {
		return err
	}
	defer dst.Close()
	_, err = io.Copy(dst, src)
	return err
}

// copyTree mirrors srcDir into dest, copying only files not already
// present, and returns the number of files copied.
func copyTree(srcDir, dest string) (int, error) {
	copied := 0
	err := filepath.WalkDir(srcDir, func(p string, d os.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		rel, err := filepath.Rel(srcDir, p)
		if err != nil {
			return err
		}
		target := filepath.Join(dest, rel)
		if d.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		if _, err := os.Stat(target); err == nil {
			return nil
		}
		if err := copyFile(p, target); err != nil {
			return err
		}
		copied++
		return nil
	})
	return copied, err
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()
	_, err = io.Copy(out, in)
	return err
}
