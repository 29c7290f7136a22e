// Package scaffold initializes the on-disk layout of a new project from a
// template. Initialization is idempotent: existing folders and files are
// left untouched, so re-running it against a live project is safe.
package scaffold

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Template describes a project layout. Templates are stored as
// <templatesDir>/<TYPE>.json and may be edited by the operator.
type Template struct {
	Name       string            `json:"name"`
	Subfolders []string          `json:"subfolders"`
	Files      map[string]string `json:"files"`
	// Assets are empty placeholder files, meant to be replaced with real
	// working files later.
	Assets []string `json:"assets,omitempty"`
	// WorkflowDirs are extra directories required by the type's workflow.
	WorkflowDirs []string `json:"workflow_dirs,omitempty"`
	// RenameAsset renames the first asset to <projectID><ext> on init.
	RenameAsset bool `json:"rename_asset,omitempty"`
}

var commonFolders = []string{"01_INBOX", "02_COMMS", "03_WORK", "04_EXPORTS", "05_ADMIN"}

var commonFiles = map[string]string{
	"LOG.txt": "LOG.txt\n\n",
	"PresetMessages.txt": "PresetMessages.txt\n\n" +
		"INTAKE (copy/paste):\n" +
		"Please provide the following information:\n" +
		"- Due date:\n" +
		"- Contact person:\n" +
		"- Case reference:\n",
}

// defaults are the built-in templates, keyed by type letter.
func defaults() map[string]*Template {
	base := func(name string, assets []string) *Template {
		return &Template{
			Name:       name,
			Subfolders: append([]string(nil), commonFolders...),
			Files:      commonFiles,
			Assets:     assets,
		}
	}
	pk := base("PEEK Case", []string{"PEEK.blend"})
	pk.WorkflowDirs = []string{
		"DICOM", "3DSlicer", "Blender",
		filepath.Join("Misc", "Reports"),
		filepath.Join("Misc", "Comms"),
		filepath.Join("Misc", "Refs"),
	}
	pk.RenameAsset = true
	return map[string]*Template{
		"X":  base("Default Project", []string{"Template.blend"}),
		"A":  base("Arduino Project", nil),
		"PK": pk,
	}
}

// Manager loads templates from a directory, seeding the built-in defaults
// on first use.
type Manager struct {
	dir string
}

// NewManager creates a template manager over dir, creating it if needed.
func NewManager(dir string) (*Manager, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("scaffold: create templates dir: %w", err)
	}
	return &Manager{dir: dir}, nil
}

// Ensure writes every built-in template file that does not exist yet.
// Operator-edited template files are never overwritten.
func (m *Manager) Ensure() error {
	for typ, t := range defaults() {
		p := m.path(typ)
		if _, err := os.Stat(p); err == nil {
			continue
		}
		data, err := json.MarshalIndent(t, "", "  ")
		if err != nil {
			return fmt.Errorf("scaffold: encode template %s: %w", typ, err)
		}
		if err := os.WriteFile(p, append(data, '\n'), 0o644); err != nil {
			return fmt.Errorf("scaffold: write template %s: %w", typ, err)
		}
	}
	return nil
}

// Load returns the template for a type letter, falling back to the
// default "X" template for unknown types.
func (m *Manager) Load(typeLetter string) (*Template, error) {
	typ := strings.ToUpper(typeLetter)
	data, err := os.ReadFile(m.path(typ))
	if os.IsNotExist(err) {
		if t, ok := defaults()[typ]; ok {
			return t, nil
		}
		return defaults()["X"], nil
	}
	if err != nil {
		return nil, fmt.Errorf("scaffold: read template %s: %w", typ, err)
	}
	t := &Template{}
	if err := json.Unmarshal(data, t); err != nil {
		return nil, fmt.Errorf("scaffold: decode template %s: %w", typ, err)
	}
	return t, nil
}

func (m *Manager) path(typ string) string {
	return filepath.Join(m.dir, typ+".json")
}

// Init applies the template to the project directory: subfolders,
// workflow dirs, seed files, and asset placeholders are created only when
// absent. When the template asks for it, the first asset is renamed to
// carry the project id.
func Init(projectPath, projectID string, t *Template) error {
	for _, dir := range append(append([]string{}, t.Subfolders...), t.WorkflowDirs...) {
		if err := os.MkdirAll(filepath.Join(projectPath, dir), 0o755); err != nil {
			return fmt.Errorf("scaffold: mkdir %s: %w", dir, err)
		}
	}
	for name, content := range t.Files {
		if err := ensureFile(filepath.Join(projectPath, name), content); err != nil {
			return err
		}
	}
	for i, asset := range t.Assets {
		if t.RenameAsset && i == 0 {
			// Once renamed to the project id, the placeholder must not
			// reappear on a re-run.
			dst := filepath.Join(projectPath, projectID+filepath.Ext(asset))
			if _, err := os.Stat(dst); err == nil {
				continue
			}
		}
		if err := ensureFile(filepath.Join(projectPath, asset), ""); err != nil {
			return err
		}
	}
	if t.RenameAsset && len(t.Assets) > 0 {
		if err := renameAsset(projectPath, projectID, t.Assets[0]); err != nil {
			return err
		}
	}
	return nil
}

// renameAsset renames <asset> to <projectID><ext> when the source exists
// and the target does not.
func renameAsset(projectPath, projectID, asset string) error {
	src := filepath.Join(projectPath, asset)
	dst := filepath.Join(projectPath, projectID+filepath.Ext(asset))
	if _, err := os.Stat(dst); err == nil {
		return nil
	}
	if _, err := os.Stat(src); err != nil {
		return nil
	}
	if err := os.Rename(src, dst); err != nil {
		return fmt.Errorf("scaffold: rename asset: %w", err)
	}
	return nil
}

func ensureFile(path, content string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("scaffold: write %s: %w", path, err)
	}
	return nil
}
