package config

import (
	"os"
	"path/filepath"
	"testing"
)

type testConfig struct {
	Name string `yaml:"name"`
	Port int    `yaml:"port"`
}

func TestLoadExpandsEnv(t *testing.T) {
	t.Setenv("TEST_CFG_NAME", "expanded")

	path := filepath.Join(t.TempDir(), "cfg.yaml")
	if err := os.WriteFile(path, []byte("name: ${TEST_CFG_NAME}\nport: 8080\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	var cfg testConfig
	if err := Load(path, &cfg); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Name != "expanded" || cfg.Port != 8080 {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestLoadMissingFile(t *testing.T) {
	var cfg testConfig
	if err := Load(filepath.Join(t.TempDir(), "absent.yaml"), &cfg); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoadOrInitWritesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "cfg.yaml")
	defaults := &testConfig{Name: "fresh", Port: 9000}

	var cfg testConfig
	if err := LoadOrInit(path, defaults, &cfg); err != nil {
		t.Fatalf("LoadOrInit: %v", err)
	}
	if cfg.Name != "fresh" || cfg.Port != 9000 {
		t.Errorf("cfg = %+v", cfg)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("default config not written: %v", err)
	}

	// A second call must read the file, not rewrite it.
	if err := os.WriteFile(path, []byte("name: edited\nport: 1\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	var again testConfig
	if err := LoadOrInit(path, defaults, &again); err != nil {
		t.Fatal(err)
	}
	if again.Name != "edited" {
		t.Errorf("edited config overwritten: %+v", again)
	}
}
