// Package config provides YAML-based configuration loading with environment variable expansion.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Validator is an interface for configuration validation.
type Validator interface {
	Validate() error
}

// Load loads configuration from a YAML file with environment variable expansion.
func Load[T any](filename string, target *T) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", filename, err)
	}

	expandedData := os.ExpandEnv(string(data))

	if err := yaml.Unmarshal([]byte(expandedData), target); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", filename, err)
	}

	if validator, ok := any(target).(Validator); ok {
		if err := validator.Validate(); err != nil {
			return fmt.Errorf("config validation failed: %w", err)
		}
	}

	return nil
}

// LoadOrInit loads configuration from filename. When the file does not
// exist, defaults is marshaled to it first, so a fresh setup starts with
// an editable config on disk instead of an error.
func LoadOrInit[T any](filename string, defaults *T, target *T) error {
	if _, err := os.Stat(filename); errors.Is(err, os.ErrNotExist) {
		data, err := yaml.Marshal(defaults)
		if err != nil {
			return fmt.Errorf("failed to marshal default config: %w", err)
		}
		if dir := filepath.Dir(filename); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("failed to create config dir: %w", err)
			}
		}
		if err := os.WriteFile(filename, data, 0o644); err != nil {
			return fmt.Errorf("failed to write default config %s: %w", filename, err)
		}
	}
	return Load(filename, target)
}
