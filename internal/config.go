package internal

import (
	"log/slog"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Config represents the application configuration.
type Config struct {
	App    ApplicationConfig `yaml:"app"`
	Tree   TreeConfig        `yaml:"tree"`
	Data   DataConfig        `yaml:"data"`
	SQLite SQLiteConfig      `yaml:"sqlite"`
	User   UserConfig        `yaml:"user"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.Tree.Validate(); err != nil {
		return err
	}
	if err := c.Data.Validate(); err != nil {
		return err
	}
	return c.SQLite.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
}

// TreeConfig holds the path to the client/project directory tree.
type TreeConfig struct {
	Root string `yaml:"root"`
}

// Validate validates the tree configuration.
func (c *TreeConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Root, validation.Required),
	)
}

// DataConfig holds the paths of the index units and templates.
type DataConfig struct {
	Dir       string `yaml:"dir"`
	Templates string `yaml:"templates"`
}

// Validate validates the data configuration.
func (c *DataConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Dir, validation.Required),
		validation.Field(&c.Templates, validation.Required),
	)
}

// SQLiteConfig holds the derived-index database configuration.
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the SQLite configuration.
func (c *SQLiteConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// UserConfig identifies the operator and their preferred viewer
// application. Both are optional: an empty name simply leaves events
// unattributed, and an empty viewer falls back to the platform opener.
type UserConfig struct {
	Name   string `yaml:"name"`
	Viewer string `yaml:"viewer"`
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
		},
		Tree: TreeConfig{
			Root: "./cases",
		},
		Data: DataConfig{
			Dir:       "./data",
			Templates: "./templates",
		},
		SQLite: SQLiteConfig{
			Path: "./othala.db",
		},
	}
}
