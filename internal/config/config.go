// Package config loads the application configuration from YAML.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/goliatone/go-todo-cache/cache"
	"github.com/goliatone/go-todo-cache/internal/cacheinfra"
	"github.com/goliatone/go-todo-cache/todo"
	"gopkg.in/yaml.v3"
)

// AppName names the XDG subdirectories.
const AppName = "todo-cache"

// Config is the application configuration.
type Config struct {
	Database  DatabaseConfig  `yaml:"database"`
	State     StateConfig     `yaml:"state"`
	Log       LogConfig       `yaml:"log"`
	Cache     cache.Config    `yaml:"cache"`
	Lists     ListsConfig     `yaml:"lists"`
	Mutations MutationsConfig `yaml:"mutations"`
}

// DatabaseConfig holds the SQLite settings.
type DatabaseConfig struct {
	Path       string `yaml:"path"`
	LogQueries bool   `yaml:"log_queries"`
}

// StateConfig holds the location of the persisted UI state.
type StateConfig struct {
	Dir string `yaml:"dir"`
}

// ListsConfig holds list screen settings.
type ListsConfig struct {
	RecentLimit int `yaml:"recent_limit"`
}

// MutationsConfig holds mutation executor settings.
type MutationsConfig struct {
	// SerializePerKey runs mutations on the same cache key one at a time.
	SerializePerKey bool `yaml:"serialize_per_key"`
}

// Default returns a Config with every field set.
func Default() Config {
	dataDir := filepath.Join(DataDir(), AppName)
	return Config{
		Database: DatabaseConfig{
			Path: filepath.Join(dataDir, "todo.db"),
		},
		State: StateConfig{
			Dir: dataDir,
		},
		Log: LogConfig{
			Level:      "info",
			File:       filepath.Join(CacheDir(), AppName, "todo.log"),
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
		Cache: cache.DefaultConfig(),
		Lists: ListsConfig{
			RecentLimit: 3,
		},
	}
}

// DefaultPath is the config file used when none is given.
func DefaultPath() string {
	return filepath.Join(ConfigDir(), AppName, "config.yaml")
}

// Load reads the YAML file at path on top of Default. An empty path uses
// DefaultPath, and a missing file yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		path = DefaultPath()
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("invalid YAML in config file: %w", err)
	}

	cfg.Database.Path = ExpandPath(cfg.Database.Path)
	cfg.State.Dir = ExpandPath(cfg.State.Dir)
	cfg.Log.File = ExpandPath(cfg.Log.File)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the configuration. Errors are *cacheinfra.ConfigError.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Database.Path) == "" {
		return &cacheinfra.ConfigError{Field: "Database.Path", Message: "is required"}
	}
	if strings.TrimSpace(c.State.Dir) == "" {
		return &cacheinfra.ConfigError{Field: "State.Dir", Message: "is required"}
	}
	if c.Lists.RecentLimit < 1 || c.Lists.RecentLimit > todo.MaxRecentLimit {
		return &cacheinfra.ConfigError{
			Field:   "Lists.RecentLimit",
			Message: fmt.Sprintf("must be between 1 and %d", todo.MaxRecentLimit),
		}
	}
	if err := c.Log.Validate(); err != nil {
		return err
	}
	return c.Cache.Validate()
}

// ConfigDir returns the XDG config directory.
func ConfigDir() string {
	return xdgDir("XDG_CONFIG_HOME", ".config")
}

// DataDir returns the XDG data directory.
func DataDir() string {
	return xdgDir("XDG_DATA_HOME", filepath.Join(".local", "share"))
}

// CacheDir returns the XDG cache directory.
func CacheDir() string {
	return xdgDir("XDG_CACHE_HOME", ".cache")
}

func xdgDir(env, fallback string) string {
	if dir := os.Getenv(env); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return fallback
	}
	return filepath.Join(home, fallback)
}

// ExpandPath expands a leading ~/ and environment variables.
func ExpandPath(path string) string {
	if path == "" {
		return path
	}
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, path[2:])
		}
	}
	return os.ExpandEnv(path)
}
