package config

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/goliatone/go-todo-cache/internal/cacheinfra"
	"gopkg.in/natefinch/lumberjack.v2"
)

var logLevels = map[string]slog.Level{
	"debug": slog.LevelDebug,
	"info":  slog.LevelInfo,
	"warn":  slog.LevelWarn,
	"error": slog.LevelError,
}

// LogConfig holds logging settings. An empty File logs to stderr.
type LogConfig struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
	Compress   bool   `yaml:"compress"`
}

// Validate checks the level name and rotation limits.
func (c LogConfig) Validate() error {
	if _, ok := logLevels[strings.ToLower(c.Level)]; !ok {
		return &cacheinfra.ConfigError{Field: "Log.Level", Message: "must be one of debug, info, warn, error"}
	}
	if c.MaxSizeMB < 0 || c.MaxBackups < 0 || c.MaxAgeDays < 0 {
		return &cacheinfra.ConfigError{Field: "Log", Message: "rotation limits must be non-negative"}
	}
	return nil
}

// SlogLevel returns the configured level, defaulting to info.
func (c LogConfig) SlogLevel() slog.Level {
	if level, ok := logLevels[strings.ToLower(c.Level)]; ok {
		return level
	}
	return slog.LevelInfo
}

// NewLogger builds a JSON logger writing to a rotated file, or a text logger
// on stderr when no file is configured. The returned closer releases the file.
func (c LogConfig) NewLogger() (*slog.Logger, io.Closer, error) {
	opts := &slog.HandlerOptions{Level: c.SlogLevel()}
	if c.File == "" {
		return slog.New(slog.NewTextHandler(os.Stderr, opts)), io.NopCloser(nil), nil
	}

	if err := os.MkdirAll(filepath.Dir(c.File), 0o755); err != nil {
		return nil, nil, err
	}
	out := &lumberjack.Logger{
		Filename:   c.File,
		MaxSize:    c.MaxSizeMB,
		MaxBackups: c.MaxBackups,
		MaxAge:     c.MaxAgeDays,
		Compress:   c.Compress,
	}
	return slog.New(slog.NewJSONHandler(out, opts)), out, nil
}
