// Package config provides calculator configuration: file loading (TOML or
// YAML), environment overrides, validation, and live reload watching.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Errors returned by configuration handling.
var (
	// ErrInvalidConfig indicates a configuration value violates its contract.
	ErrInvalidConfig = errors.New("invalid configuration")
)

// Config holds every tunable the calculator core reads. The core never
// parses configuration itself; it receives this value fully resolved.
type Config struct {
	// BaseDir is the root for history and log files.
	BaseDir string `toml:"base_dir" yaml:"base_dir"`

	// MaxHistorySize bounds the live calculation history.
	MaxHistorySize int `toml:"max_history_size" yaml:"max_history_size"`

	// AutoSave persists the history after every mutating operation.
	AutoSave bool `toml:"auto_save" yaml:"auto_save"`

	// Precision is the number of decimal places retained by inexact
	// operations (root).
	Precision int32 `toml:"precision" yaml:"precision"`

	// HistoryFile overrides the default history CSV path.
	HistoryFile string `toml:"history_file" yaml:"history_file"`

	// SnapshotFile overrides the default JSON snapshot path.
	SnapshotFile string `toml:"snapshot_file" yaml:"snapshot_file"`

	// LogFile overrides the default log path.
	LogFile string `toml:"log_file" yaml:"log_file"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `toml:"log_level" yaml:"log_level"`

	// PluginFile is an optional Lua file registering extra operations.
	PluginFile string `toml:"plugin_file" yaml:"plugin_file"`
}

// Default returns the default configuration rooted under dir.
// An empty dir resolves to ~/.reckon (falling back to the current directory
// when the home directory is unknown).
func Default(dir string) Config {
	if dir == "" {
		if home, err := os.UserHomeDir(); err == nil {
			dir = filepath.Join(home, ".reckon")
		} else {
			dir = "."
		}
	}
	return Config{
		BaseDir:        dir,
		MaxHistorySize: 1000,
		AutoSave:       true,
		Precision:      10,
		LogLevel:       "info",
	}
}

// HistoryPath returns the history CSV path, applying the default layout
// (<base>/history/calculator_history.csv) when no override is set.
func (c Config) HistoryPath() string {
	if c.HistoryFile != "" {
		return c.HistoryFile
	}
	return filepath.Join(c.BaseDir, "history", "calculator_history.csv")
}

// SnapshotPath returns the JSON snapshot path.
func (c Config) SnapshotPath() string {
	if c.SnapshotFile != "" {
		return c.SnapshotFile
	}
	return filepath.Join(c.BaseDir, "history", "calculator_snapshot.json")
}

// LogPath returns the log file path.
func (c Config) LogPath() string {
	if c.LogFile != "" {
		return c.LogFile
	}
	return filepath.Join(c.BaseDir, "logs", "calculator.log")
}

// Validate checks value contracts. It does not touch the filesystem.
func (c Config) Validate() error {
	if c.MaxHistorySize <= 0 {
		return fmt.Errorf("%w: max_history_size must be positive, got %d", ErrInvalidConfig, c.MaxHistorySize)
	}
	if c.Precision <= 0 {
		return fmt.Errorf("%w: precision must be positive, got %d", ErrInvalidConfig, c.Precision)
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%w: log_level %q (must be debug, info, warn, or error)", ErrInvalidConfig, c.LogLevel)
	}
	return nil
}

// EnsureDirs creates the directories the configured paths live in.
func (c Config) EnsureDirs() error {
	for _, path := range []string{c.HistoryPath(), c.SnapshotPath(), c.LogPath()} {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", filepath.Dir(path), err)
		}
	}
	return nil
}
