package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix for environment variable overrides.
const EnvPrefix = "RECKON_"

// Load resolves the configuration: defaults, then the config file (if any),
// then environment overrides, then validation.
// A missing config file is not an error; an unparseable one is.
func Load(path string) (Config, error) {
	cfg := Default("")

	if path != "" {
		loaded, err := loadFile(path, &cfg)
		if err != nil {
			return Config{}, err
		}
		if !loaded {
			// An explicitly named file that does not exist is a mistake
			// worth surfacing.
			return Config{}, fmt.Errorf("config file %s does not exist", path)
		}
	} else {
		// Look for a config file in the default location, either format.
		for _, candidate := range []string{
			filepath.Join(cfg.BaseDir, "config.toml"),
			filepath.Join(cfg.BaseDir, "config.yaml"),
		} {
			loaded, err := loadFile(candidate, &cfg)
			if err != nil {
				return Config{}, err
			}
			if loaded {
				break
			}
		}
	}

	applyEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// loadFile unmarshals path into cfg, choosing the codec by extension.
// Returns false when the file does not exist.
func loadFile(path string, cfg *Config) (bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("reading config file %s: %w", path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if err := toml.Unmarshal(data, cfg); err != nil {
			return false, fmt.Errorf("parsing %s: %w", path, err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return false, fmt.Errorf("parsing %s: %w", path, err)
		}
	default:
		return false, fmt.Errorf("config file %s: unsupported format %q", path, filepath.Ext(path))
	}
	return true, nil
}

// applyEnv overlays RECKON_* environment variables onto cfg.
// Unset variables leave the existing value alone; empty values count as set.
func applyEnv(cfg *Config) {
	if v, ok := os.LookupEnv(EnvPrefix + "BASE_DIR"); ok {
		cfg.BaseDir = v
	}
	if v, ok := os.LookupEnv(EnvPrefix + "MAX_HISTORY_SIZE"); ok {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.MaxHistorySize = n
		}
	}
	if v, ok := os.LookupEnv(EnvPrefix + "AUTO_SAVE"); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.AutoSave = b
		}
	}
	if v, ok := os.LookupEnv(EnvPrefix + "PRECISION"); ok {
		if n, err := strconv.ParseInt(v, 10, 32); err == nil {
			cfg.Precision = int32(n)
		}
	}
	if v, ok := os.LookupEnv(EnvPrefix + "HISTORY_FILE"); ok {
		cfg.HistoryFile = v
	}
	if v, ok := os.LookupEnv(EnvPrefix + "SNAPSHOT_FILE"); ok {
		cfg.SnapshotFile = v
	}
	if v, ok := os.LookupEnv(EnvPrefix + "LOG_FILE"); ok {
		cfg.LogFile = v
	}
	if v, ok := os.LookupEnv(EnvPrefix + "LOG_LEVEL"); ok {
		cfg.LogLevel = v
	}
	if v, ok := os.LookupEnv(EnvPrefix + "PLUGIN_FILE"); ok {
		cfg.PluginFile = v
	}
}
