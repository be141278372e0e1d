package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/dshills/diffview/internal/logging"
)

// EnvPrefix is the prefix for environment variable overrides.
const EnvPrefix = "DIFFVIEW_"

// Config holds the tool's settings. Values merge in precedence order:
// defaults, then the TOML config file, then DIFFVIEW_* environment
// variables.
type Config struct {
	// LogLevel is one of debug, info, warn, error.
	LogLevel string `toml:"log_level"`

	// Debounce is a Go duration string for coalescing rescans.
	Debounce string `toml:"debounce"`

	// ContextLines is the minimum context padding around hunks.
	ContextLines uint32 `toml:"context_lines"`

	// Ignore lists glob patterns excluded from scanning.
	Ignore []string `toml:"ignore"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		LogLevel:     "info",
		Debounce:     "50ms",
		ContextLines: 3,
	}
}

// DefaultPath returns the per-user config file location.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "diffview", "config.toml")
}

// Load builds the effective configuration from the file at path plus
// environment overrides. A missing file is not an error; a malformed
// one is.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
			// Fall through to defaults.
		case err != nil:
			return cfg, fmt.Errorf("reading config file %s: %w", path, err)
		default:
			if err := toml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("parsing config file %s: %w", path, err)
			}
		}
	}

	applyEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// applyEnv overlays DIFFVIEW_* environment variables onto cfg.
func applyEnv(cfg *Config) {
	if v, ok := os.LookupEnv(EnvPrefix + "LOG_LEVEL"); ok {
		cfg.LogLevel = v
	}
	if v, ok := os.LookupEnv(EnvPrefix + "DEBOUNCE"); ok {
		cfg.Debounce = v
	}
	if v, ok := os.LookupEnv(EnvPrefix + "CONTEXT_LINES"); ok {
		if n, err := strconv.ParseUint(v, 10, 32); err == nil {
			cfg.ContextLines = uint32(n)
		}
	}
	if v, ok := os.LookupEnv(EnvPrefix + "IGNORE"); ok {
		cfg.Ignore = nil
		for _, p := range strings.Split(v, ",") {
			if p = strings.TrimSpace(p); p != "" {
				cfg.Ignore = append(cfg.Ignore, p)
			}
		}
	}
}

// Validate checks the configuration for usable values.
func (c Config) Validate() error {
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("log_level %q is not one of debug, info, warn, error", c.LogLevel)
	}
	if _, err := c.DebounceDelay(); err != nil {
		return err
	}
	if c.ContextLines > 1000 {
		return fmt.Errorf("context_lines %d is out of range", c.ContextLines)
	}
	return nil
}

// DebounceDelay parses the debounce setting.
func (c Config) DebounceDelay() (time.Duration, error) {
	d, err := time.ParseDuration(c.Debounce)
	if err != nil {
		return 0, fmt.Errorf("debounce %q: %w", c.Debounce, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("debounce %q must not be negative", c.Debounce)
	}
	return d, nil
}

// Level parses the log level setting.
func (c Config) Level() logging.LogLevel {
	return logging.ParseLogLevel(c.LogLevel)
}
