// Package config loads server settings from defaults, an optional TOML file
// and the environment, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
)

// Environment variables.
const (
	EnvConfigFile = "TASKLIST_CONFIG"
	EnvPort       = "PORT"
	EnvDBPath     = "DB_PATH"
	EnvLogLevel   = "LOG_LEVEL"
	EnvLogFile    = "LOG_FILE"
	EnvLogFormat  = "LOG_FORMAT"
	EnvPageSize   = "PAGE_SIZE"
)

// Config holds the server configuration.
type Config struct {
	Port     string `toml:"port"`
	DBPath   string `toml:"db_path"`
	PageSize int    `toml:"page_size"`
	Log      Log    `toml:"log"`
}

// Log holds logging settings.
type Log struct {
	// Level is one of debug, info, warn, error.
	Level string `toml:"level"`

	// Format is "console", "json" or "auto" (console on a terminal).
	Format string `toml:"format"`

	// File, when set, receives a copy of every log line with rotation.
	File       string `toml:"file"`
	MaxSizeMB  int    `toml:"max_size_mb"`
	MaxBackups int    `toml:"max_backups"`
	MaxAgeDays int    `toml:"max_age_days"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Port:     "8080",
		DBPath:   "./data/tasklist.db",
		PageSize: 10,
		Log: Log{
			Level:      "info",
			Format:     "auto",
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
	}
}

// Load builds the configuration from defaults, the TOML file named by
// TASKLIST_CONFIG (if any) and environment overrides, then validates it.
func Load() (Config, error) {
	cfg := Default()

	if path := os.Getenv(EnvConfigFile); path != "" {
		if err := LoadFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadFile decodes the TOML file at path over cfg.
func LoadFile(path string, cfg *Config) error {
	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return fmt.Errorf("failed to read config %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		return fmt.Errorf("unknown keys in config %s: %s", path, strings.Join(keys, ", "))
	}
	return nil
}

func applyEnv(cfg *Config) error {
	cfg.Port = getEnv(EnvPort, cfg.Port)
	cfg.DBPath = getEnv(EnvDBPath, cfg.DBPath)
	cfg.Log.Level = getEnv(EnvLogLevel, cfg.Log.Level)
	cfg.Log.Format = getEnv(EnvLogFormat, cfg.Log.Format)
	cfg.Log.File = getEnv(EnvLogFile, cfg.Log.File)

	if v := os.Getenv(EnvPageSize); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", EnvPageSize, v, err)
		}
		cfg.PageSize = n
	}
	return nil
}

// Validate checks that the configuration is usable.
func (c Config) Validate() error {
	port, err := strconv.Atoi(c.Port)
	if err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("invalid port %q", c.Port)
	}

	if strings.TrimSpace(c.DBPath) == "" {
		return errors.New("db_path is required")
	}

	if c.PageSize < 1 || c.PageSize > 500 {
		return fmt.Errorf("page_size must be between 1 and 500, got %d", c.PageSize)
	}

	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level %q", c.Log.Level)
	}

	switch strings.ToLower(c.Log.Format) {
	case "auto", "console", "json":
	default:
		return fmt.Errorf("invalid log format %q", c.Log.Format)
	}

	return nil
}

// Addr returns the listen address.
func (c Config) Addr() string {
	return ":" + c.Port
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
