// Package config loads the hotdeck YAML configuration and applies
// environment variable overrides.
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// ---------------------------------------------------------------------------
// Configuration structs
// ---------------------------------------------------------------------------

// Config is the top-level configuration for the hotdeck platform.
type Config struct {
	Server   Server   `yaml:"server"`
	Settings Settings `yaml:"settings"`
	Storage  Storage  `yaml:"storage"`
	Hotkeys  Hotkeys  `yaml:"hotkeys"`
	Watch    Watch    `yaml:"watch"`
	Logging  Logging  `yaml:"logging"`
}

// Server holds network listener configuration for the dashboard API.
type Server struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// Settings locates the accounts/presets settings file.
type Settings struct {
	Path string `yaml:"path"`
}

// Storage holds paths for execution-history persistence.
type Storage struct {
	SQLitePath string `yaml:"sqlite_path"`
	DataDir    string `yaml:"data_dir"` // parquet archive exports
}

// Hotkeys controls dispatch behaviour.
type Hotkeys struct {
	CooldownMs int `yaml:"cooldown_ms"`
}

// Watch controls the background open-order watcher.
type Watch struct {
	Enabled         bool `yaml:"enabled"`
	IntervalSec     int  `yaml:"interval_sec"`
	RateLimitPerMin int  `yaml:"rate_limit_per_min"`
}

// Logging configures the application logger.
type Logging struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "json" or "text"
}

// ---------------------------------------------------------------------------
// Loading
// ---------------------------------------------------------------------------

// Load reads the YAML configuration file at the given path, parses it into a
// Config struct, applies environment variable overrides, and fills defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)
	applyDefaults(cfg)

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyEnvOverrides checks well-known environment variables and overrides the
// corresponding configuration fields when they are set.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("HOTDECK_SETTINGS"); v != "" {
		cfg.Settings.Path = v
	}

	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Storage.SQLitePath = v
	}

	if v := os.Getenv("DATA_DIR"); v != "" {
		cfg.Storage.DataDir = v
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}

	if v := os.Getenv("HOTKEY_COOLDOWN_MS"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil {
			cfg.Hotkeys.CooldownMs = ms
		}
	}
}

// applyDefaults fills zero-valued fields with sensible defaults.
func applyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "127.0.0.1"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8090
	}
	if cfg.Settings.Path == "" {
		cfg.Settings.Path = "hotdeck-settings.json"
	}
	if cfg.Storage.SQLitePath == "" {
		cfg.Storage.SQLitePath = "hotdeck.db"
	}
	if cfg.Storage.DataDir == "" {
		cfg.Storage.DataDir = "data"
	}
	if cfg.Hotkeys.CooldownMs == 0 {
		cfg.Hotkeys.CooldownMs = 2000
	}
	if cfg.Watch.IntervalSec == 0 {
		cfg.Watch.IntervalSec = 15
	}
	if cfg.Watch.RateLimitPerMin == 0 {
		cfg.Watch.RateLimitPerMin = 120
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
}

func validate(cfg *Config) error {
	if cfg.Hotkeys.CooldownMs < 0 {
		return fmt.Errorf("hotkeys.cooldown_ms must not be negative, got %d", cfg.Hotkeys.CooldownMs)
	}
	if cfg.Watch.IntervalSec < 1 {
		return fmt.Errorf("watch.interval_sec must be at least 1, got %d", cfg.Watch.IntervalSec)
	}
	if cfg.Server.Port < 1 || cfg.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", cfg.Server.Port)
	}
	return nil
}
