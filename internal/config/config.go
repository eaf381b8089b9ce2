// Package config loads and saves orline configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// DefaultBaseURL is the production OpenRouter API root.
const DefaultBaseURL = "https://openrouter.ai/api/v1"

// Config holds all orline configuration.
type Config struct {
	OpenRouter OpenRouterConfig `toml:"openrouter"`
	State      StateConfig      `toml:"state"`
	History    HistoryConfig    `toml:"history"`
	Display    DisplayConfig    `toml:"display"`
	Log        LogConfig        `toml:"log"`
	Watch      WatchConfig      `toml:"watch"`
}

// OpenRouterConfig holds billing API settings.
type OpenRouterConfig struct {
	BaseURL           string `toml:"base_url"`
	APIKey            string `toml:"api_key,omitempty"`
	RequestTimeoutSec int    `toml:"request_timeout_sec"`
}

// StateConfig controls where per-session records live.
type StateConfig struct {
	Dir string `toml:"dir,omitempty"`
}

// HistoryConfig controls the SQLite generation ledger.
type HistoryConfig struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path,omitempty"`
}

// DisplayConfig holds statusline appearance settings.
type DisplayConfig struct {
	Color bool   `toml:"color"`
	Theme string `toml:"theme"` // watch view palette
}

// LogConfig holds log file settings.
type LogConfig struct {
	Level string `toml:"level"`
	File  string `toml:"file,omitempty"`
}

// WatchConfig holds settings for the live watch view.
type WatchConfig struct {
	IntervalSec int `toml:"interval_sec"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		OpenRouter: OpenRouterConfig{
			BaseURL:           DefaultBaseURL,
			RequestTimeoutSec: 10,
		},
		History: HistoryConfig{
			Enabled: true,
		},
		Display: DisplayConfig{
			Color: true,
			Theme: "flexoki-dark",
		},
		Log: LogConfig{
			Level: "warn",
		},
		Watch: WatchConfig{
			IntervalSec: 5,
		},
	}
}

// Dir returns the XDG-compliant config directory.
func Dir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "orline")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "orline")
}

// Path returns the full path to the config file.
func Path() string {
	return filepath.Join(Dir(), "config.toml")
}

// CacheDir returns the platform-appropriate cache directory.
func CacheDir() string {
	if xdg := os.Getenv("XDG_CACHE_HOME"); xdg != "" {
		return filepath.Join(xdg, "orline")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".cache", "orline")
}

// Load reads the config file, returning defaults if it doesn't exist.
func Load() (Config, error) {
	return LoadFrom(Path())
}

// LoadFrom reads the config file at path, returning defaults if it doesn't exist.
func LoadFrom(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path) //nolint:gosec // path is the user's config file
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}

	return cfg, nil
}

// Save writes the config to disk.
func Save(cfg Config) error {
	return SaveTo(cfg, Path())
}

// SaveTo writes the config to path, creating parent directories.
func SaveTo(cfg Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600) //nolint:gosec // user config path
	if err != nil {
		return fmt.Errorf("creating config file: %w", err)
	}
	defer func() { _ = f.Close() }()

	if err := toml.NewEncoder(f).Encode(cfg); err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	return nil
}

// Exists returns true if a config file exists on disk.
func Exists() bool {
	_, err := os.Stat(Path())
	return err == nil
}

// LoadEnvFile loads <config dir>/.env into the process environment.
// Variables that are already set are left alone. A missing file is not an error.
func LoadEnvFile() error {
	path := filepath.Join(Dir(), ".env")
	if _, err := os.Stat(path); err != nil {
		return nil //nolint:nilerr // absent .env is the common case
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}

// RequestTimeout returns the per-request billing API timeout.
func (c Config) RequestTimeout() time.Duration {
	if c.OpenRouter.RequestTimeoutSec <= 0 {
		return 10 * time.Second
	}
	return time.Duration(c.OpenRouter.RequestTimeoutSec) * time.Second
}

// WatchInterval returns the polling interval for the watch view, never below one second.
func (c Config) WatchInterval() time.Duration {
	if c.Watch.IntervalSec < 1 {
		return 5 * time.Second
	}
	return time.Duration(c.Watch.IntervalSec) * time.Second
}

// StateDir returns the directory for per-session records.
func (c Config) StateDir() string {
	if c.State.Dir != "" {
		return c.State.Dir
	}
	return os.TempDir()
}

// HistoryPath returns the SQLite ledger location.
func (c Config) HistoryPath() string {
	if c.History.Path != "" {
		return c.History.Path
	}
	return filepath.Join(CacheDir(), "history.db")
}

// LogFile returns the log file location.
func (c Config) LogFile() string {
	if c.Log.File != "" {
		return c.Log.File
	}
	return filepath.Join(CacheDir(), "orline.log")
}
