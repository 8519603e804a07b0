// Package config loads ngodash settings from the config file and environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	appName = "ngodash"

	// DefaultBaseURL is the API root used when nothing else is configured.
	DefaultBaseURL = "http://localhost:5000/api"

	defaultTimeoutSec     = 15
	defaultInitTimeoutSec = 10
	defaultRefreshSec     = 30
	maxTimeoutSec         = 300
	minRefreshSec         = 5
)

// Config holds all ngodash configuration. Environment variables override
// values from the file.
type Config struct {
	API        APIConfig        `toml:"api"`
	Appearance AppearanceConfig `toml:"appearance"`
	TUI        TUIConfig        `toml:"tui"`
	Log        LogConfig        `toml:"log"`
}

// APIConfig holds REST API settings.
type APIConfig struct {
	BaseURL        string  `toml:"base_url" env:"NGODASH_API_URL"`
	TimeoutSec     int     `toml:"timeout_sec" env:"NGODASH_TIMEOUT_SEC"`
	InitTimeoutSec int     `toml:"init_timeout_sec" env:"NGODASH_INIT_TIMEOUT_SEC"`
	RatePerSec     float64 `toml:"rate_per_sec" env:"NGODASH_RATE_PER_SEC"`
}

// AppearanceConfig holds theme settings.
type AppearanceConfig struct {
	Theme string `toml:"theme" env:"NGODASH_THEME"`
}

// TUIConfig holds dashboard settings.
type TUIConfig struct {
	AutoRefresh        bool `toml:"auto_refresh" env:"NGODASH_AUTO_REFRESH"`
	RefreshIntervalSec int  `toml:"refresh_interval_sec" env:"NGODASH_REFRESH_INTERVAL_SEC"`
}

// LogConfig holds diagnostic logging settings.
type LogConfig struct {
	Level string `toml:"level" env:"NGODASH_LOG_LEVEL"`
	File  string `toml:"file,omitempty" env:"NGODASH_LOG_FILE"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		API: APIConfig{
			BaseURL:        DefaultBaseURL,
			TimeoutSec:     defaultTimeoutSec,
			InitTimeoutSec: defaultInitTimeoutSec,
			RatePerSec:     10,
		},
		Appearance: AppearanceConfig{
			Theme: "flexoki-dark",
		},
		TUI: TUIConfig{
			AutoRefresh:        true,
			RefreshIntervalSec: defaultRefreshSec,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Sanitize replaces out-of-range values with defaults or bounds.
func (c *Config) Sanitize() {
	def := DefaultConfig()

	c.API.BaseURL = strings.TrimRight(strings.TrimSpace(c.API.BaseURL), "/")
	if c.API.BaseURL == "" {
		c.API.BaseURL = def.API.BaseURL
	}
	c.API.TimeoutSec = clamp(c.API.TimeoutSec, def.API.TimeoutSec)
	c.API.InitTimeoutSec = clamp(c.API.InitTimeoutSec, def.API.InitTimeoutSec)
	if c.API.RatePerSec < 0 {
		c.API.RatePerSec = 0
	}

	if c.Appearance.Theme == "" {
		c.Appearance.Theme = def.Appearance.Theme
	}
	if c.TUI.RefreshIntervalSec < minRefreshSec {
		c.TUI.RefreshIntervalSec = def.TUI.RefreshIntervalSec
	}
	c.Log.Level = strings.ToLower(strings.TrimSpace(c.Log.Level))
	if c.Log.Level == "" {
		c.Log.Level = def.Log.Level
	}
}

func clamp(v, def int) int {
	if v <= 0 {
		return def
	}
	if v > maxTimeoutSec {
		return maxTimeoutSec
	}
	return v
}

// Dir returns the XDG-compliant config directory.
func Dir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, appName)
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", appName)
}

// Path returns the full path to the config file.
func Path() string {
	return filepath.Join(Dir(), "config.toml")
}

// DataDir returns the XDG-compliant data directory holding credentials
// and logs.
func DataDir() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, appName)
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "share", appName)
}

// CredentialsPath returns the path of the session credential database.
func CredentialsPath() string {
	return filepath.Join(DataDir(), "credentials.db")
}

// LogPath returns the log file path, honouring the configured override.
func LogPath(cfg Config) string {
	if cfg.Log.File != "" {
		return cfg.Log.File
	}
	return filepath.Join(DataDir(), appName+".log")
}

// Load reads the config file, applies a .env file from the working
// directory if present, then environment overrides.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil {
		var pathErr *os.PathError
		if !errors.As(err, &pathErr) {
			return DefaultConfig(), fmt.Errorf("loading .env file: %w", err)
		}
	}
	return LoadFile(Path())
}

// LoadFile reads the config at path, returning defaults if it doesn't
// exist, then applies environment overrides.
func LoadFile(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parsing config: %w", err)
		}
	case !os.IsNotExist(err):
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parsing environment: %w", err)
	}

	cfg.Sanitize()
	return cfg, nil
}

// Save writes the config to disk.
func Save(cfg Config) error {
	return SaveFile(Path(), cfg)
}

// SaveFile writes cfg to path.
func SaveFile(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("creating config file: %w", err)
	}
	defer f.Close()

	enc := toml.NewEncoder(f)
	return enc.Encode(cfg)
}

// Exists returns true if a config file exists on disk.
func Exists() bool {
	_, err := os.Stat(Path())
	return err == nil
}
