package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Storage backends.
const (
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

// Config represents the application configuration.
type Config struct {
	Storage    StorageConfig    `toml:"storage"`
	Scryfall   ScryfallConfig   `toml:"scryfall"`
	ImageCache ImageCacheConfig `toml:"image_cache"`
	View       ViewConfig       `toml:"view"`
	Server     ServerConfig     `toml:"server"`
	App        AppConfig        `toml:"app"`
}

// StorageConfig selects where lists, column settings and the image cache live.
type StorageConfig struct {
	Backend       string `toml:"backend"`        // sqlite, redis or memory
	Path          string `toml:"path"`           // SQLite database file
	RedisAddr     string `toml:"redis_addr"`     // e.g. "localhost:6379"
	RedisPassword string `toml:"redis_password"` // Optional
	RedisDB       int    `toml:"redis_db"`
}

// ScryfallConfig contains card lookup settings.
type ScryfallConfig struct {
	BaseURL   string `toml:"base_url"`
	UserAgent string `toml:"user_agent"`
	RateLimit string `toml:"rate_limit"` // Minimum spacing between requests (e.g., "100ms")
	Retries   int    `toml:"retries"`    // Extra attempts on 429/network errors
}

// ImageCacheConfig contains image cache expiry settings.
type ImageCacheConfig struct {
	Freshness     string `toml:"freshness"`      // e.g. "168h"
	RetryCooldown string `toml:"retry_cooldown"` // e.g. "1h"
}

// ViewConfig contains list display defaults.
type ViewConfig struct {
	PageSize int    `toml:"page_size"`
	List     string `toml:"list"` // List the CLI and server start on; empty selects the first
}

// ServerConfig contains HTTP API settings.
type ServerConfig struct {
	Port           int      `toml:"port"`
	AllowedOrigins []string `toml:"allowed_origins"`
}

// AppConfig contains general application settings.
type AppConfig struct {
	LogLevel   string `toml:"log_level"`   // debug, info, warn, error
	PrettyLogs bool   `toml:"pretty_logs"` // Human readable console output
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Storage: StorageConfig{
			Backend: BackendSQLite,
			Path:    "",
		},
		Scryfall: ScryfallConfig{
			BaseURL:   "https://api.scryfall.com",
			UserAgent: "MTG-Buylist/1.0",
			RateLimit: "100ms",
			Retries:   0,
		},
		ImageCache: ImageCacheConfig{
			Freshness:     "168h",
			RetryCooldown: "1h",
		},
		View: ViewConfig{
			PageSize: 25,
		},
		Server: ServerConfig{
			Port:           8080,
			AllowedOrigins: []string{"http://localhost:*", "http://127.0.0.1:*"},
		},
		App: AppConfig{
			LogLevel:   "info",
			PrettyLogs: false,
		},
	}
}

// Dir returns the application data directory, creating it if needed.
func Dir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home directory: %w", err)
	}

	dir := filepath.Join(homeDir, ".mtg-buylist")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create config directory: %w", err)
	}

	return dir, nil
}

// DefaultPath returns the path to the configuration file.
func DefaultPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// Load loads the configuration from the default location.
func Load() (*Config, error) {
	path, err := DefaultPath()
	if err != nil {
		return nil, err
	}
	return LoadFrom(path)
}

// LoadFrom loads the configuration from path. Returns default config if the
// file doesn't exist. Values missing from the file keep their defaults.
func LoadFrom(path string) (*Config, error) {
	config := DefaultConfig()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return config, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	return config, nil
}

// SaveTo writes the configuration to path.
func (c *Config) SaveTo(path string) error {
	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}

	return nil
}

// Validate validates the configuration values.
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case BackendSQLite, BackendMemory:
	case BackendRedis:
		if c.Storage.RedisAddr == "" {
			return fmt.Errorf("redis backend requires redis_addr")
		}
	default:
		return fmt.Errorf("unknown storage backend %q", c.Storage.Backend)
	}

	if _, err := time.ParseDuration(c.Scryfall.RateLimit); err != nil {
		return fmt.Errorf("invalid scryfall rate limit %q: %w", c.Scryfall.RateLimit, err)
	}

	if c.Scryfall.Retries < 0 {
		return fmt.Errorf("scryfall retries cannot be negative: %d", c.Scryfall.Retries)
	}

	if _, err := time.ParseDuration(c.ImageCache.Freshness); err != nil {
		return fmt.Errorf("invalid image cache freshness %q: %w", c.ImageCache.Freshness, err)
	}

	if _, err := time.ParseDuration(c.ImageCache.RetryCooldown); err != nil {
		return fmt.Errorf("invalid image cache retry cooldown %q: %w", c.ImageCache.RetryCooldown, err)
	}

	if c.View.PageSize < 0 {
		return fmt.Errorf("page size cannot be negative: %d", c.View.PageSize)
	}

	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	return nil
}

// StoragePath returns the SQLite path, defaulting to the data directory.
func (c *Config) StoragePath() (string, error) {
	if c.Storage.Path != "" {
		return c.Storage.Path, nil
	}
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "buylist.db"), nil
}

// GetRateLimit returns the Scryfall request spacing as a duration.
func (c *Config) GetRateLimit() (time.Duration, error) {
	return time.ParseDuration(c.Scryfall.RateLimit)
}

// GetFreshness returns the image cache freshness window.
func (c *Config) GetFreshness() (time.Duration, error) {
	return time.ParseDuration(c.ImageCache.Freshness)
}

// GetRetryCooldown returns the image cache failure-retry cooldown.
func (c *Config) GetRetryCooldown() (time.Duration, error) {
	return time.ParseDuration(c.ImageCache.RetryCooldown)
}
