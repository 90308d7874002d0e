package shared

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Database   DatabaseConfig   `toml:"database"`
	Cache      CacheConfig      `toml:"cache"`
	Media      MediaConfig      `toml:"media"`
	Server     ServerConfig     `toml:"server"`
	Services   ServicesConfig   `toml:"services"`
	Generation GenerationConfig `toml:"generation"`
}

// DatabaseConfig contains SQLite connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// CacheConfig contains settings for the bbolt-backed generation cache.
type CacheConfig struct {
	Path string `toml:"path"`
}

// MediaConfig contains settings for locally persisted audio and cover assets.
type MediaConfig struct {
	Dir string `toml:"dir"`
}

// ServerConfig contains admin HTTP API settings.
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// ServicesConfig groups credentials for the external generation services.
type ServicesConfig struct {
	Text    TextServiceConfig    `toml:"text"`
	Audio   AudioServiceConfig   `toml:"audio"`
	Image   ImageServiceConfig   `toml:"image"`
	Catalog CatalogServiceConfig `toml:"catalog"`
}

// TextServiceConfig contains title/keyword generation service credentials.
type TextServiceConfig struct {
	BaseURL   string  `toml:"base_url"`
	APIKey    string  `toml:"api_key"`
	RateLimit float64 `toml:"rate_limit"`
}

// AudioServiceConfig contains audio synthesis service credentials.
type AudioServiceConfig struct {
	BaseURL   string  `toml:"base_url"`
	APIKey    string  `toml:"api_key"`
	RateLimit float64 `toml:"rate_limit"`
}

// ImageServiceConfig contains cover image generation service credentials.
type ImageServiceConfig struct {
	BaseURL string `toml:"base_url"`
	APIKey  string `toml:"api_key"`
}

// CatalogServiceConfig contains production catalog API credentials.
//
// The catalog API uses OAuth2 client credentials rather than a static key.
type CatalogServiceConfig struct {
	BaseURL      string `toml:"base_url"`
	TokenURL     string `toml:"token_url"`
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
}

// GenerationConfig tunes the bulk generation pipeline.
type GenerationConfig struct {
	PollIntervalSeconds int    `toml:"poll_interval_seconds"`
	PollMaxAttempts     int    `toml:"poll_max_attempts"`
	TitlePoolLowWater   int    `toml:"title_pool_low_water"`
	TitleCategory       string `toml:"title_category"`
}

// PollInterval returns the synthesis status poll interval as a [time.Duration].
func (g GenerationConfig) PollInterval() time.Duration {
	if g.PollIntervalSeconds <= 0 {
		return 5 * time.Second
	}
	return time.Duration(g.PollIntervalSeconds) * time.Second
}

// MaxAttempts returns the poll attempt ceiling, defaulting to 60.
func (g GenerationConfig) MaxAttempts() int {
	if g.PollMaxAttempts <= 0 {
		return 60
	}
	return g.PollMaxAttempts
}

// Category returns the title pool category, defaulting to "default".
//
// A single coarse category is shared across style/mood combinations so
// pre-generated titles are reusable by any schedule or manual run.
func (g GenerationConfig) Category() string {
	if g.TitleCategory == "" {
		return "default"
	}
	return g.TitleCategory
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return &config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%w: config file already exists at %s", ErrInvalidConfig, path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
