package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all devactivity configuration.
type Config struct {
	User string `yaml:"user"`

	GitHub   GitHubConfig   `yaml:"github"`
	GitLab   GitLabConfig   `yaml:"gitlab"`
	Snapshot SnapshotConfig `yaml:"snapshot"`
	Sources  SourcesConfig  `yaml:"sources"`
	Cache    CacheConfig    `yaml:"cache"`
	Logging  LoggingConfig  `yaml:"logging"`
}

type GitHubConfig struct {
	Token   string `yaml:"token"`
	BaseURL string `yaml:"base_url"`
}

// GitLabConfig switches the live feed to GitLab when User is set.
type GitLabConfig struct {
	User    string `yaml:"user"`
	Token   string `yaml:"token"`
	BaseURL string `yaml:"base_url"`
}

type SnapshotConfig struct {
	Enabled bool `yaml:"enabled"`
	// Location is an http(s) URL or a local file path.
	Location string `yaml:"location"`
}

type SourcesConfig struct {
	PageSize int    `yaml:"page_size"`
	MaxPages int    `yaml:"max_pages"`
	Timeout  string `yaml:"timeout"`
}

type CacheConfig struct {
	// Backend is one of none, memory, sqlite.
	Backend string `yaml:"backend"`
	Path    string `yaml:"path"`
	TTL     string `yaml:"ttl"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, text
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		GitHub: GitHubConfig{
			BaseURL: "https://api.github.com",
		},
		GitLab: GitLabConfig{
			BaseURL: "https://gitlab.com/api/v4",
		},
		Snapshot: SnapshotConfig{
			Enabled:  true,
			Location: "data/contributions.json",
		},
		Sources: SourcesConfig{
			PageSize: 100,
			MaxPages: 3,
			Timeout:  "10s",
		},
		Cache: CacheConfig{
			Backend: "none",
			Path:    ".devactivity/cache.db",
			TTL:     "15m",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads a .env file if present, then the YAML config at path (missing
// file means defaults), then applies environment overrides.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("failed to read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config: %w", err)
			}
		}
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("DEV_ACTIVITY_USER"); v != "" {
		c.User = v
	}
	if v := os.Getenv("DEV_ACTIVITY_TOKEN"); v != "" {
		c.GitHub.Token = v
	}
	if v := os.Getenv("DEV_ACTIVITY_SNAPSHOT"); v != "" {
		c.Snapshot.Location = v
	}
	if v := os.Getenv("DEV_ACTIVITY_GITLAB_USER"); v != "" {
		c.GitLab.User = v
	}
	if v := os.Getenv("DEV_ACTIVITY_GITLAB_TOKEN"); v != "" {
		c.GitLab.Token = v
	}
	if v := os.Getenv("DEV_ACTIVITY_CACHE"); v != "" {
		c.Cache.Backend = v
	}
}

func (c *Config) Validate() error {
	if c.Sources.PageSize <= 0 {
		return fmt.Errorf("sources.page_size must be positive, got %d", c.Sources.PageSize)
	}
	if c.Sources.MaxPages <= 0 {
		return fmt.Errorf("sources.max_pages must be positive, got %d", c.Sources.MaxPages)
	}
	if _, err := c.SourceTimeout(); err != nil {
		return err
	}
	if _, err := c.CacheTTL(); err != nil {
		return err
	}
	switch c.Cache.Backend {
	case "none", "memory", "sqlite":
	default:
		return fmt.Errorf("cache.backend must be none, memory or sqlite, got %q", c.Cache.Backend)
	}
	return nil
}

func (c *Config) SourceTimeout() (time.Duration, error) {
	return parseDuration("sources.timeout", c.Sources.Timeout)
}

func (c *Config) CacheTTL() (time.Duration, error) {
	return parseDuration("cache.ttl", c.Cache.TTL)
}

func parseDuration(field, s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", field, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("%s must not be negative", field)
	}
	return d, nil
}
