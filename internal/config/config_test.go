package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "devactivity.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))

	require.NoError(t, err)
	assert.Equal(t, 100, cfg.Sources.PageSize)
	assert.Equal(t, 3, cfg.Sources.MaxPages)
	assert.True(t, cfg.Snapshot.Enabled)
	assert.Equal(t, "none", cfg.Cache.Backend)

	timeout, err := cfg.SourceTimeout()
	require.NoError(t, err)
	assert.Equal(t, 10*time.Second, timeout)
}

func TestLoad_YAML(t *testing.T) {
	path := writeConfig(t, `
user: octocat
snapshot:
  location: https://example.com/data/contributions.json
sources:
  page_size: 30
  max_pages: 10
cache:
  backend: sqlite
  ttl: 1h
logging:
  level: debug
`)

	cfg, err := Load(path)

	require.NoError(t, err)
	assert.Equal(t, "octocat", cfg.User)
	assert.Equal(t, "https://example.com/data/contributions.json", cfg.Snapshot.Location)
	assert.True(t, cfg.Snapshot.Enabled, "unset keys keep their defaults")
	assert.Equal(t, 30, cfg.Sources.PageSize)
	assert.Equal(t, 10, cfg.Sources.MaxPages)
	assert.Equal(t, "sqlite", cfg.Cache.Backend)
	assert.Equal(t, "debug", cfg.Logging.Level)

	ttl, err := cfg.CacheTTL()
	require.NoError(t, err)
	assert.Equal(t, time.Hour, ttl)
}

func TestLoad_Invalid(t *testing.T) {
	tests := map[string]string{
		"bad yaml":     "sources: [",
		"zero page":    "sources:\n  page_size: 0\n",
		"negative max": "sources:\n  max_pages: -1\n",
		"bad timeout":  "sources:\n  timeout: soon\n",
		"bad backend":  "cache:\n  backend: redis\n",
		"negative ttl": "cache:\n  ttl: -5m\n",
	}

	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, body))
			assert.Error(t, err)
		})
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("DEV_ACTIVITY_USER", "env-user")
	t.Setenv("DEV_ACTIVITY_TOKEN", "gh-token")
	t.Setenv("DEV_ACTIVITY_SNAPSHOT", "/srv/contributions.json")
	t.Setenv("DEV_ACTIVITY_GITLAB_USER", "gl-user")
	t.Setenv("DEV_ACTIVITY_GITLAB_TOKEN", "gl-token")
	t.Setenv("DEV_ACTIVITY_CACHE", "memory")

	cfg, err := Load(writeConfig(t, "user: file-user\n"))

	require.NoError(t, err)
	assert.Equal(t, "env-user", cfg.User)
	assert.Equal(t, "gh-token", cfg.GitHub.Token)
	assert.Equal(t, "/srv/contributions.json", cfg.Snapshot.Location)
	assert.Equal(t, "gl-user", cfg.GitLab.User)
	assert.Equal(t, "gl-token", cfg.GitLab.Token)
	assert.Equal(t, "memory", cfg.Cache.Backend)
}
