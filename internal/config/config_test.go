package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 60, cfg.Search.RRFConstant)
	assert.Equal(t, 50, cfg.Search.DefaultLimit)
	assert.Equal(t, 100, cfg.Search.MaxLimit)
	assert.Equal(t, 4, cfg.Search.OverfetchFactor)
	assert.False(t, cfg.Search.LexicalFallback)
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default().Search.RRFConstant, cfg.Search.RRFConstant)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := []byte(`
version: 1
server:
  port: 9999
search:
  rrf_constant: 30
  lexical_fallback: true
embeddings:
  provider: static
`)
	require.NoError(t, os.WriteFile(path, content, 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9999, cfg.Server.Port)
	assert.Equal(t, 30, cfg.Search.RRFConstant)
	assert.True(t, cfg.Search.LexicalFallback)
	assert.Equal(t, "static", cfg.Embeddings.Provider)
	// Untouched fields keep defaults.
	assert.Equal(t, 50, cfg.Search.DefaultLimit)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: 9000\n"), 0o600))

	t.Setenv("PAPERTRAIL_PORT", "9001")
	t.Setenv("PAPERTRAIL_SECRET_KEY", "from-env")
	t.Setenv("PAPERTRAIL_RRF_CONSTANT", "45")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9001, cfg.Server.Port)
	assert.Equal(t, "from-env", cfg.Auth.SecretKey)
	assert.Equal(t, 45, cfg.Search.RRFConstant)
}

func TestValidate_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad port", func(c *Config) { c.Server.Port = -1 }},
		{"zero rrf", func(c *Config) { c.Search.RRFConstant = 0 }},
		{"max below default", func(c *Config) { c.Search.MaxLimit = 10 }},
		{"zero overfetch", func(c *Config) { c.Search.OverfetchFactor = 0 }},
		{"unknown provider", func(c *Config) { c.Embeddings.Provider = "gpu9000" }},
		{"empty secret", func(c *Config) { c.Auth.SecretKey = "" }},
		{"empty data dir", func(c *Config) { c.Storage.DataDir = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestSaveAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg", "config.yaml")

	cfg := Default()
	cfg.Server.Port = 8123
	cfg.Search.Timeout = 7 * time.Second
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 8123, loaded.Server.Port)
	assert.Equal(t, 7*time.Second, loaded.Search.Timeout)
}
