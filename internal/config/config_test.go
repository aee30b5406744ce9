package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, 0.1, cfg.Search.Threshold)
	assert.Equal(t, 3, cfg.Search.Limit)
	assert.Equal(t, 0.2, cfg.Search.AutoSelectBand)
	assert.Equal(t, "sqlite", cfg.Store.Backend)
	assert.Equal(t, 3, cfg.Indexing.BatchSize)
	assert.NoError(t, cfg.Validate())
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logvec.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
search:
  threshold: 0.25
  limit: 10
store:
  backend: bolt
  path: /tmp/vectors.bolt
indexing:
  batch_delay: 250ms
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 0.25, cfg.Search.Threshold)
	assert.Equal(t, 10, cfg.Search.Limit)
	assert.Equal(t, "bolt", cfg.Store.Backend)
	assert.Equal(t, 250*time.Millisecond, cfg.Indexing.BatchDelay.Std())

	// Untouched sections keep their defaults
	assert.Equal(t, 0.2, cfg.Search.AutoSelectBand)
	assert.Equal(t, 3, cfg.Indexing.BatchSize)
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logvec.yaml")
	require.NoError(t, os.WriteFile(path, []byte("search: ["), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown backend", func(c *Config) { c.Store.Backend = "redis" }},
		{"postgres without dsn", func(c *Config) { c.Store.Backend = "postgres"; c.Store.DSN = "" }},
		{"zero limit", func(c *Config) { c.Search.Limit = 0 }},
		{"threshold too high", func(c *Config) { c.Search.Threshold = 1.0 }},
		{"threshold too low", func(c *Config) { c.Search.Threshold = -1.5 }},
		{"zero batch size", func(c *Config) { c.Indexing.BatchSize = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "logvec.yaml")

	cfg := DefaultConfig()
	cfg.Search.Limit = 7
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 7, loaded.Search.Limit)
}
