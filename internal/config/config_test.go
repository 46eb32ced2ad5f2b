package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 8000, cfg.Server.Port)
	assert.True(t, cfg.Logging.Development)
	assert.Equal(t, "memory", cfg.Store.Provider)
	assert.Equal(t, "articles", cfg.Store.Postgres.Table)
	assert.Equal(t, 100, cfg.Ingest.BatchSize)
	assert.False(t, cfg.Ingest.Precheck)
	assert.Equal(t, 2, cfg.Scraper.Parallelism)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	body := `
server:
  port: 9000
store:
  provider: postgres
  postgres:
    dsn: postgres://localhost:5432/articles
ingest:
  batch_size: 25
  precheck: true
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, "postgres", cfg.Store.Provider)
	assert.Equal(t, "postgres://localhost:5432/articles", cfg.Store.Postgres.DSN)
	assert.Equal(t, 25, cfg.Ingest.BatchSize)
	assert.True(t, cfg.Ingest.Precheck)
	// Defaults survive partial files.
	assert.Equal(t, "articles", cfg.Store.Mongo.Database)
}

func TestValidate(t *testing.T) {
	base := func() Config {
		cfg, err := Load("")
		require.NoError(t, err)
		return cfg
	}

	t.Run("postgres requires dsn", func(t *testing.T) {
		cfg := base()
		cfg.Store.Provider = "postgres"
		assert.Error(t, cfg.Validate())
	})

	t.Run("mongo requires uri", func(t *testing.T) {
		cfg := base()
		cfg.Store.Provider = "mongo"
		assert.Error(t, cfg.Validate())
	})

	t.Run("unknown provider rejected", func(t *testing.T) {
		cfg := base()
		cfg.Store.Provider = "elastic"
		assert.Error(t, cfg.Validate())
	})

	t.Run("batch size must be positive", func(t *testing.T) {
		cfg := base()
		cfg.Ingest.BatchSize = 0
		assert.Error(t, cfg.Validate())
	})
}
