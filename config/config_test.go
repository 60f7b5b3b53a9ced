package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultsAndEnv(t *testing.T) {
	t.Setenv("LISTINGS_JWT_SECRET", "s3cret")
	t.Setenv("LISTINGS_SAVED_BACKEND", "redis")
	t.Setenv("LISTINGS_IDEMPOTENCY_CLAIM_WAIT", "500ms")
	t.Setenv("LISTINGS_LOG_LEVEL", "debug")

	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "mongodb://localhost:27017", cfg.Mongo.URI)
	assert.Equal(t, uint64(100), cfg.Mongo.MaxPoolSize)
	assert.Equal(t, "mongo", cfg.Storage.Driver)
	assert.Equal(t, "redis", cfg.Saved.Backend)
	assert.Equal(t, 500*time.Millisecond, cfg.Idempotency.ClaimWait)
	assert.Equal(t, 24*time.Hour, cfg.Idempotency.TTL)
	assert.Equal(t, []string{"*"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, "s3cret", cfg.JWT.Secret)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "stdout", cfg.Log.OutputFile)
	assert.True(t, cfg.NeedsMongo())
	assert.True(t, cfg.NeedsRedis())
}

func TestLoad_YAMLFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
storage:
  driver: memory
saved:
  backend: memory
jwt:
  secret: from-file
search:
  max_results: 50
log:
  format: console
  output_file: /var/log/listings.log
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "memory", cfg.Storage.Driver)
	assert.Equal(t, int64(50), cfg.Search.MaxResults)
	assert.Equal(t, "from-file", cfg.JWT.Secret)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, "/var/log/listings.log", cfg.Log.OutputFile)
	assert.False(t, cfg.NeedsMongo())
	assert.False(t, cfg.NeedsRedis())
}

func TestValidate(t *testing.T) {
	valid := Config{
		Storage:     StorageConfig{Driver: "mongo"},
		Saved:       SavedConfig{Backend: "mongo"},
		Idempotency: IdempotencyConfig{Backend: "memory"},
		JWT:         JWTConfig{Secret: "x"},
	}
	require.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"unknown driver", func(c *Config) { c.Storage.Driver = "postgres" }},
		{"unknown saved backend", func(c *Config) { c.Saved.Backend = "file" }},
		{"unknown ledger", func(c *Config) { c.Idempotency.Backend = "mongo" }},
		{"mongo saved without mongo storage", func(c *Config) { c.Storage.Driver = "memory" }},
		{"missing secret", func(c *Config) { c.JWT.Secret = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid
			tt.mutate(&c)
			assert.Error(t, c.Validate())
		})
	}
}
