package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, EnvDevelopment, cfg.Env)
	assert.Equal(t, "/api/v1", cfg.APIPrefix)
	assert.Equal(t, StorageDriverFile, cfg.Storage.Driver)
	assert.Equal(t, "./data", cfg.Storage.DataDir)
	assert.False(t, cfg.Ledger.CacheEnabled)
	assert.Equal(t, 5*time.Minute, cfg.Ledger.CacheTTL)
	assert.Equal(t, "USD", cfg.School.Currency)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "Memory")
	t.Setenv("LEDGER_CACHE_ENABLED", "true")
	t.Setenv("LEDGER_CACHE_TTL", "90s")
	t.Setenv("SCHOOL_NAME", "Green Valley High")
	t.Setenv("ALLOWED_ORIGINS", "http://a.test, http://b.test ,")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, StorageDriverMemory, cfg.Storage.Driver)
	assert.True(t, cfg.Ledger.CacheEnabled)
	assert.Equal(t, 90*time.Second, cfg.Ledger.CacheTTL)
	assert.Equal(t, "Green Valley High", cfg.School.Name)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORS.AllowedOrigins)
}

func TestLoadRejectsUnknownDriver(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "s3")

	_, err := Load()
	assert.Error(t, err)
}

func TestParseDurationFallback(t *testing.T) {
	assert.Equal(t, time.Minute, parseDuration("", time.Minute))
	assert.Equal(t, time.Minute, parseDuration("soon", time.Minute))
	assert.Equal(t, 2*time.Second, parseDuration("2s", time.Minute))
}
