package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "provider_pools.json", cfg.PoolFilePath)
	assert.Equal(t, 3, cfg.MaxErrorCount)
	assert.Equal(t, 10*time.Minute, cfg.HealthCheckInterval)
	assert.Equal(t, time.Second, cfg.SaveDebounceTime)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.False(t, cfg.Proxy.Gemini)
}

func TestLoadReadsEnvOverrides(t *testing.T) {
	t.Setenv("PROVIDER_POOLS_FILE_PATH", "/tmp/custom_pool.json")
	t.Setenv("MAX_ERROR_COUNT", "5")
	t.Setenv("USE_SYSTEM_PROXY_KIRO", "true")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "/tmp/custom_pool.json", cfg.PoolFilePath)
	assert.Equal(t, 5, cfg.MaxErrorCount)
	assert.True(t, cfg.Proxy.Kiro)
	assert.Equal(t, "debug", cfg.LogLevel)
}
