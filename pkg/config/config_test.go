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
	assert.Equal(t, 50, cfg.Pipeline.DefaultLimit)
	assert.Equal(t, 500, cfg.Pipeline.MaxLimit)
	assert.Equal(t, 1, cfg.Pipeline.BulkConcurrency)
	assert.Equal(t, "automation:events", cfg.Automation.Stream)
	assert.Equal(t, time.Second, cfg.Automation.RetryDelay)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("PIPELINE_DEFAULT_LIMIT", "25")
	t.Setenv("PIPELINE_BULK_CONCURRENCY", "4")
	t.Setenv("PIPELINE_CACHE_TTL", "not-a-duration")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example, ,https://b.example")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 25, cfg.Pipeline.DefaultLimit)
	assert.Equal(t, 4, cfg.Pipeline.BulkConcurrency)
	assert.Equal(t, 2*time.Minute, cfg.Pipeline.CacheTTL)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORS.AllowedOrigins)
}
