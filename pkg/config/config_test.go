package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "plume_log_list", cfg.QueueKey)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr)
	assert.Equal(t, 100, cfg.BatchSize)
	assert.Equal(t, 5, cfg.BatchIntervalSeconds)
	assert.Equal(t, 10000, cfg.QueueMaxSize)
	assert.Equal(t, 3, cfg.RetryCount)
	assert.Equal(t, 4, cfg.MaxConnections)
	assert.Equal(t, 10, cfg.ShutdownTimeoutSeconds)
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("PLUMELOG_APP_NAME", "orders")
	t.Setenv("PLUMELOG_REDIS_ADDR", "redis.internal:6380")
	t.Setenv("PLUMELOG_BATCH_SIZE", "7")
	t.Setenv("PLUMELOG_RETRY_COUNT", "5")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, "orders", cfg.AppName)
	assert.Equal(t, "redis.internal:6380", cfg.RedisAddr)
	assert.Equal(t, 7, cfg.BatchSize)
	assert.Equal(t, 5, cfg.RetryCount)
	// Untouched options keep their defaults.
	assert.Equal(t, "plume_log_list", cfg.QueueKey)
	assert.Equal(t, 4, cfg.MaxConnections)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg := Default()
		cfg.AppName = "orders"
		return cfg
	}

	require.NoError(t, valid().Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty app name", func(c *Config) { c.AppName = "" }},
		{"empty redis addr", func(c *Config) { c.RedisAddr = "" }},
		{"empty queue key", func(c *Config) { c.QueueKey = "" }},
		{"zero batch size", func(c *Config) { c.BatchSize = 0 }},
		{"zero interval", func(c *Config) { c.BatchIntervalSeconds = 0 }},
		{"queue smaller than batch", func(c *Config) { c.QueueMaxSize = c.BatchSize - 1 }},
		{"zero retries", func(c *Config) { c.RetryCount = 0 }},
		{"zero connections", func(c *Config) { c.MaxConnections = 0 }},
		{"zero shutdown timeout", func(c *Config) { c.ShutdownTimeoutSeconds = 0 }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := valid()
			tc.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestDurations(t *testing.T) {
	cfg := Default()
	cfg.BatchIntervalSeconds = 3
	cfg.ShutdownTimeoutSeconds = 7

	assert.Equal(t, 3*time.Second, cfg.BatchInterval())
	assert.Equal(t, 7*time.Second, cfg.ShutdownTimeout())
}
