package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// envPrefix is prepended to upper-cased option names for environment
// overrides, e.g. PLUMELOG_BATCH_SIZE overrides batch_size.
const envPrefix = "PLUMELOG"

// Config holds the settings for one sink instance. Every option is
// independently overridable through the environment; see FromEnv.
type Config struct {
	// AppName identifies the application in the aggregated logs. Required.
	AppName string `mapstructure:"app_name"`

	// Env is the deployment environment label (dev, staging, prod, ...).
	Env string `mapstructure:"env"`

	// RedisAddr is the host:port of the Redis server holding the queue.
	RedisAddr string `mapstructure:"redis_addr"`

	// RedisDB selects the Redis logical database.
	RedisDB int `mapstructure:"redis_db"`

	// RedisPassword authenticates against the Redis server. Optional.
	RedisPassword string `mapstructure:"redis_password"`

	// QueueKey is the Redis list the collector consumes from.
	QueueKey string `mapstructure:"queue_key"`

	// BatchSize caps the number of records sent in one push.
	BatchSize int `mapstructure:"batch_size"`

	// BatchIntervalSeconds bounds how long a buffered record may wait
	// before it is shipped, even when BatchSize is never reached.
	BatchIntervalSeconds int `mapstructure:"batch_interval_seconds"`

	// QueueMaxSize caps the in-process buffer; beyond it the oldest
	// buffered record is dropped.
	QueueMaxSize int `mapstructure:"queue_max_size"`

	// RetryCount is the total number of delivery attempts per batch.
	RetryCount int `mapstructure:"retry_count"`

	// MaxConnections bounds the Redis connection pool.
	MaxConnections int `mapstructure:"max_connections"`

	// ShutdownTimeoutSeconds bounds how long Close waits for the final
	// drain before abandoning in-flight batches.
	ShutdownTimeoutSeconds int `mapstructure:"shutdown_timeout_seconds"`
}

// Default returns the documented default configuration.
func Default() *Config {
	return &Config{
		Env:                    "dev",
		RedisAddr:              "localhost:6379",
		RedisDB:                0,
		QueueKey:               "plume_log_list",
		BatchSize:              100,
		BatchIntervalSeconds:   5,
		QueueMaxSize:           10000,
		RetryCount:             3,
		MaxConnections:         4,
		ShutdownTimeoutSeconds: 10,
	}
}

// FromEnv returns the default configuration with any PLUMELOG_* environment
// variables layered on top.
func FromEnv() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()

	// Registering defaults makes every key visible to AutomaticEnv.
	d := Default()
	v.SetDefault("app_name", d.AppName)
	v.SetDefault("env", d.Env)
	v.SetDefault("redis_addr", d.RedisAddr)
	v.SetDefault("redis_db", d.RedisDB)
	v.SetDefault("redis_password", d.RedisPassword)
	v.SetDefault("queue_key", d.QueueKey)
	v.SetDefault("batch_size", d.BatchSize)
	v.SetDefault("batch_interval_seconds", d.BatchIntervalSeconds)
	v.SetDefault("queue_max_size", d.QueueMaxSize)
	v.SetDefault("retry_count", d.RetryCount)
	v.SetDefault("max_connections", d.MaxConnections)
	v.SetDefault("shutdown_timeout_seconds", d.ShutdownTimeoutSeconds)

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to read configuration from environment: %w", err)
	}
	return cfg, nil
}

// Validate reports the first invalid setting. A sink is never constructed
// from a configuration that fails validation.
func (c *Config) Validate() error {
	if c.AppName == "" {
		return fmt.Errorf("app_name must not be empty")
	}
	if c.RedisAddr == "" {
		return fmt.Errorf("redis_addr must not be empty")
	}
	if c.QueueKey == "" {
		return fmt.Errorf("queue_key must not be empty")
	}
	if c.BatchSize < 1 {
		return fmt.Errorf("batch_size must be positive, got %d", c.BatchSize)
	}
	if c.BatchIntervalSeconds < 1 {
		return fmt.Errorf("batch_interval_seconds must be positive, got %d", c.BatchIntervalSeconds)
	}
	if c.QueueMaxSize < c.BatchSize {
		return fmt.Errorf("queue_max_size (%d) must be at least batch_size (%d)", c.QueueMaxSize, c.BatchSize)
	}
	if c.RetryCount < 1 {
		return fmt.Errorf("retry_count must be positive, got %d", c.RetryCount)
	}
	if c.MaxConnections < 1 {
		return fmt.Errorf("max_connections must be positive, got %d", c.MaxConnections)
	}
	if c.ShutdownTimeoutSeconds < 1 {
		return fmt.Errorf("shutdown_timeout_seconds must be positive, got %d", c.ShutdownTimeoutSeconds)
	}
	return nil
}

// BatchInterval returns the batch interval as a duration.
func (c *Config) BatchInterval() time.Duration {
	return time.Duration(c.BatchIntervalSeconds) * time.Second
}

// ShutdownTimeout returns the shutdown deadline as a duration.
func (c *Config) ShutdownTimeout() time.Duration {
	return time.Duration(c.ShutdownTimeoutSeconds) * time.Second
}
