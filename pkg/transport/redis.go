// Package transport performs the actual writes against the remote queue and
// owns the connection pool in front of it.
package transport

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/CodingOX/plumelog-go/pkg/config"
)

const (
	dialTimeout  = 5 * time.Second
	ioTimeout    = 5 * time.Second
	minIdleConns = 0
)

// Writer pushes a batch of encoded records onto the remote queue. The sink's
// delivery engine drives it; one PushBatch call is one delivery attempt.
type Writer interface {
	PushBatch(ctx context.Context, entries [][]byte) error
	Close() error
}

// RedisWriter appends batches to a named Redis list with a single RPUSH per
// batch, using pooled dedicated connections.
type RedisWriter struct {
	pool *Pool
	key  string
}

// NewRedisWriter builds a writer for the queue named in cfg. Connections are
// established lazily, so this never fails on a transient Redis outage.
func NewRedisWriter(cfg *config.Config) *RedisWriter {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.RedisAddr,
		Password:     cfg.RedisPassword,
		DB:           cfg.RedisDB,
		DialTimeout:  dialTimeout,
		ReadTimeout:  ioTimeout,
		WriteTimeout: ioTimeout,
		MinIdleConns: minIdleConns,
	})
	return &RedisWriter{
		pool: NewPool(client, cfg.MaxConnections),
		key:  cfg.QueueKey,
	}
}

// PushBatch appends all entries to the queue in order, in one command.
func (w *RedisWriter) PushBatch(ctx context.Context, entries [][]byte) error {
	if len(entries) == 0 {
		return nil
	}

	conn, err := w.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("failed to acquire redis connection: %w", err)
	}

	vals := make([]interface{}, len(entries))
	for i, e := range entries {
		vals[i] = e
	}

	if err := conn.RPush(ctx, w.key, vals...).Err(); err != nil {
		w.pool.Release(ctx, conn, false)
		return fmt.Errorf("failed to rpush %d entries to %s: %w", len(entries), w.key, err)
	}

	w.pool.Release(ctx, conn, true)
	return nil
}

// Close releases all pooled connections.
func (w *RedisWriter) Close() error {
	return w.pool.Close()
}
