package transport

import (
	"context"
	"time"

	pool "github.com/jolestar/go-commons-pool/v2"
	"github.com/redis/go-redis/v9"
)

const validatePingTimeout = time.Second

// Pool manages a bounded set of dedicated Redis connections. Entries are
// created lazily on first demand, so constructing a pool succeeds even while
// the server is unreachable. Acquire blocks until an idle entry exists or the
// pool has room to create one; that wait is the sink's backpressure valve and
// is only ever felt by the delivery engine, never by log producers.
type Pool struct {
	client *redis.Client
	inner  *pool.ObjectPool
}

// NewPool builds a pool of at most maxConns connections on top of client.
func NewPool(client *redis.Client, maxConns int) *Pool {
	factory := pool.NewPooledObjectFactory(
		func(ctx context.Context) (interface{}, error) {
			// client.Conn dials lazily; the borrow-time ping below is
			// what actually detects an unreachable server.
			return client.Conn(), nil
		},
		func(ctx context.Context, object *pool.PooledObject) error {
			return object.Object.(*redis.Conn).Close()
		},
		func(ctx context.Context, object *pool.PooledObject) bool {
			pingCtx, cancel := context.WithTimeout(ctx, validatePingTimeout)
			defer cancel()
			return object.Object.(*redis.Conn).Ping(pingCtx).Err() == nil
		},
		nil,
		nil,
	)

	cfg := pool.NewDefaultPoolConfig()
	cfg.MaxTotal = maxConns
	cfg.MaxIdle = maxConns
	cfg.MinIdle = 0
	cfg.TestOnBorrow = true
	cfg.BlockWhenExhausted = true

	return &Pool{
		client: client,
		inner:  pool.NewObjectPool(context.Background(), factory, cfg),
	}
}

// Acquire checks out a verified connection, waiting if all entries are in
// use. It fails when ctx expires or the server cannot be reached.
func (p *Pool) Acquire(ctx context.Context) (*redis.Conn, error) {
	obj, err := p.inner.BorrowObject(ctx)
	if err != nil {
		return nil, err
	}
	return obj.(*redis.Conn), nil
}

// Release returns conn to the pool. An unhealthy connection is evicted and
// closed; it is never handed to a later Acquire.
func (p *Pool) Release(ctx context.Context, conn *redis.Conn, healthy bool) {
	if healthy {
		_ = p.inner.ReturnObject(ctx, conn)
		return
	}
	_ = p.inner.InvalidateObject(ctx, conn)
}

// Close evicts all idle entries and closes the underlying client.
func (p *Pool) Close() error {
	p.inner.Close(context.Background())
	return p.client.Close()
}
