package transport

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient(t *testing.T, addr string) *redis.Client {
	t.Helper()
	return redis.NewClient(&redis.Options{Addr: addr})
}

func TestPool_AcquireRelease(t *testing.T) {
	mr := miniredis.RunT(t)
	p := NewPool(testClient(t, mr.Addr()), 2)
	defer p.Close()

	ctx := context.Background()

	conn1, err := p.Acquire(ctx)
	require.NoError(t, err)
	conn2, err := p.Acquire(ctx)
	require.NoError(t, err)

	// Pool exhausted: a bounded wait must fail rather than exceed the cap.
	waitCtx, cancel := context.WithTimeout(ctx, 100*time.Millisecond)
	defer cancel()
	_, err = p.Acquire(waitCtx)
	assert.Error(t, err)

	p.Release(ctx, conn1, true)
	conn3, err := p.Acquire(ctx)
	require.NoError(t, err)

	p.Release(ctx, conn2, true)
	p.Release(ctx, conn3, true)
}

func TestPool_BoundedUnderConcurrency(t *testing.T) {
	mr := miniredis.RunT(t)
	p := NewPool(testClient(t, mr.Addr()), 2)
	defer p.Close()

	var inUse atomic.Int32
	var peak atomic.Int32
	var wg sync.WaitGroup

	wg.Add(10)
	for i := 0; i < 10; i++ {
		go func() {
			defer wg.Done()
			ctx := context.Background()
			conn, err := p.Acquire(ctx)
			if err != nil {
				t.Errorf("Acquire failed: %v", err)
				return
			}
			n := inUse.Add(1)
			for {
				old := peak.Load()
				if n <= old || peak.CompareAndSwap(old, n) {
					break
				}
			}
			time.Sleep(10 * time.Millisecond)
			inUse.Add(-1)
			p.Release(ctx, conn, true)
		}()
	}
	wg.Wait()

	assert.LessOrEqual(t, peak.Load(), int32(2))
}

func TestPool_UnhealthyEntryEvicted(t *testing.T) {
	mr := miniredis.RunT(t)
	p := NewPool(testClient(t, mr.Addr()), 1)
	defer p.Close()

	ctx := context.Background()

	conn, err := p.Acquire(ctx)
	require.NoError(t, err)
	p.Release(ctx, conn, false)

	// The evicted entry is lazily replaced: the next acquire still works
	// and the replacement passes its health check.
	conn2, err := p.Acquire(ctx)
	require.NoError(t, err)
	require.NoError(t, conn2.Ping(ctx).Err())
	p.Release(ctx, conn2, true)
}

func TestPool_AcquireFailsWhenServerDown(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	p := NewPool(testClient(t, addr), 1)
	defer p.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err := p.Acquire(ctx)
	assert.Error(t, err)
}
