package sink

import (
	"context"
	"time"

	"github.com/CodingOX/plumelog-go/pkg/model"
)

// runBatcher is the single background loop driving the pipeline. It drains
// the buffer when the buffered count reaches BatchSize (edge-notified by
// Enqueue through the kick channel) or when the batch interval elapses,
// whichever comes first. Each non-empty batch is delivered on its own
// goroutine; concurrency is bounded implicitly by the connection pool.
func (s *Sink) runBatcher(ctx context.Context) {
	defer s.loopWG.Done()

	ticker := time.NewTicker(s.cfg.BatchInterval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.dispatchPending()
		case <-s.kick:
			s.dispatchPending()
		}
	}
}

// dispatchPending drains everything buffered, in BatchSize slices, and hands
// each slice to the delivery engine. An empty drain is a no-op: the loop
// never sends empty batches.
func (s *Sink) dispatchPending() {
	for {
		recs := s.buf.Drain(s.cfg.BatchSize)
		if len(recs) == 0 {
			return
		}
		s.dispatch(model.Batch(recs))
		if len(recs) < s.cfg.BatchSize {
			return
		}
	}
}

func (s *Sink) dispatch(batch model.Batch) {
	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()
		s.deliver(s.sendCtx, batch)
	}()
}
