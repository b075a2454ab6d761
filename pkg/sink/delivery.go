package sink

import (
	"context"
	"time"

	retry "github.com/avast/retry-go/v4"

	"github.com/CodingOX/plumelog-go/pkg/model"
	"github.com/CodingOX/plumelog-go/pkg/transport"
)

// Outcome is the terminal result of delivering one batch.
type Outcome int

const (
	// Delivered means the batch was pushed onto the remote queue.
	Delivered Outcome = iota
	// Dropped means the batch was abandoned after exhausting retries or
	// hitting a fatal error.
	Dropped
)

const (
	retryBaseDelay = 100 * time.Millisecond
	retryMaxDelay  = 10 * time.Second
	retryMaxJitter = 100 * time.Millisecond
)

// deliver encodes the batch once, then pushes it through the writer with
// exponential backoff on transient failures. Fatal errors (authentication,
// malformed payload) abort immediately. The guarantee is at-least-once: a
// retry after a partial failure may duplicate a push, it never loses one
// outside the explicit drop policy.
func (s *Sink) deliver(ctx context.Context, batch model.Batch) Outcome {
	entries, skipped := batch.Encode()
	if skipped > 0 {
		s.counters.encodeSkipped.Add(uint64(skipped))
		s.log.Warnf("skipped %d unencodable records", skipped)
	}
	if len(entries) == 0 {
		return Delivered
	}

	err := retry.Do(
		func() error {
			return s.writer.PushBatch(ctx, entries)
		},
		retry.Context(ctx),
		retry.Attempts(uint(s.cfg.RetryCount)),
		retry.Delay(retryBaseDelay),
		retry.MaxDelay(retryMaxDelay),
		retry.MaxJitter(retryMaxJitter),
		retry.DelayType(retry.CombineDelay(retry.BackOffDelay, retry.RandomDelay)),
		retry.RetryIf(func(err error) bool {
			return !transport.IsFatal(err)
		}),
		retry.LastErrorOnly(true),
	)
	if err == nil {
		s.counters.deliveredBatches.Add(1)
		s.counters.deliveredRecords.Add(uint64(len(entries)))
		return Delivered
	}

	s.counters.droppedBatches.Add(1)
	s.counters.droppedRecords.Add(uint64(batch.Records()))
	s.log.WithError(err).Warnf("dropping batch of %d records after %d attempts", batch.Records(), s.cfg.RetryCount)
	s.reportError(DeliveryError{Records: batch.Records(), Err: err})
	return Dropped
}
