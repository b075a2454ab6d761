package sink

import "sync/atomic"

// Stats is a point-in-time snapshot of the sink's counters.
type Stats struct {
	// OverflowDropped counts records evicted because the buffer was full.
	OverflowDropped uint64
	// RejectedRecords counts enqueue calls refused after close began.
	RejectedRecords uint64
	// ShutdownDropped counts records still buffered when the shutdown
	// deadline expired.
	ShutdownDropped uint64
	// EncodeSkipped counts records skipped because they could not be
	// serialized.
	EncodeSkipped uint64
	// DroppedBatches counts batches abandoned after exhausting retries.
	DroppedBatches uint64
	// DroppedRecords counts the records inside those batches.
	DroppedRecords uint64
	// DeliveredBatches and DeliveredRecords count successful pushes.
	DeliveredBatches uint64
	DeliveredRecords uint64
}

type counters struct {
	rejected         atomic.Uint64
	shutdownDropped  atomic.Uint64
	encodeSkipped    atomic.Uint64
	droppedBatches   atomic.Uint64
	droppedRecords   atomic.Uint64
	deliveredBatches atomic.Uint64
	deliveredRecords atomic.Uint64
}
