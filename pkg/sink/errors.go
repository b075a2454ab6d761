package sink

import (
	"errors"
	"fmt"
)

var (
	// ErrAlreadyStarted is returned by Start after the first call.
	ErrAlreadyStarted = errors.New("sink already started")

	// ErrClosed is returned by operations on a closed sink.
	ErrClosed = errors.New("sink is closed")

	// ErrShutdownTimeout is returned by Close when the drain deadline
	// expired with deliveries still outstanding. The sink still closes;
	// the abandoned records are counted in Stats.
	ErrShutdownTimeout = errors.New("shutdown deadline expired before drain completed")
)

// DeliveryError describes one batch that could not be delivered. Events are
// emitted on the channel returned by Errors.
type DeliveryError struct {
	// Records is the number of records in the failed batch.
	Records int
	// Err is the last error observed before giving up.
	Err error
}

func (e DeliveryError) Error() string {
	return fmt.Sprintf("delivery failed for %d records: %v", e.Records, e.Err)
}

func (e DeliveryError) Unwrap() error { return e.Err }
