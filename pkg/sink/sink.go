// Package sink implements the delivery pipeline behind the logging
// front-end: a bounded buffer, a time/size-triggered batcher, and an
// asynchronous delivery engine with retry, all owned by a single facade.
package sink

import (
	"context"
	"os"
	"sync"
	"sync/atomic"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/CodingOX/plumelog-go/pkg/buffer"
	"github.com/CodingOX/plumelog-go/pkg/config"
	"github.com/CodingOX/plumelog-go/pkg/model"
	"github.com/CodingOX/plumelog-go/pkg/transport"
)

type state int32

const (
	stateCreated state = iota
	stateRunning
	stateDraining
	stateClosed
)

const errChanDepth = 16

// Sink is the object the logging front-end drives. It owns the buffer, the
// batcher loop, the delivery engine and the transport writer.
//
// Lifecycle: created -> running (Start) -> draining (Close) -> closed.
// Enqueue is accepted while created (records wait for Start) and running; it
// is rejected and counted once draining begins. Multiple independent sinks
// may coexist; there is no process-wide state.
type Sink struct {
	cfg    *config.Config
	meta   *model.Metadata
	buf    *buffer.Buffer
	writer transport.Writer
	log    *log.Entry

	state atomic.Int32

	// kick wakes the batcher when the buffered count reaches BatchSize.
	kick chan struct{}

	loopCtx  context.Context
	loopStop context.CancelFunc
	sendCtx  context.Context
	sendStop context.CancelFunc
	loopWG   sync.WaitGroup
	inflight sync.WaitGroup

	errMu     sync.Mutex
	errCh     chan DeliveryError
	errClosed bool

	counters  counters
	closeOnce sync.Once
	closeErr  error
}

// New validates cfg and builds a sink backed by a Redis writer. Connections
// are established lazily: construction succeeds during a remote outage.
func New(cfg *config.Config) (*Sink, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return newSink(cfg, transport.NewRedisWriter(cfg))
}

// NewWithWriter is New with a caller-supplied transport, used for testing
// and for shipping to queues other than Redis.
func NewWithWriter(cfg *config.Config, w transport.Writer) (*Sink, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return newSink(cfg, w)
}

func newSink(cfg *config.Config, w transport.Writer) (*Sink, error) {
	buf, err := buffer.New(cfg.QueueMaxSize)
	if err != nil {
		return nil, err
	}

	hostname, _ := os.Hostname()
	loopCtx, loopStop := context.WithCancel(context.Background())
	sendCtx, sendStop := context.WithCancel(context.Background())

	return &Sink{
		cfg: cfg,
		meta: &model.Metadata{
			AppName:    cfg.AppName,
			Env:        cfg.Env,
			ServerName: hostname,
			ProcessID:  os.Getpid(),
		},
		buf:      buf,
		writer:   w,
		log:      log.WithField("app_name", cfg.AppName),
		kick:     make(chan struct{}, 1),
		loopCtx:  loopCtx,
		loopStop: loopStop,
		sendCtx:  sendCtx,
		sendStop: sendStop,
		errCh:    make(chan DeliveryError, errChanDepth),
	}, nil
}

// Start spawns the batcher loop. It may only be called once.
func (s *Sink) Start() error {
	if !s.state.CompareAndSwap(int32(stateCreated), int32(stateRunning)) {
		if state(s.state.Load()) == stateRunning {
			return ErrAlreadyStarted
		}
		return ErrClosed
	}
	s.loopWG.Add(1)
	go s.runBatcher(s.loopCtx)
	return nil
}

// Enqueue accepts one record. It is synchronous, never blocks on I/O and
// never panics into the caller's logging path; its only blocking is the
// buffer's mutex. The record's metadata and timestamp are stamped here if
// unset. It returns false when the record was rejected (sink closing) or
// when accepting it evicted the oldest buffered record.
func (s *Sink) Enqueue(rec *model.LogRecord) bool {
	if rec == nil {
		return false
	}
	switch state(s.state.Load()) {
	case stateDraining, stateClosed:
		s.counters.rejected.Add(1)
		return false
	}

	if rec.Meta == nil {
		rec.Meta = s.meta
	}
	if rec.Time.IsZero() {
		rec.Time = time.Now()
	}

	ok := s.buf.Enqueue(rec)
	if s.buf.Len() >= s.cfg.BatchSize {
		select {
		case s.kick <- struct{}{}:
		default:
		}
	}
	return ok
}

// Flush forces an immediate drain and synchronous send of everything
// buffered, without closing the sink. Delivery failures surface through the
// error channel and counters, not the return value.
func (s *Sink) Flush(ctx context.Context) error {
	if state(s.state.Load()) == stateClosed {
		return ErrClosed
	}
	for {
		recs := s.buf.Drain(s.cfg.BatchSize)
		if len(recs) == 0 {
			return nil
		}
		s.deliver(ctx, model.Batch(recs))
	}
}

// Close drains and terminates the sink: the batcher stops, remaining
// buffered records are sent, and in-flight deliveries get until the shutdown
// deadline (or ctx, whichever expires first) to finish. On deadline expiry
// outstanding sends are cancelled and their records counted as dropped;
// Close never hangs. It is idempotent and always leaves the sink closed.
func (s *Sink) Close(ctx context.Context) error {
	s.closeOnce.Do(func() {
		s.closeErr = s.close(ctx)
	})
	return s.closeErr
}

func (s *Sink) close(ctx context.Context) error {
	s.state.Store(int32(stateDraining))
	s.loopStop()
	s.loopWG.Wait()

	deadlineCtx, cancel := context.WithTimeout(ctx, s.cfg.ShutdownTimeout())
	defer cancel()

	// Final forced drain of whatever the batcher had not picked up yet.
	for {
		recs := s.buf.Drain(s.cfg.BatchSize)
		if len(recs) == 0 {
			break
		}
		s.dispatch(model.Batch(recs))
	}

	done := make(chan struct{})
	go func() {
		s.inflight.Wait()
		close(done)
	}()

	var timedOut bool
	select {
	case <-done:
	case <-deadlineCtx.Done():
		timedOut = true
		s.sendStop()
		// Senders abort promptly once their context is cancelled.
		<-done
	}

	if leftover := s.buf.Len(); leftover > 0 {
		s.counters.shutdownDropped.Add(uint64(leftover))
	}
	s.sendStop()
	s.state.Store(int32(stateClosed))

	werr := s.writer.Close()
	if werr != nil {
		s.log.WithError(werr).Warn("error closing transport")
	}

	s.errMu.Lock()
	s.errClosed = true
	close(s.errCh)
	s.errMu.Unlock()

	if timedOut {
		return ErrShutdownTimeout
	}
	return werr
}

// Errors returns the channel carrying delivery-failure events. The channel
// is buffered and lossy: if nobody is reading, events are logged and
// discarded rather than ever stalling delivery. It is closed by Close.
func (s *Sink) Errors() <-chan DeliveryError { return s.errCh }

// Stats returns a snapshot of the sink's counters.
func (s *Sink) Stats() Stats {
	return Stats{
		OverflowDropped:  s.buf.Dropped(),
		RejectedRecords:  s.counters.rejected.Load(),
		ShutdownDropped:  s.counters.shutdownDropped.Load(),
		EncodeSkipped:    s.counters.encodeSkipped.Load(),
		DroppedBatches:   s.counters.droppedBatches.Load(),
		DroppedRecords:   s.counters.droppedRecords.Load(),
		DeliveredBatches: s.counters.deliveredBatches.Load(),
		DeliveredRecords: s.counters.deliveredRecords.Load(),
	}
}

func (s *Sink) reportError(e DeliveryError) {
	s.errMu.Lock()
	defer s.errMu.Unlock()
	if s.errClosed {
		s.log.WithError(e.Err).Warnf("delivery failure after close for %d records", e.Records)
		return
	}
	select {
	case s.errCh <- e:
	default:
		s.log.WithError(e.Err).Warnf("error channel full, discarding event for %d records", e.Records)
	}
}
