package runtime

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/voicekey-io/voicekey/internal/action"
	"github.com/voicekey-io/voicekey/internal/observe"
)

const (
	// DefaultQueueDepth bounds the action queue. The coordinator blocks on a
	// full queue, which backpressures transcript handling instead of
	// reordering or dropping actions.
	DefaultQueueDepth = 16

	// DefaultDrainTimeout bounds how long shutdown waits for queued actions.
	DefaultDrainTimeout = 3 * time.Second

	// DefaultCancelGrace is the extra time a timed-out shutdown gives the
	// in-flight action before cancelling its context. Cancelling mid-action
	// can leave half-typed text behind, so the worker gets a short chance to
	// finish cleanly.
	DefaultCancelGrace = 500 * time.Millisecond
)

// ErrDispatcherClosed rejects enqueues after shutdown began.
var ErrDispatcherClosed = errors.New("dispatcher is closed")

// DrainResult reports how shutdown disposed of the queue.
type DrainResult struct {
	Drained   int64
	Discarded int64
	TimedOut  bool
}

// Dispatcher executes actions one at a time, in enqueue order, on a single
// worker goroutine. Ordering is the contract: two finals never race each
// other into the keyboard.
type Dispatcher struct {
	exec    func(ctx context.Context, req action.Request) error
	onError func(req action.Request, err error)
	logger  *slog.Logger
	metrics *observe.Metrics

	queue chan action.Request
	done  chan struct{}

	mu     sync.RWMutex
	closed bool
	cancel context.CancelFunc

	discarding atomic.Bool
	drained    atomic.Int64
	discarded  atomic.Int64
}

// NewDispatcher builds a dispatcher. onError may be nil; when set it fires
// for every failed action so the coordinator can apply its safety fallback.
func NewDispatcher(exec func(ctx context.Context, req action.Request) error, onError func(req action.Request, err error), logger *slog.Logger, metrics *observe.Metrics) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	if metrics == nil {
		metrics = observe.Default()
	}
	return &Dispatcher{
		exec:    exec,
		onError: onError,
		logger:  logger,
		metrics: metrics,
		queue:   make(chan action.Request, DefaultQueueDepth),
		done:    make(chan struct{}),
	}
}

// Run consumes the queue until Shutdown closes it. It must be called
// exactly once, typically on its own goroutine.
func (d *Dispatcher) Run(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	d.mu.Lock()
	d.cancel = cancel
	d.mu.Unlock()
	defer cancel()
	defer close(d.done)

	for req := range d.queue {
		if d.discarding.Load() {
			d.discarded.Add(1)
			continue
		}

		start := time.Now()
		err := d.exec(ctx, req)
		d.metrics.CountDispatch(ctx, string(req.Kind), time.Since(start).Seconds())
		d.drained.Add(1)

		if err != nil {
			d.logger.Error("action dispatch failed",
				"command", req.CommandID,
				"kind", string(req.Kind),
				"error", err)
			if d.onError != nil {
				d.onError(req, err)
			}
		}
	}
}

// Enqueue appends one action, blocking while the queue is full.
func (d *Dispatcher) Enqueue(req action.Request) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return ErrDispatcherClosed
	}
	d.queue <- req
	return nil
}

// Shutdown stops intake and waits up to timeout for the worker to drain the
// queue. Past the deadline remaining queued actions are discarded; the
// action already running keeps its context for a short grace so it can
// finish, and is cancelled only if it outlives that too.
func (d *Dispatcher) Shutdown(timeout time.Duration) DrainResult {
	if timeout <= 0 {
		timeout = DefaultDrainTimeout
	}

	d.mu.Lock()
	alreadyClosed := d.closed
	d.closed = true
	cancel := d.cancel
	d.mu.Unlock()

	if !alreadyClosed {
		close(d.queue)
	}

	result := DrainResult{}
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-d.done:
	case <-timer.C:
		result.TimedOut = true
		d.discarding.Store(true)

		grace := time.NewTimer(DefaultCancelGrace)
		defer grace.Stop()
		select {
		case <-d.done:
		case <-grace.C:
			if cancel != nil {
				cancel()
			}
			<-d.done
		}
	}

	result.Drained = d.drained.Load()
	result.Discarded = d.discarded.Load()
	return result
}
