package bus

import (
	"context"
	"sync"
	"sync/atomic"

	"tradecore/internal/clock"
	"tradecore/internal/obs"
	"tradecore/pkg/exception"
)

// Queue is a bounded, non-blocking queue of timer events. It decouples the live
// scheduler from consumers that may block on I/O.
type Queue struct {
	mu      sync.RWMutex
	ch      chan clock.TimeEvent
	closed  atomic.Bool
	metrics *obs.Metrics
}

// NewQueue allocates a queue with the given capacity. Dropped events are counted on
// metrics, which may be nil.
func NewQueue(capacity int, metrics *obs.Metrics) *Queue {
	if capacity <= 0 {
		capacity = 1
	}
	return &Queue{ch: make(chan clock.TimeEvent, capacity), metrics: metrics}
}

// TryPublish enqueues an event without blocking.
func (q *Queue) TryPublish(e clock.TimeEvent) error {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed.Load() {
		return exception.ErrQueueClosed
	}
	select {
	case q.ch <- e:
		return nil
	default:
		q.metrics.IncQueueDrop()
		return exception.ErrQueueFull
	}
}

// Handler publishes every event it receives, so a queue can be registered directly as
// a timer handler.
func (q *Queue) Handler() clock.Handler {
	return q.TryPublish
}

// Len reports the number of buffered events.
func (q *Queue) Len() int {
	return len(q.ch)
}

// Close stops the queue from accepting new events. Buffered events are still delivered
// by Run.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed.CompareAndSwap(false, true) {
		close(q.ch)
	}
}

// Run consumes events until the context is done or the queue is closed and drained.
func (q *Queue) Run(ctx context.Context, handler func(clock.TimeEvent)) {
	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-q.ch:
			if !ok {
				return
			}
			handler(e)
		}
	}
}
