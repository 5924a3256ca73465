package obs

import (
	"fmt"
	"sync/atomic"
	"time"
)

// Metrics collects lightweight counters and latency stats of timer dispatch.
type Metrics struct {
	eventsFired     uint64
	handlerFailures uint64
	handlerPanics   uint64
	timersCancelled uint64
	timersExpired   uint64
	queueDrops      uint64

	drift           LatencyStats
	handlerDuration LatencyStats
}

// LatencyStats aggregates duration samples in nanoseconds.
type LatencyStats struct {
	count uint64
	sum   uint64
	min   uint64 // min+1, zero while empty
	max   uint64
}

// LatencySnapshot is a point-in-time view of latency stats.
type LatencySnapshot struct {
	Count uint64
	Min   time.Duration
	Max   time.Duration
	Avg   time.Duration
}

func (s LatencySnapshot) String() string {
	return fmt.Sprintf("count=%d min=%s avg=%s max=%s", s.Count, s.Min, s.Avg, s.Max)
}

// Snapshot captures the current metrics values.
type Snapshot struct {
	EventsFired     uint64
	HandlerFailures uint64
	HandlerPanics   uint64
	TimersCancelled uint64
	TimersExpired   uint64
	QueueDrops      uint64
	Drift           LatencySnapshot
	HandlerDuration LatencySnapshot
}

// NewMetrics allocates a metrics container.
func NewMetrics() *Metrics {
	return &Metrics{}
}

// ObserveFire counts a delivered event and records how late it was delivered.
func (m *Metrics) ObserveFire(drift time.Duration) {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.eventsFired, 1)
	m.drift.Observe(drift)
}

// ObserveHandler measures handler execution time.
func (m *Metrics) ObserveHandler(d time.Duration) {
	if m == nil {
		return
	}
	m.handlerDuration.Observe(d)
}

// IncHandlerFailure records a handler that returned an error.
func (m *Metrics) IncHandlerFailure() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.handlerFailures, 1)
}

// IncHandlerPanic records a handler that panicked.
func (m *Metrics) IncHandlerPanic() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.handlerPanics, 1)
}

func (m *Metrics) IncTimerCancelled() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.timersCancelled, 1)
}

func (m *Metrics) IncTimerExpired() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.timersExpired, 1)
}

// IncQueueDrop records an event dropped by a full queue.
func (m *Metrics) IncQueueDrop() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.queueDrops, 1)
}

// Snapshot returns a copy of the current metrics values.
func (m *Metrics) Snapshot() Snapshot {
	if m == nil {
		return Snapshot{}
	}
	return Snapshot{
		EventsFired:     atomic.LoadUint64(&m.eventsFired),
		HandlerFailures: atomic.LoadUint64(&m.handlerFailures),
		HandlerPanics:   atomic.LoadUint64(&m.handlerPanics),
		TimersCancelled: atomic.LoadUint64(&m.timersCancelled),
		TimersExpired:   atomic.LoadUint64(&m.timersExpired),
		QueueDrops:      atomic.LoadUint64(&m.queueDrops),
		Drift:           m.drift.Snapshot(),
		HandlerDuration: m.handlerDuration.Snapshot(),
	}
}

// Observe records a duration sample. Negative samples are recorded as zero.
func (l *LatencyStats) Observe(d time.Duration) {
	if d < 0 {
		d = 0
	}
	nanos := uint64(d)
	atomic.AddUint64(&l.count, 1)
	atomic.AddUint64(&l.sum, nanos)

	for {
		min := atomic.LoadUint64(&l.min)
		if min != 0 && nanos+1 >= min {
			break
		}
		if atomic.CompareAndSwapUint64(&l.min, min, nanos+1) {
			break
		}
	}

	for {
		max := atomic.LoadUint64(&l.max)
		if nanos <= max {
			break
		}
		if atomic.CompareAndSwapUint64(&l.max, max, nanos) {
			break
		}
	}
}

// Snapshot returns the aggregated latency stats.
func (l *LatencyStats) Snapshot() LatencySnapshot {
	count := atomic.LoadUint64(&l.count)
	if count == 0 {
		return LatencySnapshot{}
	}
	sum := atomic.LoadUint64(&l.sum)
	min := atomic.LoadUint64(&l.min)
	if min != 0 {
		min--
	}
	max := atomic.LoadUint64(&l.max)
	return LatencySnapshot{
		Count: count,
		Min:   time.Duration(min),
		Max:   time.Duration(max),
		Avg:   time.Duration(sum / count),
	}
}
