package clock

import (
	"container/heap"
	"slices"
	"sync/atomic"
	"time"

	"tradecore/internal/errors"
	"tradecore/internal/identifier"
	"tradecore/pkg/exception"
)

// timerState tracks the lifecycle of a timer.
type timerState uint32

const (
	timerStateScheduled timerState = iota
	timerStateCancelled
	timerStateExpired
)

func (s timerState) String() string {
	switch s {
	case timerStateScheduled:
		return "scheduled"
	case timerStateCancelled:
		return "cancelled"
	case timerStateExpired:
		return "expired"
	default:
		return "unknown"
	}
}

func (s timerState) isTerminal() bool {
	return s == timerStateCancelled || s == timerStateExpired
}

type timer struct {
	name     string
	interval time.Duration
	start    time.Time
	stop     time.Time
	next     time.Time
	handler  Handler

	seq   uint64
	index int
	state atomic.Uint32

	// lastDue is the position of the timer's last fire in the live batch being
	// dispatched; only the live scheduler goroutine touches it.
	lastDue int
}

func (t *timer) State() timerState {
	return timerState(t.state.Load())
}

func (t *timer) setState(s timerState) {
	t.state.Store(uint32(s))
}

func (t *timer) hasStop() bool {
	return !t.stop.IsZero()
}

// timerHeap orders timers by next fire time, then by registration order.
type timerHeap []*timer

func (h timerHeap) Len() int { return len(h) }

func (h timerHeap) Less(i, j int) bool {
	if h[i].next.Equal(h[j].next) {
		return h[i].seq < h[j].seq
	}
	return h[i].next.Before(h[j].next)
}

func (h timerHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *timerHeap) Push(x any) {
	t := x.(*timer)
	t.index = len(*h)
	*h = append(*h, t)
}

func (h *timerHeap) Pop() any {
	old := *h
	n := len(old)
	t := old[n-1]
	old[n-1] = nil
	t.index = -1
	*h = old[:n-1]
	return t
}

// timerQueue is the timer engine shared by both clocks. It is not safe for
// concurrent use; LiveClock guards it with a mutex.
type timerQueue struct {
	timers map[string]*timer
	order  timerHeap
	seq    uint64
}

func newTimerQueue() *timerQueue {
	return &timerQueue{timers: make(map[string]*timer)}
}

func (q *timerQueue) add(name string, interval time.Duration, handler Handler, start, stop time.Time) (*timer, error) {
	if identifier.IsBlank(name) {
		return nil, errors.Wrapf(exception.ErrValueFormat, "timer name %q is empty", name)
	}

	if _, ok := q.timers[name]; ok {
		return nil, errors.Wrapf(exception.ErrDuplicateTimer, "timer %q", name)
	}

	if interval <= 0 {
		return nil, errors.Wrapf(exception.ErrValueRange, "timer %q interval %s must be positive", name, interval)
	}

	if handler == nil {
		return nil, errors.Wrapf(exception.ErrNilInstance, "timer %q handler", name)
	}

	next := start.Add(interval)
	if !stop.IsZero() && stop.Before(next) {
		return nil, errors.Wrapf(exception.ErrValueRange, "timer %q stop time %s is before first fire %s", name, stop, next)
	}

	q.seq++
	t := &timer{
		name:     name,
		interval: interval,
		start:    start,
		stop:     stop,
		next:     next,
		handler:  handler,
		seq:      q.seq,
	}
	q.timers[name] = t
	heap.Push(&q.order, t)
	return t, nil
}

// cancel removes a scheduled timer and marks it cancelled.
func (q *timerQueue) cancel(name string) (*timer, error) {
	t, ok := q.timers[name]
	if !ok {
		return nil, errors.Wrapf(exception.ErrTimerNotFound, "timer %q", name)
	}

	q.remove(t)
	t.setState(timerStateCancelled)
	return t, nil
}

func (q *timerQueue) cancelAll() []*timer {
	cancelled := make([]*timer, 0, len(q.order))
	for _, t := range q.order {
		t.setState(timerStateCancelled)
		cancelled = append(cancelled, t)
	}

	q.timers = make(map[string]*timer)
	q.order = nil
	return cancelled
}

func (q *timerQueue) remove(t *timer) {
	delete(q.timers, t.name)
	if t.index >= 0 && t.index < len(q.order) && q.order[t.index] == t {
		heap.Remove(&q.order, t.index)
	}
}

// peek returns the earliest pending fire time.
func (q *timerQueue) peek() (time.Time, bool) {
	if len(q.order) == 0 {
		return time.Time{}, false
	}

	return q.order[0].next, true
}

// popDue takes the earliest fire scheduled at or before upTo and advances that timer
// by one interval. A timer whose next fire would pass its stop time is removed and
// marked expired; the fire being returned is its last one.
func (q *timerQueue) popDue(upTo time.Time) (t *timer, scheduled time.Time, ok bool) {
	if len(q.order) == 0 {
		return nil, time.Time{}, false
	}

	t = q.order[0]
	if t.next.After(upTo) {
		return nil, time.Time{}, false
	}

	scheduled = t.next
	t.next = t.next.Add(t.interval)
	if t.hasStop() && t.next.After(t.stop) {
		q.remove(t)
		t.setState(timerStateExpired)
	} else {
		heap.Fix(&q.order, 0)
	}

	return t, scheduled, true
}

func (q *timerQueue) names() []string {
	names := make([]string, 0, len(q.timers))
	for name := range q.timers {
		names = append(names, name)
	}

	slices.Sort(names)
	return names
}

func (q *timerQueue) count() int {
	return len(q.timers)
}

func (q *timerQueue) nextFireTime(name string) (time.Time, bool) {
	t, ok := q.timers[name]
	if !ok {
		return time.Time{}, false
	}

	return t.next, true
}
