package clock

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"tradecore/internal/errors"
	"tradecore/internal/obs"
	"tradecore/pkg/exception"
)

// LiveClock reads the host clock and fires timers from a dedicated scheduler
// goroutine, started with the first timer.
//
// All methods are safe for concurrent use. Handlers run on the scheduler goroutine,
// one at a time, outside the timer lock, so they may set and cancel timers.
// Close must not be called from a handler.
type LiveClock struct {
	base     time.Time
	baseWall time.Time
	metrics  *obs.Metrics

	mu     sync.Mutex
	timers *timerQueue
	due    []liveFire

	wake      chan struct{}
	done      chan struct{}
	closed    atomic.Bool
	started   bool
	closeOnce sync.Once
	wg        sync.WaitGroup
}

type liveFire struct {
	timer     *timer
	scheduled time.Time
}

// NewLive creates a clock anchored at the current wall time.
func NewLive(opt ...Option) *LiveClock {
	now := time.Now()
	c := &LiveClock{
		base:     now,
		baseWall: now.UTC(),
		timers:   newTimerQueue(),
		wake:     make(chan struct{}, 1),
		done:     make(chan struct{}),
	}
	if len(opt) != 0 {
		c.metrics = opt[0].Metrics
	}
	return c
}

// UTCNow advances the construction wall time by monotonic elapsed time, so the
// result never goes backwards when the host clock is stepped.
func (c *LiveClock) UTCNow() time.Time {
	return c.baseWall.Add(time.Since(c.base))
}

func (c *LiveClock) UnixTime() float64 {
	return unixSeconds(c.UTCNow())
}

func (c *LiveClock) SetTimer(name string, interval time.Duration, handler Handler, opt ...TimerOption) error {
	start, stop := resolveTimerOption(c.UTCNow(), opt)
	return c.register(name, interval, handler, start, stop)
}

func (c *LiveClock) SetTimeAlert(name string, alertTime time.Time, handler Handler) error {
	now := c.UTCNow()
	alertTime = alertTime.UTC()
	interval := alertTime.Sub(now)
	if interval <= 0 {
		return errors.Wrapf(exception.ErrValueRange, "time alert %q at %s is not after %s", name, alertTime.Format(time.RFC3339Nano), now.Format(time.RFC3339Nano))
	}

	return c.register(name, interval, handler, now, alertTime)
}

// register adds a timer and starts the scheduler on first use. The closed check, the
// insert and the scheduler start share c.mu with Close, so nothing is registered and no
// scheduler is started once Close has begun.
func (c *LiveClock) register(name string, interval time.Duration, handler Handler, start, stop time.Time) error {
	c.mu.Lock()
	if c.closed.Load() {
		c.mu.Unlock()
		return exception.ErrClockClosed
	}

	_, err := c.timers.add(name, interval, handler, start, stop)
	if err == nil && !c.started {
		c.started = true
		c.wg.Add(1)
		go c.run()
	}
	c.mu.Unlock()
	if err != nil {
		return err
	}

	c.notify()
	return nil
}

// CancelTimer removes a timer. Fires already delivered are not retracted; fires
// collected but not yet delivered are skipped.
func (c *LiveClock) CancelTimer(name string) error {
	c.mu.Lock()
	_, err := c.timers.cancel(name)
	c.mu.Unlock()
	if err != nil {
		logCancelMiss(name)
		return err
	}

	c.metrics.IncTimerCancelled()
	c.notify()
	return nil
}

func (c *LiveClock) CancelTimers() {
	c.mu.Lock()
	cancelled := c.timers.cancelAll()
	c.mu.Unlock()

	for range cancelled {
		c.metrics.IncTimerCancelled()
	}
	c.notify()
}

func (c *LiveClock) TimerNames() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.timers.names()
}

func (c *LiveClock) TimerCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.timers.count()
}

func (c *LiveClock) NextFireTime(name string) (time.Time, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.timers.nextFireTime(name)
}

// Close stops the scheduler and waits for an in-flight handler to return. No handler
// runs after Close returns.
func (c *LiveClock) Close() {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.closed.Store(true)
		c.mu.Unlock()
		close(c.done)
	})
	c.wg.Wait()
}

func (c *LiveClock) notify() {
	select {
	case c.wake <- struct{}{}:
	default:
	}
}

func (c *LiveClock) run() {
	defer c.wg.Done()

	t := time.NewTimer(time.Hour)
	t.Stop()
	defer t.Stop()

	for {
		if c.closed.Load() {
			return
		}

		c.mu.Lock()
		next, ok := c.timers.peek()
		c.mu.Unlock()

		var wait <-chan time.Time
		if ok {
			d := next.Sub(c.UTCNow())
			if d <= 0 {
				c.fireDue()
				continue
			}
			t.Reset(d)
			wait = t.C
		}

		select {
		case <-c.done:
			return
		case <-c.wake:
			t.Stop()
		case <-wait:
			c.fireDue()
		}
	}
}

func (c *LiveClock) fireDue() {
	now := c.UTCNow()

	c.mu.Lock()
	due := c.due[:0]
	for {
		t, scheduled, ok := c.timers.popDue(now)
		if !ok {
			break
		}
		t.lastDue = len(due)
		due = append(due, liveFire{timer: t, scheduled: scheduled})
	}
	c.mu.Unlock()

	defer func() {
		clear(due)
		c.due = due[:0]
	}()

	for i := range due {
		if c.closed.Load() {
			return
		}

		f := due[i]
		if f.timer.State() == timerStateCancelled {
			continue
		}

		event := TimeEvent{
			ID:        uuid.New(),
			Name:      f.timer.name,
			Scheduled: f.scheduled,
			Actual:    c.UTCNow(),
		}
		c.metrics.ObserveFire(event.Drift())
		invoke(f.timer.handler, event, c.metrics)

		if f.timer.State() == timerStateExpired && f.timer.lastDue == i {
			c.metrics.IncTimerExpired()
			logExpired(f.timer)
		}
	}
}
