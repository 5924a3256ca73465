package clock

import (
	"time"

	"tradecore/internal/errors"
	"tradecore/internal/obs"
	"tradecore/pkg/exception"
)

// SimulatedClock is the deterministic backtest clock. Time moves only on SetTime and
// AdvanceTime, and timers fire synchronously on the caller's goroutine.
//
// SimulatedClock is not safe for concurrent use; the replay driver must be the only
// goroutine touching it.
type SimulatedClock struct {
	now       time.Time
	timers    *timerQueue
	metrics   *obs.Metrics
	advancing bool
	eventSeq  uint64
}

// Option configures optional collaborators of a clock.
type Option struct {
	Metrics *obs.Metrics
}

// NewSimulated creates a clock stopped at start.
func NewSimulated(start time.Time, opt ...Option) *SimulatedClock {
	c := &SimulatedClock{
		now:    start.UTC(),
		timers: newTimerQueue(),
	}
	if len(opt) != 0 {
		c.metrics = opt[0].Metrics
	}
	return c
}

func (c *SimulatedClock) UTCNow() time.Time {
	return c.now
}

func (c *SimulatedClock) UnixTime() float64 {
	return unixSeconds(c.now)
}

// SetTime moves the clock to t without firing timers. Overdue timers fire on the
// next AdvanceTime.
func (c *SimulatedClock) SetTime(t time.Time) error {
	if c.advancing {
		return exception.ErrReentrantAdvance
	}

	t = t.UTC()
	if t.Before(c.now) {
		return errors.Wrapf(exception.ErrTemporalOrder, "set time %s before %s", t.Format(time.RFC3339Nano), c.now.Format(time.RFC3339Nano))
	}

	c.now = t
	return nil
}

// AdvanceTime moves the clock to `to`, firing every due timer in scheduled order, ties
// broken by registration order. A timer behind by several intervals fires once per
// missed tick. While a handler runs, UTCNow reports that event's scheduled time (never
// earlier than the time before the call); once all handlers are done the clock
// reads `to`.
//
// The dispatched events are returned in delivery order. Moving backwards fails with
// exception.ErrTemporalOrder and leaves the clock untouched.
func (c *SimulatedClock) AdvanceTime(to time.Time) ([]TimeEvent, error) {
	if c.advancing {
		return nil, exception.ErrReentrantAdvance
	}

	to = to.UTC()
	if to.Before(c.now) {
		return nil, errors.Wrapf(exception.ErrTemporalOrder, "advance to %s before %s", to.Format(time.RFC3339Nano), c.now.Format(time.RFC3339Nano))
	}

	c.advancing = true
	defer func() { c.advancing = false }()

	var events []TimeEvent
	for {
		t, scheduled, ok := c.timers.popDue(to)
		if !ok {
			break
		}

		if scheduled.After(c.now) {
			c.now = scheduled
		}

		c.eventSeq++
		event := TimeEvent{
			ID:        deterministicEventID(t.name, scheduled, c.eventSeq),
			Name:      t.name,
			Scheduled: scheduled,
			Actual:    scheduled,
		}

		c.metrics.ObserveFire(0)
		invoke(t.handler, event, c.metrics)
		events = append(events, event)

		if t.State() == timerStateExpired {
			c.metrics.IncTimerExpired()
			logExpired(t)
		}
	}

	c.now = to
	return events, nil
}

func (c *SimulatedClock) SetTimer(name string, interval time.Duration, handler Handler, opt ...TimerOption) error {
	start, stop := resolveTimerOption(c.now, opt)
	_, err := c.timers.add(name, interval, handler, start, stop)
	return err
}

func (c *SimulatedClock) SetTimeAlert(name string, alertTime time.Time, handler Handler) error {
	alertTime = alertTime.UTC()
	interval := alertTime.Sub(c.now)
	if interval <= 0 {
		return errors.Wrapf(exception.ErrValueRange, "time alert %q at %s is not after %s", name, alertTime.Format(time.RFC3339Nano), c.now.Format(time.RFC3339Nano))
	}

	_, err := c.timers.add(name, interval, handler, c.now, alertTime)
	return err
}

func (c *SimulatedClock) CancelTimer(name string) error {
	if _, err := c.timers.cancel(name); err != nil {
		logCancelMiss(name)
		return err
	}

	c.metrics.IncTimerCancelled()
	return nil
}

func (c *SimulatedClock) CancelTimers() {
	for range c.timers.cancelAll() {
		c.metrics.IncTimerCancelled()
	}
}

func (c *SimulatedClock) TimerNames() []string {
	return c.timers.names()
}

func (c *SimulatedClock) TimerCount() int {
	return c.timers.count()
}

func (c *SimulatedClock) NextFireTime(name string) (time.Time, bool) {
	return c.timers.nextFireTime(name)
}
