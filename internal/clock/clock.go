/*
Clock provides the notion of "now" and timer scheduling shared by backtests and live
trading.

# Variants
  - LiveClock: reads the host wall clock, fires timers from its own scheduler goroutine
  - SimulatedClock: moves only on AdvanceTime, fires timers synchronously in a
    deterministic order

Both variants share one timer engine and one handler contract, so strategy code runs
unchanged on either.
*/
package clock

import (
	"time"

	"github.com/google/uuid"
)

var (
	_ Clock = (*LiveClock)(nil)
	_ Clock = (*SimulatedClock)(nil)
)

// Clock is the time source and timer scheduler handed to strategies.
type Clock interface {
	// UTCNow returns the current instant in UTC. It never decreases.
	UTCNow() time.Time
	// UnixTime returns UTCNow as seconds since the unix epoch.
	UnixTime() float64
	// SetTimer registers a repeating timer firing every interval after its start time.
	SetTimer(name string, interval time.Duration, handler Handler, opt ...TimerOption) error
	// SetTimeAlert registers a timer firing once at alertTime.
	SetTimeAlert(name string, alertTime time.Time, handler Handler) error
	// CancelTimer removes a timer. Unknown names return exception.ErrTimerNotFound.
	CancelTimer(name string) error
	CancelTimers()
	TimerNames() []string
	TimerCount() int
	NextFireTime(name string) (time.Time, bool)
}

// Handler receives timer events. A returned error or a panic is logged and counted;
// it never stops dispatch to other timers.
type Handler func(TimeEvent) error

// TimeEvent is delivered to a handler each time a timer fires.
type TimeEvent struct {
	ID        uuid.UUID
	Name      string
	Scheduled time.Time
	Actual    time.Time
}

// Drift is how late the event was delivered.
func (e TimeEvent) Drift() time.Duration {
	return e.Actual.Sub(e.Scheduled)
}

// TimerOption bounds a timer. A zero StartTime means the clock's current time;
// a zero StopTime means the timer repeats until cancelled.
type TimerOption struct {
	StartTime time.Time
	StopTime  time.Time
}

func resolveTimerOption(now time.Time, opt []TimerOption) (start, stop time.Time) {
	start = now
	if len(opt) != 0 {
		if !opt[0].StartTime.IsZero() {
			start = opt[0].StartTime.UTC()
		}
		if !opt[0].StopTime.IsZero() {
			stop = opt[0].StopTime.UTC()
		}
	}

	return start, stop
}

func unixSeconds(t time.Time) float64 {
	return float64(t.UnixNano()) / float64(time.Second)
}
