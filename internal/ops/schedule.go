package ops

import (
	"time"

	"tradecore/internal/clock"
	"tradecore/internal/errors"
)

const timerNameSep = "."

// TimerName is the clock timer name of a configured timer owned by a strategy.
func TimerName(strategy Strategy, spec TimerSpec) string {
	return strategy.ID.Value() + timerNameSep + spec.Name
}

// Option anchors the timer bounds at the given time.
func (spec TimerSpec) Option(anchor time.Time) clock.TimerOption {
	opt := clock.TimerOption{StartTime: anchor.Add(spec.StartOffset)}
	if spec.StopAfter > 0 {
		opt.StopTime = opt.StartTime.Add(spec.StopAfter)
	}
	return opt
}

// Schedule registers every configured timer for every strategy on c, anchored at the
// clock's current time, and returns how many timers it set.
func (l Loaded) Schedule(c clock.Clock, handle func(Strategy, clock.TimeEvent) error) (int, error) {
	anchor := c.UTCNow()

	var count int
	for _, strategy := range l.Strategies {
		for _, spec := range l.Timers {
			err := c.SetTimer(TimerName(strategy, spec), spec.Interval, func(e clock.TimeEvent) error {
				return handle(strategy, e)
			}, spec.Option(anchor))
			if err != nil {
				return count, errors.Wrapf(err, "schedule %s", TimerName(strategy, spec))
			}
			count++
		}
	}

	return count, nil
}
