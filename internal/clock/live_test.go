package clock

import (
	"errors"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradecore/internal/obs"
	"tradecore/pkg/exception"
)

type syncRecorder struct {
	mu     sync.Mutex
	events []TimeEvent
}

func (r *syncRecorder) handle(e TimeEvent) error {
	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()
	return nil
}

func (r *syncRecorder) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

func (r *syncRecorder) snapshot() []TimeEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]TimeEvent(nil), r.events...)
}

func TestLiveUTCNow(t *testing.T) {
	c := NewLive()
	defer c.Close()

	before := time.Now().UTC()
	now := c.UTCNow()
	after := time.Now().UTC()

	assert.Equal(t, time.UTC, now.Location())
	assert.WithinDuration(t, before, now, time.Second)
	assert.WithinDuration(t, after, now, time.Second)

	prev := c.UTCNow()
	for range 10000 {
		next := c.UTCNow()
		require.False(t, next.Before(prev), "clock went backwards")
		prev = next
	}

	unix := c.UnixTime()
	assert.InDelta(t, float64(time.Now().UnixNano())/1e9, unix, 1)
}

func TestLiveTimerFires(t *testing.T) {
	metrics := obs.NewMetrics()
	c := NewLive(Option{Metrics: metrics})
	defer c.Close()

	rec := &syncRecorder{}
	require.NoError(t, c.SetTimer("heartbeat", 10*time.Millisecond, rec.handle))

	require.Eventually(t, func() bool { return rec.len() >= 3 }, 2*time.Second, 5*time.Millisecond)

	events := rec.snapshot()
	for i, e := range events {
		assert.Equal(t, "heartbeat", e.Name)
		assert.False(t, e.Actual.Before(e.Scheduled))
		assert.GreaterOrEqual(t, e.Drift(), time.Duration(0))
		if i > 0 {
			assert.Equal(t, 10*time.Millisecond, e.Scheduled.Sub(events[i-1].Scheduled))
			assert.NotEqual(t, events[i-1].ID, e.ID)
		}
	}
	assert.GreaterOrEqual(t, metrics.Snapshot().EventsFired, uint64(3))
}

func TestLiveCancelStopsTimer(t *testing.T) {
	c := NewLive()
	defer c.Close()

	rec := &syncRecorder{}
	require.NoError(t, c.SetTimer("tick", 5*time.Millisecond, rec.handle))
	require.Eventually(t, func() bool { return rec.len() >= 1 }, 2*time.Second, time.Millisecond)

	require.NoError(t, c.CancelTimer("tick"))
	// a fire already being delivered may still land
	time.Sleep(20 * time.Millisecond)
	fired := rec.len()
	time.Sleep(50 * time.Millisecond)

	assert.Equal(t, fired, rec.len())
	assert.Empty(t, c.TimerNames())
	assert.ErrorIs(t, c.CancelTimer("tick"), exception.ErrTimerNotFound)
}

func TestLiveSelfCancelFromHandler(t *testing.T) {
	c := NewLive()
	defer c.Close()

	var count atomic.Int64
	require.NoError(t, c.SetTimer("once", 5*time.Millisecond, func(e TimeEvent) error {
		count.Add(1)
		return c.CancelTimer(e.Name)
	}))

	require.Eventually(t, func() bool { return count.Load() == 1 }, 2*time.Second, time.Millisecond)
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, int64(1), count.Load())
}

func TestLiveStopTime(t *testing.T) {
	metrics := obs.NewMetrics()
	c := NewLive(Option{Metrics: metrics})
	defer c.Close()

	rec := &syncRecorder{}
	now := c.UTCNow()
	require.NoError(t, c.SetTimer("bounded", 10*time.Millisecond, rec.handle, TimerOption{
		StartTime: now,
		StopTime:  now.Add(30 * time.Millisecond),
	}))

	require.Eventually(t, func() bool { return c.TimerCount() == 0 }, 2*time.Second, time.Millisecond)
	require.Eventually(t, func() bool { return metrics.Snapshot().TimersExpired == 1 }, time.Second, time.Millisecond)
	assert.Equal(t, 3, rec.len())
}

func TestLiveTimeAlert(t *testing.T) {
	c := NewLive()
	defer c.Close()

	rec := &syncRecorder{}
	at := c.UTCNow().Add(20 * time.Millisecond)
	require.NoError(t, c.SetTimeAlert("alert", at, rec.handle))

	require.Eventually(t, func() bool { return rec.len() == 1 }, 2*time.Second, time.Millisecond)
	assert.True(t, at.Equal(rec.snapshot()[0].Scheduled))
	assert.Zero(t, c.TimerCount())

	assert.ErrorIs(t, c.SetTimeAlert("past", c.UTCNow().Add(-time.Second), rec.handle), exception.ErrValueRange)
}

func TestLiveHandlerFailureDoesNotStopDispatch(t *testing.T) {
	metrics := obs.NewMetrics()
	c := NewLive(Option{Metrics: metrics})
	defer c.Close()

	rec := &syncRecorder{}
	require.NoError(t, c.SetTimer("panics", 5*time.Millisecond, func(TimeEvent) error { panic("boom") }))
	require.NoError(t, c.SetTimer("fails", 5*time.Millisecond, func(TimeEvent) error { return errors.New("strategy error") }))
	require.NoError(t, c.SetTimer("ok", 5*time.Millisecond, rec.handle))

	require.Eventually(t, func() bool { return rec.len() >= 3 }, 2*time.Second, time.Millisecond)
	snap := metrics.Snapshot()
	assert.NotZero(t, snap.HandlerPanics)
	assert.NotZero(t, snap.HandlerFailures)
}

func TestLiveValidation(t *testing.T) {
	c := NewLive()
	defer c.Close()

	noop := func(TimeEvent) error { return nil }
	require.NoError(t, c.SetTimer("dup", time.Hour, noop))
	assert.ErrorIs(t, c.SetTimer("dup", time.Hour, noop), exception.ErrDuplicateTimer)
	assert.ErrorIs(t, c.SetTimer("zero", 0, noop), exception.ErrValueRange)
	assert.Equal(t, []string{"dup"}, c.TimerNames())

	next, ok := c.NextFireTime("dup")
	require.True(t, ok)
	assert.WithinDuration(t, c.UTCNow().Add(time.Hour), next, time.Second)

	c.CancelTimers()
	assert.Zero(t, c.TimerCount())
}

func TestLiveClose(t *testing.T) {
	c := NewLive()

	rec := &syncRecorder{}
	require.NoError(t, c.SetTimer("tick", 2*time.Millisecond, rec.handle))
	require.Eventually(t, func() bool { return rec.len() >= 1 }, 2*time.Second, time.Millisecond)

	c.Close()
	fired := rec.len()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, fired, rec.len())

	assert.ErrorIs(t, c.SetTimer("late", time.Millisecond, rec.handle), exception.ErrClockClosed)
	c.Close()
}

func TestLiveCloseWithoutTimers(t *testing.T) {
	c := NewLive()
	c.Close()
}

func TestLiveCancelSkipsCollectedFire(t *testing.T) {
	c := NewLive()
	defer c.Close()

	var (
		aFired    atomic.Int64
		bFired    atomic.Int64
		cancelled atomic.Bool
	)
	start := c.UTCNow()
	opt := TimerOption{StartTime: start}

	// same schedule, so every fire of b is collected in the batch right after a's
	require.NoError(t, c.SetTimer("a", 10*time.Millisecond, func(TimeEvent) error {
		aFired.Add(1)
		if cancelled.CompareAndSwap(false, true) {
			return c.CancelTimer("b")
		}
		return nil
	}, opt))
	require.NoError(t, c.SetTimer("b", 10*time.Millisecond, func(TimeEvent) error {
		bFired.Add(1)
		return nil
	}, opt))

	require.Eventually(t, func() bool { return aFired.Load() >= 3 }, 2*time.Second, time.Millisecond)
	assert.Zero(t, bFired.Load())
	assert.Equal(t, []string{"a"}, c.TimerNames())
}

func TestLiveRegisterRacingClose(t *testing.T) {
	noop := func(TimeEvent) error { return nil }

	for range 200 {
		c := NewLive()

		var registered atomic.Int64
		done := make(chan struct{})
		go func() {
			defer close(done)
			for i := 0; ; i++ {
				err := c.SetTimer("t"+strconv.Itoa(i), time.Hour, noop)
				if err != nil {
					assert.ErrorIs(t, err, exception.ErrClockClosed)
					return
				}
				registered.Add(1)
			}
		}()

		c.Close()
		<-done

		assert.Equal(t, int(registered.Load()), c.TimerCount())
		assert.ErrorIs(t, c.SetTimeAlert("late", c.UTCNow().Add(time.Hour), noop), exception.ErrClockClosed)
		assert.Equal(t, int(registered.Load()), c.TimerCount())
	}
}
