package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradecore/pkg/exception"
)

func noopHandler(TimeEvent) error { return nil }

func TestTimerQueueOrder(t *testing.T) {
	q := newTimerQueue()
	start := time.Unix(0, 0).UTC()

	_, err := q.add("slow", 3*time.Second, noopHandler, start, time.Time{})
	require.NoError(t, err)
	_, err = q.add("fast", time.Second, noopHandler, start, time.Time{})
	require.NoError(t, err)
	_, err = q.add("tie", 3*time.Second, noopHandler, start, time.Time{})
	require.NoError(t, err)

	var got []string
	for {
		tm, scheduled, ok := q.popDue(start.Add(3 * time.Second))
		if !ok {
			break
		}
		got = append(got, tm.name+"@"+scheduled.Format("05"))
	}

	assert.Equal(t, []string{"fast@01", "fast@02", "slow@03", "fast@03", "tie@03"}, got)

	next, ok := q.peek()
	require.True(t, ok)
	assert.Equal(t, start.Add(4*time.Second), next)
}

func TestTimerQueueExpire(t *testing.T) {
	q := newTimerQueue()
	start := time.Unix(0, 0).UTC()

	tm, err := q.add("bounded", time.Second, noopHandler, start, start.Add(2500*time.Millisecond))
	require.NoError(t, err)

	_, _, ok := q.popDue(start.Add(time.Hour))
	require.True(t, ok)
	assert.Equal(t, timerStateScheduled, tm.State())

	_, scheduled, ok := q.popDue(start.Add(time.Hour))
	require.True(t, ok)
	assert.Equal(t, start.Add(2*time.Second), scheduled)
	assert.Equal(t, timerStateExpired, tm.State())
	assert.True(t, tm.State().isTerminal())

	_, _, ok = q.popDue(start.Add(time.Hour))
	assert.False(t, ok)
	assert.Zero(t, q.count())
	_, ok = q.peek()
	assert.False(t, ok)
}

func TestTimerQueueCancel(t *testing.T) {
	q := newTimerQueue()
	start := time.Unix(0, 0).UTC()

	for _, name := range []string{"c", "a", "b"} {
		_, err := q.add(name, time.Second, noopHandler, start, time.Time{})
		require.NoError(t, err)
	}
	assert.Equal(t, []string{"a", "b", "c"}, q.names())

	tm, err := q.cancel("a")
	require.NoError(t, err)
	assert.Equal(t, timerStateCancelled, tm.State())
	assert.Equal(t, "cancelled", tm.State().String())

	_, err = q.cancel("a")
	assert.ErrorIs(t, err, exception.ErrTimerNotFound)

	_, ok := q.nextFireTime("a")
	assert.False(t, ok)
	next, ok := q.nextFireTime("b")
	require.True(t, ok)
	assert.Equal(t, start.Add(time.Second), next)

	cancelled := q.cancelAll()
	assert.Len(t, cancelled, 2)
	assert.Zero(t, q.count())
	assert.Empty(t, q.names())
}

func TestTimerQueueAddInvalid(t *testing.T) {
	start := time.Unix(0, 0).UTC()
	testCases := []struct {
		desc     string
		name     string
		interval time.Duration
		handler  Handler
		stop     time.Time
		expected error
	}{
		{desc: "blank name", name: "  ", interval: time.Second, handler: noopHandler, expected: exception.ErrValueFormat},
		{desc: "duplicate", name: "taken", interval: time.Second, handler: noopHandler, expected: exception.ErrDuplicateTimer},
		{desc: "zero interval", name: "t", interval: 0, handler: noopHandler, expected: exception.ErrValueRange},
		{desc: "negative interval", name: "t", interval: -time.Second, handler: noopHandler, expected: exception.ErrValueRange},
		{desc: "nil handler", name: "t", interval: time.Second, expected: exception.ErrNilInstance},
		{desc: "stop before first fire", name: "t", interval: time.Second, handler: noopHandler, stop: start.Add(time.Millisecond), expected: exception.ErrValueRange},
	}

	for _, tc := range testCases {
		t.Run(tc.desc, func(t *testing.T) {
			q := newTimerQueue()
			_, err := q.add("taken", time.Second, noopHandler, start, time.Time{})
			require.NoError(t, err)

			_, err = q.add(tc.name, tc.interval, tc.handler, start, tc.stop)
			assert.ErrorIs(t, err, tc.expected)
			assert.Equal(t, 1, q.count())
		})
	}
}
