package clock

import (
	"testing"
	"time"
)

func BenchmarkLiveUTCNow(b *testing.B) {
	c := NewLive()
	defer c.Close()

	for b.Loop() {
		_ = c.UTCNow()
	}
}

func BenchmarkLiveUnixTime(b *testing.B) {
	c := NewLive()
	defer c.Close()

	for b.Loop() {
		_ = c.UnixTime()
	}
}

func BenchmarkSimulatedAdvanceTime(b *testing.B) {
	c := NewSimulated(time.Unix(0, 0))
	if err := c.SetTimer("bar", time.Second, noopHandler); err != nil {
		b.Fatal(err)
	}

	now := c.UTCNow()
	for b.Loop() {
		now = now.Add(time.Second)
		if _, err := c.AdvanceTime(now); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkSimulatedSetTimerCancel(b *testing.B) {
	c := NewSimulated(time.Unix(0, 0))

	for b.Loop() {
		_ = c.SetTimer("t", time.Second, noopHandler)
		_ = c.CancelTimer("t")
	}
}
