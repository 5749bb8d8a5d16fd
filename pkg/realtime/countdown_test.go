package realtime

import (
	"testing"
	"time"

	"memgame/pkg/realtime/realtimetest"
)

func TestCountdown_TicksThenExpires(t *testing.T) {
	clock := realtimetest.NewManualScheduler()
	c := NewCountdown(clock, time.Second)

	var ticks []int
	expired := 0
	c.Start(10, func(left int) { ticks = append(ticks, left) }, func() { expired++ })

	clock.Advance(9 * time.Second)
	if expired != 0 {
		t.Fatalf("expired after 9s, want still running")
	}
	clock.Advance(time.Second)

	want := []int{9, 8, 7, 6, 5, 4, 3, 2, 1}
	if len(ticks) != len(want) {
		t.Fatalf("ticks %v, want %v", ticks, want)
	}
	for i := range want {
		if ticks[i] != want[i] {
			t.Errorf("tick %d = %d, want %d", i, ticks[i], want[i])
		}
	}
	if expired != 1 {
		t.Errorf("expired %d times, want 1", expired)
	}
	if c.Running() {
		t.Error("countdown should stop itself after expiry")
	}

	c.Stop()
	clock.Advance(5 * time.Second)
	if expired != 1 || len(ticks) != 9 {
		t.Errorf("Stop after expiry changed state: ticks=%d expired=%d", len(ticks), expired)
	}
	if clock.Pending() != 0 {
		t.Errorf("pending callbacks %d, want 0", clock.Pending())
	}
}

func TestCountdown_StopBeforeStart(t *testing.T) {
	c := NewCountdown(realtimetest.NewManualScheduler(), time.Second)
	c.Stop()
	c.Stop()
	if c.Running() {
		t.Error("Running should be false")
	}
}

func TestCountdown_StopCancelsTicks(t *testing.T) {
	clock := realtimetest.NewManualScheduler()
	c := NewCountdown(clock, time.Second)
	ticks := 0
	c.Start(5, func(int) { ticks++ }, func() { t.Error("onExpire after Stop") })
	clock.Advance(2 * time.Second)
	c.Stop()
	clock.Advance(10 * time.Second)
	if ticks != 2 {
		t.Errorf("ticks %d, want 2", ticks)
	}
	if c.Left() != 3 {
		t.Errorf("Left %d, want 3", c.Left())
	}
}

func TestCountdown_RestartReplacesRun(t *testing.T) {
	clock := realtimetest.NewManualScheduler()
	c := NewCountdown(clock, time.Second)
	first := 0
	c.Start(3, func(int) { first++ }, func() { t.Error("first run should never expire") })
	clock.Advance(time.Second)

	var second []int
	expired := false
	c.Start(2, func(left int) { second = append(second, left) }, func() { expired = true })
	clock.Advance(2 * time.Second)

	if first != 1 {
		t.Errorf("first run ticks %d, want 1", first)
	}
	if len(second) != 1 || second[0] != 1 {
		t.Errorf("second run ticks %v, want [1]", second)
	}
	if !expired {
		t.Error("second run should expire")
	}
}

func TestCountdown_ZeroExpiresImmediately(t *testing.T) {
	clock := realtimetest.NewManualScheduler()
	c := NewCountdown(clock, time.Second)
	expired := 0
	c.Start(0, func(int) { t.Error("no ticks expected") }, func() { expired++ })
	clock.Advance(0)
	if expired != 1 {
		t.Errorf("expired %d, want 1", expired)
	}
}
