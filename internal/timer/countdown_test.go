package timer

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

const testInterval = 5 * time.Millisecond

func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("timed out waiting: %s", msg)
}

func TestCountdownReachesZeroAndFiresOnce(t *testing.T) {
	c := NewWithInterval(3, testInterval)
	var fired int32
	c.OnExpire(func() { atomic.AddInt32(&fired, 1) })
	c.Start()

	waitFor(t, func() bool { return c.TimeLeft() == 0 }, "countdown to reach zero")
	waitFor(t, func() bool { return atomic.LoadInt32(&fired) == 1 }, "expiry callback")

	// Repeated starts at zero must not double-fire.
	c.Start()
	c.Start()
	time.Sleep(10 * testInterval)
	if got := atomic.LoadInt32(&fired); got != 1 {
		t.Fatalf("expected exactly one expiry, got %d", got)
	}
}

func TestCountdownTicksDeliverRemaining(t *testing.T) {
	c := NewWithInterval(3, testInterval)
	var mu sync.Mutex
	var seen []int
	c.OnTick(func(remaining int) {
		mu.Lock()
		seen = append(seen, remaining)
		mu.Unlock()
	})
	c.Start()

	waitFor(t, func() bool { return c.TimeLeft() == 0 }, "countdown to finish")
	mu.Lock()
	defer mu.Unlock()
	if len(seen) != 3 || seen[0] != 2 || seen[2] != 0 {
		t.Fatalf("unexpected tick sequence: %v", seen)
	}
}

func TestPauseStopsTicking(t *testing.T) {
	c := NewWithInterval(100, testInterval)
	c.Start()
	waitFor(t, func() bool { return c.TimeLeft() < 100 }, "first tick")

	c.Pause()
	frozen := c.TimeLeft()
	time.Sleep(10 * testInterval)
	if c.TimeLeft() != frozen {
		t.Fatalf("expected time frozen at %d, got %d", frozen, c.TimeLeft())
	}

	c.Resume()
	waitFor(t, func() bool { return c.TimeLeft() < frozen }, "tick after resume")
	c.Stop()
}

func TestResetRearmsExpiry(t *testing.T) {
	c := NewWithInterval(1, testInterval)
	var fired int32
	c.OnExpire(func() { atomic.AddInt32(&fired, 1) })

	c.Start()
	waitFor(t, func() bool { return atomic.LoadInt32(&fired) == 1 }, "first expiry")

	c.Reset(1)
	if c.TimeLeft() != 1 {
		t.Fatalf("expected reset to 1, got %d", c.TimeLeft())
	}
	c.Start()
	waitFor(t, func() bool { return atomic.LoadInt32(&fired) == 2 }, "second expiry after reset")
}

func TestSubtractTimeFloorsAndFires(t *testing.T) {
	c := NewWithInterval(50, testInterval)
	var fired int32
	c.OnExpire(func() { atomic.AddInt32(&fired, 1) })
	c.Start()

	c.SubtractTime(200)
	if c.TimeLeft() != 0 {
		t.Fatalf("expected floor at zero, got %d", c.TimeLeft())
	}
	if got := atomic.LoadInt32(&fired); got != 1 {
		t.Fatalf("expected expiry on subtract to zero, got %d", got)
	}
}

func TestAddTimeExtends(t *testing.T) {
	c := NewWithInterval(5, time.Hour)
	c.AddTime(10)
	if c.TimeLeft() != 15 {
		t.Fatalf("expected 15, got %d", c.TimeLeft())
	}
}

func TestStatusThresholds(t *testing.T) {
	cases := []struct {
		left int
		want Status
	}{
		{0, StatusExpired},
		{-4, StatusExpired},
		{1, StatusDanger},
		{30, StatusDanger},
		{31, StatusWarning},
		{60, StatusWarning},
		{61, StatusNormal},
	}
	for _, tc := range cases {
		if got := StatusFor(tc.left); got != tc.want {
			t.Fatalf("StatusFor(%d) = %s, want %s", tc.left, got, tc.want)
		}
	}
}
