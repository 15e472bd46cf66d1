// Package timer owns the session countdown. A Countdown runs at most one
// ticking goroutine at any moment: every state transition tears down the
// current ticker and, when the clock should keep running, replaces it.
package timer

import (
	"sync"
	"time"
)

// Status classifies remaining time for display purposes.
type Status string

const (
	StatusExpired Status = "expired"
	StatusDanger  Status = "danger"
	StatusWarning Status = "warning"
	StatusNormal  Status = "normal"
)

// StatusFor derives the display status from remaining seconds. Pure, no side
// effects.
func StatusFor(timeLeft int) Status {
	switch {
	case timeLeft <= 0:
		return StatusExpired
	case timeLeft <= 30:
		return StatusDanger
	case timeLeft <= 60:
		return StatusWarning
	default:
		return StatusNormal
	}
}

// Countdown decrements once per interval while running, not paused and above
// zero. The expiry callback fires exactly once per zero crossing.
type Countdown struct {
	interval time.Duration

	mu       sync.Mutex
	timeLeft int
	running  bool
	paused   bool
	fired    bool
	onTick   func(remaining int)
	onExpire func()
	stop     chan struct{}
}

// New returns a countdown ticking once per second.
func New(seconds int) *Countdown {
	return NewWithInterval(seconds, time.Second)
}

// NewWithInterval is test-only: it shrinks the tick interval so tests run in
// milliseconds.
func NewWithInterval(seconds int, interval time.Duration) *Countdown {
	if seconds < 0 {
		seconds = 0
	}
	return &Countdown{timeLeft: seconds, interval: interval}
}

// OnTick registers the per-tick callback. Set before Start.
func (c *Countdown) OnTick(fn func(remaining int)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onTick = fn
}

// OnExpire registers the timeout callback. Set before Start.
func (c *Countdown) OnExpire(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onExpire = fn
}

// Start begins (or resumes) counting down.
func (c *Countdown) Start() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.running = true
	c.paused = false
	c.rearmLocked()
}

// Pause halts ticking without losing the remaining time.
func (c *Countdown) Pause() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.running {
		return
	}
	c.paused = true
	c.rearmLocked()
}

// Resume continues a paused countdown.
func (c *Countdown) Resume() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.running || !c.paused {
		return
	}
	c.paused = false
	c.rearmLocked()
}

// Reset stops the countdown and sets a new remaining time. A positive value
// re-arms the expiry callback for the next zero crossing.
func (c *Countdown) Reset(seconds int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if seconds < 0 {
		seconds = 0
	}
	c.timeLeft = seconds
	c.running = false
	c.paused = false
	if seconds > 0 {
		c.fired = false
	}
	c.rearmLocked()
}

// AddTime grants extra seconds. Crossing back above zero re-arms expiry.
func (c *Countdown) AddTime(seconds int) {
	if seconds <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.timeLeft += seconds
	if c.timeLeft > 0 {
		c.fired = false
	}
	c.rearmLocked()
}

// SubtractTime removes seconds, flooring at zero. Hitting zero while running
// delivers the expiry callback.
func (c *Countdown) SubtractTime(seconds int) {
	if seconds <= 0 {
		return
	}
	c.mu.Lock()
	c.timeLeft -= seconds
	if c.timeLeft < 0 {
		c.timeLeft = 0
	}
	var expire func()
	if c.timeLeft == 0 && c.running && !c.fired {
		c.fired = true
		c.running = false
		expire = c.onExpire
	}
	c.rearmLocked()
	c.mu.Unlock()

	if expire != nil {
		expire()
	}
}

// Stop tears down the countdown entirely (teardown on unmount).
func (c *Countdown) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.running = false
	c.paused = false
	c.rearmLocked()
}

// TimeLeft returns the remaining seconds.
func (c *Countdown) TimeLeft() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.timeLeft
}

// Status returns the display status of the remaining time.
func (c *Countdown) Status() Status {
	return StatusFor(c.TimeLeft())
}

// Running reports whether the countdown is actively ticking.
func (c *Countdown) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running && !c.paused
}

// rearmLocked cancels the current ticker goroutine and spawns a fresh one if
// the countdown should be ticking. Callers hold c.mu.
func (c *Countdown) rearmLocked() {
	if c.stop != nil {
		close(c.stop)
		c.stop = nil
	}
	if !c.running || c.paused || c.timeLeft <= 0 {
		return
	}
	stop := make(chan struct{})
	c.stop = stop
	go c.loop(stop)
}

func (c *Countdown) loop(stop chan struct{}) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if !c.tick(stop) {
				return
			}
		}
	}
}

// tick applies one decrement. It returns false when this goroutine should
// exit, either because it was superseded or because the countdown expired.
func (c *Countdown) tick(stop chan struct{}) bool {
	c.mu.Lock()
	if c.stop != stop {
		// A newer ticker owns the countdown.
		c.mu.Unlock()
		return false
	}
	c.timeLeft--
	if c.timeLeft < 0 {
		c.timeLeft = 0
	}
	remaining := c.timeLeft
	onTick := c.onTick
	var expire func()
	if remaining == 0 {
		if !c.fired {
			c.fired = true
			expire = c.onExpire
		}
		c.running = false
		c.stop = nil
	}
	c.mu.Unlock()

	if onTick != nil {
		onTick(remaining)
	}
	if expire != nil {
		expire()
	}
	return remaining > 0
}
