package realtime

import (
	"sync"
	"time"
)

// DefaultTickInterval is how often a Countdown decrements.
const DefaultTickInterval = time.Second

// Countdown ticks down from a starting count once per interval. At most one
// run is active at a time; starting a new run stops the previous one.
type Countdown struct {
	mu       sync.Mutex
	sched    Scheduler
	interval time.Duration
	run      uint64
	left     int
	stop     func() bool
	onTick   func(left int)
	onExpire func()
}

// NewCountdown creates a stopped countdown. A non-positive interval falls back
// to DefaultTickInterval.
func NewCountdown(sched Scheduler, interval time.Duration) *Countdown {
	if sched == nil {
		sched = SystemScheduler{}
	}
	if interval <= 0 {
		interval = DefaultTickInterval
	}
	return &Countdown{sched: sched, interval: interval}
}

// Start begins counting down from seconds. onTick receives every remaining
// value above zero; onExpire fires once when the count reaches zero, after
// which the countdown stops itself. Either callback may be nil.
func (c *Countdown) Start(seconds int, onTick func(left int), onExpire func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopLocked()
	c.run++
	c.left = seconds
	c.onTick = onTick
	c.onExpire = onExpire
	if seconds <= 0 {
		run := c.run
		c.stop = c.sched.AfterFunc(0, func() { c.expire(run) })
		return
	}
	c.scheduleLocked()
}

// Stop cancels pending ticks. Safe to call repeatedly or before Start.
func (c *Countdown) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopLocked()
}

// Running reports whether a tick is pending.
func (c *Countdown) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stop != nil
}

// Left returns the remaining count of the current or last run.
func (c *Countdown) Left() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.left
}

func (c *Countdown) stopLocked() {
	if c.stop != nil {
		c.stop()
		c.stop = nil
	}
	// Invalidate callbacks that already fired and are waiting on the lock.
	c.run++
}

func (c *Countdown) scheduleLocked() {
	run := c.run
	c.stop = c.sched.AfterFunc(c.interval, func() { c.tick(run) })
}

func (c *Countdown) tick(run uint64) {
	c.mu.Lock()
	if run != c.run {
		c.mu.Unlock()
		return
	}
	c.left--
	left := c.left
	if left > 0 {
		onTick := c.onTick
		c.scheduleLocked()
		c.mu.Unlock()
		if onTick != nil {
			onTick(left)
		}
		return
	}
	c.mu.Unlock()
	c.expire(run)
}

func (c *Countdown) expire(run uint64) {
	c.mu.Lock()
	if run != c.run {
		c.mu.Unlock()
		return
	}
	c.left = 0
	c.stop = nil
	c.run++
	onExpire := c.onExpire
	c.mu.Unlock()
	if onExpire != nil {
		onExpire()
	}
}
