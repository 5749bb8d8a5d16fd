package realtime

import (
	"sync"
	"time"
)

// Scheduler runs f once after d. The returned stop function cancels the call
// and reports whether it prevented f from running.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) (stop func() bool)
}

// SystemScheduler schedules on the wall clock via time.AfterFunc.
type SystemScheduler struct{}

// AfterFunc implements Scheduler.
func (SystemScheduler) AfterFunc(d time.Duration, f func()) func() bool {
	t := time.AfterFunc(d, f)
	return t.Stop
}

// Tasks is a group of deferred callbacks that can be canceled together.
type Tasks struct {
	mu      sync.Mutex
	sched   Scheduler
	nextID  uint64
	pending map[uint64]func() bool
}

// NewTasks creates an empty task group on sched.
func NewTasks(sched Scheduler) *Tasks {
	if sched == nil {
		sched = SystemScheduler{}
	}
	return &Tasks{
		sched:   sched,
		pending: make(map[uint64]func() bool),
	}
}

// After schedules f to run after d unless CancelAll is called first.
func (t *Tasks) After(d time.Duration, f func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.nextID++
	id := t.nextID
	t.pending[id] = t.sched.AfterFunc(d, func() {
		t.mu.Lock()
		_, ok := t.pending[id]
		delete(t.pending, id)
		t.mu.Unlock()
		if ok {
			f()
		}
	})
}

// CancelAll stops every pending callback.
func (t *Tasks) CancelAll() {
	t.mu.Lock()
	defer t.mu.Unlock()
	for id, stop := range t.pending {
		stop()
		delete(t.pending, id)
	}
}

// Pending returns the number of callbacks that have not fired yet.
func (t *Tasks) Pending() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.pending)
}
