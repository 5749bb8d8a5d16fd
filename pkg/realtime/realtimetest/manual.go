// Package realtimetest provides a virtual clock for exercising realtime
// schedulers without sleeping.
package realtimetest

import (
	"sort"
	"sync"
	"time"
)

type entry struct {
	id uint64
	at time.Duration
	f  func()
}

// ManualScheduler fires callbacks only when Advance moves its clock past them.
// Callbacks run on the goroutine calling Advance, in due-time order.
type ManualScheduler struct {
	mu      sync.Mutex
	now     time.Duration
	nextID  uint64
	entries []*entry
}

// NewManualScheduler returns a scheduler at virtual time zero.
func NewManualScheduler() *ManualScheduler {
	return &ManualScheduler{}
}

// AfterFunc implements realtime.Scheduler.
func (m *ManualScheduler) AfterFunc(d time.Duration, f func()) func() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if d < 0 {
		d = 0
	}
	m.nextID++
	e := &entry{id: m.nextID, at: m.now + d, f: f}
	m.entries = append(m.entries, e)
	return func() bool {
		m.mu.Lock()
		defer m.mu.Unlock()
		for i, cur := range m.entries {
			if cur == e {
				m.entries = append(m.entries[:i], m.entries[i+1:]...)
				return true
			}
		}
		return false
	}
}

// Advance moves the clock forward by d, running every callback that becomes
// due, including ones scheduled by callbacks during the advance.
func (m *ManualScheduler) Advance(d time.Duration) {
	m.mu.Lock()
	target := m.now + d
	m.mu.Unlock()
	for {
		m.mu.Lock()
		next := m.popDueLocked(target)
		if next == nil {
			m.now = target
			m.mu.Unlock()
			return
		}
		m.now = next.at
		m.mu.Unlock()
		next.f()
	}
}

// Pending returns the number of scheduled callbacks that have not fired.
func (m *ManualScheduler) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// Now returns the virtual time elapsed since creation.
func (m *ManualScheduler) Now() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

func (m *ManualScheduler) popDueLocked(target time.Duration) *entry {
	if len(m.entries) == 0 {
		return nil
	}
	sort.SliceStable(m.entries, func(i, j int) bool {
		if m.entries[i].at == m.entries[j].at {
			return m.entries[i].id < m.entries[j].id
		}
		return m.entries[i].at < m.entries[j].at
	})
	first := m.entries[0]
	if first.at > target {
		return nil
	}
	m.entries = m.entries[1:]
	return first
}
