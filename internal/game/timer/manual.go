package timer

import (
	"sort"
	"sync"
	"time"
)

// Manual is a deterministic Scheduler driven by Advance. Callbacks run
// synchronously on the goroutine calling Advance, in deadline order.
type Manual struct {
	mu      sync.Mutex
	now     time.Duration
	seq     uint64
	entries []*manualEntry
}

type manualEntry struct {
	owner   *Manual
	seq     uint64
	at      time.Duration
	every   time.Duration
	fn      func()
	stopped bool
}

// NewManual returns a Manual scheduler at time zero.
func NewManual() *Manual {
	return &Manual{}
}

// After implements Scheduler.
func (m *Manual) After(d time.Duration, fn func()) Handle {
	return m.add(d, 0, fn)
}

// Every implements Scheduler.
//
// Precondition: d > 0.
func (m *Manual) Every(d time.Duration, fn func()) Handle {
	if d <= 0 {
		panic("timer.Manual.Every: d must be > 0")
	}
	return m.add(d, d, fn)
}

func (m *Manual) add(d, every time.Duration, fn func()) *manualEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	e := &manualEntry{owner: m, seq: m.seq, at: m.now + d, every: every, fn: fn}
	m.entries = append(m.entries, e)
	return e
}

// Stop implements Handle.
func (e *manualEntry) Stop() {
	if e == nil {
		return
	}
	e.owner.mu.Lock()
	defer e.owner.mu.Unlock()
	e.stopped = true
}

// Advance moves the clock forward by d, firing every callback that comes due.
// Repeating timers fire once per elapsed period.
func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	target := m.now + d
	m.mu.Unlock()

	for {
		m.mu.Lock()
		e := m.nextDueLocked(target)
		if e == nil {
			m.now = target
			m.mu.Unlock()
			return
		}
		m.now = e.at
		if e.every > 0 {
			e.at += e.every
		} else {
			e.stopped = true
		}
		fn := e.fn
		m.mu.Unlock()

		fn()
	}
}

// nextDueLocked returns the earliest live entry due at or before target and
// prunes stopped entries. Caller must hold m.mu.
func (m *Manual) nextDueLocked(target time.Duration) *manualEntry {
	live := m.entries[:0]
	for _, e := range m.entries {
		if !e.stopped {
			live = append(live, e)
		}
	}
	m.entries = live
	sort.SliceStable(m.entries, func(i, j int) bool {
		if m.entries[i].at == m.entries[j].at {
			return m.entries[i].seq < m.entries[j].seq
		}
		return m.entries[i].at < m.entries[j].at
	})
	if len(m.entries) == 0 || m.entries[0].at > target {
		return nil
	}
	return m.entries[0]
}

// Pending reports how many timers are still armed.
func (m *Manual) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, e := range m.entries {
		if !e.stopped {
			n++
		}
	}
	return n
}

// Now returns the elapsed manual time.
func (m *Manual) Now() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}
