// Package timer provides cancelable one-shot and repeating timers for mob
// behaviors. Every timer a behavior starts is owned by that behavior and must be
// stopped on the mob's death.
package timer

import (
	"sync"
	"time"
)

// Handle is a running timer. Stop is idempotent and safe on a nil Handle.
type Handle interface {
	Stop()
}

// Scheduler starts timers.
type Scheduler interface {
	// After calls fn once after d unless the returned Handle is stopped first.
	After(d time.Duration, fn func()) Handle
	// Every calls fn every d until the returned Handle is stopped.
	Every(d time.Duration, fn func()) Handle
}

// Stop stops h if it is non-nil. Clearing an already-cleared handle is a no-op.
func Stop(h Handle) {
	if h != nil {
		h.Stop()
	}
}

// Real is a Scheduler backed by the runtime clock. Callbacks run on their own
// goroutines.
type Real struct{}

// After implements Scheduler.
//
// Precondition: d > 0; fn must not be nil.
func (Real) After(d time.Duration, fn func()) Handle {
	return NewRealTimer(d, fn)
}

// Every implements Scheduler.
//
// Precondition: d > 0; fn must not be nil.
func (Real) Every(d time.Duration, fn func()) Handle {
	return newRealInterval(d, fn)
}

// RealTimer fires a callback after a configurable duration unless stopped.
// It is safe for concurrent use.
type RealTimer struct {
	mu      sync.Mutex
	timer   *time.Timer
	stopped bool
}

// NewRealTimer creates and starts a timer that calls onFire after duration.
// onFire is called in a separate goroutine.
//
// Postcondition: onFire will be called unless Stop is called first.
func NewRealTimer(duration time.Duration, onFire func()) *RealTimer {
	rt := &RealTimer{}
	rt.mu.Lock()
	defer rt.mu.Unlock()
	rt.timer = time.AfterFunc(duration, func() {
		rt.mu.Lock()
		stopped := rt.stopped
		rt.mu.Unlock()
		if !stopped {
			onFire()
		}
	})
	return rt
}

// Stop prevents the callback from firing. Safe to call multiple times.
//
// Postcondition: onFire will not be started after Stop returns.
func (rt *RealTimer) Stop() {
	if rt == nil {
		return
	}
	rt.mu.Lock()
	defer rt.mu.Unlock()
	rt.stopped = true
	rt.timer.Stop()
}

type realInterval struct {
	ticker *time.Ticker
	done   chan struct{}
	once   sync.Once
}

func newRealInterval(d time.Duration, fn func()) *realInterval {
	ri := &realInterval{
		ticker: time.NewTicker(d),
		done:   make(chan struct{}),
	}
	go func() {
		for {
			select {
			case <-ri.done:
				return
			case <-ri.ticker.C:
				select {
				case <-ri.done:
					return
				default:
				}
				fn()
			}
		}
	}()
	return ri
}

func (ri *realInterval) Stop() {
	if ri == nil {
		return
	}
	ri.once.Do(func() {
		ri.ticker.Stop()
		close(ri.done)
	})
}
