package world

import (
	"context"
	"sort"
	"sync"
	"time"
)

// Ticker runs named callbacks once per interval. Callbacks of one tick run
// sequentially, in name order, on the ticker's goroutine.
//
// Invariant: all callbacks are invoked at most once per tick interval.
type Ticker struct {
	interval time.Duration
	mu       sync.Mutex
	ticks    map[string]func(now time.Time)
}

// NewTicker returns a ticker firing every interval.
//
// Precondition: interval must be > 0.
func NewTicker(interval time.Duration) *Ticker {
	if interval <= 0 {
		panic("world.NewTicker: interval must be > 0")
	}
	return &Ticker{
		interval: interval,
		ticks:    make(map[string]func(time.Time)),
	}
}

// Register adds fn under name, replacing any existing callback.
func (t *Ticker) Register(name string, fn func(now time.Time)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.ticks[name] = fn
}

// Unregister removes the callback registered under name.
func (t *Ticker) Unregister(name string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.ticks, name)
}

// Fire runs every registered callback once with now.
func (t *Ticker) Fire(now time.Time) {
	t.mu.Lock()
	names := make([]string, 0, len(t.ticks))
	for name := range t.ticks {
		names = append(names, name)
	}
	callbacks := make([]func(time.Time), 0, len(names))
	sort.Strings(names)
	for _, name := range names {
		callbacks = append(callbacks, t.ticks[name])
	}
	t.mu.Unlock()

	for _, fn := range callbacks {
		fn(now)
	}
}

// Run fires the registered callbacks every interval until ctx is cancelled.
//
// Postcondition: Returns ctx.Err().
func (t *Ticker) Run(ctx context.Context) error {
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C:
			t.Fire(now)
		}
	}
}
