package mob

import (
	"sync"
	"time"
)

// respawnEntry is a single pending respawn.
type respawnEntry struct {
	key     string
	at      Position
	readyAt time.Time
}

// Respawner schedules respawns of dead respawnable mobs at their spawn point.
// Minions are never scheduled because spawning clears their Respawnable flag.
//
// Concurrency: Schedule may be called from any goroutine. Tick must not be
// called concurrently with itself; in practice it runs on the world tick loop.
type Respawner struct {
	mu      sync.Mutex
	pending []respawnEntry
}

// NewRespawner returns an empty Respawner.
func NewRespawner() *Respawner {
	return &Respawner{}
}

// Schedule enqueues a respawn of key at pos to fire at now+delay.
// No-op when delay <= 0.
func (r *Respawner) Schedule(key string, pos Position, now time.Time, delay time.Duration) {
	if delay <= 0 {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pending = append(r.pending, respawnEntry{key: key, at: pos, readyAt: now.Add(delay)})
}

// Tick drains every entry whose readyAt <= now and calls spawn for each.
// Entries whose spawn fails are dropped.
//
// Postcondition: pending entries with readyAt <= now are consumed.
func (r *Respawner) Tick(now time.Time, spawn func(key string, pos Position) error) {
	r.mu.Lock()
	var ready, future []respawnEntry
	for _, e := range r.pending {
		if !e.readyAt.After(now) {
			ready = append(ready, e)
		} else {
			future = append(future, e)
		}
	}
	r.pending = future
	r.mu.Unlock()

	for _, e := range ready {
		_ = spawn(e.key, e.at)
	}
}

// Pending returns the number of queued respawns.
func (r *Respawner) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pending)
}
