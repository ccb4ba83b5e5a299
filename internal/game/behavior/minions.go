package behavior

import (
	"sync"

	"github.com/kaetram/mobengine/internal/game/mob"
)

// MinionRegistry holds the live minions spawned by one boss. It is owned by
// exactly one behavior instance and never shared.
//
// Invariant: a minion is removed no later than the end of its death callbacks.
// All methods are safe for concurrent use, because minion deaths are reported
// from the minion's own hook goroutine.
type MinionRegistry struct {
	mu      sync.Mutex
	minions map[string]*mob.Mob
}

// NewMinionRegistry returns an empty registry.
func NewMinionRegistry() *MinionRegistry {
	return &MinionRegistry{minions: make(map[string]*mob.Mob)}
}

// Add registers m.
func (r *MinionRegistry) Add(m *mob.Mob) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.minions[m.Instance()] = m
}

// Remove deregisters instance. Unknown instances are ignored.
func (r *MinionRegistry) Remove(instance string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.minions, instance)
}

// Len returns the number of live minions.
func (r *MinionRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.minions)
}

// Snapshot returns the live minions in no particular order.
func (r *MinionRegistry) Snapshot() []*mob.Mob {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*mob.Mob, 0, len(r.minions))
	for _, m := range r.minions {
		out = append(out, m)
	}
	return out
}

// Has reports whether instance is registered.
func (r *MinionRegistry) Has(instance string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.minions[instance]
	return ok
}

// Recall kills every registered minion regardless of its remaining health and
// empties the registry. It returns how many minions were recalled.
func (r *MinionRegistry) Recall() int {
	minions := r.Snapshot()
	for _, m := range minions {
		m.Kill(nil)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for id := range r.minions {
		delete(r.minions, id)
	}
	return len(minions)
}
