package mob

import "sync"

// Attackers is the ordered set of characters currently attacking a mob.
// The combat system mutates it; behaviors only read snapshots.
// All methods are safe for concurrent use.
type Attackers struct {
	mu   sync.RWMutex
	list []Character
}

// NewAttackers returns an empty registry.
func NewAttackers() *Attackers {
	return &Attackers{}
}

// Add appends c unless a character with the same instance is already present.
//
// Postcondition: Returns true iff c was added.
func (a *Attackers) Add(c Character) bool {
	if c == nil {
		return false
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, existing := range a.list {
		if existing.Instance() == c.Instance() {
			return false
		}
	}
	a.list = append(a.list, c)
	return true
}

// Remove deletes the attacker with the given instance. Unknown instances are ignored.
func (a *Attackers) Remove(instance string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for i, c := range a.list {
		if c.Instance() == instance {
			a.list = append(a.list[:i], a.list[i+1:]...)
			return
		}
	}
}

// Clear removes every attacker.
func (a *Attackers) Clear() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.list = nil
}

// Len returns the number of attackers.
func (a *Attackers) Len() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.list)
}

// Snapshot returns a copy of the attacker list in insertion order.
//
// Postcondition: Returns a non-nil slice (may be empty).
func (a *Attackers) Snapshot() []Character {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make([]Character, len(a.list))
	copy(out, a.list)
	return out
}

// Has reports whether instance is attacking.
func (a *Attackers) Has(instance string) bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	for _, c := range a.list {
		if c.Instance() == instance {
			return true
		}
	}
	return false
}
