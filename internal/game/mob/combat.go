package mob

import "sync"

// Combat is a mob's combat session: whether it has engaged, whom it is
// attacking and whom it is following.
// All methods are safe for concurrent use.
type Combat struct {
	mu        sync.RWMutex
	started   bool
	target    Character
	following Character
	onAttack  func(target Character)
}

// NewCombat returns an idle session. onAttack, if non-nil, is notified each
// time an attack command is issued.
func NewCombat(onAttack func(target Character)) *Combat {
	return &Combat{onAttack: onAttack}
}

// Started reports whether combat has begun.
func (c *Combat) Started() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.started
}

// Start marks combat as begun.
func (c *Combat) Start() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.started = true
}

// Stop ends combat and forgets the target and follow target.
func (c *Combat) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.started = false
	c.target = nil
	c.following = nil
}

// Attack issues an attack command against target and starts combat.
// A nil target is ignored.
func (c *Combat) Attack(target Character) {
	if target == nil {
		return
	}
	c.mu.Lock()
	c.started = true
	c.target = target
	notify := c.onAttack
	c.mu.Unlock()

	if notify != nil {
		notify(target)
	}
}

// Engage issues an attack command against target only if the session has no
// target yet, and reports whether it did. Concurrent callers race for the
// first engagement; exactly one wins.
func (c *Combat) Engage(target Character) bool {
	if target == nil {
		return false
	}
	c.mu.Lock()
	if c.target != nil {
		c.mu.Unlock()
		return false
	}
	c.started = true
	c.target = target
	notify := c.onAttack
	c.mu.Unlock()

	if notify != nil {
		notify(target)
	}
	return true
}

// SetTarget designates target without issuing an attack command. Healers use
// it to mark the mob they tend.
func (c *Combat) SetTarget(target Character) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.target = target
}

// Follow records target as the character this mob is walking toward.
func (c *Combat) Follow(target Character) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.following = target
}

// Target returns the current attack target, or nil.
func (c *Combat) Target() Character {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.target
}

// Following returns the current follow target, or nil.
func (c *Combat) Following() Character {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.following
}

// ClearTarget forgets the attack target without ending combat.
func (c *Combat) ClearTarget() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.target = nil
}

// OnAttack replaces the attack-command observer.
func (c *Combat) OnAttack(fn func(target Character)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onAttack = fn
}
