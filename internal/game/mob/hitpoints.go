package mob

import "sync"

// HitPoints tracks current and maximum health. All methods are safe for
// concurrent use; threshold queries always read the live value.
//
// Invariant: 0 <= current <= max.
type HitPoints struct {
	mu      sync.RWMutex
	current int
	max     int
}

// NewHitPoints returns full health at max.
//
// Precondition: max >= 1.
func NewHitPoints(max int) *HitPoints {
	if max < 1 {
		panic("mob.NewHitPoints: max must be >= 1")
	}
	return &HitPoints{current: max, max: max}
}

// Current returns the current hit points.
func (h *HitPoints) Current() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.current
}

// Max returns the maximum hit points.
func (h *HitPoints) Max() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.max
}

// Damage subtracts amount, flooring at zero, and returns the remaining hit points.
// Negative amounts are ignored.
func (h *HitPoints) Damage(amount int) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	if amount > 0 {
		h.current -= amount
		if h.current < 0 {
			h.current = 0
		}
	}
	return h.current
}

// Heal adds amount, capped at max, and returns the new value. A dead pool
// stays dead.
func (h *HitPoints) Heal(amount int) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	if amount > 0 && h.current > 0 {
		h.current += amount
		if h.current > h.max {
			h.current = h.max
		}
	}
	return h.current
}

// Set forces the current value, clamped into [0, max].
func (h *HitPoints) Set(v int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	switch {
	case v < 0:
		h.current = 0
	case v > h.max:
		h.current = h.max
	default:
		h.current = v
	}
}

// Reset restores full health.
func (h *HitPoints) Reset() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.current = h.max
}

// Ratio returns current/max in [0, 1].
func (h *HitPoints) Ratio() float64 {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return float64(h.current) / float64(h.max)
}

// AtOrBelow reports whether current <= fraction*max.
func (h *HitPoints) AtOrBelow(fraction float64) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return float64(h.current) <= fraction*float64(h.max)
}

// IsDead reports whether current has reached zero.
func (h *HitPoints) IsDead() bool {
	return h.Current() <= 0
}
