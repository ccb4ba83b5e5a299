// Package formulas computes combat damage.
package formulas

import (
	"github.com/kaetram/mobengine/internal/game/mob"
	"github.com/kaetram/mobengine/internal/game/rng"
)

// Formulas rolls damage with an injected randomness source.
type Formulas struct {
	src rng.Source
}

// New returns Formulas rolling with src.
//
// Precondition: src must be non-nil.
func New(src rng.Source) *Formulas {
	if src == nil {
		panic("formulas.New: src must not be nil")
	}
	return &Formulas{src: src}
}

// MaxDamage returns the damage ceiling for attacker against defender:
// 2 + 2*attackerLevel, reduced by half the defender's level, never below 1.
//
// Postcondition: Returns >= 1.
func MaxDamage(attacker, defender mob.Character) int {
	max := 2 + 2*attacker.Level() - defender.Level()/2
	if max < 1 {
		max = 1
	}
	return max
}

// Damage rolls a uniform damage value in [0, MaxDamage(attacker, defender)].
//
// Postcondition: 0 <= result <= MaxDamage(attacker, defender).
func (f *Formulas) Damage(attacker, defender mob.Character) int {
	return rng.Int(f.src, 0, MaxDamage(attacker, defender))
}
