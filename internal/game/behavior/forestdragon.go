package behavior

import "github.com/kaetram/mobengine/internal/game/mob"

const (
	forestDragonRangedRange  = 10
	forestDragonSpecialRange = 9
	forestDragonFireball     = "projectile-fireball"
	forestDragonTerror       = "projectile-terror"
)

// ForestDragon fights in melee against adjacent, stationary melee targets and
// breathes fire otherwise. On one attack in three it unleashes a terror bolt
// that lasts until its next attack.
type ForestDragon struct {
	*Default
	specialAttack bool
}

// NewForestDragon builds the Forest Dragon behavior.
func NewForestDragon(d *Default) Behavior {
	return &ForestDragon{Default: d}
}

// OnCombatTick picks melee or ranged style from the target's distance, style
// and movement. It leaves a pending special attack untouched.
func (f *ForestDragon) OnCombatTick() {
	if f.specialAttack {
		return
	}
	f.recomputeStyle()
}

func (f *ForestDragon) OnAttack() {
	if f.specialAttack {
		f.specialAttack = false
		f.Mob.SetProjectileName(forestDragonFireball)
		f.recomputeStyle()
		return
	}
	if f.Roll("forest dragon special", 1, 3) == 2 {
		f.specialAttack = true
		f.Mob.SetAttackRange(forestDragonSpecialRange)
		f.Mob.SetProjectileName(forestDragonTerror)
	}
}

func (f *ForestDragon) recomputeStyle() {
	target := f.Mob.Target()
	if target == nil {
		return
	}
	if f.Mob.Position().Distance(target.Position()) > 1 || target.IsRanged() || target.IsMoving() {
		f.Mob.SetAttackRange(forestDragonRangedRange)
		f.Mob.SetProjectileName(forestDragonFireball)
		return
	}
	f.Mob.SetAttackRange(1)
}

func (f *ForestDragon) OnDeath(mob.Character) {
	f.specialAttack = false
}

// SpecialAttack reports whether the terror bolt is armed.
func (f *ForestDragon) SpecialAttack() bool { return f.specialAttack }
