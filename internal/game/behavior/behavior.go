// Package behavior implements the per-mob behavior engine: the Handler that
// serializes combat hooks for one mob, the Default services every species
// plugin builds on, and the species plugins themselves.
package behavior

import (
	"go.uber.org/zap"

	"github.com/kaetram/mobengine/internal/game/mob"
	"github.com/kaetram/mobengine/internal/game/packet"
	"github.com/kaetram/mobengine/internal/game/rng"
	"github.com/kaetram/mobengine/internal/game/timer"
)

// Behavior is the capability set a species plugin implements. Hooks are only
// ever invoked through a Handler, which guarantees that no two hooks for the
// same mob run at the same time.
type Behavior interface {
	// OnHit runs each time the mob takes non-lethal damage.
	OnHit(damage int, attacker mob.Character)
	// OnAttack runs when the mob performs its own attack.
	OnAttack()
	// OnCombatTick runs once per combat loop tick.
	OnCombatTick()
	// OnDeath runs exactly once when the mob dies. Timers started through
	// Default are stopped by the Handler after OnDeath returns.
	OnDeath(attacker mob.Character)
}

// Pacifist is implemented by behaviors whose mob must not be engaged by the
// attacker that hits it.
type Pacifist interface {
	Pacifist() bool
}

// HitType classifies a Hit.
type HitType string

const (
	HitDamage    HitType = "damage"
	HitCritical  HitType = "critical"
	HitExplosive HitType = "explosive"
	HitTerror    HitType = "terror"
)

// Hit is the damage payload carried by an attack or projectile.
type Hit struct {
	Type   HitType
	Damage int
	Ranged bool
	// AoE is the splash radius in tiles; zero for single-target hits.
	AoE int
}

// Projectile is a spawned projectile entity in flight toward Target.
type Projectile struct {
	Instance string
	Key      string
	Source   mob.Character
	Target   mob.Character
	Hit      Hit
}

// World is the set of world services behaviors consume. It is implemented by
// the game world, not by this package.
type World interface {
	// SpawnMob creates a mob of species key at pos. When withPlugin is false
	// the mob gets the no-op Default behavior instead of its species plugin.
	SpawnMob(key string, pos mob.Position, withPlugin bool) (*mob.Mob, error)
	// SpawnProjectile launches a projectile from source at target.
	SpawnProjectile(source, target mob.Character, hit Hit) (*Projectile, error)
	// SendToRegions broadcasts p to every observer of source's region.
	SendToRegions(source *mob.Mob, p packet.Packet)
	// CleanCombat clears every attacker relationship of m.
	CleanCombat(m *mob.Mob)
	// Move relocates m, keeping the region index consistent.
	Move(m *mob.Mob, to mob.Position) error
}

// DamageFunc computes the damage attacker deals to defender.
type DamageFunc func(attacker, defender mob.Character) int

// Env bundles the services handed to a behavior at construction.
type Env struct {
	World     World
	Damage    DamageFunc
	Roller    *rng.Roller
	Scheduler timer.Scheduler
	Logger    *zap.Logger
}

// Factory builds the species behavior for one mob around its Default services.
type Factory func(d *Default) Behavior
