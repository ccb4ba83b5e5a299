// Package mob provides mob templates, live mob entities and the registry that
// tracks them by instance and by region.
package mob

// Resource names a pool that can be healed.
type Resource string

const (
	ResourceHitPoints Resource = "hitpoints"
	ResourceMana      Resource = "mana"
)

// Character is anything that can attack or be attacked: players and mobs.
type Character interface {
	// Instance is the unique runtime identifier.
	Instance() string
	Name() string
	Position() Position
	Level() int
	IsMob() bool
	IsRanged() bool
	// IsMoving reports whether the character is currently walking.
	IsMoving() bool
	// Heal restores amount to the named resource, capped at its maximum.
	Heal(amount int, res Resource)
}

// Hooks is the behavior capability set the combat system drives. The live
// implementation is installed on a Mob at spawn time.
type Hooks interface {
	HandleHit(damage int, attacker Character)
	HandleAttack()
	HandleCombatLoop()
	HandleDeath(attacker Character)
}
