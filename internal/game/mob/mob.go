package mob

import "sync"

// Mob is a live AI-controlled character occupying the world.
type Mob struct {
	instance string
	key      string
	name     string
	level    int

	// HitPoints is the mob's health pool.
	HitPoints *HitPoints
	// Attackers is the registry of characters currently attacking this mob.
	Attackers *Attackers
	// Combat is the mob's combat session.
	Combat *Combat

	mu               sync.RWMutex
	pos              Position
	spawnPoint       Position
	attackRange      int
	projectileName   string
	roamDistance     int
	aggroRange       int
	alwaysAggressive bool
	respawnable      bool
	teleporting      bool
	moving           bool
	hooks            Hooks

	deathMu   sync.Mutex
	dead      bool
	callbacks []func(*Mob)
}

// NewMob creates a live mob from tmpl at pos with the given instance id.
//
// Precondition: instance must be non-empty; tmpl must be non-nil and valid.
// Postcondition: HitPoints is full; SpawnPoint equals pos.
func NewMob(instance string, tmpl *Template, pos Position) *Mob {
	m := &Mob{
		instance:         instance,
		key:              tmpl.Key,
		name:             tmpl.Name,
		level:            tmpl.Level,
		HitPoints:        NewHitPoints(tmpl.HitPoints),
		Attackers:        NewAttackers(),
		pos:              pos,
		spawnPoint:       pos,
		attackRange:      tmpl.AttackRange,
		projectileName:   tmpl.Projectile,
		roamDistance:     tmpl.RoamDistance,
		aggroRange:       tmpl.AggroRange,
		alwaysAggressive: tmpl.AlwaysAggressive,
		respawnable:      tmpl.Respawnable,
	}
	if m.attackRange < 1 {
		m.attackRange = 1
	}
	m.Combat = NewCombat(nil)
	return m
}

// Instance implements Character.
func (m *Mob) Instance() string { return m.instance }

// Key returns the species key, e.g. "ogrelord".
func (m *Mob) Key() string { return m.key }

// Name implements Character.
func (m *Mob) Name() string { return m.name }

// Level implements Character.
func (m *Mob) Level() int { return m.level }

// IsMob implements Character.
func (m *Mob) IsMob() bool { return true }

// IsRanged implements Character: a mob is ranged when it attacks from beyond
// melee distance.
func (m *Mob) IsRanged() bool { return m.AttackRange() > 1 }

// IsMoving implements Character.
func (m *Mob) IsMoving() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.moving
}

// SetMoving records whether the mob is walking.
func (m *Mob) SetMoving(v bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.moving = v
}

// Heal implements Character. Mobs have no mana pool; mana heals are ignored.
func (m *Mob) Heal(amount int, res Resource) {
	if res != ResourceHitPoints {
		return
	}
	m.HitPoints.Heal(amount)
}

// Position implements Character.
func (m *Mob) Position() Position {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.pos
}

// SetPosition moves the mob. Region bookkeeping is the Manager's job.
func (m *Mob) SetPosition(p Position) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pos = p
}

// SpawnPoint returns where the mob was spawned.
func (m *Mob) SpawnPoint() Position {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.spawnPoint
}

func (m *Mob) AttackRange() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.attackRange
}

func (m *Mob) SetAttackRange(r int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.attackRange = r
}

func (m *Mob) ProjectileName() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.projectileName
}

func (m *Mob) SetProjectileName(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.projectileName = name
}

func (m *Mob) RoamDistance() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.roamDistance
}

func (m *Mob) SetRoamDistance(d int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.roamDistance = d
}

func (m *Mob) AggroRange() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.aggroRange
}

func (m *Mob) SetAggroRange(r int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.aggroRange = r
}

func (m *Mob) AlwaysAggressive() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.alwaysAggressive
}

func (m *Mob) SetAlwaysAggressive(v bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.alwaysAggressive = v
}

func (m *Mob) Respawnable() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.respawnable
}

func (m *Mob) SetRespawnable(v bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.respawnable = v
}

// Teleporting reports whether a teleport animation is in flight.
func (m *Mob) Teleporting() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.teleporting
}

func (m *Mob) SetTeleporting(v bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.teleporting = v
}

// Target returns the combat target, or nil.
func (m *Mob) Target() Character {
	return m.Combat.Target()
}

// SetHooks installs the behavior hooks driven by the combat system.
func (m *Mob) SetHooks(h Hooks) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hooks = h
}

// Hooks returns the installed behavior hooks, or nil.
func (m *Mob) Hooks() Hooks {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.hooks
}

// OnDeath registers a one-shot callback run when the mob dies. Callbacks
// registered after death never run.
func (m *Mob) OnDeath(cb func(*Mob)) {
	m.deathMu.Lock()
	defer m.deathMu.Unlock()
	if m.dead {
		return
	}
	m.callbacks = append(m.callbacks, cb)
}

// FireDeath runs every registered death callback exactly once, in
// registration order. Later calls are no-ops.
//
// Postcondition: Returns true iff this call ran the callbacks.
func (m *Mob) FireDeath() bool {
	m.deathMu.Lock()
	if m.dead {
		m.deathMu.Unlock()
		return false
	}
	m.dead = true
	cbs := m.callbacks
	m.callbacks = nil
	m.deathMu.Unlock()

	for _, cb := range cbs {
		cb(m)
	}
	return true
}

// Dead reports whether FireDeath has run.
func (m *Mob) Dead() bool {
	m.deathMu.Lock()
	defer m.deathMu.Unlock()
	return m.dead
}

// Kill forces the mob to zero hit points and runs its death path through the
// installed hooks, or directly through FireDeath when none are installed.
func (m *Mob) Kill(attacker Character) {
	if m.Dead() {
		return
	}
	m.HitPoints.Set(0)
	if h := m.Hooks(); h != nil {
		h.HandleDeath(attacker)
		return
	}
	m.FireDeath()
}
