package behavior

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kaetram/mobengine/internal/game/mob"
	"github.com/kaetram/mobengine/internal/game/packet"
	"github.com/kaetram/mobengine/internal/game/timer"
)

// Default is the shared base every species plugin embeds. Its hook methods
// are no-ops, so a plugin only overrides the hooks it cares about; the helper
// methods are the services plugins call explicitly.
type Default struct {
	// Mob is the mob this behavior drives.
	Mob *mob.Mob
	// Minions holds the live minions this behavior has spawned.
	Minions *MinionRegistry

	world  World
	damage DamageFunc
	roller rollFunc
	chance chanceFunc
	sched  timer.Scheduler
	logger *zap.Logger

	timersMu sync.Mutex
	timers   map[*ownedTimer]struct{}
}

// ownedTimer is one timer started through Default. Its handle is filled in
// once the scheduler returns it.
type ownedTimer struct {
	h timer.Handle
}

type (
	rollFunc   func(reason string, min, max int) int
	chanceFunc func(reason string, sides, hit int) bool
)

func newDefault(m *mob.Mob, env Env) *Default {
	damage := env.Damage
	if damage == nil {
		damage = func(mob.Character, mob.Character) int { return 0 }
	}
	return &Default{
		Mob:     m,
		Minions: NewMinionRegistry(),
		world:   env.World,
		damage:  damage,
		roller:  env.Roller.Int,
		chance:  env.Roller.Chance,
		sched:   env.Scheduler,
		logger:  env.Logger,
		timers:  make(map[*ownedTimer]struct{}),
	}
}

// NewDefault returns the no-op species behavior.
func NewDefault(d *Default) Behavior { return d }

func (d *Default) OnHit(int, mob.Character) {}
func (d *Default) OnAttack()                {}
func (d *Default) OnCombatTick()            {}
func (d *Default) OnDeath(mob.Character)    {}

// Logger returns the mob-scoped logger.
func (d *Default) Logger() *zap.Logger { return d.logger }

// World returns the world services.
func (d *Default) World() World { return d.world }

// Roll returns a logged uniform integer in [min, max].
func (d *Default) Roll(reason string, min, max int) int {
	return d.roller(reason, min, max)
}

// Chance reports whether a logged roll in [1, sides] equals hit.
func (d *Default) Chance(reason string, sides, hit int) bool {
	return d.chance(reason, sides, hit)
}

// AttackAll counter-attacks every current attacker: for each it computes
// damage, spawns a projectile carrying the hit and broadcasts the spawn.
//
// Postcondition: Returns the number of projectiles launched.
func (d *Default) AttackAll(hitType HitType, aoe int) int {
	launched := 0
	for _, attacker := range d.Mob.Attackers.Snapshot() {
		hit := Hit{
			Type:   hitType,
			Damage: d.damage(d.Mob, attacker),
			Ranged: true,
			AoE:    aoe,
		}
		p, err := d.world.SpawnProjectile(d.Mob, attacker, hit)
		if err != nil {
			d.logger.Warn("spawning projectile", zap.String("target", attacker.Instance()), zap.Error(err))
			continue
		}
		pos := d.Mob.Position()
		d.world.SendToRegions(d.Mob, packet.Spawn{
			Instance: p.Instance,
			Key:      p.Key,
			X:        pos.X,
			Y:        pos.Y,
			Source:   d.Mob.Instance(),
			Target:   attacker.Instance(),
			Damage:   hit.Damage,
			HitType:  string(hit.Type),
			AoE:      aoe,
		})
		launched++
	}
	return launched
}

// Spawn creates a minion of species key at pos running its species plugin.
// See SpawnWithPlugin.
func (d *Default) Spawn(key string, pos mob.Position) (*mob.Mob, error) {
	return d.SpawnWithPlugin(key, pos, true)
}

// SpawnWithPlugin creates a minion of species key at pos and registers it
// with this behavior. When withPlugin is false the minion runs the no-op
// Default behavior instead of its species plugin. The minion never respawns
// on its own, is always aggressive, shares the boss's aggro range and roam
// distance, and deregisters itself when it dies. Enforcing population caps is
// the caller's responsibility.
func (d *Default) SpawnWithPlugin(key string, pos mob.Position, withPlugin bool) (*mob.Mob, error) {
	minion, err := d.world.SpawnMob(key, pos, withPlugin)
	if err != nil {
		d.logger.Warn("spawning minion", zap.String("key", key), zap.Error(err))
		return nil, err
	}
	minion.SetRespawnable(false)
	minion.SetAggroRange(d.Mob.AggroRange())
	minion.SetRoamDistance(d.Mob.RoamDistance())
	minion.SetAlwaysAggressive(true)

	d.Minions.Add(minion)
	minion.OnDeath(func(m *mob.Mob) {
		d.Minions.Remove(m.Instance())
	})
	if minion.Dead() {
		d.Minions.Remove(minion.Instance())
	}

	d.logger.Debug("minion spawned",
		zap.String("minion", minion.Instance()),
		zap.String("key", key),
		zap.Int("x", pos.X),
		zap.Int("y", pos.Y),
	)
	return minion, nil
}

// Target picks one current attacker uniformly at random, or returns nil when
// nobody is attacking.
func (d *Default) Target() mob.Character {
	attackers := d.Mob.Attackers.Snapshot()
	if len(attackers) == 0 {
		return nil
	}
	return attackers[d.roller("target", 0, len(attackers)-1)]
}

// OrderAttack sends minion after a random attacker of the boss, if any.
func (d *Default) OrderAttack(minion *mob.Mob) {
	if t := d.Target(); t != nil {
		minion.Combat.Attack(t)
	}
}

// IsHalfHealth reports whether hit points are at or below half of maximum.
func (d *Default) IsHalfHealth() bool {
	return d.Mob.HitPoints.AtOrBelow(0.5)
}

// IsQuarterHealth reports whether hit points are at or below a quarter of maximum.
func (d *Default) IsQuarterHealth() bool {
	return d.Mob.HitPoints.AtOrBelow(0.25)
}

// Talk broadcasts a line of dialogue from the mob.
func (d *Default) Talk(text string) {
	d.world.SendToRegions(d.Mob, packet.Chat{Instance: d.Mob.Instance(), Text: text})
}

// After starts a one-shot timer owned by this behavior. The timer stops being
// owned once it fires.
func (d *Default) After(dur time.Duration, fn func()) timer.Handle {
	t := d.own()
	h := d.sched.After(dur, func() {
		d.disown(t)
		fn()
	})
	return d.bind(t, h)
}

// Every starts a repeating timer owned by this behavior until it dies.
func (d *Default) Every(dur time.Duration, fn func()) timer.Handle {
	t := d.own()
	return d.bind(t, d.sched.Every(dur, fn))
}

// Timers returns the number of timers this behavior currently owns.
func (d *Default) Timers() int {
	d.timersMu.Lock()
	defer d.timersMu.Unlock()
	return len(d.timers)
}

func (d *Default) own() *ownedTimer {
	t := &ownedTimer{}
	d.timersMu.Lock()
	d.timers[t] = struct{}{}
	d.timersMu.Unlock()
	return t
}

func (d *Default) disown(t *ownedTimer) {
	d.timersMu.Lock()
	delete(d.timers, t)
	d.timersMu.Unlock()
}

// bind records h on t. If t was released before the scheduler returned, by
// stopTimers or by firing, h is stopped so it cannot outlive the behavior.
func (d *Default) bind(t *ownedTimer, h timer.Handle) timer.Handle {
	d.timersMu.Lock()
	_, owned := d.timers[t]
	if owned {
		t.h = h
	}
	d.timersMu.Unlock()
	if !owned {
		timer.Stop(h)
	}
	return h
}

// stopTimers stops every timer this behavior owns and returns how many.
func (d *Default) stopTimers() int {
	d.timersMu.Lock()
	timers := d.timers
	d.timers = make(map[*ownedTimer]struct{})
	d.timersMu.Unlock()

	for t := range timers {
		timer.Stop(t.h)
	}
	return len(timers)
}
