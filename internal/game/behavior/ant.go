package behavior

import (
	"time"

	"github.com/kaetram/mobengine/internal/game/mob"
	"github.com/kaetram/mobengine/internal/game/packet"
	"github.com/kaetram/mobengine/internal/game/timer"
)

// AntHealAmount is the hit points a worker ant restores per heal.
const AntHealAmount = 35

// Ant is a pacifist healer: it ignores damage and periodically walks to the
// mob it tends and heals it.
type Ant struct {
	*Default
	healInterval timer.Handle
}

// NewAnt builds the ant behavior and starts its heal interval, whose period is
// rolled once between one and five seconds.
func NewAnt(d *Default) Behavior {
	a := &Ant{Default: d}
	period := time.Duration(d.Roll("ant heal interval", 1000, 5000)) * time.Millisecond
	a.healInterval = d.Every(period, a.heal)
	return a
}

// OnHit is a no-op: ants cannot be provoked.
func (a *Ant) OnHit(int, mob.Character) {}

// Pacifist keeps a hit from engaging the ant with its attacker.
func (a *Ant) Pacifist() bool { return true }

func (a *Ant) heal() {
	target := a.Mob.Target()
	if target == nil || !target.IsMob() {
		return
	}
	a.Mob.Combat.Follow(target)
	if a.Mob.Position().Distance(target.Position()) > 1 {
		return
	}
	target.Heal(AntHealAmount, mob.ResourceHitPoints)
	a.World().SendToRegions(a.Mob, packet.Heal{
		Instance: target.Instance(),
		Amount:   AntHealAmount,
		Resource: string(mob.ResourceHitPoints),
	})
}

// OnDeath clears the heal interval.
func (a *Ant) OnDeath(mob.Character) {
	timer.Stop(a.healInterval)
	a.healInterval = nil
}

// Healing reports whether the heal interval is armed.
func (a *Ant) Healing() bool { return a.healInterval != nil }
