package behavior

import (
	"time"

	"go.uber.org/zap"

	"github.com/kaetram/mobengine/internal/game/mob"
	"github.com/kaetram/mobengine/internal/game/packet"
)

const (
	// PirateCaptainMaxMinions caps the live crew of one captain.
	PirateCaptainMaxMinions = 8
	// PirateCaptainTeleportRange is the attack range after a teleport.
	PirateCaptainTeleportRange = 10
	// PirateCaptainTeleportDelay is how long the teleport animation lasts.
	PirateCaptainTeleportDelay = 400 * time.Millisecond
)

var pirateCaptainTeleports = []mob.Position{
	{X: 251, Y: 574},
	{X: 243, Y: 569},
	{X: 243, Y: 579},
	{X: 259, Y: 574},
}

var (
	pirateSkeletonSpawns = []mob.Position{{X: 248, Y: 571}, {X: 254, Y: 571}}
	pirateGunnerSpawns   = []mob.Position{{X: 246, Y: 578}, {X: 256, Y: 578}}
)

// PirateCaptain either summons crew or teleports across the deck when hit,
// never both on the same hit.
type PirateCaptain struct {
	*Default
	lastPickedTeleport *mob.Position
	minionsSpawned     int
}

// NewPirateCaptain builds the Pirate Captain behavior.
func NewPirateCaptain(d *Default) Behavior {
	return &PirateCaptain{Default: d}
}

func (p *PirateCaptain) OnHit(damage int, attacker mob.Character) {
	if p.Minions.Len() < PirateCaptainMaxMinions && p.Chance("pirate captain spawn", 6, 2) {
		p.spawnMinion()
		return
	}
	if p.Chance("pirate captain teleport", 12, 5) {
		p.teleport()
	}
}

func (p *PirateCaptain) spawnMinion() {
	key, spots := "pirateskeleton", pirateSkeletonSpawns
	if p.Roll("pirate captain crew", 0, 1) == 1 {
		key, spots = "pirategunner", pirateGunnerSpawns
	}
	minion, err := p.Spawn(key, spots[p.Roll("pirate captain spot", 0, len(spots)-1)])
	if err != nil {
		return
	}
	p.minionsSpawned++
	p.OrderAttack(minion)
}

func (p *PirateCaptain) teleport() {
	candidates := make([]mob.Position, 0, len(pirateCaptainTeleports))
	for _, pos := range pirateCaptainTeleports {
		if p.lastPickedTeleport != nil && pos == *p.lastPickedTeleport {
			continue
		}
		candidates = append(candidates, pos)
	}
	to := candidates[p.Roll("pirate captain teleport spot", 0, len(candidates)-1)]
	p.lastPickedTeleport = &to

	p.World().CleanCombat(p.Mob)
	p.Mob.SetAttackRange(PirateCaptainTeleportRange)
	if err := p.World().Move(p.Mob, to); err != nil {
		p.Logger().Warn("teleporting", zap.Error(err))
		return
	}
	p.Mob.SetTeleporting(true)
	p.World().SendToRegions(p.Mob, packet.Teleport{
		Instance:      p.Mob.Instance(),
		X:             to.X,
		Y:             to.Y,
		WithAnimation: true,
	})
	p.After(PirateCaptainTeleportDelay, func() {
		p.Mob.SetTeleporting(false)
	})
	p.Logger().Debug("pirate captain teleported", zap.Int("x", to.X), zap.Int("y", to.Y))
}

// OnDeath recalls the crew and forgets the last teleport spot.
func (p *PirateCaptain) OnDeath(mob.Character) {
	p.Minions.Recall()
	p.minionsSpawned = 0
	p.lastPickedTeleport = nil
}

// LastPickedTeleport returns the most recent teleport destination.
func (p *PirateCaptain) LastPickedTeleport() (mob.Position, bool) {
	if p.lastPickedTeleport == nil {
		return mob.Position{}, false
	}
	return *p.lastPickedTeleport, true
}
