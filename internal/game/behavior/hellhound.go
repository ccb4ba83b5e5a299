package behavior

import (
	"go.uber.org/zap"

	"github.com/kaetram/mobengine/internal/game/mob"
)

// HellhoundMaxMinions caps the live pups of one Hellhound.
const HellhoundMaxMinions = 8

// Hellhound summons a pup beside itself on roughly one hit in six.
type Hellhound struct {
	*Default
	minionsSpawned int
}

// NewHellhound builds the Hellhound behavior.
func NewHellhound(d *Default) Behavior {
	return &Hellhound{Default: d}
}

func (h *Hellhound) OnHit(damage int, attacker mob.Character) {
	if h.Minions.Len() >= HellhoundMaxMinions {
		return
	}
	if !h.Chance("hellhound spawn", 6, 2) {
		return
	}

	pos := h.Mob.Position()
	pos.X += h.Roll("hellhound offset x", -2, 2)
	pos.Y += h.Roll("hellhound offset y", -2, 2)
	minion, err := h.Spawn("hellhoundpup", pos)
	if err != nil {
		return
	}
	h.minionsSpawned++
	h.OrderAttack(minion)
	h.Logger().Debug("hellhound pup summoned", zap.Int("live", h.Minions.Len()))
}

// OnDeath recalls the pups and resets the spawn counter.
func (h *Hellhound) OnDeath(mob.Character) {
	h.Minions.Recall()
	h.minionsSpawned = 0
}

// MinionsSpawned returns how many pups this life has summoned in total.
func (h *Hellhound) MinionsSpawned() int { return h.minionsSpawned }
