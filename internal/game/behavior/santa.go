package behavior

import (
	"fmt"

	"github.com/kaetram/mobengine/internal/game/mob"
)

var santaDialogue = []string{
	"Ho ho ho!",
	"Someone has been naughty this year.",
	"Nothing but coal for you!",
	"Merry Christmas!",
}

// Santa throws one of six gift projectiles at random on every attack and
// occasionally calls out when struck.
type Santa struct {
	*Default
}

// NewSanta builds the Santa behavior.
func NewSanta(d *Default) Behavior {
	return &Santa{Default: d}
}

func (s *Santa) OnAttack() {
	s.Mob.SetProjectileName(GiftProjectile(s.Roll("santa gift", 1, 6)))
}

func (s *Santa) OnHit(int, mob.Character) {
	if !s.Chance("santa dialogue", 10, 1) {
		return
	}
	s.Talk(santaDialogue[s.Roll("santa dialogue line", 0, len(santaDialogue)-1)])
}

// GiftProjectile names gift variant n; the first variant has no suffix.
func GiftProjectile(n int) string {
	if n == 1 {
		return "projectile-gift"
	}
	return fmt.Sprintf("projectile-gift%d", n)
}
