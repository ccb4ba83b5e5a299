package behavior

import (
	"github.com/kaetram/mobengine/internal/game/mob"
)

const (
	// QueenAntMaxMinions caps the live workers of one queen.
	QueenAntMaxMinions = 10
	// queenAntAoEEvery is how many attacks separate two acid sprays.
	queenAntAoEEvery  = 3
	queenAntAoERadius = 2
)

// QueenAnt sprays acid at every attacker on each third attack and, on about
// one hit in eight, lays a worker ant that tends her wounds.
type QueenAnt struct {
	*Default
	attacks int
}

// NewQueenAnt builds the Queen Ant behavior.
func NewQueenAnt(d *Default) Behavior {
	return &QueenAnt{Default: d}
}

func (q *QueenAnt) OnAttack() {
	q.attacks++
	if q.attacks%queenAntAoEEvery == 0 {
		q.AttackAll(HitExplosive, queenAntAoERadius)
	}
}

func (q *QueenAnt) OnHit(damage int, attacker mob.Character) {
	if q.Minions.Len() >= QueenAntMaxMinions {
		return
	}
	if !q.Chance("queen ant worker", 8, 3) {
		return
	}
	pos := q.Mob.Position()
	pos.X += q.Roll("queen ant offset", -1, 1)
	pos.Y++
	worker, err := q.Spawn("workerant", pos)
	if err != nil {
		return
	}
	worker.Combat.SetTarget(q.Mob)
}

func (q *QueenAnt) OnDeath(mob.Character) {
	q.Minions.Recall()
	q.attacks = 0
}
