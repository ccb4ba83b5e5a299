package mob_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"

	"github.com/kaetram/mobengine/internal/game/mob"
)

func TestHitPoints_DamageFloorsAtZero(t *testing.T) {
	hp := mob.NewHitPoints(100)
	assert.Equal(t, 40, hp.Damage(60))
	assert.Equal(t, 0, hp.Damage(60))
	assert.True(t, hp.IsDead())
}

func TestHitPoints_HealCapsAtMax(t *testing.T) {
	hp := mob.NewHitPoints(100)
	hp.Damage(30)
	assert.Equal(t, 100, hp.Heal(35))
}

func TestHitPoints_HealDoesNotRevive(t *testing.T) {
	hp := mob.NewHitPoints(100)
	hp.Damage(100)
	assert.Equal(t, 0, hp.Heal(35))
}

func TestHitPoints_ThresholdsAreExact(t *testing.T) {
	hp := mob.NewHitPoints(1000)
	hp.Set(501)
	assert.False(t, hp.AtOrBelow(0.5))
	hp.Set(500)
	assert.True(t, hp.AtOrBelow(0.5))
	assert.False(t, hp.AtOrBelow(0.25))
	hp.Set(250)
	assert.True(t, hp.AtOrBelow(0.25))
}

func TestProperty_HitPoints_ThresholdMatchesRatio(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		max := rapid.IntRange(1, 10000).Draw(rt, "max")
		hp := mob.NewHitPoints(max)
		ops := rapid.SliceOfN(rapid.IntRange(-max, max), 1, 40).Draw(rt, "ops")
		for _, op := range ops {
			if op >= 0 {
				hp.Damage(op)
			} else {
				hp.Heal(-op)
			}
			cur := hp.Current()
			if cur < 0 || cur > max {
				rt.Fatalf("current %d escaped [0, %d]", cur, max)
			}
			if hp.AtOrBelow(0.5) != (2*cur <= max) {
				rt.Fatalf("half threshold wrong at %d/%d", cur, max)
			}
			if hp.AtOrBelow(0.25) != (4*cur <= max) {
				rt.Fatalf("quarter threshold wrong at %d/%d", cur, max)
			}
		}
	})
}
