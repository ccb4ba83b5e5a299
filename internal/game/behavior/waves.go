package behavior

import (
	"go.uber.org/zap"

	"github.com/kaetram/mobengine/internal/game/mob"
)

// Phase is a wave boss's position in its encounter.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseEngaged
	PhaseFirstWave
	PhaseSecondWave
	PhaseDead
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseEngaged:
		return "engaged"
	case PhaseFirstWave:
		return "first_wave"
	case PhaseSecondWave:
		return "second_wave"
	case PhaseDead:
		return "dead"
	default:
		return "unknown"
	}
}

// Wave is one batch of minions released when the boss's health ratio falls to
// Threshold or below.
type Wave struct {
	Key       string
	Threshold float64
	Positions []mob.Position
}

// WaveBoss releases its two waves exactly once each per life and recalls every
// live minion when it dies.
type WaveBoss struct {
	*Default

	first, second Wave
	phase         Phase

	firstWaveMinions  bool
	secondWaveMinions bool
}

// NewWaveBoss builds a wave boss around d.
func NewWaveBoss(d *Default, first, second Wave) *WaveBoss {
	return &WaveBoss{Default: d, first: first, second: second}
}

// OnHit re-evaluates both thresholds against the live hit points. The latch is
// set before any minion is spawned. A hit with no attacker on record neither
// engages the boss nor releases a wave; a threshold it crossed is released by
// the next attributed hit.
func (b *WaveBoss) OnHit(damage int, attacker mob.Character) {
	if b.Mob.Attackers.Len() == 0 {
		return
	}
	if b.phase == PhaseIdle {
		b.phase = PhaseEngaged
	}

	if !b.firstWaveMinions && b.Mob.HitPoints.AtOrBelow(b.first.Threshold) {
		b.firstWaveMinions = true
		b.phase = PhaseFirstWave
		b.release(b.first)
	}

	if b.firstWaveMinions && !b.secondWaveMinions && b.Mob.HitPoints.AtOrBelow(b.second.Threshold) {
		b.secondWaveMinions = true
		b.phase = PhaseSecondWave
		b.release(b.second)
	}
}

// OnDeath recalls every live minion and resets the latches.
func (b *WaveBoss) OnDeath(mob.Character) {
	recalled := b.Minions.Recall()
	b.firstWaveMinions = false
	b.secondWaveMinions = false
	b.phase = PhaseDead
	b.Logger().Info("wave boss died", zap.Int("minions_recalled", recalled))
}

func (b *WaveBoss) release(w Wave) {
	spawned := 0
	for _, pos := range w.Positions {
		minion, err := b.Spawn(w.Key, pos)
		if err != nil {
			continue
		}
		b.OrderAttack(minion)
		spawned++
	}
	b.Logger().Info("minion wave released",
		zap.String("key", w.Key),
		zap.Stringer("phase", b.phase),
		zap.Int("spawned", spawned),
	)
}

// Phase returns the current encounter phase.
func (b *WaveBoss) Phase() Phase { return b.phase }

// FirstWaveMinions reports whether the first wave has been released this life.
func (b *WaveBoss) FirstWaveMinions() bool { return b.firstWaveMinions }

// SecondWaveMinions reports whether the second wave has been released this life.
func (b *WaveBoss) SecondWaveMinions() bool { return b.secondWaveMinions }
