package behavior

import (
	"time"

	"github.com/kaetram/mobengine/internal/game/mob"
	"github.com/kaetram/mobengine/internal/game/timer"
)

// OgreLord dialogue cadence.
const OgreLordTalkInterval = 15 * time.Second

var ogreLordDialogue = []string{
	"Get ready to face my wrath!",
	"I shall crush you into the ground.",
	"You dare enter my domain?",
	"My ogres will feast tonight!",
	"Is that all you have, little one?",
}

var (
	ogreLordFirstWave = Wave{
		Key:       "ogre",
		Threshold: 0.5,
		Positions: []mob.Position{{X: 140, Y: 212}, {X: 138, Y: 212}, {X: 136, Y: 214}, {X: 142, Y: 214}},
	}
	ogreLordSecondWave = Wave{
		Key:       "ogrewarrior",
		Threshold: 0.25,
		Positions: []mob.Position{{X: 137, Y: 210}, {X: 141, Y: 210}, {X: 135, Y: 212}, {X: 143, Y: 212}},
	}
)

// OgreLord is a wave boss that taunts its attackers while in combat.
type OgreLord struct {
	*WaveBoss
	talk timer.Handle
}

// NewOgreLord builds the Ogre Lord behavior and starts its dialogue timer.
func NewOgreLord(d *Default) Behavior {
	o := &OgreLord{WaveBoss: NewWaveBoss(d, ogreLordFirstWave, ogreLordSecondWave)}
	o.talk = d.Every(OgreLordTalkInterval, o.speak)
	return o
}

func (o *OgreLord) speak() {
	if !o.Mob.Combat.Started() {
		return
	}
	o.Talk(ogreLordDialogue[o.Roll("ogrelord dialogue", 0, len(ogreLordDialogue)-1)])
}

// OnDeath recalls the minions and cancels the dialogue timer.
func (o *OgreLord) OnDeath(attacker mob.Character) {
	o.WaveBoss.OnDeath(attacker)
	timer.Stop(o.talk)
	o.talk = nil
}
