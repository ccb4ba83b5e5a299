package behavior

import (
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/kaetram/mobengine/internal/game/mob"
)

// Lua hook names a species script may define.
const (
	HookOnHit        = "on_hit"
	HookOnAttack     = "on_attack"
	HookOnCombatTick = "on_combat_tick"
	HookOnDeath      = "on_death"
)

// ScriptHost runs species scripts.
type ScriptHost interface {
	Has(species string) bool
	CallHook(species, hook string, args ...lua.LValue) (lua.LValue, error)
}

// Scripted forwards every hook to the Lua script of its species. Each hook
// receives the mob's instance id first; minions the script spawns are
// recalled when the mob dies.
type Scripted struct {
	*Default
	host    ScriptHost
	species string
}

// ScriptedFactory returns a Factory binding mobs to species' script on host.
func ScriptedFactory(host ScriptHost, species string) Factory {
	return func(d *Default) Behavior {
		return &Scripted{Default: d, host: host, species: species}
	}
}

func (s *Scripted) OnHit(damage int, attacker mob.Character) {
	s.call(HookOnHit, lua.LNumber(damage), characterID(attacker))
}

func (s *Scripted) OnAttack() {
	s.call(HookOnAttack)
}

func (s *Scripted) OnCombatTick() {
	s.call(HookOnCombatTick)
}

func (s *Scripted) OnDeath(attacker mob.Character) {
	s.call(HookOnDeath, characterID(attacker))
	s.Minions.Recall()
}

func (s *Scripted) call(hook string, args ...lua.LValue) {
	all := append([]lua.LValue{lua.LString(s.Mob.Instance())}, args...)
	if _, err := s.host.CallHook(s.species, hook, all...); err != nil {
		s.Logger().Debug("script hook failed", zap.String("hook", hook), zap.Error(err))
	}
}

func characterID(c mob.Character) lua.LValue {
	if c == nil {
		return lua.LNil
	}
	return lua.LString(c.Instance())
}
