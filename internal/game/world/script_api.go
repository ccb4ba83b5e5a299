package world

import (
	"github.com/kaetram/mobengine/internal/game/mob"
	"github.com/kaetram/mobengine/internal/scripting"
)

// ScriptAPI returns the mob.* callbacks species scripts use to act on the mobs
// of this world. Unknown instance ids are ignored.
func (w *World) ScriptAPI() scripting.MobAPI {
	return scripting.MobAPI{
		SetProjectile: func(id, name string) {
			if m, ok := w.mobs.Get(id); ok {
				m.SetProjectileName(name)
			}
		},
		SetAttackRange: func(id string, r int) {
			if m, ok := w.mobs.Get(id); ok {
				m.SetAttackRange(r)
			}
		},
		Talk: func(id, text string) {
			if h, ok := w.Handler(id); ok {
				h.Default().Talk(text)
			}
		},
		HitPointRatio: func(id string) float64 {
			if m, ok := w.mobs.Get(id); ok {
				return m.HitPoints.Ratio()
			}
			return 0
		},
		AttackerCount: func(id string) int {
			if m, ok := w.mobs.Get(id); ok {
				return m.Attackers.Len()
			}
			return 0
		},
		Position: func(id string) (int, int, bool) {
			m, ok := w.mobs.Get(id)
			if !ok {
				return 0, 0, false
			}
			pos := m.Position()
			return pos.X, pos.Y, true
		},
		Spawn: func(id, key string, x, y int) (string, error) {
			h, ok := w.Handler(id)
			if !ok {
				return "", mob.ErrNotFound
			}
			minion, err := h.Default().Spawn(key, mob.Position{X: x, Y: y})
			if err != nil {
				return "", err
			}
			h.Default().OrderAttack(minion)
			return minion.Instance(), nil
		},
		MinionCount: func(id string) int {
			if h, ok := w.Handler(id); ok {
				return h.Default().Minions.Len()
			}
			return 0
		},
		RandomInt: func(min, max int) int {
			return w.roller.Int("script", min, max)
		},
	}
}
