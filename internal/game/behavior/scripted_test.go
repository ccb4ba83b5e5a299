package behavior_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"

	"github.com/kaetram/mobengine/internal/game/behavior"
	"github.com/kaetram/mobengine/internal/game/mob"
	"github.com/kaetram/mobengine/internal/game/packet"
	"github.com/kaetram/mobengine/internal/game/rng"
	"github.com/kaetram/mobengine/internal/scripting"
)

const yetiScript = `
function on_hit(self, damage, attacker)
  if mob.hp_ratio(self) <= 0.5 and mob.minions(self) < 2 then
    mob.spawn(self, "snowwolf", 70, 70)
  end
end

function on_attack(self)
  mob.set_projectile(self, "projectile-ice")
  mob.set_range(self, 6)
end

function on_death(self, attacker)
  mob.talk(self, "The mountain remembers.")
end
`

func scriptedWorld(t *testing.T) (*fakeWorld, *scripting.Manager) {
	t.Helper()
	w := newFakeWorld(t, rng.NewCryptoSource())
	mgr := scripting.NewManager(w.roller, 100000, zaptest.NewLogger(t))
	t.Cleanup(mgr.Close)

	lookup := func(instance string) *behavior.Handler {
		m, ok := w.mgr.Get(instance)
		if !ok {
			return nil
		}
		return w.handler(m)
	}
	mgr.SetAPI(scripting.MobAPI{
		SetProjectile: func(id, name string) {
			if h := lookup(id); h != nil {
				h.Mob().SetProjectileName(name)
			}
		},
		SetAttackRange: func(id string, r int) {
			if h := lookup(id); h != nil {
				h.Mob().SetAttackRange(r)
			}
		},
		Talk: func(id, text string) {
			if h := lookup(id); h != nil {
				h.Default().Talk(text)
			}
		},
		HitPointRatio: func(id string) float64 {
			if h := lookup(id); h != nil {
				return h.Mob().HitPoints.Ratio()
			}
			return 0
		},
		Spawn: func(id, key string, x, y int) (string, error) {
			h := lookup(id)
			if h == nil {
				return "", mob.ErrNotFound
			}
			m, err := h.Default().Spawn(key, mob.Position{X: x, Y: y})
			if err != nil {
				return "", err
			}
			return m.Instance(), nil
		},
		MinionCount: func(id string) int {
			if h := lookup(id); h != nil {
				return h.Default().Minions.Len()
			}
			return 0
		},
	})
	require.NoError(t, mgr.LoadString("yeti", yetiScript))
	w.scripts = mgr
	return w, mgr
}

func TestScripted_DrivesMobThroughLuaHooks(t *testing.T) {
	w, _ := scriptedWorld(t)
	yeti, h := w.spawn("yeti", mob.Position{X: 70, Y: 70})
	h.Inspect(func(b behavior.Behavior) {
		_, ok := b.(*behavior.Scripted)
		assert.True(t, ok, "got %T", b)
	})
	attacker := newPlayer("p1", 71, 70)

	hit(h, 100, attacker)
	assert.Zero(t, h.Default().Minions.Len())

	hit(h, 60, attacker)
	hit(h, 10, attacker)
	hit(h, 10, attacker)
	assert.Equal(t, 2, h.Default().Minions.Len())

	h.HandleAttack()
	assert.Equal(t, "projectile-ice", yeti.ProjectileName())
	assert.Equal(t, 6, yeti.AttackRange())

	wolves := h.Default().Minions.Snapshot()
	yeti.Kill(attacker)
	for _, wolf := range wolves {
		assert.True(t, wolf.Dead())
	}
	chats := w.packetsOf(packet.OpChat)
	require.Len(t, chats, 1)
	assert.Equal(t, "The mountain remembers.", chats[0].(packet.Chat).Text)
}

func TestScripted_BrokenHookDoesNotPanic(t *testing.T) {
	w, mgr := scriptedWorld(t)
	require.NoError(t, mgr.LoadString("yeti", `function on_hit(self) error("boom") end`))
	yeti, h := w.spawn("yeti", mob.Position{X: 70, Y: 70})

	assert.NotPanics(t, func() { hit(h, 10, newPlayer("p1", 0, 0)) })
	assert.Equal(t, 290, yeti.HitPoints.Current())
}

// failingHost reports every hook as failed.
type failingHost struct{}

func (failingHost) Has(string) bool { return true }
func (failingHost) CallHook(string, string, ...lua.LValue) (lua.LValue, error) {
	return lua.LNil, errors.New("hook exploded")
}

func TestScripted_LogsFailedHookAtDebug(t *testing.T) {
	w := newFakeWorld(t, rng.NewCryptoSource())
	m, err := w.mgr.Spawn("yeti", mob.Position{X: 70, Y: 70})
	require.NoError(t, err)

	core, logs := observer.New(zapcore.DebugLevel)
	env := w.env()
	env.Logger = zap.New(core)
	h := behavior.NewHandler(m, env, behavior.ScriptedFactory(failingHost{}, "yeti"))

	hit(h, 10, newPlayer("p1", 0, 0))

	failed := logs.FilterMessage("script hook failed").All()
	require.Len(t, failed, 1)
	assert.Equal(t, zapcore.DebugLevel, failed[0].Level)
	ctx := failed[0].ContextMap()
	assert.Equal(t, behavior.HookOnHit, ctx["hook"])
	assert.Equal(t, "hook exploded", ctx["error"])
	assert.Equal(t, "yeti", ctx["species"])
}
