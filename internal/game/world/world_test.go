package world

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/kaetram/mobengine/internal/game/behavior"
	"github.com/kaetram/mobengine/internal/game/mob"
	"github.com/kaetram/mobengine/internal/game/packet"
	"github.com/kaetram/mobengine/internal/game/region"
	"github.com/kaetram/mobengine/internal/game/rng"
	"github.com/kaetram/mobengine/internal/game/timer"
	"github.com/kaetram/mobengine/internal/scripting"
)

var epoch = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

type fakeKills struct {
	mu    sync.Mutex
	kills []*mob.Kill
}

func (f *fakeKills) Record(_ context.Context, k *mob.Kill) (*mob.Kill, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.kills = append(f.kills, k)
	return k, nil
}

type attacker struct {
	id  string
	pos mob.Position
}

func (a *attacker) Instance() string       { return a.id }
func (a *attacker) Name() string           { return a.id }
func (a *attacker) Position() mob.Position { return a.pos }
func (a *attacker) Level() int             { return 10 }
func (a *attacker) IsMob() bool            { return false }
func (a *attacker) IsRanged() bool         { return false }
func (a *attacker) IsMoving() bool         { return false }
func (a *attacker) Heal(int, mob.Resource) {}

func testTemplates() map[string]*mob.Template {
	return map[string]*mob.Template{
		"rat":          {Key: "rat", Name: "Rat", Level: 1, HitPoints: 20, AttackRange: 1, Respawnable: true, RespawnDelay: "30s"},
		"archer":       {Key: "archer", Name: "Archer", Level: 5, HitPoints: 40, AttackRange: 6, Projectile: "projectile-arrow"},
		"ogrelord":     {Key: "ogrelord", Name: "Ogre Lord", Level: 40, HitPoints: 1000, AttackRange: 1, Plugin: "ogrelord", Boss: true},
		"ogre":         {Key: "ogre", Name: "Ogre", Level: 20, HitPoints: 100, AttackRange: 1, Respawnable: true, RespawnDelay: "10s"},
		"ogrewarrior":  {Key: "ogrewarrior", Name: "Ogre Warrior", Level: 25, HitPoints: 150, AttackRange: 1},
		"hellhound":    {Key: "hellhound", Name: "Hellhound", Level: 30, HitPoints: 500, AttackRange: 1, Plugin: "hellhound"},
		"hellhoundpup": {Key: "hellhoundpup", Name: "Pup", Level: 5, HitPoints: 30, AttackRange: 1},
		"yeti":         {Key: "yeti", Name: "Yeti", Level: 20, HitPoints: 300, AttackRange: 1, Plugin: "yeti"},
		"snowwolf":     {Key: "snowwolf", Name: "Snow Wolf", Level: 8, HitPoints: 50, AttackRange: 1},
		"ghost":        {Key: "ghost", Name: "Ghost", Level: 8, HitPoints: 50, AttackRange: 1, Plugin: "poltergeist"},
		"ant":          {Key: "ant", Name: "Ant", Level: 2, HitPoints: 50, AttackRange: 1, Plugin: "ant"},
	}
}

type fixture struct {
	world *World
	hub   *region.Hub
	sub   *region.Subscription
	sched *timer.Manual
	kills *fakeKills
	now   time.Time
}

func newFixture(t *testing.T, src rng.Source) *fixture {
	t.Helper()
	logger := zaptest.NewLogger(t)
	f := &fixture{
		hub:   region.NewHub(256, logger),
		sched: timer.NewManual(),
		kills: &fakeKills{},
		now:   epoch,
	}
	f.sub = f.hub.Subscribe()
	f.world = New(mob.NewManager(testTemplates()), Config{
		Hub:       f.hub,
		Roller:    rng.NewRoller(src, logger),
		Scheduler: f.sched,
		Logger:    logger,
		Kills:     f.kills,
		Now:       func() time.Time { return f.now },
	})
	return f
}

// drain returns every packet delivered so far.
func (f *fixture) drain() []packet.Packet {
	var out []packet.Packet
	for {
		select {
		case d := <-f.sub.C():
			out = append(out, d.Packet)
		default:
			return out
		}
	}
}

func opcodes(ps []packet.Packet) []packet.Opcode {
	out := make([]packet.Opcode, 0, len(ps))
	for _, p := range ps {
		out = append(out, p.Opcode())
	}
	return out
}

func behaviorOf(t *testing.T, w *World, m *mob.Mob) behavior.Behavior {
	t.Helper()
	h, ok := w.Handler(m.Instance())
	require.True(t, ok)
	var b behavior.Behavior
	h.Inspect(func(x behavior.Behavior) { b = x })
	return b
}

func TestNew_PanicsOnIncompleteConfig(t *testing.T) {
	assert.Panics(t, func() { New(nil, Config{}) })
	assert.Panics(t, func() { New(mob.NewManager(nil), Config{}) })
}

func TestSpawnMob_SelectsBehavior(t *testing.T) {
	f := newFixture(t, rng.NewCryptoSource())

	boss, err := f.world.SpawnMob("ogrelord", mob.Position{X: 140, Y: 210}, true)
	require.NoError(t, err)
	assert.IsType(t, &behavior.OgreLord{}, behaviorOf(t, f.world, boss))
	assert.Same(t, boss.Hooks(), mustHandler(t, f.world, boss))

	plain, err := f.world.SpawnMob("ogrelord", mob.Position{X: 10, Y: 10}, false)
	require.NoError(t, err)
	assert.IsType(t, &behavior.Default{}, behaviorOf(t, f.world, plain))

	ghost, err := f.world.SpawnMob("ghost", mob.Position{}, true)
	require.NoError(t, err)
	assert.IsType(t, &behavior.Default{}, behaviorOf(t, f.world, ghost))

	_, err = f.world.SpawnMob("dragon", mob.Position{}, true)
	assert.ErrorIs(t, err, mob.ErrUnknownSpecies)

	spawns := f.drain()
	require.Len(t, spawns, 3)
	assert.Equal(t, packet.Spawn{Instance: boss.Instance(), Key: "ogrelord", X: 140, Y: 210}, spawns[0])
}

func mustHandler(t *testing.T, w *World, m *mob.Mob) *behavior.Handler {
	t.Helper()
	h, ok := w.Handler(m.Instance())
	require.True(t, ok)
	return h
}

func TestDamage_HitRunsBehaviorAndKillRunsDeathPath(t *testing.T) {
	f := newFixture(t, rng.Fixed(1, 2))
	hound, err := f.world.SpawnMob("hellhound", mob.Position{X: 50, Y: 50}, true)
	require.NoError(t, err)
	p := &attacker{id: "p1", pos: mob.Position{X: 51, Y: 50}}

	dealt := f.world.Damage(hound, 100, p)
	assert.Equal(t, 100, dealt)
	assert.True(t, hound.Attackers.Has("p1"))
	hh := behaviorOf(t, f.world, hound).(*behavior.Hellhound)
	assert.Equal(t, 1, hh.MinionsSpawned())
	assert.Equal(t, 2, f.world.Mobs().Count())

	f.drain()
	f.world.Damage(hound, 1000, p)
	assert.True(t, hound.Dead())
	assert.Zero(t, f.world.Mobs().Count(), "hound and its pup are gone")
	_, ok := f.world.Handler(hound.Instance())
	assert.False(t, ok)

	assert.Contains(t, opcodes(f.drain()), packet.OpDespawn)
	assert.Zero(t, f.world.Damage(hound, 10, p), "dead mobs take no damage")
	assert.Zero(t, f.world.Respawner().Pending(), "hellhound has no respawn delay")
}

func TestDamage_RespawnsAfterDelay(t *testing.T) {
	f := newFixture(t, rng.NewCryptoSource())
	rat, err := f.world.SpawnMob("rat", mob.Position{X: 3, Y: 4}, true)
	require.NoError(t, err)
	rat.SetPosition(mob.Position{X: 6, Y: 6})

	f.world.Damage(rat, 20, &attacker{id: "p1"})
	require.Equal(t, 1, f.world.Respawner().Pending())

	f.world.Tick(epoch.Add(29 * time.Second))
	assert.Zero(t, f.world.Mobs().Count())

	f.world.Tick(epoch.Add(30 * time.Second))
	all := f.world.Mobs().All()
	require.Len(t, all, 1)
	assert.Equal(t, mob.Position{X: 3, Y: 4}, all[0].Position(), "respawns at the spawn point")
	assert.NotEqual(t, rat.Instance(), all[0].Instance())
}

func TestDamage_BossKillIsRecorded(t *testing.T) {
	f := newFixture(t, rng.NewCryptoSource())
	boss, err := f.world.SpawnMob("ogrelord", mob.Position{X: 140, Y: 210}, true)
	require.NoError(t, err)
	p := &attacker{id: "p1"}

	f.world.Damage(boss, 600, p)
	assert.Equal(t, 5, f.world.Mobs().Count(), "first wave released")

	f.world.Damage(boss, 400, p)
	assert.Zero(t, f.world.Mobs().Count())
	require.Len(t, f.kills.kills, 1)
	k := f.kills.kills[0]
	assert.Equal(t, "ogrelord", k.Species)
	assert.Equal(t, boss.Instance(), k.Instance)
	assert.Equal(t, "p1", k.Killer)
	assert.Equal(t, 140, k.X)
	assert.Equal(t, epoch, k.KilledAt)
	assert.Zero(t, f.world.Respawner().Pending(), "recalled ogres never respawn")
}

func TestAttack_RangedLaunchesProjectileAndImpactDamages(t *testing.T) {
	f := newFixture(t, rng.NewCryptoSource())
	archer, err := f.world.SpawnMob("archer", mob.Position{X: 0, Y: 0}, true)
	require.NoError(t, err)
	rat, err := f.world.SpawnMob("rat", mob.Position{X: 4, Y: 0}, true)
	require.NoError(t, err)
	f.drain()

	assert.False(t, f.world.Attack(archer), "no target yet")
	archer.Combat.Attack(rat)
	require.True(t, f.world.Attack(archer))
	require.Equal(t, 1, f.world.Projectiles())

	ps := f.drain()
	assert.Equal(t, []packet.Opcode{packet.OpCombat, packet.OpSpawn}, opcodes(ps))
	spawn := ps[1].(packet.Spawn)
	assert.Equal(t, "projectile-arrow", spawn.Key)
	assert.Equal(t, []string{spawn.Instance}, f.world.InFlight())
	assert.Equal(t, rat.Instance(), spawn.Target)

	before := rat.HitPoints.Current()
	require.NoError(t, f.world.Impact(spawn.Instance))
	assert.Equal(t, before-spawn.Damage, rat.HitPoints.Current())
	assert.Zero(t, f.world.Projectiles())
	assert.ErrorIs(t, f.world.Impact(spawn.Instance), mob.ErrNotFound)
}

func TestAttack_MeleeHitsMobDirectly(t *testing.T) {
	f := newFixture(t, rng.Fixed(0, 5))
	ogre, err := f.world.SpawnMob("ogre", mob.Position{}, true)
	require.NoError(t, err)
	rat, err := f.world.SpawnMob("rat", mob.Position{X: 1}, true)
	require.NoError(t, err)

	ogre.Combat.Attack(rat)
	require.True(t, f.world.Attack(ogre))
	assert.Equal(t, 15, rat.HitPoints.Current())
	assert.True(t, rat.Attackers.Has(ogre.Instance()))
	assert.Zero(t, f.world.Projectiles())
}

func TestCleanCombat_ForgetsMob(t *testing.T) {
	f := newFixture(t, rng.NewCryptoSource())
	a, _ := f.world.SpawnMob("rat", mob.Position{}, true)
	b, _ := f.world.SpawnMob("rat", mob.Position{X: 1}, true)
	a.Combat.Attack(b)
	b.Attackers.Add(a)
	a.Attackers.Add(b)

	f.world.CleanCombat(a)
	assert.Zero(t, a.Attackers.Len())
	assert.False(t, a.Combat.Started())
	assert.False(t, b.Attackers.Has(a.Instance()))
}

func TestTick_RunsCombatLoopForEngagedMobs(t *testing.T) {
	f := newFixture(t, rng.NewCryptoSource())
	dragonTmpl := &mob.Template{Key: "forestdragon", Name: "Dragon", Level: 50, HitPoints: 900, AttackRange: 1, Plugin: "forestdragon"}
	f.world = New(mob.NewManager(map[string]*mob.Template{"forestdragon": dragonTmpl}), Config{
		Hub: f.hub, Roller: rng.NewRoller(rng.NewCryptoSource(), zaptest.NewLogger(t)),
		Scheduler: f.sched, Logger: zaptest.NewLogger(t),
	})
	dragon, err := f.world.SpawnMob("forestdragon", mob.Position{X: 10, Y: 10}, true)
	require.NoError(t, err)

	f.world.Tick(epoch)
	assert.Equal(t, 1, dragon.AttackRange(), "idle mob is not ticked")

	f.world.Damage(dragon, 10, &attacker{id: "p1", pos: mob.Position{X: 20, Y: 10}})
	require.True(t, dragon.Combat.Started(), "a hit engages the dragon")
	f.world.Tick(epoch)
	assert.Equal(t, 10, dragon.AttackRange())
	assert.True(t, dragon.IsRanged())
}

func TestDamage_EngagesAttackerAndOgreLordTalks(t *testing.T) {
	f := newFixture(t, rng.NewCryptoSource())
	boss, err := f.world.SpawnMob("ogrelord", mob.Position{X: 140, Y: 210}, true)
	require.NoError(t, err)
	p := &attacker{id: "p1", pos: mob.Position{X: 140, Y: 211}}

	f.sched.Advance(behavior.OgreLordTalkInterval)
	assert.NotContains(t, opcodes(f.drain()), packet.OpChat, "idle boss stays quiet")

	f.world.Damage(boss, 10, p)
	assert.True(t, boss.Combat.Started())
	assert.Equal(t, mob.Character(p), boss.Target())
	ps := f.drain()
	require.Contains(t, opcodes(ps), packet.OpCombat)

	assert.True(t, f.world.Attack(boss))
	f.sched.Advance(behavior.OgreLordTalkInterval)
	assert.Contains(t, opcodes(f.drain()), packet.OpChat)
}

func TestDamage_KeepsExistingTarget(t *testing.T) {
	f := newFixture(t, rng.NewCryptoSource())
	ogre, err := f.world.SpawnMob("ogre", mob.Position{}, true)
	require.NoError(t, err)
	p1 := &attacker{id: "p1"}
	p2 := &attacker{id: "p2"}

	f.world.Damage(ogre, 5, p1)
	f.world.Damage(ogre, 5, p2)
	assert.Equal(t, mob.Character(p1), ogre.Target())
	assert.Equal(t, 2, ogre.Attackers.Len())

	f.world.Damage(ogre, 5, nil)
	assert.Equal(t, mob.Character(p1), ogre.Target())
}

func TestDamage_NeverEngagesPacifist(t *testing.T) {
	f := newFixture(t, rng.NewCryptoSource())
	ant, err := f.world.SpawnMob("ant", mob.Position{X: 5, Y: 5}, true)
	require.NoError(t, err)
	f.drain()

	f.world.Damage(ant, 5, &attacker{id: "p1"})
	assert.False(t, ant.Combat.Started())
	assert.Nil(t, ant.Target())
	assert.NotContains(t, opcodes(f.drain()), packet.OpCombat)
	assert.False(t, f.world.Attack(ant))
}

func TestScriptAPI_DrivesScriptedSpecies(t *testing.T) {
	f := newFixture(t, rng.NewCryptoSource())
	logger := zaptest.NewLogger(t)
	scripts := scripting.NewManager(rng.NewRoller(rng.NewCryptoSource(), logger), 100000, logger)
	t.Cleanup(scripts.Close)
	require.NoError(t, scripts.LoadString("yeti", `
function on_hit(self, damage, attacker)
  if mob.attackers(self) > 0 and mob.minions(self) == 0 then
    mob.spawn(self, "snowwolf", 1, 1)
    mob.talk(self, "Awooo")
  end
end
`))
	f.world.scripts = scripts
	scripts.SetAPI(f.world.ScriptAPI())

	yeti, err := f.world.SpawnMob("yeti", mob.Position{}, true)
	require.NoError(t, err)
	assert.IsType(t, &behavior.Scripted{}, behaviorOf(t, f.world, yeti))
	f.drain()

	f.world.Damage(yeti, 10, &attacker{id: "p1"})
	assert.Equal(t, 2, f.world.Mobs().Count())
	ops := opcodes(f.drain())
	assert.Contains(t, ops, packet.OpChat)
	assert.Contains(t, ops, packet.OpCombat, "wolf is ordered to attack")

	f.world.Damage(yeti, 1000, &attacker{id: "p1"})
	assert.Zero(t, f.world.Mobs().Count())
}

func TestTicker_FiresInNameOrder(t *testing.T) {
	tk := NewTicker(time.Second)
	var got []string
	tk.Register("b", func(time.Time) { got = append(got, "b") })
	tk.Register("a", func(time.Time) { got = append(got, "a") })
	tk.Register("c", func(time.Time) { got = append(got, "c") })
	tk.Unregister("c")

	tk.Fire(epoch)
	assert.Equal(t, []string{"a", "b"}, got)
	assert.Panics(t, func() { NewTicker(0) })
}

func TestTicker_RunStopsOnCancel(t *testing.T) {
	tk := NewTicker(time.Millisecond)
	fired := make(chan struct{}, 1)
	tk.Register("x", func(time.Time) {
		select {
		case fired <- struct{}{}:
		default:
		}
	})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- tk.Run(ctx) }()

	<-fired
	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}
