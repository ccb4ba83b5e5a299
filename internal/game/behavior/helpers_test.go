package behavior_test

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/kaetram/mobengine/internal/game/behavior"
	"github.com/kaetram/mobengine/internal/game/mob"
	"github.com/kaetram/mobengine/internal/game/packet"
	"github.com/kaetram/mobengine/internal/game/rng"
	"github.com/kaetram/mobengine/internal/game/timer"
)

func tmpl(key, plugin string, hp int) *mob.Template {
	return &mob.Template{Key: key, Name: key, Level: 10, HitPoints: hp, AttackRange: 1, AggroRange: 4, RoamDistance: 6, Plugin: plugin, Respawnable: true}
}

func testTemplates() map[string]*mob.Template {
	out := make(map[string]*mob.Template)
	for _, t := range []*mob.Template{
		tmpl("ogrelord", "ogrelord", 1000),
		tmpl("ogre", "", 100),
		tmpl("ogrewarrior", "", 120),
		tmpl("skeletonking", "skeletonking", 800),
		tmpl("skeleton", "", 60),
		tmpl("skeletonarcher", "", 60),
		tmpl("hellhound", "hellhound", 600),
		tmpl("hellhoundpup", "", 40),
		tmpl("piratecaptain", "piratecaptain", 700),
		tmpl("pirateskeleton", "", 60),
		tmpl("pirategunner", "", 60),
		tmpl("forestdragon", "forestdragon", 900),
		tmpl("queenant", "queenant", 500),
		tmpl("workerant", "workerant", 50),
		tmpl("ant", "ant", 50),
		tmpl("santa", "santa", 400),
		tmpl("yeti", "yeti", 300),
		tmpl("snowwolf", "", 50),
	} {
		out[t.Key] = t
	}
	return out
}

// fakeWorld implements behavior.World over a mob.Manager and records every
// packet, projectile and combat reset.
type fakeWorld struct {
	t        testing.TB
	mgr      *mob.Manager
	registry *behavior.Registry
	scripts  behavior.ScriptHost
	roller   *rng.Roller
	sched    *timer.Manual

	mu          sync.Mutex
	handlers    map[string]*behavior.Handler
	packets     []packet.Packet
	projectiles []*behavior.Projectile
	cleaned     []string
	spawned     map[string]int
}

func newFakeWorld(t testing.TB, src rng.Source) *fakeWorld {
	logger := zaptest.NewLogger(t)
	return &fakeWorld{
		t:        t,
		mgr:      mob.NewManager(testTemplates()),
		registry: behavior.DefaultRegistry(),
		roller:   rng.NewRoller(src, logger),
		sched:    timer.NewManual(),
		handlers: make(map[string]*behavior.Handler),
		spawned:  make(map[string]int),
	}
}

func (w *fakeWorld) env() behavior.Env {
	return behavior.Env{
		World:     w,
		Damage:    func(a, d mob.Character) int { return 7 },
		Roller:    w.roller,
		Scheduler: w.sched,
		Logger:    zaptest.NewLogger(w.t),
	}
}

func (w *fakeWorld) SpawnMob(key string, pos mob.Position, withPlugin bool) (*mob.Mob, error) {
	m, err := w.mgr.Spawn(key, pos)
	if err != nil {
		return nil, err
	}
	factory := behavior.NewDefault
	if withPlugin {
		t, _ := w.mgr.Template(key)
		switch {
		case w.registry.Has(t.Plugin):
			factory = w.registry.Resolve(t.Plugin)
		case w.scripts != nil && w.scripts.Has(t.Plugin):
			factory = behavior.ScriptedFactory(w.scripts, t.Plugin)
		}
	}
	h := behavior.NewHandler(m, w.env(), factory)
	m.OnDeath(func(m *mob.Mob) { _ = w.mgr.Remove(m.Instance()) })

	w.mu.Lock()
	w.handlers[m.Instance()] = h
	w.spawned[key]++
	w.mu.Unlock()
	return m, nil
}

func (w *fakeWorld) SpawnProjectile(source, target mob.Character, hit behavior.Hit) (*behavior.Projectile, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	p := &behavior.Projectile{
		Instance: fmt.Sprintf("projectile-%d", len(w.projectiles)+1),
		Key:      "projectile-acid",
		Source:   source,
		Target:   target,
		Hit:      hit,
	}
	w.projectiles = append(w.projectiles, p)
	return p, nil
}

func (w *fakeWorld) SendToRegions(source *mob.Mob, p packet.Packet) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.packets = append(w.packets, p)
}

func (w *fakeWorld) CleanCombat(m *mob.Mob) {
	m.Attackers.Clear()
	m.Combat.Stop()
	w.mu.Lock()
	defer w.mu.Unlock()
	w.cleaned = append(w.cleaned, m.Instance())
}

func (w *fakeWorld) Move(m *mob.Mob, to mob.Position) error {
	return w.mgr.Move(m.Instance(), to)
}

func (w *fakeWorld) spawn(key string, pos mob.Position) (*mob.Mob, *behavior.Handler) {
	w.t.Helper()
	m, err := w.SpawnMob(key, pos, true)
	require.NoError(w.t, err)
	return m, w.handler(m)
}

func (w *fakeWorld) handler(m *mob.Mob) *behavior.Handler {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.handlers[m.Instance()]
}

func (w *fakeWorld) spawnCount(key string) int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.spawned[key]
}

func (w *fakeWorld) packetsOf(op packet.Opcode) []packet.Packet {
	w.mu.Lock()
	defer w.mu.Unlock()
	var out []packet.Packet
	for _, p := range w.packets {
		if p.Opcode() == op {
			out = append(out, p)
		}
	}
	return out
}

// hit applies damage the way the combat system does: register the attacker,
// subtract hit points, then run the hit hook.
func hit(h *behavior.Handler, damage int, attacker mob.Character) {
	m := h.Mob()
	m.Attackers.Add(attacker)
	m.HitPoints.Damage(damage)
	h.HandleHit(damage, attacker)
}

// player is a minimal attacking character.
type player struct {
	id     string
	pos    mob.Position
	ranged bool
	moving bool
	healed int
}

func newPlayer(id string, x, y int) *player {
	return &player{id: id, pos: mob.Position{X: x, Y: y}}
}

func (p *player) Instance() string           { return p.id }
func (p *player) Name() string               { return p.id }
func (p *player) Position() mob.Position     { return p.pos }
func (p *player) Level() int                 { return 20 }
func (p *player) IsMob() bool                { return false }
func (p *player) IsRanged() bool             { return p.ranged }
func (p *player) IsMoving() bool             { return p.moving }
func (p *player) Heal(n int, _ mob.Resource) { p.healed += n }
