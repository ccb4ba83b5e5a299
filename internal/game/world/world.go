// Package world hosts live mobs: it spawns them with their species behavior,
// routes damage into the behavior hooks, delivers packets to nearby observers
// and respawns fallen mobs.
package world

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kaetram/mobengine/internal/game/behavior"
	"github.com/kaetram/mobengine/internal/game/formulas"
	"github.com/kaetram/mobengine/internal/game/mob"
	"github.com/kaetram/mobengine/internal/game/packet"
	"github.com/kaetram/mobengine/internal/game/region"
	"github.com/kaetram/mobengine/internal/game/rng"
	"github.com/kaetram/mobengine/internal/game/timer"
)

// defaultProjectile is used when the shooter has no projectile of its own.
const defaultProjectile = "projectile-arrow"

// KillRecorder persists boss kills.
type KillRecorder interface {
	Record(ctx context.Context, k *mob.Kill) (*mob.Kill, error)
}

// Config holds the collaborators of a World. Registry, Scripts and Kills are
// optional.
type Config struct {
	Hub       *region.Hub
	Roller    *rng.Roller
	Scheduler timer.Scheduler
	Logger    *zap.Logger
	Registry  *behavior.Registry
	Scripts   behavior.ScriptHost
	Kills     KillRecorder
	// Now defaults to time.Now.
	Now func() time.Time
}

// World implements behavior.World over a mob.Manager.
//
// All methods are safe for concurrent use.
type World struct {
	mobs      *mob.Manager
	respawner *mob.Respawner
	hub       *region.Hub
	formulas  *formulas.Formulas
	registry  *behavior.Registry
	scripts   behavior.ScriptHost
	kills     KillRecorder
	roller    *rng.Roller
	sched     timer.Scheduler
	logger    *zap.Logger
	now       func() time.Time

	mu          sync.RWMutex
	handlers    map[string]*behavior.Handler
	projectiles map[string]*behavior.Projectile
	killers     map[string]string
}

// New builds a World hosting mobs spawned from mobs.
//
// Precondition: mobs, cfg.Hub, cfg.Roller, cfg.Scheduler and cfg.Logger must
// be non-nil.
func New(mobs *mob.Manager, cfg Config) *World {
	if mobs == nil {
		panic("world.New: mobs must not be nil")
	}
	if cfg.Hub == nil || cfg.Roller == nil || cfg.Scheduler == nil || cfg.Logger == nil {
		panic("world.New: config is incomplete")
	}
	registry := cfg.Registry
	if registry == nil {
		registry = behavior.DefaultRegistry()
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &World{
		mobs:        mobs,
		respawner:   mob.NewRespawner(),
		hub:         cfg.Hub,
		formulas:    formulas.New(cfg.Roller),
		registry:    registry,
		scripts:     cfg.Scripts,
		kills:       cfg.Kills,
		roller:      cfg.Roller,
		sched:       cfg.Scheduler,
		logger:      cfg.Logger,
		now:         now,
		handlers:    make(map[string]*behavior.Handler),
		projectiles: make(map[string]*behavior.Projectile),
		killers:     make(map[string]string),
	}
}

// Mobs returns the underlying mob registry.
func (w *World) Mobs() *mob.Manager { return w.mobs }

// Hub returns the region hub packets are broadcast through.
func (w *World) Hub() *region.Hub { return w.hub }

// Respawner returns the pending respawn queue.
func (w *World) Respawner() *mob.Respawner { return w.respawner }

// SpawnMob implements behavior.World. With withPlugin set the mob's behavior is
// chosen from its template's plugin key: a built-in species plugin first, then
// a loaded species script, then the no-op default.
func (w *World) SpawnMob(key string, pos mob.Position, withPlugin bool) (*mob.Mob, error) {
	m, err := w.mobs.Spawn(key, pos)
	if err != nil {
		return nil, err
	}
	tmpl, _ := w.mobs.Template(key)

	factory := behavior.NewDefault
	if withPlugin {
		factory = w.factoryFor(tmpl.Plugin)
	}
	h := behavior.NewHandler(m, w.env(), factory)

	w.mu.Lock()
	w.handlers[m.Instance()] = h
	w.mu.Unlock()

	m.OnDeath(w.onDeath)
	m.Combat.OnAttack(func(target mob.Character) {
		w.SendToRegions(m, packet.Combat{Attacker: m.Instance(), Target: target.Instance()})
	})

	w.SendToRegions(m, packet.Spawn{Instance: m.Instance(), Key: key, X: pos.X, Y: pos.Y})
	w.logger.Debug("mob spawned",
		zap.String("instance", m.Instance()),
		zap.String("key", key),
		zap.String("plugin", tmpl.Plugin),
		zap.Bool("with_plugin", withPlugin),
	)
	return m, nil
}

func (w *World) factoryFor(plugin string) behavior.Factory {
	switch {
	case plugin == "":
		return behavior.NewDefault
	case w.registry.Has(plugin):
		return w.registry.Resolve(plugin)
	case w.scripts != nil && w.scripts.Has(plugin):
		return behavior.ScriptedFactory(w.scripts, plugin)
	default:
		w.logger.Warn("unknown mob plugin, using default behavior", zap.String("plugin", plugin))
		return behavior.NewDefault
	}
}

func (w *World) env() behavior.Env {
	return behavior.Env{
		World:     w,
		Damage:    w.formulas.Damage,
		Roller:    w.roller,
		Scheduler: w.sched,
		Logger:    w.logger,
	}
}

// SpawnProjectile implements behavior.World.
func (w *World) SpawnProjectile(source, target mob.Character, hit behavior.Hit) (*behavior.Projectile, error) {
	if source == nil || target == nil {
		return nil, fmt.Errorf("world.SpawnProjectile: source and target must not be nil")
	}
	key := defaultProjectile
	if m, ok := source.(*mob.Mob); ok && m.ProjectileName() != "" {
		key = m.ProjectileName()
	}
	p := &behavior.Projectile{
		Instance: uuid.NewString(),
		Key:      key,
		Source:   source,
		Target:   target,
		Hit:      hit,
	}
	w.mu.Lock()
	w.projectiles[p.Instance] = p
	w.mu.Unlock()
	return p, nil
}

// Projectile returns the in-flight projectile with id.
func (w *World) Projectile(id string) (*behavior.Projectile, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	p, ok := w.projectiles[id]
	return p, ok
}

// Projectiles returns the number of projectiles in flight.
func (w *World) Projectiles() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return len(w.projectiles)
}

// InFlight returns the ids of projectiles in flight, sorted.
func (w *World) InFlight() []string {
	w.mu.RLock()
	ids := make([]string, 0, len(w.projectiles))
	for id := range w.projectiles {
		ids = append(ids, id)
	}
	w.mu.RUnlock()
	sort.Strings(ids)
	return ids
}

// Impact lands projectile id on its target and removes it from flight. Only
// mob targets take damage here; player health lives outside this engine.
//
// Postcondition: Returns an error wrapping mob.ErrNotFound if id is unknown.
func (w *World) Impact(id string) error {
	w.mu.Lock()
	p, ok := w.projectiles[id]
	delete(w.projectiles, id)
	w.mu.Unlock()
	if !ok {
		return fmt.Errorf("projectile %q: %w", id, mob.ErrNotFound)
	}
	target, ok := p.Target.(*mob.Mob)
	if !ok {
		return nil
	}
	w.Damage(target, p.Hit.Damage, p.Source)
	return nil
}

// SendToRegions implements behavior.World.
func (w *World) SendToRegions(source *mob.Mob, p packet.Packet) {
	w.hub.Broadcast(source.Position().Region(), p)
}

// CleanCombat implements behavior.World. It drops every attacker of m, stops
// m's combat session and makes every mob targeting m forget it.
func (w *World) CleanCombat(m *mob.Mob) {
	m.Attackers.Clear()
	m.Combat.Stop()
	for _, other := range w.mobs.All() {
		if other == m {
			continue
		}
		other.Attackers.Remove(m.Instance())
		if t := other.Combat.Target(); t != nil && t.Instance() == m.Instance() {
			other.Combat.ClearTarget()
		}
	}
}

// Move implements behavior.World.
func (w *World) Move(m *mob.Mob, to mob.Position) error {
	return w.mobs.Move(m.Instance(), to)
}

// Handler returns the behavior handler of a live mob.
func (w *World) Handler(instance string) (*behavior.Handler, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	h, ok := w.handlers[instance]
	return h, ok
}

// Damage applies amount to m on behalf of attacker. A surviving mob engages
// attacker if it has no target yet, then runs its hit hook; a killing blow
// runs the death path instead.
//
// Postcondition: Returns the hit points actually removed.
func (w *World) Damage(m *mob.Mob, amount int, attacker mob.Character) int {
	if m.Dead() {
		return 0
	}
	if attacker != nil {
		m.Attackers.Add(attacker)
	}
	dealt := m.HitPoints.Damage(amount)
	if !m.HitPoints.IsDead() {
		w.engage(m, attacker)
		if h := m.Hooks(); h != nil {
			h.HandleHit(dealt, attacker)
		}
		return dealt
	}

	w.Kill(m, attacker)
	return dealt
}

// engage starts combat between m and attacker unless m already has a target
// or its behavior is pacifist.
func (w *World) engage(m *mob.Mob, attacker mob.Character) {
	if attacker == nil || m.Target() != nil {
		return
	}
	if h, ok := w.Handler(m.Instance()); ok && !h.Provokable() {
		return
	}
	if m.Combat.Engage(attacker) {
		w.logger.Debug("mob engaged", zap.String("mob", m.Instance()), zap.String("attacker", attacker.Instance()))
	}
}

// Kill runs m's death path regardless of its remaining hit points, crediting
// attacker with the kill. Killing a dead mob is a no-op.
func (w *World) Kill(m *mob.Mob, attacker mob.Character) {
	if m.Dead() {
		return
	}
	if attacker != nil {
		w.mu.Lock()
		w.killers[m.Instance()] = attacker.Instance()
		w.mu.Unlock()
	}
	m.Kill(attacker)

	// The death path has consumed the entry by now; a racing losing blow
	// must not leave its own behind.
	w.mu.Lock()
	delete(w.killers, m.Instance())
	w.mu.Unlock()
}

// Attack runs one attack of m against its combat target: the attack hook
// fires, then a projectile or melee hit is resolved against the target.
//
// Postcondition: Returns false when m has no target.
func (w *World) Attack(m *mob.Mob) bool {
	target := m.Target()
	if target == nil || m.Dead() {
		return false
	}
	if h := m.Hooks(); h != nil {
		h.HandleAttack()
	}
	hit := behavior.Hit{Type: behavior.HitDamage, Damage: w.formulas.Damage(m, target)}
	if !m.IsRanged() {
		if defender, ok := target.(*mob.Mob); ok {
			w.Damage(defender, hit.Damage, m)
		}
		return true
	}
	hit.Ranged = true
	p, err := w.SpawnProjectile(m, target, hit)
	if err != nil {
		w.logger.Warn("spawning projectile", zap.Error(err))
		return false
	}
	pos := m.Position()
	w.SendToRegions(m, packet.Spawn{
		Instance: p.Instance,
		Key:      p.Key,
		X:        pos.X,
		Y:        pos.Y,
		Source:   m.Instance(),
		Target:   target.Instance(),
		Damage:   hit.Damage,
		HitType:  string(hit.Type),
	})
	return true
}

// Tick advances the world by one combat round: every mob in combat runs its
// combat loop, then due respawns are spawned.
func (w *World) Tick(now time.Time) {
	for _, m := range w.mobs.All() {
		if !m.Combat.Started() {
			continue
		}
		if h := m.Hooks(); h != nil {
			h.HandleCombatLoop()
		}
	}
	w.respawner.Tick(now, func(key string, pos mob.Position) error {
		_, err := w.SpawnMob(key, pos, true)
		return err
	})
}

func (w *World) onDeath(m *mob.Mob) {
	w.mu.Lock()
	delete(w.handlers, m.Instance())
	killer := w.killers[m.Instance()]
	delete(w.killers, m.Instance())
	w.mu.Unlock()

	pos := m.Position()
	w.CleanCombat(m)
	if err := w.mobs.Remove(m.Instance()); err != nil {
		w.logger.Warn("removing dead mob", zap.String("instance", m.Instance()), zap.Error(err))
	}
	w.hub.Broadcast(pos.Region(), packet.Despawn{Instance: m.Instance()})

	tmpl, ok := w.mobs.Template(m.Key())
	if !ok {
		return
	}
	if m.Respawnable() {
		if delay := tmpl.Delay(); delay > 0 {
			w.respawner.Schedule(m.Key(), m.SpawnPoint(), w.now(), delay)
		}
	}
	if tmpl.Boss && w.kills != nil {
		w.recordKill(&mob.Kill{
			Species:  m.Key(),
			Instance: m.Instance(),
			Killer:   killer,
			X:        pos.X,
			Y:        pos.Y,
			KilledAt: w.now(),
		})
	}
	w.logger.Info("mob died",
		zap.String("instance", m.Instance()),
		zap.String("key", m.Key()),
		zap.String("killer", killer),
	)
}

func (w *World) recordKill(k *mob.Kill) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := w.kills.Record(ctx, k); err != nil {
		w.logger.Error("recording boss kill", zap.String("species", k.Species), zap.Error(err))
	}
}
