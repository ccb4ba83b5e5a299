package behavior

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kaetram/mobengine/internal/game/mob"
	"github.com/kaetram/mobengine/internal/game/timer"
)

// Handler binds one Behavior to one mob for the mob's lifetime and implements
// mob.Hooks. Every hook and every timer callback started through the mob's
// Default runs under the handler's mutex, so a behavior's check-and-set of its
// own state is atomic with respect to concurrent attackers.
//
// Invariant: after HandleDeath, no hook or timer callback reaches the behavior.
type Handler struct {
	mu       sync.Mutex
	mob      *mob.Mob
	def      *Default
	behavior Behavior
	dead     bool
	logger   *zap.Logger
}

// NewHandler builds the behavior for m with factory and installs the handler
// as m's hooks.
//
// Precondition: m and factory must be non-nil; env.World, env.Roller,
// env.Scheduler and env.Logger must be non-nil.
// Postcondition: m.Hooks() returns the new Handler.
func NewHandler(m *mob.Mob, env Env, factory Factory) *Handler {
	if m == nil {
		panic("behavior.NewHandler: mob must not be nil")
	}
	if factory == nil {
		panic("behavior.NewHandler: factory must not be nil")
	}
	if env.World == nil || env.Roller == nil || env.Scheduler == nil || env.Logger == nil {
		panic("behavior.NewHandler: env is incomplete")
	}

	h := &Handler{
		mob:    m,
		logger: env.Logger.With(zap.String("mob", m.Instance()), zap.String("species", m.Key())),
	}
	env.Scheduler = serialScheduler{h: h, inner: env.Scheduler}
	env.Logger = h.logger
	h.def = newDefault(m, env)
	h.behavior = factory(h.def)
	m.SetHooks(h)
	return h
}

// Mob returns the mob this handler drives.
func (h *Handler) Mob() *mob.Mob { return h.mob }

// Default returns the shared services of this handler's behavior.
func (h *Handler) Default() *Default { return h.def }

// Inspect runs fn with the behavior while holding the handler's mutex.
func (h *Handler) Inspect(fn func(b Behavior)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	fn(h.behavior)
}

// HandleHit implements mob.Hooks.
func (h *Handler) HandleHit(damage int, attacker mob.Character) {
	h.run(func() { h.behavior.OnHit(damage, attacker) })
}

// HandleAttack implements mob.Hooks.
func (h *Handler) HandleAttack() {
	h.run(h.behavior.OnAttack)
}

// HandleCombatLoop implements mob.Hooks.
func (h *Handler) HandleCombatLoop() {
	h.run(h.behavior.OnCombatTick)
}

// HandleDeath implements mob.Hooks. It runs the behavior's OnDeath, stops
// every timer the behavior started, then fires the mob's death callbacks.
// Repeated calls are no-ops.
func (h *Handler) HandleDeath(attacker mob.Character) {
	h.mu.Lock()
	if h.dead {
		h.mu.Unlock()
		return
	}
	h.dead = true
	h.behavior.OnDeath(attacker)
	stopped := h.def.stopTimers()
	h.mu.Unlock()

	h.logger.Debug("mob died", zap.Int("timers_stopped", stopped))
	h.mob.HitPoints.Set(0)
	h.mob.FireDeath()
}

// Provokable reports whether a hit may engage the mob with its attacker. Dead
// mobs and pacifist behaviors are never provokable.
func (h *Handler) Provokable() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.dead {
		return false
	}
	p, ok := h.behavior.(Pacifist)
	return !ok || !p.Pacifist()
}

// Dead reports whether HandleDeath has run.
func (h *Handler) Dead() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.dead
}

func (h *Handler) run(fn func()) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.dead {
		return
	}
	fn()
}

// serialScheduler routes timer callbacks through the handler's mutex.
type serialScheduler struct {
	h     *Handler
	inner timer.Scheduler
}

func (s serialScheduler) After(d time.Duration, fn func()) timer.Handle {
	return s.inner.After(d, func() { s.h.run(fn) })
}

func (s serialScheduler) Every(d time.Duration, fn func()) timer.Handle {
	return s.inner.Every(d, func() { s.h.run(fn) })
}
