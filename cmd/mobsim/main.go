// Package main runs an offline boss fight: a boss is spawned, a party of
// simulated players hits it concurrently every round, and the packets the
// fight produces are printed to stdout.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kaetram/mobengine/internal/config"
	"github.com/kaetram/mobengine/internal/game/formulas"
	"github.com/kaetram/mobengine/internal/game/mob"
	"github.com/kaetram/mobengine/internal/game/packet"
	"github.com/kaetram/mobengine/internal/game/region"
	"github.com/kaetram/mobengine/internal/game/rng"
	"github.com/kaetram/mobengine/internal/game/timer"
	"github.com/kaetram/mobengine/internal/game/world"
	"github.com/kaetram/mobengine/internal/observability"
	"github.com/kaetram/mobengine/internal/scripting"
)

// epoch anchors the simulated clock so runs with the same seed print the
// same timestamps.
var epoch = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func main() {
	contentDir := flag.String("content", "content/mobs", "path to mob template YAML directory")
	scriptDir := flag.String("scripts", "content/scripts", "path to species Lua scripts; empty = scripting disabled")
	boss := flag.String("boss", "ogrelord", "species key of the boss to fight")
	x := flag.Int("x", 140, "boss spawn tile x")
	y := flag.Int("y", 48, "boss spawn tile y")
	party := flag.Int("attackers", 6, "number of simulated players")
	level := flag.Int("level", 40, "level of every simulated player")
	rounds := flag.Int("rounds", 500, "maximum number of combat rounds")
	step := flag.Duration("step", 600*time.Millisecond, "simulated duration of one round")
	seed := flag.Uint64("seed", 0, "random seed; 0 = crypto randomness")
	verbose := flag.Bool("v", false, "also print combat packets")
	logLevel := flag.String("log-level", "warn", "log level: debug, info, warn, error")
	flag.Parse()

	if *party < 1 || *rounds < 1 || *step <= 0 {
		log.Fatalf("attackers, rounds and step must be positive")
	}

	logger, err := observability.NewLogger(config.LoggingConfig{Level: *logLevel, Format: "console"}, "mobsim")
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	src := rng.NewCryptoSource()
	if *seed != 0 {
		src = rng.NewSeededSource(*seed)
	}

	s, err := newSim(simConfig{
		ContentDir: *contentDir,
		ScriptDir:  *scriptDir,
		Source:     src,
		Logger:     logger,
		Out:        os.Stdout,
		Verbose:    *verbose,
	})
	if err != nil {
		logger.Fatal("building simulation", zap.Error(err))
	}
	defer s.Close()

	res, err := s.Fight(context.Background(), fight{
		Boss:      *boss,
		At:        mob.Position{X: *x, Y: *y},
		Attackers: *party,
		Level:     *level,
		Rounds:    *rounds,
		Step:      *step,
	})
	if err != nil {
		logger.Fatal("running fight", zap.Error(err))
	}
	s.Close()

	fmt.Printf("\n%s after %d rounds (%s simulated): boss dead=%v hp=%d/%d minions alive=%d damage dealt=%d\n",
		*boss, res.Rounds, res.Elapsed, res.BossDead, res.BossHP, res.BossMaxHP, res.MinionsAlive, res.DamageDealt)
}

type simConfig struct {
	ContentDir string
	ScriptDir  string
	Source     rng.Source
	Logger     *zap.Logger
	Out        io.Writer
	Verbose    bool
}

type fight struct {
	Boss      string
	At        mob.Position
	Attackers int
	Level     int
	Rounds    int
	Step      time.Duration
}

type result struct {
	Rounds       int
	Elapsed      time.Duration
	BossDead     bool
	BossHP       int
	BossMaxHP    int
	MinionsAlive int
	DamageDealt  int64
}

// sim is one offline world driven by a manual clock.
type sim struct {
	world    *world.World
	sched    *timer.Manual
	formulas *formulas.Formulas
	scripts  *scripting.Manager
	sub      *region.Subscription
	printed  sync.WaitGroup
	once     sync.Once
}

func newSim(cfg simConfig) (*sim, error) {
	templates, err := mob.LoadTemplates(cfg.ContentDir)
	if err != nil {
		return nil, fmt.Errorf("loading templates: %w", err)
	}

	roller := rng.NewRoller(cfg.Source, cfg.Logger)
	hub := region.NewHub(4096, cfg.Logger)
	sched := timer.NewManual()

	wcfg := world.Config{
		Hub:       hub,
		Roller:    roller,
		Scheduler: sched,
		Logger:    cfg.Logger,
		Kills:     &printKills{out: cfg.Out},
		Now:       func() time.Time { return epoch.Add(sched.Now()) },
	}

	s := &sim{sched: sched, formulas: formulas.New(roller)}
	if cfg.ScriptDir != "" {
		if info, err := os.Stat(cfg.ScriptDir); err == nil && info.IsDir() {
			s.scripts = scripting.NewManager(roller, 0, cfg.Logger)
			if _, err := s.scripts.LoadDir(cfg.ScriptDir); err != nil {
				s.scripts.Close()
				return nil, fmt.Errorf("loading scripts: %w", err)
			}
			wcfg.Scripts = s.scripts
		}
	}

	s.world = world.New(mob.NewManager(templates), wcfg)
	if s.scripts != nil {
		s.scripts.SetAPI(s.world.ScriptAPI())
	}

	s.sub = hub.Subscribe()
	s.printed.Add(1)
	go func() {
		defer s.printed.Done()
		for d := range s.sub.C() {
			if d.Packet.Opcode() == packet.OpCombat && !cfg.Verbose {
				continue
			}
			fmt.Fprintf(cfg.Out, "[region %d,%d] %-8s %v\n", d.Region.X, d.Region.Y, d.Packet.Opcode(), d.Packet.Fields())
		}
	}()
	return s, nil
}

// Close stops packet printing and releases the script VMs. It is idempotent.
func (s *sim) Close() {
	s.once.Do(func() {
		s.world.Hub().Unsubscribe(s.sub)
		s.printed.Wait()
		if s.scripts != nil {
			s.scripts.Close()
		}
	})
}

// Fight spawns f.Boss and runs rounds until it dies, the round limit is hit or
// ctx is cancelled. Each round every player strikes concurrently, every mob in
// combat attacks, projectiles land, the combat loop ticks and the clock
// advances by f.Step.
func (s *sim) Fight(ctx context.Context, f fight) (result, error) {
	boss, err := s.world.SpawnMob(f.Boss, f.At, true)
	if err != nil {
		return result{}, fmt.Errorf("spawning boss: %w", err)
	}

	players := make([]*player, f.Attackers)
	for i := range players {
		players[i] = &player{
			id:    fmt.Sprintf("player-%d", i+1),
			level: f.Level,
			pos:   mob.Position{X: f.At.X + i%3 - 1, Y: f.At.Y + 1 + i/3},
		}
	}

	var dealt atomic.Int64
	res := result{}
	for res.Rounds < f.Rounds && !boss.Dead() {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		res.Rounds++

		g, _ := errgroup.WithContext(ctx)
		for _, p := range players {
			g.Go(func() error {
				if boss.Dead() {
					return nil
				}
				dealt.Add(int64(s.world.Damage(boss, s.formulas.Damage(p, boss), p)))
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return res, err
		}

		for _, m := range s.world.Mobs().All() {
			if m.Combat.Started() && !m.Dead() {
				s.world.Attack(m)
			}
		}
		for _, id := range s.world.InFlight() {
			_ = s.world.Impact(id)
		}

		s.world.Tick(epoch.Add(s.sched.Now()))
		s.sched.Advance(f.Step)
	}

	res.Elapsed = s.sched.Now()
	res.BossDead = boss.Dead()
	res.BossHP = boss.HitPoints.Current()
	res.BossMaxHP = boss.HitPoints.Max()
	res.MinionsAlive = s.world.Mobs().Count()
	if !res.BossDead {
		res.MinionsAlive--
	}
	res.DamageDealt = dealt.Load()
	return res, nil
}

// player is a simulated attacker. Its own health is not modelled.
type player struct {
	id    string
	level int
	pos   mob.Position
}

func (p *player) Instance() string       { return p.id }
func (p *player) Name() string           { return p.id }
func (p *player) Position() mob.Position { return p.pos }
func (p *player) Level() int             { return p.level }
func (p *player) IsMob() bool            { return false }
func (p *player) IsRanged() bool         { return false }
func (p *player) IsMoving() bool         { return false }
func (p *player) Heal(int, mob.Resource) {}

// printKills is a kill ledger that writes each boss kill to out.
type printKills struct {
	mu   sync.Mutex
	out  io.Writer
	next int64
}

func (k *printKills) Record(_ context.Context, kill *mob.Kill) (*mob.Kill, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.next++
	stored := *kill
	stored.ID = k.next
	fmt.Fprintf(k.out, "kill #%d: %s (%s) slain by %s at (%d, %d) %s\n",
		stored.ID, stored.Species, stored.Instance, stored.Killer, stored.X, stored.Y, stored.KilledAt.Format(time.TimeOnly))
	return &stored, nil
}
