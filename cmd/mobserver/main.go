// Package main provides the mob engine server binary: it loads species
// content, runs the combat tick loop and serves the mob service and health
// endpoint over gRPC.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/kaetram/mobengine/internal/config"
	"github.com/kaetram/mobengine/internal/game/mob"
	"github.com/kaetram/mobengine/internal/game/region"
	"github.com/kaetram/mobengine/internal/game/rng"
	"github.com/kaetram/mobengine/internal/game/timer"
	"github.com/kaetram/mobengine/internal/game/world"
	"github.com/kaetram/mobengine/internal/gameserver"
	"github.com/kaetram/mobengine/internal/observability"
	"github.com/kaetram/mobengine/internal/scripting"
	"github.com/kaetram/mobengine/internal/server"
	"github.com/kaetram/mobengine/internal/storage/postgres"
)

const (
	worldService  = "mobengine.World"
	ledgerService = "mobengine.KillLedger"
	ledgerCheck   = 15 * time.Second
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	flag.Parse()

	ctx := context.Background()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logging, cfg.Server.Name)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("starting mob server",
		zap.String("health_addr", cfg.Health.Addr()),
		zap.Duration("tick", cfg.Engine.TickInterval),
	)

	roller := rng.NewRoller(rng.NewCryptoSource(), logger)

	// Load species templates
	contentStart := time.Now()
	templates, err := mob.LoadTemplates(cfg.Engine.ContentDir)
	if err != nil {
		logger.Fatal("loading mob templates", zap.Error(err))
	}
	logger.Info("mob templates loaded",
		zap.Int("count", len(templates)),
		zap.String("dir", cfg.Engine.ContentDir),
		zap.Duration("elapsed", time.Since(contentStart)),
	)

	wcfg := world.Config{
		Hub:       region.NewHub(cfg.Engine.RegionBuffer, logger),
		Roller:    roller,
		Scheduler: timer.Real{},
		Logger:    logger,
	}

	// Initialise scripting engine
	var scriptMgr *scripting.Manager
	if cfg.Engine.ScriptDir != "" {
		scriptStart := time.Now()
		scriptMgr = scripting.NewManager(roller, cfg.Engine.ScriptInstructionLimit, logger)
		species, err := scriptMgr.LoadDir(cfg.Engine.ScriptDir)
		if err != nil {
			logger.Fatal("loading species scripts", zap.String("dir", cfg.Engine.ScriptDir), zap.Error(err))
		}
		wcfg.Scripts = scriptMgr
		logger.Info("species scripts loaded",
			zap.Strings("species", species),
			zap.Duration("elapsed", time.Since(scriptStart)),
		)
		defer scriptMgr.Close()
	}

	// Connect to PostgreSQL for the boss kill ledger
	var pool *postgres.Pool
	if cfg.Database.Enabled {
		dbStart := time.Now()
		pool, err = postgres.NewPool(ctx, cfg.Database)
		if err != nil {
			logger.Fatal("connecting to database", zap.Error(err))
		}
		defer pool.Close()
		wcfg.Kills = postgres.NewKillRepository(pool.DB())
		logger.Info("database connected",
			zap.String("host", cfg.Database.Host),
			zap.Duration("elapsed", time.Since(dbStart)),
		)
	} else {
		logger.Info("kill ledger disabled")
	}

	w := world.New(mob.NewManager(templates), wcfg)
	if scriptMgr != nil {
		scriptMgr.SetAPI(w.ScriptAPI())
	}

	for _, sp := range cfg.Engine.Spawns {
		m, err := w.SpawnMob(sp.Key, mob.Position{X: sp.X, Y: sp.Y}, true)
		if err != nil {
			logger.Fatal("spawning configured mob", zap.String("key", sp.Key), zap.Error(err))
		}
		logger.Info("mob placed",
			zap.String("key", sp.Key),
			zap.String("instance", m.Instance()),
			zap.Int("x", sp.X),
			zap.Int("y", sp.Y),
		)
	}

	ticker := world.NewTicker(cfg.Engine.TickInterval)
	ticker.Register("combat", w.Tick)

	healthSrv := health.NewServer()
	grpcServer := grpc.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthSrv)
	mobSvc := gameserver.NewMobService(w, logger)
	mobSvc.Register(grpcServer)

	// Wire lifecycle
	lifecycle := server.NewLifecycle(logger, cfg.Server.ShutdownTimeout)

	lifecycle.Add("tick", server.RunFunc(ticker.Run))

	if scriptMgr != nil && cfg.Engine.HotReload {
		watcher, err := scripting.NewWatcher(scriptMgr, cfg.Engine.ScriptDir, logger)
		if err != nil {
			logger.Fatal("creating script watcher", zap.Error(err))
		}
		lifecycle.Add("script-watcher", server.RunFunc(watcher.Run))
	}

	if pool != nil {
		lifecycle.Add("ledger-watch", server.RunFunc(func(ctx context.Context) error {
			return watchLedger(ctx, pool, healthSrv, logger)
		}))
	}

	lifecycle.Add("grpc", &server.FuncService{
		StartFn: func() error {
			lis, err := net.Listen("tcp", cfg.Health.Addr())
			if err != nil {
				return fmt.Errorf("listening on %s: %w", cfg.Health.Addr(), err)
			}
			healthSrv.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
			healthSrv.SetServingStatus(worldService, healthpb.HealthCheckResponse_SERVING)
			healthSrv.SetServingStatus(gameserver.ServiceName, healthpb.HealthCheckResponse_SERVING)
			logger.Info("grpc listening", zap.String("addr", lis.Addr().String()))
			return grpcServer.Serve(lis)
		},
		StopFn: func() {
			healthSrv.Shutdown()
			mobSvc.Close()
			grpcServer.GracefulStop()
		},
	})

	logger.Info("mob server initialized",
		zap.Duration("startup", time.Since(start)),
		zap.Int("mobs", w.Mobs().Count()),
	)

	if err := lifecycle.Run(ctx); err != nil {
		logger.Fatal("server error", zap.Error(err))
	}
	logger.Info("mob server stopped")
}

// watchLedger reports whether the kill ledger can record kills on the health
// server until ctx is cancelled.
func watchLedger(ctx context.Context, pool *postgres.Pool, hs *health.Server, logger *zap.Logger) error {
	t := time.NewTicker(ledgerCheck)
	defer t.Stop()
	for {
		status := healthpb.HealthCheckResponse_SERVING
		if err := pool.CheckLedger(ctx, 2*time.Second); err != nil {
			status = healthpb.HealthCheckResponse_NOT_SERVING
			logger.Warn("kill ledger unavailable", zap.Error(err))
		}
		hs.SetServingStatus(ledgerService, status)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
		}
	}
}
