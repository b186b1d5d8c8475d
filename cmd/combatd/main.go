// Package main provides the combat server binary that serves attack, damage
// and ability check resolution over gRPC.
package main

import (
	"context"
	"flag"
	"log"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/cory-johannsen/rqgcombat/internal/app"
	"github.com/cory-johannsen/rqgcombat/internal/config"
	"github.com/cory-johannsen/rqgcombat/internal/gameserver"
	"github.com/cory-johannsen/rqgcombat/internal/observability"
	"github.com/cory-johannsen/rqgcombat/internal/server"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	healthEvery := flag.Duration("db-health", 30*time.Second, "database health check interval")
	flag.Parse()

	ctx := context.Background()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logging, "combatd")
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	logger.Info("starting combat server",
		zap.String("grpc_addr", cfg.CombatServer.Addr()),
		zap.String("storage", cfg.Storage.Driver),
	)

	a, err := app.Build(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("building engine", zap.Error(err))
	}
	defer a.Close()

	grpcServer := grpc.NewServer(grpc.UnaryInterceptor(gameserver.LoggingInterceptor(logger)))
	gameserver.Register(grpcServer, gameserver.NewCombatService(a.Engine, a.Printer, a.Locale, logger))
	healthSrv := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthSrv)
	healthSrv.SetServingStatus(gameserver.ServiceName, healthpb.HealthCheckResponse_SERVING)

	lifecycle := server.NewLifecycle(logger)
	lifecycle.Add("grpc", server.NewGRPCService(cfg.CombatServer.Addr(), grpcServer, cfg.CombatServer.ShutdownTimeout, logger))

	ttl := cfg.CombatServer.InstanceTTL
	lifecycle.Add("attack-expiry", server.NewTickerService(ttl/2, func(ctx context.Context) {
		if _, err := a.Engine.ExpireAttacks(ctx, ttl); err != nil {
			logger.Warn("expiring attack instances failed", zap.Error(err))
		}
	}))

	if a.Pool != nil {
		lifecycle.Add("postgres", server.NewTickerService(*healthEvery, func(ctx context.Context) {
			if err := a.Pool.Health(ctx, 5*time.Second); err != nil {
				logger.Warn("database health check failed", zap.Error(err))
				healthSrv.SetServingStatus(gameserver.ServiceName, healthpb.HealthCheckResponse_NOT_SERVING)
				return
			}
			healthSrv.SetServingStatus(gameserver.ServiceName, healthpb.HealthCheckResponse_SERVING)
		}))
	}

	logger.Info("combat server initialized",
		zap.Duration("startup", time.Since(start)),
		zap.String("grpc_addr", cfg.CombatServer.Addr()),
	)

	if err := lifecycle.Run(ctx); err != nil {
		logger.Fatal("server error", zap.Error(err))
	}
}
