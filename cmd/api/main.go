package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	v1 "github.com/Team-7-graduated-project/HelloB-sub001/cmd/api/router/v1"
	"github.com/Team-7-graduated-project/HelloB-sub001/internal/app"
	"github.com/Team-7-graduated-project/HelloB-sub001/internal/config"
	"github.com/Team-7-graduated-project/HelloB-sub001/internal/infrastructure/httpserver"
	"github.com/Team-7-graduated-project/HelloB-sub001/internal/infrastructure/logger"
	"github.com/Team-7-graduated-project/HelloB-sub001/internal/infrastructure/observability"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"
)

func main() {
	config.LoadEnvFiles()

	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}

	log := logger.New(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry, err := observability.Setup(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize observability")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := shutdownTelemetry(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("failed to shutdown telemetry")
		}
	}()

	rt, err := app.New(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize chat runtime")
	}
	defer rt.Close()

	server := httpserver.New(cfg, log, rt.Ready, func(engine *gin.Engine) {
		v1.RegisterRoutes(engine, rt.Validator, rt.Dependencies())
	})

	log.Info().
		Str("service", cfg.ServiceName).
		Int("port", cfg.HTTPPort).
		Str("environment", cfg.Environment).
		Str("store", cfg.StoreDriver).
		Bool("redis", cfg.UsesRedis()).
		Msg("starting application")

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return server.Run(gctx) })
	g.Go(func() error { return rt.RunBackground(gctx) })
	if err := g.Wait(); err != nil {
		log.Fatal().Err(err).Msg("application stopped with error")
	}

	log.Info().Msg("application exited cleanly")
}
