package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/Team-7-graduated-project/HelloB-sub001/internal/app"
	"github.com/Team-7-graduated-project/HelloB-sub001/internal/config"
	"github.com/Team-7-graduated-project/HelloB-sub001/internal/infrastructure/logger"
	qadapter "github.com/Team-7-graduated-project/HelloB-sub001/internal/infrastructure/queue/adapter"
	"github.com/Team-7-graduated-project/HelloB-sub001/internal/pkg/chat/application/task"
)

// The worker processes unread notification tasks enqueued by the API nodes.
// It needs REDIS_URL; single-node deployments run the queue inside the API.
func main() {
	config.LoadEnvFiles()

	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}
	log := logger.Component(logger.New(cfg), "worker")

	if !cfg.UsesRedis() {
		log.Fatal().Msg("REDIS_URL is required to run the worker")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rt, err := app.New(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize chat runtime")
	}
	defer rt.Close()

	srv, err := qadapter.NewAsynqServer(cfg.RedisURL, cfg.AsynqConcurrency, cfg.AsynqQueues, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create queue server")
	}
	task.RegisterNotifyUnreadTask(srv, rt.NotifyUnreadUseCase())

	log.Info().Int("concurrency", cfg.AsynqConcurrency).Str("queues", cfg.AsynqQueues).Msg("worker started")
	if err := srv.Run(ctx); err != nil {
		log.Fatal().Err(err).Msg("worker stopped with error")
	}
	log.Info().Msg("worker exited cleanly")
}
