package main

import (
	"context"
	"errors"
	"os"
	"time"

	"receipts/internal/amqp"
	"receipts/internal/backend"
	"receipts/internal/cache"
	"receipts/internal/cli"
	applog "receipts/internal/log"
	"receipts/internal/worker"
)

func main() {
	cli.LoadEnvFile()

	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"), applog.ComponentWorker)
	logger.Info("Starting receipts-worker")

	cfg := cli.LoadAndValidateConfig(logger)
	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the report mirror worker")
		os.Exit(1)
	}

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid mirror backend configuration", "error", err)
		os.Exit(1)
	}
	result, err := backend.NewFactory(logger.Logger).CreateBackend(context.Background(), backendCfg)
	if err != nil {
		logger.Error("Failed to create mirror backend", "error", err, "backend", backendCfg.Type)
		os.Exit(1)
	}

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}

	cacheManager := cache.NewManager(logger.Logger)
	seen := cache.NewLRUCache[string](1024, 24*time.Hour)
	cacheManager.Register("mirrored_reports", seen)
	cacheManager.StartCleanup(cfg.CacheCleanupInterval)

	mirror := worker.NewReportMirrorWorker(result.Writer, seen)

	ctx, done := cli.GracefulShutdown(logger, cfg.ShutdownTimeout, func() {
		cacheManager.Stop()
		if err := amqpClient.Close(); err != nil {
			logger.Warn("Failed to close AMQP client", "error", err)
		}
		if result.Cleanup != nil {
			if err := result.Cleanup(); err != nil {
				logger.Warn("Mirror backend cleanup failed", "error", err)
			}
		}
		st := mirror.Stats()
		logger.Info("Report mirror stopped",
			"mirrored", st.Mirrored,
			"duplicates", st.Duplicates,
			"failed", st.Failed)
	})

	go func() {
		err := amqpClient.ConsumeReportExported(ctx, mirror.HandleReportMessage)
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("Message consumption failed", "error", err)
		}
	}()

	logger.Info("Consuming report messages",
		"queue", cfg.AMQPQueue,
		"backend", backendCfg.Type)
	cli.WaitForShutdown(ctx, done)
}
