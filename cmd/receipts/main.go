package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"receipts/internal/amqp"
	"receipts/internal/cache"
	"receipts/internal/cli"
	"receipts/internal/config"
	"receipts/internal/core"
	apphttp "receipts/internal/http"
	applog "receipts/internal/log"
	"receipts/internal/recognition"
	"receipts/internal/services"
	"receipts/internal/storage"
)

func main() {
	cli.LoadEnvFile()

	cfg := config.Load()
	logger := cli.SetupLogger(cfg.LogLevel, applog.ComponentApp)
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cacheManager := cache.NewManager(logger.Logger)
	recognitionCache := cache.NewLRUCache[core.Extraction](cfg.RecognitionCacheSize, cfg.RecognitionCacheTTL)
	cacheManager.Register("recognition", recognitionCache)
	cacheManager.StartCleanup(cfg.CacheCleanupInterval)
	defer cacheManager.Stop()

	recognizer := recognition.NewCached(newRecognizer(ctx, logger, cfg), recognitionCache, cfg.RecognitionTimeout)

	// A nil *amqp.Client must not reach the service as a non-nil interface.
	var publisher services.ReportPublisher
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", "error", err)
			os.Exit(1)
		}
		publisher = client
		logger.Info("Report mirror publishing enabled", "exchange", cfg.AMQPExchange)
	} else {
		logger.Info("Report mirror publishing disabled - no AMQP_URL provided")
	}

	svc := services.NewReceiptService(
		storage.NewInvoiceBook(),
		storage.NewRateStoreFrom(cli.InitialRates(logger, cfg)),
		recognizer,
		publisher,
		cfg.Reporting(),
		cfg.Fallback(),
	)
	defer func() {
		if err := svc.Close(); err != nil {
			logger.Warn("Failed to close receipt service", "error", err)
		}
	}()

	srv := apphttp.NewServer(":"+cfg.Port, svc, apphttp.Options{
		Logger:             logger,
		MaxUploadBytes:     cfg.MaxUploadBytes,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		RecognitionStats:   recognizer.Stats,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting receipts server",
			"port", cfg.Port,
			"reporting_currency", cfg.Reporting(),
			"recognition", cfg.GeminiAPIKey != "")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}

// newRecognizer returns the Gemini recognizer, or one that rejects every
// receipt when no API key is configured.
func newRecognizer(ctx context.Context, logger *applog.Logger, cfg *config.Config) recognition.Recognizer {
	if cfg.GeminiAPIKey == "" {
		logger.Warn("GEMINI_API_KEY not set - receipt recognition disabled")
		return recognition.Disabled{}
	}
	initCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	g, err := recognition.NewGemini(initCtx, cfg.GeminiAPIKey, cfg.GeminiModel, cfg.RecognitionTimeout)
	if err != nil {
		logger.Error("Failed to initialize Gemini client", "error", err)
		os.Exit(1)
	}
	logger.Info("Receipt recognition enabled", "model", cfg.GeminiModel)
	return g
}
