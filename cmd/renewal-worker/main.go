package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"subtrack/internal/amqp"
	"subtrack/internal/config"
	"subtrack/internal/core"
	applog "subtrack/internal/log"
	"subtrack/internal/services"
	"subtrack/internal/storage"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := applog.New(applog.Config{
		Level:     slog.LevelInfo,
		Component: applog.ComponentRenewal,
	})
	applog.SetDefault(logger)

	logger.Info("Starting renewal-worker")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	// Advanced billing dates are mirrored through the same sync queue the
	// API publishes to, so the mirror stays current without the broker
	// being mandatory here.
	var publisher services.SyncPublisher
	if cfg.AMQPURL != "" {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, continuing without sync publishing", "error", err)
		} else {
			defer amqpClient.Close()
			publisher = amqpClient
		}
	}

	processor := services.NewRenewalProcessor(repo, publisher, cfg.RenewalWindowDays)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("Renewal processor configured",
		"interval", cfg.RenewalInterval,
		"window_days", cfg.RenewalWindowDays)

	run := func(now time.Time) {
		advanced, alerts, err := processor.ProcessRenewals(ctx, core.DateOf(now))
		if err != nil {
			logger.Error("Renewal processing failed", "error", err)
			return
		}
		logger.Info("Renewal processing complete",
			"advanced", advanced,
			"upcoming", len(alerts))
	}

	// Run once on startup, then on the configured interval.
	run(time.Now())

	ticker := time.NewTicker(cfg.RenewalInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("Renewal-worker stopped gracefully")
			return
		case now := <-ticker.C:
			run(now)
		}
	}
}
