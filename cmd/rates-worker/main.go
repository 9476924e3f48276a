package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"fintrack/internal/amqp"
	"fintrack/internal/config"
	applog "fintrack/internal/log"
	"fintrack/internal/rates"
)

// rates-worker refreshes the exchange-rate cache on a timer and
// announces degraded tiers over AMQP so the UI can warn about saved or
// built-in rates.
func main() {
	_ = godotenv.Load()

	logger := applog.New(applog.Config{
		Level:     slog.LevelInfo,
		Component: applog.ComponentWorker,
	})
	applog.SetDefault(logger)

	logger.Info("Starting rates-worker")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	var amqpClient *amqp.Client
	if cfg.AMQPURL != "" {
		var err error
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", "error", err)
			os.Exit(1)
		}
		defer amqpClient.Close()
	} else {
		logger.Info("AMQP disabled - tier announcements will only be logged")
	}

	provider := rates.NewProvider(
		rates.NewHTTPFetcher(cfg.RatesURL),
		rates.WithTTL(cfg.RatesTTL),
		rates.WithLogger(logger.WithComponent(applog.ComponentRates).Logger),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	refresh := func() {
		set := provider.Refresh(ctx)
		tier := provider.LastTier()

		logger.Info("Rates refreshed",
			"tier", string(tier),
			"currencies", len(set.Rates),
			"as_of", set.AsOf)

		if amqpClient != nil && tier.Degraded() {
			if err := amqpClient.PublishRateTier(ctx, string(tier), set.AsOf); err != nil {
				logger.Error("Failed to publish rate tier", "error", err)
			}
		}
	}

	// Refresh once at startup, then on the configured interval.
	refresh()

	ticker := time.NewTicker(cfg.RatesRefreshInterval)
	defer ticker.Stop()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	for {
		select {
		case <-ticker.C:
			refresh()
		case sig := <-sigChan:
			logger.Info("Shutdown signal received", "signal", sig.String())
			cancel()
			return
		}
	}
}
