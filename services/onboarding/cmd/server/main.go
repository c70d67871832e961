package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/linkwise/linkwise/pkg/logger"
	"github.com/linkwise/linkwise/services/onboarding/internal/app"
	"github.com/linkwise/linkwise/services/onboarding/internal/config"
)

const serviceName = "onboarding-service"

func main() {
	if err := run(); err != nil {
		slog.Error("onboarding service exited", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log := logger.New(serviceName, cfg.LogLevel)
	slog.SetDefault(log)
	log.Info("starting",
		slog.String("environment", cfg.Environment),
		slog.Int("http_port", cfg.HTTPPort),
		slog.String("verification_provider", cfg.VerificationProvider),
		slog.String("session_store", cfg.SessionStore),
		slog.Bool("events_enabled", cfg.EventsEnabled),
	)

	application, err := app.NewApp(cfg, log)
	if err != nil {
		return fmt.Errorf("init: %w", err)
	}

	// Run blocks until SIGINT or SIGTERM, then drains and shuts down.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if err := application.Run(ctx); err != nil {
		return err
	}

	log.Info("stopped")
	return nil
}
