// Command campauth corre el authorization server OAuth2.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/dropDatabas3/campauth/internal/config"
	"github.com/dropDatabas3/campauth/internal/http/server"
	"github.com/dropDatabas3/campauth/internal/observability/logger"
	"github.com/dropDatabas3/campauth/internal/observability/tracing"
)

var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "campauth:", err)
		os.Exit(1)
	}
}

func run() error {
	// .env es opcional
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintln(os.Stderr, "warning: .env:", err)
	}

	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		return err
	}
	if cfg.App.Version == "" {
		cfg.App.Version = version
	}

	logger.Init(logger.Config{
		Env:         cfg.App.Env,
		Level:       cfg.Log.Level,
		ServiceName: cfg.Telemetry.ServiceName,
		Version:     cfg.App.Version,
	})
	defer func() { _ = logger.Sync() }()
	log := logger.L()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := tracing.Setup(ctx, tracing.Config{
		Endpoint:    cfg.Telemetry.OTLPEndpoint,
		ServiceName: cfg.Telemetry.ServiceName,
		Version:     cfg.App.Version,
	})
	if err != nil {
		return fmt.Errorf("tracing: %w", err)
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			log.Warn("tracing shutdown", logger.Err(err))
		}
	}()

	app, err := server.Build(logger.ToContext(ctx, log), cfg)
	if err != nil {
		return err
	}
	defer app.Close()

	log.Info("campauth starting",
		logger.String("env", cfg.App.Env),
		logger.String("storage", cfg.Storage.Driver),
		logger.String("cache", cfg.Cache.Kind),
		logger.Bool("rate_limit", cfg.Rate.Enabled),
	)
	if err := app.Run(ctx); err != nil {
		return err
	}
	log.Info("campauth stopped")
	return nil
}
