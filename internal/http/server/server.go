package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dropDatabas3/campauth/internal/config"
	"github.com/dropDatabas3/campauth/internal/observability/logger"
)

const (
	defaultRateWindow      = time.Minute
	defaultReadTimeout     = 10 * time.Second
	defaultWriteTimeout    = 15 * time.Second
	defaultShutdownTimeout = 15 * time.Second
)

// Run sirve HTTP y corre el janitor hasta que ctx se cancele; luego hace
// shutdown ordenado.
func (a *App) Run(ctx context.Context) error {
	cfg := a.Config
	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           a.Handler,
		ReadTimeout:       config.Duration(cfg.Server.ReadTimeout, defaultReadTimeout),
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      config.Duration(cfg.Server.WriteTimeout, defaultWriteTimeout),
		IdleTimeout:       60 * time.Second,
	}
	log := logger.L().With(logger.Component("server"))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("http listening", logger.String("addr", srv.Addr), logger.String("issuer", cfg.OAuth.Issuer))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return a.RunSweeper(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		timeout := config.Duration(cfg.Server.ShutdownTimeout, defaultShutdownTimeout)
		sctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		log.Info("shutting down", logger.String("timeout", timeout.String()))
		return srv.Shutdown(sctx)
	})
	return g.Wait()
}

// RunSweeper purga codes vencidos cada OAuth.SweepInterval. Con redis es
// no-op (los codes vencen por TTL nativo).
func (a *App) RunSweeper(ctx context.Context) error {
	interval := a.Config.OAuth.SweepInterval
	if interval <= 0 {
		return nil
	}
	log := logger.L().With(logger.Component("code-janitor"))
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			n, err := a.Service.SweepExpiredCodes(ctx)
			if err != nil {
				log.Warn("sweep failed", logger.Err(err))
				continue
			}
			if n > 0 {
				log.Debug("expired codes swept", logger.Count(n))
			}
		}
	}
}
