// Package server arma el grafo de dependencias desde la config y corre el
// http.Server junto con el janitor de authorization codes.
package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/redis/go-redis/v9"

	"github.com/dropDatabas3/campauth/internal/cache"
	"github.com/dropDatabas3/campauth/internal/config"
	healthctrl "github.com/dropDatabas3/campauth/internal/http/controllers/health"
	oauthctrl "github.com/dropDatabas3/campauth/internal/http/controllers/oauth"
	mw "github.com/dropDatabas3/campauth/internal/http/middlewares"
	"github.com/dropDatabas3/campauth/internal/http/router"
	svc "github.com/dropDatabas3/campauth/internal/http/services/oauth"
	"github.com/dropDatabas3/campauth/internal/metrics"
	"github.com/dropDatabas3/campauth/internal/observability/logger"
	"github.com/dropDatabas3/campauth/internal/rate"
	"github.com/dropDatabas3/campauth/internal/security/secret"
	"github.com/dropDatabas3/campauth/internal/store"
)

// App es el server ya cableado.
type App struct {
	Config  *config.Config
	Store   *store.Store
	Redis   *redis.Client // nil con cache.kind=memory
	Codes   cache.CodeStore
	Service *svc.Service
	Metrics *metrics.Metrics
	Handler http.Handler
}

// Build conecta store, cache, limiter y service según cfg.
func Build(ctx context.Context, cfg *config.Config) (*App, error) {
	log := logger.From(ctx).With(logger.Component("wiring"))

	st, err := store.Open(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	log.Info("store ready", logger.String("driver", st.Driver))

	app := &App{Config: cfg, Store: st}
	if err := app.buildCache(ctx); err != nil {
		st.Close()
		return nil, err
	}

	m, err := metrics.New(nil)
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("metrics: %w", err)
	}
	app.Metrics = m

	app.Service = svc.NewService(svc.Deps{
		Clients: st.Clients,
		Tokens:  st.Tokens,
		Codes:   app.Codes,
		Hasher:  secret.NewHasher(secret.DefaultCost),
		Metrics: m,
		Config: svc.Config{
			Issuer:     cfg.OAuth.Issuer,
			AccessTTL:  cfg.OAuth.AccessTTL,
			RefreshTTL: cfg.OAuth.RefreshTTL,
			CodeTTL:    cfg.OAuth.CodeTTL,
		},
	})

	app.Handler = router.New(router.Deps{
		OAuth:     oauthctrl.NewControllers(app.controllerDeps()),
		Health:    healthctrl.NewController(cfg.App.Version, app.readinessChecks()),
		Validator: app.Service,
		Metrics:   m,
		Limiter:   app.limiter(),
		Identity: mw.IdentityConfig{
			UserHeader:   cfg.Security.IdentityHeader,
			TenantHeader: cfg.Security.TenantHeader,
		},
		TrustedProxies: cfg.Security.TrustedProxyPrefixes,
	})
	return app, nil
}

func (a *App) buildCache(ctx context.Context) error {
	cfg := a.Config
	switch cfg.Cache.Kind {
	case "redis":
		a.Redis = redis.NewClient(&redis.Options{
			Addr:     cfg.Cache.Redis.Addr,
			Password: cfg.Cache.Redis.Password,
			DB:       cfg.Cache.Redis.DB,
		})
		if err := a.Redis.Ping(ctx).Err(); err != nil {
			_ = a.Redis.Close()
			return fmt.Errorf("redis ping %s: %w", cfg.Cache.Redis.Addr, err)
		}
		a.Codes = cache.NewRedisStore(a.Redis, cfg.Cache.Redis.Prefix)
	default:
		// el janitor de go-cache queda apagado; el sweep lo hace RunSweeper
		// para que cuente en métricas
		a.Codes = cache.NewMemoryStore(cfg.OAuth.CodeTTL, 0)
	}
	return nil
}

func (a *App) controllerDeps() oauthctrl.Deps {
	d := oauthctrl.Deps{
		Service: a.Service,
		Metrics: a.Metrics,
		Issuer:  a.Config.OAuth.Issuer,
	}
	if u, p := a.Config.Security.IntrospectBasicUser, a.Config.Security.IntrospectBasicPass; u != "" && p != "" {
		d.IntrospectUser, d.IntrospectPass = u, p
	}
	return d
}

func (a *App) readinessChecks() map[string]healthctrl.Pinger {
	checks := map[string]healthctrl.Pinger{"store": a.Store}
	if a.Redis != nil {
		checks["redis"] = healthctrl.PingFunc(func(ctx context.Context) error {
			return a.Redis.Ping(ctx).Err()
		})
	}
	return checks
}

// limiter retorna nil (interface) si el rate limit está apagado.
func (a *App) limiter() rate.Limiter {
	cfg := a.Config
	if !cfg.Rate.Enabled {
		return nil
	}
	window := config.Duration(cfg.Rate.Window, defaultRateWindow)
	if a.Redis != nil {
		return rate.NewRedisLimiter(a.Redis, cfg.Cache.Redis.Prefix, cfg.Rate.MaxRequests, window)
	}
	return rate.NewMemoryLimiter(cfg.Rate.MaxRequests, window)
}

// Close libera store y redis.
func (a *App) Close() {
	if a.Redis != nil {
		_ = a.Redis.Close()
	}
	if a.Store != nil {
		a.Store.Close()
	}
}
