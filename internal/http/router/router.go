// Package router arma el árbol de rutas chi del server.
package router

import (
	"net/http"
	"net/netip"

	"github.com/go-chi/chi/v5"

	healthctrl "github.com/dropDatabas3/campauth/internal/http/controllers/health"
	oauthctrl "github.com/dropDatabas3/campauth/internal/http/controllers/oauth"
	dto "github.com/dropDatabas3/campauth/internal/http/dto/oauth"
	httperrors "github.com/dropDatabas3/campauth/internal/http/errors"
	mw "github.com/dropDatabas3/campauth/internal/http/middlewares"
	"github.com/dropDatabas3/campauth/internal/metrics"
	"github.com/dropDatabas3/campauth/internal/rate"
)

// Deps contiene todo lo que necesitan las rutas.
type Deps struct {
	OAuth     *oauthctrl.Controllers
	Health    *healthctrl.Controller
	Validator mw.TokenValidator
	Metrics   *metrics.Metrics // opcional; sin él no hay /metrics
	Limiter   rate.Limiter     // opcional
	Identity  mw.IdentityConfig
	// Proxies cuyo X-Forwarded-For se acepta para la IP de cliente.
	TrustedProxies []netip.Prefix
}

// New retorna el handler raíz.
func New(d Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(
		d.Metrics.Instrument,
		mw.WithRecover(),
		mw.WithRequestID(),
		mw.WithClientIP(d.TrustedProxies),
		mw.WithLogging(),
	)
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		httperrors.WriteStatus(w, http.StatusNotFound, dto.ErrorResponse{Error: "not_found"})
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		httperrors.WriteStatus(w, http.StatusMethodNotAllowed, dto.ErrorResponse{Error: "method_not_allowed"})
	})

	r.Get("/health", d.Health.Health)
	r.Get("/ready", d.Health.Ready)
	if d.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", d.Metrics.Handler())
	}

	r.Get("/.well-known/openid-configuration", d.OAuth.Discovery.Get)

	r.Route("/oauth", func(r chi.Router) {
		registerOAuthRoutes(r, d)
	})
	return r
}

// registerOAuthRoutes: todas las respuestas no-store; token/revoke/introspect
// con rate limit por IP.
func registerOAuthRoutes(r chi.Router, d Deps) {
	c := d.OAuth
	r.Use(mw.WithNoStore())

	r.Get("/.well-known/openid-configuration", c.Discovery.Get)

	r.With(mw.WithIdentity(d.Identity)).Get("/authorize", c.Authorize.Authorize)

	limited := r.With(mw.WithRateLimit(mw.RateLimitConfig{Limiter: d.Limiter, Metrics: d.Metrics}))
	limited.Post("/token", c.Token.Token)
	limited.Post("/revoke", c.Revoke.Revoke)
	limited.Post("/introspect", c.Introspect.Introspect)

	r.With(mw.RequireAccessToken(d.Validator)).Get("/tokeninfo", c.TokenInfo.Get)
}
