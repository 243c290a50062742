package middlewares

import (
	"math"
	"net/http"
	"strconv"

	oerr "github.com/dropDatabas3/campauth/internal/domain/oauth"
	httperrors "github.com/dropDatabas3/campauth/internal/http/errors"
	"github.com/dropDatabas3/campauth/internal/metrics"
	"github.com/dropDatabas3/campauth/internal/observability/logger"
	"github.com/dropDatabas3/campauth/internal/rate"
)

// RateKeyFunc define cómo generar la clave de rate limiting.
type RateKeyFunc func(r *http.Request) string

// IPPathRateKey: IP de cliente + path.
func IPPathRateKey(r *http.Request) string {
	return clientIP(r) + "|" + r.URL.Path
}

// RateLimitConfig configura el middleware.
type RateLimitConfig struct {
	Limiter rate.Limiter
	KeyFunc RateKeyFunc
	Metrics *metrics.Metrics
}

// WithRateLimit responde 429 con Retry-After al exceder el límite.
// Si el limiter falla se deja pasar el request (fail-open).
func WithRateLimit(cfg RateLimitConfig) Middleware {
	if cfg.Limiter == nil {
		return func(next http.Handler) http.Handler { return next }
	}
	if cfg.KeyFunc == nil {
		cfg.KeyFunc = IPPathRateKey
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			res, err := cfg.Limiter.Allow(r.Context(), cfg.KeyFunc(r))
			if err != nil {
				logger.From(r.Context()).Warn("rate limiter error", logger.Err(err))
				next.ServeHTTP(w, r)
				return
			}
			w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(res.Remaining, 10))
			if !res.Allowed {
				secs := int(math.Ceil(res.RetryAfter.Seconds()))
				if secs < 1 {
					secs = 1
				}
				w.Header().Set("Retry-After", strconv.Itoa(secs))
				cfg.Metrics.RateLimited(r.URL.Path)
				httperrors.WriteRateLimited(w, oerr.New(oerr.InvalidRequest, "rate limit exceeded"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
