package middlewares

import (
	"net/http"
	"strings"
)

// IdentityConfig nombra los headers que setea el gateway/login upstream.
// Solo son confiables si el server no es alcanzable directamente.
type IdentityConfig struct {
	UserHeader   string
	TenantHeader string
}

// WithIdentity copia la identidad autenticada de los headers al contexto.
// No rechaza requests: cada controller decide si la identidad es obligatoria.
func WithIdentity(cfg IdentityConfig) Middleware {
	if cfg.UserHeader == "" {
		cfg.UserHeader = "X-Authenticated-User"
	}
	if cfg.TenantHeader == "" {
		cfg.TenantHeader = "X-Tenant-ID"
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			if uid := strings.TrimSpace(r.Header.Get(cfg.UserHeader)); uid != "" {
				ctx = WithUserID(ctx, uid)
			}
			if tid := strings.TrimSpace(r.Header.Get(cfg.TenantHeader)); tid != "" {
				ctx = withTenantID(ctx, tid)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
