package middlewares

import (
	"net/http"

	oerr "github.com/dropDatabas3/campauth/internal/domain/oauth"
	httperrors "github.com/dropDatabas3/campauth/internal/http/errors"
	"github.com/dropDatabas3/campauth/internal/observability/logger"
)

// WithRecover captura panics y devuelve server_error en lugar de crashear.
func WithRecover() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					if rec == http.ErrAbortHandler {
						panic(rec)
					}
					logger.From(r.Context()).Error("panic recovered",
						logger.Op("recover"),
						logger.Any("panic", rec),
					)
					httperrors.WriteJSON(w, oerr.New(oerr.ServerError, "panic recovered"), false)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
