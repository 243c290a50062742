package middlewares

import (
	"context"
	"net/http"
	"strings"

	oerr "github.com/dropDatabas3/campauth/internal/domain/oauth"
	httperrors "github.com/dropDatabas3/campauth/internal/http/errors"
	svc "github.com/dropDatabas3/campauth/internal/http/services/oauth"
	"github.com/dropDatabas3/campauth/internal/observability/logger"
)

// TokenValidator es el subset de TokenService que usan los resource servers.
type TokenValidator interface {
	ValidateAccessToken(ctx context.Context, token string) (*svc.ValidationResult, error)
}

// RequireAccessToken exige un Bearer token activo y, si se pasan, todos los
// scopes indicados. El resultado queda en el contexto (GetValidation).
func RequireAccessToken(v TokenValidator, scopes ...string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := bearerToken(r)
			if !ok {
				httperrors.WriteJSON(w, oerr.New(oerr.InvalidToken, "missing bearer token"), false)
				return
			}
			res, err := v.ValidateAccessToken(r.Context(), raw)
			if err != nil {
				logger.From(r.Context()).Error("token validation failed", logger.Err(err))
				httperrors.WriteJSON(w, err, false)
				return
			}
			if !res.Valid {
				httperrors.WriteJSON(w, oerr.New(oerr.InvalidToken, "token is invalid, expired or revoked"), false)
				return
			}
			for _, sc := range scopes {
				if !res.HasScope(sc) {
					httperrors.WriteInsufficientScope(w, sc)
					return
				}
			}
			ctx := withValidation(r.Context(), res)
			ctx = logger.ToContext(ctx, logger.From(ctx).With(logger.ClientID(res.ClientID), logger.TenantID(res.TenantID)))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	if len(h) < 7 || !strings.EqualFold(h[:7], "bearer ") {
		return "", false
	}
	tok := strings.TrimSpace(h[7:])
	return tok, tok != ""
}
