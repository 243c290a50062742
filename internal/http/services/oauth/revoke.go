package oauth

import (
	"context"

	"github.com/dropDatabas3/campauth/internal/audit"
	oerr "github.com/dropDatabas3/campauth/internal/domain/oauth"
	"github.com/dropDatabas3/campauth/internal/observability/logger"
	"github.com/dropDatabas3/campauth/internal/security/token"
)

const (
	HintAccessToken  = "access_token"
	HintRefreshToken = "refresh_token"
)

// RevokeToken busca primero según el hint y luego en el otro tipo (RFC 7009 §2.1).
// Un token desconocido o ya revocado no es error.
func (s *Service) RevokeToken(ctx context.Context, raw, hint string) (err error) {
	ctx, span := s.startSpan(ctx, "RevokeToken")
	defer func() { endSpan(span, err) }()

	log := logger.From(ctx).With(logger.Layer("service"), logger.Op("TokenService.RevokeToken"))
	if raw == "" {
		return nil
	}
	hash := token.SHA256Hex(raw)

	byAccess := s.tokens.RevokeByAccessHash
	byRefresh := s.tokens.RevokeByRefreshHash
	order := []func(context.Context, string) (bool, error){byAccess, byRefresh}
	if hint == HintRefreshToken {
		order = []func(context.Context, string) (bool, error){byRefresh, byAccess}
	}

	for _, revoke := range order {
		ok, err := revoke(ctx, hash)
		if err != nil {
			log.Error("revoke failed", logger.Err(err))
			return oerr.Wrap(oerr.ServerError, "revocation failed", err)
		}
		if ok {
			s.metrics.TokensRevoked("explicit", 1)
			audit.Log(ctx, audit.EventTokenRevoked, logger.String("hint", hint))
			return nil
		}
	}
	log.Debug("revoke: no active token matched")
	return nil
}
