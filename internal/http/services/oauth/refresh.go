package oauth

import (
	"context"
	"errors"

	"github.com/dropDatabas3/campauth/internal/audit"
	oerr "github.com/dropDatabas3/campauth/internal/domain/oauth"
	"github.com/dropDatabas3/campauth/internal/domain/repository"
	"github.com/dropDatabas3/campauth/internal/observability/logger"
	"github.com/dropDatabas3/campauth/internal/security/token"
)

// RefreshAccessToken rota el par: la fila vieja se revoca y se inserta una
// nueva en la misma operación del repositorio. Un refresh token ya usado
// falla con invalid_grant.
func (s *Service) RefreshAccessToken(ctx context.Context, in RefreshInput) (res *TokenResult, err error) {
	ctx, span := s.startSpan(ctx, "RefreshAccessToken")
	defer func() { endSpan(span, err) }()

	log := logger.From(ctx).With(logger.Layer("service"), logger.Op("TokenService.RefreshAccessToken"))

	invalid := oerr.New(oerr.InvalidGrant, "refresh token is invalid, expired or revoked")
	if in.RefreshToken == "" {
		return nil, invalid
	}

	old, err := s.tokens.GetByRefreshHash(ctx, token.SHA256Hex(in.RefreshToken))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, invalid
		}
		return nil, oerr.Wrap(oerr.ServerError, "token lookup failed", err)
	}
	if !old.RefreshActive(s.now()) {
		log.Debug("refresh token not active", logger.TokenID(old.ID), logger.Bool("revoked", old.IsRevoked()))
		return nil, invalid
	}

	client, err := s.clients.GetByID(ctx, old.ClientID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, invalid
		}
		return nil, oerr.Wrap(oerr.ServerError, "client lookup failed", err)
	}
	if !client.IsActive {
		return nil, invalid
	}
	if in.ClientID != "" && in.ClientID != client.ClientID {
		return nil, oerr.New(oerr.InvalidGrant, "refresh token was issued to another client")
	}
	if in.ClientSecret != "" && client.IsConfidential {
		if client.SecretHash == nil || !s.hasher.Verify(*client.SecretHash, in.ClientSecret) {
			return nil, oerr.New(oerr.InvalidClient, "client authentication failed")
		}
	}
	if !client.AllowsGrant(repository.GrantRefreshToken) {
		return nil, oerr.New(oerr.UnauthorizedClient, "client is not allowed to use refresh_token")
	}

	next, res, err := s.newTokenInput(client, old.Scopes, old.UserID)
	if err != nil {
		return nil, oerr.Wrap(oerr.ServerError, "token generation failed", err)
	}
	if _, err := s.tokens.Rotate(ctx, old.ID, next); err != nil {
		if errors.Is(err, repository.ErrAlreadyRevoked) || errors.Is(err, repository.ErrNotFound) ||
			errors.Is(err, repository.ErrClientChanged) {
			audit.Log(ctx, audit.EventRefreshReused, logger.TokenID(old.ID), logger.ClientID(client.ClientID))
			return nil, invalid
		}
		log.Error("rotate failed", logger.Err(err))
		return nil, oerr.Wrap(oerr.ServerError, "token rotation failed", err)
	}

	s.metrics.TokenIssued(repository.GrantRefreshToken)
	s.metrics.TokensRevoked("rotation", 1)
	log.Info("refresh token rotated", logger.ClientID(client.ClientID), logger.TokenID(old.ID))
	return res, nil
}
