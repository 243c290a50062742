package oauth

import (
	"context"
	"errors"

	oerr "github.com/dropDatabas3/campauth/internal/domain/oauth"
	"github.com/dropDatabas3/campauth/internal/domain/repository"
	"github.com/dropDatabas3/campauth/internal/observability/logger"
	"github.com/dropDatabas3/campauth/internal/security/token"
)

// lookupActive resuelve un access token vivo y su client. Retorna (nil, nil, nil)
// cuando el token no está activo por cualquier motivo.
func (s *Service) lookupActive(ctx context.Context, raw string) (*repository.Token, *repository.Client, error) {
	if raw == "" {
		return nil, nil, nil
	}
	t, err := s.tokens.GetByAccessHash(ctx, token.SHA256Hex(raw))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, nil
		}
		return nil, nil, oerr.Wrap(oerr.ServerError, "token lookup failed", err)
	}
	if !t.AccessActive(s.now()) {
		return nil, nil, nil
	}
	c, err := s.clients.GetByID(ctx, t.ClientID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, nil
		}
		return nil, nil, oerr.Wrap(oerr.ServerError, "client lookup failed", err)
	}
	if !c.IsActive {
		return nil, nil, nil
	}
	return t, c, nil
}

func (s *Service) IntrospectToken(ctx context.Context, raw string) (res *IntrospectResult, err error) {
	ctx, span := s.startSpan(ctx, "IntrospectToken")
	defer func() { endSpan(span, err) }()

	t, c, err := s.lookupActive(ctx, raw)
	if err != nil {
		logger.From(ctx).Error("introspect failed", logger.Layer("service"), logger.Err(err))
		return nil, err
	}
	if t == nil {
		return &IntrospectResult{Active: false}, nil
	}

	sub := c.ClientID
	if t.UserID != nil && *t.UserID != "" {
		sub = *t.UserID
	}
	return &IntrospectResult{
		Active:    true,
		Scope:     JoinScope(t.Scopes),
		ClientID:  c.ClientID,
		Exp:       t.ExpiresAt.Unix(),
		Iat:       t.CreatedAt.Unix(),
		Sub:       sub,
		Aud:       c.ClientID,
		Iss:       s.cfg.Issuer,
		TokenType: tokenTypeBearer,
		TenantID:  c.TenantID,
	}, nil
}

func (s *Service) ValidateAccessToken(ctx context.Context, raw string) (res *ValidationResult, err error) {
	ctx, span := s.startSpan(ctx, "ValidateAccessToken")
	defer func() { endSpan(span, err) }()

	t, c, err := s.lookupActive(ctx, raw)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return &ValidationResult{Valid: false}, nil
	}
	res = &ValidationResult{
		Valid:    true,
		TokenID:  t.ID,
		ClientID: c.ClientID,
		TenantID: c.TenantID,
		Scopes:   t.Scopes,
	}
	if t.UserID != nil {
		res.UserID = *t.UserID
	}
	return res, nil
}
