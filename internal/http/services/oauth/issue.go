package oauth

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	oerr "github.com/dropDatabas3/campauth/internal/domain/oauth"
	"github.com/dropDatabas3/campauth/internal/domain/repository"
	"github.com/dropDatabas3/campauth/internal/observability/tracing"
	"github.com/dropDatabas3/campauth/internal/security/token"
)

const tokenTypeBearer = "Bearer"

func (s *Service) startSpan(ctx context.Context, op string) (context.Context, trace.Span) {
	return tracing.Tracer().Start(ctx, "TokenService."+op)
}

// endSpan marca el span con el kind OAuth del error (si hay).
func endSpan(span trace.Span, err error) {
	if err != nil {
		kind := oerr.KindOf(err)
		span.SetAttributes(attribute.String("oauth.error", string(kind)))
		span.SetStatus(codes.Error, string(kind))
	}
	span.End()
}

// authenticateClient resuelve el client por client_id público y, si es
// confidencial, verifica el secret. Cualquier falla es invalid_client.
func (s *Service) authenticateClient(ctx context.Context, clientID, secret string) (*repository.Client, error) {
	c, err := s.activeClient(ctx, clientID)
	if err != nil {
		return nil, err
	}
	if c.IsConfidential {
		if c.SecretHash == nil || !s.hasher.Verify(*c.SecretHash, secret) {
			return nil, oerr.New(oerr.InvalidClient, "client authentication failed")
		}
	}
	return c, nil
}

// activeClient: inexistente o desactivado es invalid_client.
func (s *Service) activeClient(ctx context.Context, clientID string) (*repository.Client, error) {
	if clientID == "" {
		return nil, oerr.New(oerr.InvalidClient, "client_id is required")
	}
	c, err := s.clients.GetByClientID(ctx, clientID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, oerr.New(oerr.InvalidClient, "unknown client")
		}
		return nil, oerr.Wrap(oerr.ServerError, "client lookup failed", err)
	}
	if !c.IsActive {
		return nil, oerr.New(oerr.InvalidClient, "client is disabled")
	}
	return c, nil
}

// newTokenInput genera el par access/refresh y arma la fila a persistir.
// Los valores crudos solo viajan en el TokenResult.
func (s *Service) newTokenInput(client *repository.Client, scopes []string, userID *string) (repository.CreateTokenInput, *TokenResult, error) {
	access, err := token.NewAccessToken()
	if err != nil {
		return repository.CreateTokenInput{}, nil, err
	}
	refresh, err := token.NewRefreshToken()
	if err != nil {
		return repository.CreateTokenInput{}, nil, err
	}

	now := s.now().UTC()
	refreshHash := token.SHA256Hex(refresh)
	refreshExp := now.Add(s.cfg.RefreshTTL)
	in := repository.CreateTokenInput{
		ClientID:         client.ID,
		UserID:           userID,
		AccessTokenHash:  token.SHA256Hex(access),
		RefreshTokenHash: &refreshHash,
		Scopes:           scopes,
		ExpiresAt:        now.Add(s.cfg.AccessTTL),
		RefreshExpiresAt: &refreshExp,
		CreatedAt:        now,
		ClientSecretHash: client.SecretHash,
	}
	res := &TokenResult{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    tokenTypeBearer,
		ExpiresIn:    int64(s.cfg.AccessTTL.Seconds()),
		Scope:        JoinScope(scopes),
		TenantID:     client.TenantID,
	}
	return in, res, nil
}

// issueTokens crea y persiste un par nuevo. El insert está condicionado al
// secret con el que se autenticó client: si se rotó en el medio, no se emite.
func (s *Service) issueTokens(ctx context.Context, client *repository.Client, scopes []string, userID *string, grantType string) (*TokenResult, error) {
	in, res, err := s.newTokenInput(client, scopes, userID)
	if err != nil {
		return nil, oerr.Wrap(oerr.ServerError, "token generation failed", err)
	}
	if _, err := s.tokens.Create(ctx, in); err != nil {
		if errors.Is(err, repository.ErrClientChanged) {
			return nil, oerr.Wrap(oerr.InvalidClient, "client credentials changed during issuance", err)
		}
		return nil, oerr.Wrap(oerr.ServerError, "token persistence failed", fmt.Errorf("create token: %w", err))
	}
	s.metrics.TokenIssued(grantType)
	return res, nil
}

func strPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
