package oauth

import (
	"context"

	oerr "github.com/dropDatabas3/campauth/internal/domain/oauth"
	"github.com/dropDatabas3/campauth/internal/domain/repository"
	"github.com/dropDatabas3/campauth/internal/observability/logger"
)

func (s *Service) IssueClientCredentialsToken(ctx context.Context, in ClientCredentialsInput) (res *TokenResult, err error) {
	ctx, span := s.startSpan(ctx, "IssueClientCredentialsToken")
	defer func() { endSpan(span, err) }()

	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Op("TokenService.IssueClientCredentialsToken"),
		logger.ClientID(in.ClientID),
	)

	client, err := s.authenticateClient(ctx, in.ClientID, in.ClientSecret)
	if err != nil {
		log.Debug("client authentication failed", logger.Err(err))
		return nil, err
	}
	if !client.IsConfidential {
		return nil, oerr.New(oerr.InvalidClient, "public clients cannot use client_credentials")
	}
	if !client.AllowsGrant(repository.GrantClientCredentials) {
		return nil, oerr.New(oerr.UnauthorizedClient, "client is not allowed to use client_credentials")
	}

	scopes, ok := NegotiateScopes(ParseScope(in.Scope), client.Scopes)
	if !ok {
		return nil, oerr.New(oerr.InvalidScope, "none of the requested scopes are allowed for this client")
	}

	res, err = s.issueTokens(ctx, client, scopes, nil, repository.GrantClientCredentials)
	if err != nil {
		log.Error("issue tokens failed", logger.Err(err))
		return nil, err
	}
	log.Info("client credentials token issued", logger.TenantID(client.TenantID), logger.Scope(res.Scope))
	return res, nil
}
