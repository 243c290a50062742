package oauth

import (
	"context"
	"errors"

	"github.com/dropDatabas3/campauth/internal/cache"
	oerr "github.com/dropDatabas3/campauth/internal/domain/oauth"
	"github.com/dropDatabas3/campauth/internal/domain/repository"
	"github.com/dropDatabas3/campauth/internal/observability/logger"
	"github.com/dropDatabas3/campauth/internal/security/pkce"
	"github.com/dropDatabas3/campauth/internal/security/token"
)

// ErrUnregisteredRedirect es la causa cuando redirect_uri no está registrado.
// El endpoint de autorización no debe redirigir a ese URI.
var ErrUnregisteredRedirect = errors.New("unregistered redirect_uri")

func (s *Service) CheckRedirect(ctx context.Context, clientID, redirectURI string) error {
	client, err := s.activeClient(ctx, clientID)
	if err != nil {
		return err
	}
	if !client.HasRedirectURI(redirectURI) {
		return oerr.Wrap(oerr.InvalidRequest, "redirect_uri is not registered for this client", ErrUnregisteredRedirect)
	}
	return nil
}

func (s *Service) GenerateAuthorizationCode(ctx context.Context, in AuthorizeInput) (code string, err error) {
	ctx, span := s.startSpan(ctx, "GenerateAuthorizationCode")
	defer func() { endSpan(span, err) }()

	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Op("TokenService.GenerateAuthorizationCode"),
		logger.ClientID(in.ClientID),
	)

	client, err := s.activeClient(ctx, in.ClientID)
	if err != nil {
		return "", err
	}
	if !client.HasRedirectURI(in.RedirectURI) {
		return "", oerr.Wrap(oerr.InvalidRequest, "redirect_uri is not registered for this client", ErrUnregisteredRedirect)
	}
	if !client.AllowsGrant(repository.GrantAuthorizationCode) {
		return "", oerr.New(oerr.UnauthorizedClient, "client is not allowed to use authorization_code")
	}
	if in.UserID == "" {
		return "", oerr.New(oerr.AccessDenied, "authenticated user required")
	}

	method := in.CodeChallengeMethod
	switch {
	case in.CodeChallenge == "" && !client.IsConfidential:
		return "", oerr.New(oerr.InvalidRequest, "code_challenge is required for public clients")
	case in.CodeChallenge == "" && method != "":
		return "", oerr.New(oerr.InvalidRequest, "code_challenge_method without code_challenge")
	case in.CodeChallenge != "":
		if method == "" {
			method = pkce.MethodPlain
		}
		if !pkce.IsSupportedMethod(method) {
			return "", oerr.Errorf(oerr.InvalidRequest, "unsupported code_challenge_method %q", method)
		}
	}

	scopes, ok := NegotiateScopes(ParseScope(in.Scope), client.Scopes)
	if !ok {
		return "", oerr.New(oerr.InvalidScope, "none of the requested scopes are allowed for this client")
	}

	code, err = token.NewAuthCode()
	if err != nil {
		return "", oerr.Wrap(oerr.ServerError, "code generation failed", err)
	}
	entry := cache.AuthCode{
		Code:                code,
		ClientID:            client.ClientID,
		RedirectURI:         in.RedirectURI,
		Scopes:              scopes,
		UserID:              in.UserID,
		CodeChallenge:       in.CodeChallenge,
		CodeChallengeMethod: method,
		ExpiresAt:           s.now().Add(s.cfg.CodeTTL),
	}
	if err := s.codes.Put(ctx, entry, s.cfg.CodeTTL); err != nil {
		log.Error("store auth code failed", logger.Err(err))
		return "", oerr.Wrap(oerr.ServerError, "code storage failed", err)
	}

	s.metrics.CodeIssued()
	log.Info("authorization code issued", logger.UserID(in.UserID), logger.Bool("pkce", in.CodeChallenge != ""))
	return code, nil
}

// ExchangeAuthorizationCode consume el code antes de cualquier validación:
// un intento fallido también lo invalida.
func (s *Service) ExchangeAuthorizationCode(ctx context.Context, in ExchangeCodeInput) (res *TokenResult, err error) {
	ctx, span := s.startSpan(ctx, "ExchangeAuthorizationCode")
	defer func() { endSpan(span, err) }()

	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Op("TokenService.ExchangeAuthorizationCode"),
		logger.ClientID(in.ClientID),
	)

	entry, err := s.codes.GetAndDelete(ctx, in.Code)
	if err != nil {
		if errors.Is(err, cache.ErrNotFound) {
			s.metrics.CodeRedeemed("miss")
			return nil, oerr.New(oerr.InvalidGrant, "authorization code is invalid or expired")
		}
		log.Error("auth code lookup failed", logger.Err(err))
		return nil, oerr.Wrap(oerr.ServerError, "code lookup failed", err)
	}

	res, err = s.redeem(ctx, entry, in)
	if err != nil {
		s.metrics.CodeRedeemed("rejected")
		log.Debug("code exchange rejected", logger.Err(err))
		return nil, err
	}
	s.metrics.CodeRedeemed("ok")
	log.Info("authorization code exchanged", logger.UserID(entry.UserID), logger.Scope(res.Scope))
	return res, nil
}

func (s *Service) redeem(ctx context.Context, entry *cache.AuthCode, in ExchangeCodeInput) (*TokenResult, error) {
	if entry.Expired(s.now()) {
		return nil, oerr.New(oerr.InvalidGrant, "authorization code is invalid or expired")
	}
	if entry.ClientID != in.ClientID {
		return nil, oerr.New(oerr.InvalidGrant, "authorization code was issued to another client")
	}
	if entry.RedirectURI != in.RedirectURI {
		return nil, oerr.New(oerr.InvalidGrant, "redirect_uri does not match the authorization request")
	}

	client, err := s.authenticateClient(ctx, in.ClientID, in.ClientSecret)
	if err != nil {
		return nil, err
	}

	if entry.CodeChallenge != "" {
		if in.CodeVerifier == "" {
			return nil, oerr.New(oerr.InvalidGrant, "code_verifier is required")
		}
		if !pkce.VerifyCodeChallenge(in.CodeVerifier, entry.CodeChallenge, entry.CodeChallengeMethod) {
			return nil, oerr.New(oerr.InvalidGrant, "code_verifier does not match code_challenge")
		}
	}

	return s.issueTokens(ctx, client, entry.Scopes, strPtr(entry.UserID), repository.GrantAuthorizationCode)
}

// SweepExpiredCodes purga codes vencidos; lo invoca el janitor del server.
func (s *Service) SweepExpiredCodes(ctx context.Context) (int, error) {
	n, err := s.codes.Sweep(ctx)
	if err != nil {
		return 0, err
	}
	s.metrics.CodesSwept(n)
	return n, nil
}
