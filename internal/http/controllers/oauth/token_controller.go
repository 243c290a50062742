package oauth

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	oerr "github.com/dropDatabas3/campauth/internal/domain/oauth"
	dto "github.com/dropDatabas3/campauth/internal/http/dto/oauth"
	httperrors "github.com/dropDatabas3/campauth/internal/http/errors"
	svc "github.com/dropDatabas3/campauth/internal/http/services/oauth"
	"github.com/dropDatabas3/campauth/internal/metrics"
	"github.com/dropDatabas3/campauth/internal/observability/logger"
)

const maxTokenBodySize = 64 << 10

// TokenController handles POST /oauth/token.
type TokenController struct {
	service svc.TokenService
	metrics *metrics.Metrics
}

func NewTokenController(s svc.TokenService, m *metrics.Metrics) *TokenController {
	return &TokenController{service: s, metrics: m}
}

// Token despacha por grant_type: client_credentials, authorization_code, refresh_token.
func (c *TokenController) Token(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("TokenController.Token"))

	r.Body = http.MaxBytesReader(w, r.Body, maxTokenBodySize)
	if err := r.ParseForm(); err != nil {
		log.Warn("failed to parse form", logger.Err(err))
		c.fail(w, oerr.New(oerr.InvalidRequest, "invalid form body"), false)
		return
	}

	f := r.PostForm
	req := dto.TokenRequest{
		GrantType:    strings.TrimSpace(f.Get("grant_type")),
		ClientID:     strings.TrimSpace(f.Get("client_id")),
		ClientSecret: f.Get("client_secret"),
		Scope:        strings.TrimSpace(f.Get("scope")),
		Code:         strings.TrimSpace(f.Get("code")),
		RedirectURI:  strings.TrimSpace(f.Get("redirect_uri")),
		CodeVerifier: strings.TrimSpace(f.Get("code_verifier")),
		RefreshToken: strings.TrimSpace(f.Get("refresh_token")),
	}

	basicUsed, err := mergeBasicAuth(r, &req)
	if err != nil {
		c.fail(w, err, basicUsed)
		return
	}
	if err := req.Validate(); err != nil {
		c.fail(w, err, basicUsed)
		return
	}

	log = log.With(logger.GrantType(req.GrantType), logger.ClientID(req.ClientID))
	res, err := c.dispatch(ctx, req)
	if err != nil {
		if oerr.KindOf(err) == oerr.ServerError {
			log.Error("token endpoint error", logger.Err(err))
		} else {
			log.Debug("token request rejected", logger.Err(err))
		}
		c.fail(w, err, basicUsed)
		return
	}

	httperrors.WriteOK(w, dto.TokenResponse{
		AccessToken:  res.AccessToken,
		TokenType:    res.TokenType,
		ExpiresIn:    res.ExpiresIn,
		RefreshToken: res.RefreshToken,
		Scope:        res.Scope,
		TenantID:     res.TenantID,
	})
}

func (c *TokenController) dispatch(ctx context.Context, req dto.TokenRequest) (*svc.TokenResult, error) {
	switch req.GrantType {
	case dto.GrantClientCredentials:
		return c.service.IssueClientCredentialsToken(ctx, svc.ClientCredentialsInput{
			ClientID:     req.ClientID,
			ClientSecret: req.ClientSecret,
			Scope:        req.Scope,
		})
	case dto.GrantAuthorizationCode:
		return c.service.ExchangeAuthorizationCode(ctx, svc.ExchangeCodeInput{
			Code:         req.Code,
			ClientID:     req.ClientID,
			ClientSecret: req.ClientSecret,
			RedirectURI:  req.RedirectURI,
			CodeVerifier: req.CodeVerifier,
		})
	case dto.GrantRefreshToken:
		return c.service.RefreshAccessToken(ctx, svc.RefreshInput{
			RefreshToken: req.RefreshToken,
			ClientID:     req.ClientID,
			ClientSecret: req.ClientSecret,
		})
	}
	return nil, oerr.Errorf(oerr.UnsupportedGrantType, "grant_type %q is not supported", req.GrantType)
}

func (c *TokenController) fail(w http.ResponseWriter, err error, basicUsed bool) {
	c.metrics.OAuthError("token", string(oerr.KindOf(err)))
	httperrors.WriteJSON(w, err, basicUsed)
}

// mergeBasicAuth toma client_id/secret de Authorization: Basic (RFC 6749
// §2.3.1, valores form-urlencoded). Usar ambos mecanismos a la vez es
// invalid_request.
func mergeBasicAuth(r *http.Request, req *dto.TokenRequest) (bool, error) {
	user, pass, ok := r.BasicAuth()
	if !ok {
		return false, nil
	}
	if req.ClientSecret != "" {
		return true, oerr.New(oerr.InvalidRequest, "multiple client authentication methods")
	}
	id, err1 := url.QueryUnescape(user)
	secret, err2 := url.QueryUnescape(pass)
	if err1 != nil || err2 != nil {
		return true, oerr.New(oerr.InvalidClient, "malformed basic credentials")
	}
	if req.ClientID != "" && req.ClientID != id {
		return true, oerr.New(oerr.InvalidRequest, "client_id does not match basic credentials")
	}
	req.ClientID = id
	req.ClientSecret = secret
	return true, nil
}
