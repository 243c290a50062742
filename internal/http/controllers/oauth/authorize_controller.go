package oauth

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	oerr "github.com/dropDatabas3/campauth/internal/domain/oauth"
	dto "github.com/dropDatabas3/campauth/internal/http/dto/oauth"
	httperrors "github.com/dropDatabas3/campauth/internal/http/errors"
	mw "github.com/dropDatabas3/campauth/internal/http/middlewares"
	svc "github.com/dropDatabas3/campauth/internal/http/services/oauth"
	"github.com/dropDatabas3/campauth/internal/metrics"
	"github.com/dropDatabas3/campauth/internal/observability/logger"
)

// AuthorizeController handles GET /oauth/authorize.
type AuthorizeController struct {
	service svc.TokenService
	metrics *metrics.Metrics
}

func NewAuthorizeController(s svc.TokenService, m *metrics.Metrics) *AuthorizeController {
	return &AuthorizeController{service: s, metrics: m}
}

// Authorize emite un code para el usuario ya autenticado upstream.
// Errores antes de validar client + redirect_uri van como JSON; después,
// siempre por redirect con state.
func (c *AuthorizeController) Authorize(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("AuthorizeController.Authorize"))

	w.Header().Add("Vary", "Authorization")
	w.Header().Add("Vary", "Cookie")

	userID := mw.GetUserID(ctx)
	if userID == "" {
		c.fail(w, oerr.New(oerr.AccessDenied, "authenticated user required"))
		return
	}

	q := r.URL.Query()
	req := dto.AuthorizeRequest{
		ResponseType:        strings.TrimSpace(q.Get("response_type")),
		ClientID:            strings.TrimSpace(q.Get("client_id")),
		RedirectURI:         strings.TrimSpace(q.Get("redirect_uri")),
		Scope:               strings.TrimSpace(q.Get("scope")),
		State:               q.Get("state"),
		CodeChallenge:       strings.TrimSpace(q.Get("code_challenge")),
		CodeChallengeMethod: strings.TrimSpace(q.Get("code_challenge_method")),
	}

	if _, err := req.ParsedRedirect(); err != nil {
		c.fail(w, err)
		return
	}
	if err := c.service.CheckRedirect(ctx, req.ClientID, req.RedirectURI); err != nil {
		if oerr.KindOf(err) == oerr.ServerError {
			log.Error("redirect check failed", logger.Err(err))
		}
		c.fail(w, err)
		return
	}

	if err := req.Validate(); err != nil {
		c.redirectError(w, r, req, err)
		return
	}

	code, err := c.service.GenerateAuthorizationCode(ctx, svc.AuthorizeInput{
		ClientID:            req.ClientID,
		RedirectURI:         req.RedirectURI,
		Scope:               req.Scope,
		UserID:              userID,
		CodeChallenge:       req.CodeChallenge,
		CodeChallengeMethod: req.CodeChallengeMethod,
	})
	if err != nil {
		// carrera: el client pudo desactivarse entre CheckRedirect y acá
		if errors.Is(err, svc.ErrUnregisteredRedirect) || oerr.KindOf(err) == oerr.InvalidClient {
			c.fail(w, err)
			return
		}
		if oerr.KindOf(err) == oerr.ServerError {
			log.Error("authorize failed", logger.Err(err))
		}
		c.redirectError(w, r, req, err)
		return
	}

	params := url.Values{"code": {code}}
	if req.State != "" {
		params.Set("state", req.State)
	}
	http.Redirect(w, r, httperrors.AppendQuery(req.RedirectURI, params), http.StatusFound)
}

func (c *AuthorizeController) fail(w http.ResponseWriter, err error) {
	c.metrics.OAuthError("authorize", string(oerr.KindOf(err)))
	httperrors.WriteJSON(w, err, false)
}

func (c *AuthorizeController) redirectError(w http.ResponseWriter, r *http.Request, req dto.AuthorizeRequest, err error) {
	c.metrics.OAuthError("authorize", string(oerr.KindOf(err)))
	httperrors.Redirect(w, r, req.RedirectURI, err, req.State)
}
