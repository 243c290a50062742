package oauth

import (
	"crypto/subtle"
	"net/http"
	"strings"

	oerr "github.com/dropDatabas3/campauth/internal/domain/oauth"
	dto "github.com/dropDatabas3/campauth/internal/http/dto/oauth"
	httperrors "github.com/dropDatabas3/campauth/internal/http/errors"
	svc "github.com/dropDatabas3/campauth/internal/http/services/oauth"
	"github.com/dropDatabas3/campauth/internal/metrics"
	"github.com/dropDatabas3/campauth/internal/observability/logger"
)

const maxIntrospectBodySize = 32 << 10

// IntrospectController handles POST /oauth/introspect (RFC 7662).
type IntrospectController struct {
	service svc.TokenService
	metrics *metrics.Metrics
	user    string
	pass    string
}

func NewIntrospectController(s svc.TokenService, m *metrics.Metrics, user, pass string) *IntrospectController {
	return &IntrospectController{service: s, metrics: m, user: user, pass: pass}
}

func (c *IntrospectController) Introspect(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("IntrospectController.Introspect"))

	if !c.authorized(r) {
		c.metrics.OAuthError("introspect", string(oerr.InvalidClient))
		httperrors.WriteJSON(w, oerr.New(oerr.InvalidClient, "introspection requires authentication"), true)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxIntrospectBodySize)
	if err := r.ParseForm(); err != nil {
		c.metrics.OAuthError("introspect", string(oerr.InvalidRequest))
		httperrors.WriteJSON(w, oerr.New(oerr.InvalidRequest, "invalid form body"), false)
		return
	}
	token := strings.TrimSpace(r.PostForm.Get("token"))

	res, err := c.service.IntrospectToken(ctx, token)
	if err != nil {
		log.Error("introspect failed", logger.Err(err))
		c.metrics.OAuthError("introspect", string(oerr.KindOf(err)))
		httperrors.WriteJSON(w, err, false)
		return
	}
	httperrors.WriteOK(w, dto.IntrospectResponse{
		Active:    res.Active,
		Scope:     res.Scope,
		ClientID:  res.ClientID,
		TokenType: res.TokenType,
		Exp:       res.Exp,
		Iat:       res.Iat,
		Sub:       res.Sub,
		Aud:       res.Aud,
		Iss:       res.Iss,
		TenantID:  res.TenantID,
	})
}

func (c *IntrospectController) authorized(r *http.Request) bool {
	if c.user == "" && c.pass == "" {
		return true
	}
	u, p, ok := r.BasicAuth()
	if !ok {
		return false
	}
	uok := subtle.ConstantTimeCompare([]byte(u), []byte(c.user)) == 1
	pok := subtle.ConstantTimeCompare([]byte(p), []byte(c.pass)) == 1
	return uok && pok
}
