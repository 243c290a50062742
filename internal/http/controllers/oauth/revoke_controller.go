package oauth

import (
	"net/http"
	"strings"

	oerr "github.com/dropDatabas3/campauth/internal/domain/oauth"
	dto "github.com/dropDatabas3/campauth/internal/http/dto/oauth"
	httperrors "github.com/dropDatabas3/campauth/internal/http/errors"
	svc "github.com/dropDatabas3/campauth/internal/http/services/oauth"
	"github.com/dropDatabas3/campauth/internal/metrics"
	"github.com/dropDatabas3/campauth/internal/observability/logger"
)

const maxRevokeBodySize = 32 << 10

// RevokeController handles POST /oauth/revoke.
type RevokeController struct {
	service svc.TokenService
	metrics *metrics.Metrics
}

func NewRevokeController(s svc.TokenService, m *metrics.Metrics) *RevokeController {
	return &RevokeController{service: s, metrics: m}
}

// Revoke responde 200 con body vacío aunque el token no exista o falte
// (RFC 7009 §2.2). Solo una falla del store devuelve server_error.
func (c *RevokeController) Revoke(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("RevokeController.Revoke"))

	r.Body = http.MaxBytesReader(w, r.Body, maxRevokeBodySize)
	if err := r.ParseForm(); err != nil {
		log.Debug("revoke: unreadable form", logger.Err(err))
	}
	req := dto.RevokeRequest{
		Token:         strings.TrimSpace(r.PostForm.Get("token")),
		TokenTypeHint: strings.TrimSpace(r.PostForm.Get("token_type_hint")),
	}
	if err := req.Validate(); err != nil {
		log.Debug("revoke without token")
		w.WriteHeader(http.StatusOK)
		return
	}

	if err := c.service.RevokeToken(ctx, req.Token, req.TokenTypeHint); err != nil {
		log.Error("revoke failed", logger.Err(err))
		c.metrics.OAuthError("revoke", string(oerr.KindOf(err)))
		httperrors.WriteJSON(w, err, false)
		return
	}
	w.WriteHeader(http.StatusOK)
}
