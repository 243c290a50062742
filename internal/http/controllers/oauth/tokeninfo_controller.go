package oauth

import (
	"net/http"

	oerr "github.com/dropDatabas3/campauth/internal/domain/oauth"
	dto "github.com/dropDatabas3/campauth/internal/http/dto/oauth"
	httperrors "github.com/dropDatabas3/campauth/internal/http/errors"
	mw "github.com/dropDatabas3/campauth/internal/http/middlewares"
)

// TokenInfoController handles GET /oauth/tokeninfo. Va detrás de
// RequireAccessToken, que deja la validación en el contexto.
type TokenInfoController struct{}

func NewTokenInfoController() *TokenInfoController { return &TokenInfoController{} }

func (c *TokenInfoController) Get(w http.ResponseWriter, r *http.Request) {
	v := mw.GetValidation(r.Context())
	if v == nil {
		httperrors.WriteJSON(w, oerr.New(oerr.InvalidToken, "missing bearer token"), false)
		return
	}
	sub := v.UserID
	if sub == "" {
		sub = v.ClientID
	}
	httperrors.WriteOK(w, dto.TokenInfoResponse{
		Active:   true,
		ClientID: v.ClientID,
		TenantID: v.TenantID,
		Scopes:   v.Scopes,
		Sub:      sub,
	})
}
