// Package oauth contiene los controllers de /oauth/*.
package oauth

import (
	svc "github.com/dropDatabas3/campauth/internal/http/services/oauth"
	"github.com/dropDatabas3/campauth/internal/metrics"
)

// Deps agrupa lo que necesitan los controllers OAuth.
type Deps struct {
	Service svc.TokenService
	Metrics *metrics.Metrics // opcional
	Issuer  string

	// Basic auth opcional para /oauth/introspect; vacío = sin guard.
	IntrospectUser string
	IntrospectPass string
}

// Controllers agrupa los controllers OAuth.
type Controllers struct {
	Authorize  *AuthorizeController
	Token      *TokenController
	Revoke     *RevokeController
	Introspect *IntrospectController
	Discovery  *DiscoveryController
	TokenInfo  *TokenInfoController
}

// NewControllers crea el set completo.
func NewControllers(d Deps) *Controllers {
	return &Controllers{
		Authorize:  NewAuthorizeController(d.Service, d.Metrics),
		Token:      NewTokenController(d.Service, d.Metrics),
		Revoke:     NewRevokeController(d.Service, d.Metrics),
		Introspect: NewIntrospectController(d.Service, d.Metrics, d.IntrospectUser, d.IntrospectPass),
		Discovery:  NewDiscoveryController(d.Issuer),
		TokenInfo:  NewTokenInfoController(),
	}
}
