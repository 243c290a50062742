package oauth

import (
	"net/http"
	"strings"

	dto "github.com/dropDatabas3/campauth/internal/http/dto/oauth"
	httperrors "github.com/dropDatabas3/campauth/internal/http/errors"
	svc "github.com/dropDatabas3/campauth/internal/http/services/oauth"
	"github.com/dropDatabas3/campauth/internal/security/pkce"
)

// DiscoveryController sirve el documento estático de metadata.
type DiscoveryController struct {
	doc dto.DiscoveryResponse
}

func NewDiscoveryController(issuer string) *DiscoveryController {
	base := strings.TrimRight(issuer, "/")
	return &DiscoveryController{doc: dto.DiscoveryResponse{
		Issuer:                            issuer,
		AuthorizationEndpoint:             base + "/oauth/authorize",
		TokenEndpoint:                     base + "/oauth/token",
		RevocationEndpoint:                base + "/oauth/revoke",
		IntrospectionEndpoint:             base + "/oauth/introspect",
		ResponseTypesSupported:            []string{"code"},
		GrantTypesSupported:               svc.SupportedGrantTypes,
		ScopesSupported:                   svc.DefaultScopes,
		CodeChallengeMethodsSupported:     pkce.SupportedMethods,
		TokenEndpointAuthMethodsSupported: []string{"client_secret_post", "client_secret_basic", "none"},
	}}
}

func (c *DiscoveryController) Get(w http.ResponseWriter, r *http.Request) {
	httperrors.WriteOK(w, c.doc)
}
