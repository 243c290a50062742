package oauth

// IntrospectResponse es la respuesta RFC 7662. Con active=false solo se
// serializa "active".
type IntrospectResponse struct {
	Active    bool   `json:"active"`
	Scope     string `json:"scope,omitempty"`
	ClientID  string `json:"client_id,omitempty"`
	TokenType string `json:"token_type,omitempty"`
	Exp       int64  `json:"exp,omitempty"`
	Iat       int64  `json:"iat,omitempty"`
	Sub       string `json:"sub,omitempty"`
	Aud       string `json:"aud,omitempty"`
	Iss       string `json:"iss,omitempty"`
	TenantID  string `json:"tenant_id,omitempty"`
}

// TokenInfoResponse es lo que GET /oauth/tokeninfo devuelve al resource server.
type TokenInfoResponse struct {
	Active   bool     `json:"active"`
	ClientID string   `json:"client_id"`
	TenantID string   `json:"tenant_id"`
	Scopes   []string `json:"scopes"`
	Sub      string   `json:"sub,omitempty"`
}
