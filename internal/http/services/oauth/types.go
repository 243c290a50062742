package oauth

import "slices"

// ClientCredentialsInput contains parameters for client_credentials.
type ClientCredentialsInput struct {
	ClientID     string
	ClientSecret string
	Scope        string // space separated, optional
}

// AuthorizeInput contains parameters for code generation.
type AuthorizeInput struct {
	ClientID            string
	RedirectURI         string
	Scope               string
	UserID              string // identidad ya autenticada
	CodeChallenge       string
	CodeChallengeMethod string
}

// ExchangeCodeInput contains parameters for authorization_code.
type ExchangeCodeInput struct {
	Code         string
	ClientID     string
	ClientSecret string
	RedirectURI  string
	CodeVerifier string
}

// RefreshInput contains parameters for refresh_token.
// ClientID y ClientSecret son opcionales; si vienen, deben coincidir.
type RefreshInput struct {
	RefreshToken string
	ClientID     string
	ClientSecret string
}

// TokenResult es lo que se entrega al client una única vez.
type TokenResult struct {
	AccessToken  string
	RefreshToken string
	TokenType    string
	ExpiresIn    int64
	Scope        string
	TenantID     string
}

// IntrospectResult sigue RFC 7662. Con Active=false el resto va vacío.
type IntrospectResult struct {
	Active    bool
	Scope     string
	ClientID  string
	Exp       int64
	Iat       int64
	Sub       string
	Aud       string
	Iss       string
	TokenType string
	TenantID  string
}

// ValidationResult es la vista para resource servers.
type ValidationResult struct {
	Valid    bool     `json:"valid"`
	TokenID  string   `json:"token_id,omitempty"`
	ClientID string   `json:"client_id,omitempty"`
	TenantID string   `json:"tenant_id,omitempty"`
	Scopes   []string `json:"scopes,omitempty"`
	UserID   string   `json:"user_id,omitempty"`
}

// HasScope reporta si el token validado incluye scope.
func (v *ValidationResult) HasScope(scope string) bool {
	return slices.Contains(v.Scopes, scope)
}

// RegisterClientInput contains parameters for client registration.
// IsConfidential nil significa true.
type RegisterClientInput struct {
	TenantID       string
	Name           string
	RedirectURIs   []string
	Scopes         []string
	GrantTypes     []string
	IsConfidential *bool
}

// RegisteredClient incluye el secret crudo (solo en este response).
type RegisteredClient struct {
	ID             string   `json:"id"`
	ClientID       string   `json:"client_id"`
	ClientSecret   string   `json:"client_secret,omitempty"`
	Name           string   `json:"name"`
	TenantID       string   `json:"tenant_id"`
	RedirectURIs   []string `json:"redirect_uris"`
	Scopes         []string `json:"scopes"`
	GrantTypes     []string `json:"grant_types"`
	IsConfidential bool     `json:"is_confidential"`
}

// RotatedSecret es el resultado de RotateClientSecret.
type RotatedSecret struct {
	ClientID      string `json:"client_id"`
	ClientSecret  string `json:"client_secret"`
	RevokedTokens int    `json:"revoked_tokens"`
}
