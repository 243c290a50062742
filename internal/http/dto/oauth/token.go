// Package oauth contiene los DTOs de los endpoints /oauth/*.
package oauth

import (
	oerr "github.com/dropDatabas3/campauth/internal/domain/oauth"
)

// Grant types aceptados en POST /oauth/token.
const (
	GrantClientCredentials = "client_credentials"
	GrantAuthorizationCode = "authorization_code"
	GrantRefreshToken      = "refresh_token"
)

// TokenRequest es el form de POST /oauth/token (application/x-www-form-urlencoded).
// ClientID/ClientSecret pueden venir por Basic auth; el controller los mezcla antes de Validate.
type TokenRequest struct {
	GrantType    string
	ClientID     string
	ClientSecret string
	Scope        string
	Code         string
	RedirectURI  string
	CodeVerifier string
	RefreshToken string
}

// Validate chequea los parámetros obligatorios de cada grant.
// Un grant_type desconocido es unsupported_grant_type.
func (r TokenRequest) Validate() error {
	switch r.GrantType {
	case "":
		return missing("grant_type")
	case GrantClientCredentials:
		if r.ClientID == "" {
			return missing("client_id")
		}
		if r.ClientSecret == "" {
			return missing("client_secret")
		}
	case GrantAuthorizationCode:
		if r.Code == "" {
			return missing("code")
		}
		if r.RedirectURI == "" {
			return missing("redirect_uri")
		}
		if r.ClientID == "" {
			return missing("client_id")
		}
	case GrantRefreshToken:
		if r.RefreshToken == "" {
			return missing("refresh_token")
		}
	default:
		return oerr.Errorf(oerr.UnsupportedGrantType, "grant_type %q is not supported", r.GrantType)
	}
	return nil
}

// TokenResponse sigue RFC 6749 §5.1; tenant_id es una extensión.
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
	RefreshToken string `json:"refresh_token,omitempty"`
	Scope        string `json:"scope,omitempty"`
	TenantID     string `json:"tenant_id,omitempty"`
}

// ErrorResponse es el cuerpo de error OAuth (RFC 6749 §5.2).
type ErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description,omitempty"`
}

func missing(field string) error {
	return oerr.Errorf(oerr.InvalidRequest, "missing required parameter: %s", field)
}
