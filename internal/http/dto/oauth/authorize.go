package oauth

import (
	"net/url"

	oerr "github.com/dropDatabas3/campauth/internal/domain/oauth"
)

// AuthorizeRequest son los query params de GET /oauth/authorize.
type AuthorizeRequest struct {
	ResponseType        string
	ClientID            string
	RedirectURI         string
	Scope               string
	State               string
	CodeChallenge       string
	CodeChallengeMethod string
}

// ParsedRedirect valida que redirect_uri exista y sea absoluto. Hasta que
// esto pase, ningún error puede ir por redirect.
func (r AuthorizeRequest) ParsedRedirect() (*url.URL, error) {
	if r.RedirectURI == "" {
		return nil, missing("redirect_uri")
	}
	u, err := url.Parse(r.RedirectURI)
	if err != nil || !u.IsAbs() || u.Host == "" {
		return nil, oerr.New(oerr.InvalidRequest, "redirect_uri must be an absolute URI")
	}
	return u, nil
}

// Validate chequea el resto de parámetros (después de redirect_uri).
func (r AuthorizeRequest) Validate() error {
	if r.ClientID == "" {
		return missing("client_id")
	}
	if r.ResponseType == "" {
		return missing("response_type")
	}
	if r.ResponseType != "code" {
		return oerr.Errorf(oerr.UnsupportedResponseType, "response_type %q is not supported", r.ResponseType)
	}
	return nil
}
