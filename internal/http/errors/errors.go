// Package errors traduce *oauth.Error a la respuesta HTTP: JSON en los
// endpoints back-channel, redirect en /oauth/authorize.
package errors

import (
	"encoding/json"
	"net/http"
	"net/url"

	dto "github.com/dropDatabas3/campauth/internal/http/dto/oauth"
	oerr "github.com/dropDatabas3/campauth/internal/domain/oauth"
)

// WriteJSON escribe {error, error_description} con el status del kind.
// Con basicAuth=true un invalid_client agrega WWW-Authenticate (RFC 6749 §5.2).
// Los server_error nunca exponen la causa.
func WriteJSON(w http.ResponseWriter, err error, basicAuth bool) {
	e := oerr.As(err)
	desc := e.Description
	if e.Kind == oerr.ServerError {
		desc = "internal server error"
	}

	status := e.Kind.HTTPStatus()
	if status == http.StatusUnauthorized && basicAuth {
		w.Header().Set("WWW-Authenticate", `Basic realm="oauth"`)
	}
	if e.Kind == oerr.InvalidToken {
		w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token"`)
	}
	writeJSON(w, status, dto.ErrorResponse{Error: string(e.Kind), ErrorDescription: desc})
}

// Redirect envía el error al redirect_uri del client (RFC 6749 §4.1.2.1).
// Solo debe llamarse con un redirect_uri ya validado.
func Redirect(w http.ResponseWriter, r *http.Request, redirectURI string, err error, state string) {
	e := oerr.As(err)
	desc := e.Description
	if e.Kind == oerr.ServerError {
		desc = "internal server error"
	}
	params := url.Values{}
	params.Set("error", string(e.Kind))
	if desc != "" {
		params.Set("error_description", desc)
	}
	if state != "" {
		params.Set("state", state)
	}
	w.Header().Set("Cache-Control", "no-store")
	http.Redirect(w, r, AppendQuery(redirectURI, params), http.StatusFound)
}

// AppendQuery mezcla params con la query existente de u.
func AppendQuery(u string, params url.Values) string {
	parsed, err := url.Parse(u)
	if err != nil {
		return u
	}
	q := parsed.Query()
	for k, vs := range params {
		for _, v := range vs {
			q.Set(k, v)
		}
	}
	parsed.RawQuery = q.Encode()
	return parsed.String()
}

// WriteOK serializa v como JSON con status 200.
func WriteOK(w http.ResponseWriter, v any) {
	writeJSON(w, http.StatusOK, v)
}

// WriteStatus serializa v con el status dado.
func WriteStatus(w http.ResponseWriter, status int, v any) {
	writeJSON(w, status, v)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Pragma", "no-cache")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteRateLimited responde 429 con el cuerpo OAuth de err.
func WriteRateLimited(w http.ResponseWriter, err error) {
	e := oerr.As(err)
	writeJSON(w, http.StatusTooManyRequests, dto.ErrorResponse{Error: string(e.Kind), ErrorDescription: e.Description})
}

// WriteInsufficientScope responde 403 (RFC 6750 §3.1).
func WriteInsufficientScope(w http.ResponseWriter, scope string) {
	w.Header().Set("WWW-Authenticate", `Bearer error="insufficient_scope", scope="`+scope+`"`)
	writeJSON(w, http.StatusForbidden, dto.ErrorResponse{
		Error:            "insufficient_scope",
		ErrorDescription: "token lacks required scope " + scope,
	})
}
