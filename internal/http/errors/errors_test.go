package errors

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	oerr "github.com/dropDatabas3/campauth/internal/domain/oauth"
)

func TestWriteJSON(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		basic      bool
		wantStatus int
		wantCode   string
		wantDesc   string
		wantAuth   string
	}{
		{"invalid_grant", oerr.New(oerr.InvalidGrant, "code expired"), false, 400, "invalid_grant", "code expired", ""},
		{"invalid_client basic", oerr.New(oerr.InvalidClient, "bad secret"), true, 401, "invalid_client", "bad secret", `Basic realm="oauth"`},
		{"invalid_client form", oerr.New(oerr.InvalidClient, "bad secret"), false, 401, "invalid_client", "bad secret", ""},
		{"server error hides cause", oerr.Wrap(oerr.ServerError, "db down: host=10.0.0.1", errors.New("x")), false, 500, "server_error", "internal server error", ""},
		{"plain error", errors.New("boom"), false, 500, "server_error", "internal server error", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			WriteJSON(rec, tt.err, tt.basic)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
			assert.Equal(t, tt.wantAuth, rec.Header().Get("WWW-Authenticate"))

			var body map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.wantCode, body["error"])
			assert.Equal(t, tt.wantDesc, body["error_description"])
		})
	}
}

func TestRedirect(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/oauth/authorize", nil)
	Redirect(rec, req, "https://app.test/cb?keep=1", oerr.New(oerr.InvalidScope, "nope"), "xyz")

	assert.Equal(t, http.StatusFound, rec.Code)
	loc, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, "app.test", loc.Host)
	assert.Equal(t, "1", loc.Query().Get("keep"))
	assert.Equal(t, "invalid_scope", loc.Query().Get("error"))
	assert.Equal(t, "nope", loc.Query().Get("error_description"))
	assert.Equal(t, "xyz", loc.Query().Get("state"))
}
