package oauth

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/dropDatabas3/campauth/internal/cache"
	mw "github.com/dropDatabas3/campauth/internal/http/middlewares"
	svc "github.com/dropDatabas3/campauth/internal/http/services/oauth"
	"github.com/dropDatabas3/campauth/internal/security/secret"
	"github.com/dropDatabas3/campauth/internal/store/memory"
)

const redirect = "https://app.example.com/cb"

type env struct {
	svc  *svc.Service
	ctrl *Controllers
	conf *svc.RegisteredClient
	pub  *svc.RegisteredClient
}

func newEnv(t *testing.T) *env {
	t.Helper()
	st := memory.New()
	s := svc.NewService(svc.Deps{
		Clients: st.Clients(),
		Tokens:  st.Tokens(),
		Codes:   cache.NewMemoryStore(svc.DefaultCodeTTL, 0),
		Hasher:  secret.NewHasher(bcrypt.MinCost),
		Config:  svc.Config{Issuer: "https://auth.test"},
	})
	ctx := context.Background()
	conf, err := s.RegisterClient(ctx, svc.RegisterClientInput{TenantID: "camp-1", Name: "PMS", RedirectURIs: []string{redirect}})
	require.NoError(t, err)
	f := false
	pub, err := s.RegisterClient(ctx, svc.RegisterClientInput{TenantID: "camp-1", Name: "App", RedirectURIs: []string{redirect}, IsConfidential: &f})
	require.NoError(t, err)
	return &env{
		svc:  s,
		ctrl: NewControllers(Deps{Service: s, Issuer: "https://auth.test"}),
		conf: conf,
		pub:  pub,
	}
}

func postForm(h http.HandlerFunc, path string, form url.Values, mut ...func(*http.Request)) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	for _, m := range mut {
		m(req)
	}
	rec := httptest.NewRecorder()
	h(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestToken_ClientCredentials(t *testing.T) {
	e := newEnv(t)

	rec := postForm(e.ctrl.Token.Token, "/oauth/token", url.Values{
		"grant_type":    {"client_credentials"},
		"client_id":     {e.conf.ClientID},
		"client_secret": {e.conf.ClientSecret},
		"scope":         {"reservations:read bogus:scope"},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))

	body := decode(t, rec)
	assert.Equal(t, "Bearer", body["token_type"])
	assert.Equal(t, float64(3600), body["expires_in"])
	assert.Equal(t, "reservations:read", body["scope"])
	assert.Equal(t, "camp-1", body["tenant_id"])
	assert.NotEmpty(t, body["access_token"])
	assert.NotEmpty(t, body["refresh_token"])
}

func TestToken_BasicAuth(t *testing.T) {
	e := newEnv(t)

	rec := postForm(e.ctrl.Token.Token, "/oauth/token", url.Values{"grant_type": {"client_credentials"}},
		func(r *http.Request) { r.SetBasicAuth(e.conf.ClientID, e.conf.ClientSecret) })
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = postForm(e.ctrl.Token.Token, "/oauth/token", url.Values{"grant_type": {"client_credentials"}},
		func(r *http.Request) { r.SetBasicAuth(e.conf.ClientID, "wrong") })
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, `Basic realm="oauth"`, rec.Header().Get("WWW-Authenticate"))
	assert.Equal(t, "invalid_client", decode(t, rec)["error"])
}

func TestToken_Errors(t *testing.T) {
	e := newEnv(t)
	tests := []struct {
		name   string
		form   url.Values
		status int
		code   string
	}{
		{"unsupported grant", url.Values{"grant_type": {"password"}}, 400, "unsupported_grant_type"},
		{"missing grant", url.Values{}, 400, "invalid_request"},
		{"missing code", url.Values{"grant_type": {"authorization_code"}, "client_id": {"x"}}, 400, "invalid_request"},
		{"bad secret", url.Values{"grant_type": {"client_credentials"}, "client_id": {e.conf.ClientID}, "client_secret": {"nope"}}, 401, "invalid_client"},
		{"unknown refresh", url.Values{"grant_type": {"refresh_token"}, "refresh_token": {"abc"}}, 400, "invalid_grant"},
		{"bad scope", url.Values{"grant_type": {"client_credentials"}, "client_id": {e.conf.ClientID}, "client_secret": {e.conf.ClientSecret}, "scope": {"x:y"}}, 400, "invalid_scope"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := postForm(e.ctrl.Token.Token, "/oauth/token", tt.form)
			assert.Equal(t, tt.status, rec.Code)
			body := decode(t, rec)
			assert.Equal(t, tt.code, body["error"])
			assert.NotEmpty(t, body["error_description"])
		})
	}
}

func authorizeReq(userID string, q url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/oauth/authorize?"+q.Encode(), nil)
	if userID != "" {
		req = req.WithContext(mw.WithUserID(req.Context(), userID))
	}
	return req
}

func challenge(v string) string {
	sum := sha256.Sum256([]byte(v))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

func TestAuthorize_FullPKCEFlow(t *testing.T) {
	e := newEnv(t)

	rec := httptest.NewRecorder()
	e.ctrl.Authorize.Authorize(rec, authorizeReq("guest-9", url.Values{
		"response_type":         {"code"},
		"client_id":             {e.pub.ClientID},
		"redirect_uri":          {redirect},
		"scope":                 {"reservations:read"},
		"state":                 {"s-123"},
		"code_challenge":        {challenge("verifier123")},
		"code_challenge_method": {"S256"},
		"nonce":                 {"ignored"},
	}))
	require.Equal(t, http.StatusFound, rec.Code, rec.Body.String())

	loc, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, "app.example.com", loc.Host)
	assert.Equal(t, "s-123", loc.Query().Get("state"))
	code := loc.Query().Get("code")
	require.Len(t, code, 64)

	exchange := url.Values{
		"grant_type":    {"authorization_code"},
		"code":          {code},
		"client_id":     {e.pub.ClientID},
		"redirect_uri":  {redirect},
		"code_verifier": {"verifier123"},
	}
	tok := postForm(e.ctrl.Token.Token, "/oauth/token", exchange)
	require.Equal(t, http.StatusOK, tok.Code, tok.Body.String())
	body := decode(t, tok)

	again := postForm(e.ctrl.Token.Token, "/oauth/token", exchange)
	assert.Equal(t, http.StatusBadRequest, again.Code)
	assert.Equal(t, "invalid_grant", decode(t, again)["error"])

	in := postForm(e.ctrl.Introspect.Introspect, "/oauth/introspect", url.Values{"token": {body["access_token"].(string)}})
	require.Equal(t, http.StatusOK, in.Code)
	ib := decode(t, in)
	assert.Equal(t, true, ib["active"])
	assert.Equal(t, "guest-9", ib["sub"])
	assert.Equal(t, "reservations:read", ib["scope"])
}

func TestAuthorize_Errors(t *testing.T) {
	e := newEnv(t)
	base := func() url.Values {
		return url.Values{
			"response_type":  {"code"},
			"client_id":      {e.pub.ClientID},
			"redirect_uri":   {redirect},
			"state":          {"st"},
			"code_challenge": {challenge("v")},
		}
	}

	t.Run("unauthenticated", func(t *testing.T) {
		rec := httptest.NewRecorder()
		e.ctrl.Authorize.Authorize(rec, authorizeReq("", base()))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "access_denied", decode(t, rec)["error"])
	})

	t.Run("unparseable redirect", func(t *testing.T) {
		q := base()
		q.Set("redirect_uri", "::not a uri")
		rec := httptest.NewRecorder()
		e.ctrl.Authorize.Authorize(rec, authorizeReq("u", q))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Empty(t, rec.Header().Get("Location"))
	})

	t.Run("unregistered redirect never redirects", func(t *testing.T) {
		q := base()
		q.Set("redirect_uri", "https://evil.test/cb")
		rec := httptest.NewRecorder()
		e.ctrl.Authorize.Authorize(rec, authorizeReq("u", q))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Empty(t, rec.Header().Get("Location"))
	})

	t.Run("unknown client", func(t *testing.T) {
		q := base()
		q.Set("client_id", "cl_missing")
		rec := httptest.NewRecorder()
		e.ctrl.Authorize.Authorize(rec, authorizeReq("u", q))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "invalid_client", decode(t, rec)["error"])
	})

	redirected := func(t *testing.T, q url.Values) url.Values {
		t.Helper()
		rec := httptest.NewRecorder()
		e.ctrl.Authorize.Authorize(rec, authorizeReq("u", q))
		require.Equal(t, http.StatusFound, rec.Code, rec.Body.String())
		loc, err := url.Parse(rec.Header().Get("Location"))
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(loc.String(), redirect))
		return loc.Query()
	}

	t.Run("unsupported response_type", func(t *testing.T) {
		q := base()
		q.Set("response_type", "token")
		got := redirected(t, q)
		assert.Equal(t, "unsupported_response_type", got.Get("error"))
		assert.Equal(t, "st", got.Get("state"))
	})

	t.Run("public client without pkce", func(t *testing.T) {
		q := base()
		q.Del("code_challenge")
		got := redirected(t, q)
		assert.Equal(t, "invalid_request", got.Get("error"))
		assert.Equal(t, "st", got.Get("state"))
	})

	t.Run("invalid scope", func(t *testing.T) {
		q := base()
		q.Set("scope", "nope:nope")
		got := redirected(t, q)
		assert.Equal(t, "invalid_scope", got.Get("error"))
	})
}

func TestRevoke(t *testing.T) {
	e := newEnv(t)
	res, err := e.svc.IssueClientCredentialsToken(context.Background(), svc.ClientCredentialsInput{
		ClientID: e.conf.ClientID, ClientSecret: e.conf.ClientSecret,
	})
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		rec := postForm(e.ctrl.Revoke.Revoke, "/oauth/revoke", url.Values{"token": {res.AccessToken}})
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Empty(t, rec.Body.String())
	}

	rec := postForm(e.ctrl.Revoke.Revoke, "/oauth/revoke", url.Values{"token": {"unknown"}, "token_type_hint": {"refresh_token"}})
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = postForm(e.ctrl.Revoke.Revoke, "/oauth/revoke", url.Values{})
	assert.Equal(t, http.StatusOK, rec.Code)

	in := postForm(e.ctrl.Introspect.Introspect, "/oauth/introspect", url.Values{"token": {res.AccessToken}})
	assert.Equal(t, map[string]any{"active": false}, decode(t, in))
}

func TestIntrospect_BasicGuard(t *testing.T) {
	e := newEnv(t)
	c := NewIntrospectController(e.svc, nil, "rs", "s3cret")

	rec := postForm(c.Introspect, "/oauth/introspect", url.Values{"token": {"x"}})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = postForm(c.Introspect, "/oauth/introspect", url.Values{"token": {"x"}},
		func(r *http.Request) { r.SetBasicAuth("rs", "s3cret") })
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, false, decode(t, rec)["active"])
}

func TestDiscovery(t *testing.T) {
	c := NewDiscoveryController("https://auth.test/")
	rec := httptest.NewRecorder()
	c.Get(rec, httptest.NewRequest(http.MethodGet, "/oauth/.well-known/openid-configuration", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode(t, rec)
	assert.Equal(t, "https://auth.test/", body["issuer"])
	assert.Equal(t, "https://auth.test/oauth/token", body["token_endpoint"])
	assert.Equal(t, "https://auth.test/oauth/introspect", body["introspection_endpoint"])
	assert.Equal(t, []any{"code"}, body["response_types_supported"])
	assert.Equal(t, []any{"S256", "plain"}, body["code_challenge_methods_supported"])
	assert.Len(t, body["scopes_supported"], len(svc.DefaultScopes))
}
