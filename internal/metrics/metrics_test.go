package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounters(t *testing.T) {
	m, err := New(prometheus.NewRegistry())
	require.NoError(t, err)

	m.TokenIssued("client_credentials")
	m.TokenIssued("client_credentials")
	m.OAuthError("token", "invalid_grant")
	m.TokensRevoked("secret_rotation", 2)
	m.CodeIssued()
	m.CodeRedeemed("ok")
	m.CodesSwept(0)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.tokensIssued.WithLabelValues("client_credentials")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.oauthErrors.WithLabelValues("token", "invalid_grant")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.tokensRevoked.WithLabelValues("secret_rotation")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.codesIssued))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.codesSwept))
}

func TestNilReceiverIsSafe(t *testing.T) {
	var m *Metrics
	m.TokenIssued("x")
	m.OAuthError("x", "y")
	m.CodeIssued()
	h := m.Instrument(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusTeapot, rr.Code)
}

func TestInstrumentAndHandler(t *testing.T) {
	m, err := New(nil)
	require.NoError(t, err)

	h := m.Instrument(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/oauth/token", nil))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/random/123", nil))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.httpRequests.WithLabelValues("POST", "/oauth/token", "201")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.httpRequests.WithLabelValues("GET", "other", "201")))

	rr := httptest.NewRecorder()
	m.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.True(t, strings.Contains(rr.Body.String(), "http_requests_total"))
}
