package middlewares

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/netip"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	svc "github.com/dropDatabas3/campauth/internal/http/services/oauth"
	"github.com/dropDatabas3/campauth/internal/rate"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func TestChainOrder(t *testing.T) {
	var order []string
	mk := func(name string) Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}
	h := Chain(okHandler, mk("a"), mk("b"), mk("c"))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, []string{"a", "b", "c"}, order)
}

func TestWithRequestID(t *testing.T) {
	var seen string
	h := Chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
	}), WithRequestID())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Regexp(t, `^req_[0-9a-f-]{36}$`, rec.Header().Get(HeaderRequestID))
	assert.Equal(t, rec.Header().Get(HeaderRequestID), seen)

	rec = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderRequestID, "upstream-1")
	h.ServeHTTP(rec, req)
	assert.Equal(t, "upstream-1", rec.Header().Get(HeaderRequestID))
	assert.Equal(t, "upstream-1", seen)
}

func TestWithRecover(t *testing.T) {
	h := Chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}), WithRecover(), WithLogging())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/oauth/token", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "server_error", body["error"])
}

func TestWithNoStore(t *testing.T) {
	rec := httptest.NewRecorder()
	Chain(okHandler, WithNoStore()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
	assert.Equal(t, "no-cache", rec.Header().Get("Pragma"))
}

func TestWithIdentity(t *testing.T) {
	var uid, tid string
	h := Chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		uid = GetUserID(r.Context())
		tid = GetTenantID(r.Context())
	}), WithIdentity(IdentityConfig{}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Authenticated-User", " guest-7 ")
	req.Header.Set("X-Tenant-ID", "camp-pines")
	h.ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, "guest-7", uid)
	assert.Equal(t, "camp-pines", tid)
}

func TestWithRateLimit(t *testing.T) {
	h := Chain(okHandler, WithRateLimit(RateLimitConfig{Limiter: rate.NewMemoryLimiter(2, time.Minute)}))

	do := func() *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/oauth/token", nil)
		req.RemoteAddr = "10.1.2.3:5555"
		h.ServeHTTP(rec, req)
		return rec
	}
	assert.Equal(t, http.StatusOK, do().Code)
	assert.Equal(t, http.StatusOK, do().Code)

	rec := do()
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
}

func TestWithRateLimit_IgnoresForwardedForFromUntrustedPeer(t *testing.T) {
	h := Chain(okHandler,
		WithClientIP(nil),
		WithRateLimit(RateLimitConfig{Limiter: rate.NewMemoryLimiter(2, time.Minute)}),
	)

	codes := make([]int, 0, 4)
	for i := 0; i < 4; i++ {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/oauth/token", nil)
		req.RemoteAddr = "203.0.113.9:40000"
		req.Header.Set("X-Forwarded-For", "198.51.100."+strconv.Itoa(i))
		h.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}
	assert.Equal(t, []int{200, 200, 429, 429}, codes)
}

func TestWithClientIP(t *testing.T) {
	trusted := []netip.Prefix{netip.MustParsePrefix("10.0.0.0/8")}

	cases := []struct {
		name    string
		trusted []netip.Prefix
		remote  string
		xff     []string
		want    string
	}{
		{"no trusted proxies ignores header", nil, "203.0.113.9:1", []string{"1.1.1.1"}, "203.0.113.9"},
		{"untrusted peer ignores header", trusted, "203.0.113.9:1", []string{"1.1.1.1"}, "203.0.113.9"},
		{"trusted peer uses header", trusted, "10.0.0.5:1", []string{"198.51.100.7"}, "198.51.100.7"},
		{"rightmost untrusted wins", trusted, "10.0.0.5:1", []string{"6.6.6.6, 198.51.100.7, 10.0.0.9"}, "198.51.100.7"},
		{"repeated headers are joined", trusted, "10.0.0.5:1", []string{"6.6.6.6", "198.51.100.7"}, "198.51.100.7"},
		{"garbage entries skipped", trusted, "10.0.0.5:1", []string{"198.51.100.7, not-an-ip"}, "198.51.100.7"},
		{"all internal falls back to first hop", trusted, "10.0.0.5:1", []string{"10.1.1.1, 10.2.2.2"}, "10.1.1.1"},
		{"trusted peer without header", trusted, "10.0.0.5:1", nil, "10.0.0.5"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var got string
			h := WithClientIP(tc.trusted)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got = GetClientIP(r.Context())
			}))
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tc.remote
			for _, v := range tc.xff {
				req.Header.Add("X-Forwarded-For", v)
			}
			h.ServeHTTP(httptest.NewRecorder(), req)
			assert.Equal(t, tc.want, got)
		})
	}
}

type failingLimiter struct{}

func (failingLimiter) Allow(context.Context, string) (rate.Result, error) {
	return rate.Result{}, errors.New("redis down")
}

func TestWithRateLimit_FailOpen(t *testing.T) {
	rec := httptest.NewRecorder()
	Chain(okHandler, WithRateLimit(RateLimitConfig{Limiter: failingLimiter{}})).
		ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

type stubValidator struct {
	res *svc.ValidationResult
	err error
	got string
}

func (s *stubValidator) ValidateAccessToken(_ context.Context, token string) (*svc.ValidationResult, error) {
	s.got = token
	return s.res, s.err
}

func TestRequireAccessToken(t *testing.T) {
	var seen *svc.ValidationResult
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetValidation(r.Context())
	})

	t.Run("missing header", func(t *testing.T) {
		rec := httptest.NewRecorder()
		Chain(inner, RequireAccessToken(&stubValidator{})).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Contains(t, rec.Header().Get("WWW-Authenticate"), "invalid_token")
	})

	t.Run("invalid token", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer abc")
		Chain(inner, RequireAccessToken(&stubValidator{res: &svc.ValidationResult{}})).ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("missing scope", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer abc")
		v := &stubValidator{res: &svc.ValidationResult{Valid: true, Scopes: []string{"sites:read"}}}
		Chain(inner, RequireAccessToken(v, "reservations:write")).ServeHTTP(rec, req)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("ok", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "bearer abc")
		v := &stubValidator{res: &svc.ValidationResult{Valid: true, ClientID: "cl_1", Scopes: []string{"sites:read"}}}
		Chain(inner, RequireAccessToken(v, "sites:read")).ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "abc", v.got)
		require.NotNil(t, seen)
		assert.Equal(t, "cl_1", seen.ClientID)
	})
}
