package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	c, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, time.Hour, c.OAuth.AccessTTL)
	assert.Equal(t, 30*24*time.Hour, c.OAuth.RefreshTTL)
	assert.Equal(t, 10*time.Minute, c.OAuth.CodeTTL)
	assert.Equal(t, "memory", c.Storage.Driver)
	assert.Equal(t, "memory", c.Cache.Kind)
	assert.Equal(t, ":8080", c.Server.Addr)
}

func TestLoad_EnvOverridesYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yml := "oauth:\n  issuer: https://auth.example.com\n  access_token_ttl: 15m\n"
	require.NoError(t, os.WriteFile(path, []byte(yml), 0o600))

	t.Setenv("OAUTH_AUTH_CODE_TTL", "120")
	t.Setenv("CACHE_KIND", "REDIS")

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "https://auth.example.com", c.OAuth.Issuer)
	assert.Equal(t, 15*time.Minute, c.OAuth.AccessTTL)
	assert.Equal(t, 2*time.Minute, c.OAuth.CodeTTL)
	assert.Equal(t, "redis", c.Cache.Kind)
}

func TestLoad_MissingFileFallsBackToEnv(t *testing.T) {
	c, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "campauth", c.Telemetry.ServiceName)
}

func TestValidate_Errors(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "postgres")
	t.Setenv("OAUTH_ACCESS_TOKEN_TTL", "-5")
	t.Setenv("OAUTH_ISSUER", "not a url")

	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "storage.dsn")
	assert.Contains(t, err.Error(), "oauth.access_token_ttl")
	assert.Contains(t, err.Error(), "oauth.issuer")
}

func TestParseTTL(t *testing.T) {
	cases := []struct {
		in   string
		want time.Duration
		ok   bool
	}{
		{"3600", time.Hour, true},
		{"90s", 90 * time.Second, true},
		{" 1h ", time.Hour, true},
		{"0", 0, false},
		{"abc", 0, false},
		{"", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseTTL(tc.in)
		if !tc.ok {
			assert.Error(t, err, tc.in)
			continue
		}
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, got, tc.in)
	}
}

func TestLoad_TrustedProxies(t *testing.T) {
	t.Setenv("SECURITY_TRUSTED_PROXIES", "10.0.0.0/8, 192.168.1.7 ,::1")

	c, err := Load("")
	require.NoError(t, err)
	require.Len(t, c.Security.TrustedProxyPrefixes, 3)
	assert.Equal(t, "10.0.0.0/8", c.Security.TrustedProxyPrefixes[0].String())
	assert.Equal(t, "192.168.1.7/32", c.Security.TrustedProxyPrefixes[1].String())
	assert.Equal(t, "::1/128", c.Security.TrustedProxyPrefixes[2].String())
}

func TestLoad_TrustedProxiesDefaultEmpty(t *testing.T) {
	c, err := Load("")
	require.NoError(t, err)
	assert.Empty(t, c.Security.TrustedProxyPrefixes)
}

func TestValidate_BadTrustedProxy(t *testing.T) {
	t.Setenv("SECURITY_TRUSTED_PROXIES", "10.0.0.0/33")

	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "security.trusted_proxies")
}
