package config

import (
	"errors"
	"fmt"
	"net/netip"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	App struct {
		// dev | staging | prod
		Env     string `yaml:"env"`
		Version string `yaml:"version"`
	} `yaml:"app"`

	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`

	Server struct {
		Addr            string `yaml:"addr"`
		ReadTimeout     string `yaml:"read_timeout"`
		WriteTimeout    string `yaml:"write_timeout"`
		ShutdownTimeout string `yaml:"shutdown_timeout"`
	} `yaml:"server"`

	Storage struct {
		// memory | postgres
		Driver   string `yaml:"driver"`
		DSN      string `yaml:"dsn"`
		Postgres struct {
			MaxConns int `yaml:"max_conns"`
			MinConns int `yaml:"min_conns"`
		} `yaml:"postgres"`
	} `yaml:"storage"`

	Cache struct {
		// memory | redis
		Kind  string `yaml:"kind"`
		Redis struct {
			Addr     string `yaml:"addr"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
			Prefix   string `yaml:"prefix"`
		} `yaml:"redis"`
	} `yaml:"cache"`

	OAuth struct {
		Issuer string `yaml:"issuer"`
		// Aceptan segundos ("3600") o duraciones Go ("1h").
		AccessTokenTTL    string `yaml:"access_token_ttl"`
		RefreshTokenTTL   string `yaml:"refresh_token_ttl"`
		AuthCodeTTL       string `yaml:"auth_code_ttl"`
		CodeSweepInterval string `yaml:"code_sweep_interval"`

		// Resueltos por Validate.
		AccessTTL     time.Duration `yaml:"-"`
		RefreshTTL    time.Duration `yaml:"-"`
		CodeTTL       time.Duration `yaml:"-"`
		SweepInterval time.Duration `yaml:"-"`
	} `yaml:"oauth"`

	Security struct {
		// Header con la identidad ya autenticada (puesto por el gateway/dashboard).
		IdentityHeader string `yaml:"identity_header"`
		TenantHeader   string `yaml:"tenant_header"`
		// Si ambos están seteados, /oauth/introspect exige Basic auth.
		IntrospectBasicUser string `yaml:"introspect_basic_user"`
		IntrospectBasicPass string `yaml:"introspect_basic_pass"`
		// CIDRs o IPs de proxies cuyo X-Forwarded-For se acepta. Vacío:
		// la IP de cliente es siempre RemoteAddr.
		TrustedProxies []string `yaml:"trusted_proxies"`

		// Resuelto por Validate.
		TrustedProxyPrefixes []netip.Prefix `yaml:"-"`
	} `yaml:"security"`

	Rate struct {
		Enabled     bool   `yaml:"enabled"`
		Window      string `yaml:"window"`
		MaxRequests int    `yaml:"max_requests"`
	} `yaml:"rate"`

	Telemetry struct {
		OTLPEndpoint string `yaml:"otlp_endpoint"`
		ServiceName  string `yaml:"service_name"`
	} `yaml:"telemetry"`
}

// Load lee el YAML (si path no está vacío), aplica defaults y overrides de
// entorno, y valida. Un path inexistente no es error: el servicio puede
// configurarse solo con variables de entorno.
func Load(path string) (*Config, error) {
	var c Config
	if path != "" {
		b, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(b, &c); err != nil {
				return nil, fmt.Errorf("config: parse %s: %w", path, err)
			}
		case errors.Is(err, os.ErrNotExist):
		default:
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	}

	c.applyDefaults()
	c.applyEnvOverrides()

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Default retorna la config por defecto ya validada (tests, CLI).
func Default() *Config {
	var c Config
	c.applyDefaults()
	_ = c.Validate()
	return &c
}

func (c *Config) applyDefaults() {
	if c.App.Env == "" {
		c.App.Env = "dev"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Server.ReadTimeout == "" {
		c.Server.ReadTimeout = "10s"
	}
	if c.Server.WriteTimeout == "" {
		c.Server.WriteTimeout = "15s"
	}
	if c.Server.ShutdownTimeout == "" {
		c.Server.ShutdownTimeout = "15s"
	}
	if c.Storage.Driver == "" {
		c.Storage.Driver = "memory"
	}
	if c.Cache.Kind == "" {
		c.Cache.Kind = "memory"
	}
	if c.Cache.Redis.Addr == "" {
		c.Cache.Redis.Addr = "localhost:6379"
	}
	if c.Cache.Redis.Prefix == "" {
		c.Cache.Redis.Prefix = "campauth:"
	}
	if c.OAuth.Issuer == "" {
		c.OAuth.Issuer = "http://localhost:8080"
	}
	if c.OAuth.AccessTokenTTL == "" {
		c.OAuth.AccessTokenTTL = "3600"
	}
	if c.OAuth.RefreshTokenTTL == "" {
		c.OAuth.RefreshTokenTTL = "2592000" // 30d
	}
	if c.OAuth.AuthCodeTTL == "" {
		c.OAuth.AuthCodeTTL = "600"
	}
	if c.OAuth.CodeSweepInterval == "" {
		c.OAuth.CodeSweepInterval = "1m"
	}
	if c.Security.IdentityHeader == "" {
		c.Security.IdentityHeader = "X-Authenticated-User"
	}
	if c.Security.TenantHeader == "" {
		c.Security.TenantHeader = "X-Tenant-ID"
	}
	if c.Rate.Window == "" {
		c.Rate.Window = "1m"
	}
	if c.Rate.MaxRequests == 0 {
		c.Rate.MaxRequests = 60
	}
	if c.Telemetry.ServiceName == "" {
		c.Telemetry.ServiceName = "campauth"
	}
}

func getEnvStr(key string) (string, bool) {
	v := os.Getenv(key)
	return v, v != ""
}
func getEnvInt(key string) (int, bool) {
	if s, ok := getEnvStr(key); ok {
		if i, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
			return i, true
		}
	}
	return 0, false
}
func getEnvBool(key string) (bool, bool) {
	if s, ok := getEnvStr(key); ok {
		if b, err := strconv.ParseBool(strings.TrimSpace(s)); err == nil {
			return b, true
		}
	}
	return false, false
}

// applyEnvOverrides: las variables de entorno pisan el YAML.
func (c *Config) applyEnvOverrides() {
	if v, ok := getEnvStr("APP_ENV"); ok {
		c.App.Env = strings.ToLower(v)
	}
	if v, ok := getEnvStr("APP_VERSION"); ok {
		c.App.Version = v
	}
	if v, ok := getEnvStr("LOG_LEVEL"); ok {
		c.Log.Level = v
	}

	// SERVER
	if v, ok := getEnvStr("SERVER_ADDR"); ok {
		c.Server.Addr = v
	}
	if v, ok := getEnvStr("SERVER_SHUTDOWN_TIMEOUT"); ok {
		c.Server.ShutdownTimeout = v
	}

	// STORAGE
	if v, ok := getEnvStr("STORAGE_DRIVER"); ok {
		c.Storage.Driver = strings.ToLower(v)
	}
	if v, ok := getEnvStr("STORAGE_DSN"); ok {
		c.Storage.DSN = v
	}
	if v, ok := getEnvInt("POSTGRES_MAX_CONNS"); ok {
		c.Storage.Postgres.MaxConns = v
	}
	if v, ok := getEnvInt("POSTGRES_MIN_CONNS"); ok {
		c.Storage.Postgres.MinConns = v
	}

	// CACHE
	if v, ok := getEnvStr("CACHE_KIND"); ok {
		c.Cache.Kind = strings.ToLower(v)
	}
	if v, ok := getEnvStr("REDIS_ADDR"); ok {
		c.Cache.Redis.Addr = v
	}
	if v, ok := getEnvStr("REDIS_PASSWORD"); ok {
		c.Cache.Redis.Password = v
	}
	if v, ok := getEnvInt("REDIS_DB"); ok {
		c.Cache.Redis.DB = v
	}
	if v, ok := getEnvStr("REDIS_PREFIX"); ok {
		c.Cache.Redis.Prefix = v
	}

	// OAUTH
	if v, ok := getEnvStr("OAUTH_ISSUER"); ok {
		c.OAuth.Issuer = v
	}
	if v, ok := getEnvStr("OAUTH_ACCESS_TOKEN_TTL"); ok {
		c.OAuth.AccessTokenTTL = v
	}
	if v, ok := getEnvStr("OAUTH_REFRESH_TOKEN_TTL"); ok {
		c.OAuth.RefreshTokenTTL = v
	}
	if v, ok := getEnvStr("OAUTH_AUTH_CODE_TTL"); ok {
		c.OAuth.AuthCodeTTL = v
	}
	if v, ok := getEnvStr("OAUTH_CODE_SWEEP_INTERVAL"); ok {
		c.OAuth.CodeSweepInterval = v
	}

	// SECURITY
	if v, ok := getEnvStr("SECURITY_IDENTITY_HEADER"); ok {
		c.Security.IdentityHeader = v
	}
	if v, ok := getEnvStr("SECURITY_TENANT_HEADER"); ok {
		c.Security.TenantHeader = v
	}
	if v, ok := getEnvStr("INTROSPECT_BASIC_USER"); ok {
		c.Security.IntrospectBasicUser = v
	}
	if v, ok := getEnvStr("INTROSPECT_BASIC_PASS"); ok {
		c.Security.IntrospectBasicPass = v
	}
	if v, ok := getEnvStr("SECURITY_TRUSTED_PROXIES"); ok {
		c.Security.TrustedProxies = splitList(v)
	}

	// RATE
	if v, ok := getEnvBool("RATE_ENABLED"); ok {
		c.Rate.Enabled = v
	}
	if v, ok := getEnvStr("RATE_WINDOW"); ok {
		c.Rate.Window = v
	}
	if v, ok := getEnvInt("RATE_MAX_REQUESTS"); ok {
		c.Rate.MaxRequests = v
	}

	// TELEMETRY
	if v, ok := getEnvStr("OTEL_EXPORTER_OTLP_ENDPOINT"); ok {
		c.Telemetry.OTLPEndpoint = v
	}
	if v, ok := getEnvStr("OTEL_SERVICE_NAME"); ok {
		c.Telemetry.ServiceName = v
	}
}

// Validate chequea combinaciones inválidas y resuelve los TTLs.
func (c *Config) Validate() error {
	var errs []error

	switch c.Storage.Driver {
	case "memory":
	case "postgres":
		if strings.TrimSpace(c.Storage.DSN) == "" {
			errs = append(errs, errors.New("storage.dsn is required for postgres"))
		}
	default:
		errs = append(errs, fmt.Errorf("storage.driver %q not supported", c.Storage.Driver))
	}

	switch c.Cache.Kind {
	case "memory", "redis":
	default:
		errs = append(errs, fmt.Errorf("cache.kind %q not supported", c.Cache.Kind))
	}

	if u, err := url.Parse(c.OAuth.Issuer); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Errorf("oauth.issuer %q must be an absolute URL", c.OAuth.Issuer))
	}

	parse := func(name, v string, dst *time.Duration) {
		d, err := ParseTTL(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
			return
		}
		*dst = d
	}
	parse("oauth.access_token_ttl", c.OAuth.AccessTokenTTL, &c.OAuth.AccessTTL)
	parse("oauth.refresh_token_ttl", c.OAuth.RefreshTokenTTL, &c.OAuth.RefreshTTL)
	parse("oauth.auth_code_ttl", c.OAuth.AuthCodeTTL, &c.OAuth.CodeTTL)
	parse("oauth.code_sweep_interval", c.OAuth.CodeSweepInterval, &c.OAuth.SweepInterval)

	c.Security.TrustedProxyPrefixes = nil
	for _, p := range c.Security.TrustedProxies {
		prefix, err := ParsePrefix(p)
		if err != nil {
			errs = append(errs, fmt.Errorf("security.trusted_proxies: %w", err))
			continue
		}
		c.Security.TrustedProxyPrefixes = append(c.Security.TrustedProxyPrefixes, prefix)
	}

	if c.Rate.Enabled && c.Rate.MaxRequests <= 0 {
		errs = append(errs, errors.New("rate.max_requests must be > 0"))
	}

	return errors.Join(errs...)
}

// ParsePrefix acepta un CIDR ("10.0.0.0/8") o una IP suelta (/32 o /128).
func ParsePrefix(v string) (netip.Prefix, error) {
	v = strings.TrimSpace(v)
	if strings.Contains(v, "/") {
		p, err := netip.ParsePrefix(v)
		if err != nil {
			return netip.Prefix{}, err
		}
		return p.Masked(), nil
	}
	addr, err := netip.ParseAddr(v)
	if err != nil {
		return netip.Prefix{}, err
	}
	addr = addr.Unmap()
	return netip.PrefixFrom(addr, addr.BitLen()), nil
}

func splitList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// ParseTTL acepta segundos enteros ("600") o duraciones Go ("10m").
func ParseTTL(v string) (time.Duration, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0, errors.New("empty duration")
	}
	var d time.Duration
	if n, err := strconv.ParseInt(v, 10, 64); err == nil {
		d = time.Duration(n) * time.Second
	} else {
		pd, err := time.ParseDuration(v)
		if err != nil {
			return 0, fmt.Errorf("invalid duration %q", v)
		}
		d = pd
	}
	if d <= 0 {
		return 0, fmt.Errorf("duration %q must be positive", v)
	}
	return d, nil
}

// Duration parsea un valor ya validado; usa def si es inválido.
func Duration(v string, def time.Duration) time.Duration {
	d, err := ParseTTL(v)
	if err != nil {
		return def
	}
	return d
}

// IsProd reporta si el entorno es producción.
func (c *Config) IsProd() bool { return c.App.Env == "prod" }
