// Package oauth contiene el token service: grants, refresh con rotación,
// revocación, introspección y administración de clients.
package oauth

import (
	"context"
	"time"

	"github.com/dropDatabas3/campauth/internal/cache"
	"github.com/dropDatabas3/campauth/internal/domain/repository"
	"github.com/dropDatabas3/campauth/internal/metrics"
)

// TokenService cubre los endpoints /oauth/*.
type TokenService interface {
	// IssueClientCredentialsToken handles grant_type=client_credentials.
	IssueClientCredentialsToken(ctx context.Context, in ClientCredentialsInput) (*TokenResult, error)

	// CheckRedirect verifica client activo y redirect_uri registrado. Hasta
	// que pase, /oauth/authorize no puede redirigir.
	CheckRedirect(ctx context.Context, clientID, redirectURI string) error

	// GenerateAuthorizationCode creates a one-time code for an authenticated user.
	GenerateAuthorizationCode(ctx context.Context, in AuthorizeInput) (string, error)

	// ExchangeAuthorizationCode handles grant_type=authorization_code (PKCE).
	ExchangeAuthorizationCode(ctx context.Context, in ExchangeCodeInput) (*TokenResult, error)

	// RefreshAccessToken handles grant_type=refresh_token (single-use rotation).
	RefreshAccessToken(ctx context.Context, in RefreshInput) (*TokenResult, error)

	// RevokeToken is idempotent and never reports unknown tokens.
	RevokeToken(ctx context.Context, token, tokenTypeHint string) error

	// IntrospectToken returns Active=false for unknown, revoked or expired tokens.
	IntrospectToken(ctx context.Context, token string) (*IntrospectResult, error)

	// ValidateAccessToken is the resource-server variant of introspection.
	ValidateAccessToken(ctx context.Context, token string) (*ValidationResult, error)
}

// ClientService administra clients (CLI / dashboard).
type ClientService interface {
	RegisterClient(ctx context.Context, in RegisterClientInput) (*RegisteredClient, error)
	RotateClientSecret(ctx context.Context, clientDBID string) (*RotatedSecret, error)
	SetClientActive(ctx context.Context, clientDBID string, active bool) error
	GetClient(ctx context.Context, idOrClientID string) (*repository.Client, error)
	ListClients(ctx context.Context, tenantID string) ([]repository.Client, error)
}

// SecretHasher hashea y verifica client secrets (bcrypt en producción).
type SecretHasher interface {
	Hash(secret string) (string, error)
	Verify(hash, secret string) bool
}

// Config son los parámetros de emisión.
type Config struct {
	Issuer     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	CodeTTL    time.Duration
}

// Deps contiene las dependencias del service.
type Deps struct {
	Clients repository.ClientRepository
	Tokens  repository.TokenRepository
	Codes   cache.CodeStore
	Hasher  SecretHasher
	Metrics *metrics.Metrics // opcional
	Config  Config
	Now     func() time.Time // opcional, tests
}

// Service implementa TokenService y ClientService.
type Service struct {
	clients repository.ClientRepository
	tokens  repository.TokenRepository
	codes   cache.CodeStore
	hasher  SecretHasher
	metrics *metrics.Metrics
	cfg     Config
	now     func() time.Time
}

var (
	_ TokenService  = (*Service)(nil)
	_ ClientService = (*Service)(nil)
)

// Defaults de emisión.
const (
	DefaultAccessTTL  = 3600 * time.Second
	DefaultRefreshTTL = 2592000 * time.Second
	DefaultCodeTTL    = 600 * time.Second
)

func NewService(d Deps) *Service {
	cfg := d.Config
	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = DefaultAccessTTL
	}
	if cfg.RefreshTTL <= 0 {
		cfg.RefreshTTL = DefaultRefreshTTL
	}
	if cfg.CodeTTL <= 0 {
		cfg.CodeTTL = DefaultCodeTTL
	}
	now := d.Now
	if now == nil {
		now = time.Now
	}
	return &Service{
		clients: d.Clients,
		tokens:  d.Tokens,
		codes:   d.Codes,
		hasher:  d.Hasher,
		metrics: d.Metrics,
		cfg:     cfg,
		now:     now,
	}
}

// Issuer retorna el issuer configurado (discovery).
func (s *Service) Issuer() string { return s.cfg.Issuer }
