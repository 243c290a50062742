package oauth

import (
	"context"
	"errors"
	"slices"
	"strings"

	"github.com/dropDatabas3/campauth/internal/audit"
	oerr "github.com/dropDatabas3/campauth/internal/domain/oauth"
	"github.com/dropDatabas3/campauth/internal/domain/repository"
	"github.com/dropDatabas3/campauth/internal/observability/logger"
	"github.com/dropDatabas3/campauth/internal/security/token"
	"github.com/dropDatabas3/campauth/internal/validation"
)

const maxClientNameLen = 200

// RegisterClient crea el client. El secret crudo (solo confidenciales) se
// retorna una única vez; se persiste su hash bcrypt.
func (s *Service) RegisterClient(ctx context.Context, in RegisterClientInput) (*RegisteredClient, error) {
	log := logger.From(ctx).With(logger.Layer("service"), logger.Op("ClientService.RegisterClient"))

	confidential := in.IsConfidential == nil || *in.IsConfidential

	tenantID := strings.TrimSpace(in.TenantID)
	if tenantID == "" {
		return nil, oerr.New(oerr.InvalidRequest, "tenant_id is required")
	}
	name := strings.TrimSpace(in.Name)
	if name == "" || len(name) > maxClientNameLen {
		return nil, oerr.New(oerr.InvalidRequest, "name is required (max 200 chars)")
	}

	redirects, err := normalizeRedirectURIs(in.RedirectURIs)
	if err != nil {
		return nil, err
	}

	scopes := dedupe(in.Scopes)
	if len(scopes) == 0 {
		scopes = slices.Clone(DefaultScopes)
	}
	for _, sc := range scopes {
		if !validation.ValidScopeName(sc) {
			return nil, oerr.Errorf(oerr.InvalidScope, "malformed scope %q", sc)
		}
		if !slices.Contains(DefaultScopes, sc) {
			return nil, oerr.Errorf(oerr.InvalidScope, "unknown scope %q", sc)
		}
	}

	grants := dedupe(in.GrantTypes)
	if len(grants) == 0 {
		if confidential {
			grants = slices.Clone(SupportedGrantTypes)
		} else {
			grants = []string{repository.GrantAuthorizationCode, repository.GrantRefreshToken}
		}
	}
	for _, g := range grants {
		if !slices.Contains(SupportedGrantTypes, g) {
			return nil, oerr.Errorf(oerr.InvalidRequest, "unsupported grant type %q", g)
		}
	}
	if !confidential && slices.Contains(grants, repository.GrantClientCredentials) {
		return nil, oerr.New(oerr.InvalidRequest, "public clients cannot use client_credentials")
	}
	if slices.Contains(grants, repository.GrantAuthorizationCode) && len(redirects) == 0 {
		return nil, oerr.New(oerr.InvalidRequest, "authorization_code requires at least one redirect_uri")
	}

	var rawSecret string
	var secretHash *string
	if confidential {
		rawSecret, err = token.NewClientSecret()
		if err != nil {
			return nil, oerr.Wrap(oerr.ServerError, "secret generation failed", err)
		}
		h, err := s.hasher.Hash(rawSecret)
		if err != nil {
			return nil, oerr.Wrap(oerr.ServerError, "secret hashing failed", err)
		}
		secretHash = &h
	}

	var created *repository.Client
	for attempt := 0; attempt < 3; attempt++ {
		clientID, err := token.NewClientID()
		if err != nil {
			return nil, oerr.Wrap(oerr.ServerError, "client_id generation failed", err)
		}
		created, err = s.clients.Create(ctx, repository.CreateClientInput{
			ClientID:       clientID,
			SecretHash:     secretHash,
			Name:           name,
			RedirectURIs:   redirects,
			Scopes:         scopes,
			GrantTypes:     grants,
			IsConfidential: confidential,
			TenantID:       tenantID,
		})
		if err == nil {
			break
		}
		if !errors.Is(err, repository.ErrConflict) {
			log.Error("create client failed", logger.Err(err))
			return nil, oerr.Wrap(oerr.ServerError, "client persistence failed", err)
		}
	}
	if created == nil {
		return nil, oerr.New(oerr.ServerError, "could not allocate a unique client_id")
	}

	log.Info("client registered", logger.ClientID(created.ClientID))
	audit.Log(ctx, audit.EventClientRegistered,
		logger.ClientID(created.ClientID),
		logger.TenantID(tenantID),
		logger.Bool("confidential", confidential),
		logger.Scope(JoinScope(created.Scopes)),
	)
	return &RegisteredClient{
		ID:             created.ID,
		ClientID:       created.ClientID,
		ClientSecret:   rawSecret,
		Name:           created.Name,
		TenantID:       created.TenantID,
		RedirectURIs:   created.RedirectURIs,
		Scopes:         created.Scopes,
		GrantTypes:     created.GrantTypes,
		IsConfidential: created.IsConfidential,
	}, nil
}

// RotateClientSecret emite un secret nuevo y revoca todos los tokens vivos
// del client en la misma operación del repositorio.
func (s *Service) RotateClientSecret(ctx context.Context, clientDBID string) (*RotatedSecret, error) {
	log := logger.From(ctx).With(logger.Layer("service"), logger.Op("ClientService.RotateClientSecret"))

	c, err := s.clientByID(ctx, clientDBID)
	if err != nil {
		return nil, err
	}
	if !c.IsConfidential {
		return nil, oerr.New(oerr.InvalidRequest, "public clients have no secret")
	}

	raw, err := token.NewClientSecret()
	if err != nil {
		return nil, oerr.Wrap(oerr.ServerError, "secret generation failed", err)
	}
	hash, err := s.hasher.Hash(raw)
	if err != nil {
		return nil, oerr.Wrap(oerr.ServerError, "secret hashing failed", err)
	}
	n, err := s.clients.RotateSecret(ctx, c.ID, hash)
	if err != nil {
		log.Error("rotate secret failed", logger.Err(err), logger.ClientID(c.ClientID))
		if errors.Is(err, repository.ErrNotFound) {
			return nil, oerr.New(oerr.InvalidClient, "unknown client")
		}
		return nil, oerr.Wrap(oerr.ServerError, "secret rotation failed", err)
	}
	s.metrics.TokensRevoked("secret_rotation", n)

	audit.Log(ctx, audit.EventSecretRotated, logger.ClientID(c.ClientID), logger.TenantID(c.TenantID), logger.Count(n))
	return &RotatedSecret{ClientID: c.ClientID, ClientSecret: raw, RevokedTokens: n}, nil
}

// SetClientActive activa o desactiva el client. Desactivar no revoca filas,
// pero los tokens de un client inactivo dejan de validar.
func (s *Service) SetClientActive(ctx context.Context, clientDBID string, active bool) error {
	c, err := s.clientByID(ctx, clientDBID)
	if err != nil {
		return err
	}
	if err := s.clients.SetActive(ctx, c.ID, active); err != nil {
		return oerr.Wrap(oerr.ServerError, "client update failed", err)
	}
	audit.Log(ctx, audit.EventClientActive,
		logger.ClientID(c.ClientID), logger.TenantID(c.TenantID), logger.Bool("active", active))
	return nil
}

// GetClient acepta el ID interno o el client_id público.
func (s *Service) GetClient(ctx context.Context, idOrClientID string) (*repository.Client, error) {
	if validation.ValidClientID(idOrClientID) {
		c, err := s.clients.GetByClientID(ctx, idOrClientID)
		if err != nil {
			return nil, mapClientLookup(err)
		}
		return c, nil
	}
	return s.clientByID(ctx, idOrClientID)
}

func (s *Service) ListClients(ctx context.Context, tenantID string) ([]repository.Client, error) {
	out, err := s.clients.ListByTenant(ctx, tenantID)
	if err != nil {
		return nil, oerr.Wrap(oerr.ServerError, "client list failed", err)
	}
	return out, nil
}

func (s *Service) clientByID(ctx context.Context, id string) (*repository.Client, error) {
	c, err := s.clients.GetByID(ctx, id)
	if err != nil {
		return nil, mapClientLookup(err)
	}
	return c, nil
}

func mapClientLookup(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return oerr.New(oerr.InvalidClient, "unknown client")
	}
	return oerr.Wrap(oerr.ServerError, "client lookup failed", err)
}

// normalizeRedirectURIs valida y deduplica conservando el orden.
func normalizeRedirectURIs(in []string) ([]string, error) {
	out := make([]string, 0, len(in))
	for _, raw := range in {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		if err := validation.RedirectURI(raw); err != nil {
			return nil, oerr.Wrap(oerr.InvalidRequest, "invalid redirect_uri", err)
		}
		if !slices.Contains(out, raw) {
			out = append(out, raw)
		}
	}
	return out, nil
}

func dedupe(in []string) []string {
	var out []string
	for _, v := range in {
		v = strings.TrimSpace(v)
		if v != "" && !slices.Contains(out, v) {
			out = append(out, v)
		}
	}
	return out
}
