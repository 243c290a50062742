package repository

import (
	"context"
	"slices"
	"time"
)

// Grant types soportados.
const (
	GrantClientCredentials = "client_credentials"
	GrantAuthorizationCode = "authorization_code"
	GrantRefreshToken      = "refresh_token"
)

// Client es una integración registrada contra un tenant (campground).
type Client struct {
	ID             string // UUID interno
	ClientID       string // identificador público (cl_...)
	SecretHash     *string
	Name           string
	RedirectURIs   []string
	Scopes         []string
	GrantTypes     []string
	IsConfidential bool
	IsActive       bool
	TenantID       string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// AllowsGrant reporta si el client puede usar el grant type.
func (c *Client) AllowsGrant(grantType string) bool {
	return slices.Contains(c.GrantTypes, grantType)
}

// HasRedirectURI compara por igualdad exacta contra los URIs registrados.
func (c *Client) HasRedirectURI(uri string) bool {
	return slices.Contains(c.RedirectURIs, uri)
}

// CreateClientInput contiene los datos para registrar un client.
type CreateClientInput struct {
	ClientID       string
	SecretHash     *string
	Name           string
	RedirectURIs   []string
	Scopes         []string
	GrantTypes     []string
	IsConfidential bool
	TenantID       string
}

// ClientRepository define operaciones sobre clients.
type ClientRepository interface {
	// Create registra un client activo.
	// Retorna ErrConflict si el client_id ya existe.
	Create(ctx context.Context, input CreateClientInput) (*Client, error)

	// GetByClientID busca por client_id público.
	// Retorna ErrNotFound si no existe (activo o no).
	GetByClientID(ctx context.Context, clientID string) (*Client, error)

	// GetByID busca por ID interno.
	GetByID(ctx context.Context, id string) (*Client, error)

	// ListByTenant lista los clients de un tenant ordenados por creación.
	ListByTenant(ctx context.Context, tenantID string) ([]Client, error)

	// RotateSecret reemplaza el hash del secret y revoca todos los tokens
	// vivos del client en una sola operación: ningún insert concurrente
	// autenticado con el hash viejo queda vivo. Retorna la cantidad revocada.
	RotateSecret(ctx context.Context, id, secretHash string) (int, error)

	// SetActive activa o desactiva (soft-disable) un client.
	SetActive(ctx context.Context, id string, active bool) error
}
