package repository

import (
	"context"
	"time"
)

// Token es un par access/refresh emitido a un client.
type Token struct {
	ID               string
	ClientID         string // Client.ID interno
	UserID           *string
	AccessTokenHash  string
	RefreshTokenHash *string
	Scopes           []string
	ExpiresAt        time.Time
	RefreshExpiresAt *time.Time
	RevokedAt        *time.Time
	CreatedAt        time.Time
}

// IsRevoked reporta si el token fue revocado.
func (t *Token) IsRevoked() bool { return t.RevokedAt != nil }

// AccessActive: no revocado y access no expirado.
func (t *Token) AccessActive(now time.Time) bool {
	return t.RevokedAt == nil && now.Before(t.ExpiresAt)
}

// RefreshActive: no revocado, con refresh y refresh no expirado.
func (t *Token) RefreshActive(now time.Time) bool {
	return t.RevokedAt == nil &&
		t.RefreshTokenHash != nil &&
		t.RefreshExpiresAt != nil &&
		now.Before(*t.RefreshExpiresAt)
}

// CreateTokenInput contiene los datos para persistir un token.
type CreateTokenInput struct {
	ClientID         string
	UserID           *string
	AccessTokenHash  string
	RefreshTokenHash *string
	Scopes           []string
	ExpiresAt        time.Time
	RefreshExpiresAt *time.Time
	CreatedAt        time.Time // zero: reloj del store

	// ClientSecretHash es el hash con el que se autenticó el client (nil
	// para públicos). El insert solo procede si el client sigue teniendo
	// ese hash; si no, ErrClientChanged.
	ClientSecretHash *string
}

// TokenRepository define operaciones sobre tokens.
type TokenRepository interface {
	// Create persiste un token nuevo. Retorna ErrClientChanged si el secret
	// del client ya no es input.ClientSecretHash.
	Create(ctx context.Context, input CreateTokenInput) (*Token, error)

	// GetByAccessHash busca por hash de access token (revocado o no).
	// Retorna ErrNotFound si no existe.
	GetByAccessHash(ctx context.Context, accessHash string) (*Token, error)

	// GetByRefreshHash busca por hash de refresh token (revocado o no).
	GetByRefreshHash(ctx context.Context, refreshHash string) (*Token, error)

	// RevokeByAccessHash revoca el token si no estaba revocado.
	// Retorna false si no había token activo con ese hash.
	RevokeByAccessHash(ctx context.Context, accessHash string) (bool, error)

	// RevokeByRefreshHash idem para el hash de refresh.
	RevokeByRefreshHash(ctx context.Context, refreshHash string) (bool, error)

	// Rotate revoca oldID solo si no estaba revocado e inserta next,
	// en una única operación atómica. Retorna ErrAlreadyRevoked si otro
	// request ganó la carrera y ErrClientChanged como Create.
	Rotate(ctx context.Context, oldID string, next CreateTokenInput) (*Token, error)
}

// Pinger lo implementan los stores que pueden chequear conectividad (/ready).
type Pinger interface {
	Ping(ctx context.Context) error
}
