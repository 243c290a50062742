// Package cache guarda los authorization codes pendientes de canje.
//
// Soporta:
//   - Memory (go-cache, process-local; un solo nodo)
//   - Redis (compartido entre instancias; GETDEL atómico)
//
// El code es la clave de lookup y no se hashea: es de un solo uso y vive
// pocos minutos.
package cache

import (
	"context"
	"errors"
	"time"
)

// AuthCode es un grant pendiente emitido por /oauth/authorize.
type AuthCode struct {
	Code                string    `json:"code"`
	ClientID            string    `json:"client_id"` // client_id público
	RedirectURI         string    `json:"redirect_uri"`
	Scopes              []string  `json:"scopes"`
	UserID              string    `json:"user_id"`
	CodeChallenge       string    `json:"code_challenge,omitempty"`
	CodeChallengeMethod string    `json:"code_challenge_method,omitempty"`
	ExpiresAt           time.Time `json:"expires_at"`
}

// Expired reporta si el code venció en now.
func (a *AuthCode) Expired(now time.Time) bool {
	return !now.Before(a.ExpiresAt)
}

// CodeStore es el almacenamiento de codes. Las implementaciones deben
// garantizar que GetAndDelete entregue cada code a lo sumo una vez.
type CodeStore interface {
	// Put guarda el entry con el TTL dado.
	Put(ctx context.Context, entry AuthCode, ttl time.Duration) error

	// GetAndDelete lee y borra atómicamente. Retorna ErrNotFound si el code
	// no existe o ya expiró.
	GetAndDelete(ctx context.Context, code string) (*AuthCode, error)

	// Sweep purga entries expirados y retorna cuántos borró.
	Sweep(ctx context.Context) (int, error)
}

var ErrNotFound = errors.New("cache: code not found")

// IsNotFound verifica si el error es porque el code no existe.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
