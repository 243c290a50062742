// Package secret hashea y verifica client secrets con bcrypt.
// bcrypt.CompareHashAndPassword compara en tiempo constante.
package secret

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// Cost por defecto; los tests usan bcrypt.MinCost vía Hasher.
const DefaultCost = 12

type Hasher struct {
	Cost int
}

func NewHasher(cost int) *Hasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultCost
	}
	return &Hasher{Cost: cost}
}

func (h *Hasher) Hash(secret string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(secret), h.Cost)
	if err != nil {
		return "", fmt.Errorf("secret: hash: %w", err)
	}
	return string(b), nil
}

// Verify retorna false para mismatch o hash corrupto, sin distinguirlos.
func (h *Hasher) Verify(hash, secret string) bool {
	if hash == "" || secret == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(secret)) == nil
}
