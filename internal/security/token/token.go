// Package token genera valores opacos y sus hashes de almacenamiento.
package token

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
)

// Tamaños en bytes antes de codificar.
const (
	AccessTokenBytes  = 32
	RefreshTokenBytes = 48
	AuthCodeBytes     = 32
	ClientIDBytes     = 16
	ClientSecretBytes = 32
)

// ClientIDPrefix precede a todo client_id público.
const ClientIDPrefix = "cl_"

// RandomHex retorna n bytes aleatorios en hex (2n caracteres).
func RandomHex(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("token: read random: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// RandomBase64URL retorna n bytes aleatorios en base64url sin padding.
func RandomBase64URL(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("token: read random: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func NewAccessToken() (string, error)  { return RandomHex(AccessTokenBytes) }
func NewRefreshToken() (string, error) { return RandomHex(RefreshTokenBytes) }
func NewAuthCode() (string, error)     { return RandomHex(AuthCodeBytes) }

// NewClientID retorna "cl_" + 16 bytes hex.
func NewClientID() (string, error) {
	s, err := RandomHex(ClientIDBytes)
	if err != nil {
		return "", err
	}
	return ClientIDPrefix + s, nil
}

// NewClientSecret retorna el secret crudo; se muestra una única vez.
func NewClientSecret() (string, error) { return RandomBase64URL(ClientSecretBytes) }

// SHA256Hex devuelve sha256(s) en hex; es la clave de lookup en DB.
func SHA256Hex(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}
