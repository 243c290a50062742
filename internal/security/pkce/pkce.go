// Package pkce implementa RFC 7636 (verifier/challenge) sin estado.
package pkce

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"math/big"
)

const (
	MethodS256  = "S256"
	MethodPlain = "plain"

	MinVerifierLength     = 43
	MaxVerifierLength     = 128
	DefaultVerifierLength = 64
)

// unreserved URI characters (RFC 3986 §2.3).
const charset = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789-._~"

var ErrUnsupportedMethod = errors.New("pkce: unsupported code_challenge_method")

// SupportedMethods en orden de preferencia (discovery).
var SupportedMethods = []string{MethodS256, MethodPlain}

// GenerateCodeVerifier genera un verifier de length caracteres.
// length <= 0 usa 64; fuera de 43..128 se ajusta al límite.
func GenerateCodeVerifier(length int) (string, error) {
	switch {
	case length <= 0:
		length = DefaultVerifierLength
	case length < MinVerifierLength:
		length = MinVerifierLength
	case length > MaxVerifierLength:
		length = MaxVerifierLength
	}

	max := big.NewInt(int64(len(charset)))
	out := make([]byte, length)
	for i := range out {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("pkce: read random: %w", err)
		}
		out[i] = charset[n.Int64()]
	}
	return string(out), nil
}

// GenerateCodeChallenge: identidad para plain, base64url(SHA-256) para S256.
func GenerateCodeChallenge(verifier, method string) (string, error) {
	switch method {
	case MethodPlain:
		return verifier, nil
	case MethodS256:
		sum := sha256.Sum256([]byte(verifier))
		return base64.RawURLEncoding.EncodeToString(sum[:]), nil
	default:
		return "", ErrUnsupportedMethod
	}
}

// VerifyCodeChallenge recalcula el challenge y compara por igualdad exacta.
func VerifyCodeChallenge(verifier, challenge, method string) bool {
	if verifier == "" || challenge == "" {
		return false
	}
	got, err := GenerateCodeChallenge(verifier, method)
	if err != nil {
		return false
	}
	return got == challenge
}

// IsSupportedMethod reporta si method es S256 o plain.
func IsSupportedMethod(method string) bool {
	return method == MethodS256 || method == MethodPlain
}
