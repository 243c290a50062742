package oauth

import (
	"slices"
	"strings"

	"github.com/dropDatabas3/campauth/internal/domain/repository"
)

// DefaultScopes es el set asignado a clients registrados sin scopes y el
// publicado en discovery.
var DefaultScopes = []string{
	"reservations:read",
	"reservations:write",
	"availability:read",
	"sites:read",
	"guests:read",
	"guests:write",
	"payments:read",
	"webhooks:manage",
}

// SupportedGrantTypes en el orden publicado en discovery.
var SupportedGrantTypes = []string{
	repository.GrantAuthorizationCode,
	repository.GrantClientCredentials,
	repository.GrantRefreshToken,
}

// ParseScope separa por espacios y elimina duplicados conservando el orden.
func ParseScope(s string) []string {
	fields := strings.Fields(s)
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if !slices.Contains(out, f) {
			out = append(out, f)
		}
	}
	return out
}

// JoinScope es la inversa de ParseScope.
func JoinScope(scopes []string) string {
	return strings.Join(scopes, " ")
}

// NegotiateScopes: sin pedido se otorga todo lo permitido; con pedido se
// otorga la intersección (los scopes desconocidos se descartan). ok=false
// si se pidió algo y la intersección quedó vacía.
func NegotiateScopes(requested, allowed []string) (granted []string, ok bool) {
	if len(requested) == 0 {
		return slices.Clone(allowed), true
	}
	for _, r := range requested {
		if slices.Contains(allowed, r) && !slices.Contains(granted, r) {
			granted = append(granted, r)
		}
	}
	return granted, len(granted) > 0
}
