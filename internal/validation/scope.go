// Package validation contiene reglas de formato compartidas por la CLI y el
// token service: scope names, redirect URIs y client_id públicos.
package validation

import "regexp"

// Scope name rules:
// - Lowercase only, "resource:action" style.
// - Start and end with [a-z0-9].
// - Middle chars may include [a-z0-9:_.-].
// - Length 1..64.
//
// Examples valid: sites:read, reservations:write, webhooks:manage
// Examples invalid: ;hack, BAD, bad space, :leader, trailer:, "", 65+ chars.
var scopeNameRe = regexp.MustCompile(`^[a-z0-9](?:[a-z0-9:_\.-]{0,62}[a-z0-9])?$`)

// ValidScopeName returns true if the provided scope name matches the allowed pattern.
func ValidScopeName(name string) bool {
	return scopeNameRe.MatchString(name)
}
