package oauth

import "github.com/dropDatabas3/campauth/internal/security/token"

func hashOf(raw string) string { return token.SHA256Hex(raw) }
