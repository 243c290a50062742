package oauth

// RevokeRequest es el form de POST /oauth/revoke (RFC 7009).
type RevokeRequest struct {
	Token         string `json:"token"`
	TokenTypeHint string `json:"token_type_hint,omitempty"`
}

func (r RevokeRequest) Validate() error {
	if r.Token == "" {
		return missing("token")
	}
	return nil
}
