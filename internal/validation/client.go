package validation

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

var clientIDRe = regexp.MustCompile(`^cl_[0-9a-f]{32}$`)

// ValidClientID reporta si s tiene el formato público "cl_" + 32 hex.
func ValidClientID(s string) bool {
	return clientIDRe.MatchString(s)
}

var (
	ErrRedirectNotAbsolute = errors.New("redirect_uri must be an absolute http(s) URI")
	ErrRedirectFragment    = errors.New("redirect_uri must not contain a fragment")
)

// RedirectURI exige URI absoluto http(s) con host y sin fragmento
// (RFC 6749 §3.1.2). http se acepta para desarrollo local.
func RedirectURI(raw string) error {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" || (u.Scheme != "https" && u.Scheme != "http") {
		return fmt.Errorf("%w: %q", ErrRedirectNotAbsolute, raw)
	}
	if u.Fragment != "" || strings.Contains(raw, "#") {
		return fmt.Errorf("%w: %q", ErrRedirectFragment, raw)
	}
	return nil
}
