package oauth

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNegotiateScopes(t *testing.T) {
	allowed := []string{"reservations:read", "sites:read"}

	got, ok := NegotiateScopes(nil, allowed)
	assert.True(t, ok)
	assert.Equal(t, allowed, got)

	got, ok = NegotiateScopes(ParseScope("reservations:read bogus:scope"), DefaultScopes)
	assert.True(t, ok)
	assert.Equal(t, []string{"reservations:read"}, got)

	got, ok = NegotiateScopes(ParseScope("bogus:scope"), allowed)
	assert.False(t, ok)
	assert.Empty(t, got)

	got, ok = NegotiateScopes(ParseScope("sites:read reservations:read sites:read"), allowed)
	assert.True(t, ok)
	assert.Equal(t, []string{"sites:read", "reservations:read"}, got)
}

func TestParseScope(t *testing.T) {
	assert.Empty(t, ParseScope("   "))
	assert.Equal(t, []string{"a", "b"}, ParseScope(" a  b a "))
	assert.Equal(t, "a b", JoinScope([]string{"a", "b"}))
}
