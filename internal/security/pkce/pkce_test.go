package pkce

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateCodeVerifier_LengthAndCharset(t *testing.T) {
	v, err := GenerateCodeVerifier(0)
	require.NoError(t, err)
	assert.Len(t, v, DefaultVerifierLength)
	for _, r := range v {
		assert.True(t, strings.ContainsRune(charset, r), "unexpected char %q", r)
	}

	short, err := GenerateCodeVerifier(10)
	require.NoError(t, err)
	assert.Len(t, short, MinVerifierLength)

	long, err := GenerateCodeVerifier(500)
	require.NoError(t, err)
	assert.Len(t, long, MaxVerifierLength)
}

func TestGenerateCodeChallenge_KnownVector(t *testing.T) {
	// RFC 7636 Appendix B
	c, err := GenerateCodeChallenge("dBjftJeZ4CVP-mB92K27uhbUJU1p1r_wW1gFWFOEjXk", MethodS256)
	require.NoError(t, err)
	assert.Equal(t, "E9Melhoa2OwvFrEMTJguCHaoeK1t8URWbuGJSstw-cM", c)

	p, err := GenerateCodeChallenge("abc", MethodPlain)
	require.NoError(t, err)
	assert.Equal(t, "abc", p)

	_, err = GenerateCodeChallenge("abc", "S512")
	assert.ErrorIs(t, err, ErrUnsupportedMethod)
}

func TestVerifyCodeChallenge_RoundTripAndSingleCharVariation(t *testing.T) {
	for i := 0; i < 20; i++ {
		v, err := GenerateCodeVerifier(DefaultVerifierLength)
		require.NoError(t, err)

		challenge, err := GenerateCodeChallenge(v, MethodS256)
		require.NoError(t, err)
		require.True(t, VerifyCodeChallenge(v, challenge, MethodS256))

		for pos := 0; pos < len(v); pos++ {
			b := []byte(v)
			if b[pos] == 'a' {
				b[pos] = 'b'
			} else {
				b[pos] = 'a'
			}
			assert.False(t, VerifyCodeChallenge(string(b), challenge, MethodS256), "variation at %d", pos)
		}
	}
}

func TestVerifyCodeChallenge_Plain(t *testing.T) {
	assert.True(t, VerifyCodeChallenge("verifier123", "verifier123", MethodPlain))
	assert.False(t, VerifyCodeChallenge("verifier123", "verifier124", MethodPlain))
	assert.False(t, VerifyCodeChallenge("", "", MethodPlain))
	assert.False(t, VerifyCodeChallenge("x", "x", "bogus"))
}
