package secret

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHashVerify(t *testing.T) {
	h := NewHasher(bcrypt.MinCost)

	hash, err := h.Hash("s3cr3t")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cr3t", hash)

	assert.True(t, h.Verify(hash, "s3cr3t"))
	assert.False(t, h.Verify(hash, "s3cr3T"))
	assert.False(t, h.Verify(hash, ""))
	assert.False(t, h.Verify("", "s3cr3t"))
	assert.False(t, h.Verify("not-a-bcrypt-hash", "s3cr3t"))
}

func TestNewHasher_ClampsCost(t *testing.T) {
	assert.Equal(t, DefaultCost, NewHasher(0).Cost)
	assert.Equal(t, DefaultCost, NewHasher(99).Cost)
	assert.Equal(t, bcrypt.MinCost, NewHasher(bcrypt.MinCost).Cost)
}
