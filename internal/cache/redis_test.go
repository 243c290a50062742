package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisStore(client, "test:"), mr
}

func TestRedisStore_GetAndDeleteIsSingleUse(t *testing.T) {
	ctx := context.Background()
	s, mr := newRedisStore(t)

	e := entry("abc", time.Minute)
	e.CodeChallenge = "challenge"
	e.CodeChallengeMethod = "S256"
	require.NoError(t, s.Put(ctx, e, time.Minute))
	assert.True(t, mr.Exists("test:authcode:abc"))

	got, err := s.GetAndDelete(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, "https://app.example.com/cb", got.RedirectURI)
	assert.Equal(t, "S256", got.CodeChallengeMethod)
	assert.False(t, mr.Exists("test:authcode:abc"))

	_, err = s.GetAndDelete(ctx, "abc")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedisStore_TTLExpiry(t *testing.T) {
	ctx := context.Background()
	s, mr := newRedisStore(t)

	require.NoError(t, s.Put(ctx, entry("ttl", time.Minute), time.Minute))
	mr.FastForward(2 * time.Minute)

	_, err := s.GetAndDelete(ctx, "ttl")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedisStore_EntryPastExpiresAtIsRejected(t *testing.T) {
	ctx := context.Background()
	s, _ := newRedisStore(t)

	e := entry("stale", time.Minute)
	s.now = func() time.Time { return time.Now().Add(time.Hour) }
	require.NoError(t, s.Put(ctx, e, time.Minute))

	_, err := s.GetAndDelete(ctx, "stale")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedisStore_SweepAndPing(t *testing.T) {
	s, _ := newRedisStore(t)
	n, err := s.Sweep(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.NoError(t, s.Ping(context.Background()))
}
