package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func entry(code string, ttl time.Duration) AuthCode {
	return AuthCode{
		Code:        code,
		ClientID:    "cl_test",
		RedirectURI: "https://app.example.com/cb",
		Scopes:      []string{"reservations:read"},
		UserID:      "user-1",
		ExpiresAt:   time.Now().Add(ttl),
	}
}

func TestMemoryStore_GetAndDeleteIsSingleUse(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(time.Minute, 0)

	require.NoError(t, s.Put(ctx, entry("abc", time.Minute), time.Minute))

	got, err := s.GetAndDelete(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, "cl_test", got.ClientID)
	assert.Equal(t, []string{"reservations:read"}, got.Scopes)

	_, err = s.GetAndDelete(ctx, "abc")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_ExpiredIsNotFound(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(time.Minute, 0)

	require.NoError(t, s.Put(ctx, entry("old", 20*time.Millisecond), 20*time.Millisecond))
	time.Sleep(40 * time.Millisecond)

	_, err := s.GetAndDelete(ctx, "old")
	assert.True(t, IsNotFound(err))
}

func TestMemoryStore_PutSweepsExpired(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(time.Minute, 0)

	require.NoError(t, s.Put(ctx, entry("a", 10*time.Millisecond), 10*time.Millisecond))
	require.NoError(t, s.Put(ctx, entry("b", 10*time.Millisecond), 10*time.Millisecond))
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, 2, s.Len())

	require.NoError(t, s.Put(ctx, entry("c", time.Minute), time.Minute))
	assert.Equal(t, 1, s.Len())
}

func TestMemoryStore_Sweep(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(time.Minute, 0)

	require.NoError(t, s.Put(ctx, entry("a", time.Minute), time.Minute))
	require.NoError(t, s.Put(ctx, entry("b", 10*time.Millisecond), 10*time.Millisecond))
	time.Sleep(30 * time.Millisecond)

	n, err := s.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 1, s.Len())
}

func TestMemoryStore_JanitorSweepsWithoutInserts(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(time.Minute, 20*time.Millisecond)

	require.NoError(t, s.Put(ctx, entry("idle", 10*time.Millisecond), 10*time.Millisecond))
	assert.Eventually(t, func() bool { return s.Len() == 0 }, time.Second, 10*time.Millisecond)
}

func TestMemoryStore_ConcurrentGetAndDeleteSingleWinner(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(time.Minute, 0)
	require.NoError(t, s.Put(ctx, entry("race", time.Minute), time.Minute))

	var wins int32
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.GetAndDelete(ctx, "race"); err == nil {
				atomic.AddInt32(&wins, 1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), wins)
}

func TestMemoryStore_InjectedClockDecidesExpiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	s := NewMemoryStore(time.Hour, 0, WithClock(clock))

	e := entry("fresh", 0)
	e.ExpiresAt = now.Add(10 * time.Minute)
	require.NoError(t, s.Put(ctx, e, time.Hour))
	e2 := entry("stale", 0)
	e2.ExpiresAt = now.Add(10 * time.Minute)
	require.NoError(t, s.Put(ctx, e2, time.Hour))

	now = now.Add(11 * time.Minute)

	_, err := s.GetAndDelete(ctx, "fresh")
	assert.ErrorIs(t, err, ErrNotFound)

	n, err := s.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Zero(t, s.Len())
}
