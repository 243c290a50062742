package cache

import (
	"context"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// MemoryStore implementa CodeStore sobre go-cache. El janitor de go-cache
// corre cada sweepInterval, así que los codes expirados no quedan
// residentes aunque no entren codes nuevos.
type MemoryStore struct {
	mu  sync.Mutex
	c   *gocache.Cache
	now func() time.Time
}

var _ CodeStore = (*MemoryStore)(nil)

// MemoryOption configura el MemoryStore.
type MemoryOption func(*MemoryStore)

// WithClock hace que la expiración se decida con now (AuthCode.ExpiresAt)
// en lugar del reloj de pared. El TTL de go-cache queda como cota superior.
func WithClock(now func() time.Time) MemoryOption {
	return func(m *MemoryStore) {
		if now != nil {
			m.now = now
		}
	}
}

// NewMemoryStore crea el store. sweepInterval <= 0 desactiva el janitor y
// deja solo el sweep en cada Put.
func NewMemoryStore(defaultTTL, sweepInterval time.Duration, opts ...MemoryOption) *MemoryStore {
	if sweepInterval < 0 {
		sweepInterval = 0
	}
	m := &MemoryStore{
		c:   gocache.New(defaultTTL, sweepInterval),
		now: time.Now,
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

func (m *MemoryStore) Put(_ context.Context, entry AuthCode, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.sweepLocked()
	m.c.Set(entry.Code, entry, ttl)
	return nil
}

func (m *MemoryStore) GetAndDelete(_ context.Context, code string) (*AuthCode, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	v, ok := m.c.Get(code)
	m.c.Delete(code)
	if !ok {
		return nil, ErrNotFound
	}
	entry, ok := v.(AuthCode)
	if !ok || entry.Expired(m.now()) {
		return nil, ErrNotFound
	}
	return &entry, nil
}

func (m *MemoryStore) Sweep(_ context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.sweepLocked(), nil
}

// sweepLocked purga por TTL de go-cache y por ExpiresAt según m.now.
func (m *MemoryStore) sweepLocked() int {
	before := m.c.ItemCount()
	m.c.DeleteExpired()
	now := m.now()
	for k, it := range m.c.Items() {
		if entry, ok := it.Object.(AuthCode); ok && entry.Expired(now) {
			m.c.Delete(k)
		}
	}
	return before - m.c.ItemCount()
}

// Len retorna la cantidad de entries (incluye expirados aún no purgados).
func (m *MemoryStore) Len() int {
	return m.c.ItemCount()
}
