package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const codeKeyPrefix = "authcode:"

// RedisStore implementa CodeStore sobre Redis. Los TTL los maneja Redis,
// por lo que Sweep no tiene trabajo que hacer.
type RedisStore struct {
	client *redis.Client
	prefix string
	now    func() time.Time
}

var _ CodeStore = (*RedisStore)(nil)

// NewRedisStore usa un cliente ya conectado (compartido con el rate limiter).
func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	return &RedisStore{client: client, prefix: prefix, now: time.Now}
}

func (r *RedisStore) key(code string) string {
	return r.prefix + codeKeyPrefix + code
}

func (r *RedisStore) Put(ctx context.Context, entry AuthCode, ttl time.Duration) error {
	b, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("cache: marshal code: %w", err)
	}
	if err := r.client.Set(ctx, r.key(entry.Code), b, ttl).Err(); err != nil {
		return fmt.Errorf("cache: redis set: %w", err)
	}
	return nil
}

func (r *RedisStore) GetAndDelete(ctx context.Context, code string) (*AuthCode, error) {
	b, err := r.client.GetDel(ctx, r.key(code)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("cache: redis getdel: %w", err)
	}

	var entry AuthCode
	if err := json.Unmarshal(b, &entry); err != nil {
		return nil, fmt.Errorf("cache: unmarshal code: %w", err)
	}
	if entry.Expired(r.now()) {
		return nil, ErrNotFound
	}
	return &entry, nil
}

func (r *RedisStore) Sweep(context.Context) (int, error) { return 0, nil }

// Ping verifica la conexión (/ready).
func (r *RedisStore) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
