package rate

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"
	xrate "golang.org/x/time/rate"
)

// MemoryLimiter: un token bucket por clave. Los buckets inactivos expiran
// por go-cache, lo que acota la memoria con muchas IPs distintas.
type MemoryLimiter struct {
	buckets *gocache.Cache
	limit   xrate.Limit
	burst   int
	window  time.Duration
}

var _ Limiter = (*MemoryLimiter)(nil)

// NewMemoryLimiter permite max requests por window, con burst = max.
func NewMemoryLimiter(max int, window time.Duration) *MemoryLimiter {
	return &MemoryLimiter{
		buckets: gocache.New(2*window, window),
		limit:   xrate.Limit(float64(max) / window.Seconds()),
		burst:   max,
		window:  window,
	}
}

func (l *MemoryLimiter) Allow(_ context.Context, key string) (Result, error) {
	var lim *xrate.Limiter
	if v, ok := l.buckets.Get(key); ok {
		lim = v.(*xrate.Limiter)
	} else {
		lim = xrate.NewLimiter(l.limit, l.burst)
		if err := l.buckets.Add(key, lim, gocache.DefaultExpiration); err != nil {
			// otro request lo creó primero
			if v, ok := l.buckets.Get(key); ok {
				lim = v.(*xrate.Limiter)
			}
		}
	}
	// refresca el TTL del bucket
	l.buckets.SetDefault(key, lim)

	r := lim.Reserve()
	if d := r.Delay(); d > 0 {
		r.Cancel()
		return Result{Allowed: false, RetryAfter: d}, nil
	}
	return Result{Allowed: true, Remaining: int64(lim.Tokens())}, nil
}
