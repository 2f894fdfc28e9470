// Package ratelimit keeps one token bucket per client key.
package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// DefaultIdle is how long a client may stay silent before its bucket is
// dropped.
const DefaultIdle = 3 * time.Minute

// Keyed rate-limits callers independently by key (client IP, chat ID).
// Idle buckets are evicted during Allow, so no background goroutine is
// needed.
type Keyed[K comparable] struct {
	mu      sync.Mutex
	clients map[K]*client
	limit   rate.Limit
	burst   int
	idle    time.Duration
	sweep   time.Time
	now     func() time.Time
}

type client struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// PerMinute allows perMinute events per key per minute with bursts of up to
// burst. A burst below 1 defaults to perMinute.
func PerMinute[K comparable](perMinute, burst int) *Keyed[K] {
	if burst < 1 {
		burst = perMinute
	}
	return &Keyed[K]{
		clients: make(map[K]*client),
		limit:   rate.Limit(float64(perMinute) / 60),
		burst:   burst,
		idle:    DefaultIdle,
		now:     time.Now,
	}
}

// Allow reports whether key may proceed now and consumes a token if so.
func (k *Keyed[K]) Allow(key K) bool {
	k.mu.Lock()
	defer k.mu.Unlock()

	now := k.now()
	if now.Sub(k.sweep) > k.idle {
		for id, c := range k.clients {
			if now.Sub(c.lastSeen) > k.idle {
				delete(k.clients, id)
			}
		}
		k.sweep = now
	}

	c, ok := k.clients[key]
	if !ok {
		c = &client{limiter: rate.NewLimiter(k.limit, k.burst)}
		k.clients[key] = c
	}
	c.lastSeen = now
	return c.limiter.AllowN(now, 1)
}

// Len returns the number of tracked keys.
func (k *Keyed[K]) Len() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.clients)
}
