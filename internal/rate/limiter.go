// Package rate implements fixed-window request limiting for write endpoints.
package rate

import (
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultCapacity bounds the number of keys tracked at once. The least
// recently used key is forgotten first.
const DefaultCapacity = 10000

type bucket struct {
	count   int
	resetAt time.Time
}

type Limiter struct {
	mu      sync.Mutex
	buckets *lru.Cache[string, *bucket]
	now     func() time.Time
}

func New(capacity int) (*Limiter, error) {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	c, err := lru.New[string, *bucket](capacity)
	if err != nil {
		return nil, err
	}
	return &Limiter{buckets: c, now: time.Now}, nil
}

// Allow counts one hit for key and reports whether it is within limit for
// the current window, plus the time left until the window resets.
// A non-positive limit disables limiting.
func (l *Limiter) Allow(key string, limit int, window time.Duration) (bool, time.Duration) {
	if limit <= 0 {
		return true, 0
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	b, ok := l.buckets.Get(key)
	if !ok || !now.Before(b.resetAt) {
		b = &bucket{resetAt: now.Add(window)}
		l.buckets.Add(key, b)
	}
	if b.count >= limit {
		return false, b.resetAt.Sub(now)
	}
	b.count++
	return true, b.resetAt.Sub(now)
}

// Len reports how many keys are tracked.
func (l *Limiter) Len() int {
	return l.buckets.Len()
}
