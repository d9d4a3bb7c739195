package server

import (
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/time/rate"
)

// clientLimiter keeps one token bucket per client key. Least recently seen
// clients are evicted once size is reached.
type clientLimiter struct {
	mu      sync.Mutex
	limit   rate.Limit
	burst   int
	buckets *lru.Cache[string, *rate.Limiter]
}

// newClientLimiter returns nil when rps is not positive, which allows everything.
func newClientLimiter(rps float64, burst, size int) *clientLimiter {
	if rps <= 0 {
		return nil
	}
	if burst <= 0 {
		burst = 1
	}
	buckets, err := lru.New[string, *rate.Limiter](size)
	if err != nil {
		return nil
	}
	return &clientLimiter{limit: rate.Limit(rps), burst: burst, buckets: buckets}
}

func (l *clientLimiter) allow(key string) bool {
	if l == nil {
		return true
	}
	if key == "" {
		key = "anonymous"
	}
	l.mu.Lock()
	b, ok := l.buckets.Get(key)
	if !ok {
		b = rate.NewLimiter(l.limit, l.burst)
		l.buckets.Add(key, b)
	}
	l.mu.Unlock()
	return b.Allow()
}
