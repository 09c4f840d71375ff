package handler

import (
	"sync"
	"time"
)

// In-memory token bucket per key (host + client IP).
// Not shared across instances.
type tokenBucket struct {
	tokens float64
	last   time.Time
}

type SimpleRateLimiter struct {
	buckets map[string]*tokenBucket
	mu      sync.Mutex
	rate    float64
	burst   float64
	now     func() time.Time
}

// NewSimpleRateLimiter returns nil when rate is zero, which disables limiting.
func NewSimpleRateLimiter(rate, burst float64) *SimpleRateLimiter {
	if rate <= 0 {
		return nil
	}
	if burst < 1 {
		burst = 1
	}
	return &SimpleRateLimiter{
		buckets: make(map[string]*tokenBucket),
		rate:    rate,
		burst:   burst,
		now:     time.Now,
	}
}

func (s *SimpleRateLimiter) Allow(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.buckets[key]
	now := s.now()
	if !ok {
		s.buckets[key] = &tokenBucket{tokens: s.burst - 1, last: now}
		return true
	}
	elapsed := now.Sub(b.last).Seconds()
	b.tokens += elapsed * s.rate
	if b.tokens > s.burst {
		b.tokens = s.burst
	}
	b.last = now
	if b.tokens >= 1 {
		b.tokens -= 1
		return true
	}
	return false
}

// Prune drops buckets untouched for longer than idle.
func (s *SimpleRateLimiter) Prune(idle time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	cutoff := s.now().Add(-idle)
	n := 0
	for k, b := range s.buckets {
		if b.last.Before(cutoff) {
			delete(s.buckets, k)
			n++
		}
	}
	return n
}
