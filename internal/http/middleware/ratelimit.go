package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// visitor tracks a single client's token bucket and its last activity, so
// idle buckets can be evicted.
type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiterStore is a concurrency-safe registry of per-client token
// buckets keyed by caller identity.
type RateLimiterStore struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	r        rate.Limit
	burst    int
	ttl      time.Duration
}

// NewRateLimiterStore builds a store allowing r requests per second with the
// given burst. Buckets idle longer than ttl are evicted by Cleanup.
func NewRateLimiterStore(r rate.Limit, burst int, ttl time.Duration) *RateLimiterStore {
	return &RateLimiterStore{
		visitors: make(map[string]*visitor),
		r:        r,
		burst:    burst,
		ttl:      ttl,
	}
}

// Allow reports whether the caller identified by key may proceed.
func (s *RateLimiterStore) Allow(key string) bool {
	s.mu.Lock()
	v, ok := s.visitors[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(s.r, s.burst)}
		s.visitors[key] = v
	}
	v.lastSeen = time.Now()
	s.mu.Unlock()
	return v.limiter.Allow()
}

// Cleanup evicts buckets that have been idle longer than the store TTL.
// Call it periodically from a background goroutine.
func (s *RateLimiterStore) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	cutoff := time.Now().Add(-s.ttl)
	for k, v := range s.visitors {
		if v.lastSeen.Before(cutoff) {
			delete(s.visitors, k)
		}
	}
}

// Len returns the number of tracked clients. Exposed for tests.
func (s *RateLimiterStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.visitors)
}

// KeyByUserOrIP keys the bucket by authenticated user id when available,
// otherwise by client IP, so authenticated clients are not penalised for
// sharing a NAT.
func KeyByUserOrIP(c *gin.Context) string {
	if uid := UserID(c); uid != "" {
		return "u:" + uid
	}
	return "ip:" + c.ClientIP()
}

// RateLimiter rejects requests over the per-client budget with 429. When
// bypass is true the middleware is a no-op, useful in tests and local dev.
func RateLimiter(store *RateLimiterStore, keyFn func(*gin.Context) string, bypass bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		if bypass {
			c.Next()
			return
		}
		if !store.Allow(keyFn(c)) {
			lg := LoggerFrom(c)
			lg.Warn().Str("client_ip", c.ClientIP()).Msg("rate limit exceeded")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"request_id": c.Writer.Header().Get(requestIDHeader),
				"code":       "rate_limited",
				"message":    "too many requests",
			})
			return
		}
		c.Next()
	}
}
