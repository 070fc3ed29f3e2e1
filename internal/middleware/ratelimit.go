package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// rateLimiter is a sliding-window request counter keyed by client IP.
// State is in-process, so a multi-instance deployment limits per
// instance, not globally.
type rateLimiter struct {
	mu     sync.Mutex
	hits   map[string][]time.Time
	limit  int
	window time.Duration
}

func (l *rateLimiter) allow(key string, now time.Time) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	recent := l.prune(key, now)
	if len(recent) >= l.limit {
		return false
	}
	l.hits[key] = append(recent, now)
	return true
}

// prune drops timestamps that have left the window. Callers hold mu.
func (l *rateLimiter) prune(key string, now time.Time) []time.Time {
	cutoff := now.Add(-l.window)
	hits := l.hits[key]
	i := 0
	for i < len(hits) && !hits[i].After(cutoff) {
		i++
	}
	return hits[i:]
}

// sweep periodically evicts idle keys so the map does not grow with
// every IP ever seen.
func (l *rateLimiter) sweep() {
	for range time.Tick(time.Minute) {
		now := time.Now()
		l.mu.Lock()
		for key := range l.hits {
			if recent := l.prune(key, now); len(recent) == 0 {
				delete(l.hits, key)
			} else {
				l.hits[key] = recent
			}
		}
		l.mu.Unlock()
	}
}

// RateLimit allows at most limit requests per client IP per window.
func RateLimit(limit int, window time.Duration) gin.HandlerFunc {
	l := &rateLimiter{
		hits:   make(map[string][]time.Time),
		limit:  limit,
		window: window,
	}
	go l.sweep()
	return func(c *gin.Context) {
		if !l.allow(c.ClientIP(), time.Now()) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}
		c.Next()
	}
}
