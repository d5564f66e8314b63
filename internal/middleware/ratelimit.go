package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// InMemoryRateLimiter is a sliding-window limiter. The key is chosen by the
// middleware: client IP before authentication, user ID after, since mobile
// clients behind carrier NAT share source addresses.
type InMemoryRateLimiter struct {
	mu       sync.Mutex
	requests map[string][]time.Time
	limit    int
	window   time.Duration
}

func NewInMemoryRateLimiter(limit int, window time.Duration) *InMemoryRateLimiter {
	r := &InMemoryRateLimiter{
		requests: make(map[string][]time.Time),
		limit:    limit,
		window:   window,
	}
	go r.cleanup()
	return r
}

func (r *InMemoryRateLimiter) Allow(key string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	times := r.trim(key, now)
	if len(times) >= r.limit {
		return false
	}
	r.requests[key] = append(times, now)
	return true
}

// trim drops entries older than the window. Timestamps are appended in order,
// so the slice stays sorted and a prefix scan suffices. Caller holds the lock.
func (r *InMemoryRateLimiter) trim(key string, now time.Time) []time.Time {
	cutoff := now.Add(-r.window)
	times := r.requests[key]
	i := 0
	for i < len(times) && !times[i].After(cutoff) {
		i++
	}
	times = times[i:]
	if len(times) == 0 {
		delete(r.requests, key)
	} else {
		r.requests[key] = times
	}
	return times
}

func (r *InMemoryRateLimiter) cleanup() {
	tick := time.NewTicker(time.Minute)
	for range tick.C {
		r.mu.Lock()
		now := time.Now()
		for key := range r.requests {
			r.trim(key, now)
		}
		r.mu.Unlock()
	}
}

// RateLimitByIP limits by client IP; for routes reachable without a token.
func RateLimitByIP(limiter *InMemoryRateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !limiter.Allow("ip:" + c.ClientIP()) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}
		c.Next()
	}
}

// RateLimitByUser limits by the authenticated user ID, falling back to the
// client IP when the identity is not set. Must run after AuthRequired on
// routes that want per-user budgets.
func RateLimitByUser(limiter *InMemoryRateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := "ip:" + c.ClientIP()
		if id := GetUserID(c); id != 0 {
			key = "user:" + strconv.FormatUint(uint64(id), 10)
		}
		if !limiter.Allow(key) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}
		c.Next()
	}
}
