package middleware

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestLimiterEnforcesLimit(t *testing.T) {
	l := NewInMemoryRateLimiter(3, time.Minute)
	for i := 0; i < 3; i++ {
		assert.True(t, l.Allow("user:1"), "request %d", i)
	}
	assert.False(t, l.Allow("user:1"))
}

func TestLimiterIsPerKey(t *testing.T) {
	l := NewInMemoryRateLimiter(1, time.Minute)
	assert.True(t, l.Allow("user:1"))
	assert.False(t, l.Allow("user:1"))
	assert.True(t, l.Allow("user:2"))
	assert.True(t, l.Allow("ip:10.0.0.1"))
}

func TestLimiterWindowExpiry(t *testing.T) {
	l := NewInMemoryRateLimiter(1, 20*time.Millisecond)
	assert.True(t, l.Allow("user:1"))
	assert.False(t, l.Allow("user:1"))
	time.Sleep(30 * time.Millisecond)
	assert.True(t, l.Allow("user:1"))
}

func TestRateLimitByUserKeysOnIdentity(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	// Stand-in for AuthRequired: identity comes from a header.
	r.Use(func(c *gin.Context) {
		if v := c.GetHeader("X-User"); v != "" {
			var id uint
			fmt.Sscanf(v, "%d", &id)
			c.Set("user_id", id)
		}
		c.Next()
	})
	r.Use(RateLimitByUser(NewInMemoryRateLimiter(1, time.Minute)))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	do := func(user string) int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if user != "" {
			req.Header.Set("X-User", user)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Code
	}

	// Two users behind the same source IP get independent budgets.
	assert.Equal(t, http.StatusOK, do("7"))
	assert.Equal(t, http.StatusTooManyRequests, do("7"))
	assert.Equal(t, http.StatusOK, do("8"))
	// Anonymous traffic falls back to the shared IP key.
	assert.Equal(t, http.StatusOK, do(""))
	assert.Equal(t, http.StatusTooManyRequests, do(""))
}
