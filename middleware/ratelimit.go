package middleware

import (
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

type rateLimiter struct {
	ips   map[string]*rate.Limiter
	mu    sync.Mutex
	rate  rate.Limit
	burst int
}

func (rl *rateLimiter) limiterFor(ip string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if limiter, exists := rl.ips[ip]; exists {
		return limiter
	}
	limiter := rate.NewLimiter(rl.rate, rl.burst)
	rl.ips[ip] = limiter
	return limiter
}

// RateLimitMiddleware applies a per-IP token bucket.
func RateLimitMiddleware(r rate.Limit, burst int) gin.HandlerFunc {
	rl := &rateLimiter{
		ips:   make(map[string]*rate.Limiter),
		rate:  r,
		burst: burst,
	}

	return func(c *gin.Context) {
		if !rl.limiterFor(c.ClientIP()).Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Rate limit exceeded"})
			return
		}
		c.Next()
	}
}
