package middleware

import (
	"context"
	"fittrack/internal/config"
	"fittrack/internal/models"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// DefaultIdleTimeout is how long an IP may stay silent before its bucket is swept
const DefaultIdleTimeout = 10 * time.Minute

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter throttles every route per client IP using a token bucket
type RateLimiter struct {
	visitors map[string]*visitor
	mu       sync.Mutex
	rate     rate.Limit
	burst    int
	idle     time.Duration
	window   int // Window size in seconds, reported in headers
	requests int // Requests per window, reported in headers
	now      func() time.Time
}

// NewRateLimiter creates a new rate limiter middleware
func NewRateLimiter(cfg *config.Config) *RateLimiter {
	requests := cfg.RateLimit.Requests
	if requests < 1 {
		requests = 1
	}
	window := cfg.RateLimit.Window
	if window < 1 {
		window = 1
	}
	burst := cfg.RateLimit.Burst
	if burst < 1 {
		burst = requests
	}

	return &RateLimiter{
		visitors: make(map[string]*visitor),
		rate:     rate.Every(time.Duration(window) * time.Second / time.Duration(requests)),
		burst:    burst,
		idle:     DefaultIdleTimeout,
		window:   window,
		requests: requests,
		now:      time.Now,
	}
}

// getLimiter returns the bucket for key and marks it as seen at now
func (rl *RateLimiter) getLimiter(key string, now time.Time) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	v, exists := rl.visitors[key]
	if !exists {
		v = &visitor{limiter: rate.NewLimiter(rl.rate, rl.burst)}
		rl.visitors[key] = v
	}
	v.lastSeen = now
	return v.limiter
}

// Sweep drops buckets that have been idle longer than the idle timeout and
// returns how many were removed
func (rl *RateLimiter) Sweep(_ context.Context, now time.Time) (int, error) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	removed := 0
	for key, v := range rl.visitors {
		if now.Sub(v.lastSeen) > rl.idle {
			delete(rl.visitors, key)
			removed++
		}
	}
	return removed, nil
}

// Len returns the number of tracked client IPs
func (rl *RateLimiter) Len() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.visitors)
}

// Middleware returns a Gin middleware function that implements rate limiting
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		now := rl.now()
		limiter := rl.getLimiter(c.ClientIP(), now)

		c.Header("X-RateLimit-Limit", strconv.Itoa(rl.requests))

		if !limiter.AllowN(now, 1) {
			delay := limiter.ReserveN(now, 1)
			wait := delay.DelayFrom(now)
			delay.CancelAt(now)

			retryAfter := int(wait.Seconds())
			if wait%time.Second != 0 {
				retryAfter++
			}
			if retryAfter < 1 {
				retryAfter = 1
			}

			c.Header("X-RateLimit-Remaining", "0")
			c.Header("X-RateLimit-Reset", strconv.FormatInt(now.Add(wait).Unix(), 10))
			c.Header("Retry-After", strconv.Itoa(retryAfter))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, models.ErrorResponse{Error: "rate_limited"})
			return
		}

		remaining := int(limiter.TokensAt(now))
		if remaining < 0 {
			remaining = 0
		}
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(now.Add(time.Duration(rl.window)*time.Second).Unix(), 10))

		c.Next()
	}
}
