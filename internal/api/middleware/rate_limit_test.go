package middleware

import (
	"context"
	"fittrack/internal/config"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newThrottleConfig(requests, window, burst int) *config.Config {
	cfg := &config.Config{}
	cfg.RateLimit.Requests = requests
	cfg.RateLimit.Window = window
	cfg.RateLimit.Burst = burst
	return cfg
}

func newThrottledRouter(rl *RateLimiter) *gin.Engine {
	router := gin.New()
	router.Use(rl.Middleware())
	router.GET("/test", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return router
}

func doRequest(router *gin.Engine, ip string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.RemoteAddr = ip + ":1234"
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestRateLimiter(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name          string
		requests      int
		window        int
		burst         int
		sent          int
		expectedCodes []int
	}{
		{
			name:          "Under limit",
			requests:      10,
			window:        1,
			burst:         10,
			sent:          3,
			expectedCodes: []int{200, 200, 200},
		},
		{
			name:          "At limit",
			requests:      2,
			window:        60,
			burst:         2,
			sent:          2,
			expectedCodes: []int{200, 200},
		},
		{
			name:          "Exceeds limit",
			requests:      2,
			window:        60,
			burst:         2,
			sent:          3,
			expectedCodes: []int{200, 200, 429},
		},
		{
			name:          "Burst defaults to requests",
			requests:      1,
			window:        60,
			burst:         0,
			sent:          2,
			expectedCodes: []int{200, 429},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rl := NewRateLimiter(newThrottleConfig(tt.requests, tt.window, tt.burst))
			now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
			rl.now = func() time.Time { return now }
			router := newThrottledRouter(rl)

			for i := 0; i < tt.sent; i++ {
				w := doRequest(router, "192.168.1.1")
				assert.Equal(t, tt.expectedCodes[i], w.Code, "request %d", i+1)
				assert.NotEmpty(t, w.Header().Get("X-RateLimit-Limit"))
				if w.Code == http.StatusTooManyRequests {
					assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))
					assert.NotEmpty(t, w.Header().Get("Retry-After"))
					assert.JSONEq(t, `{"error":"rate_limited"}`, w.Body.String())
				}
			}
		})
	}
}

func TestRateLimiter_SeparateIPs(t *testing.T) {
	gin.SetMode(gin.TestMode)

	rl := NewRateLimiter(newThrottleConfig(1, 60, 1))
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }
	router := newThrottledRouter(rl)

	require.Equal(t, http.StatusOK, doRequest(router, "10.0.0.1").Code)
	require.Equal(t, http.StatusTooManyRequests, doRequest(router, "10.0.0.1").Code)
	require.Equal(t, http.StatusOK, doRequest(router, "10.0.0.2").Code)
}

func TestRateLimiter_Refill(t *testing.T) {
	gin.SetMode(gin.TestMode)

	rl := NewRateLimiter(newThrottleConfig(1, 1, 1))
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }
	router := newThrottledRouter(rl)

	require.Equal(t, http.StatusOK, doRequest(router, "10.0.0.1").Code)
	w := doRequest(router, "10.0.0.1")
	require.Equal(t, http.StatusTooManyRequests, w.Code)
	require.Equal(t, "1", w.Header().Get("Retry-After"))

	now = now.Add(time.Second)
	require.Equal(t, http.StatusOK, doRequest(router, "10.0.0.1").Code)
}

func TestRateLimiter_Sweep(t *testing.T) {
	gin.SetMode(gin.TestMode)

	rl := NewRateLimiter(newThrottleConfig(10, 60, 10))
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }
	router := newThrottledRouter(rl)

	doRequest(router, "10.0.0.1")
	now = now.Add(DefaultIdleTimeout / 2)
	doRequest(router, "10.0.0.2")
	require.Equal(t, 2, rl.Len())

	removed, err := rl.Sweep(context.Background(), now.Add(DefaultIdleTimeout/2+time.Second))
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
	assert.Equal(t, 1, rl.Len())
}
