package server

import (
	"context"
	"fittrack/internal/auth"
	"fittrack/internal/config"
	"fittrack/internal/jobs"
	"fittrack/internal/models"
	"fittrack/internal/ratelimit"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fastHash = WithHashParams(auth.HashParams{Memory: 8 * 1024, Time: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32})

func testConfig() *config.Config {
	cfg := &config.Config{
		StorageDriver: config.DriverMemory,
		API:           config.APIConfig{Port: "0"},
		Auth:          config.AuthConfig{JWTSecret: "test_secret_key", AccessTokenTTL: time.Minute},
		Reset:         config.ResetConfig{TokenTTL: 10 * time.Minute, CodeLength: 6, MaxAttempts: 5, Lockout: 15 * time.Minute},
		Limits:        config.LimitsConfig{Driver: config.DriverMemory, EmailHourlyLimit: 5, IPHourlyLimit: 20},
		Jobs:          config.JobsConfig{RateLimitSweep: "* * * * *", AuditRetention: "30 3 * * *", AuditRetentionDays: 90},
	}
	cfg.RateLimit.Requests = 100
	cfg.RateLimit.Window = 60
	cfg.RateLimit.Burst = 100
	return cfg
}

func newTestServer(t *testing.T, cfg *config.Config, opts ...Option) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	opts = append([]Option{fastHash, WithRegistry(prometheus.NewRegistry())}, opts...)
	srv, err := New(cfg, opts...)
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, srv.Close())
	})
	return srv
}

func TestNew_MemoryStorage(t *testing.T) {
	srv := newTestServer(t, testConfig())

	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"storage":"memory"`)

	w = httptest.NewRecorder()
	srv.Router().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "fittrack_endpoint_latency_seconds")

	for _, name := range []string{jobs.RateLimitSweepName, jobs.AuditRetentionName} {
		job, ok := srv.Jobs().GetJob(name)
		require.True(t, ok, name)
		assert.True(t, job.GetConfig().Enabled, name)
	}
}

func TestNew_UnsupportedStorage(t *testing.T) {
	cfg := testConfig()
	cfg.StorageDriver = "mongo"

	_, err := New(cfg, fastHash, WithRegistry(prometheus.NewRegistry()))
	require.Error(t, err)
}

func TestNew_RedisLimiter(t *testing.T) {
	mr := miniredis.RunT(t)

	cfg := testConfig()
	cfg.Limits.Driver = config.DriverRedis
	cfg.Limits.EmailHourlyLimit = 1
	cfg.Redis = config.RedisConfig{Addr: mr.Addr(), KeyPrefix: "test:rl:"}

	srv := newTestServer(t, cfg)
	ctx := context.Background()

	user := &models.User{Email: "runner@example.com", Name: "Runner", Password: "hash"}
	require.NoError(t, srv.Users.Create(ctx, user))

	send := func() int {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/password-reset/request",
			strings.NewReader(`{"email":"runner@example.com"}`))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		srv.Router().ServeHTTP(w, req)
		return w.Code
	}

	require.Equal(t, http.StatusOK, send())
	require.Equal(t, http.StatusTooManyRequests, send())
	assert.True(t, mr.Exists("test:rl:"+ratelimit.EmailKey("runner@example.com")))

	// The sweep job is a no-op for redis but still runs cleanly
	require.NoError(t, srv.Jobs().RunJob(ctx, jobs.RateLimitSweepName))
}

func TestNew_RedisUnavailable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	cfg := testConfig()
	cfg.Limits.Driver = config.DriverRedis
	cfg.Redis = config.RedisConfig{Addr: addr}

	_, err := New(cfg, fastHash, WithRegistry(prometheus.NewRegistry()))
	require.Error(t, err)
}

func TestRun_StopsOnCancel(t *testing.T) {
	srv := newTestServer(t, testConfig())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- srv.Run(ctx)
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
