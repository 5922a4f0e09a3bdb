// Package testutil provides utilities for testing
package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"fittrack/internal/api/server"
	"fittrack/internal/audit"
	"fittrack/internal/auth"
	"fittrack/internal/config"
	"fittrack/internal/email"
	"fittrack/internal/models"
	"fittrack/internal/repository"
	"fittrack/internal/validation"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// FastHashParams keeps argon2id cheap in tests
var FastHashParams = auth.HashParams{
	Memory:      8 * 1024,
	Time:        1,
	Parallelism: 1,
	SaltLength:  16,
	KeyLength:   32,
}

// Clock is a settable time source
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

func NewClock(now time.Time) *Clock {
	return &Clock{now: now}
}

func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d
func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// MockEmailService records password reset emails instead of sending them
type MockEmailService struct {
	mu   sync.Mutex
	sent []email.PasswordReset
	// Err is returned by every send when set
	Err error
}

func NewMockEmailService() *MockEmailService {
	return &MockEmailService{}
}

func (s *MockEmailService) SendPasswordResetEmail(msg email.PasswordReset) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, msg)
	return s.Err
}

// Sent returns the recorded emails in send order
func (s *MockEmailService) Sent() []email.PasswordReset {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]email.PasswordReset(nil), s.sent...)
}

// Last returns the most recent email, failing the test when none was sent
func (s *MockEmailService) Last(t *testing.T) email.PasswordReset {
	t.Helper()
	sent := s.Sent()
	require.NotEmpty(t, sent, "no password reset email was sent")
	return sent[len(sent)-1]
}

// TestContext holds common test dependencies
type TestContext struct {
	T            *testing.T
	Config       *config.Config
	Server       *server.Server
	Router       *gin.Engine
	UserRepo     repository.UserRepository
	AuditRepo    repository.AuditLogRepository
	AuthService  *auth.Service
	EmailService *MockEmailService
	Audit        *audit.MemorySink
	Registry     *prometheus.Registry
	Clock        *Clock
}

// TestConfig returns an in-memory configuration with the default reset
// settings and a permissive global throttle
func TestConfig() *config.Config {
	cfg := &config.Config{
		StorageDriver: config.DriverMemory,
		API:           config.APIConfig{Port: "0"},
		Auth: config.AuthConfig{
			JWTSecret:        "test_secret_key",
			AccessTokenTTL:   15 * time.Minute,
			RegistrationOpen: true,
		},
		Email: config.EmailConfig{AppURL: "https://app.fittrack.test"},
		Reset: config.ResetConfig{
			TokenTTL:    10 * time.Minute,
			CodeLength:  6,
			MaxAttempts: 5,
			Lockout:     15 * time.Minute,
		},
		Limits: config.LimitsConfig{
			Driver:           config.DriverMemory,
			EmailHourlyLimit: 5,
			IPHourlyLimit:    20,
		},
		Jobs: config.JobsConfig{
			RateLimitSweep:     "* * * * *",
			AuditRetention:     "30 3 * * *",
			AuditRetentionDays: 90,
		},
	}
	cfg.RateLimit.Requests = 10000
	cfg.RateLimit.Window = 60
	cfg.RateLimit.Burst = 10000
	return cfg
}

// NewTestContext creates a new in-memory test context. modify may adjust the
// configuration before the server is assembled.
func NewTestContext(t *testing.T, modify ...func(*config.Config)) *TestContext {
	t.Helper()

	gin.SetMode(gin.TestMode)
	validation.Initialize()

	cfg := TestConfig()
	for _, fn := range modify {
		fn(cfg)
	}

	clock := NewClock(time.Now().UTC())
	sink := audit.NewMemorySink()
	mailer := NewMockEmailService()
	reg := prometheus.NewRegistry()

	srv, err := server.New(cfg,
		server.WithEmailSender(mailer),
		server.WithAuditSink(sink),
		server.WithRegistry(reg),
		server.WithHashParams(FastHashParams),
		server.WithClock(clock.Now),
	)
	require.NoError(t, err, "Failed to assemble server")

	tc := &TestContext{
		T:            t,
		Config:       cfg,
		Server:       srv,
		Router:       srv.Router(),
		UserRepo:     srv.Users,
		AuditRepo:    srv.AuditLogs,
		AuthService:  srv.AuthService,
		EmailService: mailer,
		Audit:        sink,
		Registry:     reg,
		Clock:        clock,
	}

	t.Cleanup(func() {
		if err := srv.Close(); err != nil {
			t.Errorf("Failed to close server: %v", err)
		}
	})

	return tc
}

// CreateTestUser creates a test user with the given details and returns the created user
func (tc *TestContext) CreateTestUser(name, email, password string) *models.User {
	tc.T.Helper()

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(tc.T, err, "Failed to hash password")

	user := &models.User{
		Name:     name,
		Email:    email,
		Password: string(hashedPassword),
	}
	err = tc.UserRepo.Create(context.Background(), user)
	require.NoError(tc.T, err, "Failed to create test user")

	return user
}

// GetTestJWT generates a JWT token for testing
func (tc *TestContext) GetTestJWT(userID uuid.UUID) string {
	tc.T.Helper()

	user, err := tc.UserRepo.GetByID(context.Background(), userID)
	require.NoError(tc.T, err, "Failed to get user")

	token, err := tc.AuthService.GenerateAccessToken(user)
	require.NoError(tc.T, err, "Failed to generate test JWT")
	return token
}

// Request describes a JSON request sent through the router
type Request struct {
	Method    string
	Path      string
	Body      any
	Token     string
	IP        string
	UserAgent string
}

// Do serves req through the router and returns the recorded response
func (tc *TestContext) Do(req Request) *httptest.ResponseRecorder {
	tc.T.Helper()

	var body bytes.Buffer
	if req.Body != nil {
		require.NoError(tc.T, json.NewEncoder(&body).Encode(req.Body))
	}

	httpReq := httptest.NewRequest(req.Method, req.Path, &body)
	httpReq.Header.Set("Content-Type", "application/json")
	if req.Token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+req.Token)
	}
	if req.UserAgent != "" {
		httpReq.Header.Set("User-Agent", req.UserAgent)
	}
	ip := req.IP
	if ip == "" {
		ip = "192.0.2.1"
	}
	httpReq.RemoteAddr = ip + ":12345"

	w := httptest.NewRecorder()
	tc.Router.ServeHTTP(w, httpReq)
	return w
}

// DecodeJSON unmarshals the response body into v
func DecodeJSON(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v), "Failed to decode response: %s", w.Body.String())
}

// Post is a shorthand for a JSON POST from ip
func (tc *TestContext) Post(path string, body any, ip string) *httptest.ResponseRecorder {
	tc.T.Helper()
	return tc.Do(Request{Method: http.MethodPost, Path: path, Body: body, IP: ip})
}
