package handlers_test

import (
	"context"
	"fittrack/internal/api/handlers"
	"fittrack/internal/auth"
	"fittrack/internal/config"
	"fittrack/internal/models"
	"fittrack/internal/repository/memory"
	"fittrack/internal/reset"
	"fittrack/internal/testutil"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingCodec counts the expensive codec calls made per request
type countingCodec struct {
	*auth.TokenCodec
	tokens atomic.Int32
	codes  atomic.Int32
	hashes atomic.Int32
}

func (c *countingCodec) GenerateToken() (string, error) {
	c.tokens.Add(1)
	return c.TokenCodec.GenerateToken()
}

func (c *countingCodec) GenerateCode(length int) (string, error) {
	c.codes.Add(1)
	return c.TokenCodec.GenerateCode(length)
}

func (c *countingCodec) Hash(secret string) (string, error) {
	c.hashes.Add(1)
	return c.TokenCodec.Hash(secret)
}

func (c *countingCodec) reset() {
	c.tokens.Store(0)
	c.codes.Store(0)
	c.hashes.Store(0)
}

func TestPasswordResetHandler_RequestCostsTheSameForUnknownEmail(t *testing.T) {
	inner, err := auth.NewTokenCodec(testutil.FastHashParams)
	require.NoError(t, err)
	codec := &countingCodec{TokenCodec: inner}

	db := memory.NewDB()
	users := memory.NewUserRepository(db)
	manager := reset.NewManager(memory.NewResetTokenRepository(db), codec, reset.DefaultConfig())
	mailer := testutil.NewMockEmailService()
	authService := auth.NewService(&config.AuthConfig{JWTSecret: "test_secret_key", AccessTokenTTL: time.Minute})
	handler := handlers.NewPasswordResetHandler(users, manager, authService, mailer, false)

	require.NoError(t, users.Create(context.Background(), &models.User{Name: "Runner", Email: "runner@example.com", Password: "hash"}))

	router := gin.New()
	router.POST("/request", handler.Request)

	type work struct {
		tokens, codes, hashes int32
		body                  string
	}
	send := func(addr string) work {
		codec.reset()
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/request", strings.NewReader(`{"email":"`+addr+`"}`))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		return work{codec.tokens.Load(), codec.codes.Load(), codec.hashes.Load(), w.Body.String()}
	}

	known := send("runner@example.com")
	unknown := send("ghost@example.com")

	assert.Equal(t, int32(1), known.hashes)
	assert.Equal(t, known, unknown)
	assert.Len(t, mailer.Sent(), 1, "only the real account gets an email")
}
