package middleware_test

import (
	"context"
	"encoding/json"
	"fittrack/internal/api/middleware"
	"fittrack/internal/models"
	"fittrack/internal/testutil"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

const password = "Correct-Horse-9"

func signClaims(t *testing.T, secret string, claims jwt.RegisteredClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func TestAuthMiddleware_AuthRequired(t *testing.T) {
	tests := []struct {
		name       string
		setupAuth  func(*testutil.TestContext) string
		header     string
		wantStatus int
		wantErr    string
	}{
		{
			name: "Valid Token",
			setupAuth: func(tc *testutil.TestContext) string {
				user := tc.CreateTestUser("Runner", "runner@example.com", password)
				return tc.GetTestJWT(user.ID)
			},
			wantStatus: http.StatusOK,
		},
		{
			name:       "Missing Authorization Header",
			wantStatus: http.StatusUnauthorized,
			wantErr:    "no authorization header",
		},
		{
			name:       "Invalid Authorization Header Format",
			header:     "InvalidFormat Token",
			wantStatus: http.StatusUnauthorized,
			wantErr:    "invalid authorization header",
		},
		{
			name: "Wrong Signing Secret",
			setupAuth: func(tc *testutil.TestContext) string {
				return signClaims(t, "wrong-secret", jwt.RegisteredClaims{
					Subject:   uuid.NewString(),
					IssuedAt:  jwt.NewNumericDate(time.Now()),
					ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
				})
			},
			wantStatus: http.StatusUnauthorized,
			wantErr:    "invalid token",
		},
		{
			name: "Expired Token",
			setupAuth: func(tc *testutil.TestContext) string {
				user := tc.CreateTestUser("Runner", "runner@example.com", password)
				return signClaims(t, tc.Config.Auth.JWTSecret, jwt.RegisteredClaims{
					Subject:   user.ID.String(),
					IssuedAt:  jwt.NewNumericDate(time.Now().Add(-2 * time.Hour)),
					ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
				})
			},
			wantStatus: http.StatusUnauthorized,
			wantErr:    "token expired",
		},
		{
			name: "Invalid Subject",
			setupAuth: func(tc *testutil.TestContext) string {
				return signClaims(t, tc.Config.Auth.JWTSecret, jwt.RegisteredClaims{
					Subject:   "not-a-uuid",
					IssuedAt:  jwt.NewNumericDate(time.Now()),
					ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
				})
			},
			wantStatus: http.StatusUnauthorized,
			wantErr:    "invalid user id in token",
		},
		{
			name: "User Not Found",
			setupAuth: func(tc *testutil.TestContext) string {
				token, err := tc.AuthService.GenerateAccessToken(&models.User{ID: uuid.New()})
				require.NoError(t, err)
				return token
			},
			wantStatus: http.StatusUnauthorized,
			wantErr:    "user not found",
		},
		{
			name: "Issued Before Password Change",
			setupAuth: func(tc *testutil.TestContext) string {
				user := tc.CreateTestUser("Runner", "runner@example.com", password)
				token := tc.GetTestJWT(user.ID)
				err := tc.UserRepo.UpdatePassword(context.Background(), user.ID, "rehashed", time.Now().Add(2*time.Second))
				require.NoError(t, err)
				return token
			},
			wantStatus: http.StatusUnauthorized,
			wantErr:    "token revoked",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tc := testutil.NewTestContext(t)

			authMiddleware := middleware.NewAuthMiddleware(tc.AuthService, tc.UserRepo)

			router := gin.New()
			router.GET("/test", authMiddleware.AuthRequired(), func(c *gin.Context) {
				user, exists := c.Get("user")
				require.True(t, exists)
				require.NotNil(t, user)
				c.Status(http.StatusOK)
			})

			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			header := tt.header
			if tt.setupAuth != nil {
				header = "Bearer " + tt.setupAuth(tc)
			}
			if header != "" {
				req.Header.Set("Authorization", header)
			}
			router.ServeHTTP(w, req)

			require.Equal(t, tt.wantStatus, w.Code)
			if tt.wantErr != "" {
				var resp gin.H
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
				require.Equal(t, tt.wantErr, resp["error"])
			}
		})
	}
}
