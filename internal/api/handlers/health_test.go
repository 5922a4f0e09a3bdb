package handlers_test

import (
	"context"
	"errors"
	"fittrack/internal/api/handlers"
	"fittrack/internal/models"
	"fittrack/internal/testutil"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

type stubPinger struct {
	err error
}

func (p stubPinger) PingContext(context.Context) error {
	return p.err
}

func TestHealthHandler_Health(t *testing.T) {
	tests := []struct {
		name       string
		db         handlers.Pinger
		wantStatus int
	}{
		{
			name:       "Memory Storage",
			db:         nil,
			wantStatus: http.StatusOK,
		},
		{
			name:       "Database Up",
			db:         stubPinger{},
			wantStatus: http.StatusOK,
		},
		{
			name:       "Database Down",
			db:         stubPinger{err: errors.New("connection refused")},
			wantStatus: http.StatusServiceUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := gin.New()
			router.GET("/health", handlers.NewHealthHandler(tt.db, "test").Health)

			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
			require.Equal(t, tt.wantStatus, w.Code)

			if tt.wantStatus == http.StatusOK {
				var resp models.HealthResponse
				testutil.DecodeJSON(t, w, &resp)
				require.Equal(t, "healthy", resp.Status)
				require.Equal(t, "test", resp.Storage)
			} else {
				var resp models.ErrorResponse
				testutil.DecodeJSON(t, w, &resp)
				require.Equal(t, "database connection failed", resp.Error)
			}
		})
	}
}

func TestHealthHandler_ThroughRouter(t *testing.T) {
	tc := testutil.NewTestContext(t)

	w := tc.Do(testutil.Request{Method: http.MethodGet, Path: "/api/v1/health"})
	require.Equal(t, http.StatusOK, w.Code)

	var resp models.HealthResponse
	testutil.DecodeJSON(t, w, &resp)
	require.Equal(t, "memory", resp.Storage)
}
