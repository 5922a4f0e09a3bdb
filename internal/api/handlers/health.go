package handlers

import (
	"context"
	"fittrack/internal/models"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Pinger checks that a storage backend is reachable
type Pinger interface {
	PingContext(ctx context.Context) error
}

type HealthHandler struct {
	db      Pinger
	storage string
}

// NewHealthHandler creates a health handler. db may be nil for in-memory storage.
func NewHealthHandler(db Pinger, storage string) *HealthHandler {
	return &HealthHandler{db: db, storage: storage}
}

// Health godoc
// @Summary Health check
// @Description Returns the health status of the API and its dependencies
// @Tags health
// @Accept json
// @Produce json
// @Success 200 {object} models.HealthResponse
// @Failure 503 {object} models.ErrorResponse "Service unavailable"
// @Router /health [get]
func (h *HealthHandler) Health(c *gin.Context) {
	if h.db != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := h.db.PingContext(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, models.ErrorResponse{Error: "database connection failed"})
			return
		}
	}

	c.JSON(http.StatusOK, models.HealthResponse{
		Status:  "healthy",
		Storage: h.storage,
		Time:    time.Now().UTC(),
	})
}
