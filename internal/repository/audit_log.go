package repository

import (
	"context"
	"fittrack/internal/models"
	"time"

	"github.com/google/uuid"
)

// AuditLogRepository defines the interface for audit log operations
type AuditLogRepository interface {
	Create(ctx context.Context, log *models.CreateAuditLogRequest) error
	List(ctx context.Context, filter AuditLogFilter) ([]models.AuditLog, error)
	GetByUserID(ctx context.Context, userID uuid.UUID, filter AuditLogFilter) ([]models.AuditLog, error)
	CleanupOld(ctx context.Context, olderThan time.Duration) (int64, error)
}

// AuditLogFilter defines the filter options for listing audit logs
type AuditLogFilter struct {
	UserID        *uuid.UUID           // Filter by user ID
	Actions       []models.AuditAction // Filter by actions
	EntityIDs     []string             // Filter by entity IDs
	IPAddress     *string              // Filter by IP address
	CreatedBefore *time.Time
	CreatedAfter  *time.Time
	Limit         *int
	Offset        *int
}
