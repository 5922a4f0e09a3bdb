package models

import (
	"time"

	"github.com/google/uuid"
)

// AuditAction represents the type of security event recorded
type AuditAction string

const (
	AuditActionPasswordResetRequested   AuditAction = "password_reset_requested"
	AuditActionPasswordResetVerified    AuditAction = "password_reset_verified"
	AuditActionPasswordResetSucceeded   AuditAction = "password_reset_succeeded"
	AuditActionPasswordResetFailed      AuditAction = "password_reset_failed"
	AuditActionPasswordResetRateLimited AuditAction = "password_reset_rate_limited"
	AuditActionPasswordResetLocked      AuditAction = "password_reset_locked"
	AuditActionLogin                    AuditAction = "login"
	AuditActionRegister                 AuditAction = "register"
)

// AuditLog represents a record of security-relevant activity
type AuditLog struct {
	ID          uuid.UUID   `json:"id" db:"id"`
	UserID      *uuid.UUID  `json:"user_id" db:"user_id"` // Optional: unknown accounts have no user
	Action      AuditAction `json:"action" db:"action"`
	EntityType  string      `json:"entity_type" db:"entity_type"` // e.g. "reset_token", "user"
	EntityID    string      `json:"entity_id" db:"entity_id"`
	Description string      `json:"description" db:"description"`
	Metadata    string      `json:"metadata" db:"metadata"` // JSON object with additional context
	Email       string      `json:"email" db:"email"`
	IPAddress   string      `json:"ip_address" db:"ip_address"`
	UserAgent   string      `json:"user_agent" db:"user_agent"`
	CreatedAt   time.Time   `json:"created_at" db:"created_at"`
}

// CreateAuditLogRequest represents the request to create a new audit log entry
type CreateAuditLogRequest struct {
	UserID      *uuid.UUID  `json:"user_id"`
	Action      AuditAction `json:"action" binding:"required"`
	EntityType  string      `json:"entity_type" binding:"required"`
	EntityID    string      `json:"entity_id"`
	Description string      `json:"description" binding:"required"`
	Metadata    string      `json:"metadata"`
	Email       string      `json:"email"`
	IPAddress   string      `json:"ip_address"`
	UserAgent   string      `json:"user_agent"`
	CreatedAt   time.Time   `json:"created_at"`
}

// SecurityEventsQuery pages through the signed-in user's audit trail
type SecurityEventsQuery struct {
	Action string `form:"action" binding:"omitempty,max=64"`
	Limit  int    `form:"limit" binding:"omitempty,min=1,max=200"`
	Offset int    `form:"offset" binding:"omitempty,min=0"`
}

// SecurityEventsResponse lists audit entries, oldest first
type SecurityEventsResponse struct {
	Events []AuditLog `json:"events"`
}
