package audit

import (
	"context"
	"encoding/json"
	"fittrack/internal/models"
	"fittrack/internal/repository"
	"log"
)

// RepositorySink persists events to the audit_logs table
type RepositorySink struct {
	repo repository.AuditLogRepository
}

func NewRepositorySink(repo repository.AuditLogRepository) *RepositorySink {
	return &RepositorySink{repo: repo}
}

func (s *RepositorySink) Emit(ctx context.Context, event Event) {
	metadata := "{}"
	if len(event.Metadata) > 0 {
		data, err := json.Marshal(event.Metadata)
		if err != nil {
			log.Printf("Failed to encode audit metadata for %s: %v", event.Type, err)
		} else {
			metadata = string(data)
		}
	}

	req := &models.CreateAuditLogRequest{
		UserID:      event.UserID,
		Action:      event.Type,
		EntityType:  "user",
		Description: describe(event.Type),
		Metadata:    metadata,
		Email:       event.Email,
		IPAddress:   event.IP,
		UserAgent:   event.UserAgent,
		CreatedAt:   event.Timestamp,
	}
	switch {
	case event.TokenID != nil:
		req.EntityType = "reset_token"
		req.EntityID = event.TokenID.String()
	case event.UserID != nil:
		req.EntityID = event.UserID.String()
	}

	if err := s.repo.Create(ctx, req); err != nil {
		log.Printf("Failed to persist audit event %s: %v", event.Type, err)
	}
}

func describe(action models.AuditAction) string {
	switch action {
	case PasswordResetRequested:
		return "Password reset requested"
	case PasswordResetVerified:
		return "Password reset token verified"
	case PasswordResetSucceeded:
		return "Password reset completed"
	case PasswordResetFailed:
		return "Password reset verification failed"
	case PasswordResetRateLimited:
		return "Password reset rate limited"
	case PasswordResetLocked:
		return "Password reset token locked"
	case models.AuditActionLogin:
		return "User logged in"
	case models.AuditActionRegister:
		return "User registered"
	default:
		return string(action)
	}
}
