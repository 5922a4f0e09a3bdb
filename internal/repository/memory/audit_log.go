package memory

import (
	"context"
	"fittrack/internal/models"
	"fittrack/internal/repository"
	"slices"
	"time"

	"github.com/google/uuid"
)

type auditLogRepository struct {
	base
}

// NewAuditLogRepository creates an in-memory audit log repository
func NewAuditLogRepository(db *DB) repository.AuditLogRepository {
	return &auditLogRepository{base{db: db}}
}

func (r *auditLogRepository) Create(_ context.Context, log *models.CreateAuditLogRequest) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	createdAt := log.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	metadata := log.Metadata
	if metadata == "" {
		metadata = "{}"
	}

	r.db.audit = append(r.db.audit, models.AuditLog{
		ID:          uuid.New(),
		UserID:      log.UserID,
		Action:      log.Action,
		EntityType:  log.EntityType,
		EntityID:    log.EntityID,
		Description: log.Description,
		Metadata:    metadata,
		Email:       log.Email,
		IPAddress:   log.IPAddress,
		UserAgent:   log.UserAgent,
		CreatedAt:   createdAt,
	})
	return nil
}

func (r *auditLogRepository) List(_ context.Context, filter repository.AuditLogFilter) ([]models.AuditLog, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	var out []models.AuditLog
	for _, l := range r.db.audit {
		if matches(l, filter) {
			out = append(out, l)
		}
	}

	if filter.Offset != nil {
		if *filter.Offset >= len(out) {
			return nil, nil
		}
		out = out[*filter.Offset:]
	}
	if filter.Limit != nil && *filter.Limit < len(out) {
		out = out[:*filter.Limit]
	}
	return out, nil
}

func (r *auditLogRepository) GetByUserID(ctx context.Context, userID uuid.UUID, filter repository.AuditLogFilter) ([]models.AuditLog, error) {
	filter.UserID = &userID
	return r.List(ctx, filter)
}

func (r *auditLogRepository) CleanupOld(_ context.Context, olderThan time.Duration) (int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	cutoff := time.Now().Add(-olderThan)
	kept := r.db.audit[:0]
	var removed int64
	for _, l := range r.db.audit {
		if l.CreatedAt.Before(cutoff) {
			removed++
			continue
		}
		kept = append(kept, l)
	}
	r.db.audit = kept
	return removed, nil
}

func matches(l models.AuditLog, f repository.AuditLogFilter) bool {
	if f.UserID != nil && (l.UserID == nil || *l.UserID != *f.UserID) {
		return false
	}
	if len(f.Actions) > 0 && !slices.Contains(f.Actions, l.Action) {
		return false
	}
	if len(f.EntityIDs) > 0 && !slices.Contains(f.EntityIDs, l.EntityID) {
		return false
	}
	if f.IPAddress != nil && l.IPAddress != *f.IPAddress {
		return false
	}
	if f.CreatedBefore != nil && !l.CreatedAt.Before(*f.CreatedBefore) {
		return false
	}
	if f.CreatedAfter != nil && !l.CreatedAt.After(*f.CreatedAfter) {
		return false
	}
	return true
}
