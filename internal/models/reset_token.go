package models

import (
	"time"

	"github.com/google/uuid"
)

// ResetToken is a persisted password reset credential. The raw bearer token is
// never stored; only its argon2id hash.
type ResetToken struct {
	ID          uuid.UUID  `json:"id" db:"id"`
	UserID      uuid.UUID  `json:"user_id" db:"user_id"`
	HashedToken string     `json:"-" db:"hashed_token"`
	Code        string     `json:"-" db:"code"`
	ExpiresAt   time.Time  `json:"expires_at" db:"expires_at"`
	ConsumedAt  *time.Time `json:"consumed_at,omitempty" db:"consumed_at"`
	Attempts    int        `json:"attempts" db:"attempts"`
	IP          string     `json:"ip" db:"ip"`
	UserAgent   string     `json:"user_agent" db:"user_agent"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
}

// IsActive reports whether the token is unconsumed and unexpired at now
func (t *ResetToken) IsActive(now time.Time) bool {
	return t.ConsumedAt == nil && now.Before(t.ExpiresAt)
}
