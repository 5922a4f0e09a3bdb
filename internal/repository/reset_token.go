package repository

import (
	"context"
	"fittrack/internal/models"
	"time"

	"github.com/google/uuid"
)

// ResetTokenRepository persists password reset tokens
type ResetTokenRepository interface {
	Repository
	// ReplaceActive consumes every active token of token.UserID and inserts
	// token, atomically. Returns ErrUserNotFound if the user does not exist.
	ReplaceActive(ctx context.Context, token *models.ResetToken, now time.Time) error
	// FindActiveByCode returns unconsumed, unexpired tokens carrying code.
	// Several users may share a code.
	FindActiveByCode(ctx context.Context, code string, now time.Time) ([]models.ResetToken, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.ResetToken, error)
	// IncrementAttempts bumps the failed attempt counter and returns the new value
	IncrementAttempts(ctx context.Context, id uuid.UUID) (int, error)
	// Consume marks an unconsumed token as used. Returns ErrResetTokenUsed if it
	// was already consumed and ErrResetTokenInvalid if it does not exist.
	Consume(ctx context.Context, id uuid.UUID, now time.Time) error
}
