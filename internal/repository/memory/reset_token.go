package memory

import (
	"context"
	"fittrack/internal/models"
	"fittrack/internal/repository"
	"sort"
	"time"

	"github.com/google/uuid"
)

type resetTokenRepository struct {
	base
}

// NewResetTokenRepository creates an in-memory reset token repository
func NewResetTokenRepository(db *DB) repository.ResetTokenRepository {
	return &resetTokenRepository{base{db: db}}
}

func (r *resetTokenRepository) ReplaceActive(ctx context.Context, token *models.ResetToken, now time.Time) error {
	defer r.serialize(ctx)()

	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.users[token.UserID]; !ok {
		return repository.ErrUserNotFound
	}

	for _, t := range r.db.tokens {
		if t.UserID == token.UserID && t.IsActive(now) {
			consumedAt := now
			t.ConsumedAt = &consumedAt
		}
	}

	if token.ID == uuid.Nil {
		token.ID = uuid.New()
	}
	token.CreatedAt = now

	stored := *token
	r.db.tokens[token.ID] = &stored
	return nil
}

func (r *resetTokenRepository) FindActiveByCode(_ context.Context, code string, now time.Time) ([]models.ResetToken, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	var out []models.ResetToken
	for _, t := range r.db.tokens {
		if t.Code == code && t.IsActive(now) {
			out = append(out, *t)
		}
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (r *resetTokenRepository) GetByID(_ context.Context, id uuid.UUID) (*models.ResetToken, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	t, ok := r.db.tokens[id]
	if !ok {
		return nil, repository.ErrResetTokenInvalid
	}
	out := *t
	return &out, nil
}

func (r *resetTokenRepository) IncrementAttempts(ctx context.Context, id uuid.UUID) (int, error) {
	defer r.serialize(ctx)()

	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	t, ok := r.db.tokens[id]
	if !ok {
		return 0, repository.ErrResetTokenInvalid
	}
	t.Attempts++
	return t.Attempts, nil
}

func (r *resetTokenRepository) Consume(ctx context.Context, id uuid.UUID, now time.Time) error {
	defer r.serialize(ctx)()

	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	t, ok := r.db.tokens[id]
	if !ok {
		return repository.ErrResetTokenInvalid
	}
	if t.ConsumedAt != nil {
		return repository.ErrResetTokenUsed
	}
	t.ConsumedAt = &now
	return nil
}
