package memory

import (
	"context"
	"fittrack/internal/models"
	"fittrack/internal/repository"
	"strings"
	"time"

	"github.com/google/uuid"
)

type userRepository struct {
	base
}

// NewUserRepository creates an in-memory user repository
func NewUserRepository(db *DB) repository.UserRepository {
	return &userRepository{base{db: db}}
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	defer r.serialize(ctx)()

	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	email := strings.ToLower(strings.TrimSpace(user.Email))
	if _, exists := r.db.emailIdx[email]; exists {
		return repository.ErrEmailExists
	}

	now := time.Now().UTC()
	user.ID = uuid.New()
	user.Email = email
	user.CreatedAt = now
	user.UpdatedAt = now

	stored := *user
	r.db.users[user.ID] = &stored
	r.db.emailIdx[email] = user.ID
	return nil
}

func (r *userRepository) GetByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	u, ok := r.db.users[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	out := *u
	return &out, nil
}

func (r *userRepository) GetByEmail(_ context.Context, email string) (*models.User, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	id, ok := r.db.emailIdx[strings.ToLower(strings.TrimSpace(email))]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	out := *r.db.users[id]
	return &out, nil
}

func (r *userRepository) UpdatePassword(ctx context.Context, id uuid.UUID, hashedPassword string, changedAt time.Time) error {
	defer r.serialize(ctx)()

	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	u, ok := r.db.users[id]
	if !ok {
		return repository.ErrUserNotFound
	}
	u.Password = hashedPassword
	u.PasswordChangedAt = &changedAt
	u.UpdatedAt = changedAt
	return nil
}
