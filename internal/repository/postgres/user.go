package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fittrack/internal/models"
	"fittrack/internal/repository"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

const uniqueViolation = "23505"

type userRepository struct {
	repository.BaseRepository
}

// NewUserRepository creates a new PostgreSQL user repository
func NewUserRepository(db *sql.DB) repository.UserRepository {
	return &userRepository{
		BaseRepository: repository.NewBaseRepository(db),
	}
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (id, email, name, password, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $5)
		RETURNING created_at, updated_at`

	now := time.Now().UTC()
	user.ID = uuid.New()
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))

	err := r.Conn(ctx).QueryRowContext(ctx, query,
		user.ID,
		user.Email,
		user.Name,
		user.Password,
		now,
	).Scan(&user.CreatedAt, &user.UpdatedAt)

	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return repository.ErrEmailExists
	}
	return err
}

func (r *userRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	query := `
		SELECT id, email, name, password, password_changed_at, created_at, updated_at
		FROM users
		WHERE id = $1`

	return r.scanUser(r.Conn(ctx).QueryRowContext(ctx, query, id))
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `
		SELECT id, email, name, password, password_changed_at, created_at, updated_at
		FROM users
		WHERE LOWER(email) = LOWER($1)`

	return r.scanUser(r.Conn(ctx).QueryRowContext(ctx, query, strings.TrimSpace(email)))
}

func (r *userRepository) UpdatePassword(ctx context.Context, id uuid.UUID, hashedPassword string, changedAt time.Time) error {
	query := `
		UPDATE users
		SET password = $1, password_changed_at = $2, updated_at = $2
		WHERE id = $3`

	result, err := r.Conn(ctx).ExecContext(ctx, query, hashedPassword, changedAt, id)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return repository.ErrUserNotFound
	}

	return nil
}

func (r *userRepository) scanUser(row *sql.Row) (*models.User, error) {
	user := &models.User{}
	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.Name,
		&user.Password,
		&user.PasswordChangedAt,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, repository.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}
