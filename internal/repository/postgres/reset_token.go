package postgres

import (
	"context"
	"database/sql"
	"fittrack/internal/models"
	"fittrack/internal/repository"
	"time"

	"github.com/google/uuid"
)

type resetTokenRepository struct {
	repository.BaseRepository
}

// NewResetTokenRepository creates a new PostgreSQL reset token repository
func NewResetTokenRepository(db *sql.DB) repository.ResetTokenRepository {
	return &resetTokenRepository{
		BaseRepository: repository.NewBaseRepository(db),
	}
}

func (r *resetTokenRepository) ReplaceActive(ctx context.Context, token *models.ResetToken, now time.Time) error {
	return r.Transaction(ctx, func(ctx context.Context) error {
		conn := r.Conn(ctx)

		// Lock the user row so concurrent requests for the same user serialize
		var userID uuid.UUID
		err := conn.QueryRowContext(ctx,
			"SELECT id FROM users WHERE id = $1 FOR UPDATE", token.UserID).Scan(&userID)
		if err == sql.ErrNoRows {
			return repository.ErrUserNotFound
		}
		if err != nil {
			return err
		}

		_, err = conn.ExecContext(ctx, `
			UPDATE password_reset_tokens
			SET consumed_at = $1
			WHERE user_id = $2 AND consumed_at IS NULL AND expires_at > $1`,
			now, token.UserID)
		if err != nil {
			return err
		}

		if token.ID == uuid.Nil {
			token.ID = uuid.New()
		}
		token.CreatedAt = now

		_, err = conn.ExecContext(ctx, `
			INSERT INTO password_reset_tokens (
				id, user_id, hashed_token, code, expires_at,
				attempts, ip, user_agent, created_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			token.ID,
			token.UserID,
			token.HashedToken,
			token.Code,
			token.ExpiresAt,
			token.Attempts,
			token.IP,
			token.UserAgent,
			token.CreatedAt,
		)
		return err
	})
}

func (r *resetTokenRepository) FindActiveByCode(ctx context.Context, code string, now time.Time) ([]models.ResetToken, error) {
	query := `
		SELECT id, user_id, hashed_token, code, expires_at, consumed_at,
		       attempts, ip, user_agent, created_at
		FROM password_reset_tokens
		WHERE code = $1 AND consumed_at IS NULL AND expires_at > $2
		ORDER BY created_at DESC`

	rows, err := r.Conn(ctx).QueryContext(ctx, query, code, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tokens []models.ResetToken
	for rows.Next() {
		var t models.ResetToken
		if err := scanResetToken(rows, &t); err != nil {
			return nil, err
		}
		tokens = append(tokens, t)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return tokens, nil
}

func (r *resetTokenRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.ResetToken, error) {
	query := `
		SELECT id, user_id, hashed_token, code, expires_at, consumed_at,
		       attempts, ip, user_agent, created_at
		FROM password_reset_tokens
		WHERE id = $1`

	var t models.ResetToken
	err := scanResetToken(r.Conn(ctx).QueryRowContext(ctx, query, id), &t)
	if err == sql.ErrNoRows {
		return nil, repository.ErrResetTokenInvalid
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *resetTokenRepository) IncrementAttempts(ctx context.Context, id uuid.UUID) (int, error) {
	var attempts int
	err := r.Conn(ctx).QueryRowContext(ctx, `
		UPDATE password_reset_tokens
		SET attempts = attempts + 1
		WHERE id = $1
		RETURNING attempts`, id).Scan(&attempts)
	if err == sql.ErrNoRows {
		return 0, repository.ErrResetTokenInvalid
	}
	if err != nil {
		return 0, err
	}
	return attempts, nil
}

func (r *resetTokenRepository) Consume(ctx context.Context, id uuid.UUID, now time.Time) error {
	result, err := r.Conn(ctx).ExecContext(ctx, `
		UPDATE password_reset_tokens
		SET consumed_at = $1
		WHERE id = $2 AND consumed_at IS NULL`, now, id)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows > 0 {
		return nil
	}

	// Distinguish a replayed token from an unknown one
	var exists bool
	err = r.Conn(ctx).QueryRowContext(ctx,
		"SELECT EXISTS(SELECT 1 FROM password_reset_tokens WHERE id = $1)", id).Scan(&exists)
	if err != nil {
		return err
	}
	if exists {
		return repository.ErrResetTokenUsed
	}
	return repository.ErrResetTokenInvalid
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanResetToken(row rowScanner, t *models.ResetToken) error {
	return row.Scan(
		&t.ID,
		&t.UserID,
		&t.HashedToken,
		&t.Code,
		&t.ExpiresAt,
		&t.ConsumedAt,
		&t.Attempts,
		&t.IP,
		&t.UserAgent,
		&t.CreatedAt,
	)
}
