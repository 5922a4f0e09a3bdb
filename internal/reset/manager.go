// Package reset manages the password reset token lifecycle: issuing a token
// and code pair, verifying it, counting failed attempts, locking out and
// consuming it.
package reset

import (
	"context"
	"errors"
	"fittrack/internal/audit"
	"fittrack/internal/models"
	"fittrack/internal/ratelimit"
	"fittrack/internal/repository"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// Limit scopes
const (
	ScopeRequest  = "reset-request"
	ScopeVerify   = "reset-verify"
	ScopeComplete = "reset-complete"
)

// Codec generates reset secrets and verifies them against stored hashes
type Codec interface {
	GenerateToken() (string, error)
	GenerateCode(length int) (string, error)
	Hash(secret string) (string, error)
	Verify(encodedHash, candidate string) bool
}

// Config holds lifecycle settings
type Config struct {
	TokenTTL    time.Duration
	CodeLength  int
	MaxAttempts int
	Lockout     time.Duration
}

// DefaultConfig returns a 10 minute token with a 6 digit code, locked for 15
// minutes after 5 failed attempts.
func DefaultConfig() Config {
	return Config{
		TokenTTL:    10 * time.Minute,
		CodeLength:  6,
		MaxAttempts: 5,
		Lockout:     15 * time.Minute,
	}
}

// Issued is the result of a reset request. Token is only ever held in memory
// and delivered to the user; the store keeps its hash.
type Issued struct {
	TokenID   uuid.UUID
	UserID    uuid.UUID
	Token     string
	Code      string
	ExpiresAt time.Time
}

// Option configures a Manager
type Option func(*Manager)

// WithClock overrides the time source
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

// WithLimiter enables per-identifier rate limiting
func WithLimiter(l *ratelimit.Limiter) Option {
	return func(m *Manager) {
		m.limiter = l
	}
}

// WithAudit sets the audit logger
func WithAudit(l *audit.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.audit = l
		}
	}
}

// Manager drives reset tokens through their lifecycle
type Manager struct {
	tokens  repository.ResetTokenRepository
	codec   Codec
	cfg     Config
	limiter *ratelimit.Limiter
	audit   *audit.Logger
	now     func() time.Time
}

// NewManager creates a manager. Zero config values fall back to DefaultConfig.
func NewManager(tokens repository.ResetTokenRepository, codec Codec, cfg Config, opts ...Option) *Manager {
	def := DefaultConfig()
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = def.TokenTTL
	}
	if cfg.CodeLength <= 0 {
		cfg.CodeLength = def.CodeLength
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = def.MaxAttempts
	}
	if cfg.Lockout <= 0 {
		cfg.Lockout = def.Lockout
	}

	m := &Manager{
		tokens: tokens,
		codec:  codec,
		cfg:    cfg,
		audit:  audit.NewLogger(nil),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Config returns the effective lifecycle settings
func (m *Manager) Config() Config {
	return m.cfg
}

// CheckLimits applies the IP limit for scope and, when meta carries an email,
// the email limit. The first exceeded limit is returned as a *RateLimitError.
func (m *Manager) CheckLimits(ctx context.Context, scope string, meta audit.Meta) error {
	if m.limiter == nil {
		return nil
	}

	if meta.IP != "" {
		res, err := m.limiter.CheckIP(ctx, scope, meta.IP)
		if err != nil {
			return internalError("check ip limit", err)
		}
		if !res.Allowed {
			return m.rateLimited(ctx, scope, "ip", res, meta)
		}
	}

	if meta.Email != "" {
		res, err := m.limiter.CheckEmail(ctx, meta.Email)
		if err != nil {
			return internalError("check email limit", err)
		}
		if !res.Allowed {
			return m.rateLimited(ctx, scope, "email", res, meta)
		}
	}
	return nil
}

func (m *Manager) rateLimited(ctx context.Context, scope, identifier string, res ratelimit.Result, meta audit.Meta) error {
	retryAfter := res.RetryAfter(m.now())
	m.audit.Record(ctx, audit.PasswordResetRateLimited, nil, nil, meta, map[string]string{
		"scope":       scope,
		"identifier":  identifier,
		"retry_after": strconv.Itoa(int(retryAfter.Seconds())),
	})
	return &RateLimitError{Scope: identifier, RetryAfter: retryAfter}
}

// RequestReset issues a fresh token for userID, consuming every token the
// user still had active.
func (m *Manager) RequestReset(ctx context.Context, userID uuid.UUID, meta audit.Meta) (*Issued, error) {
	token, err := m.codec.GenerateToken()
	if err != nil {
		return nil, internalError("generate token", err)
	}
	code, err := m.codec.GenerateCode(m.cfg.CodeLength)
	if err != nil {
		return nil, internalError("generate code", err)
	}
	hashed, err := m.codec.Hash(token)
	if err != nil {
		return nil, internalError("hash token", err)
	}

	now := m.now()
	record := &models.ResetToken{
		UserID:      userID,
		HashedToken: hashed,
		Code:        code,
		ExpiresAt:   now.Add(m.cfg.TokenTTL),
		IP:          meta.IP,
		UserAgent:   meta.UserAgent,
	}
	if err := m.tokens.ReplaceActive(ctx, record, now); err != nil {
		return nil, internalError("store token", err)
	}

	m.audit.Record(ctx, audit.PasswordResetRequested, &userID, &record.ID, meta, map[string]string{
		"expires_at": record.ExpiresAt.UTC().Format(time.RFC3339),
	})

	return &Issued{
		TokenID:   record.ID,
		UserID:    userID,
		Token:     token,
		Code:      code,
		ExpiresAt: record.ExpiresAt,
	}, nil
}

// Decoy generates and hashes a token the way RequestReset does, then
// discards it. Requests for unknown accounts call it so they take as long as
// real ones.
func (m *Manager) Decoy() error {
	token, err := m.codec.GenerateToken()
	if err != nil {
		return internalError("generate token", err)
	}
	if _, err := m.codec.GenerateCode(m.cfg.CodeLength); err != nil {
		return internalError("generate code", err)
	}
	if _, err := m.codec.Hash(token); err != nil {
		return internalError("hash token", err)
	}
	return nil
}

// Validate finds the active token carrying code whose hash matches token. It
// does not consume the token. When nothing matches, a failed attempt is
// recorded on every active token sharing the code.
func (m *Manager) Validate(ctx context.Context, code, token string, meta audit.Meta) (*models.ResetToken, error) {
	candidates, err := m.tokens.FindActiveByCode(ctx, code, m.now())
	if err != nil {
		return nil, internalError("find tokens", err)
	}

	var match *models.ResetToken
	for i := range candidates {
		if m.codec.Verify(candidates[i].HashedToken, token) {
			match = &candidates[i]
			break
		}
	}

	if match == nil {
		if len(candidates) == 0 {
			m.audit.Record(ctx, audit.PasswordResetFailed, nil, nil, meta, map[string]string{
				"reason": "unknown_code",
			})
		}
		for _, c := range candidates {
			if _, err := m.RecordFailedAttempt(ctx, c.ID, meta); err != nil {
				return nil, err
			}
		}
		return nil, ErrInvalidTokenOrCode
	}

	if m.IsLocked(match) {
		m.audit.Record(ctx, audit.PasswordResetLocked, &match.UserID, &match.ID, meta, map[string]string{
			"attempts": strconv.Itoa(match.Attempts),
		})
		return nil, ErrLocked
	}

	m.audit.Record(ctx, audit.PasswordResetVerified, &match.UserID, &match.ID, meta, nil)
	return match, nil
}

// RecordFailedAttempt increments the attempt counter of a token and returns
// the new count.
func (m *Manager) RecordFailedAttempt(ctx context.Context, tokenID uuid.UUID, meta audit.Meta) (int, error) {
	attempts, err := m.tokens.IncrementAttempts(ctx, tokenID)
	if err != nil {
		if errors.Is(err, repository.ErrResetTokenInvalid) {
			return 0, ErrInvalidTokenOrCode
		}
		return 0, internalError("record attempt", err)
	}

	m.audit.Record(ctx, audit.PasswordResetFailed, nil, &tokenID, meta, map[string]string{
		"reason":   "token_mismatch",
		"attempts": strconv.Itoa(attempts),
	})
	return attempts, nil
}

// Consume marks a token as used. A token can be consumed once.
func (m *Manager) Consume(ctx context.Context, tokenID uuid.UUID, meta audit.Meta) error {
	record, err := m.tokens.GetByID(ctx, tokenID)
	if err != nil {
		if errors.Is(err, repository.ErrResetTokenInvalid) {
			return ErrInvalidTokenOrCode
		}
		return internalError("load token", err)
	}

	if err := m.consume(ctx, tokenID); err != nil {
		return err
	}
	m.audit.Record(ctx, audit.PasswordResetSucceeded, &record.UserID, &tokenID, meta, nil)
	return nil
}

func (m *Manager) consume(ctx context.Context, tokenID uuid.UUID) error {
	err := m.tokens.Consume(ctx, tokenID, m.now())
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrResetTokenUsed), errors.Is(err, repository.ErrResetTokenInvalid):
		return ErrInvalidTokenOrCode
	default:
		return internalError("consume token", err)
	}
}

// Complete validates the pair, then consumes the token and runs apply in one
// transaction. apply receives the transactional context and typically updates
// the user's password. The success event is emitted after commit.
func (m *Manager) Complete(ctx context.Context, code, token string, meta audit.Meta, apply func(ctx context.Context, record *models.ResetToken) error) (*models.ResetToken, error) {
	record, err := m.Validate(ctx, code, token, meta)
	if err != nil {
		return nil, err
	}

	err = m.tokens.Transaction(ctx, func(ctx context.Context) error {
		if err := m.consume(ctx, record.ID); err != nil {
			return err
		}
		if apply != nil {
			return apply(ctx, record)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrInvalidTokenOrCode) || errors.Is(err, ErrInternal) {
			return nil, err
		}
		return nil, internalError("complete reset", err)
	}

	m.audit.Record(ctx, audit.PasswordResetSucceeded, &record.UserID, &record.ID, meta, nil)
	return record, nil
}

// IsLocked reports whether record is inside a lockout window. Each attempt
// past the limit extends the window by one lockout period, counted from the
// token's creation.
func (m *Manager) IsLocked(record *models.ResetToken) bool {
	if record.Attempts < m.cfg.MaxAttempts {
		return false
	}
	over := record.Attempts - m.cfg.MaxAttempts + 1
	until := record.CreatedAt.Add(time.Duration(over) * m.cfg.Lockout)
	return m.now().Before(until)
}
