package reset

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrInvalidTokenOrCode covers unknown, mismatched, expired and consumed tokens
	ErrInvalidTokenOrCode = errors.New("invalid token or code")
	// ErrLocked means the token matched but too many failed attempts were recorded
	ErrLocked = errors.New("reset token locked")
	// ErrRateLimited means a per-identifier limit was exceeded
	ErrRateLimited = errors.New("rate limited")
	// ErrInternal wraps storage, randomness and limiter failures
	ErrInternal = errors.New("internal error")
)

// Code classifies reset failures
type Code string

const (
	CodeOK                 Code = "OK"
	CodeRateLimited        Code = "RATE_LIMITED"
	CodeInvalidTokenOrCode Code = "INVALID_TOKEN_OR_CODE"
	CodeLocked             Code = "LOCKED"
	CodeInternal           Code = "INTERNAL"
)

// CodeOf maps an error returned by the manager to its Code
func CodeOf(err error) Code {
	switch {
	case err == nil:
		return CodeOK
	case errors.Is(err, ErrRateLimited):
		return CodeRateLimited
	case errors.Is(err, ErrLocked):
		return CodeLocked
	case errors.Is(err, ErrInvalidTokenOrCode):
		return CodeInvalidTokenOrCode
	default:
		return CodeInternal
	}
}

// RateLimitError reports which limit was hit and when it resets
type RateLimitError struct {
	Scope      string
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limited on %s, retry after %s", e.Scope, e.RetryAfter)
}

func (e *RateLimitError) Unwrap() error {
	return ErrRateLimited
}

func internalError(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrInternal, op, err)
}
