// Package ratelimit bounds security-sensitive operations per identifier using
// fixed windows: a request budget that resets a fixed time after the first
// request of the window.
package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrStoreUnavailable wraps failures of the backing counter store
var ErrStoreUnavailable = errors.New("rate limit store unavailable")

// Default hourly policies for password reset identifiers
const (
	DefaultEmailLimit = 5
	DefaultIPLimit    = 20
	DefaultWindow     = time.Hour
)

// Entry is the counter state of one identifier
type Entry struct {
	Count     int
	ResetTime time.Time
}

// Result is the outcome of a single check
type Result struct {
	Allowed   bool
	Remaining int
	ResetTime time.Time
}

// RetryAfter returns how long the caller should wait before retrying
func (r Result) RetryAfter(now time.Time) time.Duration {
	if r.Allowed || !r.ResetTime.After(now) {
		return 0
	}
	return r.ResetTime.Sub(now)
}

// Store atomically increments the counter for key. When no entry exists or
// now is past its ResetTime, the store opens a fresh window with Count 1 that
// resets at now+window.
type Store interface {
	Increment(ctx context.Context, key string, window time.Duration, now time.Time) (Entry, error)
}

// Observer receives every limiter decision
type Observer interface {
	ObserveRateLimit(scope string, allowed bool)
}

// Policy is a fixed window budget
type Policy struct {
	Window      time.Duration
	MaxRequests int
}

// Config holds the per-identifier policies
type Config struct {
	Email Policy
	IP    Policy
}

// DefaultConfig returns the hourly email and IP policies
func DefaultConfig() Config {
	return Config{
		Email: Policy{Window: DefaultWindow, MaxRequests: DefaultEmailLimit},
		IP:    Policy{Window: DefaultWindow, MaxRequests: DefaultIPLimit},
	}
}

// Option configures a Limiter
type Option func(*Limiter)

// WithClock overrides the time source
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) {
		if now != nil {
			l.now = now
		}
	}
}

// WithObserver registers an observer for limiter decisions
func WithObserver(o Observer) Option {
	return func(l *Limiter) {
		l.observer = o
	}
}

// Limiter checks identifiers against fixed window budgets
type Limiter struct {
	store    Store
	config   Config
	now      func() time.Time
	observer Observer
}

// New creates a limiter backed by store
func New(store Store, cfg Config, opts ...Option) *Limiter {
	l := &Limiter{
		store:  store,
		config: cfg,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Check records one request for identifier and reports whether it fits in
// the budget of maxRequests per window.
func (l *Limiter) Check(ctx context.Context, identifier string, window time.Duration, maxRequests int) (Result, error) {
	now := l.now()
	entry, err := l.store.Increment(ctx, identifier, window, now)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	result := Result{ResetTime: entry.ResetTime}
	if entry.Count <= maxRequests {
		result.Allowed = true
		result.Remaining = maxRequests - entry.Count
	}

	if l.observer != nil {
		l.observer.ObserveRateLimit(scopeOf(identifier), result.Allowed)
	}
	return result, nil
}

// CheckEmail applies the email policy to a normalized address
func (l *Limiter) CheckEmail(ctx context.Context, email string) (Result, error) {
	return l.Check(ctx, EmailKey(email), l.config.Email.Window, l.config.Email.MaxRequests)
}

// CheckIP applies the IP policy under the given scope, e.g. "reset-request"
func (l *Limiter) CheckIP(ctx context.Context, scope, ip string) (Result, error) {
	return l.Check(ctx, IPKey(scope, ip), l.config.IP.Window, l.config.IP.MaxRequests)
}

// EmailKey builds the identifier for an email address
func EmailKey(email string) string {
	return "email:" + strings.ToLower(strings.TrimSpace(email))
}

// IPKey builds the identifier for an IP address within a scope
func IPKey(scope, ip string) string {
	if scope == "" {
		return "ip:" + ip
	}
	return "ip:" + scope + ":" + ip
}

func scopeOf(identifier string) string {
	kind, rest, ok := strings.Cut(identifier, ":")
	if !ok {
		return "other"
	}
	if kind == "ip" {
		if scope, _, ok := strings.Cut(rest, ":"); ok {
			return "ip:" + scope
		}
	}
	return kind
}
