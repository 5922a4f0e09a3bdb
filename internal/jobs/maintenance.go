package jobs

import (
	"context"
	"fittrack/internal/repository"
	"fmt"
	"log"
	"time"
)

// Job names
const (
	RateLimitSweepName = "ratelimit-sweep"
	AuditRetentionName = "audit-retention"
)

// Sweeper drops expired rate limit entries
type Sweeper interface {
	Sweep(ctx context.Context, now time.Time) (int, error)
}

// Sweepers runs several sweepers in order and sums what they removed. The
// first error stops the sweep.
type Sweepers []Sweeper

func (s Sweepers) Sweep(ctx context.Context, now time.Time) (int, error) {
	total := 0
	for _, sw := range s {
		n, err := sw.Sweep(ctx, now)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// RateLimitSweep removes expired fixed-window counters from the limiter store
type RateLimitSweep struct {
	BaseJob
	sweeper Sweeper
	now     func() time.Time
}

// NewRateLimitSweep creates the sweep job
func NewRateLimitSweep(config Config, sweeper Sweeper) *RateLimitSweep {
	return &RateLimitSweep{
		BaseJob: NewBaseJob(config),
		sweeper: sweeper,
		now:     time.Now,
	}
}

func (j *RateLimitSweep) Name() string {
	return RateLimitSweepName
}

func (j *RateLimitSweep) Run(ctx context.Context) error {
	removed, err := j.sweeper.Sweep(ctx, j.now())
	if err != nil {
		return fmt.Errorf("failed to sweep rate limit entries: %w", err)
	}
	if removed > 0 {
		log.Printf("Swept %d expired rate limit entries", removed)
	}
	return nil
}

// AuditRetention deletes audit log rows older than the retention period
type AuditRetention struct {
	BaseJob
	repo      repository.AuditLogRepository
	retention time.Duration
}

// NewAuditRetention creates the retention job
func NewAuditRetention(config Config, repo repository.AuditLogRepository, retention time.Duration) *AuditRetention {
	return &AuditRetention{
		BaseJob:   NewBaseJob(config),
		repo:      repo,
		retention: retention,
	}
}

func (j *AuditRetention) Name() string {
	return AuditRetentionName
}

func (j *AuditRetention) Run(ctx context.Context) error {
	if j.retention <= 0 {
		return nil
	}
	removed, err := j.repo.CleanupOld(ctx, j.retention)
	if err != nil {
		return fmt.Errorf("failed to clean up audit logs: %w", err)
	}
	log.Printf("Removed %d audit log entries older than %s", removed, j.retention)
	return nil
}
