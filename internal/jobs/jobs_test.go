package jobs

import (
	"context"
	"errors"
	"fittrack/internal/models"
	"fittrack/internal/ratelimit"
	"fittrack/internal/repository"
	"fittrack/internal/repository/memory"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingObserver struct {
	mu   sync.Mutex
	runs map[string][]error
}

func (o *recordingObserver) ObserveJob(name string, err error, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.runs == nil {
		o.runs = make(map[string][]error)
	}
	o.runs[name] = append(o.runs[name], err)
}

type stubJob struct {
	BaseJob
	name string
	err  error
	ran  chan struct{}
}

func (j *stubJob) Name() string { return j.name }

func (j *stubJob) Run(context.Context) error {
	select {
	case j.ran <- struct{}{}:
	default:
	}
	return j.err
}

func TestManager_RunJob(t *testing.T) {
	observer := &recordingObserver{}
	m := NewManager(observer)
	failing := errors.New("boom")
	m.RegisterJob(&stubJob{BaseJob: NewBaseJob(Config{Enabled: true}), name: "ok", ran: make(chan struct{}, 1)})
	m.RegisterJob(&stubJob{BaseJob: NewBaseJob(Config{Enabled: true}), name: "failing", err: failing, ran: make(chan struct{}, 1)})
	m.RegisterJob(&stubJob{BaseJob: NewBaseJob(Config{Enabled: false}), name: "off", ran: make(chan struct{}, 1)})

	tests := []struct {
		name    string
		job     string
		wantErr error
	}{
		{name: "Runs enabled job", job: "ok"},
		{name: "Propagates job error", job: "failing", wantErr: failing},
		{name: "Refuses disabled job", job: "off", wantErr: ErrJobDisabled},
		{name: "Unknown job", job: "missing", wantErr: ErrJobNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := m.RunJob(context.Background(), tt.job)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
		})
	}

	assert.Equal(t, []error{nil}, observer.runs["ok"])
	assert.Equal(t, []error{failing}, observer.runs["failing"])
	assert.NotContains(t, observer.runs, "off")
}

func TestManager_Schedule(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{name: "Valid schedule", config: Config{Schedule: "*/5 * * * *", Enabled: true}},
		{name: "Disabled without schedule", config: Config{Enabled: false}},
		{name: "Missing schedule", config: Config{Enabled: true}, wantErr: true},
		{name: "Seconds field rejected", config: Config{Schedule: "0 */5 * * * *", Enabled: true}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewManager(nil)
			m.RegisterJob(&stubJob{BaseJob: NewBaseJob(tt.config), name: "job"})

			err := m.Schedule(context.Background())
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestManager_StartSchedulerStopsOnCancel(t *testing.T) {
	m := NewManager(nil)
	m.RegisterJob(&stubJob{BaseJob: NewBaseJob(Config{Schedule: "* * * * *", Enabled: true}), name: "job"})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m.StartScheduler(ctx) }()

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not stop")
	}
}

func TestRateLimitSweep(t *testing.T) {
	ctx := context.Background()
	store := ratelimit.NewMemoryStore()
	start := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)

	_, err := store.Increment(ctx, "email:a@example.com", time.Minute, start)
	require.NoError(t, err)
	_, err = store.Increment(ctx, "ip:10.0.0.1", time.Hour, start)
	require.NoError(t, err)

	job := NewRateLimitSweep(Config{Schedule: "* * * * *", Enabled: true}, store)
	job.now = func() time.Time { return start.Add(5 * time.Minute) }

	m := NewManager(nil)
	m.RegisterJob(job)
	require.NoError(t, m.RunJob(ctx, RateLimitSweepName))
	assert.Equal(t, 1, store.Len())
}

func TestAuditRetention(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewAuditLogRepository(memory.NewDB())

	now := time.Now().UTC()
	for _, age := range []time.Duration{100 * 24 * time.Hour, 91 * 24 * time.Hour, time.Hour} {
		require.NoError(t, repo.Create(ctx, &models.CreateAuditLogRequest{
			Action:      models.AuditActionPasswordResetRequested,
			EntityType:  "reset_token",
			Description: "Password reset requested",
			CreatedAt:   now.Add(-age),
		}))
	}

	m := NewManager(nil)
	m.RegisterJob(NewAuditRetention(Config{Schedule: "30 3 * * *", Enabled: true}, repo, 90*24*time.Hour))
	require.NoError(t, m.RunJob(ctx, AuditRetentionName))

	remaining, err := repo.List(ctx, repository.AuditLogFilter{})
	require.NoError(t, err)
	require.Len(t, remaining, 1)
}

type sweeperFunc func(ctx context.Context, now time.Time) (int, error)

func (f sweeperFunc) Sweep(ctx context.Context, now time.Time) (int, error) {
	return f(ctx, now)
}

func TestSweepers(t *testing.T) {
	errSweep := errors.New("sweep failed")
	calls := 0
	count := func(n int, err error) Sweeper {
		return sweeperFunc(func(context.Context, time.Time) (int, error) {
			calls++
			return n, err
		})
	}

	tests := []struct {
		name      string
		sweepers  Sweepers
		wantTotal int
		wantCalls int
		wantErr   error
	}{
		{name: "Empty", sweepers: nil},
		{name: "Sums removed", sweepers: Sweepers{count(2, nil), count(3, nil)}, wantTotal: 5, wantCalls: 2},
		{name: "Stops on error", sweepers: Sweepers{count(1, errSweep), count(3, nil)}, wantTotal: 1, wantCalls: 1, wantErr: errSweep},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls = 0
			total, err := tt.sweepers.Sweep(context.Background(), time.Now())
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.wantTotal, total)
			assert.Equal(t, tt.wantCalls, calls)
		})
	}
}
