// Package jobs runs maintenance tasks on cron schedules
package jobs

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Config represents the configuration for a job
type Config struct {
	// Schedule in cron format (e.g. "*/15 * * * *" for every 15 minutes)
	Schedule string `json:"schedule"`
	// Enabled determines if the job should run on schedule
	Enabled bool `json:"enabled"`
}

// Job is the interface that all scheduled jobs must implement
type Job interface {
	// Name returns the unique name of the job
	Name() string
	// Run executes the job once
	Run(ctx context.Context) error
	// GetConfig returns the job's configuration
	GetConfig() Config
}

// Observer receives the outcome of every job run
type Observer interface {
	ObserveJob(name string, err error, duration time.Duration)
}

// BaseJob contains common functionality for all jobs
type BaseJob struct {
	config Config
}

// NewBaseJob creates a new BaseJob
func NewBaseJob(config Config) BaseJob {
	return BaseJob{config: config}
}

// GetConfig returns the job's configuration
func (j *BaseJob) GetConfig() Config {
	return j.config
}

// Manager handles the scheduling and execution of jobs
type Manager struct {
	mu       sync.Mutex
	jobs     []Job
	cron     *cron.Cron
	observer Observer
}

// NewManager creates a new job manager
func NewManager(observer Observer) *Manager {
	// Create a new cron scheduler with seconds disabled
	c := cron.New(cron.WithParser(cron.NewParser(
		cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow,
	)))

	return &Manager{
		jobs:     make([]Job, 0),
		cron:     c,
		observer: observer,
	}
}

// RegisterJob adds a job to the manager
func (m *Manager) RegisterJob(j Job) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.jobs = append(m.jobs, j)
}

// GetJob returns a job by name
func (m *Manager) GetJob(name string) (Job, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, j := range m.jobs {
		if j.Name() == name {
			return j, true
		}
	}
	return nil, false
}

// RunJob executes a specific job by name
func (m *Manager) RunJob(ctx context.Context, name string) error {
	job, found := m.GetJob(name)
	if !found {
		return ErrJobNotFound
	}
	if !job.GetConfig().Enabled {
		return fmt.Errorf("%w: %s", ErrJobDisabled, name)
	}
	return m.run(ctx, job)
}

func (m *Manager) run(ctx context.Context, job Job) error {
	start := time.Now()
	err := job.Run(ctx)
	if m.observer != nil {
		m.observer.ObserveJob(job.Name(), err, time.Since(start))
	}
	return err
}

// Schedule registers every enabled job with the cron scheduler
func (m *Manager) Schedule(ctx context.Context) error {
	m.mu.Lock()
	jobs := append([]Job(nil), m.jobs...)
	m.mu.Unlock()

	for _, j := range jobs {
		config := j.GetConfig()
		if !config.Enabled {
			log.Printf("Job %s is disabled, skipping scheduler", j.Name())
			continue
		}

		if config.Schedule == "" {
			return fmt.Errorf("job %s has no schedule configured", j.Name())
		}

		job := j
		_, err := m.cron.AddFunc(config.Schedule, func() {
			if err := m.run(ctx, job); err != nil {
				log.Printf("Error running job %s: %v", job.Name(), err)
			}
		})
		if err != nil {
			return fmt.Errorf("failed to schedule job %s: %w", j.Name(), err)
		}

		log.Printf("Scheduled job %s with schedule %s", j.Name(), config.Schedule)
	}
	return nil
}

// StartScheduler schedules all enabled jobs and blocks until ctx is done
func (m *Manager) StartScheduler(ctx context.Context) error {
	if err := m.Schedule(ctx); err != nil {
		return err
	}

	m.cron.Start()
	log.Println("Job scheduler started")

	<-ctx.Done()
	log.Println("Stopping job scheduler...")
	<-m.cron.Stop().Done()

	return nil
}
