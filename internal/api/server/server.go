// Package server assembles the FitTrack API from configuration and runs it
package server

import (
	"context"
	"database/sql"
	"errors"
	"fittrack/internal/api/handlers"
	"fittrack/internal/api/middleware"
	"fittrack/internal/api/routes"
	"fittrack/internal/audit"
	"fittrack/internal/auth"
	"fittrack/internal/config"
	"fittrack/internal/database"
	"fittrack/internal/email"
	"fittrack/internal/jobs"
	"fittrack/internal/metrics"
	"fittrack/internal/ratelimit"
	"fittrack/internal/repository"
	"fittrack/internal/repository/memory"
	"fittrack/internal/repository/postgres"
	"fittrack/internal/reset"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
)

const (
	auditBufferSize = 1024
	emailQueueSize  = 256
	shutdownTimeout = 5 * time.Second
)

type options struct {
	emailSender email.EmailSender
	auditSinks  []audit.Sink
	registry    *prometheus.Registry
	hashParams  auth.HashParams
	clock       func() time.Time
}

// Option customises how the server is assembled
type Option func(*options)

// WithEmailSender replaces the SMTP sender
func WithEmailSender(sender email.EmailSender) Option {
	return func(o *options) {
		o.emailSender = sender
	}
}

// WithAuditSink adds a sink that receives every audit event synchronously
func WithAuditSink(sink audit.Sink) Option {
	return func(o *options) {
		o.auditSinks = append(o.auditSinks, sink)
	}
}

// WithRegistry registers metrics on reg instead of the default registry
func WithRegistry(reg *prometheus.Registry) Option {
	return func(o *options) {
		o.registry = reg
	}
}

// WithHashParams overrides the argon2id cost used for reset secrets
func WithHashParams(params auth.HashParams) Option {
	return func(o *options) {
		o.hashParams = params
	}
}

// WithClock overrides the time source of the reset flow and its limiter
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.clock = now
	}
}

// Server holds the assembled application
type Server struct {
	cfg        *config.Config
	router     *gin.Engine
	jobs       *jobs.Manager
	dispatcher *audit.Dispatcher
	db         *sql.DB
	redis      *redis.Client
	mailer     *email.Service
	outbox     *email.Queue

	Users       repository.UserRepository
	ResetTokens repository.ResetTokenRepository
	AuditLogs   repository.AuditLogRepository
	AuthService *auth.Service
	Resets      *reset.Manager
	Metrics     *metrics.Metrics
}

// New wires storage, limiter, audit trail, reset manager, jobs and routes from cfg
func New(cfg *config.Config, opts ...Option) (*Server, error) {
	o := options{
		hashParams: auth.DefaultHashParams,
		clock:      time.Now,
	}
	for _, opt := range opts {
		opt(&o)
	}

	s := &Server{cfg: cfg}
	if err := s.setupStorage(); err != nil {
		return nil, err
	}

	limiterStore, err := s.setupLimiterStore()
	if err != nil {
		s.Close()
		return nil, err
	}

	s.Metrics = metrics.New(o.registry)

	// Persistence and the log line go through the dispatcher so a slow
	// database never blocks a reset request.
	s.dispatcher = audit.NewDispatcher(audit.DispatcherConfig{BufferSize: auditBufferSize, DropIfFull: true},
		audit.MultiSink{audit.NewRepositorySink(s.AuditLogs), audit.NewLogSink(nil)})
	sinks := audit.MultiSink{s.Metrics, s.dispatcher}
	for _, sink := range o.auditSinks {
		sinks = append(sinks, sink)
	}
	auditLog := audit.NewLogger(sinks)

	limiter := ratelimit.New(limiterStore, ratelimit.Config{
		Email: ratelimit.Policy{Window: ratelimit.DefaultWindow, MaxRequests: cfg.Limits.EmailHourlyLimit},
		IP:    ratelimit.Policy{Window: ratelimit.DefaultWindow, MaxRequests: cfg.Limits.IPHourlyLimit},
	}, ratelimit.WithClock(o.clock), ratelimit.WithObserver(s.Metrics))

	codec, err := auth.NewTokenCodec(o.hashParams)
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("failed to create token codec: %w", err)
	}

	s.AuthService = auth.NewService(&cfg.Auth)
	s.Resets = reset.NewManager(s.ResetTokens, codec, reset.Config{
		TokenTTL:    cfg.Reset.TokenTTL,
		CodeLength:  cfg.Reset.CodeLength,
		MaxAttempts: cfg.Reset.MaxAttempts,
		Lockout:     cfg.Reset.Lockout,
	}, reset.WithClock(o.clock), reset.WithLimiter(limiter), reset.WithAudit(auditLog))

	sender := o.emailSender
	if sender == nil {
		s.mailer = email.NewService(cfg.Email)
		if s.mailer.Configured() {
			sender = s.mailer
		} else {
			log.Println("SMTP is not configured, password reset emails will only be logged")
			sender = email.LogSender{}
		}
		s.outbox = email.NewQueue(sender, emailQueueSize)
		sender = s.outbox
	}

	throttle := middleware.NewRateLimiter(cfg)

	s.jobs = jobs.NewManager(s.Metrics)
	s.jobs.RegisterJob(jobs.NewRateLimitSweep(
		jobs.Config{Schedule: cfg.Jobs.RateLimitSweep, Enabled: cfg.Jobs.RateLimitSweep != ""},
		jobs.Sweepers{limiterStore, throttle},
	))
	s.jobs.RegisterJob(jobs.NewAuditRetention(
		jobs.Config{Schedule: cfg.Jobs.AuditRetention, Enabled: cfg.Jobs.AuditRetention != "" && cfg.Jobs.AuditRetentionDays > 0},
		s.AuditLogs,
		time.Duration(cfg.Jobs.AuditRetentionDays)*24*time.Hour,
	))

	var pinger handlers.Pinger
	if s.db != nil {
		pinger = s.db
	}

	s.router = routes.SetupRoutes(routes.Handlers{
		Health:         handlers.NewHealthHandler(pinger, cfg.StorageDriver),
		Auth:           handlers.NewAuthHandler(s.Users, s.AuthService, auditLog, cfg),
		User:           handlers.NewUserHandler(s.AuditLogs),
		PasswordReset:  handlers.NewPasswordResetHandler(s.Users, s.Resets, s.AuthService, sender, cfg.Reset.AutoSignIn),
		AuthMiddleware: middleware.NewAuthMiddleware(s.AuthService, s.Users),
		Throttle:       throttle,
		Metrics:        s.Metrics,
	})

	return s, nil
}

func (s *Server) setupStorage() error {
	switch s.cfg.StorageDriver {
	case config.DriverMemory:
		db := memory.NewDB()
		s.Users = memory.NewUserRepository(db)
		s.ResetTokens = memory.NewResetTokenRepository(db)
		s.AuditLogs = memory.NewAuditLogRepository(db)
	case config.DriverPostgres:
		db, err := database.SetupDatabase(s.cfg.Database)
		if err != nil {
			return err
		}
		s.db = db
		s.Users = postgres.NewUserRepository(db)
		s.ResetTokens = postgres.NewResetTokenRepository(db)
		s.AuditLogs = postgres.NewAuditLogRepository(db)
	default:
		return fmt.Errorf("unsupported storage driver %q", s.cfg.StorageDriver)
	}
	return nil
}

// limiterStore is a rate limit store that can also be swept by the maintenance job
type limiterStore interface {
	ratelimit.Store
	jobs.Sweeper
}

func (s *Server) setupLimiterStore() (limiterStore, error) {
	if s.cfg.Limits.Driver != config.DriverRedis {
		return ratelimit.NewMemoryStore(), nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     s.cfg.Redis.Addr,
		Password: s.cfg.Redis.Password,
		DB:       s.cfg.Redis.DB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to reach redis: %w", err)
	}
	s.redis = client
	return ratelimit.NewRedisStore(client, s.cfg.Redis.KeyPrefix), nil
}

// Router returns the HTTP handler of the API
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Jobs returns the maintenance job manager
func (s *Server) Jobs() *jobs.Manager {
	return s.jobs
}

// Run serves HTTP and runs the job scheduler until ctx is cancelled, then
// shuts both down gracefully
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    ":" + s.cfg.API.Port,
		Handler: s.router,
	}

	ctx, stop := context.WithCancel(ctx)
	defer stop()

	jobsDone := make(chan error, 1)
	go func() {
		jobsDone <- s.jobs.StartScheduler(ctx)
	}()

	serveErr := make(chan error, 1)
	go func() {
		log.Printf("Starting server on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	var runErr error
	select {
	case err := <-serveErr:
		runErr = fmt.Errorf("failed to start server: %w", err)
	case err := <-jobsDone:
		// The scheduler only returns early when a job cannot be scheduled
		jobsDone <- nil
		if err != nil {
			runErr = fmt.Errorf("failed to start job scheduler: %w", err)
		}
	case <-ctx.Done():
	}
	stop()

	log.Println("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil && runErr == nil {
		runErr = fmt.Errorf("server forced to shutdown: %w", err)
	}
	if err := <-jobsDone; err != nil {
		log.Printf("Job scheduler stopped with error: %v", err)
	}
	return runErr
}

// Close flushes pending audit events and releases connections
func (s *Server) Close() error {
	if s.dispatcher != nil {
		s.dispatcher.Close()
	}
	if s.outbox != nil {
		s.outbox.Close()
	}
	if s.mailer != nil {
		if err := s.mailer.Close(); err != nil {
			log.Printf("Failed to close SMTP connection: %v", err)
		}
	}

	var errs []error
	if s.redis != nil {
		errs = append(errs, s.redis.Close())
	}
	if s.db != nil {
		errs = append(errs, s.db.Close())
	}
	return errors.Join(errs...)
}
