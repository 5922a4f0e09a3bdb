package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Storage drivers
const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
	DriverRedis    = "redis"
)

// Config represents the application configuration
type Config struct {
	// API contains API server configuration
	API APIConfig
	// Auth contains authentication configuration
	Auth AuthConfig
	// Database contains database configuration
	Database DatabaseConfig
	// Email contains email service configuration
	Email EmailConfig
	// Reset contains password reset lifecycle settings
	Reset ResetConfig
	// Limits contains the security rate limits and their backing store
	Limits LimitsConfig
	// Redis contains the connection used by the redis limiter store
	Redis RedisConfig
	// Jobs contains cron schedules for background maintenance
	Jobs JobsConfig

	// StorageDriver selects the repository backend ("postgres" or "memory")
	StorageDriver string

	// Global per-IP throttle applied to every route
	RateLimit struct {
		Requests int // Number of requests allowed per window
		Window   int // Time window in seconds
		Burst    int // Maximum burst size
	}
}

// DatabaseConfig contains database connection settings
type DatabaseConfig struct {
	// Host is the database server hostname
	Host string
	// Port is the database server port
	Port int
	// User is the database username
	User string
	// Password is the database password
	Password string
	// DBName is the database name
	DBName string
	// SSLMode is the SSL mode for the database connection
	SSLMode string
	// MigrationsPath is the path to database migrations
	MigrationsPath string
}

// APIConfig contains API server settings
type APIConfig struct {
	// Port is the server port to listen on
	Port string
}

// AuthConfig contains authentication settings
type AuthConfig struct {
	// JWTSecret is the secret key used to sign JWT tokens
	JWTSecret string
	// AccessTokenTTL is the lifetime of issued access tokens
	AccessTokenTTL time.Duration
	// RegistrationOpen determines if new user registration is allowed
	RegistrationOpen bool
}

// EmailConfig contains email service settings
type EmailConfig struct {
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	FromAddress  string
	// AppURL is the base URL of the frontend that renders the reset form
	AppURL string
}

// ResetConfig contains password reset settings
type ResetConfig struct {
	TokenTTL    time.Duration
	CodeLength  int
	MaxAttempts int
	Lockout     time.Duration
	// AutoSignIn issues an access token when a reset completes
	AutoSignIn bool
}

// LimitsConfig contains per-identifier security rate limits
type LimitsConfig struct {
	// Driver is the counter store ("memory" or "redis")
	Driver           string
	EmailHourlyLimit int
	IPHourlyLimit    int
}

// RedisConfig contains redis connection settings
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	// KeyPrefix namespaces limiter keys
	KeyPrefix string
}

// JobsConfig contains background job schedules in cron format
type JobsConfig struct {
	RateLimitSweep     string
	AuditRetention     string
	AuditRetentionDays int
}

// LoadFromEnv retrieves configuration from environment variables
func (c *Config) LoadFromEnv() error {
	c.API = APIConfig{
		Port: getEnvOrDefault("API_PORT", "8080"),
	}
	c.StorageDriver = getEnvOrDefault("STORAGE_DRIVER", DriverPostgres)
	c.Database = DatabaseConfig{
		Host:           getEnvOrDefault("DB_HOST", "localhost"),
		Port:           getEnvAsInt("DB_PORT", 5432),
		User:           getEnvOrDefault("DB_USER", "postgres"),
		Password:       getEnvOrDefault("DB_PASSWORD", "postgres"),
		DBName:         getEnvOrDefault("DB_NAME", "fittrack"),
		SSLMode:        getEnvOrDefault("DB_SSL_MODE", "disable"),
		MigrationsPath: getEnvOrDefault("DB_MIGRATIONS_PATH", "migrations"),
	}
	c.Auth = AuthConfig{
		JWTSecret:        os.Getenv("JWT_SECRET"),
		AccessTokenTTL:   time.Duration(getEnvAsInt("ACCESS_TOKEN_TTL_MINUTES", 15)) * time.Minute,
		RegistrationOpen: getEnvAsBool("REGISTRATION_OPEN", true),
	}
	c.Email = EmailConfig{
		SMTPHost:     os.Getenv("SMTP_HOST"),
		SMTPPort:     getEnvAsInt("SMTP_PORT", 587),
		SMTPUsername: os.Getenv("SMTP_USERNAME"),
		SMTPPassword: os.Getenv("SMTP_PASSWORD"),
		FromAddress:  os.Getenv("SMTP_FROM"),
		AppURL:       os.Getenv("APP_URL"),
	}
	c.Reset = ResetConfig{
		TokenTTL:    time.Duration(getEnvAsInt("RESET_TOKEN_TTL_MINUTES", 10)) * time.Minute,
		CodeLength:  getEnvAsInt("RESET_CODE_LENGTH", 6),
		MaxAttempts: getEnvAsInt("RESET_MAX_ATTEMPTS", 5),
		Lockout:     time.Duration(getEnvAsInt("RESET_LOCKOUT_MINUTES", 15)) * time.Minute,
		AutoSignIn:  getEnvAsBool("RESET_AUTO_SIGNIN", false),
	}
	c.Limits = LimitsConfig{
		Driver:           getEnvOrDefault("RATE_LIMIT_STORE", DriverMemory),
		EmailHourlyLimit: getEnvAsInt("RESET_EMAIL_HOURLY_LIMIT", 5),
		IPHourlyLimit:    getEnvAsInt("RESET_IP_HOURLY_LIMIT", 20),
	}
	c.Redis = RedisConfig{
		Addr:      getEnvOrDefault("REDIS_ADDR", "localhost:6379"),
		Password:  os.Getenv("REDIS_PASSWORD"),
		DB:        getEnvAsInt("REDIS_DB", 0),
		KeyPrefix: getEnvOrDefault("REDIS_KEY_PREFIX", "fittrack:rl:"),
	}
	c.Jobs = JobsConfig{
		RateLimitSweep:     getEnvOrDefault("JOB_RATE_LIMIT_SWEEP", "* * * * *"),
		AuditRetention:     getEnvOrDefault("JOB_AUDIT_RETENTION", "30 3 * * *"),
		AuditRetentionDays: getEnvAsInt("AUDIT_RETENTION_DAYS", 90),
	}

	c.RateLimit.Requests = getEnvAsInt("RATE_LIMIT_REQUESTS", 1000)
	c.RateLimit.Window = getEnvAsInt("RATE_LIMIT_WINDOW", 60)
	c.RateLimit.Burst = getEnvAsInt("RATE_LIMIT_BURST", 50)

	return c.Validate()
}

// Validate checks that required fields are present and values are in range
func (c *Config) Validate() error {
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.StorageDriver != DriverPostgres && c.StorageDriver != DriverMemory {
		return fmt.Errorf("unsupported STORAGE_DRIVER %q", c.StorageDriver)
	}
	if c.Limits.Driver != DriverMemory && c.Limits.Driver != DriverRedis {
		return fmt.Errorf("unsupported RATE_LIMIT_STORE %q", c.Limits.Driver)
	}
	if c.Reset.CodeLength < 4 || c.Reset.CodeLength > 12 {
		return fmt.Errorf("RESET_CODE_LENGTH must be between 4 and 12")
	}
	if c.Reset.MaxAttempts < 1 {
		return fmt.Errorf("RESET_MAX_ATTEMPTS must be positive")
	}
	if c.Reset.TokenTTL <= 0 || c.Reset.Lockout <= 0 {
		return fmt.Errorf("reset TTL and lockout must be positive")
	}
	if c.Limits.EmailHourlyLimit < 1 || c.Limits.IPHourlyLimit < 1 {
		return fmt.Errorf("reset hourly limits must be positive")
	}
	return nil
}

// getEnvAsInt retrieves an environment variable and converts it to an integer
func getEnvAsInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

// getEnvAsBool retrieves an environment variable and converts it to a boolean
func getEnvAsBool(key string, defaultVal bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return defaultVal
}

func getEnvOrDefault(key string, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}
