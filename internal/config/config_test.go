package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/joho/godotenv"
	"github.com/stretchr/testify/require"
)

// loadEnvFile writes contents to a temporary env file and exports it for the test
func loadEnvFile(t *testing.T, contents string) {
	t.Helper()

	path := filepath.Join(t.TempDir(), ".env.test")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))

	values, err := godotenv.Read(path)
	require.NoError(t, err, "Failed to read env file")
	for k, v := range values {
		t.Setenv(k, v)
	}
}

func TestLoadFromEnv_Defaults(t *testing.T) {
	loadEnvFile(t, "JWT_SECRET=test_secret_key\n")

	cfg := &Config{}
	require.NoError(t, cfg.LoadFromEnv())

	require.Equal(t, "8080", cfg.API.Port)
	require.Equal(t, DriverPostgres, cfg.StorageDriver)
	require.Equal(t, "fittrack", cfg.Database.DBName)
	require.Equal(t, 10*time.Minute, cfg.Reset.TokenTTL)
	require.Equal(t, 6, cfg.Reset.CodeLength)
	require.Equal(t, 5, cfg.Reset.MaxAttempts)
	require.Equal(t, 15*time.Minute, cfg.Reset.Lockout)
	require.False(t, cfg.Reset.AutoSignIn)
	require.Equal(t, 5, cfg.Limits.EmailHourlyLimit)
	require.Equal(t, 20, cfg.Limits.IPHourlyLimit)
	require.Equal(t, DriverMemory, cfg.Limits.Driver)
}

func TestLoadFromEnv_Overrides(t *testing.T) {
	loadEnvFile(t, `JWT_SECRET=test_secret_key
STORAGE_DRIVER=memory
RESET_TOKEN_TTL_MINUTES=30
RESET_CODE_LENGTH=8
RESET_MAX_ATTEMPTS=3
RESET_LOCKOUT_MINUTES=5
RESET_AUTO_SIGNIN=true
RESET_EMAIL_HOURLY_LIMIT=2
RESET_IP_HOURLY_LIMIT=7
RATE_LIMIT_STORE=redis
`)

	cfg := &Config{}
	require.NoError(t, cfg.LoadFromEnv())

	require.Equal(t, DriverMemory, cfg.StorageDriver)
	require.Equal(t, 30*time.Minute, cfg.Reset.TokenTTL)
	require.Equal(t, 8, cfg.Reset.CodeLength)
	require.Equal(t, 3, cfg.Reset.MaxAttempts)
	require.Equal(t, 5*time.Minute, cfg.Reset.Lockout)
	require.True(t, cfg.Reset.AutoSignIn)
	require.Equal(t, 2, cfg.Limits.EmailHourlyLimit)
	require.Equal(t, 7, cfg.Limits.IPHourlyLimit)
	require.Equal(t, DriverRedis, cfg.Limits.Driver)
}

func TestLoadFromEnv_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  string
	}{
		{name: "Missing JWT secret", env: "API_PORT=9000\n"},
		{name: "Unknown storage driver", env: "JWT_SECRET=x\nSTORAGE_DRIVER=mongo\n"},
		{name: "Unknown limiter store", env: "JWT_SECRET=x\nRATE_LIMIT_STORE=etcd\n"},
		{name: "Code too short", env: "JWT_SECRET=x\nRESET_CODE_LENGTH=2\n"},
		{name: "Zero attempts", env: "JWT_SECRET=x\nRESET_MAX_ATTEMPTS=0\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("JWT_SECRET", "")
			loadEnvFile(t, tt.env)

			cfg := &Config{}
			require.Error(t, cfg.LoadFromEnv())
		})
	}
}
