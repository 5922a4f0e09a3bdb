// Package integration provides utilities for postgres integration testing
package integration

import (
	"context"
	"database/sql"
	"fittrack/internal/models"
	"fittrack/internal/repository"
	"fittrack/internal/repository/postgres"
	"fittrack/internal/testutil/db"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TestContext holds a migrated test database and the repositories on top of it
type TestContext struct {
	T           *testing.T
	DB          *sql.DB
	UserRepo    repository.UserRepository
	ResetTokens repository.ResetTokenRepository
	AuditRepo   repository.AuditLogRepository
}

// NewTestContext connects to the database from .env.test, recreates the
// schema and closes the connection when the test ends. The test is skipped
// when no test database is configured.
func NewTestContext(t *testing.T) *TestContext {
	t.Helper()

	cfg := db.LoadTestConfig(t)
	testDB := db.SetupTestDB(t, &cfg.Database)

	t.Cleanup(func() {
		if err := db.CleanupTestDB(testDB); err != nil {
			t.Errorf("Failed to cleanup test database: %v", err)
		}
		testDB.Close()
	})

	return &TestContext{
		T:           t,
		DB:          testDB,
		UserRepo:    postgres.NewUserRepository(testDB),
		ResetTokens: postgres.NewResetTokenRepository(testDB),
		AuditRepo:   postgres.NewAuditLogRepository(testDB),
	}
}

// CreateTestUser inserts a user with a placeholder password hash
func (tc *TestContext) CreateTestUser(name, email string) *models.User {
	tc.T.Helper()
	user := &models.User{Name: name, Email: email, Password: "not-a-real-hash"}
	require.NoError(tc.T, tc.UserRepo.Create(context.Background(), user), "Failed to create test user")
	return user
}

// CreateTestToken stores an active reset token for user
func (tc *TestContext) CreateTestToken(user *models.User, code string, now time.Time) *models.ResetToken {
	tc.T.Helper()
	token := &models.ResetToken{
		UserID:      user.ID,
		HashedToken: "$argon2id$v=19$m=8192,t=1,p=1$c2FsdA$aGFzaA",
		Code:        code,
		ExpiresAt:   now.Add(10 * time.Minute),
		IP:          "127.0.0.1",
		UserAgent:   "integration-test",
	}
	require.NoError(tc.T, tc.ResetTokens.ReplaceActive(context.Background(), token, now), "Failed to create reset token")
	return token
}

// ExecuteSQL runs a raw statement against the test database
func (tc *TestContext) ExecuteSQL(query string, args ...any) {
	tc.T.Helper()
	_, err := tc.DB.ExecContext(context.Background(), query, args...)
	require.NoError(tc.T, err, "Failed to execute SQL")
}
