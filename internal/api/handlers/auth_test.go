package handlers_test

import (
	"fittrack/internal/auth"
	"fittrack/internal/config"
	"fittrack/internal/models"
	"fittrack/internal/testutil"
	"net/http"
	"os"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

const strongPassword = "Correct-Horse-9"

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

func TestAuthHandler_Login(t *testing.T) {
	tests := []struct {
		name       string
		setupFunc  func(*testutil.TestContext)
		input      models.LoginRequest
		wantStatus int
		errMsg     string
	}{
		{
			name: "Success",
			setupFunc: func(tc *testutil.TestContext) {
				tc.CreateTestUser("Test User", "test@example.com", strongPassword)
			},
			input:      models.LoginRequest{Email: "test@example.com", Password: strongPassword},
			wantStatus: http.StatusOK,
		},
		{
			name: "Email Is Case Insensitive",
			setupFunc: func(tc *testutil.TestContext) {
				tc.CreateTestUser("Test User", "test@example.com", strongPassword)
			},
			input:      models.LoginRequest{Email: "Test@Example.com", Password: strongPassword},
			wantStatus: http.StatusOK,
		},
		{
			name: "Invalid Credentials",
			setupFunc: func(tc *testutil.TestContext) {
				tc.CreateTestUser("Test User", "test@example.com", strongPassword)
			},
			input:      models.LoginRequest{Email: "test@example.com", Password: "wrong_password"},
			wantStatus: http.StatusUnauthorized,
			errMsg:     "invalid credentials",
		},
		{
			name:       "User Not Found",
			input:      models.LoginRequest{Email: "nobody@example.com", Password: strongPassword},
			wantStatus: http.StatusUnauthorized,
			errMsg:     "invalid credentials",
		},
		{
			name:       "Invalid Email",
			input:      models.LoginRequest{Email: "not-an-email", Password: strongPassword},
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tc := testutil.NewTestContext(t)
			if tt.setupFunc != nil {
				tt.setupFunc(tc)
			}

			w := tc.Post("/api/v1/auth/login", tt.input, "")
			require.Equal(t, tt.wantStatus, w.Code, w.Body.String())

			if tt.wantStatus == http.StatusOK {
				var resp models.LoginResponse
				testutil.DecodeJSON(t, w, &resp)
				require.NotEmpty(t, resp.AccessToken)
				require.Equal(t, 900, resp.ExpiresIn)

				_, err := tc.AuthService.ValidateToken(resp.AccessToken)
				require.NoError(t, err)
				require.Contains(t, tc.Audit.Types(), models.AuditActionLogin)
				return
			}

			var resp models.ErrorResponse
			testutil.DecodeJSON(t, w, &resp)
			if tt.errMsg != "" {
				require.Equal(t, tt.errMsg, resp.Error)
			}
		})
	}
}

func TestAuthHandler_Register(t *testing.T) {
	tests := []struct {
		name       string
		modify     func(*config.Config)
		setupFunc  func(*testutil.TestContext)
		input      models.CreateUserRequest
		wantStatus int
		errMsg     string
	}{
		{
			name:       "Success",
			input:      models.CreateUserRequest{Email: "new@example.com", Name: "New User", Password: strongPassword},
			wantStatus: http.StatusCreated,
		},
		{
			name: "Duplicate Email",
			setupFunc: func(tc *testutil.TestContext) {
				tc.CreateTestUser("Existing", "taken@example.com", strongPassword)
			},
			input:      models.CreateUserRequest{Email: "TAKEN@example.com", Name: "Other", Password: strongPassword},
			wantStatus: http.StatusConflict,
			errMsg:     "email already exists",
		},
		{
			name:       "Weak Password",
			input:      models.CreateUserRequest{Email: "weak@example.com", Name: "Weak", Password: "short"},
			wantStatus: http.StatusBadRequest,
			errMsg: auth.ErrPasswordTooShort + "; " + auth.ErrPasswordNoUpper + "; " +
				auth.ErrPasswordNoDigit + "; " + auth.ErrPasswordNoSpecial,
		},
		{
			name:       "Blank Name",
			input:      models.CreateUserRequest{Email: "blank@example.com", Name: "   ", Password: strongPassword},
			wantStatus: http.StatusBadRequest,
		},
		{
			name: "Registration Closed",
			modify: func(cfg *config.Config) {
				cfg.Auth.RegistrationOpen = false
			},
			input:      models.CreateUserRequest{Email: "closed@example.com", Name: "Closed", Password: strongPassword},
			wantStatus: http.StatusForbidden,
			errMsg:     "registration is closed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var modifiers []func(*config.Config)
			if tt.modify != nil {
				modifiers = append(modifiers, tt.modify)
			}
			tc := testutil.NewTestContext(t, modifiers...)
			if tt.setupFunc != nil {
				tt.setupFunc(tc)
			}

			w := tc.Post("/api/v1/auth/register", tt.input, "")
			require.Equal(t, tt.wantStatus, w.Code, w.Body.String())

			if tt.wantStatus == http.StatusCreated {
				var user models.User
				testutil.DecodeJSON(t, w, &user)
				require.Equal(t, tt.input.Email, user.Email)
				require.Equal(t, tt.input.Name, user.Name)
				require.NotContains(t, w.Body.String(), "password\"")
				require.Contains(t, tc.Audit.Types(), models.AuditActionRegister)
				return
			}

			if tt.errMsg != "" {
				var resp models.ErrorResponse
				testutil.DecodeJSON(t, w, &resp)
				require.Equal(t, tt.errMsg, resp.Error)
			}
		})
	}
}
