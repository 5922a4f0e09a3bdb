package email

import (
	"fittrack/internal/config"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResetURL(t *testing.T) {
	link := ResetURL("https://app.fittrack.example/", "012345", "abc-_DEF")

	u, err := url.Parse(link)
	require.NoError(t, err)
	assert.Equal(t, "/reset-password", u.Path)
	assert.Equal(t, "012345", u.Query().Get("code"))
	assert.Equal(t, "abc-_DEF", u.Query().Get("token"))
}

func TestRenderPasswordReset(t *testing.T) {
	body, err := RenderPasswordReset("https://app.fittrack.example", PasswordReset{
		To:        "runner@example.com",
		Name:      "<script>alert(1)</script>",
		Code:      "987654",
		Token:     "tok",
		ExpiresIn: 10 * time.Minute,
	})
	require.NoError(t, err)

	assert.Contains(t, body, "<strong>987654</strong>")
	assert.Contains(t, body, "expire in 10 minutes")
	assert.Contains(t, body, "code=987654&amp;token=tok")
	assert.False(t, strings.Contains(body, "<script>"), "name must be escaped")
}

func TestService_RequiresConfiguration(t *testing.T) {
	svc := NewService(config.EmailConfig{SMTPHost: "localhost"})
	assert.False(t, svc.Configured())

	err := svc.SendPasswordResetEmail(PasswordReset{To: "runner@example.com"})
	require.Error(t, err)
	require.NoError(t, svc.Close())
}

func TestLogSender(t *testing.T) {
	require.NoError(t, LogSender{}.SendPasswordResetEmail(PasswordReset{To: "runner@example.com"}))
}
