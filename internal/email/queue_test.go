package email

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSender struct {
	mu      sync.Mutex
	release chan struct{}
	sent    []string
	err     error
}

func (s *recordingSender) SendPasswordResetEmail(msg PasswordReset) error {
	if s.release != nil {
		<-s.release
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, msg.To)
	return s.err
}

func (s *recordingSender) Sent() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.sent...)
}

func TestQueue_DeliversInOrderOnClose(t *testing.T) {
	sender := &recordingSender{}
	q := NewQueue(sender, 8)

	want := []string{"a@example.com", "b@example.com", "c@example.com"}
	for _, to := range want {
		require.NoError(t, q.SendPasswordResetEmail(PasswordReset{To: to}))
	}
	q.Close()

	assert.Equal(t, want, sender.Sent())
	assert.ErrorIs(t, q.SendPasswordResetEmail(PasswordReset{To: "late@example.com"}), ErrQueueClosed)
	assert.NotPanics(t, q.Close)
}

func TestQueue_DoesNotBlockCaller(t *testing.T) {
	sender := &recordingSender{release: make(chan struct{})}
	q := NewQueue(sender, 1)

	// The worker holds the first message in the blocked sender and the
	// second fills the buffer.
	require.NoError(t, q.SendPasswordResetEmail(PasswordReset{To: "first@example.com"}))
	require.Eventually(t, func() bool {
		return errors.Is(q.SendPasswordResetEmail(PasswordReset{To: "extra@example.com"}), ErrQueueFull)
	}, time.Second, 5*time.Millisecond)

	close(sender.release)
	q.Close()
	assert.Equal(t, "first@example.com", sender.Sent()[0])
}

func TestQueue_SenderErrorsAreLogged(t *testing.T) {
	sender := &recordingSender{err: errors.New("smtp down")}
	q := NewQueue(sender, 1)

	require.NoError(t, q.SendPasswordResetEmail(PasswordReset{To: "runner@example.com"}))
	q.Close()
	assert.Equal(t, []string{"runner@example.com"}, sender.Sent())
}
