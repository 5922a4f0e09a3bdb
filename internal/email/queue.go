package email

import (
	"errors"
	"log"
	"sync"
)

// ErrQueueFull is returned when a message cannot be buffered
var ErrQueueFull = errors.New("email queue full")

// ErrQueueClosed is returned for messages sent after Close
var ErrQueueClosed = errors.New("email queue closed")

// Queue hands messages to a background goroutine so delivery time never
// shows in the caller's response time.
type Queue struct {
	sender EmailSender
	ch     chan PasswordReset
	wg     sync.WaitGroup

	mu     sync.RWMutex
	closed bool
}

// NewQueue starts a worker delivering through sender
func NewQueue(sender EmailSender, size int) *Queue {
	if size <= 0 {
		size = 1
	}

	q := &Queue{
		sender: sender,
		ch:     make(chan PasswordReset, size),
	}

	q.wg.Add(1)
	go q.run()

	return q
}

func (q *Queue) run() {
	defer q.wg.Done()

	for msg := range q.ch {
		if err := q.sender.SendPasswordResetEmail(msg); err != nil {
			log.Printf("Failed to deliver password reset email: %v", err)
		}
	}
}

// SendPasswordResetEmail buffers msg without blocking
func (q *Queue) SendPasswordResetEmail(msg PasswordReset) error {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		return ErrQueueClosed
	}

	select {
	case q.ch <- msg:
		return nil
	default:
		return ErrQueueFull
	}
}

// Close delivers the buffered messages and stops the worker
func (q *Queue) Close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	close(q.ch)
	q.mu.Unlock()

	q.wg.Wait()
}
