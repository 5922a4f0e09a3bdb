// Package audit records security events for the password reset flow.
// Emitting an event never fails from the caller's point of view; sink errors
// are logged and dropped.
package audit

import (
	"context"
	"encoding/json"
	"fittrack/internal/models"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Event types recorded by the reset flow
const (
	PasswordResetRequested   = models.AuditActionPasswordResetRequested
	PasswordResetVerified    = models.AuditActionPasswordResetVerified
	PasswordResetSucceeded   = models.AuditActionPasswordResetSucceeded
	PasswordResetFailed      = models.AuditActionPasswordResetFailed
	PasswordResetRateLimited = models.AuditActionPasswordResetRateLimited
	PasswordResetLocked      = models.AuditActionPasswordResetLocked
)

// Event is a single security event
type Event struct {
	Type      models.AuditAction `json:"type"`
	Timestamp time.Time          `json:"timestamp"`
	UserID    *uuid.UUID         `json:"user_id,omitempty"`
	TokenID   *uuid.UUID         `json:"token_id,omitempty"`
	Email     string             `json:"email,omitempty"`
	IP        string             `json:"ip,omitempty"`
	UserAgent string             `json:"user_agent,omitempty"`
	Metadata  map[string]string  `json:"metadata,omitempty"`
}

// Sink receives emitted events
type Sink interface {
	Emit(ctx context.Context, event Event)
}

// Meta carries the request context attached to events
type Meta struct {
	Email     string
	IP        string
	UserAgent string
}

// Logger stamps events and forwards them to a sink
type Logger struct {
	sink Sink
	now  func() time.Time
}

// NewLogger creates a logger writing to sink. A nil sink discards events.
func NewLogger(sink Sink) *Logger {
	if sink == nil {
		sink = NoOpSink{}
	}
	return &Logger{sink: sink, now: time.Now}
}

// Emit fills the timestamp and device metadata, then forwards the event
func (l *Logger) Emit(ctx context.Context, event Event) {
	if l == nil {
		return
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = l.now().UTC()
	}
	if event.UserAgent != "" {
		metadata := make(map[string]string, len(event.Metadata)+1)
		for k, v := range event.Metadata {
			metadata[k] = v
		}
		if _, ok := metadata["device"]; !ok {
			metadata["device"] = DescribeUserAgent(event.UserAgent)
		}
		event.Metadata = metadata
	}
	event.Email = strings.ToLower(strings.TrimSpace(event.Email))
	l.sink.Emit(ctx, event)
}

// Record is a shorthand for emitting an event built from request metadata
func (l *Logger) Record(ctx context.Context, typ models.AuditAction, userID, tokenID *uuid.UUID, meta Meta, metadata map[string]string) {
	l.Emit(ctx, Event{
		Type:      typ,
		UserID:    userID,
		TokenID:   tokenID,
		Email:     meta.Email,
		IP:        meta.IP,
		UserAgent: meta.UserAgent,
		Metadata:  metadata,
	})
}

// NoOpSink drops events
type NoOpSink struct{}

func (NoOpSink) Emit(context.Context, Event) {}

// MultiSink fans an event out to several sinks in order
type MultiSink []Sink

func (m MultiSink) Emit(ctx context.Context, event Event) {
	for _, s := range m {
		if s != nil {
			s.Emit(ctx, event)
		}
	}
}

// LogSink writes one JSON line per event to the process log
type LogSink struct {
	logger *log.Logger
}

// NewLogSink creates a sink on logger, or on the standard logger when nil
func NewLogSink(logger *log.Logger) *LogSink {
	if logger == nil {
		logger = log.Default()
	}
	return &LogSink{logger: logger}
}

func (s *LogSink) Emit(_ context.Context, event Event) {
	data, err := json.Marshal(event)
	if err != nil {
		log.Printf("Failed to encode audit event %s: %v", event.Type, err)
		return
	}
	s.logger.Printf("audit %s", data)
}

// MemorySink keeps events in memory
type MemorySink struct {
	mu     sync.Mutex
	events []Event
}

func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

func (s *MemorySink) Emit(_ context.Context, event Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
}

// Events returns a copy of the recorded events in append order
func (s *MemorySink) Events() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Event, len(s.events))
	copy(out, s.events)
	return out
}

// Types returns the recorded event types in append order
func (s *MemorySink) Types() []models.AuditAction {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.AuditAction, len(s.events))
	for i, e := range s.events {
		out[i] = e.Type
	}
	return out
}

// Reset clears recorded events
func (s *MemorySink) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = nil
}
