package email

import (
	"bytes"
	"fittrack/internal/config"
	"fmt"
	"html/template"
	"log"
	"net/smtp"
	"net/url"
	"strings"
	"sync"
	"time"
)

// PasswordReset is the content of a password reset email
type PasswordReset struct {
	To        string
	Name      string
	Code      string
	Token     string
	ExpiresIn time.Duration
}

// EmailSender defines the interface for sending emails
type EmailSender interface {
	SendPasswordResetEmail(msg PasswordReset) error
}

var resetTemplate = template.Must(template.New("reset").Parse(`
		<h2>Hello {{.Name}},</h2>
		<p>We received a request to reset your FitTrack password.</p>
		<p>Your reset code is <strong>{{.Code}}</strong>.</p>
		<p><a href="{{.URL}}">Choose a new password</a></p>
		<p>The code and link expire in {{.Minutes}} minutes.</p>
		<p>If you did not request a password reset, please ignore this email.</p>
	`))

// Service implements the EmailSender interface over SMTP
type Service struct {
	config config.EmailConfig
	client *smtp.Client
	mu     sync.Mutex
}

func NewService(cfg config.EmailConfig) *Service {
	return &Service{
		config: cfg,
		client: nil,
	}
}

// Configured reports whether every SMTP setting is present
func (s *Service) Configured() bool {
	return s.config.SMTPHost != "" && s.config.SMTPPort != 0 && s.config.SMTPUsername != "" &&
		s.config.SMTPPassword != "" && s.config.FromAddress != "" && s.config.AppURL != ""
}

// dialSMTP establishes an SMTP connection
func (s *Service) dialSMTP() (*smtp.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Reuse existing connection if it's still alive
	if s.client != nil {
		if err := s.client.Noop(); err == nil {
			return s.client, nil
		}
		s.client.Close()
		s.client = nil
	}

	addr := fmt.Sprintf("%s:%d", s.config.SMTPHost, s.config.SMTPPort)
	client, err := smtp.Dial(addr)
	if err != nil {
		return nil, fmt.Errorf("failed to dial SMTP server: %w", err)
	}

	if err := client.Auth(smtp.PlainAuth("", s.config.SMTPUsername, s.config.SMTPPassword, s.config.SMTPHost)); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to authenticate with SMTP server: %w", err)
	}

	s.client = client
	return client, nil
}

// sendMail sends an email using a pooled SMTP connection
func (s *Service) sendMail(to []string, msg []byte) error {
	client, err := s.dialSMTP()
	if err != nil {
		return err
	}

	if err := client.Mail(s.config.SMTPUsername); err != nil {
		return fmt.Errorf("failed to set sender: %w", err)
	}

	for _, addr := range to {
		if err := client.Rcpt(addr); err != nil {
			return fmt.Errorf("failed to add recipient %s: %w", addr, err)
		}
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("failed to create message writer: %w", err)
	}

	if _, err := w.Write(msg); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}

	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to close message writer: %w", err)
	}

	return nil
}

// Close closes the SMTP connection
func (s *Service) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.client != nil {
		err := s.client.Quit()
		s.client = nil
		return err
	}
	return nil
}

func (s *Service) SendPasswordResetEmail(msg PasswordReset) error {
	if !s.Configured() {
		return fmt.Errorf("incomplete email configuration")
	}

	body, err := RenderPasswordReset(s.config.AppURL, msg)
	if err != nil {
		return err
	}

	raw := fmt.Sprintf("To: %s\r\n"+
		"From: %s\r\n"+
		"Subject: %s\r\n"+
		"MIME-Version: 1.0\r\n"+
		"Content-Type: text/html; charset=UTF-8\r\n"+
		"\r\n"+
		"%s", msg.To, s.config.FromAddress, "Reset Your Password", body)

	log.Printf("Sending password reset email to %s via SMTP server %s:%d", msg.To, s.config.SMTPHost, s.config.SMTPPort)
	if err := s.sendMail([]string{msg.To}, []byte(raw)); err != nil {
		return fmt.Errorf("failed to send password reset email: %w", err)
	}
	return nil
}

// ResetURL builds the frontend link carrying the code and token
func ResetURL(appURL, code, token string) string {
	q := url.Values{}
	q.Set("code", code)
	q.Set("token", token)
	return strings.TrimRight(appURL, "/") + "/reset-password?" + q.Encode()
}

// RenderPasswordReset renders the HTML body of a password reset email
func RenderPasswordReset(appURL string, msg PasswordReset) (string, error) {
	minutes := int(msg.ExpiresIn.Minutes())
	if minutes < 1 {
		minutes = 1
	}

	var body bytes.Buffer
	if err := resetTemplate.Execute(&body, map[string]any{
		"Name":    msg.Name,
		"Code":    msg.Code,
		"URL":     ResetURL(appURL, msg.Code, msg.Token),
		"Minutes": minutes,
	}); err != nil {
		return "", fmt.Errorf("failed to execute email template: %w", err)
	}
	return body.String(), nil
}

// LogSender replaces SMTP in development. It logs the recipient only.
type LogSender struct{}

func (LogSender) SendPasswordResetEmail(msg PasswordReset) error {
	log.Printf("SMTP not configured, password reset email for %s not sent", msg.To)
	return nil
}
