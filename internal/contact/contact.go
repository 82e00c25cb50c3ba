// Package contact delivers messages from the portfolio contact form.
package contact

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"net/smtp"
	"strings"

	"go.uber.org/zap"

	"github.com/Zachkp/moto-portfolio/internal/logging"
	"github.com/Zachkp/moto-portfolio/internal/metrics"
)

var (
	ErrNotConfigured = errors.New("SMTP credentials not configured")
	ErrInvalidForm   = errors.New("invalid contact form")
)

// Message is one contact form submission.
type Message struct {
	Name  string
	Email string
	Body  string
}

// Validate trims the fields and checks that they can be delivered.
func (m *Message) Validate() error {
	m.Name = strings.TrimSpace(m.Name)
	m.Email = strings.TrimSpace(m.Email)
	m.Body = strings.TrimSpace(m.Body)

	switch {
	case m.Name == "":
		return fmt.Errorf("%w: name is required", ErrInvalidForm)
	case m.Body == "":
		return fmt.Errorf("%w: message is required", ErrInvalidForm)
	case strings.ContainsAny(m.Name, "\r\n"):
		return fmt.Errorf("%w: name must be a single line", ErrInvalidForm)
	}
	addr, err := mail.ParseAddress(m.Email)
	if err != nil {
		return fmt.Errorf("%w: email: %v", ErrInvalidForm, err)
	}
	m.Email = addr.Address
	return nil
}

// Mailer sends a contact message.
type Mailer interface {
	Send(ctx context.Context, m Message) error
}

// SMTPConfig holds the outgoing mail settings.
type SMTPConfig struct {
	Host     string `koanf:"host" yaml:"host"`
	Port     string `koanf:"port" yaml:"port"`
	User     string `koanf:"user" yaml:"user"`
	Password string `koanf:"password" yaml:"-"`
	To       string `koanf:"to" yaml:"to"`
}

// Configured reports whether credentials are present.
func (c SMTPConfig) Configured() bool {
	return c.User != "" && c.Password != ""
}

// Recipient is where contact messages go. Without To they go back to the
// sending account.
func (c SMTPConfig) Recipient() string {
	if c.To != "" {
		return c.To
	}
	return c.User
}

// SendFunc matches smtp.SendMail.
type SendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// SMTPMailer sends through an SMTP relay with PLAIN auth.
type SMTPMailer struct {
	cfg  SMTPConfig
	send SendFunc
}

// NewSMTPMailer returns a mailer for cfg.
func NewSMTPMailer(cfg SMTPConfig) *SMTPMailer {
	return &SMTPMailer{cfg: cfg, send: smtp.SendMail}
}

// Send implements Mailer.
func (s *SMTPMailer) Send(ctx context.Context, m Message) error {
	if !s.cfg.Configured() {
		return ErrNotConfigured
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	auth := smtp.PlainAuth("", s.cfg.User, s.cfg.Password, s.cfg.Host)
	addr := s.cfg.Host + ":" + s.cfg.Port
	if err := s.send(addr, auth, s.cfg.User, []string{s.cfg.Recipient()}, Compose(s.cfg, m)); err != nil {
		return fmt.Errorf("sending contact email: %w", err)
	}
	return nil
}

// Compose builds the RFC 822 message.
func Compose(cfg SMTPConfig, m Message) []byte {
	subject := fmt.Sprintf("Portfolio Contact: %s", m.Name)
	body := fmt.Sprintf(`
New contact form submission from your portfolio:

Name: %s
Email: %s
Message:
%s

---
Sent from your portfolio contact form
`, m.Name, m.Email, m.Body)

	return []byte("To: " + cfg.Recipient() + "\r\n" +
		"Subject: " + subject + "\r\n" +
		"From: " + cfg.User + "\r\n" +
		"Reply-To: " + m.Email + "\r\n" +
		"\r\n" +
		body + "\r\n")
}

// Service validates and delivers submissions, recording the outcome.
type Service struct {
	mailer Mailer
	log    *zap.Logger
}

// NewService creates a Service.
func NewService(mailer Mailer, log *zap.Logger) *Service {
	return &Service{mailer: mailer, log: logging.OrNop(log)}
}

// Submit validates m and sends it.
func (s *Service) Submit(ctx context.Context, m Message) error {
	if err := m.Validate(); err != nil {
		metrics.RecordContactMessage("invalid")
		return err
	}
	if err := s.mailer.Send(ctx, m); err != nil {
		metrics.RecordContactMessage("failed")
		s.log.Error("contact message not delivered", zap.Error(err))
		return err
	}
	metrics.RecordContactMessage("sent")
	s.log.Info("contact message delivered", zap.String("from", m.Email))
	return nil
}
