// Package mail sends transactional email over SMTP.
//
//	err := mail.Send(ctx, &mail.Message{
//	    To:      []string{"ann@example.com"},
//	    Subject: "Confirm your account",
//	    Body:    "Your token: " + key,
//	})
//
// With MAIL_DRIVER=log (the default outside production) messages are written
// to the log instead of being delivered.
package mail

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/smtp"
	"strings"
	"sync"
	"time"

	"github.com/shashiranjanraj/bazaar/config"
	"github.com/shashiranjanraj/bazaar/pkg/logger"
)

// Message is a single email.
type Message struct {
	To      []string
	Subject string
	Body    string
	HTML    bool
}

// Mailer delivers messages.
type Mailer interface {
	Send(ctx context.Context, m *Message) error
}

var (
	mu      sync.RWMutex
	current Mailer
)

// Use installs the mailer returned by Default.
func Use(m Mailer) {
	mu.Lock()
	current = m
	mu.Unlock()
}

// Default returns the installed mailer, building one from MAIL_* settings
// on first use.
func Default() Mailer {
	mu.RLock()
	m := current
	mu.RUnlock()
	if m != nil {
		return m
	}

	mu.Lock()
	defer mu.Unlock()
	if current == nil {
		current = fromConfig()
	}
	return current
}

// Send delivers m through the default mailer.
func Send(ctx context.Context, m *Message) error { return Default().Send(ctx, m) }

func fromConfig() Mailer {
	driver := config.Get("MAIL_DRIVER", "")
	if driver == "" {
		driver = "log"
		if config.AppEnv() == "production" {
			driver = "smtp"
		}
	}
	if driver != "smtp" {
		return LogMailer{}
	}
	return &SMTPMailer{
		Host:     config.Get("MAIL_HOST", "localhost"),
		Port:     config.Get("MAIL_PORT", "587"),
		Username: config.Get("MAIL_USERNAME", ""),
		Password: config.Get("MAIL_PASSWORD", ""),
		From:     config.Get("MAIL_FROM", "noreply@bazaar.local"),
		FromName: config.Get("MAIL_FROM_NAME", "Bazaar"),
	}
}

// ─── Log ──────────────────────────────────────────────────────────────────────

// LogMailer writes messages to the logger.
type LogMailer struct{}

func (LogMailer) Send(ctx context.Context, m *Message) error {
	logger.WithCtx(ctx).Info("mail: message",
		"to", strings.Join(m.To, ", "), "subject", m.Subject, "body", m.Body)
	return nil
}

// ─── SMTP ─────────────────────────────────────────────────────────────────────

// SMTPMailer delivers through an SMTP server: implicit TLS on port 465,
// STARTTLS when offered otherwise.
type SMTPMailer struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
	FromName string
}

func (s *SMTPMailer) Send(ctx context.Context, m *Message) error {
	if len(m.To) == 0 {
		return fmt.Errorf("mail: no recipients")
	}
	addr := net.JoinHostPort(s.Host, s.Port)

	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(30 * time.Second)
	}
	dialer := &net.Dialer{Deadline: deadline}

	var conn net.Conn
	var err error
	if s.Port == "465" {
		conn, err = tls.DialWithDialer(dialer, "tcp", addr, &tls.Config{ServerName: s.Host})
	} else {
		conn, err = dialer.DialContext(ctx, "tcp", addr)
	}
	if err != nil {
		return fmt.Errorf("mail: dial %s: %w", addr, err)
	}
	conn.SetDeadline(deadline) //nolint:errcheck

	c, err := smtp.NewClient(conn, s.Host)
	if err != nil {
		conn.Close()
		return fmt.Errorf("mail: handshake: %w", err)
	}
	defer c.Close()

	if s.Port != "465" {
		if ok, _ := c.Extension("STARTTLS"); ok {
			if err := c.StartTLS(&tls.Config{ServerName: s.Host}); err != nil {
				return fmt.Errorf("mail: starttls: %w", err)
			}
		}
	}
	if s.Username != "" {
		if err := c.Auth(smtp.PlainAuth("", s.Username, s.Password, s.Host)); err != nil {
			return fmt.Errorf("mail: auth: %w", err)
		}
	}
	if err := c.Mail(s.From); err != nil {
		return fmt.Errorf("mail: from: %w", err)
	}
	for _, to := range m.To {
		if err := c.Rcpt(to); err != nil {
			return fmt.Errorf("mail: rcpt %s: %w", to, err)
		}
	}
	w, err := c.Data()
	if err != nil {
		return fmt.Errorf("mail: data: %w", err)
	}
	if _, err := w.Write(s.render(m)); err != nil {
		return fmt.Errorf("mail: write: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("mail: close data: %w", err)
	}
	return c.Quit()
}

func (s *SMTPMailer) render(m *Message) []byte {
	ct := "text/plain"
	if m.HTML {
		ct = "text/html"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s <%s>\r\n", s.FromName, s.From)
	fmt.Fprintf(&b, "To: %s\r\n", strings.Join(m.To, ", "))
	fmt.Fprintf(&b, "Subject: %s\r\n", m.Subject)
	fmt.Fprintf(&b, "Date: %s\r\n", time.Now().Format(time.RFC1123Z))
	b.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&b, "Content-Type: %s; charset=\"UTF-8\"\r\n\r\n", ct)
	b.WriteString(m.Body)
	return []byte(b.String())
}
