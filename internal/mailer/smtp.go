// Package mailer sends the transactional mail of the service.
package mailer

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"github.com/iliyamo/salvambiente-api/internal/config"
)

// ErrNotConfigured is returned when SMTP_HOST, SMTP_USER or SMTP_PASS is
// missing.
var ErrNotConfigured = errors.New("smtp not configured")

const resetSubject = "Código de recuperación de contraseña"

// sendFunc matches smtp.SendMail; tests swap in a recorder.
type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// SMTPMailer delivers HTML mail through an authenticated SMTP relay.
type SMTPMailer struct {
	cfg  config.SMTPConfig
	send sendFunc
}

// NewSMTPMailer builds a mailer.  The sender defaults to the SMTP user.
func NewSMTPMailer(cfg config.SMTPConfig) *SMTPMailer {
	if cfg.From == "" {
		cfg.From = cfg.User
	}
	return &SMTPMailer{cfg: cfg, send: smtp.SendMail}
}

// SendResetCode mails a password reset code valid for ttl.
func (m *SMTPMailer) SendResetCode(ctx context.Context, to, code string, ttl time.Duration) error {
	if m.cfg.Host == "" || m.cfg.User == "" || m.cfg.Pass == "" {
		return ErrNotConfigured
	}
	if err := ctx.Err(); err != nil { // smtp.SendMail takes no context
		return err
	}
	msg := buildMessage(m.cfg.From, to, resetSubject, resetBody(code, ttl))
	addr := net.JoinHostPort(m.cfg.Host, strconv.Itoa(m.cfg.Port))
	auth := smtp.PlainAuth("", m.cfg.User, m.cfg.Pass, m.cfg.Host)
	if err := m.send(addr, auth, m.cfg.From, []string{to}, msg); err != nil {
		return fmt.Errorf("send mail to %s: %w", to, err)
	}
	return nil
}

func resetBody(code string, ttl time.Duration) string {
	return fmt.Sprintf("<p>Tu código de recuperación es: <b>%s</b></p><p>Este código es válido por %d minutos.</p>",
		code, int(ttl.Minutes()))
}

// buildMessage renders headers and body with CRLF line endings.  Only
// the subject needs encoding; the body is declared utf-8.
func buildMessage(from, to, subject, html string) []byte {
	return []byte(strings.Join([]string{
		"From: " + from,
		"To: " + to,
		"Subject: " + mime.QEncoding.Encode("utf-8", subject),
		"MIME-Version: 1.0",
		"Content-Type: text/html; charset=utf-8",
		"",
		html,
	}, "\r\n"))
}
