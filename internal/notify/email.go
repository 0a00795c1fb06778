package notify

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/smtp"
	"strings"
)

var ErrNotConfigured = errors.New("channel not configured")

type EmailSender interface {
	SendEmail(ctx context.Context, to, subject, body string) error
}

type sendMailFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// SMTPSender delivers plain-text mail through an SMTP relay.
type SMTPSender struct {
	addr     string
	username string
	password string
	from     string
	send     sendMailFunc
}

func NewSMTPSender(addr, username, password, from string) *SMTPSender {
	return &SMTPSender{addr: addr, username: username, password: password, from: from, send: smtp.SendMail}
}

func (s *SMTPSender) SendEmail(ctx context.Context, to, subject, body string) error {
	if s == nil || s.addr == "" || s.from == "" {
		return ErrNotConfigured
	}
	if to == "" {
		return errors.New("missing recipient")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	var a smtp.Auth
	if s.username != "" {
		host, _, err := net.SplitHostPort(s.addr)
		if err != nil {
			host = s.addr
		}
		a = smtp.PlainAuth("", s.username, s.password, host)
	}
	if err := s.send(s.addr, a, s.from, []string{to}, buildMessage(s.from, to, subject, body)); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}

func buildMessage(from, to, subject, body string) []byte {
	clean := strings.NewReplacer("\r", "", "\n", " ")
	var b strings.Builder
	b.WriteString("From: " + clean.Replace(from) + "\r\n")
	b.WriteString("To: " + clean.Replace(to) + "\r\n")
	b.WriteString("Subject: " + clean.Replace(subject) + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n\r\n")
	b.WriteString(strings.ReplaceAll(body, "\n", "\r\n"))
	return []byte(b.String())
}
