// Package mailer relays contact form messages to the site owner.
package mailer

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"mygallery/config"
)

// ErrDisabled is returned when no relay is configured.
var ErrDisabled = errors.New("mailer: smtp is not configured")

type Sender interface {
	SendContact(ctx context.Context, from, message string) error
}

type SMTP struct {
	cfg         config.SMTPConfig
	dialTimeout time.Duration
	log         *zap.Logger
}

func NewSMTP(cfg config.SMTPConfig, log *zap.Logger) *SMTP {
	return &SMTP{cfg: cfg, dialTimeout: 15 * time.Second, log: log.Named("mailer")}
}

// SendContact mails a visitor's message to the configured recipient, with
// Reply-To set to the visitor.
func (s *SMTP) SendContact(ctx context.Context, from, message string) error {
	if !s.cfg.Enabled() {
		return ErrDisabled
	}
	sender := s.cfg.From
	if sender == "" {
		sender = s.cfg.Username
	}
	msg := buildMessage(sender, s.cfg.To, from, "Gallery contact from "+from, message)

	if err := s.send(ctx, sender, msg); err != nil {
		s.log.Error("sending contact mail failed", zap.String("to", s.cfg.To), zap.Error(err))
		return err
	}
	s.log.Info("contact mail sent", zap.String("to", s.cfg.To), zap.String("reply_to", from))
	return nil
}

func (s *SMTP) send(ctx context.Context, sender string, msg []byte) error {
	addr := net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port))
	dialer := net.Dialer{Timeout: s.dialTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("dial %s: %w", addr, err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		conn.SetDeadline(deadline)
	}

	c, err := smtp.NewClient(conn, s.cfg.Host)
	if err != nil {
		conn.Close()
		return fmt.Errorf("smtp handshake: %w", err)
	}
	defer c.Close()

	if ok, _ := c.Extension("STARTTLS"); ok {
		if err := c.StartTLS(&tls.Config{ServerName: s.cfg.Host}); err != nil {
			return fmt.Errorf("starttls: %w", err)
		}
	}
	if s.cfg.Username != "" {
		if err := c.Auth(smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)); err != nil {
			return fmt.Errorf("smtp auth: %w", err)
		}
	}
	if err := c.Mail(sender); err != nil {
		return err
	}
	if err := c.Rcpt(s.cfg.To); err != nil {
		return err
	}
	w, err := c.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(msg); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	return c.Quit()
}

func buildMessage(from, to, replyTo, subject, body string) []byte {
	var b strings.Builder
	header := func(k, v string) {
		// Header values must stay on one line.
		v = strings.NewReplacer("\r", " ", "\n", " ").Replace(v)
		fmt.Fprintf(&b, "%s: %s\r\n", k, v)
	}
	header("From", from)
	header("To", to)
	header("Reply-To", replyTo)
	header("Subject", subject)
	header("MIME-Version", "1.0")
	header("Content-Type", "text/plain; charset=UTF-8")
	b.WriteString("\r\n")
	b.WriteString(body)
	b.WriteString("\r\n")
	return []byte(b.String())
}
