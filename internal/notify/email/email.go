// Package email is the SMTP notification channel.
package email

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"net/smtp"
	"strings"
	"sync"
	"time"

	"remindbot/internal/config"
	"remindbot/pkg/logx"
)

// Channel delivers messages over plain SMTP. Auth is used only when a
// username is configured; local relays commonly run without it.
type Channel struct {
	mu  sync.RWMutex
	cfg config.EmailConfig
	log logx.Logger

	// send is swapped in tests.
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func New(cfg config.EmailConfig, log logx.Logger) *Channel {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Channel{cfg: cfg, log: log, send: smtp.SendMail}
}

// Apply installs a new configuration.
func (c *Channel) Apply(cfg config.EmailConfig) {
	c.mu.Lock()
	c.cfg = cfg
	c.mu.Unlock()
}

func (c *Channel) Name() string { return "email" }

func (c *Channel) Enabled() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.cfg.Enabled && c.cfg.Host != "" && c.cfg.From != "" && len(c.cfg.To) > 0
}

// Send composes and delivers one message. smtp.SendMail is not context
// aware; cancellation is checked up front and the dial relies on the
// server-side timeout.
func (c *Channel) Send(ctx context.Context, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	c.mu.RLock()
	cfg := c.cfg
	send := c.send
	c.mu.RUnlock()

	if cfg.Host == "" || cfg.From == "" || len(cfg.To) == 0 {
		return errors.New("email channel not configured")
	}

	port := cfg.Port
	if port == 0 {
		port = 587
	}
	addr := fmt.Sprintf("%s:%d", cfg.Host, port)

	var auth smtp.Auth
	if cfg.Username != "" {
		auth = smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)
	}

	msg := composeMessage(cfg.From, cfg.To, subject, body)
	if err := send(addr, auth, cfg.From, cfg.To, msg); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}

func composeMessage(from string, to []string, subject, body string) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", strings.Join(to, ", "))
	fmt.Fprintf(&b, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", subject))
	fmt.Fprintf(&b, "Date: %s\r\n", time.Now().Format(time.RFC1123Z))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=\"utf-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(body)
	b.WriteString("\r\n")
	return []byte(b.String())
}
