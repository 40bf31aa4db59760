package email

import (
	"context"
	"net/smtp"
	"strings"
	"testing"

	"remindbot/internal/config"
	"remindbot/pkg/logx"
)

func testConfig() config.EmailConfig {
	return config.EmailConfig{
		Enabled: true,
		Host:    "mail.example.com",
		Port:    2525,
		From:    "bot@example.com",
		To:      []string{"me@example.com", "you@example.com"},
	}
}

func TestSendComposesMessage(t *testing.T) {
	t.Parallel()
	c := New(testConfig(), logx.Nop())

	var gotAddr, gotFrom string
	var gotTo []string
	var gotMsg []byte
	c.send = func(addr string, _ smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotFrom, gotTo, gotMsg = addr, from, to, msg
		return nil
	}

	if err := c.Send(context.Background(), "Reminder: dentist", "at 15:00"); err != nil {
		t.Fatalf("send: %v", err)
	}
	if gotAddr != "mail.example.com:2525" {
		t.Fatalf("addr = %s", gotAddr)
	}
	if gotFrom != "bot@example.com" || len(gotTo) != 2 {
		t.Fatalf("from = %s, to = %v", gotFrom, gotTo)
	}
	msg := string(gotMsg)
	if !strings.Contains(msg, "Subject: ") || !strings.Contains(msg, "at 15:00") {
		t.Fatalf("message malformed:\n%s", msg)
	}
	if !strings.Contains(msg, "\r\n\r\n") {
		t.Fatalf("missing header/body separator:\n%s", msg)
	}
}

func TestEnabledRequiresRecipients(t *testing.T) {
	t.Parallel()
	cfg := testConfig()
	cfg.To = nil
	c := New(cfg, logx.Nop())
	if c.Enabled() {
		t.Fatal("Enabled() = true with no recipients")
	}
}

func TestSendUnconfigured(t *testing.T) {
	t.Parallel()
	c := New(config.EmailConfig{Enabled: true}, logx.Nop())
	if err := c.Send(context.Background(), "s", "b"); err == nil {
		t.Fatal("expected error for unconfigured channel")
	}
}
