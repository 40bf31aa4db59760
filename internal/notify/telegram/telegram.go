// Package telegram is the Telegram notification channel.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
	tele "gopkg.in/telebot.v4"

	"remindbot/internal/config"
	"remindbot/pkg/logx"
)

// textLimit is Telegram's message cap with headroom for the subject line.
const textLimit = 4000

// Channel sends outbound messages to a single chat. It never polls for
// updates; remindbot's Telegram use is one-way.
type Channel struct {
	mu      sync.RWMutex
	cfg     config.TelegramConfig
	bot     *tele.Bot
	limiter *rate.Limiter
	log     logx.Logger
}

func New(cfg config.TelegramConfig, log logx.Logger) (*Channel, error) {
	if log.IsZero() {
		log = logx.Nop()
	}
	c := &Channel{log: log}
	if err := c.Apply(cfg); err != nil {
		return nil, err
	}
	return c, nil
}

// Apply installs a new configuration, rebuilding the bot when the token
// changed. A disabled config tears the bot down.
func (c *Channel) Apply(cfg config.TelegramConfig) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	rps := cfg.RatePerSec
	if rps <= 0 {
		rps = 1
	}
	c.limiter = rate.NewLimiter(rate.Limit(rps), rps)

	if !cfg.Enabled || strings.TrimSpace(cfg.Token) == "" {
		c.cfg = cfg
		c.bot = nil
		return nil
	}

	if c.bot == nil || c.cfg.Token != cfg.Token {
		b, err := tele.NewBot(tele.Settings{
			Token:  cfg.Token,
			Poller: &tele.LongPoller{Timeout: 10 * time.Second},
		})
		if err != nil {
			return fmt.Errorf("telegram bot init: %w", err)
		}
		c.bot = b
	}
	c.cfg = cfg
	return nil
}

func (c *Channel) Name() string { return "telegram" }

func (c *Channel) Enabled() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.cfg.Enabled && c.bot != nil && c.cfg.ChatID != 0
}

// Send delivers one message, rate-limited and HTML-formatted.
func (c *Channel) Send(ctx context.Context, subject, body string) error {
	c.mu.RLock()
	bot := c.bot
	chatID := c.cfg.ChatID
	lim := c.limiter
	c.mu.RUnlock()

	if bot == nil || chatID == 0 {
		return errors.New("telegram channel not configured")
	}
	if err := lim.Wait(ctx); err != nil {
		return err
	}

	text := formatMessage(subject, body)
	_, err := bot.Send(tele.ChatID(chatID), text, &tele.SendOptions{
		ParseMode:             tele.ModeHTML,
		DisableWebPagePreview: true,
	})
	if err != nil {
		return fmt.Errorf("telegram send: %w", err)
	}
	return nil
}

func formatMessage(subject, body string) string {
	text := "<b>" + html.EscapeString(subject) + "</b>\n\n" + html.EscapeString(body)
	rs := []rune(text)
	if len(rs) > textLimit {
		text = string(rs[:textLimit-3]) + "..."
	}
	return text
}
