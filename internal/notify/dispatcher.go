// Package notify delivers composed messages over the configured notification
// channels and aggregates per-channel outcomes.
package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"remindbot/pkg/logx"
)

// ErrNoChannelsEnabled is returned when a send is attempted with every
// channel disabled.
var ErrNoChannelsEnabled = errors.New("no notification channels enabled")

// Channel is one configured delivery mechanism. Enabled() is consulted on
// every send so configuration reloads take effect immediately.
type Channel interface {
	Name() string
	Enabled() bool
	Send(ctx context.Context, subject, body string) error
}

// Outcome is a single channel's delivery result.
type Outcome struct {
	Channel string
	OK      bool
	Detail  string
}

// SendResult aggregates per-channel outcomes for one dispatch.
//
// Dispatcher.Send returns a nil error as long as at least one channel was
// enabled, even when every enabled channel failed. Callers that care must
// check Delivered() or walk Outcomes rather than rely on the error alone.
type SendResult struct {
	Outcomes []Outcome
}

// Delivered reports whether at least one channel succeeded.
func (r *SendResult) Delivered() bool {
	for _, o := range r.Outcomes {
		if o.OK {
			return true
		}
	}
	return false
}

// Summary renders the joined per-channel result string.
func (r *SendResult) Summary() string {
	parts := make([]string, 0, len(r.Outcomes))
	for _, o := range r.Outcomes {
		if o.OK {
			parts = append(parts, fmt.Sprintf("%s: %s", o.Channel, o.Detail))
		} else {
			parts = append(parts, fmt.Sprintf("%s: failed (%s)", o.Channel, o.Detail))
		}
	}
	return strings.Join(parts, "; ")
}

// Dispatcher fans a message out to all enabled channels. One channel's
// failure never aborts the others.
type Dispatcher struct {
	mu       sync.RWMutex
	channels []Channel
	log      logx.Logger
}

func NewDispatcher(log logx.Logger, channels ...Channel) *Dispatcher {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Dispatcher{channels: channels, log: log}
}

// SetChannels swaps the channel set (config hot-reload).
func (d *Dispatcher) SetChannels(channels ...Channel) {
	d.mu.Lock()
	d.channels = channels
	d.mu.Unlock()
}

// Send delivers subject/body over every enabled channel.
func (d *Dispatcher) Send(ctx context.Context, subject, body string) (*SendResult, error) {
	d.mu.RLock()
	channels := append([]Channel(nil), d.channels...)
	d.mu.RUnlock()

	res := &SendResult{}
	for _, ch := range channels {
		if !ch.Enabled() {
			continue
		}
		if err := ch.Send(ctx, subject, body); err != nil {
			d.log.Warn("channel send failed", logx.String("channel", ch.Name()), logx.Err(err))
			res.Outcomes = append(res.Outcomes, Outcome{Channel: ch.Name(), OK: false, Detail: err.Error()})
			continue
		}
		d.log.Debug("channel send ok", logx.String("channel", ch.Name()))
		res.Outcomes = append(res.Outcomes, Outcome{Channel: ch.Name(), OK: true, Detail: "sent"})
	}

	if len(res.Outcomes) == 0 {
		return nil, ErrNoChannelsEnabled
	}
	return res, nil
}

// SendDigest formats the digest template and delegates to Send.
func (d *Dispatcher) SendDigest(ctx context.Context, stats DigestStats) (*SendResult, error) {
	return d.Send(ctx, "Task digest", FormatDigest(stats))
}
