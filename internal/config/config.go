package config

import (
	"fmt"
	"sync"
	"time"

	"github.com/nextlevelbuilder/followbot/internal/followup"
)

// Config is the root configuration for followbot.
type Config struct {
	Telegram  TelegramConfig  `json:"telegram"`
	Dispatch  DispatchConfig  `json:"dispatch"`
	Outbound  OutboundConfig  `json:"outbound"`
	FollowUps []FollowUpStep  `json:"followups,omitempty"` // empty = built-in five-step chain
	Operator  OperatorConfig  `json:"operator"`
	Telemetry TelemetryConfig `json:"telemetry,omitempty"`
	mu        sync.RWMutex
}

// TelegramConfig configures the Bot API connection.
type TelegramConfig struct {
	Token             string `json:"token"`
	Proxy             string `json:"proxy,omitempty"`
	APIServer         string `json:"api_server,omitempty"`          // default https://api.telegram.org
	PollTimeoutSec    int    `json:"poll_timeout_sec,omitempty"`    // getUpdates long-poll timeout (default 30)
	ConnectTimeoutSec int    `json:"connect_timeout_sec,omitempty"` // dial timeout (default 5)
	ReadTimeoutSec    int    `json:"read_timeout_sec,omitempty"`    // response header timeout on top of the poll timeout (default 5)
	MaxIdleConns      int    `json:"max_idle_conns,omitempty"`      // HTTP connection pool size (default 8)
}

// DispatchConfig tunes the long-poll loop.
type DispatchConfig struct {
	PollInterval string `json:"poll_interval,omitempty"` // pause after every poll (default "1s", Go duration)
	ErrorBackoff string `json:"error_backoff,omitempty"` // pause after a failed poll (default "5s", Go duration)
}

// OutboundConfig limits the send rate towards Telegram.
type OutboundConfig struct {
	RatePerSec    float64 `json:"rate_per_sec,omitempty"`     // global sends per second (default 25)
	Burst         int     `json:"burst,omitempty"`            // global burst (default 5)
	PerChatPerSec float64 `json:"per_chat_per_sec,omitempty"` // sends per second to a single chat (default 1)
}

// FollowUpStep is one configured entry of the follow-up chain.
type FollowUpStep struct {
	Delay   string `json:"delay"`   // Go duration, relative to the time the chain is scheduled
	Message string `json:"message"`
}

// OperatorConfig selects how replies to direct messages are collected.
type OperatorConfig struct {
	Mode string `json:"mode,omitempty"` // "terminal" (default), "plain", "none"
}

// Operator modes.
const (
	OperatorTerminal = "terminal"
	OperatorPlain    = "plain"
	OperatorNone     = "none"
)

// TelemetryConfig configures optional OTLP trace export.
type TelemetryConfig struct {
	Enabled     bool              `json:"enabled,omitempty"`      // enable OTLP export (default false)
	Endpoint    string            `json:"endpoint,omitempty"`     // OTLP endpoint (e.g. "localhost:4317")
	Protocol    string            `json:"protocol,omitempty"`     // "grpc" (default) or "http"
	Insecure    bool              `json:"insecure,omitempty"`     // plaintext connection (local dev)
	ServiceName string            `json:"service_name,omitempty"` // OTEL service name (default "followbot")
	Headers     map[string]string `json:"headers,omitempty"`      // extra headers (e.g. auth tokens for cloud backends)
}

// PollTimeout returns the long-poll timeout.
func (tc TelegramConfig) PollTimeout() time.Duration {
	return time.Duration(positiveOr(tc.PollTimeoutSec, 30)) * time.Second
}

// ConnectTimeout returns the dial timeout.
func (tc TelegramConfig) ConnectTimeout() time.Duration {
	return time.Duration(positiveOr(tc.ConnectTimeoutSec, 5)) * time.Second
}

// ReadTimeout returns how long to wait for response headers. Long polls hold
// the response for up to PollTimeout, so the read budget is added on top.
func (tc TelegramConfig) ReadTimeout() time.Duration {
	return tc.PollTimeout() + time.Duration(positiveOr(tc.ReadTimeoutSec, 5))*time.Second
}

// PoolSize returns the max idle connections per host.
func (tc TelegramConfig) PoolSize() int {
	return positiveOr(tc.MaxIdleConns, 8)
}

// Intervals returns the poll interval and error backoff with defaults applied.
func (dc DispatchConfig) Intervals() (poll, backoff time.Duration) {
	poll, backoff = time.Second, 5*time.Second
	if dc.PollInterval != "" {
		if d, err := time.ParseDuration(dc.PollInterval); err == nil && d > 0 {
			poll = d
		}
	}
	if dc.ErrorBackoff != "" {
		if d, err := time.ParseDuration(dc.ErrorBackoff); err == nil && d > 0 {
			backoff = d
		}
	}
	return poll, backoff
}

// FollowUpChain builds the follow-up chain. An empty table yields the built-in chain.
func (c *Config) FollowUpChain() (followup.Chain, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if len(c.FollowUps) == 0 {
		return followup.DefaultChain(), nil
	}
	steps := make([]followup.Step, 0, len(c.FollowUps))
	for i, s := range c.FollowUps {
		d, err := time.ParseDuration(s.Delay)
		if err != nil {
			return followup.Chain{}, fmt.Errorf("followups[%d]: parse delay %q: %w", i, s.Delay, err)
		}
		steps = append(steps, followup.Step{Delay: d, Message: s.Message})
	}
	return followup.NewChain(steps...)
}

// Validate reports configuration errors that prevent the bot from starting.
func (c *Config) Validate() error {
	if c.Telegram.Token == "" {
		return fmt.Errorf("telegram token is required (set telegram.token or FOLLOWBOT_TELEGRAM_TOKEN)")
	}
	switch c.Operator.Mode {
	case "", OperatorTerminal, OperatorPlain, OperatorNone:
	default:
		return fmt.Errorf("unknown operator mode %q", c.Operator.Mode)
	}
	if _, err := c.FollowUpChain(); err != nil {
		return err
	}
	return nil
}

func positiveOr(v, def int) int {
	if v > 0 {
		return v
	}
	return def
}
