// Package telegram implements the messaging gateway on top of the Telegram
// Bot API using telego.
package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"

	"github.com/nextlevelbuilder/followbot/internal/bus"
	"github.com/nextlevelbuilder/followbot/internal/config"
)

// allowedUpdates lists the update types the bot needs. chat_member is not
// delivered by Telegram unless requested explicitly.
var allowedUpdates = []string{
	"message",
	"chat_member",
}

// Channel talks to Telegram via getUpdates long polling and sendMessage.
type Channel struct {
	bot    *telego.Bot
	config config.TelegramConfig
}

// New creates a Telegram channel from config. The HTTP client carries the
// configured connection pool and timeouts.
func New(cfg config.TelegramConfig) (*Channel, error) {
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   cfg.ConnectTimeout(),
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:          cfg.PoolSize(),
		MaxIdleConnsPerHost:   cfg.PoolSize(),
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   cfg.ConnectTimeout(),
		ResponseHeaderTimeout: cfg.ReadTimeout(),
	}

	if cfg.Proxy != "" {
		proxyURL, parseErr := url.Parse(cfg.Proxy)
		if parseErr != nil {
			return nil, fmt.Errorf("invalid proxy URL %q: %w", cfg.Proxy, parseErr)
		}
		transport.Proxy = http.ProxyURL(proxyURL)
	}

	opts := []telego.BotOption{
		telego.WithHTTPClient(&http.Client{Transport: transport}),
		telego.WithLogger(slogLogger{}),
	}
	if cfg.APIServer != "" {
		opts = append(opts, telego.WithAPIServer(cfg.APIServer))
	}

	bot, err := telego.NewBot(cfg.Token, opts...)
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}

	return &Channel{bot: bot, config: cfg}, nil
}

// Name returns "telegram".
func (c *Channel) Name() string { return "telegram" }

// GetUpdates long-polls Telegram for updates with id >= offset.
func (c *Channel) GetUpdates(ctx context.Context, offset int, timeout time.Duration) ([]bus.Update, error) {
	updates, err := c.bot.GetUpdates(ctx, &telego.GetUpdatesParams{
		Offset:         offset,
		Timeout:        int(timeout / time.Second),
		AllowedUpdates: allowedUpdates,
	})
	if err != nil {
		return nil, fmt.Errorf("telegram getUpdates: %w", err)
	}

	out := make([]bus.Update, 0, len(updates))
	for _, u := range updates {
		out = append(out, convertUpdate(u))
	}
	return out, nil
}

// Send delivers a plain text message. Failures are returned as
// *channels.DeliveryError classified by classifySendError.
func (c *Channel) Send(ctx context.Context, chatID bus.ChatID, text string) error {
	if _, err := c.bot.SendMessage(ctx, tu.Message(tu.ID(int64(chatID)), text)); err != nil {
		return classifySendError(chatID, err)
	}
	return nil
}

// slogLogger routes telego's internal logging into slog.
type slogLogger struct{}

func (slogLogger) Debugf(format string, args ...any) {
	slog.Debug("telego: " + fmt.Sprintf(format, args...))
}

func (slogLogger) Errorf(format string, args ...any) {
	slog.Warn("telego: " + fmt.Sprintf(format, args...))
}
