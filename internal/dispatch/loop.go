// Package dispatch runs the long-poll loop: it pulls updates from the
// gateway, classifies them and drives immediate replies and follow-up chains.
package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/nextlevelbuilder/followbot/internal/bus"
	"github.com/nextlevelbuilder/followbot/internal/channels"
	"github.com/nextlevelbuilder/followbot/internal/classify"
	"github.com/nextlevelbuilder/followbot/internal/operator"
)

// Scheduler arms and cancels follow-up chains.
type Scheduler interface {
	Schedule(chatID bus.ChatID)
	Cancel(chatID bus.ChatID)
}

// Options tunes a Loop. Zero values take the defaults noted per field.
type Options struct {
	Sender       channels.Sender // outbound path (default: the gateway itself)
	PollTimeout  time.Duration   // long-poll timeout (default 30s)
	PollInterval time.Duration   // pause after every poll (default 1s)
	ErrorBackoff time.Duration   // pause after a failed poll (default 5s)
}

// Loop is the single consumer of gateway updates. It is not safe for
// concurrent use; Run owns it.
type Loop struct {
	gateway  channels.Gateway
	sender   channels.Sender
	sched    Scheduler
	operator operator.Replier
	tracer   trace.Tracer

	pollTimeout  time.Duration
	pollInterval time.Duration
	errorBackoff time.Duration

	offset int // next update id to request
}

// New creates a dispatch loop.
func New(gw channels.Gateway, sched Scheduler, op operator.Replier, opts Options) *Loop {
	l := &Loop{
		gateway:      gw,
		sender:       opts.Sender,
		sched:        sched,
		operator:     op,
		tracer:       otel.Tracer("followbot/dispatch"),
		pollTimeout:  opts.PollTimeout,
		pollInterval: opts.PollInterval,
		errorBackoff: opts.ErrorBackoff,
	}
	if l.sender == nil {
		l.sender = gw
	}
	if l.operator == nil {
		l.operator = operator.Silent{}
	}
	if l.pollTimeout <= 0 {
		l.pollTimeout = 30 * time.Second
	}
	if l.pollInterval <= 0 {
		l.pollInterval = time.Second
	}
	if l.errorBackoff <= 0 {
		l.errorBackoff = 5 * time.Second
	}
	return l
}

// Offset returns the id of the next update the loop will request.
func (l *Loop) Offset() int { return l.offset }

// Run polls until ctx is canceled. Retrieval failures are logged and retried
// after the error backoff; they never end the loop.
func (l *Loop) Run(ctx context.Context) error {
	slog.Info("dispatch loop started", "gateway", l.gateway.Name(), "poll_timeout", l.pollTimeout)

	for {
		if ctx.Err() != nil {
			break
		}
		if err := l.poll(ctx); err != nil {
			if ctx.Err() != nil {
				break
			}
			slog.Error("poll failed", "error", err, "offset", l.offset, "backoff", l.errorBackoff)
			if !sleep(ctx, l.errorBackoff) {
				break
			}
		}
		if !sleep(ctx, l.pollInterval) {
			break
		}
	}

	slog.Info("dispatch loop stopped", "offset", l.offset)
	return nil
}

// poll fetches one batch and processes it in order. The offset moves past
// each update before it is handled, so a crash never replays it.
func (l *Loop) poll(ctx context.Context) error {
	updates, err := l.gateway.GetUpdates(ctx, l.offset, l.pollTimeout)
	if err != nil {
		return fmt.Errorf("get updates: %w", err)
	}
	for _, u := range updates {
		if next := u.ID + 1; next > l.offset {
			l.offset = next
		}
		l.process(ctx, u)
	}
	return nil
}

// process classifies and handles one update. A panic is logged and swallowed
// so one bad update cannot stop the loop.
func (l *Loop) process(ctx context.Context, u bus.Update) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("panic while handling update",
				"update_id", u.ID,
				"panic", r,
				"stack", string(debug.Stack()),
			)
		}
	}()

	events := classify.Classify(u)
	if len(events) == 0 {
		slog.Debug("update skipped", "update_id", u.ID)
		return
	}

	for _, ev := range events {
		evCtx, span := l.tracer.Start(ctx, "dispatch."+ev.Kind.String(), trace.WithAttributes(
			attribute.Int("update_id", u.ID),
			attribute.Int64("chat_id", int64(ev.Chat.ID)),
			attribute.Int64("user_id", ev.User.ID),
		))
		l.handle(evCtx, ev)
		span.End()
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
