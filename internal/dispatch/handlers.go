package dispatch

import (
	"context"
	"log/slog"
	"strings"

	"github.com/nextlevelbuilder/followbot/internal/bus"
	"github.com/nextlevelbuilder/followbot/internal/channels"
	"github.com/nextlevelbuilder/followbot/internal/classify"
	"github.com/nextlevelbuilder/followbot/internal/operator"
)

const previewWidth = 60

func (l *Loop) handle(ctx context.Context, ev classify.Event) {
	switch ev.Kind {
	case classify.MemberJoined:
		l.handleMemberJoined(ctx, ev)
	case classify.ChannelJoinApproved:
		l.handleChannelJoin(ctx, ev)
	case classify.DirectStart:
		l.handleStart(ctx, ev)
	case classify.DirectText:
		l.handleText(ctx, ev)
	}
}

// handleMemberJoined greets the member in the group and privately, then
// starts their follow-up chain.
func (l *Loop) handleMemberJoined(ctx context.Context, ev classify.Event) {
	name := classify.DisplayName(ev.User, classify.FallbackJoin)
	member := ev.Conversation()

	slog.Info("member joined", "group_id", ev.Chat.ID, "user_id", ev.User.ID, "name", name)

	l.send(ctx, ev.Chat.ID, classify.GroupWelcome(name))
	l.send(ctx, member, classify.MemberGreeting(name, ev.Chat.Title))
	l.sched.Schedule(member)
}

func (l *Loop) handleChannelJoin(ctx context.Context, ev classify.Event) {
	name := classify.DisplayName(ev.User, classify.FallbackJoin)
	user := ev.Conversation()

	slog.Info("channel join approved", "chat_id", ev.Chat.ID, "user_id", ev.User.ID, "name", name)

	l.sendAll(ctx, user, classify.ChannelGreetings(name, ev.Chat.Title))
	l.sched.Schedule(user)
}

func (l *Loop) handleStart(ctx context.Context, ev classify.Event) {
	name := classify.DisplayName(ev.User, classify.FallbackDirect)

	slog.Info("start command", "chat_id", ev.Chat.ID, "name", name)

	l.sendAll(ctx, ev.Chat.ID, classify.StartGreetings(name))
	l.sched.Schedule(ev.Chat.ID)
}

// handleText hands a direct message to the operator. Pending follow-ups are
// canceled first: a human is now in the conversation.
func (l *Loop) handleText(ctx context.Context, ev classify.Event) {
	chatID := ev.Chat.ID
	l.sched.Cancel(chatID)

	name := classify.DisplayName(ev.User, classify.FallbackDirect)
	slog.Info("direct message", "chat_id", chatID, "name", name, "text_preview", channels.Preview(ev.Text, previewWidth))

	reply, err := l.operator.Reply(ctx, operator.Prompt{ChatID: chatID, Name: name, Text: ev.Text})
	if err != nil {
		slog.Warn("operator reply unavailable", "chat_id", chatID, "error", err)
		return
	}
	reply = strings.TrimSpace(reply)
	if reply == "" {
		slog.Debug("operator skipped reply", "chat_id", chatID)
		return
	}
	l.send(ctx, chatID, reply)
	l.sched.Schedule(chatID)
}

// sendAll attempts every text in order, whatever the earlier sends returned.
func (l *Loop) sendAll(ctx context.Context, chatID bus.ChatID, texts []string) {
	for _, text := range texts {
		l.send(ctx, chatID, text)
	}
}

// send delivers text and applies the delivery error policy: a permanent
// failure cancels the chat's follow-ups, anything else is only logged.
// A chain armed after a permanent failure stops itself on its first step.
func (l *Loop) send(ctx context.Context, chatID bus.ChatID, text string) {
	err := l.sender.Send(ctx, chatID, text)
	if err == nil {
		return
	}
	if channels.IsPermanent(err) {
		slog.Warn("recipient unreachable, canceling follow-ups", "chat_id", chatID, "error", err)
		l.sched.Cancel(chatID)
		return
	}
	slog.Error("send failed", "chat_id", chatID, "error", err)
}
