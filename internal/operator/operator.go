// Package operator collects manual replies from the human watching the bot.
// A reply is requested for every free-text direct message; the dispatch loop
// waits for the answer before handling the next update.
package operator

import (
	"context"

	"github.com/nextlevelbuilder/followbot/internal/bus"
)

// Prompt is an inbound direct message shown to the operator.
type Prompt struct {
	ChatID bus.ChatID
	Name   string
	Text   string
}

// Replier yields the operator's reply to a prompt. An empty reply means
// nothing should be sent.
type Replier interface {
	Reply(ctx context.Context, p Prompt) (string, error)
}

// Silent never replies. Used when no operator is attached.
type Silent struct{}

// Reply returns an empty reply.
func (Silent) Reply(context.Context, Prompt) (string, error) { return "", nil }
