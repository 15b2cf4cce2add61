// Package channels provides the messaging gateway abstraction: long-poll
// retrieval of updates, outbound text delivery, the delivery error taxonomy
// and outbound rate limiting shared by every sender.
package channels

import (
	"context"
	"strings"
	"time"

	"github.com/mattn/go-runewidth"

	"github.com/nextlevelbuilder/followbot/internal/bus"
)

// Sender delivers a text message to a chat.
// Implementations return a *DeliveryError so callers can tell a permanently
// unreachable recipient (IsPermanent) from a transient failure.
type Sender interface {
	Send(ctx context.Context, chatID bus.ChatID, text string) error
}

// Gateway is the messaging provider as seen by the dispatch loop.
type Gateway interface {
	Sender

	// Name returns the gateway identifier (e.g. "telegram").
	Name() string

	// GetUpdates blocks for up to timeout and returns the updates with
	// id >= offset in ascending id order. Callers pass lastSeenID+1 as the
	// next offset.
	GetUpdates(ctx context.Context, offset int, timeout time.Duration) ([]bus.Update, error)
}

// SenderFunc adapts a function to the Sender interface.
type SenderFunc func(ctx context.Context, chatID bus.ChatID, text string) error

// Send calls f.
func (f SenderFunc) Send(ctx context.Context, chatID bus.ChatID, text string) error {
	return f(ctx, chatID, text)
}

// Preview flattens s to one line and truncates it to width terminal cells,
// appending "..." if truncated. Used for log lines.
func Preview(s string, width int) string {
	s = strings.Join(strings.Fields(s), " ")
	return runewidth.Truncate(s, width, "...")
}
