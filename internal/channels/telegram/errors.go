package telegram

import (
	"errors"
	"net/http"
	"strings"

	"github.com/mymmrac/telego/telegoapi"

	"github.com/nextlevelbuilder/followbot/internal/bus"
	"github.com/nextlevelbuilder/followbot/internal/channels"
)

// unreachableMarkers are substrings of Bot API error descriptions meaning the
// recipient can never be messaged (blocked bot, deleted account, no chat).
var unreachableMarkers = []string{
	"Forbidden",
	"bot was blocked by the user",
	"user is deactivated",
	"bot can't initiate conversation",
	"chat not found",
}

// classifySendError wraps a sendMessage failure as permanent when Telegram
// answered 403 or described an unreachable recipient, transient otherwise.
func classifySendError(chatID bus.ChatID, err error) error {
	var apiErr *telegoapi.Error
	if errors.As(err, &apiErr) && apiErr.ErrorCode == http.StatusForbidden {
		return channels.Permanent(chatID, err)
	}
	msg := err.Error()
	for _, marker := range unreachableMarkers {
		if strings.Contains(msg, marker) {
			return channels.Permanent(chatID, err)
		}
	}
	return channels.Transient(chatID, err)
}
