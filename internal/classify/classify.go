package classify

import (
	"strings"

	"github.com/nextlevelbuilder/followbot/internal/bus"
)

const startCommand = "/start"

// Classify maps an update to zero or more events. It is pure: the first
// matching rule decides, and an update that matches no rule yields nil.
//
//  1. service message with new members: one MemberJoined per non-bot member
//  2. chat-member update left/kicked → member in a channel or supergroup
//  3. no text message: nothing
//  4. text "/start": DirectStart
//  5. any other text: DirectText
func Classify(u bus.Update) []Event {
	if m := u.Message; m != nil && len(m.NewMembers) > 0 {
		return memberJoined(m)
	}

	if cm := u.ChatMember; cm != nil {
		if isApprovedJoin(cm) {
			return []Event{{Kind: ChannelJoinApproved, Chat: cm.Chat, User: cm.User}}
		}
		return nil
	}

	m := u.Message
	if m == nil || m.Text == "" {
		return nil
	}

	var from bus.User
	if m.From != nil {
		from = *m.From
	}
	text := strings.TrimSpace(m.Text)
	if text == startCommand {
		return []Event{{Kind: DirectStart, Chat: m.Chat, User: from}}
	}
	return []Event{{Kind: DirectText, Chat: m.Chat, User: from, Text: text}}
}

func memberJoined(m *bus.Message) []Event {
	var events []Event
	for _, member := range m.NewMembers {
		if member.IsBot {
			continue
		}
		events = append(events, Event{Kind: MemberJoined, Chat: m.Chat, User: member})
	}
	return events
}

func isApprovedJoin(cm *bus.MemberUpdate) bool {
	switch cm.Chat.Type {
	case bus.ChatTypeChannel, bus.ChatTypeSupergroup:
	default:
		return false
	}
	switch cm.OldStatus {
	case bus.MemberStatusLeft, bus.MemberStatusKicked:
	default:
		return false
	}
	return cm.NewStatus == bus.MemberStatusMember
}
