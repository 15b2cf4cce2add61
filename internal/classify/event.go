// Package classify turns gateway updates into the conversation events the
// bot reacts to, and renders the greetings for them.
package classify

import "github.com/nextlevelbuilder/followbot/internal/bus"

// Kind enumerates the handled conversation scenarios.
type Kind int

const (
	MemberJoined        Kind = iota + 1 // a user was added to a group
	ChannelJoinApproved                 // a join request to a channel/supergroup was approved
	DirectStart                         // "/start" in a chat with the bot
	DirectText                          // any other text in a chat with the bot
)

func (k Kind) String() string {
	switch k {
	case MemberJoined:
		return "member_joined"
	case ChannelJoinApproved:
		return "channel_join_approved"
	case DirectStart:
		return "direct_start"
	case DirectText:
		return "direct_text"
	default:
		return "unknown"
	}
}

// Event is one classified scenario. Which fields are meaningful depends on Kind:
//
//	MemberJoined:        Chat = the group, User = the new member
//	ChannelJoinApproved: Chat = the channel/supergroup, User = the approved user
//	DirectStart:         Chat = the direct chat, User = the sender
//	DirectText:          Chat = the direct chat, User = the sender, Text = trimmed text
type Event struct {
	Kind Kind
	Chat bus.Chat
	User bus.User
	Text string
}

// Conversation returns the chat that owns the follow-up chain for e: the
// private chat with the user for joins, the chat itself for direct messages.
func (e Event) Conversation() bus.ChatID {
	switch e.Kind {
	case MemberJoined, ChannelJoinApproved:
		return bus.ChatID(e.User.ID)
	default:
		return e.Chat.ID
	}
}
