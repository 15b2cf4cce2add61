// Package bus holds the gateway-neutral message shapes exchanged between the
// messaging channel, the classifier and the dispatch loop.
package bus

// ChatID identifies a Telegram chat. For direct conversations it equals the user ID.
type ChatID int64

// Chat types reported by the gateway.
const (
	ChatTypePrivate    = "private"
	ChatTypeGroup      = "group"
	ChatTypeSupergroup = "supergroup"
	ChatTypeChannel    = "channel"
)

// Member statuses reported in chat-member updates.
const (
	MemberStatusMember = "member"
	MemberStatusLeft   = "left"
	MemberStatusKicked = "kicked"
)

// User is the sender or subject of an update.
type User struct {
	ID        int64  `json:"id"`
	IsBot     bool   `json:"is_bot,omitempty"`
	FirstName string `json:"first_name,omitempty"`
	Username  string `json:"username,omitempty"`
}

// Chat describes where an update happened.
type Chat struct {
	ID    ChatID `json:"id"`
	Type  string `json:"type"`
	Title string `json:"title,omitempty"`
}

// Message is an inbound chat message. Service messages (member joins) carry
// NewMembers and usually no text.
type Message struct {
	Chat       Chat   `json:"chat"`
	From       *User  `json:"from,omitempty"`
	Text       string `json:"text,omitempty"`
	NewMembers []User `json:"new_chat_members,omitempty"`
}

// MemberUpdate reports a change of a user's membership status in a chat.
type MemberUpdate struct {
	Chat      Chat   `json:"chat"`
	User      User   `json:"user"`       // whose status changed
	OldStatus string `json:"old_status"` // "left", "kicked", "member", ...
	NewStatus string `json:"new_status"`
}

// Update is one item returned by the gateway's long-poll retrieval.
// At most one of Message and ChatMember is set.
type Update struct {
	ID         int           `json:"update_id"`
	Message    *Message      `json:"message,omitempty"`
	ChatMember *MemberUpdate `json:"chat_member,omitempty"`
}
