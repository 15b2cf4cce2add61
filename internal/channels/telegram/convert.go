package telegram

import (
	"github.com/mymmrac/telego"

	"github.com/nextlevelbuilder/followbot/internal/bus"
)

// convertUpdate maps a telego update to the gateway-neutral shape. Fields the
// bot does not use are dropped.
func convertUpdate(u telego.Update) bus.Update {
	out := bus.Update{ID: u.UpdateID}

	if m := u.Message; m != nil {
		msg := &bus.Message{
			Chat: convertChat(m.Chat),
			Text: m.Text,
		}
		if m.From != nil {
			from := convertUser(*m.From)
			msg.From = &from
		}
		for _, member := range m.NewChatMembers {
			msg.NewMembers = append(msg.NewMembers, convertUser(member))
		}
		out.Message = msg
	}

	if cm := u.ChatMember; cm != nil {
		mu := &bus.MemberUpdate{Chat: convertChat(cm.Chat)}
		if cm.OldChatMember != nil {
			mu.OldStatus = cm.OldChatMember.MemberStatus()
		}
		if cm.NewChatMember != nil {
			mu.NewStatus = cm.NewChatMember.MemberStatus()
			mu.User = convertUser(cm.NewChatMember.MemberUser())
		}
		out.ChatMember = mu
	}

	return out
}

func convertChat(c telego.Chat) bus.Chat {
	return bus.Chat{ID: bus.ChatID(c.ID), Type: c.Type, Title: c.Title}
}

func convertUser(u telego.User) bus.User {
	return bus.User{
		ID:        u.ID,
		IsBot:     u.IsBot,
		FirstName: u.FirstName,
		Username:  u.Username,
	}
}
