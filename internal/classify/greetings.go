package classify

import (
	"fmt"

	"github.com/nextlevelbuilder/followbot/internal/bus"
)

// Name fallbacks when a user has neither a first name nor a username.
const (
	FallbackJoin   = "there"
	FallbackDirect = "Trader"
)

const (
	introAsk       = "I’m Mr. Bull—tell me where you’re from and your trading experience."
	introAskPolite = "I’m Mr. Bull—please tell me where you’re from and your trading experience."
)

// DisplayName picks the first name, then the username, then fallback.
func DisplayName(u bus.User, fallback string) string {
	if u.FirstName != "" {
		return u.FirstName
	}
	if u.Username != "" {
		return u.Username
	}
	return fallback
}

// GroupWelcome is posted in the group when a member joins.
func GroupWelcome(name string) string {
	return fmt.Sprintf("Welcome, %s! 🎉", name)
}

// MemberGreeting is sent privately to a new group member.
func MemberGreeting(name, groupTitle string) string {
	return fmt.Sprintf("Hey, %s! Welcome to %s!\n%s", name, groupTitle, introAsk)
}

// ChannelGreetings are sent privately, in order, after a channel join approval.
func ChannelGreetings(name, chatTitle string) []string {
	return []string{
		fmt.Sprintf("Hey, %s! Welcome to %s!", name, chatTitle),
		introAsk,
	}
}

// StartGreetings answer "/start", in order.
func StartGreetings(name string) []string {
	return []string{
		fmt.Sprintf("Hey, %s! Let's get to know each other first!", name),
		introAskPolite,
	}
}
