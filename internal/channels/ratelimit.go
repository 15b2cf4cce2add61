package channels

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/nextlevelbuilder/followbot/internal/bus"
)

const (
	// maxTrackedChats caps the number of per-chat limiters kept in memory.
	maxTrackedChats = 4096

	// chatIdleTTL is how long an unused per-chat limiter is kept.
	chatIdleTTL = 60 * time.Second

	// perChatBurst lets a short greeting sequence (two messages) go out at once.
	perChatBurst = 2
)

// RateLimit configures a RateLimitedSender. Zero or negative rates disable
// the corresponding limit.
type RateLimit struct {
	PerSecond     float64
	Burst         int
	PerChatPerSec float64
}

type chatLimiter struct {
	lim      *rate.Limiter
	lastUsed time.Time
}

// RateLimitedSender throttles sends globally and per chat before handing them
// to the wrapped Sender. Both the dispatch loop and follow-up timers send
// through the same instance. Safe for concurrent use.
type RateLimitedSender struct {
	next    Sender
	global  *rate.Limiter
	perChat rate.Limit

	mu    sync.Mutex
	chats map[bus.ChatID]*chatLimiter
	now   func() time.Time
}

// NewRateLimitedSender wraps next with the given limits.
func NewRateLimitedSender(next Sender, cfg RateLimit) *RateLimitedSender {
	global := rate.NewLimiter(rate.Inf, 0)
	if cfg.PerSecond > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = 1
		}
		global = rate.NewLimiter(rate.Limit(cfg.PerSecond), burst)
	}
	perChat := rate.Inf
	if cfg.PerChatPerSec > 0 {
		perChat = rate.Limit(cfg.PerChatPerSec)
	}
	return &RateLimitedSender{
		next:    next,
		global:  global,
		perChat: perChat,
		chats:   make(map[bus.ChatID]*chatLimiter),
		now:     time.Now,
	}
}

// Send waits for both limiters, then delivers. A canceled wait is reported
// as a transient failure.
func (r *RateLimitedSender) Send(ctx context.Context, chatID bus.ChatID, text string) error {
	if err := r.chatLimiter(chatID).Wait(ctx); err != nil {
		return Transient(chatID, fmt.Errorf("per-chat rate limit: %w", err))
	}
	if err := r.global.Wait(ctx); err != nil {
		return Transient(chatID, fmt.Errorf("rate limit: %w", err))
	}
	return r.next.Send(ctx, chatID, text)
}

// TrackedChats returns the number of per-chat limiters currently held.
func (r *RateLimitedSender) TrackedChats() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.chats)
}

func (r *RateLimitedSender) chatLimiter(chatID bus.ChatID) *rate.Limiter {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()

	// Prune idle entries when approaching the cap
	if len(r.chats) >= maxTrackedChats {
		for k, e := range r.chats {
			if now.Sub(e.lastUsed) >= chatIdleTTL {
				delete(r.chats, k)
			}
		}
		// Hard eviction if still at cap (FIFO-ish via map iteration)
		for len(r.chats) >= maxTrackedChats {
			for k := range r.chats {
				delete(r.chats, k)
				break
			}
		}
	}

	e, ok := r.chats[chatID]
	if !ok {
		e = &chatLimiter{lim: rate.NewLimiter(r.perChat, perChatBurst)}
		r.chats[chatID] = e
	}
	e.lastUsed = now
	return e.lim
}
