package channels

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/nextlevelbuilder/followbot/internal/bus"
)

func countingSender(n *int) Sender {
	return SenderFunc(func(context.Context, bus.ChatID, string) error {
		*n++
		return nil
	})
}

func TestRateLimitedSender_PassesThrough(t *testing.T) {
	var n int
	s := NewRateLimitedSender(countingSender(&n), RateLimit{PerSecond: 1000, Burst: 10, PerChatPerSec: 1000})
	for i := 0; i < 5; i++ {
		if err := s.Send(context.Background(), bus.ChatID(i), "x"); err != nil {
			t.Fatalf("Send: %v", err)
		}
	}
	if n != 5 {
		t.Fatalf("delivered %d, want 5", n)
	}
	if got := s.TrackedChats(); got != 5 {
		t.Fatalf("TrackedChats = %d, want 5", got)
	}
}

func TestRateLimitedSender_Unlimited(t *testing.T) {
	var n int
	s := NewRateLimitedSender(countingSender(&n), RateLimit{})
	for i := 0; i < 100; i++ {
		if err := s.Send(context.Background(), 1, "x"); err != nil {
			t.Fatalf("Send: %v", err)
		}
	}
	if n != 100 {
		t.Fatalf("delivered %d, want 100", n)
	}
}

func TestRateLimitedSender_CanceledWaitIsTransient(t *testing.T) {
	var n int
	s := NewRateLimitedSender(countingSender(&n), RateLimit{PerChatPerSec: 0.001})

	// Burst lets the first two through; the third would wait ~1000s.
	for i := 0; i < perChatBurst; i++ {
		if err := s.Send(context.Background(), 1, "x"); err != nil {
			t.Fatalf("Send %d: %v", i, err)
		}
	}
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := s.Send(ctx, 1, "x")
	if err == nil {
		t.Fatal("expected rate limit error")
	}
	var de *DeliveryError
	if !errors.As(err, &de) || de.Permanent {
		t.Fatalf("want transient DeliveryError, got %v", err)
	}
	if n != perChatBurst {
		t.Fatalf("delivered %d, want %d", n, perChatBurst)
	}
}

func TestRateLimitedSender_BoundsTrackedChats(t *testing.T) {
	var n int
	s := NewRateLimitedSender(countingSender(&n), RateLimit{})
	for i := 0; i < maxTrackedChats+10; i++ {
		s.Send(context.Background(), bus.ChatID(i), "x")
	}
	if got := s.TrackedChats(); got > maxTrackedChats {
		t.Fatalf("TrackedChats = %d, want <= %d", got, maxTrackedChats)
	}
}
