// Package followup arms and cancels the per-conversation chain of delayed
// follow-up messages.
package followup

import (
	"fmt"
	"time"
)

// Step is one delayed message of a chain. Delay is measured from the moment
// the chain is scheduled, not from the previous step.
type Step struct {
	Delay   time.Duration
	Message string
}

// Chain is an immutable, ordered list of steps shared by all conversations.
type Chain struct {
	steps []Step
}

// NewChain validates and builds a chain. Delays must be positive and strictly
// increasing and every step needs a message.
func NewChain(steps ...Step) (Chain, error) {
	if len(steps) == 0 {
		return Chain{}, fmt.Errorf("follow-up chain is empty")
	}
	var prev time.Duration
	for i, s := range steps {
		if s.Delay <= 0 {
			return Chain{}, fmt.Errorf("follow-up step %d: delay must be positive, got %s", i, s.Delay)
		}
		if s.Delay <= prev {
			return Chain{}, fmt.Errorf("follow-up step %d: delay %s is not after step %d (%s)", i, s.Delay, i-1, prev)
		}
		if s.Message == "" {
			return Chain{}, fmt.Errorf("follow-up step %d: message is empty", i)
		}
		prev = s.Delay
	}
	cp := make([]Step, len(steps))
	copy(cp, steps)
	return Chain{steps: cp}, nil
}

// DefaultChain returns the built-in chain: 1m, 15m, 2h, 8h, 24h.
func DefaultChain() Chain {
	c, err := NewChain(defaultSteps...)
	if err != nil {
		panic(err)
	}
	return c
}

var defaultSteps = []Step{
	{Delay: time.Minute, Message: "Just checking in—if you're ready to begin or have any questions, feel free to type here anytime."},
	{Delay: 15 * time.Minute, Message: "Still here if you need help. Whether it's your first deposit, platform walkthrough, or trading tips, we've got you!"},
	{Delay: 2 * time.Hour, Message: "Let's not miss the opportunity to grow today. We can help you place your first trade in just a few minutes."},
	{Delay: 8 * time.Hour, Message: "Hello again! Our team is ready whenever you are. We don't want you to miss the ongoing signals and guidance."},
	{Delay: 24 * time.Hour, Message: "This will be our final message for today. We're always here when you're ready to continue—just say hi anytime!"},
}

// Len returns the number of steps.
func (c Chain) Len() int { return len(c.steps) }

// Steps returns a copy of the steps in order.
func (c Chain) Steps() []Step {
	cp := make([]Step, len(c.steps))
	copy(cp, c.steps)
	return cp
}

// Delays returns the step delays in order.
func (c Chain) Delays() []time.Duration {
	out := make([]time.Duration, len(c.steps))
	for i, s := range c.steps {
		out[i] = s.Delay
	}
	return out
}
