package followup

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/nextlevelbuilder/followbot/internal/bus"
	"github.com/nextlevelbuilder/followbot/internal/channels"
)

const defaultSendTimeout = 30 * time.Second

// Timer is a pending delayed call. Stop reports whether the call was
// prevented; it never waits for a call that already started.
type Timer interface {
	Stop() bool
}

// AfterFunc arms f to run in its own goroutine after d.
type AfterFunc func(d time.Duration, f func()) Timer

func realAfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithAfterFunc replaces the timer factory (tests drive time with it).
func WithAfterFunc(fn AfterFunc) Option {
	return func(s *Scheduler) { s.afterFunc = fn }
}

// WithSendTimeout bounds each delayed send.
func WithSendTimeout(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.sendTimeout = d
		}
	}
}

// handle is one armed step of one chain instance.
type handle struct {
	step  int
	timer Timer
}

// timerSet is the live chain instance of a conversation.
type timerSet struct {
	id      string // chain ID for logs
	chatID  bus.ChatID
	pending map[int]*handle // step index → handle, removed once fired or canceled
}

// Scheduler owns the per-conversation follow-up chains. All state is in
// memory. Safe for concurrent use by the dispatch loop and firing timers.
type Scheduler struct {
	chain       Chain
	sender      channels.Sender
	afterFunc   AfterFunc
	sendTimeout time.Duration
	tracer      trace.Tracer

	ctx    context.Context
	cancel context.CancelFunc

	mu   sync.Mutex
	sets map[bus.ChatID]*timerSet
}

// New creates a Scheduler that delivers chain steps through sender.
func New(chain Chain, sender channels.Sender, opts ...Option) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Scheduler{
		chain:       chain,
		sender:      sender,
		afterFunc:   realAfterFunc,
		sendTimeout: defaultSendTimeout,
		tracer:      otel.Tracer("followbot/followup"),
		ctx:         ctx,
		cancel:      cancel,
		sets:        make(map[bus.ChatID]*timerSet),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Chain returns the chain armed by Schedule.
func (s *Scheduler) Chain() Chain { return s.chain }

// Schedule replaces any chain armed for chatID with a fresh one. Steps of the
// replaced chain that have not started firing never fire.
func (s *Scheduler) Schedule(chatID bus.ChatID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ctx.Err() != nil {
		return
	}

	if old, ok := s.sets[chatID]; ok {
		s.stopLocked(old)
		delete(s.sets, chatID)
	}

	set := &timerSet{
		id:      uuid.NewString(),
		chatID:  chatID,
		pending: make(map[int]*handle, s.chain.Len()),
	}
	for i, step := range s.chain.steps {
		h := &handle{step: i}
		set.pending[i] = h
		h.timer = s.afterFunc(step.Delay, func() { s.fire(set, i) })
	}
	s.sets[chatID] = set

	slog.Debug("follow-ups scheduled", "chat_id", chatID, "chain_id", set.id, "steps", s.chain.Len())
}

// Cancel stops every pending step for chatID and forgets the conversation.
// Safe to call when nothing is scheduled.
func (s *Scheduler) Cancel(chatID bus.ChatID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	set, ok := s.sets[chatID]
	if !ok {
		return
	}
	s.stopLocked(set)
	delete(s.sets, chatID)

	slog.Debug("follow-ups canceled", "chat_id", chatID, "chain_id", set.id)
}

// Pending returns the number of armed, not yet fired steps for chatID.
func (s *Scheduler) Pending(chatID bus.ChatID) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if set, ok := s.sets[chatID]; ok {
		return len(set.pending)
	}
	return 0
}

// Active returns the number of conversations with a live chain.
func (s *Scheduler) Active() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sets)
}

// Stop cancels every chain and aborts in-flight sends. Schedule is a no-op afterwards.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for chatID, set := range s.sets {
		s.stopLocked(set)
		delete(s.sets, chatID)
	}
	s.cancel()
}

// stopLocked stops all pending timers of set. Timers that already started
// firing run to completion. Caller holds s.mu.
func (s *Scheduler) stopLocked(set *timerSet) {
	for step, h := range set.pending {
		h.timer.Stop()
		delete(set.pending, step)
	}
}

// fire delivers step of set. It runs on the timer's goroutine.
func (s *Scheduler) fire(set *timerSet, step int) {
	s.mu.Lock()
	delete(set.pending, step)
	if len(set.pending) == 0 && s.sets[set.chatID] == set {
		delete(s.sets, set.chatID)
	}
	s.mu.Unlock()

	msg := s.chain.steps[step].Message

	ctx, cancel := context.WithTimeout(s.ctx, s.sendTimeout)
	defer cancel()

	ctx, span := s.tracer.Start(ctx, "followup.send", trace.WithAttributes(
		attribute.Int64("chat_id", int64(set.chatID)),
		attribute.String("chain_id", set.id),
		attribute.Int("step", step),
	))
	defer span.End()

	err := s.sender.Send(ctx, set.chatID, msg)
	if err == nil {
		slog.Info("follow-up sent", "chat_id", set.chatID, "chain_id", set.id, "step", step)
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())

	if channels.IsPermanent(err) {
		slog.Warn("follow-up recipient unreachable, stopping chain",
			"chat_id", set.chatID, "chain_id", set.id, "step", step, "error", err)
		s.cancelSet(set)
		return
	}
	slog.Error("follow-up send failed", "chat_id", set.chatID, "chain_id", set.id, "step", step, "error", err)
}

// cancelSet cancels set only if it is still the conversation's live chain,
// so a failing step of a replaced chain cannot cancel its successor.
func (s *Scheduler) cancelSet(set *timerSet) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopLocked(set)
	if s.sets[set.chatID] == set {
		delete(s.sets, set.chatID)
	}
}
