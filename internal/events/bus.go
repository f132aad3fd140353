package events

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/SscSPs/splitledger/internal/middleware"
	"github.com/SscSPs/splitledger/internal/platform/metrics"
)

// ErrBusClosed is returned by Publish after Close.
var ErrBusClosed = errors.New("event bus closed")

// MemberRemovedHandler reacts to a MemberRemoved event. Handlers must be idempotent:
// delivery is at-least-once.
type MemberRemovedHandler func(ctx context.Context, event MemberRemoved) error

// Publisher is the producer side of the bus.
type Publisher interface {
	PublishMemberRemoved(ctx context.Context, event MemberRemoved) error
}

// Options tunes redelivery.
type Options struct {
	MaxAttempts int
	Backoff     time.Duration
}

type namedHandler struct {
	name    string
	handler MemberRemovedHandler
}

// InMemoryBus delivers events to subscribers on background goroutines,
// retrying a failed handler up to MaxAttempts times.
type InMemoryBus struct {
	mu       sync.RWMutex
	handlers []namedHandler
	closed   bool
	wg       sync.WaitGroup
	opts     Options
}

var _ Publisher = (*InMemoryBus)(nil)

// NewInMemoryBus constructs a bus. Non-positive options fall back to 3 attempts and 200ms backoff.
func NewInMemoryBus(opts Options) *InMemoryBus {
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 3
	}
	if opts.Backoff <= 0 {
		opts.Backoff = 200 * time.Millisecond
	}
	return &InMemoryBus{opts: opts}
}

// SubscribeMemberRemoved registers a named handler.
func (b *InMemoryBus) SubscribeMemberRemoved(name string, handler MemberRemovedHandler) {
	if handler == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers = append(b.handlers, namedHandler{name: name, handler: handler})
}

// PublishMemberRemoved schedules delivery to every subscriber and returns immediately.
// The request context's values (logger, user) are kept but its cancellation is not.
func (b *InMemoryBus) PublishMemberRemoved(ctx context.Context, event MemberRemoved) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return ErrBusClosed
	}
	detached := context.WithoutCancel(ctx)
	for _, h := range b.handlers {
		b.wg.Add(1)
		go func(h namedHandler) {
			defer b.wg.Done()
			b.deliver(detached, h, event)
		}(h)
	}
	return nil
}

func (b *InMemoryBus) deliver(ctx context.Context, h namedHandler, event MemberRemoved) {
	logger := middleware.GetLoggerFromCtx(ctx).With(
		slog.String("event", EventMemberRemoved),
		slog.String("event_id", event.EventID),
		slog.String("consumer", h.name),
	)
	backoff := b.opts.Backoff
	for attempt := 1; attempt <= b.opts.MaxAttempts; attempt++ {
		err := h.handler(ctx, event)
		if err == nil {
			metrics.ObserveEventDelivery(EventMemberRemoved, metrics.ResultSuccess)
			return
		}
		if attempt == b.opts.MaxAttempts {
			metrics.ObserveEventDelivery(EventMemberRemoved, metrics.ResultDropped)
			logger.Error("Event handler exhausted retries", slog.Int("attempts", attempt), slog.String("error", err.Error()))
			return
		}
		metrics.ObserveEventDelivery(EventMemberRemoved, metrics.ResultRetry)
		logger.Warn("Event handler failed, retrying", slog.Int("attempt", attempt), slog.String("error", err.Error()))
		time.Sleep(backoff)
		backoff *= 2
	}
}

// Close stops accepting events and waits for in-flight deliveries or ctx expiry.
func (b *InMemoryBus) Close(ctx context.Context) error {
	b.mu.Lock()
	b.closed = true
	b.mu.Unlock()

	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
