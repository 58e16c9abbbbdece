// Package pubsub implements the cross-process notification bus bancho
// consumes as an external collaborator: channels are plain lists on
// the shared key/value store rather than a native broker, polled the
// way the original service polled Redis's get_message with a timeout
// — a bounded wait per tick, then a fixed pacing sleep, repeated until
// the caller cancels the loop.
package pubsub

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"banchogate/pkg/kv"
)

// Handler processes one message published to a channel.
type Handler func(ctx context.Context, payload string) error

const keyPrefix = "pubsub:"

// pollTimeout and pollInterval mirror the original loop's 1-second
// receive timeout and 10ms pacing sleep.
const (
	pollTimeout  = 1 * time.Second
	pollInterval = 10 * time.Millisecond
)

// Bus dispatches messages published to named channels to their
// subscribed handler. It has no notion of multiple subscribers per
// channel, matching subscribe(channel, handler) in the original.
type Bus struct {
	store    kv.Store
	logger   *slog.Logger
	handlers map[string]Handler
	done     chan struct{}
}

// NewBus returns a Bus backed by store, logging handler and poll
// failures through logger.
func NewBus(store kv.Store, logger *slog.Logger) *Bus {
	return &Bus{
		store:    store,
		logger:   logger,
		handlers: make(map[string]Handler),
		done:     make(chan struct{}),
	}
}

// Subscribe registers handler for channel. Not safe to call once Run
// has started.
func (b *Bus) Subscribe(channel string, handler Handler) {
	b.handlers[channel] = handler
}

// Publish appends payload to channel for the next poll to pick up.
func (b *Bus) Publish(ctx context.Context, channel, payload string) error {
	if err := b.store.LPush(ctx, keyPrefix+channel, payload); err != nil {
		return fmt.Errorf("pubsub: publish to %s: %w", channel, err)
	}
	return nil
}

// Run polls every subscribed channel until ctx is cancelled, then
// closes the channel Stop waits on. Handler and store errors are
// logged rather than stopping the loop: a store failure is retried on
// the next tick, while a message whose handler failed is still removed
// and not redelivered.
func (b *Bus) Run(ctx context.Context) {
	defer close(b.done)

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		b.poll(ctx)

		select {
		case <-ctx.Done():
			return
		case <-time.After(pollInterval):
		}
	}
}

// Stop blocks until a running Run loop has exited, bounded by ctx.
// Callers cancel Run's context first, then call Stop to gather it
// with a deadline rather than leaking the goroutine past shutdown.
func (b *Bus) Stop(ctx context.Context) error {
	select {
	case <-b.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (b *Bus) poll(ctx context.Context) {
	pollCtx, cancel := context.WithTimeout(ctx, pollTimeout)
	defer cancel()

	for channel, handler := range b.handlers {
		key := keyPrefix + channel

		messages, err := b.store.LRange(pollCtx, key)
		if err != nil {
			b.logger.ErrorContext(ctx, "pubsub poll failed", "channel", channel, "error", err)
			continue
		}

		// LPush prepends, so the oldest pending message is last.
		for i := len(messages) - 1; i >= 0; i-- {
			payload := messages[i]

			if err := handler(ctx, payload); err != nil {
				b.logger.ErrorContext(ctx, "pubsub handler failed", "channel", channel, "error", err)
			}
			if err := b.store.LRem(ctx, key, payload); err != nil {
				b.logger.ErrorContext(ctx, "pubsub ack failed", "channel", channel, "error", err)
			}
		}
	}
}
