package pubsub

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"banchogate/pkg/kv"
)

func newTestBus() *Bus {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewBus(kv.NewMemoryStore(), logger)
}

func TestBusDeliversPublishedMessage(t *testing.T) {
	bus := newTestBus()

	received := make(chan string, 1)
	bus.Subscribe("test:channel", func(_ context.Context, payload string) error {
		received <- payload
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go bus.Run(ctx)

	if err := bus.Publish(context.Background(), "test:channel", "hello"); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	select {
	case got := <-received:
		if got != "hello" {
			t.Fatalf("got payload %q, want %q", got, "hello")
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for delivery")
	}
}

func TestBusStopWaitsForRunToExit(t *testing.T) {
	bus := newTestBus()

	ctx, cancel := context.WithCancel(context.Background())
	go bus.Run(ctx)

	cancel()

	stopCtx, stopCancel := context.WithTimeout(context.Background(), time.Second)
	defer stopCancel()
	if err := bus.Stop(stopCtx); err != nil {
		t.Fatalf("Stop: %v", err)
	}
}

func TestBusStopTimesOutIfRunNeverStarted(t *testing.T) {
	bus := newTestBus()

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer stopCancel()
	if err := bus.Stop(stopCtx); err == nil {
		t.Fatal("expected Stop to time out when Run was never started")
	}
}
