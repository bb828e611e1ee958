package bus

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/opensource-health/heron/internal/domain"
)

func TestChannelBus(t *testing.T) {
	bus := NewChannelBus(100)
	defer bus.Close()

	ctx := context.Background()

	t.Run("PublishAndSubscribe", func(t *testing.T) {
		var received atomic.Bool
		var receivedMsg *domain.Message

		var wg sync.WaitGroup
		wg.Add(1)

		_, err := bus.Subscribe(ctx, "test.topic", func(ctx context.Context, msg *domain.Message) error {
			receivedMsg = msg
			received.Store(true)
			wg.Done()
			return nil
		})
		if err != nil {
			t.Fatalf("subscribe failed: %v", err)
		}

		// Allow subscription to be active
		time.Sleep(10 * time.Millisecond)

		err = bus.Publish(ctx, "test.topic", []byte("hello"))
		if err != nil {
			t.Fatalf("publish failed: %v", err)
		}

		// Wait for message
		done := make(chan struct{})
		go func() {
			wg.Wait()
			close(done)
		}()

		select {
		case <-done:
			// Success
		case <-time.After(time.Second):
			t.Fatal("timeout waiting for message")
		}

		if !received.Load() {
			t.Error("message not received")
		}

		if string(receivedMsg.Payload) != "hello" {
			t.Errorf("expected payload 'hello', got '%s'", string(receivedMsg.Payload))
		}
		if receivedMsg.Topic != "test.topic" {
			t.Errorf("expected topic 'test.topic', got '%s'", receivedMsg.Topic)
		}
		if receivedMsg.ID == "" {
			t.Error("expected message ID")
		}
	})

	t.Run("TopicIsolation", func(t *testing.T) {
		var receivedA atomic.Int32
		var receivedB atomic.Int32

		bus.Subscribe(ctx, "isolation.a", func(ctx context.Context, msg *domain.Message) error {
			receivedA.Add(1)
			return nil
		})

		bus.Subscribe(ctx, "isolation.b", func(ctx context.Context, msg *domain.Message) error {
			receivedB.Add(1)
			return nil
		})

		time.Sleep(10 * time.Millisecond)

		bus.Publish(ctx, "isolation.a", []byte("msg1"))
		time.Sleep(50 * time.Millisecond)

		if receivedA.Load() != 1 {
			t.Errorf("topic a should receive 1 message, got %d", receivedA.Load())
		}
		if receivedB.Load() != 0 {
			t.Errorf("topic b should receive 0 messages, got %d", receivedB.Load())
		}
	})

	t.Run("Unsubscribe", func(t *testing.T) {
		var count atomic.Int32

		sub, _ := bus.Subscribe(ctx, "unsub.topic", func(ctx context.Context, msg *domain.Message) error {
			count.Add(1)
			return nil
		})

		time.Sleep(10 * time.Millisecond)
		bus.Publish(ctx, "unsub.topic", []byte("one"))
		time.Sleep(50 * time.Millisecond)

		sub.Unsubscribe()
		time.Sleep(10 * time.Millisecond)

		bus.Publish(ctx, "unsub.topic", []byte("two"))
		time.Sleep(50 * time.Millisecond)

		if count.Load() != 1 {
			t.Errorf("expected 1 message after unsubscribe, got %d", count.Load())
		}

		if sub.Topic() != "unsub.topic" {
			t.Errorf("unexpected topic %s", sub.Topic())
		}
	})

	t.Run("Ping", func(t *testing.T) {
		if err := bus.Ping(ctx); err != nil {
			t.Errorf("expected healthy bus, got %v", err)
		}
	})
}

func TestChannelBusClose(t *testing.T) {
	bus := NewChannelBus(10)

	ctx := context.Background()
	if err := bus.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}

	if err := bus.Publish(ctx, "topic", []byte("data")); err == nil {
		t.Error("expected error publishing to closed bus")
	}
	if _, err := bus.Subscribe(ctx, "topic", func(ctx context.Context, msg *domain.Message) error {
		return nil
	}); err == nil {
		t.Error("expected error subscribing to closed bus")
	}
	if err := bus.Ping(ctx); err == nil {
		t.Error("expected ping failure on closed bus")
	}

	// Closing twice is a no-op.
	if err := bus.Close(); err != nil {
		t.Errorf("second close failed: %v", err)
	}
}
