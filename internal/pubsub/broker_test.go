package pubsub

import (
	"context"
	"testing"
	"time"
)

func TestBrokerPublishSubscribe(t *testing.T) {
	b := NewBroker[string]()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sub1 := b.Subscribe(ctx)
	sub2 := b.Subscribe(ctx)

	b.Publish("hello")

	for i, sub := range []<-chan string{sub1, sub2} {
		select {
		case got := <-sub:
			if got != "hello" {
				t.Errorf("subscriber %d: expected hello, got %q", i, got)
			}
		case <-time.After(time.Second):
			t.Fatalf("subscriber %d: timed out waiting for payload", i)
		}
	}
}

func TestBrokerUnsubscribeOnCancel(t *testing.T) {
	b := NewBroker[int]()

	ctx, cancel := context.WithCancel(context.Background())
	sub := b.Subscribe(ctx)
	cancel()

	// The channel is closed once the context unwinds.
	deadline := time.After(time.Second)
	for {
		select {
		case _, ok := <-sub:
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("expected subscription channel to close after cancel")
		}
	}
}

func TestBrokerDropsWhenSubscriberFull(t *testing.T) {
	b := NewBroker[int]()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sub := b.Subscribe(ctx)

	// Overfill the buffer; Publish must never block.
	done := make(chan struct{})
	go func() {
		for i := 0; i < subscriberBufferSize*2; i++ {
			b.Publish(i)
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Publish blocked on a full subscriber")
	}

	received := 0
	for {
		select {
		case <-sub:
			received++
		default:
			if received != subscriberBufferSize {
				t.Errorf("expected %d buffered payloads, got %d", subscriberBufferSize, received)
			}
			return
		}
	}
}
