package events

import (
	"testing"
	"time"
)

// Test 1: Subscribe then receive a published event
func TestEventBus_PublishToSubscriber(t *testing.T) {
	eb := NewEventBus()
	id, ch := eb.Subscribe()
	if !eb.HasSubscriber(id) {
		t.Fatal("subscriber should be registered")
	}

	eb.Publish(NewBlobAccepted("abc123", 3))

	select {
	case ev := <-ch:
		if ev.Type() != EventBlobAccepted {
			t.Fatalf("unexpected event type %s", ev.Type())
		}
		blob, ok := ev.(*BlobAccepted)
		if !ok {
			t.Fatal("event should be a BlobAccepted")
		}
		if blob.BlobID != "abc123" || blob.Fanout != 3 {
			t.Fatalf("unexpected event payload %+v", blob)
		}
	case <-time.After(time.Second):
		t.Fatal("subscriber should receive the published event")
	}
}

// Test 2: Unsubscribe closes the channel and removes the subscriber
func TestEventBus_Unsubscribe(t *testing.T) {
	eb := NewEventBus()
	id, ch := eb.Subscribe()

	if !eb.Unsubscribe(id) {
		t.Fatal("Unsubscribe should succeed for a known subscriber")
	}
	if eb.Unsubscribe(id) {
		t.Fatal("Unsubscribe should fail for an unknown subscriber")
	}
	if eb.GetTotalSubscriptions() != 0 {
		t.Fatal("no subscribers should remain")
	}

	if _, open := <-ch; open {
		t.Fatal("channel should be closed after unsubscribe")
	}
}

// Test 3: A full subscriber channel never blocks Publish
func TestEventBus_FullChannelDoesNotBlock(t *testing.T) {
	eb := NewEventBus()
	eb.Subscribe() // never drained

	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			eb.Publish(NewChainBootstrapped("root", "tip", "fresh"))
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Publish blocked on a full subscriber channel")
	}
}
