package bus

import (
	"sync"
	"testing"
	"time"
)

func TestMemoryBusPubSub(t *testing.T) {
	b := NewMemoryBus(DefaultConfig())
	defer b.Close()

	sub, err := b.Subscribe("swarm.progress")
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}

	if err := b.Publish("swarm.progress", []byte("job 3 done")); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}

	select {
	case msg := <-sub.Messages():
		if string(msg.Data) != "job 3 done" {
			t.Errorf("unexpected payload: %s", msg.Data)
		}
		if msg.Subject != "swarm.progress" {
			t.Errorf("unexpected subject: %s", msg.Subject)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for message")
	}
}

func TestMemoryBusMultipleSubscribers(t *testing.T) {
	b := NewMemoryBus(DefaultConfig())
	defer b.Close()

	sub1, _ := b.Subscribe("swarm.capacity")
	sub2, _ := b.Subscribe("swarm.capacity")

	b.Publish("swarm.capacity", []byte("reduced"))

	for i, sub := range []Subscription{sub1, sub2} {
		select {
		case msg := <-sub.Messages():
			if string(msg.Data) != "reduced" {
				t.Errorf("sub %d: unexpected payload %s", i, msg.Data)
			}
		case <-time.After(time.Second):
			t.Fatalf("sub %d: timed out", i)
		}
	}
}

func TestMemoryBusSubjectIsolation(t *testing.T) {
	b := NewMemoryBus(DefaultConfig())
	defer b.Close()

	sub, _ := b.Subscribe("swarm.progress")
	b.Publish("swarm.capacity", []byte("other"))

	select {
	case msg := <-sub.Messages():
		t.Fatalf("received message for wrong subject: %s", msg.Subject)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestMemoryBusUnsubscribe(t *testing.T) {
	b := NewMemoryBus(DefaultConfig())
	defer b.Close()

	sub, _ := b.Subscribe("swarm.progress")
	if err := sub.Unsubscribe(); err != nil {
		t.Fatalf("Unsubscribe failed: %v", err)
	}

	// Channel should be closed
	if _, ok := <-sub.Messages(); ok {
		t.Error("expected closed channel after unsubscribe")
	}

	// Publishing after unsubscribe must not panic
	if err := b.Publish("swarm.progress", []byte("late")); err != nil {
		t.Fatalf("Publish after unsubscribe failed: %v", err)
	}
}

func TestMemoryBusClose(t *testing.T) {
	b := NewMemoryBus(DefaultConfig())

	sub, _ := b.Subscribe("swarm.progress")
	if err := b.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	if _, ok := <-sub.Messages(); ok {
		t.Error("expected closed subscription channel after bus close")
	}
	if err := b.Publish("swarm.progress", nil); err != ErrClosed {
		t.Errorf("expected ErrClosed, got %v", err)
	}
	if _, err := b.Subscribe("swarm.progress"); err != ErrClosed {
		t.Errorf("expected ErrClosed, got %v", err)
	}
	if err := b.Close(); err != ErrClosed {
		t.Errorf("expected ErrClosed on double close, got %v", err)
	}
}

func TestMemoryBusPublishDuringUnsubscribe(t *testing.T) {
	b := NewMemoryBus(DefaultConfig())
	defer b.Close()

	// Subscriptions come and go while publishers are mid-send; closing
	// a channel out from under a send would panic.
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			b.Publish("swarm.progress", []byte("tick"))
		}
	}()

	for i := 0; i < 50; i++ {
		sub, err := b.Subscribe("swarm.progress")
		if err != nil {
			t.Fatalf("Subscribe failed: %v", err)
		}
		if err := sub.Unsubscribe(); err != nil {
			t.Fatalf("Unsubscribe failed: %v", err)
		}
	}
	wg.Wait()
}

func TestValidateSubject(t *testing.T) {
	if err := ValidateSubject(""); err != ErrInvalidSubject {
		t.Errorf("expected ErrInvalidSubject, got %v", err)
	}
	if err := ValidateSubject("swarm.progress"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}
