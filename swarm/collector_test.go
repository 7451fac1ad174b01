package swarm

import (
	"context"
	stderrors "errors"
	"fmt"
	"testing"
	"time"

	"github.com/vinayprograms/gptswarm/chat"
)

func TestCollectorOrderIndependentOfArrival(t *testing.T) {
	c := NewCollector(5)

	// Record in reverse to prove position is governed by index.
	for i := 4; i >= 0; i-- {
		outcome := successOutcome(chat.Message{
			Role:    chat.RoleAssistant,
			Content: fmt.Sprintf("reply %d", i),
		}, 100)
		if err := c.Record(i, outcome); err != nil {
			t.Fatalf("record %d: %v", i, err)
		}
	}

	outcomes, err := c.AwaitAll(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i, o := range outcomes {
		want := fmt.Sprintf("reply %d", i)
		if o.Message.Content != want {
			t.Errorf("slot %d holds %q, want %q", i, o.Message.Content, want)
		}
	}
}

func TestCollectorAwaitsSlowestJob(t *testing.T) {
	c := NewCollector(3)

	done := make(chan []Outcome, 1)
	go func() {
		outcomes, err := c.AwaitAll(context.Background())
		if err != nil {
			t.Errorf("await: %v", err)
		}
		done <- outcomes
	}()

	c.Record(1, successOutcome(chat.Message{Role: chat.RoleAssistant, Content: "b"}, 1))
	c.Record(2, successOutcome(chat.Message{Role: chat.RoleAssistant, Content: "c"}, 1))

	select {
	case <-done:
		t.Fatal("AwaitAll returned before the last slot was filled")
	case <-time.After(50 * time.Millisecond):
	}

	c.Record(0, successOutcome(chat.Message{Role: chat.RoleAssistant, Content: "a"}, 1))

	select {
	case outcomes := <-done:
		if len(outcomes) != 3 {
			t.Fatalf("got %d outcomes, want 3", len(outcomes))
		}
		if outcomes[0].Message.Content != "a" {
			t.Errorf("slot 0 holds %q, want %q", outcomes[0].Message.Content, "a")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("AwaitAll did not return after all slots filled")
	}
}

func TestCollectorRejectsDoubleRecord(t *testing.T) {
	c := NewCollector(2)

	if err := c.Record(0, failureOutcome(FailurePermanent, nil)); err != nil {
		t.Fatalf("first record: %v", err)
	}
	err := c.Record(0, failureOutcome(FailurePermanent, nil))
	if !stderrors.Is(err, ErrSlotFilled) {
		t.Errorf("expected ErrSlotFilled, got %v", err)
	}
}

func TestCollectorRejectsIndexOutOfRange(t *testing.T) {
	c := NewCollector(2)

	if err := c.Record(2, Outcome{}); !stderrors.Is(err, ErrIndexRange) {
		t.Errorf("expected ErrIndexRange for index 2, got %v", err)
	}
	if err := c.Record(-1, Outcome{}); !stderrors.Is(err, ErrIndexRange) {
		t.Errorf("expected ErrIndexRange for index -1, got %v", err)
	}
}

func TestCollectorAwaitAllCancellation(t *testing.T) {
	c := NewCollector(2)
	c.Record(0, Outcome{})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := c.AwaitAll(ctx)
	if !stderrors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline exceeded, got %v", err)
	}
}

func TestCollectorCompleteIgnoresContext(t *testing.T) {
	c := NewCollector(1)
	c.Record(0, Outcome{})

	// All slots filled: a dead context must not hide the results.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	outcomes, err := c.AwaitAll(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(outcomes) != 1 {
		t.Errorf("got %d outcomes, want 1", len(outcomes))
	}
}
