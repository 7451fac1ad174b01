package swarm

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/vinayprograms/gptswarm/bus"
	"github.com/vinayprograms/gptswarm/chat"
	"github.com/vinayprograms/gptswarm/errors"
	"github.com/vinayprograms/gptswarm/llm"
	"github.com/vinayprograms/gptswarm/logging"
)

func quietLogger() *logging.Logger {
	log := logging.New().WithComponent("test")
	log.SetOutput(io.Discard)
	return log
}

func demoBatch(n int) []chat.Conversation {
	batch := make([]chat.Conversation, n)
	for i := range batch {
		batch[i] = chat.User("Please explain me the big bang in simple terms")
	}
	return batch
}

func TestSwarmEndToEnd(t *testing.T) {
	// 32 jobs fit a single window: 32*8192 < 180000 and 32 < 3000,
	// so the whole batch completes without an admission wait.
	cfg := Config{
		TokensPerMinute:   180000,
		RequestsPerMinute: 3000,
		ModelTokenSize:    8192,
		MaxRetries:        3,
		BackoffBase:       time.Millisecond,
	}
	client := llm.NewFakeClient().Succeed("it was very hot and very small", 500)

	engine, err := New(cfg, client, WithLogger(quietLogger()))
	if err != nil {
		t.Fatalf("engine setup: %v", err)
	}

	start := time.Now()
	results, err := engine.Swarm(context.Background(), demoBatch(32))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Errorf("batch took %v, expected no admission waits", elapsed)
	}

	if len(results) != 32 {
		t.Fatalf("got %d results, want 32", len(results))
	}
	for i, msg := range results {
		if msg == nil {
			t.Fatalf("result %d is absent, want success", i)
		}
		if msg.Role != chat.RoleAssistant {
			t.Errorf("result %d role = %s, want assistant", i, msg.Role)
		}
		if msg.Content != "it was very hot and very small" {
			t.Errorf("result %d content = %q", i, msg.Content)
		}
	}
	if got := client.CallCount(); got != 32 {
		t.Errorf("client called %d times, want 32", got)
	}
}

func TestSwarmThrottledBatchSpansWindows(t *testing.T) {
	// 25 jobs against 10 requests per window must take at least two
	// extra window rollovers.
	window := 150 * time.Millisecond
	cfg := Config{
		TokensPerMinute:   1_000_000,
		RequestsPerMinute: 10,
		ModelTokenSize:    100,
		WorkerCount:       25,
		Window:            window,
	}
	client := llm.NewFakeClient().Succeed("ok", 50)

	engine, err := New(cfg, client, WithLogger(quietLogger()))
	if err != nil {
		t.Fatalf("engine setup: %v", err)
	}

	start := time.Now()
	results, err := engine.Swarm(context.Background(), demoBatch(25))
	elapsed := time.Since(start)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for i, msg := range results {
		if msg == nil {
			t.Fatalf("result %d is absent, want success", i)
		}
	}
	if elapsed < 2*window {
		t.Errorf("batch finished in %v, impossible under 10 requests per %v", elapsed, window)
	}
}

func TestSwarmPartialFailure(t *testing.T) {
	// Single worker processes jobs in input order, so the scripted
	// second call maps to the second conversation.
	cfg := Config{
		TokensPerMinute:   100000,
		RequestsPerMinute: 1000,
		ModelTokenSize:    1000,
		WorkerCount:       1,
	}
	client := llm.NewFakeClient().
		Succeed("first", 10).
		Fail(errors.InvalidInput("content policy")).
		Succeed("third", 10)

	engine, err := New(cfg, client, WithLogger(quietLogger()))
	if err != nil {
		t.Fatalf("engine setup: %v", err)
	}

	results, err := engine.Swarm(context.Background(), demoBatch(3))
	if err != nil {
		t.Fatalf("a failed job must not abort the batch: %v", err)
	}

	if results[0] == nil || results[0].Content != "first" {
		t.Errorf("result 0 = %v, want success %q", results[0], "first")
	}
	if results[1] != nil {
		t.Errorf("result 1 = %v, want absent marker", results[1])
	}
	if results[2] == nil || results[2].Content != "third" {
		t.Errorf("result 2 = %v, want success %q", results[2], "third")
	}
}

func TestSwarmCancellationRecordsAllSlots(t *testing.T) {
	cfg := Config{
		TokensPerMinute:   100000,
		RequestsPerMinute: 1000,
		ModelTokenSize:    1000,
		WorkerCount:       4,
	}
	client := llm.NewFakeClient()
	client.CompleteFunc = func(ctx context.Context, call int, _ chat.Conversation) (*llm.Completion, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}

	engine, err := New(cfg, client, WithLogger(quietLogger()))
	if err != nil {
		t.Fatalf("engine setup: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	outcomes, err := engine.SwarmOutcomes(ctx, demoBatch(8))
	if err != nil {
		t.Fatalf("cancellation must still return outcomes: %v", err)
	}
	if len(outcomes) != 8 {
		t.Fatalf("got %d outcomes, want 8", len(outcomes))
	}
	for i, o := range outcomes {
		if o.Success {
			t.Errorf("outcome %d succeeded after cancellation", i)
		}
		if o.Reason != FailureTransient {
			t.Errorf("outcome %d reason = %s, want %s", i, o.Reason, FailureTransient)
		}
	}
}

func TestSwarmEmptyBatch(t *testing.T) {
	cfg := Config{TokensPerMinute: 1000, RequestsPerMinute: 10, ModelTokenSize: 100}
	engine, err := New(cfg, llm.NewFakeClient(), WithLogger(quietLogger()))
	if err != nil {
		t.Fatalf("engine setup: %v", err)
	}

	results, err := engine.Swarm(context.Background(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if results == nil || len(results) != 0 {
		t.Errorf("expected empty non-nil results, got %v", results)
	}
}

func TestSwarmInvalidConversationFailsSlotOnly(t *testing.T) {
	cfg := Config{TokensPerMinute: 100000, RequestsPerMinute: 1000, ModelTokenSize: 1000}
	client := llm.NewFakeClient().Succeed("fine", 10)

	engine, err := New(cfg, client, WithLogger(quietLogger()))
	if err != nil {
		t.Fatalf("engine setup: %v", err)
	}

	batch := []chat.Conversation{
		chat.User("valid"),
		{}, // empty conversation
	}
	outcomes, err := engine.SwarmOutcomes(context.Background(), batch)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !outcomes[0].Success {
		t.Errorf("valid conversation failed: %v", outcomes[0].Err)
	}
	if outcomes[1].Success || outcomes[1].Reason != FailurePermanent {
		t.Errorf("empty conversation outcome = %+v, want permanent failure", outcomes[1])
	}
}

func TestNewRejectsBadConfig(t *testing.T) {
	_, err := New(Config{RequestsPerMinute: 10, ModelTokenSize: 100}, llm.NewFakeClient())
	if err == nil {
		t.Fatal("expected configuration error for zero tokens_per_minute")
	}
	if errors.Code(err) != errors.ErrCodeConfig {
		t.Errorf("error code = %s, want %s", errors.Code(err), errors.ErrCodeConfig)
	}

	_, err = New(Config{TokensPerMinute: 1000, RequestsPerMinute: 10, ModelTokenSize: 100}, nil)
	if err == nil {
		t.Fatal("expected configuration error for nil client")
	}
}

func TestSwarmPublishesProgress(t *testing.T) {
	cfg := Config{TokensPerMinute: 100000, RequestsPerMinute: 1000, ModelTokenSize: 1000}
	client := llm.NewFakeClient().Succeed("ok", 10)

	eventBus := bus.NewMemoryBus(bus.DefaultConfig())
	defer eventBus.Close()

	sub, err := eventBus.Subscribe(bus.SubjectProgress)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	engine, err := New(cfg, client, WithBus(eventBus), WithLogger(quietLogger()))
	if err != nil {
		t.Fatalf("engine setup: %v", err)
	}

	if _, err := engine.Swarm(context.Background(), demoBatch(4)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	received := 0
	timeout := time.After(time.Second)
	for received < 4 {
		select {
		case msg := <-sub.Messages():
			if msg.Subject != bus.SubjectProgress {
				t.Errorf("subject = %s, want %s", msg.Subject, bus.SubjectProgress)
			}
			received++
		case <-timeout:
			t.Fatalf("received %d progress events, want 4", received)
		}
	}
}
