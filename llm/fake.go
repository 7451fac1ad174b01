package llm

import (
	"context"
	"sync"

	"github.com/vinayprograms/gptswarm/chat"
)

// FakeClient is a scriptable CompletionClient for testing. It returns
// the scripted results in order, then repeats the last one. A custom
// CompleteFunc overrides the script entirely.
type FakeClient struct {
	mu        sync.Mutex
	script    []fakeResult
	callCount int

	// CompleteFunc can be set for custom behavior. It receives the
	// 1-based call number.
	CompleteFunc func(ctx context.Context, call int, conversation chat.Conversation) (*Completion, error)
}

type fakeResult struct {
	completion *Completion
	err        error
}

// NewFakeClient creates a fake client with an empty script.
func NewFakeClient() *FakeClient {
	return &FakeClient{}
}

// Succeed appends a successful completion to the script.
func (f *FakeClient) Succeed(content string, tokensUsed int) *FakeClient {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.script = append(f.script, fakeResult{
		completion: &Completion{
			Message:    chat.Message{Role: chat.RoleAssistant, Content: content},
			TokensUsed: tokensUsed,
		},
	})
	return f
}

// Fail appends a failing call to the script.
func (f *FakeClient) Fail(err error) *FakeClient {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.script = append(f.script, fakeResult{err: err})
	return f
}

// CallCount returns the number of Complete calls made.
func (f *FakeClient) CallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.callCount
}

// Complete implements CompletionClient.
func (f *FakeClient) Complete(ctx context.Context, conversation chat.Conversation) (*Completion, error) {
	f.mu.Lock()
	f.callCount++
	call := f.callCount
	fn := f.CompleteFunc
	var result fakeResult
	if len(f.script) > 0 {
		idx := call - 1
		if idx >= len(f.script) {
			idx = len(f.script) - 1
		}
		result = f.script[idx]
	}
	f.mu.Unlock()

	if fn != nil {
		return fn(ctx, call, conversation)
	}

	if err := ctx.Err(); err != nil {
		return nil, Classify(err)
	}
	if result.err != nil {
		return nil, result.err
	}
	if result.completion != nil {
		c := *result.completion
		return &c, nil
	}
	return &Completion{
		Message:    chat.Message{Role: chat.RoleAssistant, Content: "ok"},
		TokensUsed: 1,
	}, nil
}

// Ensure FakeClient implements CompletionClient.
var _ CompletionClient = (*FakeClient)(nil)
