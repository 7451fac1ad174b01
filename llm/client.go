package llm

import (
	"context"
	"fmt"

	"github.com/vinayprograms/gptswarm/chat"
)

// Completion is the result of one successful round trip.
type Completion struct {
	// Message is the assistant's reply.
	Message chat.Message

	// TokensUsed is the total tokens consumed by the request, prompt
	// and completion combined, as reported by the provider.
	TokensUsed int
}

// CompletionClient performs one completion round trip. Implementations
// must return errors classified via this package's Classify (or already
// structured swarm errors) so the worker retry policy can bucket them.
type CompletionClient interface {
	Complete(ctx context.Context, conversation chat.Conversation) (*Completion, error)
}

// ClientConfig holds configuration common to all client implementations.
type ClientConfig struct {
	// Provider selects the implementation: openai, anthropic, google.
	Provider string `toml:"provider"`

	// Model is the provider's model identifier.
	Model string `toml:"model"`

	// APIKey authenticates against the provider.
	APIKey string `toml:"api_key"`

	// MaxTokens caps the completion length per request.
	MaxTokens int `toml:"max_tokens"`

	// BaseURL overrides the provider endpoint (OpenAI-compatible
	// gateways, proxies). Optional.
	BaseURL string `toml:"base_url"`
}

// Validate checks the configuration.
func (c *ClientConfig) Validate() error {
	if c.Provider == "" {
		return fmt.Errorf("provider is required")
	}
	if c.Model == "" {
		return fmt.Errorf("model is required")
	}
	if c.APIKey == "" {
		return fmt.Errorf("api key is required")
	}
	if c.MaxTokens <= 0 {
		return fmt.Errorf("max_tokens is required")
	}
	return nil
}

// NewClient constructs a client for the configured provider.
func NewClient(cfg ClientConfig) (CompletionClient, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	switch cfg.Provider {
	case "openai":
		return NewOpenAIClient(cfg)
	case "anthropic":
		return NewAnthropicClient(cfg)
	case "google":
		return NewGoogleClient(cfg)
	default:
		return nil, fmt.Errorf("unknown provider %q", cfg.Provider)
	}
}
