package llm

import (
	"context"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/vinayprograms/gptswarm/chat"
	"github.com/vinayprograms/gptswarm/errors"
)

// AnthropicClient implements CompletionClient using the official Anthropic SDK.
type AnthropicClient struct {
	client    *anthropic.Client
	model     string
	maxTokens int
}

// NewAnthropicClient creates a new Anthropic completion client.
func NewAnthropicClient(cfg ClientConfig) (*AnthropicClient, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	client := anthropic.NewClient(opts...)

	return &AnthropicClient{
		client:    &client,
		model:     cfg.Model,
		maxTokens: cfg.MaxTokens,
	}, nil
}

// Complete implements CompletionClient.
func (c *AnthropicClient) Complete(ctx context.Context, conversation chat.Conversation) (*Completion, error) {
	var systemPrompt string
	messages := make([]anthropic.MessageParam, 0, len(conversation))

	for _, m := range conversation {
		switch m.Role {
		case chat.RoleSystem:
			systemPrompt = m.Content
		case chat.RoleUser:
			messages = append(messages, anthropic.NewUserMessage(
				anthropic.NewTextBlock(m.Content),
			))
		case chat.RoleAssistant:
			messages = append(messages, anthropic.NewAssistantMessage(
				anthropic.NewTextBlock(m.Content),
			))
		default:
			return nil, errors.InvalidInput(fmt.Sprintf("unsupported role %q", m.Role))
		}
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: int64(c.maxTokens),
		Messages:  messages,
	}
	if systemPrompt != "" {
		params.System = []anthropic.TextBlockParam{
			{Text: systemPrompt},
		}
	}

	resp, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return nil, Classify(err)
	}

	var content string
	for _, block := range resp.Content {
		if block.Type == "text" {
			content += block.Text
		}
	}

	return &Completion{
		Message: chat.Message{
			Role:    chat.RoleAssistant,
			Content: content,
		},
		TokensUsed: int(resp.Usage.InputTokens + resp.Usage.OutputTokens),
	}, nil
}

// Ensure AnthropicClient implements CompletionClient.
var _ CompletionClient = (*AnthropicClient)(nil)
