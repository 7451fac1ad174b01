package llm

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"

	"github.com/vinayprograms/gptswarm/chat"
	"github.com/vinayprograms/gptswarm/errors"
)

// OpenAIClient implements CompletionClient using the official OpenAI SDK.
type OpenAIClient struct {
	client    *openai.Client
	model     string
	maxTokens int
}

// NewOpenAIClient creates a new OpenAI completion client.
func NewOpenAIClient(cfg ClientConfig) (*OpenAIClient, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		// The SDK retries internally by default; the worker owns retries.
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	client := openai.NewClient(opts...)

	return &OpenAIClient{
		client:    &client,
		model:     cfg.Model,
		maxTokens: cfg.MaxTokens,
	}, nil
}

// Complete implements CompletionClient.
func (c *OpenAIClient) Complete(ctx context.Context, conversation chat.Conversation) (*Completion, error) {
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(conversation))
	for _, m := range conversation {
		switch m.Role {
		case chat.RoleSystem:
			messages = append(messages, openai.SystemMessage(m.Content))
		case chat.RoleUser:
			messages = append(messages, openai.UserMessage(m.Content))
		case chat.RoleAssistant:
			messages = append(messages, openai.AssistantMessage(m.Content))
		default:
			return nil, errors.InvalidInput(fmt.Sprintf("unsupported role %q", m.Role))
		}
	}

	params := openai.ChatCompletionNewParams{
		Model:     shared.ChatModel(c.model),
		Messages:  messages,
		MaxTokens: openai.Int(int64(c.maxTokens)),
	}

	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, Classify(err)
	}

	if len(resp.Choices) == 0 {
		return nil, errors.Internal("provider returned no choices")
	}

	return &Completion{
		Message: chat.Message{
			Role:    chat.RoleAssistant,
			Content: resp.Choices[0].Message.Content,
		},
		TokensUsed: int(resp.Usage.TotalTokens),
	}, nil
}

// Ensure OpenAIClient implements CompletionClient.
var _ CompletionClient = (*OpenAIClient)(nil)
