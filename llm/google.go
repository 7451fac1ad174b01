package llm

import (
	"context"
	"fmt"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/vinayprograms/gptswarm/chat"
	"github.com/vinayprograms/gptswarm/errors"
)

// GoogleClient implements CompletionClient using the official Gemini SDK.
type GoogleClient struct {
	client    *genai.Client
	modelName string
	maxTokens int32
}

// NewGoogleClient creates a new Google Gemini completion client.
func NewGoogleClient(cfg ClientConfig) (*GoogleClient, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	ctx := context.Background()
	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create google client: %w", err)
	}

	return &GoogleClient{
		client:    client,
		modelName: cfg.Model,
		maxTokens: int32(cfg.MaxTokens),
	}, nil
}

// Close closes the underlying client.
func (c *GoogleClient) Close() error {
	return c.client.Close()
}

// Complete implements CompletionClient.
// Many workers share one client, so all per-request state lives on a
// model derived for this call; the shared fields are never written.
func (c *GoogleClient) Complete(ctx context.Context, conversation chat.Conversation) (*Completion, error) {
	model := c.client.GenerativeModel(c.modelName)
	maxTokens := c.maxTokens
	model.MaxOutputTokens = &maxTokens

	for _, m := range conversation {
		if m.Role == chat.RoleSystem {
			model.SystemInstruction = &genai.Content{
				Parts: []genai.Part{genai.Text(m.Content)},
			}
			break
		}
	}

	cs := model.StartChat()
	for _, m := range conversation {
		switch m.Role {
		case chat.RoleSystem:
			continue
		case chat.RoleUser:
			cs.History = append(cs.History, &genai.Content{
				Role:  "user",
				Parts: []genai.Part{genai.Text(m.Content)},
			})
		case chat.RoleAssistant:
			cs.History = append(cs.History, &genai.Content{
				Role:  "model",
				Parts: []genai.Part{genai.Text(m.Content)},
			})
		default:
			return nil, errors.InvalidInput(fmt.Sprintf("unsupported role %q", m.Role))
		}
	}

	// The last user turn is sent as the prompt, not carried in history.
	var prompt string
	if n := len(cs.History); n > 0 && cs.History[n-1].Role == "user" {
		last := cs.History[n-1]
		cs.History = cs.History[:n-1]
		if len(last.Parts) > 0 {
			if text, ok := last.Parts[0].(genai.Text); ok {
				prompt = string(text)
			}
		}
	}
	if prompt == "" {
		return nil, errors.InvalidInput("conversation must end with a user message")
	}

	resp, err := cs.SendMessage(ctx, genai.Text(prompt))
	if err != nil {
		return nil, Classify(err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, errors.Internal("provider returned no candidates")
	}

	var content string
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			content += string(text)
		}
	}

	tokensUsed := 0
	if resp.UsageMetadata != nil {
		tokensUsed = int(resp.UsageMetadata.TotalTokenCount)
	}

	return &Completion{
		Message: chat.Message{
			Role:    chat.RoleAssistant,
			Content: content,
		},
		TokensUsed: tokensUsed,
	}, nil
}

// Ensure GoogleClient implements CompletionClient.
var _ CompletionClient = (*GoogleClient)(nil)
