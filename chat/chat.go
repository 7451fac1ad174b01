// Package chat defines the conversation value types submitted to the
// completion API. Messages and conversations are values: once a
// conversation is handed to the engine it is never mutated.
package chat

import "errors"

// Validation errors.
var (
	// ErrInvalidRole indicates a role outside the known set.
	ErrInvalidRole = errors.New("invalid message role")

	// ErrEmptyConversation indicates a conversation with no messages.
	ErrEmptyConversation = errors.New("conversation has no messages")
)

// Role identifies the author of a message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// String returns the string representation of the role.
func (r Role) String() string {
	return string(r)
}

// Valid returns true if the role is a known value.
func (r Role) Valid() bool {
	switch r {
	case RoleSystem, RoleUser, RoleAssistant:
		return true
	default:
		return false
	}
}

// Message is one turn of a conversation.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Conversation is an ordered message sequence making up one independent
// dialogue submitted to the API.
type Conversation []Message

// Validate checks that the conversation is non-empty and every message
// carries a known role.
func (c Conversation) Validate() error {
	if len(c) == 0 {
		return ErrEmptyConversation
	}
	for _, m := range c {
		if !m.Role.Valid() {
			return ErrInvalidRole
		}
	}
	return nil
}

// Clone returns a copy that shares no backing storage with the original.
func (c Conversation) Clone() Conversation {
	if c == nil {
		return nil
	}
	out := make(Conversation, len(c))
	copy(out, c)
	return out
}

// User builds a single-message conversation from a user prompt.
func User(content string) Conversation {
	return Conversation{{Role: RoleUser, Content: content}}
}
