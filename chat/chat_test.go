package chat

import "testing"

func TestRoleValid(t *testing.T) {
	for _, r := range []Role{RoleSystem, RoleUser, RoleAssistant} {
		if !r.Valid() {
			t.Errorf("expected role %q to be valid", r)
		}
	}
	if Role("moderator").Valid() {
		t.Error("expected unknown role to be invalid")
	}
}

func TestConversationValidate(t *testing.T) {
	conv := Conversation{
		{Role: RoleSystem, Content: "be brief"},
		{Role: RoleUser, Content: "hello"},
	}
	if err := conv.Validate(); err != nil {
		t.Fatalf("Validate failed: %v", err)
	}

	bad := Conversation{{Role: "bot", Content: "hi"}}
	if err := bad.Validate(); err != ErrInvalidRole {
		t.Fatalf("expected ErrInvalidRole, got %v", err)
	}

	if err := (Conversation{}).Validate(); err != ErrEmptyConversation {
		t.Fatalf("expected ErrEmptyConversation, got %v", err)
	}
}

func TestConversationClone(t *testing.T) {
	conv := User("hello")
	clone := conv.Clone()
	clone[0].Content = "changed"
	if conv[0].Content != "hello" {
		t.Error("clone shares storage with original")
	}

	var nilConv Conversation
	if nilConv.Clone() != nil {
		t.Error("cloning nil should return nil")
	}
}

func TestUser(t *testing.T) {
	conv := User("explain the big bang")
	if len(conv) != 1 {
		t.Fatalf("expected 1 message, got %d", len(conv))
	}
	if conv[0].Role != RoleUser {
		t.Errorf("expected user role, got %s", conv[0].Role)
	}
}
