package models

import "testing"

func TestRoleValid(t *testing.T) {
	tests := []struct {
		role Role
		want bool
	}{
		{RoleSystem, true},
		{RoleUser, true},
		{RoleAssistant, true},
		{RoleTool, true},
		{Role("narrator"), false},
		{Role(""), false},
		{Role("User"), false},
	}

	for _, tt := range tests {
		if got := tt.role.Valid(); got != tt.want {
			t.Errorf("Role(%q).Valid() = %v, want %v", tt.role, got, tt.want)
		}
	}
}

func TestMessageText(t *testing.T) {
	msg := Message{
		Role: RoleAssistant,
		Content: []Content{
			TextContent{Text: "Hello"},
			ReasoningContent{Text: " [hidden] "},
			FunctionCall{CallID: "c", Name: "f"},
			TextContent{Text: ", world"},
		},
	}
	if got := msg.Text(); got != "Hello, world" {
		t.Errorf("Text() = %q, want %q", got, "Hello, world")
	}

	empty := Message{Role: RoleAssistant}
	if got := empty.Text(); got != "" {
		t.Errorf("Text() on empty message = %q", got)
	}
}

func TestMessageClonePayloadIsolation(t *testing.T) {
	orig := Message{
		Role: RoleAssistant,
		Content: []Content{
			FunctionCall{
				CallID: "c1",
				Name:   "search",
				Arguments: map[string]any{
					"filter": map[string]any{"tags": []any{"a", "b"}},
				},
			},
			FunctionResult{CallID: "c1", Result: map[string]any{"hits": float64(2)}},
			BinaryContent{MediaType: "image/png", Data: []byte{1, 2, 3}},
		},
	}

	clone := orig.Clone()

	args := clone.Content[0].(FunctionCall).Arguments
	args["filter"].(map[string]any)["tags"].([]any)[0] = "TAMPERED"
	args["extra"] = true
	clone.Content[1].(FunctionResult).Result.(map[string]any)["hits"] = float64(0)
	clone.Content[2].(BinaryContent).Data[0] = 0xFF

	origArgs := orig.Content[0].(FunctionCall).Arguments
	if got := origArgs["filter"].(map[string]any)["tags"].([]any)[0]; got != "a" {
		t.Errorf("Nested argument mutated through clone: %v", got)
	}
	if _, ok := origArgs["extra"]; ok {
		t.Error("Argument key added through clone")
	}
	if got := orig.Content[1].(FunctionResult).Result.(map[string]any)["hits"]; got != float64(2) {
		t.Errorf("Result mutated through clone: %v", got)
	}
	if orig.Content[2].(BinaryContent).Data[0] != 1 {
		t.Error("Binary data mutated through clone")
	}
}

func TestConversationCloneIsolation(t *testing.T) {
	orig := &Conversation{
		ID: "c1",
		Messages: []Message{
			TextMessage(RoleUser, "hi"),
		},
	}

	clone := orig.Clone()
	clone.Messages[0].Content[0] = TextContent{Text: "tampered"}
	clone.Messages = append(clone.Messages, TextMessage(RoleUser, "extra"))

	if len(orig.Messages) != 1 {
		t.Fatalf("Original grew to %d messages", len(orig.Messages))
	}
	if orig.Messages[0].Text() != "hi" {
		t.Errorf("Original content mutated: %q", orig.Messages[0].Text())
	}
}
