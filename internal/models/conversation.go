// Package models defines the logical conversation data model: conversations,
// messages, roles, and the closed content-item union. The types here carry no
// storage concerns; stored row shapes live in the db package.
package models

import "time"

// Conversation is the durable unit of chat history. Messages are append-only;
// their order is semantic and preserved across reloads.
type Conversation struct {
	ID        string    `json:"id"`
	Messages  []Message `json:"messages"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Clone returns a deep copy. Stores hand out clones so callers can never
// mutate a snapshot another operation may still observe.
func (c *Conversation) Clone() *Conversation {
	if c == nil {
		return nil
	}
	out := &Conversation{
		ID:        c.ID,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
	if len(c.Messages) > 0 {
		out.Messages = make([]Message, len(c.Messages))
		for i, m := range c.Messages {
			out.Messages[i] = m.Clone()
		}
	}
	return out
}

// Role identifies the author class of a message.
type Role string

const (
	// RoleSystem denotes instructions injected ahead of the exchange.
	RoleSystem Role = "system"
	// RoleUser denotes caller input.
	RoleUser Role = "user"
	// RoleAssistant denotes generated output.
	RoleAssistant Role = "assistant"
	// RoleTool denotes tool invocation results.
	RoleTool Role = "tool"
)

// Valid reports whether r is one of the four supported roles.
func (r Role) Valid() bool {
	switch r {
	case RoleSystem, RoleUser, RoleAssistant, RoleTool:
		return true
	}
	return false
}

// Message is one turn within a conversation, owned by it exclusively.
// Position is assigned by the store at append time (current message count plus
// offset within the batch); caller-supplied values are ignored on write.
type Message struct {
	ID       string    `json:"id,omitempty"`
	Role     Role      `json:"role"`
	Author   string    `json:"author,omitempty"`
	Content  []Content `json:"content"`
	Position int       `json:"position"`
}

// Clone returns a copy that shares no mutable state with the original:
// the content slice is fresh and reference-typed payloads (argument maps,
// result values, binary data) are copied as well.
func (m Message) Clone() Message {
	out := m
	if len(m.Content) > 0 {
		out.Content = make([]Content, len(m.Content))
		for i, c := range m.Content {
			out.Content[i] = cloneContent(c)
		}
	}
	return out
}

// Text concatenates the text of all Text content items in the message.
// Reasoning, tool traffic and other variants are not included.
func (m Message) Text() string {
	var s string
	for _, c := range m.Content {
		if t, ok := c.(TextContent); ok {
			s += t.Text
		}
	}
	return s
}

// TextMessage builds a single-item text message. Convenience for the common
// plain-text turn.
func TextMessage(role Role, text string) Message {
	return Message{Role: role, Content: []Content{TextContent{Text: text}}}
}
