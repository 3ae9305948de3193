// Package compat converts between the logical message model and langchaingo
// message content, so langchaingo-driven pipelines can read history from and
// persist turns into a ConversationStore without knowing its types.
package compat

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/tmc/langchaingo/llms"

	"github.com/raphaelgruber/convostore-go/internal/models"
	"github.com/raphaelgruber/convostore-go/internal/streaming"
)

// ToMessageContent maps one stored message to langchaingo form. Reasoning
// text becomes plain text (langchaingo has no reasoning part); error and
// usage items have no counterpart and are dropped from the outgoing view,
// though they remain in storage.
func ToMessageContent(m models.Message) (llms.MessageContent, error) {
	out := llms.MessageContent{Role: toChatMessageType(m.Role)}

	for i, item := range m.Content {
		switch v := item.(type) {
		case models.TextContent:
			out.Parts = append(out.Parts, llms.TextContent{Text: v.Text})

		case models.ReasoningContent:
			out.Parts = append(out.Parts, llms.TextContent{Text: v.Text})

		case models.BinaryContent:
			out.Parts = append(out.Parts, llms.BinaryContent{
				MIMEType: v.MediaType,
				Data:     v.Data,
			})

		case models.URIContent:
			out.Parts = append(out.Parts, llms.ImageURLContent{URL: v.URI})

		case models.FunctionCall:
			args, err := json.Marshal(v.Arguments)
			if err != nil {
				return llms.MessageContent{}, fmt.Errorf("content[%d]: marshal call arguments: %w", i, err)
			}
			out.Parts = append(out.Parts, llms.ToolCall{
				ID:   v.CallID,
				Type: "function",
				FunctionCall: &llms.FunctionCall{
					Name:      v.Name,
					Arguments: string(args),
				},
			})

		case models.FunctionResult:
			result, err := json.Marshal(v.Result)
			if err != nil {
				return llms.MessageContent{}, fmt.Errorf("content[%d]: marshal call result: %w", i, err)
			}
			out.Parts = append(out.Parts, llms.ToolCallResponse{
				ToolCallID: v.CallID,
				Content:    string(result),
			})

		case models.ErrorContent, models.UsageContent:
			// storage-only variants

		default:
			return llms.MessageContent{}, fmt.Errorf("content[%d]: no langchaingo mapping for %T", i, item)
		}
	}
	return out, nil
}

// FromMessageContent maps a langchaingo message into the logical model.
// Unparseable tool-call arguments degrade to an empty map rather than
// failing the message.
func FromMessageContent(mc llms.MessageContent) (models.Message, error) {
	msg := models.Message{Role: fromChatMessageType(mc.Role)}

	for i, part := range mc.Parts {
		switch v := part.(type) {
		case llms.TextContent:
			msg.Content = append(msg.Content, models.TextContent{Text: v.Text})

		case llms.BinaryContent:
			msg.Content = append(msg.Content, models.BinaryContent{
				MediaType: v.MIMEType,
				Data:      v.Data,
			})

		case llms.ImageURLContent:
			msg.Content = append(msg.Content, models.URIContent{URI: v.URL})

		case llms.ToolCall:
			call := models.FunctionCall{CallID: v.ID, Arguments: map[string]any{}}
			if v.FunctionCall != nil {
				call.Name = v.FunctionCall.Name
				var args map[string]any
				if err := json.Unmarshal([]byte(v.FunctionCall.Arguments), &args); err == nil && args != nil {
					call.Arguments = args
				}
			}
			msg.Content = append(msg.Content, call)

		case llms.ToolCallResponse:
			msg.Content = append(msg.Content, models.FunctionResult{
				CallID: v.ToolCallID,
				Result: v.Content,
			})

		default:
			return models.Message{}, fmt.Errorf("part[%d]: unsupported langchaingo part %T", i, part)
		}
	}
	return msg, nil
}

// ToMessages maps a whole history for use as a langchaingo prompt.
func ToMessages(history []models.Message) ([]llms.MessageContent, error) {
	out := make([]llms.MessageContent, 0, len(history))
	for _, m := range history {
		mc, err := ToMessageContent(m)
		if err != nil {
			return nil, err
		}
		out = append(out, mc)
	}
	return out, nil
}

// FromMessages maps langchaingo messages into the logical model.
func FromMessages(mcs []llms.MessageContent) ([]models.Message, error) {
	out := make([]models.Message, 0, len(mcs))
	for _, mc := range mcs {
		m, err := FromMessageContent(mc)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}

// StreamingFunc adapts an accumulator to the callback shape
// llms.WithStreamingFunc expects, so streamed chunks are forwarded and
// buffered as text fragments. The caller still finalizes the accumulator
// when generation ends.
func StreamingFunc(acc *streaming.Accumulator) func(ctx context.Context, chunk []byte) error {
	return func(ctx context.Context, chunk []byte) error {
		return acc.Consume(streaming.Fragment{Text: string(chunk)})
	}
}

func toChatMessageType(r models.Role) llms.ChatMessageType {
	switch r {
	case models.RoleSystem:
		return llms.ChatMessageTypeSystem
	case models.RoleAssistant:
		return llms.ChatMessageTypeAI
	case models.RoleTool:
		return llms.ChatMessageTypeTool
	default:
		return llms.ChatMessageTypeHuman
	}
}

func fromChatMessageType(t llms.ChatMessageType) models.Role {
	switch t {
	case llms.ChatMessageTypeSystem:
		return models.RoleSystem
	case llms.ChatMessageTypeAI:
		return models.RoleAssistant
	case llms.ChatMessageTypeTool, llms.ChatMessageTypeFunction:
		return models.RoleTool
	default: // human, generic
		return models.RoleUser
	}
}
