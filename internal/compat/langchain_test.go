package compat

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"

	"github.com/raphaelgruber/convostore-go/internal/models"
	"github.com/raphaelgruber/convostore-go/internal/store"
	"github.com/raphaelgruber/convostore-go/internal/streaming"
)

func TestToMessageContentText(t *testing.T) {
	mc, err := ToMessageContent(models.TextMessage(models.RoleUser, "Hi"))
	require.NoError(t, err)
	assert.Equal(t, llms.ChatMessageTypeHuman, mc.Role)
	require.Len(t, mc.Parts, 1)
	assert.Equal(t, llms.TextContent{Text: "Hi"}, mc.Parts[0])
}

func TestToMessageContentReasoningBecomesText(t *testing.T) {
	mc, err := ToMessageContent(models.Message{
		Role:    models.RoleAssistant,
		Content: []models.Content{models.ReasoningContent{Text: "Let me think."}},
	})
	require.NoError(t, err)
	require.Len(t, mc.Parts, 1)
	assert.Equal(t, llms.TextContent{Text: "Let me think."}, mc.Parts[0])
}

func TestToMessageContentToolCall(t *testing.T) {
	mc, err := ToMessageContent(models.Message{
		Role: models.RoleAssistant,
		Content: []models.Content{
			models.FunctionCall{
				CallID:    "call-1",
				Name:      "get_weather",
				Arguments: map[string]any{"city": "Vienna"},
			},
		},
	})
	require.NoError(t, err)
	require.Len(t, mc.Parts, 1)

	call := mc.Parts[0].(llms.ToolCall)
	assert.Equal(t, "call-1", call.ID)
	assert.Equal(t, "function", call.Type)
	require.NotNil(t, call.FunctionCall)
	assert.Equal(t, "get_weather", call.FunctionCall.Name)
	assert.JSONEq(t, `{"city":"Vienna"}`, call.FunctionCall.Arguments)
}

func TestToMessageContentDropsStorageOnlyItems(t *testing.T) {
	total := int64(42)
	mc, err := ToMessageContent(models.Message{
		Role: models.RoleAssistant,
		Content: []models.Content{
			models.TextContent{Text: "Hello"},
			models.ErrorContent{Message: "retry 1 failed"},
			models.UsageContent{TotalTokens: &total},
		},
	})
	require.NoError(t, err)
	require.Len(t, mc.Parts, 1, "error and usage items stay in storage only")
	assert.Equal(t, llms.TextContent{Text: "Hello"}, mc.Parts[0])
}

func TestFromMessageContentToolCall(t *testing.T) {
	msg, err := FromMessageContent(llms.MessageContent{
		Role: llms.ChatMessageTypeAI,
		Parts: []llms.ContentPart{
			llms.ToolCall{
				ID:   "call-1",
				Type: "function",
				FunctionCall: &llms.FunctionCall{
					Name:      "get_weather",
					Arguments: `{"city":"Vienna"}`,
				},
			},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, models.RoleAssistant, msg.Role)
	require.Len(t, msg.Content, 1)

	call := msg.Content[0].(models.FunctionCall)
	assert.Equal(t, "call-1", call.CallID)
	assert.Equal(t, "get_weather", call.Name)
	assert.Equal(t, map[string]any{"city": "Vienna"}, call.Arguments)
}

func TestFromMessageContentBadArgumentsDegrade(t *testing.T) {
	msg, err := FromMessageContent(llms.MessageContent{
		Role: llms.ChatMessageTypeAI,
		Parts: []llms.ContentPart{
			llms.ToolCall{
				ID:           "call-2",
				Type:         "function",
				FunctionCall: &llms.FunctionCall{Name: "f", Arguments: `{"cit`},
			},
		},
	})
	require.NoError(t, err, "corrupt arguments must not fail the message")

	call := msg.Content[0].(models.FunctionCall)
	assert.NotNil(t, call.Arguments)
	assert.Empty(t, call.Arguments)
}

func TestFromMessageContentToolResponse(t *testing.T) {
	msg, err := FromMessageContent(llms.MessageContent{
		Role: llms.ChatMessageTypeTool,
		Parts: []llms.ContentPart{
			llms.ToolCallResponse{ToolCallID: "call-1", Content: `{"temp":21}`},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, models.RoleTool, msg.Role)

	result := msg.Content[0].(models.FunctionResult)
	assert.Equal(t, "call-1", result.CallID)
	assert.Equal(t, `{"temp":21}`, result.Result)
}

func TestRoleMapping(t *testing.T) {
	cases := []struct {
		in   llms.ChatMessageType
		want models.Role
	}{
		{llms.ChatMessageTypeSystem, models.RoleSystem},
		{llms.ChatMessageTypeAI, models.RoleAssistant},
		{llms.ChatMessageTypeHuman, models.RoleUser},
		{llms.ChatMessageTypeGeneric, models.RoleUser},
		{llms.ChatMessageTypeTool, models.RoleTool},
		{llms.ChatMessageTypeFunction, models.RoleTool},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, fromChatMessageType(c.in), string(c.in))
	}
}

func TestHistoryRoundTrip(t *testing.T) {
	history := []models.Message{
		models.TextMessage(models.RoleSystem, "You are helpful"),
		models.TextMessage(models.RoleUser, "What is the weather?"),
		{
			Role: models.RoleAssistant,
			Content: []models.Content{
				models.FunctionCall{CallID: "call-1", Name: "get_weather", Arguments: map[string]any{"city": "Vienna"}},
			},
		},
	}

	mcs, err := ToMessages(history)
	require.NoError(t, err)
	require.Len(t, mcs, 3)

	back, err := FromMessages(mcs)
	require.NoError(t, err)
	require.Len(t, back, 3)
	assert.Equal(t, models.RoleSystem, back[0].Role)
	assert.Equal(t, "What is the weather?", back[1].Text())
	assert.Equal(t, "get_weather", back[2].Content[0].(models.FunctionCall).Name)
}

func TestStreamingFunc(t *testing.T) {
	st := store.NewVolatile(nil)
	ctx := context.Background()

	conv, err := st.GetOrCreate(ctx, "c1", []models.Message{models.TextMessage(models.RoleUser, "Hi")})
	require.NoError(t, err)

	acc := streaming.New(st, conv, streaming.Options{})
	fn := StreamingFunc(acc)

	require.NoError(t, fn(ctx, []byte("Hel")))
	require.NoError(t, fn(ctx, []byte("lo!")))
	require.NoError(t, acc.Finalize(ctx))

	after, err := st.GetOrCreate(ctx, "c1", nil)
	require.NoError(t, err)
	require.Len(t, after.Messages, 2)
	assert.Equal(t, models.RoleAssistant, after.Messages[1].Role)
	assert.Equal(t, "Hello!", after.Messages[1].Text())
}
