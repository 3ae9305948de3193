package db

import (
	"fmt"
	"time"

	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"

	"github.com/raphaelgruber/convostore-go/internal/codec"
)

// conversationRow is the stored head of a conversation.
type conversationRow struct {
	ID        surrealmodels.RecordID `json:"id"`
	CreatedAt time.Time              `json:"created_at"`
	UpdatedAt time.Time              `json:"updated_at"`
}

// messageRow is a stored message. Content is populated by the load query's
// subselect, ordered by position.
type messageRow struct {
	ID           surrealmodels.RecordID `json:"id"`
	Conversation surrealmodels.RecordID `json:"conversation"`
	ExternalID   *string                `json:"external_id,omitempty"`
	Role         string                 `json:"role"`
	Author       *string                `json:"author,omitempty"`
	Position     int                    `json:"position"`
	CreatedAt    time.Time              `json:"created_at"`
	Content      []contentRow           `json:"content,omitempty"`
}

// contentRow is a stored content item: ownership and order here, the
// variant-specific fields inlined from the codec row.
type contentRow struct {
	ID       surrealmodels.RecordID `json:"id"`
	Message  surrealmodels.RecordID `json:"message"`
	Position int                    `json:"position"`
	codec.Row
}

// recordIDString safely extracts the string part of a SurrealDB RecordID.
func recordIDString(id surrealmodels.RecordID) (string, error) {
	s, ok := id.ID.(string)
	if !ok {
		return "", fmt.Errorf("unexpected ID type: %T (expected string)", id.ID)
	}
	return s, nil
}

// contentVars flattens an encoded row into the CONTENT map used by the append
// script. Zero-valued option fields are omitted so SCHEMAFULL stores them as
// NONE.
func contentVars(position int, r codec.Row) map[string]any {
	m := map[string]any{
		"position": position,
		"kind":     r.Kind,
	}
	setIf := func(key, val string) {
		if val != "" {
			m[key] = val
		}
	}
	setIf("text", r.Text)
	setIf("media_type", r.MediaType)
	setIf("name", r.Name)
	setIf("uri", r.URI)
	setIf("error_message", r.ErrMessage)
	setIf("error_code", r.ErrCode)
	setIf("error_details", r.ErrDetails)
	setIf("call_id", r.CallID)
	setIf("function_name", r.FunctionName)
	setIf("payload", r.Payload)
	if r.InputTokens != nil {
		m["input_tokens"] = *r.InputTokens
	}
	if r.OutputTokens != nil {
		m["output_tokens"] = *r.OutputTokens
	}
	if r.TotalTokens != nil {
		m["total_tokens"] = *r.TotalTokens
	}
	return m
}
