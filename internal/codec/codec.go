// Package codec maps content items to and from their stored row form. Both
// directions dispatch exhaustively on the variant tag; adding a variant is a
// compile-visible change to Encode and Decode.
//
// Failure policy differs by direction on purpose. Encode is strict: any item
// that cannot be mapped fails, and the write path treats that as fatal for
// the whole batch. Decode degrades: a corrupted payload yields the variant
// with an empty value instead of failing the item, and unknown kinds fail
// only the single item so the read path can skip it and keep the rest of the
// history available.
package codec

import (
	"errors"
	"fmt"

	"github.com/raphaelgruber/convostore-go/internal/models"
)

// Sentinel errors for mapping operations. Check with errors.Is.
var (
	// ErrUnsupportedContent indicates a variant with no storage mapping.
	// Binary content is the only such variant; it must fail loudly rather
	// than be dropped.
	ErrUnsupportedContent = errors.New("unsupported content variant")

	// ErrUnknownKind indicates a stored row whose variant tag is not part of
	// the union. Seen when reading rows written by a newer version.
	ErrUnknownKind = errors.New("unknown content kind")
)

// Row is the storage representation of one content item. Exactly the fields
// for the row's kind are populated; the rest stay zero and serialize as
// absent. Position and ownership are storage concerns handled by the db
// package, not here.
type Row struct {
	Kind         string `json:"kind"`
	Text         string `json:"text,omitempty"`
	MediaType    string `json:"media_type,omitempty"`
	Name         string `json:"name,omitempty"`
	URI          string `json:"uri,omitempty"`
	ErrMessage   string `json:"error_message,omitempty"`
	ErrCode      string `json:"error_code,omitempty"`
	ErrDetails   string `json:"error_details,omitempty"`
	CallID       string `json:"call_id,omitempty"`
	FunctionName string `json:"function_name,omitempty"`
	Payload      string `json:"payload,omitempty"`
	InputTokens  *int64 `json:"input_tokens,omitempty"`
	OutputTokens *int64 `json:"output_tokens,omitempty"`
	TotalTokens  *int64 `json:"total_tokens,omitempty"`
}

// Encode maps a content item to its stored row.
func Encode(c models.Content) (Row, error) {
	switch v := c.(type) {
	case models.TextContent:
		return Row{Kind: string(models.KindText), Text: v.Text}, nil

	case models.ReasoningContent:
		return Row{Kind: string(models.KindReasoning), Text: v.Text}, nil

	case models.BinaryContent:
		// Enabling this requires an inline-vs-blob-reference size threshold
		// decision first.
		return Row{}, fmt.Errorf("%w: %s", ErrUnsupportedContent, models.KindBinary)

	case models.URIContent:
		return Row{Kind: string(models.KindURI), URI: v.URI, MediaType: v.MediaType}, nil

	case models.ErrorContent:
		return Row{
			Kind:       string(models.KindError),
			ErrMessage: v.Message,
			ErrCode:    v.Code,
			ErrDetails: v.Details,
		}, nil

	case models.FunctionCall:
		payload, err := marshalPayload(v.Arguments)
		if err != nil {
			return Row{}, fmt.Errorf("encode function call %q: %w", v.Name, err)
		}
		return Row{
			Kind:         string(models.KindFunctionCall),
			CallID:       v.CallID,
			FunctionName: v.Name,
			Payload:      payload,
		}, nil

	case models.FunctionResult:
		payload, err := marshalPayload(v.Result)
		if err != nil {
			return Row{}, fmt.Errorf("encode function result %q: %w", v.CallID, err)
		}
		return Row{
			Kind:    string(models.KindFunctionResult),
			CallID:  v.CallID,
			Payload: payload,
		}, nil

	case models.UsageContent:
		return Row{
			Kind:         string(models.KindUsage),
			InputTokens:  v.InputTokens,
			OutputTokens: v.OutputTokens,
			TotalTokens:  v.TotalTokens,
		}, nil

	case nil:
		return Row{}, errors.New("encode nil content")

	default:
		return Row{}, fmt.Errorf("%w: %T", ErrUnsupportedContent, c)
	}
}

// Decode maps a stored row back to its content item. A corrupted payload on
// function call/result rows does not fail the item; the structured value is
// replaced with its empty default and the substitution is reported through
// the returned degraded flag so callers can log it.
func Decode(r Row) (c models.Content, degraded bool, err error) {
	switch models.Kind(r.Kind) {
	case models.KindText:
		return models.TextContent{Text: r.Text}, false, nil

	case models.KindReasoning:
		return models.ReasoningContent{Text: r.Text}, false, nil

	case models.KindBinary:
		return nil, false, fmt.Errorf("%w: %s", ErrUnsupportedContent, models.KindBinary)

	case models.KindURI:
		return models.URIContent{URI: r.URI, MediaType: r.MediaType}, false, nil

	case models.KindError:
		return models.ErrorContent{
			Message: r.ErrMessage,
			Code:    r.ErrCode,
			Details: r.ErrDetails,
		}, false, nil

	case models.KindFunctionCall:
		args, ok := unmarshalArguments(r.Payload)
		return models.FunctionCall{
			CallID:    r.CallID,
			Name:      r.FunctionName,
			Arguments: args,
		}, !ok, nil

	case models.KindFunctionResult:
		result, ok := unmarshalValue(r.Payload)
		return models.FunctionResult{
			CallID: r.CallID,
			Result: result,
		}, !ok, nil

	case models.KindUsage:
		return models.UsageContent{
			InputTokens:  r.InputTokens,
			OutputTokens: r.OutputTokens,
			TotalTokens:  r.TotalTokens,
		}, false, nil

	default:
		return nil, false, fmt.Errorf("%w: %q", ErrUnknownKind, r.Kind)
	}
}
