package models

// Kind tags a content-item variant. The set is closed: adding a variant means
// adding a Kind, a Content implementation, and both codec directions.
type Kind string

const (
	KindText           Kind = "text"
	KindReasoning      Kind = "reasoning"
	KindBinary         Kind = "binary"
	KindURI            Kind = "uri"
	KindError          Kind = "error"
	KindFunctionCall   Kind = "function_call"
	KindFunctionResult Kind = "function_result"
	KindUsage          Kind = "usage"
)

// Content is the closed union of message payload variants. Implementations
// are value types; mutating a stored item is never valid.
type Content interface {
	Kind() Kind
}

// TextContent is plain assistant/user-visible text.
type TextContent struct {
	Text string `json:"text"`
}

func (TextContent) Kind() Kind { return KindText }

// ReasoningContent is model reasoning text, kept distinct from user-visible
// output.
type ReasoningContent struct {
	Text string `json:"text"`
}

func (ReasoningContent) Kind() Kind { return KindReasoning }

// BinaryContent is inline or referenced binary data. The durable codec does
// not support it yet; encode and decode both fail with a distinct sentinel
// rather than dropping the data.
type BinaryContent struct {
	MediaType string `json:"media_type"`
	Name      string `json:"name,omitempty"`
	Data      []byte `json:"data,omitempty"`
	BlobRef   string `json:"blob_ref,omitempty"`
}

func (BinaryContent) Kind() Kind { return KindBinary }

// URIContent references external content by URI.
type URIContent struct {
	URI       string `json:"uri"`
	MediaType string `json:"media_type,omitempty"`
}

func (URIContent) Kind() Kind { return KindURI }

// ErrorContent records an error that occurred while producing the turn.
type ErrorContent struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

func (ErrorContent) Kind() Kind { return KindError }

// FunctionCall is a tool/function invocation requested by the model.
// Arguments hold the structured call parameters; they serialize to a string
// payload in storage.
type FunctionCall struct {
	CallID    string         `json:"call_id"`
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments,omitempty"`
}

func (FunctionCall) Kind() Kind { return KindFunctionCall }

// FunctionResult carries the outcome of a function call back to the model.
// Result is an arbitrary structured value; it serializes to a string payload
// in storage.
type FunctionResult struct {
	CallID string `json:"call_id"`
	Result any    `json:"result,omitempty"`
}

func (FunctionResult) Kind() Kind { return KindFunctionResult }

// UsageContent records token accounting for a turn. Each counter is optional.
type UsageContent struct {
	InputTokens  *int64 `json:"input_tokens,omitempty"`
	OutputTokens *int64 `json:"output_tokens,omitempty"`
	TotalTokens  *int64 `json:"total_tokens,omitempty"`
}

func (UsageContent) Kind() Kind { return KindUsage }

// cloneContent copies a content item deeply enough that nothing mutable is
// shared with the original. Pure-value variants pass through unchanged.
func cloneContent(c Content) Content {
	switch v := c.(type) {
	case BinaryContent:
		if v.Data != nil {
			v.Data = append([]byte(nil), v.Data...)
		}
		return v
	case FunctionCall:
		v.Arguments = cloneStructuredMap(v.Arguments)
		return v
	case FunctionResult:
		v.Result = cloneStructuredValue(v.Result)
		return v
	default:
		return c
	}
}

// cloneStructuredMap deep-copies a payload map. nil stays nil.
func cloneStructuredMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = cloneStructuredValue(v)
	}
	return out
}

// cloneStructuredValue deep-copies the JSON-shaped values payloads are built
// from. Anything else is treated as an immutable scalar.
func cloneStructuredValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return cloneStructuredMap(t)
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = cloneStructuredValue(e)
		}
		return out
	default:
		return v
	}
}
