// Package streaming collects incremental output fragments into one finalized
// response turn and persists it with a single append.
package streaming

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/raphaelgruber/convostore-go/internal/models"
	"github.com/raphaelgruber/convostore-go/internal/store"
)

// FailurePolicy decides what happens when the final save fails after the
// output stream has already been delivered.
type FailurePolicy string

const (
	// ContinueOnFailure records the failure without affecting the caller;
	// the consumer has seen the output either way.
	ContinueOnFailure FailurePolicy = "continue"
	// PropagateFailure surfaces the save error to the caller even though
	// the output has already been delivered. A known design tension.
	PropagateFailure FailurePolicy = "propagate"
)

// Valid reports whether p is a known policy.
func (p FailurePolicy) Valid() bool {
	return p == ContinueOnFailure || p == PropagateFailure
}

// Fragment is one incremental piece of a response. Text carries a delta of
// the streamed text; Items carries any non-text content arriving whole
// (tool calls, usage, errors).
type Fragment struct {
	Text  string
	Items []models.Content
}

// empty reports whether the fragment carries nothing.
func (f Fragment) empty() bool {
	return f.Text == "" && len(f.Items) == 0
}

// Accumulator buffers a finite, non-restartable fragment sequence while
// forwarding every fragment unchanged to its consumer. It is single-owner:
// no locking, the caller drives Consume from one goroutine and calls
// Finalize exactly once when the sequence ends, normally or via
// cancellation. Ownership of the finalized message list passes to the store
// on that call.
type Accumulator struct {
	store   store.Store
	conv    *models.Conversation
	policy  FailurePolicy
	logger  *slog.Logger
	forward func(Fragment) error

	buf       []Fragment
	finalized bool
}

// Options configures an Accumulator.
type Options struct {
	// Policy decides save-failure behavior; defaults to ContinueOnFailure.
	Policy FailurePolicy
	// Forward receives every fragment before it is buffered. Nil means the
	// accumulator is the end of the line.
	Forward func(Fragment) error
	// Logger may be nil.
	Logger *slog.Logger
}

// New creates an accumulator that will append the finalized turn to conv in
// st.
func New(st store.Store, conv *models.Conversation, opts Options) *Accumulator {
	policy := opts.Policy
	if !policy.Valid() {
		policy = ContinueOnFailure
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Accumulator{
		store:   st,
		conv:    conv,
		policy:  policy,
		logger:  logger,
		forward: opts.Forward,
	}
}

// Consume forwards the fragment to the consumer first, then buffers a copy.
// Forwarding always happens, even for fragments the buffer would ignore, so
// the accumulator adds no observable latency or filtering to the stream.
func (a *Accumulator) Consume(f Fragment) error {
	if a.forward != nil {
		if err := a.forward(f); err != nil {
			return err
		}
	}
	if !f.empty() {
		a.buf = append(a.buf, f)
	}
	return nil
}

// Finalize collapses the buffered fragments into one assistant message and
// appends it to the conversation. It runs at most once; later calls are
// no-ops. With zero buffered fragments no save is attempted; that is an
// expected condition, not an error.
func (a *Accumulator) Finalize(ctx context.Context) error {
	if a.finalized {
		return nil
	}
	a.finalized = true

	if len(a.buf) == 0 {
		a.logger.Debug("no fragments received, skipping save", "conversation", a.conv.ID)
		return nil
	}

	msg := collapse(a.buf)
	a.buf = nil

	if err := a.store.Append(ctx, a.conv, []models.Message{msg}); err != nil {
		if a.policy == PropagateFailure {
			return fmt.Errorf("persist streamed response: %w", err)
		}
		a.logger.Error("failed to persist streamed response, continuing",
			"conversation", a.conv.ID, "error", err)
	}
	return nil
}

// collapse merges the fragment sequence into a single assistant message:
// all text deltas concatenated into one leading text item, followed by the
// non-text items in arrival order.
func collapse(frags []Fragment) models.Message {
	var text string
	var items []models.Content
	for _, f := range frags {
		text += f.Text
		items = append(items, f.Items...)
	}

	msg := models.Message{Role: models.RoleAssistant}
	if text != "" {
		msg.Content = append(msg.Content, models.TextContent{Text: text})
	}
	msg.Content = append(msg.Content, items...)
	return msg
}
