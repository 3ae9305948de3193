// Package service exposes the two consumer-facing history operations over a
// ConversationStore, adding validation and identity resolution in front of
// it. Validation and identity errors never reach the store.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/raphaelgruber/convostore-go/internal/identity"
	"github.com/raphaelgruber/convostore-go/internal/metrics"
	"github.com/raphaelgruber/convostore-go/internal/models"
	"github.com/raphaelgruber/convostore-go/internal/store"
)

// Sentinel errors surfaced before any store access. Check with errors.Is.
var (
	// ErrIdentityRequired is returned in strict identifier mode when no id
	// was supplied. Fatal for the request; storage is never touched.
	ErrIdentityRequired = errors.New("conversation identifier required")

	// ErrValidation is returned for structurally invalid input (empty
	// message list, nil conversation, unknown role).
	ErrValidation = errors.New("invalid request")
)

// History is the boundary service for conversation persistence.
type History struct {
	store   store.Store
	policy  identity.Policy
	logger  *slog.Logger
	metrics *metrics.Collector
}

// New creates a History service. logger and collector may be nil.
func New(st store.Store, policy identity.Policy, logger *slog.Logger, collector *metrics.Collector) *History {
	if logger == nil {
		logger = slog.Default()
	}
	if collector == nil {
		collector = metrics.NewCollector()
	}
	return &History{store: st, policy: policy, logger: logger, metrics: collector}
}

// Metrics returns the service's metrics collector.
func (h *History) Metrics() *metrics.Collector {
	return h.metrics
}

// GetOrCreateConversation resolves the effective conversation identifier and
// merges newMessages into its history, creating the conversation when absent.
// The input list must be non-empty; that is a caller-side rule, not a store
// rule.
func (h *History) GetOrCreateConversation(ctx context.Context, id string, newMessages []models.Message) (*models.Conversation, error) {
	if len(newMessages) == 0 {
		return nil, fmt.Errorf("%w: at least one input message required", ErrValidation)
	}
	for i, m := range newMessages {
		if !m.Role.Valid() {
			return nil, fmt.Errorf("%w: message[%d]: unknown role %q", ErrValidation, i, m.Role)
		}
	}

	effectiveID, ok := h.policy.Resolve(id, newMessages)
	if !ok {
		if h.policy.Mode() == identity.ModeStrict {
			return nil, ErrIdentityRequired
		}
		// Not enough information to derive identity from content; fall back
		// to a random identifier rather than guessing.
		effectiveID = identity.Random()
	}

	start := time.Now()
	conv, err := h.store.GetOrCreate(ctx, effectiveID, newMessages)
	h.metrics.Record("get_or_create", time.Since(start), len(newMessages), err != nil)
	if err != nil {
		return nil, err
	}

	h.logger.Debug("conversation merged",
		"id", conv.ID,
		"appended", len(newMessages),
		"total", len(conv.Messages),
	)
	return conv, nil
}

// SaveMessages appends responseMessages to the conversation's stored history.
// An empty batch is a successful no-op.
func (h *History) SaveMessages(ctx context.Context, conv *models.Conversation, responseMessages []models.Message) error {
	if conv == nil || conv.ID == "" {
		return fmt.Errorf("%w: conversation required", ErrValidation)
	}
	for i, m := range responseMessages {
		if !m.Role.Valid() {
			return fmt.Errorf("%w: message[%d]: unknown role %q", ErrValidation, i, m.Role)
		}
	}
	if len(responseMessages) == 0 {
		return nil
	}

	start := time.Now()
	err := h.store.Append(ctx, conv, responseMessages)
	h.metrics.Record("save_messages", time.Since(start), len(responseMessages), err != nil)
	if err != nil {
		return err
	}

	h.logger.Debug("messages saved", "id", conv.ID, "appended", len(responseMessages))
	return nil
}
