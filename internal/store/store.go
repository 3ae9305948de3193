// Package store defines the conversation persistence contract and its
// in-process implementation. The durable SurrealDB implementation lives in
// the db package.
package store

import (
	"context"
	"errors"

	"github.com/raphaelgruber/convostore-go/internal/models"
)

// Sentinel errors shared by store implementations. Check with errors.Is.
var (
	// ErrNotFound indicates an append against a conversation the durable
	// backend has never seen. GetOrCreate is the only creation path there;
	// the volatile store instead creates defensively.
	ErrNotFound = errors.New("conversation not found")

	// ErrMapping indicates a message or content item that could not be
	// mapped to storage form. On the write path the whole batch fails.
	ErrMapping = errors.New("content mapping failed")
)

// Store is the conversation persistence contract. Both operations are safe
// for concurrent use; calls for the same identifier serialize so that no
// append is ever lost, and calls for different identifiers do not block each
// other.
type Store interface {
	// GetOrCreate returns the conversation for id, creating it when absent.
	// newMessages are appended to the history in order; an empty batch is a
	// successful no-op append. The returned conversation reflects the merged
	// state, so callers never need a follow-up read.
	GetOrCreate(ctx context.Context, id string, newMessages []models.Message) (*models.Conversation, error)

	// Append appends responseMessages to the stored history of conv in one
	// atomic step: either every message in the batch becomes visible or none
	// does. An empty batch succeeds without touching storage or timestamps.
	Append(ctx context.Context, conv *models.Conversation, responseMessages []models.Message) error
}

// Lister is implemented by stores that can enumerate conversation heads,
// most recently updated first. Read-only; not part of the core contract.
type Lister interface {
	List(ctx context.Context, limit int) ([]models.Conversation, error)
}
