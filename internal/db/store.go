package db

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/surrealdb/surrealdb.go"

	"github.com/raphaelgruber/convostore-go/internal/codec"
	"github.com/raphaelgruber/convostore-go/internal/models"
	"github.com/raphaelgruber/convostore-go/internal/store"
)

// Store is the durable ConversationStore, backed by the conversation, message
// and content tables. All writes for one append batch run inside a single
// SurrealDB transaction: readers never observe a partially appended batch,
// and a mapping failure on any message rolls back the whole batch.
//
// The failure policy is asymmetric on purpose: writes are all-or-nothing to
// protect the integrity of what gets persisted, while the read path skips
// undecodable rows so one corrupt item cannot take the rest of the history
// down with it.
type Store struct {
	client *Client
	logger *slog.Logger
	now    func() time.Time
}

var _ store.Store = (*Store)(nil)
var _ store.Lister = (*Store)(nil)

// appendAttempts bounds retries of the append transaction on optimistic
// conflicts (concurrent appends to the same conversation race on the
// position index).
const appendAttempts = 3

// NewStore creates a durable store on top of an established client. logger
// may be nil.
func NewStore(client *Client, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{client: client, logger: logger, now: time.Now}
}

// LoadDiagnostics reports what the read path had to skip or degrade while
// reconstructing a conversation.
type LoadDiagnostics struct {
	SkippedMessages int // messages dropped entirely (bad role, undecodable)
	SkippedItems    int // content items dropped (unknown kind, unsupported)
	DegradedItems   int // items kept with an empty payload substituted
}

// GetOrCreate implements store.Store. The conversation record is created
// idempotently when absent; a non-empty batch is persisted through the same
// transactional path as Append before the merged state is returned, so the
// returned conversation and the durable record always agree.
func (s *Store) GetOrCreate(ctx context.Context, id string, newMessages []models.Message) (*models.Conversation, error) {
	// One clock reading for the whole call: a conversation created together
	// with its first batch gets identical creation and update timestamps.
	now := s.now().UTC()

	if err := s.ensure(ctx, id, now); err != nil {
		return nil, err
	}

	if len(newMessages) > 0 {
		if err := s.appendTx(ctx, id, newMessages, now); err != nil {
			return nil, err
		}
	}

	conv, diag, err := s.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	if diag.SkippedMessages > 0 || diag.SkippedItems > 0 || diag.DegradedItems > 0 {
		s.logger.Warn("conversation loaded with degraded history",
			"id", id,
			"skipped_messages", diag.SkippedMessages,
			"skipped_items", diag.SkippedItems,
			"degraded_items", diag.DegradedItems,
		)
	}
	return conv, nil
}

// Append implements store.Store. The referenced conversation must already
// exist; GetOrCreate is the only creation path for the durable store.
func (s *Store) Append(ctx context.Context, conv *models.Conversation, responseMessages []models.Message) error {
	if len(responseMessages) == 0 {
		return nil
	}
	return s.appendTx(ctx, conv.ID, responseMessages, s.now().UTC())
}

// ensure creates the conversation record if it does not exist yet, leaving
// timestamps untouched when it does. Concurrent callers for the same id are
// safe: UPSERT against the fixed record id is idempotent.
func (s *Store) ensure(ctx context.Context, id string, now time.Time) error {
	const sql = `
		UPSERT type::record("conversation", $id) SET
			created_at = IF created_at THEN created_at ELSE $now END,
			updated_at = IF updated_at THEN updated_at ELSE $now END
	`
	_, err := surrealdb.Query[any](ctx, s.client.db, sql, map[string]any{
		"id":  id,
		"now": now,
	})
	if err != nil {
		return fmt.Errorf("ensure conversation: %w", wrapQueryError(err))
	}
	return nil
}

// Load reconstructs a conversation with its full ordered history. Rows that
// cannot be decoded are skipped and counted in the diagnostics; the rest of
// the history loads intact, in original order. Returns store.ErrNotFound for
// an unknown id.
func (s *Store) Load(ctx context.Context, id string) (*models.Conversation, *LoadDiagnostics, error) {
	heads, err := surrealdb.Query[[]conversationRow](ctx, s.client.db, `
		SELECT * FROM type::record("conversation", $id)
	`, map[string]any{"id": id})
	if err != nil {
		return nil, nil, fmt.Errorf("load conversation: %w", wrapQueryError(err))
	}
	if heads == nil || len(*heads) == 0 || len((*heads)[0].Result) == 0 {
		return nil, nil, fmt.Errorf("%w: %q", store.ErrNotFound, id)
	}
	head := (*heads)[0].Result[0]

	rows, err := surrealdb.Query[[]messageRow](ctx, s.client.db, `
		SELECT *, (SELECT * FROM content WHERE message = $parent.id ORDER BY position ASC) AS content
		FROM message
		WHERE conversation = type::record("conversation", $id)
		ORDER BY position ASC
	`, map[string]any{"id": id})
	if err != nil {
		return nil, nil, fmt.Errorf("load messages: %w", wrapQueryError(err))
	}

	diag := &LoadDiagnostics{}
	conv := &models.Conversation{
		ID:        id,
		CreatedAt: head.CreatedAt,
		UpdatedAt: head.UpdatedAt,
	}
	if rows != nil && len(*rows) > 0 {
		for _, row := range (*rows)[0].Result {
			msg, ok := s.decodeMessage(id, row, diag)
			if !ok {
				continue
			}
			conv.Messages = append(conv.Messages, msg)
		}
	}
	return conv, diag, nil
}

// decodeMessage materializes one stored message, skipping items that fail to
// decode. ok is false when the whole message must be skipped.
func (s *Store) decodeMessage(convID string, row messageRow, diag *LoadDiagnostics) (models.Message, bool) {
	role := models.Role(row.Role)
	if !role.Valid() {
		s.logger.Warn("skipping message with unknown role",
			"conversation", convID, "position", row.Position, "role", row.Role)
		diag.SkippedMessages++
		return models.Message{}, false
	}

	msg := models.Message{
		Role:     role,
		Position: row.Position,
	}
	if row.ExternalID != nil {
		msg.ID = *row.ExternalID
	}
	if row.Author != nil {
		msg.Author = *row.Author
	}

	for _, cr := range row.Content {
		item, degraded, err := codec.Decode(cr.Row)
		if err != nil {
			s.logger.Warn("skipping undecodable content item",
				"conversation", convID,
				"message_position", row.Position,
				"item_position", cr.Position,
				"kind", cr.Kind,
				"error", err,
			)
			diag.SkippedItems++
			continue
		}
		if degraded {
			s.logger.Warn("content payload corrupted, substituting empty value",
				"conversation", convID,
				"message_position", row.Position,
				"item_position", cr.Position,
				"kind", cr.Kind,
			)
			diag.DegradedItems++
		}
		msg.Content = append(msg.Content, item)
	}
	return msg, true
}

// appendTx encodes the batch and commits it as one transaction. Encoding
// happens entirely before anything is sent: if any message fails to map, the
// batch never reaches the database. The script derives each position from
// the persisted message count inside the transaction, so concurrent appends
// serialize on the unique (conversation, position) index; conflicts are
// retried a bounded number of times.
//
// Cancellation is honored only between attempts. Once the script is issued
// the server commits or rolls it back as a unit.
func (s *Store) appendTx(ctx context.Context, id string, batch []models.Message, now time.Time) error {
	encoded := make([]map[string]any, len(batch))
	for i, m := range batch {
		vars, err := messageVars(i, m)
		if err != nil {
			return err
		}
		encoded[i] = vars
	}

	const sql = `
		BEGIN TRANSACTION;
		LET $conv = type::record("conversation", $id);
		IF !record::exists($conv) {
			THROW "conversation not found";
		};
		LET $base = (SELECT VALUE count() FROM message WHERE conversation = $conv GROUP ALL)[0] ?? 0;
		FOR $m IN $messages {
			LET $rec = (CREATE ONLY message CONTENT {
				conversation: $conv,
				external_id: $m.external_id,
				role: $m.role,
				author: $m.author,
				position: $base + $m.offset,
				created_at: $now
			});
			FOR $c IN $m.content {
				CREATE content CONTENT {
					message: $rec.id,
					position: $c.position,
					kind: $c.kind,
					text: $c.text,
					media_type: $c.media_type,
					name: $c.name,
					uri: $c.uri,
					error_message: $c.error_message,
					error_code: $c.error_code,
					error_details: $c.error_details,
					call_id: $c.call_id,
					function_name: $c.function_name,
					payload: $c.payload,
					input_tokens: $c.input_tokens,
					output_tokens: $c.output_tokens,
					total_tokens: $c.total_tokens
				};
			};
		};
		UPDATE $conv SET updated_at = $now;
		COMMIT TRANSACTION;
	`

	vars := map[string]any{
		"id":       id,
		"messages": encoded,
		"now":      now,
	}

	var err error
	for attempt := 1; attempt <= appendAttempts; attempt++ {
		if cerr := ctx.Err(); cerr != nil {
			return cerr
		}
		_, err = surrealdb.Query[any](ctx, s.client.db, sql, vars)
		err = wrapQueryError(err)
		if err == nil {
			return nil
		}
		if !errors.Is(err, ErrTransactionConflict) || attempt == appendAttempts {
			break
		}
		s.logger.Warn("append transaction conflict, retrying",
			"conversation", id, "attempt", attempt)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(attempt) * 50 * time.Millisecond):
		}
	}
	return fmt.Errorf("append messages: %w", err)
}

// messageVars encodes one message of the batch into script variables. offset
// is the message's index within the batch.
func messageVars(offset int, m models.Message) (map[string]any, error) {
	if !m.Role.Valid() {
		return nil, fmt.Errorf("%w: message[%d]: invalid role %q", store.ErrMapping, offset, m.Role)
	}

	content := make([]map[string]any, len(m.Content))
	for i, item := range m.Content {
		row, err := codec.Encode(item)
		if err != nil {
			return nil, fmt.Errorf("%w: message[%d].content[%d]: %w", store.ErrMapping, offset, i, err)
		}
		content[i] = contentVars(i, row)
	}

	vars := map[string]any{
		"offset":  offset,
		"role":    string(m.Role),
		"content": content,
	}
	if m.ID != "" {
		vars["external_id"] = m.ID
	}
	if m.Author != "" {
		vars["author"] = m.Author
	}
	return vars, nil
}

// List implements store.Lister: conversation heads only, most recently
// updated first.
func (s *Store) List(ctx context.Context, limit int) ([]models.Conversation, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := surrealdb.Query[[]conversationRow](ctx, s.client.db, `
		SELECT * FROM conversation ORDER BY updated_at DESC LIMIT $limit
	`, map[string]any{"limit": limit})
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", wrapQueryError(err))
	}

	var out []models.Conversation
	if rows != nil && len(*rows) > 0 {
		for _, row := range (*rows)[0].Result {
			id, err := recordIDString(row.ID)
			if err != nil {
				s.logger.Warn("skipping conversation with non-string id", "error", err)
				continue
			}
			out = append(out, models.Conversation{
				ID:        id,
				CreatedAt: row.CreatedAt,
				UpdatedAt: row.UpdatedAt,
			})
		}
	}
	return out, nil
}
