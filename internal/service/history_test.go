package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raphaelgruber/convostore-go/internal/identity"
	"github.com/raphaelgruber/convostore-go/internal/models"
	"github.com/raphaelgruber/convostore-go/internal/store"
)

// countingStore wraps the volatile store and counts calls, so the tests can
// verify which requests reach storage at all.
type countingStore struct {
	inner       store.Store
	getOrCreate int
	appends     int
}

func (c *countingStore) GetOrCreate(ctx context.Context, id string, msgs []models.Message) (*models.Conversation, error) {
	c.getOrCreate++
	return c.inner.GetOrCreate(ctx, id, msgs)
}

func (c *countingStore) Append(ctx context.Context, conv *models.Conversation, msgs []models.Message) error {
	c.appends++
	return c.inner.Append(ctx, conv, msgs)
}

func newHistory(mode identity.Mode) (*History, *countingStore) {
	st := &countingStore{inner: store.NewVolatile(nil)}
	return New(st, identity.NewPolicy(mode), nil, nil), st
}

func firstTurn() []models.Message {
	return []models.Message{
		models.TextMessage(models.RoleSystem, "You are helpful"),
		models.TextMessage(models.RoleUser, "Hi"),
	}
}

func TestGetOrCreateWithExplicitID(t *testing.T) {
	h, st := newHistory(identity.ModeStrict)

	conv, err := h.GetOrCreateConversation(context.Background(), "thread-1", firstTurn())
	require.NoError(t, err)
	assert.Equal(t, "thread-1", conv.ID)
	assert.Len(t, conv.Messages, 2)
	assert.Equal(t, 1, st.getOrCreate)
}

func TestStrictWithoutIDNeverReachesStore(t *testing.T) {
	h, st := newHistory(identity.ModeStrict)

	_, err := h.GetOrCreateConversation(context.Background(), "", firstTurn())
	require.ErrorIs(t, err, ErrIdentityRequired)
	assert.Zero(t, st.getOrCreate, "identity failures are fatal before storage")
}

func TestContentHashSameFirstTurnSameConversation(t *testing.T) {
	h, _ := newHistory(identity.ModeContentHash)
	ctx := context.Background()

	first, err := h.GetOrCreateConversation(ctx, "", firstTurn())
	require.NoError(t, err)

	// The reversed first turn must land in the same conversation.
	again, err := h.GetOrCreateConversation(ctx, "", []models.Message{
		models.TextMessage(models.RoleUser, "Hi"),
		models.TextMessage(models.RoleSystem, "You are helpful"),
	})
	require.NoError(t, err)

	assert.Equal(t, first.ID, again.ID)
	assert.Len(t, again.Messages, 4)
}

func TestContentHashFallsBackToRandom(t *testing.T) {
	h, _ := newHistory(identity.ModeContentHash)
	ctx := context.Background()

	// A single user message is not a hashable first turn.
	single := []models.Message{models.TextMessage(models.RoleUser, "Hi")}

	a, err := h.GetOrCreateConversation(ctx, "", single)
	require.NoError(t, err)
	b, err := h.GetOrCreateConversation(ctx, "", single)
	require.NoError(t, err)

	assert.NotEqual(t, a.ID, b.ID, "unhashable input gets a fresh identifier each time")
}

func TestAutoGenerateDistinctConversations(t *testing.T) {
	h, _ := newHistory(identity.ModeAutoGenerate)
	ctx := context.Background()

	a, err := h.GetOrCreateConversation(ctx, "", firstTurn())
	require.NoError(t, err)
	b, err := h.GetOrCreateConversation(ctx, "", firstTurn())
	require.NoError(t, err)

	assert.NotEqual(t, a.ID, b.ID)
	assert.Len(t, a.Messages, 2)
	assert.Len(t, b.Messages, 2)
}

func TestGetOrCreateRejectsEmptyBatch(t *testing.T) {
	h, st := newHistory(identity.ModeAutoGenerate)

	_, err := h.GetOrCreateConversation(context.Background(), "thread-1", nil)
	require.ErrorIs(t, err, ErrValidation)
	assert.Zero(t, st.getOrCreate)
}

func TestGetOrCreateRejectsUnknownRole(t *testing.T) {
	h, st := newHistory(identity.ModeAutoGenerate)

	_, err := h.GetOrCreateConversation(context.Background(), "thread-1", []models.Message{
		models.TextMessage(models.Role("narrator"), "Once upon a time"),
	})
	require.ErrorIs(t, err, ErrValidation)
	assert.Zero(t, st.getOrCreate)
}

func TestSaveMessages(t *testing.T) {
	h, st := newHistory(identity.ModeStrict)
	ctx := context.Background()

	conv, err := h.GetOrCreateConversation(ctx, "thread-1", firstTurn())
	require.NoError(t, err)

	err = h.SaveMessages(ctx, conv, []models.Message{
		models.TextMessage(models.RoleAssistant, "Hello!"),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, st.appends)

	after, err := h.GetOrCreateConversation(ctx, "thread-1", []models.Message{
		models.TextMessage(models.RoleUser, "Thanks"),
	})
	require.NoError(t, err)
	assert.Len(t, after.Messages, 4)
}

func TestSaveMessagesEmptyBatchNoOp(t *testing.T) {
	h, st := newHistory(identity.ModeStrict)

	err := h.SaveMessages(context.Background(), &models.Conversation{ID: "thread-1"}, nil)
	require.NoError(t, err)
	assert.Zero(t, st.appends, "empty saves never reach storage")
}

func TestSaveMessagesRequiresConversation(t *testing.T) {
	h, st := newHistory(identity.ModeStrict)
	msgs := []models.Message{models.TextMessage(models.RoleAssistant, "Hello!")}

	err := h.SaveMessages(context.Background(), nil, msgs)
	require.ErrorIs(t, err, ErrValidation)

	err = h.SaveMessages(context.Background(), &models.Conversation{}, msgs)
	require.ErrorIs(t, err, ErrValidation)

	assert.Zero(t, st.appends)
}

func TestSaveMessagesRejectsUnknownRole(t *testing.T) {
	h, st := newHistory(identity.ModeStrict)

	err := h.SaveMessages(context.Background(), &models.Conversation{ID: "thread-1"}, []models.Message{
		models.TextMessage(models.Role("oracle"), "Hmm"),
	})
	require.ErrorIs(t, err, ErrValidation)
	assert.Zero(t, st.appends)
}

func TestMetricsRecorded(t *testing.T) {
	h, _ := newHistory(identity.ModeStrict)
	ctx := context.Background()

	conv, err := h.GetOrCreateConversation(ctx, "thread-1", firstTurn())
	require.NoError(t, err)
	require.NoError(t, h.SaveMessages(ctx, conv, []models.Message{
		models.TextMessage(models.RoleAssistant, "Hello!"),
	}))

	snap := h.Metrics().Snapshot()
	require.Contains(t, snap, "get_or_create")
	require.Contains(t, snap, "save_messages")
	assert.EqualValues(t, 1, snap["get_or_create"].Count)
	assert.EqualValues(t, 2, snap["get_or_create"].MessagesAppended)
	assert.EqualValues(t, 1, snap["save_messages"].MessagesAppended)
}
