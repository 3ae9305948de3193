package streaming

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raphaelgruber/convostore-go/internal/models"
)

// recordingStore captures Append calls and optionally fails them.
type recordingStore struct {
	appends   [][]models.Message
	appendErr error
}

func (r *recordingStore) GetOrCreate(ctx context.Context, id string, newMessages []models.Message) (*models.Conversation, error) {
	return &models.Conversation{ID: id}, nil
}

func (r *recordingStore) Append(ctx context.Context, conv *models.Conversation, msgs []models.Message) error {
	if r.appendErr != nil {
		return r.appendErr
	}
	r.appends = append(r.appends, msgs)
	return nil
}

func newAccumulator(st *recordingStore, opts Options) *Accumulator {
	return New(st, &models.Conversation{ID: "c1"}, opts)
}

func TestForwardBeforeBuffer(t *testing.T) {
	st := &recordingStore{}
	var forwarded []Fragment
	acc := newAccumulator(st, Options{
		Forward: func(f Fragment) error {
			forwarded = append(forwarded, f)
			return nil
		},
	})

	require.NoError(t, acc.Consume(Fragment{Text: "Hel"}))
	require.NoError(t, acc.Consume(Fragment{})) // empty still forwarded
	require.NoError(t, acc.Consume(Fragment{Text: "lo"}))

	assert.Len(t, forwarded, 3, "every fragment reaches the consumer, empty ones included")
	require.NoError(t, acc.Finalize(context.Background()))
	require.Len(t, st.appends, 1)
}

func TestForwardErrorStopsConsume(t *testing.T) {
	st := &recordingStore{}
	boom := errors.New("consumer gone")
	acc := newAccumulator(st, Options{
		Forward: func(f Fragment) error { return boom },
	})

	err := acc.Consume(Fragment{Text: "x"})
	require.ErrorIs(t, err, boom)

	// The failed fragment was not buffered.
	require.NoError(t, acc.Finalize(context.Background()))
	assert.Empty(t, st.appends)
}

func TestCollapseShape(t *testing.T) {
	st := &recordingStore{}
	acc := newAccumulator(st, Options{})

	require.NoError(t, acc.Consume(Fragment{Text: "The answer "}))
	require.NoError(t, acc.Consume(Fragment{Items: []models.Content{
		models.FunctionCall{CallID: "call-1", Name: "lookup"},
	}}))
	require.NoError(t, acc.Consume(Fragment{Text: "is 42."}))
	require.NoError(t, acc.Consume(Fragment{Items: []models.Content{
		models.FunctionResult{CallID: "call-1", Result: "ok"},
	}}))

	require.NoError(t, acc.Finalize(context.Background()))
	require.Len(t, st.appends, 1)
	require.Len(t, st.appends[0], 1)

	msg := st.appends[0][0]
	assert.Equal(t, models.RoleAssistant, msg.Role)
	require.Len(t, msg.Content, 3)
	assert.Equal(t, models.TextContent{Text: "The answer is 42."}, msg.Content[0])
	assert.Equal(t, "call-1", msg.Content[1].(models.FunctionCall).CallID)
	assert.Equal(t, "call-1", msg.Content[2].(models.FunctionResult).CallID)
}

func TestCollapseItemsOnly(t *testing.T) {
	st := &recordingStore{}
	acc := newAccumulator(st, Options{})

	total := int64(10)
	require.NoError(t, acc.Consume(Fragment{Items: []models.Content{
		models.UsageContent{TotalTokens: &total},
	}}))
	require.NoError(t, acc.Finalize(context.Background()))

	require.Len(t, st.appends, 1)
	msg := st.appends[0][0]
	require.Len(t, msg.Content, 1, "no empty leading text item")
	assert.Equal(t, models.KindUsage, msg.Content[0].Kind())
}

func TestZeroFragmentsSkipsSave(t *testing.T) {
	st := &recordingStore{}
	acc := newAccumulator(st, Options{})

	require.NoError(t, acc.Finalize(context.Background()))
	assert.Empty(t, st.appends)
}

func TestFinalizeRunsOnce(t *testing.T) {
	st := &recordingStore{}
	acc := newAccumulator(st, Options{})

	require.NoError(t, acc.Consume(Fragment{Text: "once"}))
	require.NoError(t, acc.Finalize(context.Background()))
	require.NoError(t, acc.Finalize(context.Background()))
	require.NoError(t, acc.Finalize(context.Background()))

	assert.Len(t, st.appends, 1)
}

func TestContinuePolicySwallowsSaveError(t *testing.T) {
	st := &recordingStore{appendErr: errors.New("db down")}
	acc := newAccumulator(st, Options{Policy: ContinueOnFailure})

	require.NoError(t, acc.Consume(Fragment{Text: "x"}))
	assert.NoError(t, acc.Finalize(context.Background()))
}

func TestPropagatePolicySurfacesSaveError(t *testing.T) {
	boom := errors.New("db down")
	st := &recordingStore{appendErr: boom}
	acc := newAccumulator(st, Options{Policy: PropagateFailure})

	require.NoError(t, acc.Consume(Fragment{Text: "x"}))
	err := acc.Finalize(context.Background())
	require.ErrorIs(t, err, boom)
}

func TestInvalidPolicyDefaultsToContinue(t *testing.T) {
	st := &recordingStore{appendErr: errors.New("db down")}
	acc := newAccumulator(st, Options{Policy: FailurePolicy("whatever")})

	require.NoError(t, acc.Consume(Fragment{Text: "x"}))
	assert.NoError(t, acc.Finalize(context.Background()))
}
