package store

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/raphaelgruber/convostore-go/internal/models"
)

// Volatile is the in-process Store, backed by a map of identifier to
// conversation snapshot. Every mutation is an atomic read-modify-write on the
// single entry for a key: a per-key mutex serializes same-key operations
// while different keys proceed independently. Snapshots are immutable once
// stored; merges build a fresh clone and swap it in, and callers receive
// clones of their own.
//
// Nothing survives the process. That is the point: this implementation backs
// caching and tests.
type Volatile struct {
	logger *slog.Logger
	now    func() time.Time

	mu    sync.Mutex // guards slots only; never held during a merge
	slots map[string]*slot
}

type slot struct {
	mu   sync.Mutex
	conv *models.Conversation
}

var _ Store = (*Volatile)(nil)
var _ Lister = (*Volatile)(nil)

// NewVolatile creates an empty in-process store. logger may be nil.
func NewVolatile(logger *slog.Logger) *Volatile {
	if logger == nil {
		logger = slog.Default()
	}
	return &Volatile{
		logger: logger,
		now:    time.Now,
		slots:  make(map[string]*slot),
	}
}

// slotFor returns the slot for id, creating it if needed. The map lock is
// held only for the lookup so unrelated keys never contend.
func (v *Volatile) slotFor(id string) *slot {
	v.mu.Lock()
	defer v.mu.Unlock()
	s, ok := v.slots[id]
	if !ok {
		s = &slot{}
		v.slots[id] = s
	}
	return s
}

// GetOrCreate implements Store.
func (v *Volatile) GetOrCreate(ctx context.Context, id string, newMessages []models.Message) (*models.Conversation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s := v.slotFor(id)
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conv == nil {
		now := v.now()
		s.conv = &models.Conversation{
			ID:        id,
			Messages:  appendBatch(nil, newMessages),
			CreatedAt: now,
			UpdatedAt: now,
		}
		v.logger.Debug("conversation created", "id", id, "messages", len(newMessages))
		return s.conv.Clone(), nil
	}

	if len(newMessages) > 0 {
		merged := s.conv.Clone()
		merged.Messages = appendBatch(merged.Messages, newMessages)
		merged.UpdatedAt = v.now()
		s.conv = merged
	}
	return s.conv.Clone(), nil
}

// Append implements Store. Unknown identifiers are created defensively here;
// that divergence from the durable store is deliberate and documented on the
// contract.
func (v *Volatile) Append(ctx context.Context, conv *models.Conversation, responseMessages []models.Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(responseMessages) == 0 {
		return nil
	}

	s := v.slotFor(conv.ID)
	s.mu.Lock()
	defer s.mu.Unlock()

	now := v.now()
	if s.conv == nil {
		s.conv = &models.Conversation{
			ID:        conv.ID,
			Messages:  appendBatch(nil, responseMessages),
			CreatedAt: now,
			UpdatedAt: now,
		}
		v.logger.Debug("conversation created on append", "id", conv.ID)
		return nil
	}

	merged := s.conv.Clone()
	merged.Messages = appendBatch(merged.Messages, responseMessages)
	merged.UpdatedAt = now
	s.conv = merged
	return nil
}

// List implements Lister, most recently updated first. limit <= 0 returns
// everything.
func (v *Volatile) List(ctx context.Context, limit int) ([]models.Conversation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	v.mu.Lock()
	slots := make([]*slot, 0, len(v.slots))
	for _, s := range v.slots {
		slots = append(slots, s)
	}
	v.mu.Unlock()

	out := make([]models.Conversation, 0, len(slots))
	for _, s := range slots {
		s.mu.Lock()
		if s.conv != nil {
			out = append(out, *s.conv.Clone())
		}
		s.mu.Unlock()
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// appendBatch appends clones of batch to history, assigning positions as
// current count plus offset. Caller-supplied positions are overwritten.
func appendBatch(history []models.Message, batch []models.Message) []models.Message {
	base := len(history)
	for i, m := range batch {
		c := m.Clone()
		c.Position = base + i
		history = append(history, c)
	}
	return history
}
