package memory

import (
	"context"
	"sync"
	"time"

	"github.com/dotalytics/dota-ingest/internal/domain/checkpoint"
)

// CheckpointStore is an in-memory checkpoint.Store with the same
// monotonic save semantics as the durable implementations.
type CheckpointStore struct {
	mu     sync.RWMutex
	cursor checkpoint.Cursor
	set    bool
}

func NewCheckpointStore() *CheckpointStore {
	return &CheckpointStore{}
}

func (s *CheckpointStore) Load(_ context.Context) (checkpoint.Cursor, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cursor, s.set, nil
}

func (s *CheckpointStore) Save(_ context.Context, cursor checkpoint.Cursor) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.set && cursor.LastMatchID <= s.cursor.LastMatchID {
		return nil
	}
	if cursor.UpdatedAt.IsZero() {
		cursor.UpdatedAt = time.Now().UTC()
	}
	s.cursor = cursor
	s.set = true
	return nil
}

func (s *CheckpointStore) Seed(lastMatchID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cursor = checkpoint.Cursor{LastMatchID: lastMatchID, UpdatedAt: time.Now().UTC()}
	s.set = true
}
