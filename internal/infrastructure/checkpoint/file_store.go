package checkpoint

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	sonic "github.com/bytedance/sonic"
	"github.com/jonboulle/clockwork"

	"github.com/dotalytics/dota-ingest/internal/domain/checkpoint"
)

// FileStore persists the ingestion cursor as a small JSON file. Writes
// go through a temp file and rename so a crash mid-write never leaves a
// torn checkpoint behind.
type FileStore struct {
	path  string
	clock clockwork.Clock

	mu sync.Mutex
}

func NewFileStore(path string, clock clockwork.Clock) (*FileStore, error) {
	if path == "" {
		return nil, fmt.Errorf("checkpoint path is required")
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create checkpoint directory: %w", err)
	}
	return &FileStore{path: path, clock: clock}, nil
}

func (s *FileStore) Load(ctx context.Context) (checkpoint.Cursor, bool, error) {
	if err := ctx.Err(); err != nil {
		return checkpoint.Cursor{}, false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return checkpoint.Cursor{}, false, nil
	}
	if err != nil {
		return checkpoint.Cursor{}, false, fmt.Errorf("read checkpoint file: %w", err)
	}

	var cursor checkpoint.Cursor
	if err := sonic.Unmarshal(raw, &cursor); err != nil {
		return checkpoint.Cursor{}, false, fmt.Errorf("decode checkpoint file: %w", err)
	}
	if cursor.LastMatchID <= 0 {
		return checkpoint.Cursor{}, false, nil
	}
	return cursor, true, nil
}

// Save persists the cursor. A cursor at or below the stored one is a
// no-op, so concurrent runs can only move the frontier forward.
func (s *FileStore) Save(ctx context.Context, cursor checkpoint.Cursor) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if cursor.LastMatchID <= 0 {
		return fmt.Errorf("checkpoint match id must be greater than zero")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if raw, err := os.ReadFile(s.path); err == nil {
		var current checkpoint.Cursor
		if err := sonic.Unmarshal(raw, &current); err == nil && current.LastMatchID >= cursor.LastMatchID {
			return nil
		}
	}

	if cursor.UpdatedAt.IsZero() {
		cursor.UpdatedAt = s.clock.Now().UTC()
	}
	encoded, err := sonic.Marshal(cursor)
	if err != nil {
		return fmt.Errorf("encode checkpoint: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, encoded, 0o644); err != nil {
		return fmt.Errorf("write checkpoint temp file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace checkpoint file: %w", err)
	}
	return nil
}
