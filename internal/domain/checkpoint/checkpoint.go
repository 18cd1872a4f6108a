package checkpoint

import (
	"context"
	"time"
)

// Cursor marks the highest fully-processed match id.
type Cursor struct {
	LastMatchID int64     `json:"last_match_id"`
	UpdatedAt   time.Time `json:"timestamp"`
}

// Store persists the ingestion cursor. Save must be monotonic: a cursor
// with a smaller match id than the stored one is a silent no-op, so a
// crash mid-run can never move the frontier backwards.
type Store interface {
	Load(ctx context.Context) (Cursor, bool, error)
	Save(ctx context.Context, cursor Cursor) error
}
