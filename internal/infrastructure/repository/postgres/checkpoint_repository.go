package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/dotalytics/dota-ingest/internal/domain/checkpoint"
	qb "github.com/dotalytics/dota-ingest/internal/platform/querybuilder"
)

const checkpointRowID = 1

// CheckpointRepository keeps the ingestion cursor in a single-row
// table. The GREATEST guard makes saves monotonic even when concurrent
// runs race on the same row.
type CheckpointRepository struct {
	db *sqlx.DB
}

func NewCheckpointRepository(db *sqlx.DB) *CheckpointRepository {
	return &CheckpointRepository{db: db}
}

func (r *CheckpointRepository) Load(ctx context.Context) (checkpoint.Cursor, bool, error) {
	query, args, err := qb.Select("*").From("ingest_checkpoints").
		Where(qb.Eq("id", checkpointRowID)).
		ToSQL()
	if err != nil {
		return checkpoint.Cursor{}, false, fmt.Errorf("build select checkpoint query: %w", err)
	}

	var row checkpointTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return checkpoint.Cursor{}, false, nil
		}
		return checkpoint.Cursor{}, false, fmt.Errorf("select checkpoint: %w", err)
	}
	if row.LastMatchID <= 0 {
		return checkpoint.Cursor{}, false, nil
	}

	return checkpoint.Cursor{
		LastMatchID: row.LastMatchID,
		UpdatedAt:   row.UpdatedAt,
	}, true, nil
}

func (r *CheckpointRepository) Save(ctx context.Context, cursor checkpoint.Cursor) error {
	if cursor.LastMatchID <= 0 {
		return fmt.Errorf("checkpoint match id must be greater than zero")
	}

	query := `INSERT INTO ingest_checkpoints (id, last_match_id, updated_at)
VALUES ($1, $2, NOW())
ON CONFLICT (id)
DO UPDATE SET
    last_match_id = GREATEST(ingest_checkpoints.last_match_id, EXCLUDED.last_match_id),
    updated_at = CASE
        WHEN EXCLUDED.last_match_id > ingest_checkpoints.last_match_id THEN NOW()
        ELSE ingest_checkpoints.updated_at
    END`
	if _, err := r.db.ExecContext(ctx, query, checkpointRowID, cursor.LastMatchID); err != nil {
		return fmt.Errorf("upsert checkpoint: %w", err)
	}
	return nil
}
