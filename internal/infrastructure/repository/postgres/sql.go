package postgres

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/dotalytics/dota-ingest/internal/domain/match"
)

func isNotFound(err error) bool {
	return err == sql.ErrNoRows
}

// Serialization failures and deadlocks are safe to retry at the match
// transaction level.
func isSerializationFailure(err error) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}
	return pqErr.Code == "40001" || pqErr.Code == "40P01"
}

func wrapCommitError(err error, format string, args ...any) error {
	wrapped := fmt.Errorf(format+": %w", append(args, err)...)
	if isSerializationFailure(err) {
		return fmt.Errorf("%w: %v", match.ErrConflict, wrapped)
	}
	return wrapped
}
