package match

import (
	"context"
	"errors"
	"time"
)

// ErrConflict marks a commit that lost a storage-level race (serialization
// failure, deadlock). Callers may retry the whole match transaction.
var ErrConflict = errors.New("match commit conflict")

// Writer commits a fully-normalized match. Implementations must be
// idempotent: committing the same RecordSet twice leaves identical state.
type Writer interface {
	CommitMatch(ctx context.Context, records RecordSet) error
}

// Reader exposes the read side of stored matches.
type Reader interface {
	GetByID(ctx context.Context, matchID int64) (Match, []PlayerMetric, error)
	ListByLeague(ctx context.Context, leagueID int64, limit int) ([]Match, error)
	ListByTeam(ctx context.Context, teamID int64, limit int) ([]Match, error)
	ListByDateRange(ctx context.Context, start, end time.Time, limit int) ([]Match, error)
}
