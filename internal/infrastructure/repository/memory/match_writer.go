package memory

import (
	"context"
	"sync"

	"github.com/dotalytics/dota-ingest/internal/domain/match"
)

// MatchWriter is an in-memory match.Writer used by tests and local
// runs. FailNext lets callers inject a commit error for a match id; the
// failed commit leaves no partial state behind, matching the
// transactional writer.
type MatchWriter struct {
	mu       sync.RWMutex
	records  map[int64]match.RecordSet
	failNext map[int64]error
	commits  map[int64]int
}

func NewMatchWriter() *MatchWriter {
	return &MatchWriter{
		records:  make(map[int64]match.RecordSet),
		failNext: make(map[int64]error),
		commits:  make(map[int64]int),
	}
}

func (w *MatchWriter) CommitMatch(_ context.Context, records match.RecordSet) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	matchID := records.Match.MatchID
	if err, ok := w.failNext[matchID]; ok {
		delete(w.failNext, matchID)
		return err
	}

	w.records[matchID] = records
	w.commits[matchID]++
	return nil
}

// FailNext makes the next commit for matchID return err, once.
func (w *MatchWriter) FailNext(matchID int64, err error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.failNext[matchID] = err
}

func (w *MatchWriter) Get(matchID int64) (match.RecordSet, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	records, ok := w.records[matchID]
	return records, ok
}

func (w *MatchWriter) CommitCount(matchID int64) int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.commits[matchID]
}

func (w *MatchWriter) Len() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return len(w.records)
}
