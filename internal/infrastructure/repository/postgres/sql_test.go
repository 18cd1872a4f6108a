package postgres

import (
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/lib/pq"

	"github.com/dotalytics/dota-ingest/internal/domain/match"
)

func TestIsNotFound(t *testing.T) {
	if !isNotFound(sql.ErrNoRows) {
		t.Fatal("expected true for sql.ErrNoRows")
	}
	if isNotFound(errors.New("boom")) {
		t.Fatal("expected false for unrelated error")
	}
}

func TestIsSerializationFailure(t *testing.T) {
	t.Run("matches serialization failure", func(t *testing.T) {
		err := &pq.Error{Code: "40001", Message: "could not serialize access"}
		if !isSerializationFailure(err) {
			t.Fatal("expected true for code 40001")
		}
	})

	t.Run("matches deadlock", func(t *testing.T) {
		err := fmt.Errorf("commit match: %w", &pq.Error{Code: "40P01"})
		if !isSerializationFailure(err) {
			t.Fatal("expected true for wrapped code 40P01")
		}
	})

	t.Run("ignores other pq errors", func(t *testing.T) {
		err := &pq.Error{Code: "23505", Message: "duplicate key"}
		if isSerializationFailure(err) {
			t.Fatal("expected false for unique violation")
		}
	})

	t.Run("ignores non-pq errors", func(t *testing.T) {
		if isSerializationFailure(errors.New("boom")) {
			t.Fatal("expected false for plain error")
		}
	})
}

func TestWrapCommitError(t *testing.T) {
	t.Run("marks serialization failures as conflicts", func(t *testing.T) {
		cause := &pq.Error{Code: "40001"}
		err := wrapCommitError(cause, "insert match match_id=%d", int64(7001))
		if !errors.Is(err, match.ErrConflict) {
			t.Fatalf("expected match.ErrConflict, got: %v", err)
		}
	})

	t.Run("keeps other errors plain", func(t *testing.T) {
		cause := errors.New("connection reset")
		err := wrapCommitError(cause, "insert match match_id=%d", int64(7001))
		if errors.Is(err, match.ErrConflict) {
			t.Fatalf("unexpected conflict classification: %v", err)
		}
		if !errors.Is(err, cause) {
			t.Fatalf("cause not wrapped: %v", err)
		}
	})
}
