package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/dotalytics/dota-ingest/internal/domain/match"
	"github.com/dotalytics/dota-ingest/internal/platform/logging"
)

const defaultCommitRetries = 2

// IngestionService drives one match id through fetch, normalize and
// commit. Commit conflicts are retried a bounded number of times; every
// other failure is final for this run.
type IngestionService struct {
	provider      MatchProvider
	normalizer    *Normalizer
	writer        match.Writer
	logger        *logging.Logger
	commitRetries int
}

type IngestOutcome struct {
	MatchID    int64
	Fetched    bool
	Normalized bool
	Committed  bool
}

func NewIngestionService(provider MatchProvider, normalizer *Normalizer, writer match.Writer, logger *logging.Logger) *IngestionService {
	if logger == nil {
		logger = logging.Default()
	}
	return &IngestionService{
		provider:      provider,
		normalizer:    normalizer,
		writer:        writer,
		logger:        logger,
		commitRetries: defaultCommitRetries,
	}
}

func (s *IngestionService) IngestMatch(ctx context.Context, matchID int64) (IngestOutcome, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.IngestionService.IngestMatch")
	defer span.End()

	out := IngestOutcome{MatchID: matchID}
	if matchID <= 0 {
		return out, fmt.Errorf("%w: match id must be greater than zero", ErrInvalidInput)
	}
	if s.provider == nil || s.normalizer == nil || s.writer == nil {
		return out, fmt.Errorf("%w: ingestion service is not fully configured", ErrDependencyUnavailable)
	}

	doc, err := s.provider.FetchMatchDetail(ctx, matchID)
	if err != nil {
		return out, fmt.Errorf("fetch match detail match_id=%d: %w", matchID, err)
	}
	out.Fetched = true

	records, err := s.normalizer.Normalize(ctx, doc)
	if err != nil {
		return out, fmt.Errorf("normalize match_id=%d: %w", matchID, err)
	}
	out.Normalized = true

	s.enrichTeamSkill(ctx, &records)

	for attempt := 0; ; attempt++ {
		err = s.writer.CommitMatch(ctx, records)
		if err == nil {
			out.Committed = true
			return out, nil
		}
		if !errors.Is(err, match.ErrConflict) || attempt >= s.commitRetries {
			return out, fmt.Errorf("commit match_id=%d: %w", matchID, err)
		}
		s.logger.WarnContext(ctx, "retrying match commit after conflict", "match_id", matchID, "attempt", attempt+1)
	}
}

// enrichTeamSkill fills rating, wins and losses from the team detail
// endpoint. The match document carries only identity fields, so a failed
// lookup degrades to those instead of failing the match.
func (s *IngestionService) enrichTeamSkill(ctx context.Context, records *match.RecordSet) {
	for i := range records.Teams {
		ref := &records.Teams[i]
		detail, err := s.provider.FetchTeam(ctx, ref.TeamID)
		if err != nil {
			s.logger.WarnContext(ctx, "team detail lookup failed", "team_id", ref.TeamID, "error", err)
			continue
		}
		if detail.TeamID != ref.TeamID {
			continue
		}
		ref.Rating = detail.Rating
		ref.Wins = detail.Wins
		ref.Losses = detail.Losses
		if detail.Name != "" {
			ref.Name = detail.Name
		}
		if detail.Tag != "" {
			ref.Tag = detail.Tag
		}
		if detail.LogoURL != "" {
			ref.LogoURL = detail.LogoURL
		}
	}
}
