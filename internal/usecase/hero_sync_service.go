package usecase

import (
	"context"
	"fmt"

	"github.com/dotalytics/dota-ingest/internal/domain/hero"
	"github.com/dotalytics/dota-ingest/internal/platform/logging"
)

// HeroSyncService refreshes the hero reference table from the upstream
// catalog endpoint.
type HeroSyncService struct {
	provider MatchProvider
	heroes   hero.Repository
	logger   *logging.Logger
}

func NewHeroSyncService(provider MatchProvider, heroes hero.Repository, logger *logging.Logger) *HeroSyncService {
	if logger == nil {
		logger = logging.Default()
	}
	return &HeroSyncService{
		provider: provider,
		heroes:   heroes,
		logger:   logger,
	}
}

func (s *HeroSyncService) Sync(ctx context.Context) (int, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.HeroSyncService.Sync")
	defer span.End()

	if s.provider == nil || s.heroes == nil {
		return 0, fmt.Errorf("%w: hero sync is not fully configured", ErrDependencyUnavailable)
	}

	items, err := s.provider.FetchHeroes(ctx)
	if err != nil {
		return 0, fmt.Errorf("fetch hero catalog: %w", err)
	}

	mapped := make([]hero.Hero, 0, len(items))
	for _, item := range items {
		row := hero.Hero{
			HeroID:        item.HeroID,
			Name:          item.Name,
			LocalizedName: item.LocalizedName,
			PrimaryAttr:   item.PrimaryAttr,
			AttackType:    item.AttackType,
			Roles:         item.Roles,
		}
		if err := row.Validate(); err != nil {
			s.logger.WarnContext(ctx, "skip invalid hero row", "hero_id", item.HeroID, "error", err)
			continue
		}
		mapped = append(mapped, row)
	}
	if len(mapped) == 0 {
		return 0, nil
	}

	if err := s.heroes.Upsert(ctx, mapped); err != nil {
		return 0, fmt.Errorf("upsert heroes: %w", err)
	}
	return len(mapped), nil
}
