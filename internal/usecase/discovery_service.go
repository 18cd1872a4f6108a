package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/sourcegraph/conc"

	"github.com/dotalytics/dota-ingest/internal/domain/checkpoint"
	"github.com/dotalytics/dota-ingest/internal/platform/logging"
)

const (
	discoveryPageSize = 100
	discoveryMaxPages = 50
)

// Tier ranks order league quality so a minimum-tier filter can compare
// upstream tier labels.
var leagueTierRank = map[string]int{
	"premium":      3,
	"professional": 2,
	"minor":        1,
	"amateur":      0,
}

type MostRecentStrategy struct {
	Limit         int
	UseCheckpoint bool
}

type DateRangeStrategy struct {
	Start         time.Time
	End           time.Time
	MinLeagueTier string
}

type ByTeamStrategy struct {
	TeamID int64
}

// DiscoverInput selects which discovery strategies run. Strategies run
// concurrently and results are merged and de-duplicated by match id.
type DiscoverInput struct {
	MostRecent *MostRecentStrategy
	DateRange  *DateRangeStrategy
	ByTeam     *ByTeamStrategy
}

type DiscoveryService struct {
	provider    MatchProvider
	checkpoints checkpoint.Store
	logger      *logging.Logger
}

func NewDiscoveryService(provider MatchProvider, checkpoints checkpoint.Store, logger *logging.Logger) *DiscoveryService {
	if logger == nil {
		logger = logging.Default()
	}
	return &DiscoveryService{
		provider:    provider,
		checkpoints: checkpoints,
		logger:      logger,
	}
}

// Discover returns candidate match ids in ascending order. A single
// failing strategy is tolerated as long as another one produced ids.
func (s *DiscoveryService) Discover(ctx context.Context, input DiscoverInput) ([]int64, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.DiscoveryService.Discover")
	defer span.End()

	if s.provider == nil {
		return nil, fmt.Errorf("%w: match provider is not configured", ErrDependencyUnavailable)
	}

	type strategyRun struct {
		name string
		fn   func(context.Context) ([]int64, error)
	}

	runs := make([]strategyRun, 0, 3)
	if input.MostRecent != nil {
		strategy := *input.MostRecent
		runs = append(runs, strategyRun{name: "most_recent", fn: func(ctx context.Context) ([]int64, error) {
			return s.discoverMostRecent(ctx, strategy)
		}})
	}
	if input.DateRange != nil {
		strategy := *input.DateRange
		runs = append(runs, strategyRun{name: "date_range", fn: func(ctx context.Context) ([]int64, error) {
			return s.discoverDateRange(ctx, strategy)
		}})
	}
	if input.ByTeam != nil {
		strategy := *input.ByTeam
		runs = append(runs, strategyRun{name: "by_team", fn: func(ctx context.Context) ([]int64, error) {
			return s.discoverByTeam(ctx, strategy)
		}})
	}
	if len(runs) == 0 {
		return nil, fmt.Errorf("%w: at least one discovery strategy is required", ErrInvalidInput)
	}

	var mu sync.Mutex
	merged := make(map[int64]struct{}, discoveryPageSize)
	failures := make([]string, 0, len(runs))

	var wg conc.WaitGroup
	for _, run := range runs {
		run := run
		wg.Go(func() {
			ids, err := run.fn(ctx)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failures = append(failures, fmt.Sprintf("%s: %v", run.name, err))
				s.logger.WarnContext(ctx, "discovery strategy failed", "strategy", run.name, "error", err)
				return
			}
			for _, id := range ids {
				if id > 0 {
					merged[id] = struct{}{}
				}
			}
		})
	}
	wg.Wait()

	if len(failures) == len(runs) {
		return nil, fmt.Errorf("%w: all discovery strategies failed: %s", ErrDependencyUnavailable, strings.Join(failures, "; "))
	}

	out := make([]int64, 0, len(merged))
	for id := range merged {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

func (s *DiscoveryService) discoverMostRecent(ctx context.Context, strategy MostRecentStrategy) ([]int64, error) {
	limit := strategy.Limit
	if limit <= 0 {
		limit = discoveryPageSize
	}

	var floor int64
	if strategy.UseCheckpoint && s.checkpoints != nil {
		cursor, found, err := s.checkpoints.Load(ctx)
		if err != nil {
			return nil, fmt.Errorf("load checkpoint: %w", err)
		}
		if found {
			floor = cursor.LastMatchID
		}
	}

	out := make([]int64, 0, limit)
	var lessThan int64
	for page := 0; page < discoveryMaxPages && len(out) < limit; page++ {
		rows, err := s.provider.FetchProMatches(ctx, discoveryPageSize, lessThan)
		if err != nil {
			return nil, fmt.Errorf("fetch pro matches page=%d: %w", page, err)
		}
		if len(rows) == 0 {
			break
		}

		reachedFloor := false
		for _, row := range rows {
			if row.MatchID <= floor {
				reachedFloor = true
				break
			}
			if len(out) < limit {
				out = append(out, row.MatchID)
			}
			if lessThan == 0 || row.MatchID < lessThan {
				lessThan = row.MatchID
			}
		}
		if reachedFloor {
			break
		}
	}
	return out, nil
}

func (s *DiscoveryService) discoverDateRange(ctx context.Context, strategy DateRangeStrategy) ([]int64, error) {
	if strategy.Start.IsZero() || strategy.End.IsZero() || strategy.End.Before(strategy.Start) {
		return nil, fmt.Errorf("%w: date range bounds are required and must be ordered", ErrInvalidInput)
	}

	minRank, err := resolveTierRank(strategy.MinLeagueTier)
	if err != nil {
		return nil, err
	}

	tierByLeague, err := s.loadLeagueTiers(ctx, minRank)
	if err != nil {
		return nil, err
	}

	start := strategy.Start.Unix()
	end := strategy.End.Unix()

	out := make([]int64, 0, discoveryPageSize)
	var lessThan int64
	for page := 0; page < discoveryMaxPages; page++ {
		rows, err := s.provider.FetchProMatches(ctx, discoveryPageSize, lessThan)
		if err != nil {
			return nil, fmt.Errorf("fetch pro matches page=%d: %w", page, err)
		}
		if len(rows) == 0 {
			break
		}

		pastRange := false
		for _, row := range rows {
			if lessThan == 0 || row.MatchID < lessThan {
				lessThan = row.MatchID
			}
			if row.StartTime < start {
				// Listing is ordered newest first; everything after this
				// row is older than the window.
				pastRange = true
				break
			}
			if row.StartTime > end {
				continue
			}
			if minRank > 0 {
				rank, known := tierByLeague[row.LeagueID]
				if !known || rank < minRank {
					continue
				}
			}
			out = append(out, row.MatchID)
		}
		if pastRange {
			break
		}
	}
	return out, nil
}

func (s *DiscoveryService) discoverByTeam(ctx context.Context, strategy ByTeamStrategy) ([]int64, error) {
	if strategy.TeamID <= 0 {
		return nil, fmt.Errorf("%w: team id must be greater than zero", ErrInvalidInput)
	}

	rows, err := s.provider.FetchTeamMatches(ctx, strategy.TeamID)
	if err != nil {
		return nil, fmt.Errorf("fetch team matches team_id=%d: %w", strategy.TeamID, err)
	}

	out := make([]int64, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.MatchID)
	}
	return out, nil
}

func (s *DiscoveryService) loadLeagueTiers(ctx context.Context, minRank int) (map[int64]int, error) {
	if minRank <= 0 {
		return nil, nil
	}

	leagues, err := s.provider.FetchLeagues(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch leagues for tier filter: %w", err)
	}

	out := make(map[int64]int, len(leagues))
	for _, item := range leagues {
		rank, ok := leagueTierRank[strings.ToLower(strings.TrimSpace(item.Tier))]
		if !ok {
			continue
		}
		out[item.LeagueID] = rank
	}
	return out, nil
}

func resolveTierRank(tier string) (int, error) {
	tier = strings.ToLower(strings.TrimSpace(tier))
	if tier == "" {
		return 0, nil
	}
	rank, ok := leagueTierRank[tier]
	if !ok {
		return 0, fmt.Errorf("%w: unknown league tier %q", ErrInvalidInput, tier)
	}
	return rank, nil
}
