package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dotalytics/dota-ingest/internal/infrastructure/repository/memory"
)

type stubMatchProvider struct {
	proMatches  func(ctx context.Context, limit int, lessThan int64) ([]ExternalMatchSummary, error)
	matchDetail func(ctx context.Context, matchID int64) (ExternalMatchDetail, error)
	teamMatches func(ctx context.Context, teamID int64) ([]ExternalMatchSummary, error)
	team        func(ctx context.Context, teamID int64) (ExternalTeam, error)
	leagues     func(ctx context.Context) ([]ExternalLeague, error)
	heroes      func(ctx context.Context) ([]ExternalHero, error)
}

func (s stubMatchProvider) FetchProMatches(ctx context.Context, limit int, lessThan int64) ([]ExternalMatchSummary, error) {
	if s.proMatches == nil {
		return nil, nil
	}
	return s.proMatches(ctx, limit, lessThan)
}

func (s stubMatchProvider) FetchMatchDetail(ctx context.Context, matchID int64) (ExternalMatchDetail, error) {
	if s.matchDetail == nil {
		return ExternalMatchDetail{}, errors.New("no match detail stub")
	}
	return s.matchDetail(ctx, matchID)
}

func (s stubMatchProvider) FetchTeamMatches(ctx context.Context, teamID int64) ([]ExternalMatchSummary, error) {
	if s.teamMatches == nil {
		return nil, nil
	}
	return s.teamMatches(ctx, teamID)
}

func (s stubMatchProvider) FetchTeam(ctx context.Context, teamID int64) (ExternalTeam, error) {
	if s.team == nil {
		return ExternalTeam{}, nil
	}
	return s.team(ctx, teamID)
}

func (s stubMatchProvider) FetchLeagues(ctx context.Context) ([]ExternalLeague, error) {
	if s.leagues == nil {
		return nil, nil
	}
	return s.leagues(ctx)
}

func (s stubMatchProvider) FetchHeroes(ctx context.Context) ([]ExternalHero, error) {
	if s.heroes == nil {
		return nil, nil
	}
	return s.heroes(ctx)
}

// summariesDescending returns listing rows newest first, the upstream
// listing order.
func summariesDescending(ids ...int64) []ExternalMatchSummary {
	out := make([]ExternalMatchSummary, 0, len(ids))
	for _, id := range ids {
		out = append(out, ExternalMatchSummary{MatchID: id, StartTime: id})
	}
	return out
}

func TestDiscoveryService_MostRecentStopsAtCheckpoint(t *testing.T) {
	t.Parallel()

	checkpoints := memory.NewCheckpointStore()
	checkpoints.Seed(500)

	pages := 0
	provider := stubMatchProvider{
		proMatches: func(_ context.Context, _ int, lessThan int64) ([]ExternalMatchSummary, error) {
			pages++
			switch lessThan {
			case 0:
				return summariesDescending(800, 700, 600), nil
			case 600:
				return summariesDescending(550, 500, 450), nil
			default:
				t.Fatalf("unexpected pagination cursor %d", lessThan)
				return nil, nil
			}
		},
	}

	svc := NewDiscoveryService(provider, checkpoints, nil)
	ids, err := svc.Discover(context.Background(), DiscoverInput{
		MostRecent: &MostRecentStrategy{Limit: 50, UseCheckpoint: true},
	})
	if err != nil {
		t.Fatalf("Discover error: %v", err)
	}

	want := []int64{550, 600, 700, 800}
	if len(ids) != len(want) {
		t.Fatalf("ids = %v, want %v", ids, want)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("ids = %v, want %v", ids, want)
		}
	}
	if pages != 2 {
		t.Fatalf("expected paging to stop at the checkpoint after 2 pages, got=%d", pages)
	}
}

func TestDiscoveryService_MostRecentHonorsLimit(t *testing.T) {
	t.Parallel()

	provider := stubMatchProvider{
		proMatches: func(_ context.Context, _ int, lessThan int64) ([]ExternalMatchSummary, error) {
			if lessThan != 0 {
				return nil, nil
			}
			return summariesDescending(900, 800, 700, 600), nil
		},
	}

	svc := NewDiscoveryService(provider, memory.NewCheckpointStore(), nil)
	ids, err := svc.Discover(context.Background(), DiscoverInput{
		MostRecent: &MostRecentStrategy{Limit: 2},
	})
	if err != nil {
		t.Fatalf("Discover error: %v", err)
	}
	if len(ids) != 2 {
		t.Fatalf("expected 2 ids, got %v", ids)
	}
}

func TestDiscoveryService_MergesAndDeduplicates(t *testing.T) {
	t.Parallel()

	provider := stubMatchProvider{
		proMatches: func(_ context.Context, _ int, lessThan int64) ([]ExternalMatchSummary, error) {
			if lessThan != 0 {
				return nil, nil
			}
			return summariesDescending(300, 200, 100), nil
		},
		teamMatches: func(_ context.Context, _ int64) ([]ExternalMatchSummary, error) {
			return summariesDescending(400, 200), nil
		},
	}

	svc := NewDiscoveryService(provider, memory.NewCheckpointStore(), nil)
	ids, err := svc.Discover(context.Background(), DiscoverInput{
		MostRecent: &MostRecentStrategy{Limit: 10},
		ByTeam:     &ByTeamStrategy{TeamID: 39},
	})
	if err != nil {
		t.Fatalf("Discover error: %v", err)
	}

	want := []int64{100, 200, 300, 400}
	if len(ids) != len(want) {
		t.Fatalf("ids = %v, want %v", ids, want)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("ids = %v, want ascending deduplicated %v", ids, want)
		}
	}
}

func TestDiscoveryService_ToleratesOneFailingStrategy(t *testing.T) {
	t.Parallel()

	provider := stubMatchProvider{
		proMatches: func(_ context.Context, _ int, lessThan int64) ([]ExternalMatchSummary, error) {
			if lessThan != 0 {
				return nil, nil
			}
			return summariesDescending(300, 200), nil
		},
		teamMatches: func(_ context.Context, _ int64) ([]ExternalMatchSummary, error) {
			return nil, errors.New("team listing down")
		},
	}

	svc := NewDiscoveryService(provider, memory.NewCheckpointStore(), nil)
	ids, err := svc.Discover(context.Background(), DiscoverInput{
		MostRecent: &MostRecentStrategy{Limit: 10},
		ByTeam:     &ByTeamStrategy{TeamID: 39},
	})
	if err != nil {
		t.Fatalf("Discover error: %v", err)
	}
	if len(ids) != 2 {
		t.Fatalf("expected surviving strategy results, got %v", ids)
	}
}

func TestDiscoveryService_AllStrategiesFailing(t *testing.T) {
	t.Parallel()

	provider := stubMatchProvider{
		proMatches: func(_ context.Context, _ int, _ int64) ([]ExternalMatchSummary, error) {
			return nil, errors.New("listing down")
		},
		teamMatches: func(_ context.Context, _ int64) ([]ExternalMatchSummary, error) {
			return nil, errors.New("team listing down")
		},
	}

	svc := NewDiscoveryService(provider, memory.NewCheckpointStore(), nil)
	_, err := svc.Discover(context.Background(), DiscoverInput{
		MostRecent: &MostRecentStrategy{Limit: 10},
		ByTeam:     &ByTeamStrategy{TeamID: 39},
	})
	if !errors.Is(err, ErrDependencyUnavailable) {
		t.Fatalf("expected ErrDependencyUnavailable, got: %v", err)
	}
}

func TestDiscoveryService_NoStrategy(t *testing.T) {
	t.Parallel()

	svc := NewDiscoveryService(stubMatchProvider{}, memory.NewCheckpointStore(), nil)
	_, err := svc.Discover(context.Background(), DiscoverInput{})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got: %v", err)
	}
}

func TestDiscoveryService_DateRangeTierFilter(t *testing.T) {
	t.Parallel()

	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	inWindow := base.Add(12 * time.Hour).Unix()
	beforeWindow := base.Add(-time.Hour).Unix()

	provider := stubMatchProvider{
		proMatches: func(_ context.Context, _ int, lessThan int64) ([]ExternalMatchSummary, error) {
			if lessThan != 0 {
				return nil, nil
			}
			return []ExternalMatchSummary{
				{MatchID: 900, StartTime: inWindow, LeagueID: 1},
				{MatchID: 800, StartTime: inWindow, LeagueID: 2},
				{MatchID: 700, StartTime: inWindow, LeagueID: 3},
				{MatchID: 600, StartTime: beforeWindow, LeagueID: 1},
			}, nil
		},
		leagues: func(_ context.Context) ([]ExternalLeague, error) {
			return []ExternalLeague{
				{LeagueID: 1, Tier: "premium"},
				{LeagueID: 2, Tier: "amateur"},
			}, nil
		},
	}

	svc := NewDiscoveryService(provider, memory.NewCheckpointStore(), nil)
	ids, err := svc.Discover(context.Background(), DiscoverInput{
		DateRange: &DateRangeStrategy{
			Start:         base,
			End:           base.Add(24 * time.Hour),
			MinLeagueTier: "professional",
		},
	})
	if err != nil {
		t.Fatalf("Discover error: %v", err)
	}

	// League 2 is below the tier floor and league 3 has no known tier.
	if len(ids) != 1 || ids[0] != 900 {
		t.Fatalf("ids = %v, want [900]", ids)
	}
}

func TestDiscoveryService_DateRangeValidation(t *testing.T) {
	t.Parallel()

	svc := NewDiscoveryService(stubMatchProvider{}, memory.NewCheckpointStore(), nil)
	_, err := svc.Discover(context.Background(), DiscoverInput{
		DateRange: &DateRangeStrategy{
			Start: time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
			End:   time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		},
	})
	if !errors.Is(err, ErrDependencyUnavailable) {
		t.Fatalf("expected the sole strategy failure to surface, got: %v", err)
	}
}
