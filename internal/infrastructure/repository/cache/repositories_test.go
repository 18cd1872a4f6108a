package cache

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dotalytics/dota-ingest/internal/domain/hero"
	"github.com/dotalytics/dota-ingest/internal/domain/league"
	"github.com/dotalytics/dota-ingest/internal/domain/team"
	basecache "github.com/dotalytics/dota-ingest/internal/platform/cache"
)

type stubLeagueRepo struct {
	calls   atomic.Int32
	getByID func(ctx context.Context, leagueID int64) (league.League, bool, error)
	list    func(ctx context.Context, limit int) ([]league.League, error)
}

func (s *stubLeagueRepo) GetByID(ctx context.Context, leagueID int64) (league.League, bool, error) {
	s.calls.Add(1)
	return s.getByID(ctx, leagueID)
}

func (s *stubLeagueRepo) List(ctx context.Context, limit int) ([]league.League, error) {
	s.calls.Add(1)
	return s.list(ctx, limit)
}

type stubTeamRepo struct {
	calls    atomic.Int32
	getByID  func(ctx context.Context, teamID int64) (team.Team, bool, error)
	getStats func(ctx context.Context, teamID int64) (team.Stats, error)
}

func (s *stubTeamRepo) GetByID(ctx context.Context, teamID int64) (team.Team, bool, error) {
	s.calls.Add(1)
	return s.getByID(ctx, teamID)
}

func (s *stubTeamRepo) GetStats(ctx context.Context, teamID int64) (team.Stats, error) {
	s.calls.Add(1)
	return s.getStats(ctx, teamID)
}

type stubHeroRepo struct {
	listCalls atomic.Int32
	heroes    []hero.Hero
}

func (s *stubHeroRepo) Upsert(_ context.Context, items []hero.Hero) error {
	s.heroes = append([]hero.Hero(nil), items...)
	return nil
}

func (s *stubHeroRepo) List(context.Context) ([]hero.Hero, error) {
	s.listCalls.Add(1)
	return append([]hero.Hero(nil), s.heroes...), nil
}

func TestLeagueRepository_GetByIDIsCached(t *testing.T) {
	t.Parallel()

	next := &stubLeagueRepo{
		getByID: func(_ context.Context, leagueID int64) (league.League, bool, error) {
			return league.League{LeagueID: leagueID, Name: "The International"}, true, nil
		},
	}
	repo := NewLeagueRepository(next, basecache.NewStore(time.Minute))
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		item, found, err := repo.GetByID(ctx, 15728)
		if err != nil {
			t.Fatalf("GetByID error: %v", err)
		}
		if !found || item.Name != "The International" {
			t.Fatalf("unexpected result: found=%v item=%+v", found, item)
		}
	}

	if got := next.calls.Load(); got != 1 {
		t.Fatalf("backing repository hit %d times, want 1", got)
	}
}

func TestLeagueRepository_ListKeyedByLimit(t *testing.T) {
	t.Parallel()

	next := &stubLeagueRepo{
		list: func(_ context.Context, limit int) ([]league.League, error) {
			items := make([]league.League, 0, limit)
			for i := 0; i < limit; i++ {
				items = append(items, league.League{LeagueID: int64(i + 1)})
			}
			return items, nil
		},
	}
	repo := NewLeagueRepository(next, basecache.NewStore(time.Minute))
	ctx := context.Background()

	if items, err := repo.List(ctx, 2); err != nil || len(items) != 2 {
		t.Fatalf("List(2) = %d items, err=%v", len(items), err)
	}
	if items, err := repo.List(ctx, 5); err != nil || len(items) != 5 {
		t.Fatalf("List(5) = %d items, err=%v", len(items), err)
	}
	if got := next.calls.Load(); got != 2 {
		t.Fatalf("backing repository hit %d times, want 2", got)
	}
}

func TestTeamRepository_StatsAreCached(t *testing.T) {
	t.Parallel()

	next := &stubTeamRepo{
		getStats: func(_ context.Context, teamID int64) (team.Stats, error) {
			return team.Stats{TeamID: teamID, MatchCount: 12, Wins: 8}, nil
		},
	}
	repo := NewTeamRepository(next, basecache.NewStore(time.Minute))
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		stats, err := repo.GetStats(ctx, 11)
		if err != nil {
			t.Fatalf("GetStats error: %v", err)
		}
		if stats.MatchCount != 12 || stats.Wins != 8 {
			t.Fatalf("unexpected stats: %+v", stats)
		}
	}

	if got := next.calls.Load(); got != 1 {
		t.Fatalf("backing repository hit %d times, want 1", got)
	}
}

func TestHeroRepository_UpsertInvalidatesList(t *testing.T) {
	t.Parallel()

	next := &stubHeroRepo{}
	repo := NewHeroRepository(next, basecache.NewStore(time.Minute))
	ctx := context.Background()

	if err := repo.Upsert(ctx, []hero.Hero{{HeroID: 1, Name: "npc_dota_hero_antimage"}}); err != nil {
		t.Fatalf("Upsert error: %v", err)
	}
	if items, err := repo.List(ctx); err != nil || len(items) != 1 {
		t.Fatalf("List = %d items, err=%v", len(items), err)
	}
	if _, err := repo.List(ctx); err != nil {
		t.Fatalf("List error: %v", err)
	}
	if got := next.listCalls.Load(); got != 1 {
		t.Fatalf("backing list hit %d times before invalidation, want 1", got)
	}

	if err := repo.Upsert(ctx, []hero.Hero{
		{HeroID: 1, Name: "npc_dota_hero_antimage"},
		{HeroID: 2, Name: "npc_dota_hero_axe"},
	}); err != nil {
		t.Fatalf("Upsert error: %v", err)
	}
	items, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("stale list after upsert: %d items, want 2", len(items))
	}
	if got := next.listCalls.Load(); got != 2 {
		t.Fatalf("backing list hit %d times, want 2", got)
	}
}
