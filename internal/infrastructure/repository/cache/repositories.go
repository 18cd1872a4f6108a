package cache

import (
	"context"
	"strconv"

	"github.com/dotalytics/dota-ingest/internal/domain/hero"
	"github.com/dotalytics/dota-ingest/internal/domain/league"
	"github.com/dotalytics/dota-ingest/internal/domain/team"
	basecache "github.com/dotalytics/dota-ingest/internal/platform/cache"
)

// Read-through caches over the postgres repositories. Ingest writes go
// straight to postgres; these wrap the read side, where the same league,
// team, and hero rows get fetched over and over.

type LeagueRepository struct {
	next  league.Repository
	cache *basecache.Store
}

func NewLeagueRepository(next league.Repository, cache *basecache.Store) *LeagueRepository {
	return &LeagueRepository{next: next, cache: cache}
}

func (r *LeagueRepository) GetByID(ctx context.Context, leagueID int64) (league.League, bool, error) {
	key := "league:id:" + strconv.FormatInt(leagueID, 10)
	v, err := r.cache.GetOrLoad(ctx, key, func(ctx context.Context) (any, error) {
		item, exists, err := r.next.GetByID(ctx, leagueID)
		if err != nil {
			return nil, err
		}
		return cachedLeagueByID{value: item, exists: exists}, nil
	})
	if err != nil {
		return league.League{}, false, err
	}

	cached, _ := v.(cachedLeagueByID)
	return cached.value, cached.exists, nil
}

func (r *LeagueRepository) List(ctx context.Context, limit int) ([]league.League, error) {
	key := "league:list:" + strconv.Itoa(limit)
	v, err := r.cache.GetOrLoad(ctx, key, func(ctx context.Context) (any, error) {
		items, err := r.next.List(ctx, limit)
		if err != nil {
			return nil, err
		}
		return append([]league.League(nil), items...), nil
	})
	if err != nil {
		return nil, err
	}

	items, _ := v.([]league.League)
	return append([]league.League(nil), items...), nil
}

type cachedLeagueByID struct {
	value  league.League
	exists bool
}

type TeamRepository struct {
	next  team.Repository
	cache *basecache.Store
}

func NewTeamRepository(next team.Repository, cache *basecache.Store) *TeamRepository {
	return &TeamRepository{next: next, cache: cache}
}

func (r *TeamRepository) GetByID(ctx context.Context, teamID int64) (team.Team, bool, error) {
	key := "team:id:" + strconv.FormatInt(teamID, 10)
	v, err := r.cache.GetOrLoad(ctx, key, func(ctx context.Context) (any, error) {
		item, exists, err := r.next.GetByID(ctx, teamID)
		if err != nil {
			return nil, err
		}
		return cachedTeamByID{value: item, exists: exists}, nil
	})
	if err != nil {
		return team.Team{}, false, err
	}

	cached, _ := v.(cachedTeamByID)
	return cached.value, cached.exists, nil
}

func (r *TeamRepository) GetStats(ctx context.Context, teamID int64) (team.Stats, error) {
	key := "team:stats:" + strconv.FormatInt(teamID, 10)
	v, err := r.cache.GetOrLoad(ctx, key, func(ctx context.Context) (any, error) {
		return r.next.GetStats(ctx, teamID)
	})
	if err != nil {
		return team.Stats{}, err
	}

	stats, _ := v.(team.Stats)
	return stats, nil
}

type cachedTeamByID struct {
	value  team.Team
	exists bool
}

type HeroRepository struct {
	next  hero.Repository
	cache *basecache.Store
}

func NewHeroRepository(next hero.Repository, cache *basecache.Store) *HeroRepository {
	return &HeroRepository{next: next, cache: cache}
}

func (r *HeroRepository) Upsert(ctx context.Context, items []hero.Hero) error {
	if err := r.next.Upsert(ctx, items); err != nil {
		return err
	}
	r.cache.DeletePrefix(ctx, "hero:")
	return nil
}

func (r *HeroRepository) List(ctx context.Context) ([]hero.Hero, error) {
	v, err := r.cache.GetOrLoad(ctx, "hero:list", func(ctx context.Context) (any, error) {
		items, err := r.next.List(ctx)
		if err != nil {
			return nil, err
		}
		return append([]hero.Hero(nil), items...), nil
	})
	if err != nil {
		return nil, err
	}

	items, _ := v.([]hero.Hero)
	return append([]hero.Hero(nil), items...), nil
}
