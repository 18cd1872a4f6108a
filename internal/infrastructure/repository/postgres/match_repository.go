package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/dotalytics/dota-ingest/internal/domain/match"
	qb "github.com/dotalytics/dota-ingest/internal/platform/querybuilder"
)

// MatchRepository is the read side of stored matches.
type MatchRepository struct {
	db *sqlx.DB
}

func NewMatchRepository(db *sqlx.DB) *MatchRepository {
	return &MatchRepository{db: db}
}

func (r *MatchRepository) GetByID(ctx context.Context, matchID int64) (match.Match, []match.PlayerMetric, error) {
	query, args, err := qb.Select("*").From("matches").
		Where(qb.Eq("match_id", matchID)).
		ToSQL()
	if err != nil {
		return match.Match{}, nil, fmt.Errorf("build select match query: %w", err)
	}

	var row matchTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return match.Match{}, nil, fmt.Errorf("match match_id=%d not found", matchID)
		}
		return match.Match{}, nil, fmt.Errorf("select match match_id=%d: %w", matchID, err)
	}

	metricsQuery, metricsArgs, err := qb.Select("*").From("match_player_metrics").
		Where(qb.Eq("match_id", matchID)).
		OrderBy("player_slot").
		ToSQL()
	if err != nil {
		return match.Match{}, nil, fmt.Errorf("build select match metrics query: %w", err)
	}

	var metricRows []playerMetricTableModel
	if err := r.db.SelectContext(ctx, &metricRows, metricsQuery, metricsArgs...); err != nil {
		return match.Match{}, nil, fmt.Errorf("select match metrics match_id=%d: %w", matchID, err)
	}

	metrics := make([]match.PlayerMetric, 0, len(metricRows))
	for _, metricRow := range metricRows {
		metrics = append(metrics, mapPlayerMetricRow(metricRow))
	}
	return mapMatchRow(row), metrics, nil
}

func (r *MatchRepository) ListByLeague(ctx context.Context, leagueID int64, limit int) ([]match.Match, error) {
	builder := qb.Select("*").From("matches").
		Where(qb.Eq("league_id", leagueID)).
		OrderBy("start_time DESC", "match_id DESC")
	if limit > 0 {
		builder = builder.Limit(limit)
	}
	return r.listMatches(ctx, builder, fmt.Sprintf("league_id=%d", leagueID))
}

func (r *MatchRepository) ListByTeam(ctx context.Context, teamID int64, limit int) ([]match.Match, error) {
	builder := qb.Select("*").From("matches").
		Where(qb.Expr("(radiant_team_id = ? OR dire_team_id = ?)", teamID, teamID)).
		OrderBy("start_time DESC", "match_id DESC")
	if limit > 0 {
		builder = builder.Limit(limit)
	}
	return r.listMatches(ctx, builder, fmt.Sprintf("team_id=%d", teamID))
}

func (r *MatchRepository) ListByDateRange(ctx context.Context, start, end time.Time, limit int) ([]match.Match, error) {
	builder := qb.Select("*").From("matches").
		Where(
			qb.Expr("start_time >= ?", start),
			qb.Expr("start_time <= ?", end),
		).
		OrderBy("start_time", "match_id")
	if limit > 0 {
		builder = builder.Limit(limit)
	}
	return r.listMatches(ctx, builder, fmt.Sprintf("range=%s..%s", start.Format(time.RFC3339), end.Format(time.RFC3339)))
}

func (r *MatchRepository) listMatches(ctx context.Context, builder *qb.SelectBuilder, scope string) ([]match.Match, error) {
	query, args, err := builder.ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list matches query %s: %w", scope, err)
	}

	var rows []matchTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list matches %s: %w", scope, err)
	}

	out := make([]match.Match, 0, len(rows))
	for _, row := range rows {
		out = append(out, mapMatchRow(row))
	}
	return out, nil
}

func mapMatchRow(row matchTableModel) match.Match {
	return match.Match{
		MatchID:       row.MatchID,
		LeagueID:      row.LeagueID,
		RadiantTeamID: row.RadiantTeamID,
		DireTeamID:    row.DireTeamID,
		StartTime:     row.StartTime,
		Duration:      row.Duration,
		RadiantScore:  row.RadiantScore,
		DireScore:     row.DireScore,
		RadiantWin:    row.RadiantWin,
		SeriesID:      row.SeriesID,
		SeriesType:    row.SeriesType,
		GameVersion:   row.GameVersion,
		Patch:         row.Patch,
		Region:        row.Region,
	}
}

func mapPlayerMetricRow(row playerMetricTableModel) match.PlayerMetric {
	return match.PlayerMetric{
		MatchID:             row.MatchID,
		AccountID:           row.AccountID,
		HeroID:              row.HeroID,
		PlayerSlot:          row.PlayerSlot,
		IsRadiant:           row.IsRadiant,
		Win:                 row.Win,
		Kills:               row.Kills,
		Deaths:              row.Deaths,
		Assists:             row.Assists,
		LastHits:            row.LastHits,
		Denies:              row.Denies,
		GoldPerMin:          row.GoldPerMin,
		XPPerMin:            row.XPPerMin,
		Level:               row.Level,
		NetWorth:            row.NetWorth,
		HeroDamage:          row.HeroDamage,
		TowerDamage:         row.TowerDamage,
		HeroHealing:         row.HeroHealing,
		ObsPlaced:           row.ObsPlaced,
		SenPlaced:           row.SenPlaced,
		Stuns:               row.Stuns,
		TeamfightPart:       row.TeamfightPart,
		Lane:                row.Lane,
		LaneRole:            row.LaneRole,
		BenchGoldPerMinPct:  row.BenchGoldPerMinPct,
		BenchXPPerMinPct:    row.BenchXPPerMinPct,
		BenchKillsPerMinPct: row.BenchKillsPerMinPct,
		BenchLastHitsPct:    row.BenchLastHitsPct,
		BenchHeroDamagePct:  row.BenchHeroDamagePct,
		BenchHeroHealingPct: row.BenchHeroHealingPct,
		BenchTowerDamagePct: row.BenchTowerDamagePct,
	}
}
