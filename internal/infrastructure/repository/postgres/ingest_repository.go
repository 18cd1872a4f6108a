package postgres

import (
	"context"
	"fmt"

	sonic "github.com/bytedance/sonic"
	"github.com/jmoiron/sqlx"

	"github.com/dotalytics/dota-ingest/internal/domain/hero"
	"github.com/dotalytics/dota-ingest/internal/domain/match"
	qb "github.com/dotalytics/dota-ingest/internal/platform/querybuilder"
)

// IngestRepository owns the write side of match ingestion. CommitMatch
// runs as one transaction per match: reference rows are upserted,
// sub-record tables are cleared and reinserted, so replaying a match
// always converges to the same stored state.
type IngestRepository struct {
	db *sqlx.DB
}

func NewIngestRepository(db *sqlx.DB) *IngestRepository {
	return &IngestRepository{db: db}
}

func (r *IngestRepository) CommitMatch(ctx context.Context, records match.RecordSet) error {
	if records.Match.MatchID <= 0 {
		return fmt.Errorf("match id must be greater than zero")
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx commit match: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := upsertLeagueRow(ctx, tx, records); err != nil {
		return err
	}
	if err := upsertTeamRows(ctx, tx, records.Teams); err != nil {
		return err
	}
	if err := upsertPlayerRows(ctx, tx, records.Players); err != nil {
		return err
	}
	if err := upsertHeroRefRows(ctx, tx, records.Heroes); err != nil {
		return err
	}
	if err := upsertMatchRow(ctx, tx, records.Match); err != nil {
		return err
	}
	if err := replaceMatchChildren(ctx, tx, records); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return wrapCommitError(err, "commit match tx match_id=%d", records.Match.MatchID)
	}
	return nil
}

func upsertLeagueRow(ctx context.Context, tx *sqlx.Tx, records match.RecordSet) error {
	if records.LeagueID <= 0 {
		return nil
	}

	model := leagueInsertModel{
		LeagueID: records.LeagueID,
		Name:     records.LeagueName,
		Tier:     records.LeagueTier,
	}
	query, args, err := qb.InsertModel("leagues", model, `ON CONFLICT (league_id)
DO UPDATE SET
    name = EXCLUDED.name,
    tier = EXCLUDED.tier,
    updated_at = NOW()`)
	if err != nil {
		return fmt.Errorf("build upsert league query: %w", err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return wrapCommitError(err, "upsert league league_id=%d", records.LeagueID)
	}
	return nil
}

func upsertTeamRows(ctx context.Context, tx *sqlx.Tx, teams []match.TeamRef) error {
	for _, item := range teams {
		if item.TeamID <= 0 {
			continue
		}
		model := teamInsertModel{
			TeamID:  item.TeamID,
			Name:    item.Name,
			Tag:     item.Tag,
			LogoURL: item.LogoURL,
			Rating:  item.Rating,
			Wins:    item.Wins,
			Losses:  item.Losses,
		}
		// Zero skill fields mean the detail lookup did not run or failed;
		// keep the last stored values in that case.
		query, args, err := qb.InsertModel("teams", model, `ON CONFLICT (team_id)
DO UPDATE SET
    name = EXCLUDED.name,
    tag = EXCLUDED.tag,
    logo_url = EXCLUDED.logo_url,
    rating = CASE WHEN EXCLUDED.rating > 0 THEN EXCLUDED.rating ELSE teams.rating END,
    wins = CASE WHEN EXCLUDED.rating > 0 THEN EXCLUDED.wins ELSE teams.wins END,
    losses = CASE WHEN EXCLUDED.rating > 0 THEN EXCLUDED.losses ELSE teams.losses END,
    updated_at = NOW()`)
		if err != nil {
			return fmt.Errorf("build upsert team query: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return wrapCommitError(err, "upsert team team_id=%d", item.TeamID)
		}
	}
	return nil
}

func upsertPlayerRows(ctx context.Context, tx *sqlx.Tx, players []match.PlayerRef) error {
	for _, item := range players {
		if item.AccountID <= 0 {
			continue
		}
		model := playerInsertModel{
			AccountID:   item.AccountID,
			Name:        item.Name,
			PersonaName: item.PersonaName,
			CountryCode: item.CountryCode,
			TeamID:      item.TeamID,
		}
		query, args, err := qb.InsertModel("players", model, `ON CONFLICT (account_id)
DO UPDATE SET
    name = EXCLUDED.name,
    persona_name = EXCLUDED.persona_name,
    country_code = EXCLUDED.country_code,
    team_id = EXCLUDED.team_id,
    updated_at = NOW()`)
		if err != nil {
			return fmt.Errorf("build upsert player query: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return wrapCommitError(err, "upsert player account_id=%d", item.AccountID)
		}
	}
	return nil
}

// Hero refs carry only the id; rows are synthesized on first sight and
// never overwrite names delivered by the catalog sync.
func upsertHeroRefRows(ctx context.Context, tx *sqlx.Tx, heroes []match.HeroRef) error {
	for _, item := range heroes {
		if item.HeroID <= 0 {
			continue
		}
		row := hero.Synthesize(item.HeroID)
		rolesJSON, err := sonic.MarshalString(row.Roles)
		if err != nil {
			return fmt.Errorf("encode hero roles hero_id=%d: %w", item.HeroID, err)
		}
		model := heroInsertModel{
			HeroID:        row.HeroID,
			Name:          row.Name,
			LocalizedName: row.LocalizedName,
			PrimaryAttr:   row.PrimaryAttr,
			AttackType:    row.AttackType,
			RolesJSON:     rolesJSON,
		}
		query, args, err := qb.InsertModel("heroes", model, "ON CONFLICT (hero_id) DO NOTHING")
		if err != nil {
			return fmt.Errorf("build upsert hero query: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return wrapCommitError(err, "upsert hero hero_id=%d", item.HeroID)
		}
	}
	return nil
}

func upsertMatchRow(ctx context.Context, tx *sqlx.Tx, item match.Match) error {
	model := matchInsertModel{
		MatchID:       item.MatchID,
		LeagueID:      item.LeagueID,
		RadiantTeamID: item.RadiantTeamID,
		DireTeamID:    item.DireTeamID,
		StartTime:     item.StartTime,
		Duration:      item.Duration,
		RadiantScore:  item.RadiantScore,
		DireScore:     item.DireScore,
		RadiantWin:    item.RadiantWin,
		SeriesID:      item.SeriesID,
		SeriesType:    item.SeriesType,
		GameVersion:   item.GameVersion,
		Patch:         item.Patch,
		Region:        item.Region,
	}
	query, args, err := qb.InsertModel("matches", model, `ON CONFLICT (match_id)
DO UPDATE SET
    league_id = EXCLUDED.league_id,
    radiant_team_id = EXCLUDED.radiant_team_id,
    dire_team_id = EXCLUDED.dire_team_id,
    start_time = EXCLUDED.start_time,
    duration = EXCLUDED.duration,
    radiant_score = EXCLUDED.radiant_score,
    dire_score = EXCLUDED.dire_score,
    radiant_win = EXCLUDED.radiant_win,
    series_id = EXCLUDED.series_id,
    series_type = EXCLUDED.series_type,
    game_version = EXCLUDED.game_version,
    patch = EXCLUDED.patch,
    region = EXCLUDED.region,
    updated_at = NOW()`)
	if err != nil {
		return fmt.Errorf("build upsert match query: %w", err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return wrapCommitError(err, "upsert match match_id=%d", item.MatchID)
	}
	return nil
}

var matchChildTables = []string{
	"match_player_metrics",
	"draft_timings",
	"teamfight_players",
	"teamfights",
	"objectives",
	"chat_wheel_events",
	"time_series_snapshots",
}

func replaceMatchChildren(ctx context.Context, tx *sqlx.Tx, records match.RecordSet) error {
	matchID := records.Match.MatchID

	for _, table := range matchChildTables {
		query, args, err := qb.DeleteFrom(table).
			Where(qb.Eq("match_id", matchID)).
			ToSQL()
		if err != nil {
			return fmt.Errorf("build clear %s query: %w", table, err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return wrapCommitError(err, "clear %s match_id=%d", table, matchID)
		}
	}

	for _, item := range records.PlayerMetrics {
		model := playerMetricInsertModel{
			MatchID:             item.MatchID,
			AccountID:           item.AccountID,
			HeroID:              item.HeroID,
			PlayerSlot:          item.PlayerSlot,
			IsRadiant:           item.IsRadiant,
			Win:                 item.Win,
			Kills:               item.Kills,
			Deaths:              item.Deaths,
			Assists:             item.Assists,
			LastHits:            item.LastHits,
			Denies:              item.Denies,
			GoldPerMin:          item.GoldPerMin,
			XPPerMin:            item.XPPerMin,
			Level:               item.Level,
			NetWorth:            item.NetWorth,
			HeroDamage:          item.HeroDamage,
			TowerDamage:         item.TowerDamage,
			HeroHealing:         item.HeroHealing,
			ObsPlaced:           item.ObsPlaced,
			SenPlaced:           item.SenPlaced,
			Stuns:               item.Stuns,
			TeamfightPart:       item.TeamfightPart,
			Lane:                item.Lane,
			LaneRole:            item.LaneRole,
			BenchGoldPerMinPct:  item.BenchGoldPerMinPct,
			BenchXPPerMinPct:    item.BenchXPPerMinPct,
			BenchKillsPerMinPct: item.BenchKillsPerMinPct,
			BenchLastHitsPct:    item.BenchLastHitsPct,
			BenchHeroDamagePct:  item.BenchHeroDamagePct,
			BenchHeroHealingPct: item.BenchHeroHealingPct,
			BenchTowerDamagePct: item.BenchTowerDamagePct,
		}
		if err := insertChildRow(ctx, tx, "match_player_metrics", model, matchID); err != nil {
			return err
		}
	}

	for _, item := range records.DraftTimings {
		model := draftTimingInsertModel{
			MatchID:        item.MatchID,
			DraftOrder:     item.DraftOrder,
			Pick:           item.Pick,
			ActiveTeam:     item.ActiveTeam,
			HeroID:         item.HeroID,
			PlayerSlot:     item.PlayerSlot,
			ExtraTime:      item.ExtraTime,
			TotalTimeTaken: item.TotalTimeTaken,
		}
		if err := insertChildRow(ctx, tx, "draft_timings", model, matchID); err != nil {
			return err
		}
	}

	for _, item := range records.TeamFights {
		model := teamFightInsertModel{
			MatchID:    item.MatchID,
			FightIndex: item.FightIndex,
			StartTick:  item.Start,
			EndTick:    item.End,
			LastDeath:  item.LastDeath,
			Deaths:     item.Deaths,
		}
		if err := insertChildRow(ctx, tx, "teamfights", model, matchID); err != nil {
			return err
		}
	}

	for _, item := range records.TeamFightPlayers {
		model := teamFightPlayerInsertModel{
			MatchID:    item.MatchID,
			FightIndex: item.FightIndex,
			AccountID:  item.AccountID,
			PlayerSlot: item.PlayerSlot,
			Deaths:     item.Deaths,
			Buybacks:   item.Buybacks,
			Damage:     item.Damage,
			Healing:    item.Healing,
			GoldDelta:  item.GoldDelta,
			XPDelta:    item.XPDelta,
		}
		if err := insertChildRow(ctx, tx, "teamfight_players", model, matchID); err != nil {
			return err
		}
	}

	for _, item := range records.Objectives {
		model := objectiveInsertModel{
			MatchID:    item.MatchID,
			Seq:        item.Seq,
			EventTime:  item.Time,
			EventType:  item.Type,
			PlayerSlot: item.PlayerSlot,
			EventKey:   item.Key,
			Team:       item.Team,
		}
		if err := insertChildRow(ctx, tx, "objectives", model, matchID); err != nil {
			return err
		}
	}

	for _, item := range records.ChatWheelEvents {
		model := chatWheelInsertModel{
			MatchID:    item.MatchID,
			Seq:        item.Seq,
			EventTime:  item.Time,
			PlayerSlot: item.PlayerSlot,
			EventKey:   item.Key,
		}
		if err := insertChildRow(ctx, tx, "chat_wheel_events", model, matchID); err != nil {
			return err
		}
	}

	for _, item := range records.TimeSeries {
		model := timeSeriesInsertModel{
			MatchID:    item.MatchID,
			AccountID:  item.AccountID,
			TimeOffset: item.TimeOffset,
			MetricKind: item.MetricKind,
			Value:      item.Value,
		}
		if err := insertChildRow(ctx, tx, "time_series_snapshots", model, matchID); err != nil {
			return err
		}
	}

	return nil
}

func insertChildRow(ctx context.Context, tx *sqlx.Tx, table string, model any, matchID int64) error {
	query, args, err := qb.InsertModel(table, model, "")
	if err != nil {
		return fmt.Errorf("build insert %s query: %w", table, err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return wrapCommitError(err, "insert %s match_id=%d", table, matchID)
	}
	return nil
}
