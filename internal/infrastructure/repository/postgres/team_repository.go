package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/dotalytics/dota-ingest/internal/domain/team"
	qb "github.com/dotalytics/dota-ingest/internal/platform/querybuilder"
)

type TeamRepository struct {
	db *sqlx.DB
}

func NewTeamRepository(db *sqlx.DB) *TeamRepository {
	return &TeamRepository{db: db}
}

func (r *TeamRepository) GetByID(ctx context.Context, teamID int64) (team.Team, bool, error) {
	query, args, err := qb.Select("*").From("teams").
		Where(qb.Eq("team_id", teamID)).
		ToSQL()
	if err != nil {
		return team.Team{}, false, fmt.Errorf("build select team query: %w", err)
	}

	var row teamTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return team.Team{}, false, nil
		}
		return team.Team{}, false, fmt.Errorf("select team team_id=%d: %w", teamID, err)
	}

	return team.Team{
		TeamID:  row.TeamID,
		Name:    row.Name,
		Tag:     row.Tag,
		LogoURL: row.LogoURL,
		Rating:  row.Rating,
		Wins:    row.Wins,
		Losses:  row.Losses,
	}, true, nil
}

func (r *TeamRepository) GetStats(ctx context.Context, teamID int64) (team.Stats, error) {
	query := `SELECT
    COUNT(*) AS match_count,
    COUNT(*) FILTER (WHERE (radiant_team_id = $1 AND radiant_win) OR (dire_team_id = $1 AND NOT radiant_win)) AS wins,
    COALESCE(AVG(duration), 0) AS avg_duration,
    COUNT(*) FILTER (WHERE radiant_team_id = $1) AS radiant_games,
    COUNT(*) FILTER (WHERE radiant_team_id = $1 AND radiant_win) AS radiant_wins
FROM matches
WHERE radiant_team_id = $1 OR dire_team_id = $1`

	var row struct {
		MatchCount   int     `db:"match_count"`
		Wins         int     `db:"wins"`
		AvgDuration  float64 `db:"avg_duration"`
		RadiantGames int     `db:"radiant_games"`
		RadiantWins  int     `db:"radiant_wins"`
	}
	if err := r.db.GetContext(ctx, &row, query, teamID); err != nil {
		return team.Stats{}, fmt.Errorf("select team stats team_id=%d: %w", teamID, err)
	}

	return team.Stats{
		TeamID:       teamID,
		MatchCount:   row.MatchCount,
		Wins:         row.Wins,
		Losses:       row.MatchCount - row.Wins,
		AvgDuration:  row.AvgDuration,
		RadiantGames: row.RadiantGames,
		RadiantWins:  row.RadiantWins,
	}, nil
}
