package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/dotalytics/dota-ingest/internal/domain/player"
	qb "github.com/dotalytics/dota-ingest/internal/platform/querybuilder"
)

type PlayerRepository struct {
	db *sqlx.DB
}

func NewPlayerRepository(db *sqlx.DB) *PlayerRepository {
	return &PlayerRepository{db: db}
}

func (r *PlayerRepository) GetByAccountID(ctx context.Context, accountID int64) (player.Player, bool, error) {
	query, args, err := qb.Select("*").From("players").
		Where(qb.Eq("account_id", accountID)).
		ToSQL()
	if err != nil {
		return player.Player{}, false, fmt.Errorf("build select player query: %w", err)
	}

	var row playerTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return player.Player{}, false, nil
		}
		return player.Player{}, false, fmt.Errorf("select player account_id=%d: %w", accountID, err)
	}

	return player.Player{
		AccountID:   row.AccountID,
		Name:        row.Name,
		PersonaName: row.PersonaName,
		CountryCode: row.CountryCode,
		TeamID:      row.TeamID,
	}, true, nil
}

func (r *PlayerRepository) GetStats(ctx context.Context, accountID int64) (player.Stats, error) {
	query := `SELECT
    COUNT(*) AS match_count,
    COUNT(*) FILTER (WHERE win) AS wins,
    COALESCE(AVG(kills), 0) AS avg_kills,
    COALESCE(AVG(deaths), 0) AS avg_deaths,
    COALESCE(AVG(assists), 0) AS avg_assists,
    COALESCE(AVG(gold_per_min), 0) AS avg_gpm,
    COALESCE(AVG(xp_per_min), 0) AS avg_xpm,
    COALESCE(AVG(last_hits), 0) AS avg_last_hits
FROM match_player_metrics
WHERE account_id = $1`

	var row struct {
		MatchCount  int     `db:"match_count"`
		Wins        int     `db:"wins"`
		AvgKills    float64 `db:"avg_kills"`
		AvgDeaths   float64 `db:"avg_deaths"`
		AvgAssists  float64 `db:"avg_assists"`
		AvgGPM      float64 `db:"avg_gpm"`
		AvgXPM      float64 `db:"avg_xpm"`
		AvgLastHits float64 `db:"avg_last_hits"`
	}
	if err := r.db.GetContext(ctx, &row, query, accountID); err != nil {
		return player.Stats{}, fmt.Errorf("select player stats account_id=%d: %w", accountID, err)
	}

	return player.Stats{
		AccountID:   accountID,
		MatchCount:  row.MatchCount,
		Wins:        row.Wins,
		AvgKills:    row.AvgKills,
		AvgDeaths:   row.AvgDeaths,
		AvgAssists:  row.AvgAssists,
		AvgGPM:      row.AvgGPM,
		AvgXPM:      row.AvgXPM,
		AvgLastHits: row.AvgLastHits,
	}, nil
}
