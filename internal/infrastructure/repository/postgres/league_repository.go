package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/dotalytics/dota-ingest/internal/domain/league"
	qb "github.com/dotalytics/dota-ingest/internal/platform/querybuilder"
)

type LeagueRepository struct {
	db *sqlx.DB
}

func NewLeagueRepository(db *sqlx.DB) *LeagueRepository {
	return &LeagueRepository{db: db}
}

func (r *LeagueRepository) GetByID(ctx context.Context, leagueID int64) (league.League, bool, error) {
	query, args, err := qb.Select("*").From("leagues").
		Where(qb.Eq("league_id", leagueID)).
		ToSQL()
	if err != nil {
		return league.League{}, false, fmt.Errorf("build select league query: %w", err)
	}

	var row leagueTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return league.League{}, false, nil
		}
		return league.League{}, false, fmt.Errorf("select league league_id=%d: %w", leagueID, err)
	}

	return mapLeagueRow(row), true, nil
}

func (r *LeagueRepository) List(ctx context.Context, limit int) ([]league.League, error) {
	builder := qb.Select("*").From("leagues").OrderBy("league_id")
	if limit > 0 {
		builder = builder.Limit(limit)
	}
	query, args, err := builder.ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select leagues query: %w", err)
	}

	var rows []leagueTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select leagues: %w", err)
	}

	out := make([]league.League, 0, len(rows))
	for _, row := range rows {
		out = append(out, mapLeagueRow(row))
	}
	return out, nil
}

func mapLeagueRow(row leagueTableModel) league.League {
	return league.League{
		LeagueID: row.LeagueID,
		Name:     row.Name,
		Tier:     row.Tier,
	}
}
