package player

import "context"

// Repository describes player read access from use cases.
type Repository interface {
	GetByAccountID(ctx context.Context, accountID int64) (Player, bool, error)
	GetStats(ctx context.Context, accountID int64) (Stats, error)
}

// Stats are per-player aggregates over stored matches.
type Stats struct {
	AccountID   int64
	MatchCount  int
	Wins        int
	AvgKills    float64
	AvgDeaths   float64
	AvgAssists  float64
	AvgGPM      float64
	AvgXPM      float64
	AvgLastHits float64
}
