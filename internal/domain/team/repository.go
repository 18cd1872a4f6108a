package team

import "context"

// Repository describes team read access from use cases.
type Repository interface {
	GetByID(ctx context.Context, teamID int64) (Team, bool, error)
	GetStats(ctx context.Context, teamID int64) (Stats, error)
}
