package league

import "context"

// Repository describes league read access from use cases.
type Repository interface {
	GetByID(ctx context.Context, leagueID int64) (League, bool, error)
	List(ctx context.Context, limit int) ([]League, error)
}
