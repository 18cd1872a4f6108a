package hero

import "context"

// Repository describes hero catalog persistence from use cases.
type Repository interface {
	Upsert(ctx context.Context, items []Hero) error
	List(ctx context.Context) ([]Hero, error)
}
