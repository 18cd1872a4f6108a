package postgres

import (
	"context"
	"fmt"
	"strings"

	sonic "github.com/bytedance/sonic"
	"github.com/jmoiron/sqlx"

	"github.com/dotalytics/dota-ingest/internal/domain/hero"
	qb "github.com/dotalytics/dota-ingest/internal/platform/querybuilder"
)

type HeroRepository struct {
	db *sqlx.DB
}

func NewHeroRepository(db *sqlx.DB) *HeroRepository {
	return &HeroRepository{db: db}
}

func (r *HeroRepository) Upsert(ctx context.Context, items []hero.Hero) error {
	if len(items) == 0 {
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx upsert heroes: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for _, item := range items {
		rolesJSON, err := sonic.MarshalString(item.Roles)
		if err != nil {
			return fmt.Errorf("encode hero roles hero_id=%d: %w", item.HeroID, err)
		}
		model := heroInsertModel{
			HeroID:        item.HeroID,
			Name:          item.Name,
			LocalizedName: item.LocalizedName,
			PrimaryAttr:   item.PrimaryAttr,
			AttackType:    item.AttackType,
			RolesJSON:     rolesJSON,
		}
		query, args, err := qb.InsertModel("heroes", model, `ON CONFLICT (hero_id)
DO UPDATE SET
    name = EXCLUDED.name,
    localized_name = EXCLUDED.localized_name,
    primary_attr = EXCLUDED.primary_attr,
    attack_type = EXCLUDED.attack_type,
    roles = EXCLUDED.roles,
    updated_at = NOW()`)
		if err != nil {
			return fmt.Errorf("build upsert hero query: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("upsert hero hero_id=%d: %w", item.HeroID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit upsert heroes tx: %w", err)
	}
	return nil
}

func (r *HeroRepository) List(ctx context.Context) ([]hero.Hero, error) {
	query, args, err := qb.Select("*").From("heroes").
		OrderBy("hero_id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select heroes query: %w", err)
	}

	var rows []heroTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select heroes: %w", err)
	}

	out := make([]hero.Hero, 0, len(rows))
	for _, row := range rows {
		out = append(out, hero.Hero{
			HeroID:        row.HeroID,
			Name:          row.Name,
			LocalizedName: row.LocalizedName,
			PrimaryAttr:   row.PrimaryAttr,
			AttackType:    row.AttackType,
			Roles:         rolesFromJSON(row.RolesJSON),
		})
	}
	return out, nil
}

func rolesFromJSON(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	var out []string
	if err := sonic.UnmarshalString(raw, &out); err != nil {
		return nil
	}
	return out
}
