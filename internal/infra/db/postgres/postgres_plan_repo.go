package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"subscription-storefront/internal/domain"
	"subscription-storefront/internal/domain/model"
	"subscription-storefront/internal/domain/ports/repository"
)

// Ensure interface compliance
var _ repository.SubscriptionPlanRepository = (*planRepo)(nil)

type planRepo struct {
	pool *pgxpool.Pool
}

func NewPlanRepo(pool *pgxpool.Pool) *planRepo {
	return &planRepo{pool: pool}
}

const planColumns = `id, name, tier, price_cents, daily_limit, stripe_price_id, created_at`

func (r *planRepo) Save(ctx context.Context, tx repository.Tx, plan *model.SubscriptionPlan) error {
	const q = `
INSERT INTO subscription_plans (id, name, tier, price_cents, daily_limit, stripe_price_id, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7)
ON CONFLICT (id) DO UPDATE SET
  name=EXCLUDED.name,
  tier=EXCLUDED.tier,
  price_cents=EXCLUDED.price_cents,
  daily_limit=EXCLUDED.daily_limit,
  stripe_price_id=EXCLUDED.stripe_price_id;`

	_, err := execSQL(ctx, r.pool, tx, q, plan.ID, plan.Name, int(plan.Tier), plan.PriceCents, plan.DailyLimit, plan.StripePriceID, plan.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrAlreadyExists
		}
		return fmt.Errorf("save plan: %w", err)
	}
	return nil
}

func (r *planRepo) Delete(ctx context.Context, tx repository.Tx, id string) error {
	tag, err := execSQL(ctx, r.pool, tx, `DELETE FROM subscription_plans WHERE id=$1;`, id)
	if err != nil {
		return fmt.Errorf("delete plan: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *planRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.SubscriptionPlan, error) {
	return r.queryOne(ctx, tx, `SELECT `+planColumns+` FROM subscription_plans WHERE id=$1;`, id)
}

func (r *planRepo) FindByName(ctx context.Context, tx repository.Tx, name string) (*model.SubscriptionPlan, error) {
	return r.queryOne(ctx, tx, `SELECT `+planColumns+` FROM subscription_plans WHERE name=$1;`, name)
}

func (r *planRepo) FindByStripePriceID(ctx context.Context, tx repository.Tx, priceID string) (*model.SubscriptionPlan, error) {
	if priceID == "" {
		return nil, domain.ErrInvalidArgument
	}
	return r.queryOne(ctx, tx, `SELECT `+planColumns+` FROM subscription_plans WHERE stripe_price_id=$1;`, priceID)
}

func (r *planRepo) ListAll(ctx context.Context, tx repository.Tx) ([]*model.SubscriptionPlan, error) {
	rows, err := queryRows(ctx, r.pool, tx, `SELECT `+planColumns+` FROM subscription_plans ORDER BY tier ASC;`)
	if err != nil {
		return nil, domain.ErrOperationFailed
	}
	defer rows.Close()

	var out []*model.SubscriptionPlan
	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.ErrReadDatabaseRow
	}
	return out, nil
}

func (r *planRepo) queryOne(ctx context.Context, tx repository.Tx, sql string, args ...interface{}) (*model.SubscriptionPlan, error) {
	row, err := pickRow(ctx, r.pool, tx, sql, args...)
	if err != nil {
		return nil, err
	}
	p, err := scanPlan(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return p, nil
}

func scanPlan(row pgx.Row) (*model.SubscriptionPlan, error) {
	var p model.SubscriptionPlan
	var tier int
	if err := row.Scan(&p.ID, &p.Name, &tier, &p.PriceCents, &p.DailyLimit, &p.StripePriceID, &p.CreatedAt); err != nil {
		return nil, err
	}
	p.Tier = model.PlanTier(tier)
	return &p, nil
}
