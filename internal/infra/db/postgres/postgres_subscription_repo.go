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

// Ensure subscriptionRepo implements repository.SubscriptionRepository
var _ repository.SubscriptionRepository = (*subscriptionRepo)(nil)

type subscriptionRepo struct {
	pool *pgxpool.Pool
}

func NewSubscriptionRepo(pool *pgxpool.Pool) *subscriptionRepo {
	return &subscriptionRepo{pool: pool}
}

const subColumns = `id, user_id, plan_id, stripe_subscription_id, start_date, end_date, created_at, updated_at`

// Upsert keys on user_id: a user holds exactly one subscription row and
// switching plans overwrites the window in place.
func (r *subscriptionRepo) Upsert(ctx context.Context, tx repository.Tx, s *model.UserSubscription) error {
	const q = `
INSERT INTO user_subscriptions (id, user_id, plan_id, stripe_subscription_id, start_date, end_date, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
ON CONFLICT (user_id) DO UPDATE SET
  plan_id=EXCLUDED.plan_id,
  stripe_subscription_id=EXCLUDED.stripe_subscription_id,
  start_date=EXCLUDED.start_date,
  end_date=EXCLUDED.end_date,
  updated_at=EXCLUDED.updated_at;`

	_, err := execSQL(ctx, r.pool, tx, q, s.ID, s.UserID, s.PlanID, s.StripeSubscriptionID, s.StartDate, s.EndDate, s.CreatedAt, s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upsert subscription: %w", err)
	}
	return nil
}

func (r *subscriptionRepo) FindByUser(ctx context.Context, tx repository.Tx, userID string) (*model.UserSubscription, error) {
	const q = `SELECT ` + subColumns + ` FROM user_subscriptions WHERE user_id=$1;`
	row, err := pickRow(ctx, r.pool, tx, q, userID)
	if err != nil {
		return nil, err
	}
	s := &model.UserSubscription{}
	if err := row.Scan(&s.ID, &s.UserID, &s.PlanID, &s.StripeSubscriptionID, &s.StartDate, &s.EndDate, &s.CreatedAt, &s.UpdatedAt); err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return s, nil
}

func (r *subscriptionRepo) CountByPlan(ctx context.Context, tx repository.Tx) (map[string]int, error) {
	const q = `SELECT plan_id, COUNT(*) FROM user_subscriptions GROUP BY plan_id;`
	rows, err := queryRows(ctx, r.pool, tx, q)
	if err != nil {
		return nil, domain.ErrOperationFailed
	}
	defer rows.Close()

	m := make(map[string]int)
	for rows.Next() {
		var planID string
		var c int
		if err := rows.Scan(&planID, &c); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		m[planID] = c
	}
	if err := rows.Err(); err != nil {
		return nil, domain.ErrReadDatabaseRow
	}
	return m, nil
}

func (r *subscriptionRepo) ListEndedSince(ctx context.Context, tx repository.Tx, withinDays int) ([]*model.UserSubscription, error) {
	const q = `
SELECT ` + subColumns + `
  FROM user_subscriptions
 WHERE end_date < CURRENT_DATE
   AND end_date >= CURRENT_DATE - ($1::int * INTERVAL '1 day')
 ORDER BY end_date ASC;`
	rows, err := queryRows(ctx, r.pool, tx, q, withinDays)
	if err != nil {
		return nil, domain.ErrOperationFailed
	}
	defer rows.Close()

	var out []*model.UserSubscription
	for rows.Next() {
		s := &model.UserSubscription{}
		if err := rows.Scan(&s.ID, &s.UserID, &s.PlanID, &s.StripeSubscriptionID, &s.StartDate, &s.EndDate, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.ErrReadDatabaseRow
	}
	return out, nil
}
