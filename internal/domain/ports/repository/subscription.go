package repository

import (
	"context"

	"subscription-storefront/internal/domain/model"
)

// SubscriptionRepository persists the one-row-per-user subscription table.
type SubscriptionRepository interface {
	// Upsert overwrites the user's subscription row (unique on user_id).
	Upsert(ctx context.Context, tx Tx, s *model.UserSubscription) error
	FindByUser(ctx context.Context, tx Tx, userID string) (*model.UserSubscription, error)
	CountByPlan(ctx context.Context, tx Tx) (map[string]int, error)
	// ListEndedSince returns subscriptions whose end date passed within the
	// given number of days. Used by the expiry worker for gauge refresh.
	ListEndedSince(ctx context.Context, tx Tx, withinDays int) ([]*model.UserSubscription, error)
}
