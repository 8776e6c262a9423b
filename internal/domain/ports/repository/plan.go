package repository

import (
	"context"

	"subscription-storefront/internal/domain/model"
)

// SubscriptionPlanRepository persists plans.
type SubscriptionPlanRepository interface {
	Save(ctx context.Context, tx Tx, plan *model.SubscriptionPlan) error
	Delete(ctx context.Context, tx Tx, id string) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.SubscriptionPlan, error)
	FindByName(ctx context.Context, tx Tx, name string) (*model.SubscriptionPlan, error)
	FindByStripePriceID(ctx context.Context, tx Tx, priceID string) (*model.SubscriptionPlan, error)
	ListAll(ctx context.Context, tx Tx) ([]*model.SubscriptionPlan, error)
}
