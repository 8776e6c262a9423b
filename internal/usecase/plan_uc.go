package usecase

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"subscription-storefront/internal/domain/model"
	"subscription-storefront/internal/domain/ports/repository"
	"subscription-storefront/internal/infra/logging"
)

// Compile-time check
var _ PlanUseCase = (*planUC)(nil)

// PlanUseCase exposes the plan catalog and its admin CRUD.
type PlanUseCase interface {
	List(ctx context.Context) ([]*model.SubscriptionPlan, error)
	Get(ctx context.Context, id string) (*model.SubscriptionPlan, error)
	Create(ctx context.Context, name string, tier model.PlanTier, priceCents int64, dailyLimit int, stripePriceID string) (*model.SubscriptionPlan, error)
	Update(ctx context.Context, plan *model.SubscriptionPlan) error
	Delete(ctx context.Context, id string) error
}

type planUC struct {
	plans repository.SubscriptionPlanRepository
	log   *zerolog.Logger
}

func NewPlanUseCase(plans repository.SubscriptionPlanRepository, logger *zerolog.Logger) *planUC {
	return &planUC{plans: plans, log: logger}
}

func (uc *planUC) List(ctx context.Context) ([]*model.SubscriptionPlan, error) {
	return uc.plans.ListAll(ctx, repository.NoTX)
}

func (uc *planUC) Get(ctx context.Context, id string) (*model.SubscriptionPlan, error) {
	return uc.plans.FindByID(ctx, repository.NoTX, id)
}

func (uc *planUC) Create(ctx context.Context, name string, tier model.PlanTier, priceCents int64, dailyLimit int, stripePriceID string) (*model.SubscriptionPlan, error) {
	defer logging.TraceDuration(uc.log, "PlanUC.Create")()

	plan, err := model.NewSubscriptionPlan(uuid.NewString(), name, tier, priceCents, dailyLimit, stripePriceID)
	if err != nil {
		return nil, err
	}
	if err := uc.plans.Save(ctx, repository.NoTX, plan); err != nil {
		return nil, err
	}
	uc.log.Info().Str("plan_id", plan.ID).Str("name", name).Msg("plan created")
	return plan, nil
}

func (uc *planUC) Update(ctx context.Context, plan *model.SubscriptionPlan) error {
	defer logging.TraceDuration(uc.log, "PlanUC.Update")()
	return uc.plans.Save(ctx, repository.NoTX, plan)
}

func (uc *planUC) Delete(ctx context.Context, id string) error {
	defer logging.TraceDuration(uc.log, "PlanUC.Delete")()
	return uc.plans.Delete(ctx, repository.NoTX, id)
}
