package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"subscription-storefront/internal/domain"
	"subscription-storefront/internal/domain/model"
	"subscription-storefront/internal/domain/ports/repository"
	"subscription-storefront/internal/infra/logging"
)

// Compile-time check
var _ SubscriptionUseCase = (*subscriptionUC)(nil)

// SubscriptionUseCase manages the single subscription row each user holds.
type SubscriptionUseCase interface {
	// GetForUser returns the user's subscription with its plan resolved.
	GetForUser(ctx context.Context, userID string) (*model.UserSubscription, *model.SubscriptionPlan, error)
	// SwitchPlan moves the user onto a plan directly, without checkout.
	// Only non-purchasable plans (no Stripe price) can be switched to.
	SwitchPlan(ctx context.Context, userID, planID string) (*model.UserSubscription, error)
	// ActivatePlan replaces the user's subscription after a completed
	// purchase. durationDays bounds the paid window.
	ActivatePlan(ctx context.Context, userID, planID, stripeSubscriptionID string, durationDays int) (*model.UserSubscription, error)
	// RevertExpired moves users whose paid window lapsed back onto the
	// Free plan and returns how many were reverted.
	RevertExpired(ctx context.Context, withinDays int) (int, error)
	CountByPlan(ctx context.Context) (map[string]int, error)
}

type subscriptionUC struct {
	plans repository.SubscriptionPlanRepository
	subs  repository.SubscriptionRepository
	tm    repository.TransactionManager
	log   *zerolog.Logger
}

func NewSubscriptionUseCase(
	plans repository.SubscriptionPlanRepository,
	subs repository.SubscriptionRepository,
	tm repository.TransactionManager,
	logger *zerolog.Logger,
) *subscriptionUC {
	return &subscriptionUC{plans: plans, subs: subs, tm: tm, log: logger}
}

const switchDurationDays = 365

func (uc *subscriptionUC) GetForUser(ctx context.Context, userID string) (*model.UserSubscription, *model.SubscriptionPlan, error) {
	defer logging.TraceDuration(uc.log, "SubscriptionUC.GetForUser")()

	sub, err := uc.subs.FindByUser(ctx, repository.NoTX, userID)
	if err != nil {
		return nil, nil, err
	}
	plan, err := uc.plans.FindByID(ctx, repository.NoTX, sub.PlanID)
	if err != nil {
		return nil, nil, err
	}
	return sub, plan, nil
}

func (uc *subscriptionUC) SwitchPlan(ctx context.Context, userID, planID string) (*model.UserSubscription, error) {
	defer logging.TraceDuration(uc.log, "SubscriptionUC.SwitchPlan")()

	plan, err := uc.plans.FindByID(ctx, repository.NoTX, planID)
	if err != nil {
		return nil, err
	}
	if plan.Purchasable() {
		// paid plans go through checkout
		return nil, domain.ErrPlanNotPurchasable
	}
	if err := uc.rejectActivePlan(ctx, userID, planID); err != nil {
		return nil, err
	}
	return uc.replaceSubscription(ctx, userID, plan, "", switchDurationDays)
}

// rejectActivePlan blocks re-subscribing to a plan the user already holds
// with an unexpired window. A lapsed subscription to the same plan may be
// renewed.
func (uc *subscriptionUC) rejectActivePlan(ctx context.Context, userID, planID string) error {
	current, err := uc.subs.FindByUser(ctx, repository.NoTX, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil
		}
		return err
	}
	if current.PlanID == planID && current.ActiveOn(time.Now()) {
		return domain.ErrAlreadySubscribed
	}
	return nil
}

func (uc *subscriptionUC) ActivatePlan(ctx context.Context, userID, planID, stripeSubscriptionID string, durationDays int) (*model.UserSubscription, error) {
	defer logging.TraceDuration(uc.log, "SubscriptionUC.ActivatePlan")()

	plan, err := uc.plans.FindByID(ctx, repository.NoTX, planID)
	if err != nil {
		return nil, err
	}
	return uc.replaceSubscription(ctx, userID, plan, stripeSubscriptionID, durationDays)
}

// replaceSubscription upserts the user's single subscription row under a
// per-user advisory lock. A concurrent checkout completion and plan switch
// for the same user serialize here.
func (uc *subscriptionUC) replaceSubscription(ctx context.Context, userID string, plan *model.SubscriptionPlan, stripeSubID string, durationDays int) (*model.UserSubscription, error) {
	var out *model.UserSubscription
	err := uc.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		if err := lockUser(ctx, tx, userID); err != nil {
			return err
		}
		sub, err := model.NewUserSubscription(uuid.NewString(), userID, plan, durationDays, time.Now())
		if err != nil {
			return err
		}
		sub.StripeSubscriptionID = stripeSubID
		if err := uc.subs.Upsert(ctx, tx, sub); err != nil {
			return err
		}
		out = sub
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.log.Info().
		Str("user_id", userID).
		Str("plan", plan.Name).
		Time("end_date", out.EndDate).
		Msg("subscription replaced")
	return out, nil
}

func (uc *subscriptionUC) RevertExpired(ctx context.Context, withinDays int) (int, error) {
	defer logging.TraceDuration(uc.log, "SubscriptionUC.RevertExpired")()

	freePlan, err := uc.plans.FindByName(ctx, repository.NoTX, model.TierFree.String())
	if err != nil {
		return 0, err
	}

	ended, err := uc.subs.ListEndedSince(ctx, repository.NoTX, withinDays)
	if err != nil {
		return 0, err
	}

	reverted := 0
	for _, sub := range ended {
		if sub.PlanID == freePlan.ID {
			continue
		}
		if _, err := uc.replaceSubscription(ctx, sub.UserID, freePlan, "", freeSignupDays); err != nil {
			uc.log.Error().Err(err).Str("user_id", sub.UserID).Msg("revert to free plan failed")
			continue
		}
		reverted++
	}
	return reverted, nil
}

// CountByPlan reports subscription counts keyed by plan name.
func (uc *subscriptionUC) CountByPlan(ctx context.Context) (map[string]int, error) {
	byID, err := uc.subs.CountByPlan(ctx, repository.NoTX)
	if err != nil {
		return nil, err
	}
	plans, err := uc.plans.ListAll(ctx, repository.NoTX)
	if err != nil {
		return nil, err
	}

	out := make(map[string]int, len(byID))
	for _, p := range plans {
		if n, ok := byID[p.ID]; ok {
			out[p.Name] = n
		}
	}
	return out, nil
}
