package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"subscription-storefront/internal/domain"
	"subscription-storefront/internal/domain/model"
	"subscription-storefront/internal/domain/ports/adapter"
	"subscription-storefront/internal/domain/ports/repository"
	"subscription-storefront/internal/infra/logging"
	"subscription-storefront/internal/infra/metrics"
)

// Compile-time check
var _ PaymentUseCase = (*paymentUC)(nil)

// PaymentUseCase drives hosted checkout: session creation, the redirect back
// from the payment page, and asynchronous webhook confirmation. Success
// redirect and webhook both finalize the same purchase; the upsert makes the
// second arrival a harmless overwrite.
type PaymentUseCase interface {
	StartCheckout(ctx context.Context, userID, planID string) (*adapter.CheckoutSession, error)
	FinalizeSuccess(ctx context.Context, userID, sessionID string) (*model.SubscriptionPlan, error)
	HandleCheckoutCompleted(ctx context.Context, eventID, sessionID string) error
}

type paymentUC struct {
	users   repository.UserRepository
	plans   repository.SubscriptionPlanRepository
	subUC   SubscriptionUseCase
	gateway adapter.CheckoutGateway
	events  repository.EventLog

	successURL string
	cancelURL  string
	log        *zerolog.Logger
}

func NewPaymentUseCase(
	users repository.UserRepository,
	plans repository.SubscriptionPlanRepository,
	subUC SubscriptionUseCase,
	gateway adapter.CheckoutGateway,
	events repository.EventLog,
	successURL, cancelURL string,
	logger *zerolog.Logger,
) *paymentUC {
	return &paymentUC{
		users:      users,
		plans:      plans,
		subUC:      subUC,
		gateway:    gateway,
		events:     events,
		successURL: successURL,
		cancelURL:  cancelURL,
		log:        logger,
	}
}

// Paid plans run on a monthly window; Stripe renews the underlying
// subscription and each completed invoice re-extends it.
const paidDurationDays = 30

// eventDedupTTL bounds how long webhook event ids are remembered.
const eventDedupTTL = 72 * time.Hour

func (uc *paymentUC) StartCheckout(ctx context.Context, userID, planID string) (*adapter.CheckoutSession, error) {
	defer logging.TraceDuration(uc.log, "PaymentUC.StartCheckout")()

	user, err := uc.users.FindByID(ctx, repository.NoTX, userID)
	if err != nil {
		return nil, err
	}
	plan, err := uc.plans.FindByID(ctx, repository.NoTX, planID)
	if err != nil {
		return nil, err
	}
	if !plan.Purchasable() {
		return nil, domain.ErrPlanNotPurchasable
	}
	// A second Stripe subscription for a plan the user already holds would
	// double-bill; an expired window may be bought again.
	if current, _, err := uc.subUC.GetForUser(ctx, userID); err == nil {
		if current.PlanID == planID && current.ActiveOn(time.Now()) {
			return nil, domain.ErrAlreadySubscribed
		}
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	sess, err := uc.gateway.CreateSession(ctx, user.Email, plan.StripePriceID, uc.successURL, uc.cancelURL)
	if err != nil {
		metrics.IncCheckoutSession("failed")
		uc.log.Error().Err(err).Str("plan", plan.Name).Msg("checkout session creation failed")
		return nil, err
	}
	metrics.IncCheckoutSession("created")

	uc.log.Info().
		Str("user_id", userID).
		Str("plan", plan.Name).
		Str("session_id", sess.ID).
		Msg("checkout session created")
	return sess, nil
}

// FinalizeSuccess handles the redirect back from the payment page. The
// session is re-fetched from the gateway; the query parameter alone proves
// nothing.
func (uc *paymentUC) FinalizeSuccess(ctx context.Context, userID, sessionID string) (*model.SubscriptionPlan, error) {
	defer logging.TraceDuration(uc.log, "PaymentUC.FinalizeSuccess")()

	sess, err := uc.gateway.ResolveSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	plan, err := uc.plans.FindByStripePriceID(ctx, repository.NoTX, sess.PriceID)
	if err != nil {
		return nil, err
	}
	if _, err := uc.subUC.ActivatePlan(ctx, userID, plan.ID, sess.SubscriptionID, paidDurationDays); err != nil {
		return nil, err
	}
	metrics.IncCheckoutSession("completed")
	return plan, nil
}

// HandleCheckoutCompleted processes a checkout.session.completed event. The
// event id wins the dedup race exactly once; the customer is matched by the
// email Stripe echoes back. A failed delivery releases the event id again so
// the provider's retry is processed instead of acknowledged as a duplicate.
func (uc *paymentUC) HandleCheckoutCompleted(ctx context.Context, eventID, sessionID string) error {
	defer logging.TraceDuration(uc.log, "PaymentUC.HandleCheckoutCompleted")()

	if err := uc.events.MarkHandled(ctx, eventID, eventDedupTTL); err != nil {
		if errors.Is(err, domain.ErrEventAlreadyHandled) {
			metrics.IncWebhookEvent("checkout.session.completed", "duplicate")
			return nil
		}
		return err
	}

	if err := uc.completeCheckout(ctx, eventID, sessionID); err != nil {
		metrics.IncWebhookEvent("checkout.session.completed", "error")
		if uerr := uc.events.Unmark(ctx, eventID); uerr != nil {
			uc.log.Error().Err(uerr).Str("event_id", eventID).Msg("webhook dedup rollback failed")
		}
		return err
	}
	metrics.IncWebhookEvent("checkout.session.completed", "handled")
	return nil
}

func (uc *paymentUC) completeCheckout(ctx context.Context, eventID, sessionID string) error {
	sess, err := uc.gateway.ResolveSession(ctx, sessionID)
	if err != nil {
		return err
	}
	plan, err := uc.plans.FindByStripePriceID(ctx, repository.NoTX, sess.PriceID)
	if err != nil {
		return err
	}
	user, err := uc.users.FindByEmail(ctx, repository.NoTX, sess.CustomerEmail)
	if err != nil {
		uc.log.Error().Err(err).Str("session_id", sessionID).Msg("webhook customer not found")
		return err
	}

	if _, err := uc.subUC.ActivatePlan(ctx, user.ID, plan.ID, sess.SubscriptionID, paidDurationDays); err != nil {
		return err
	}

	uc.log.Info().
		Str("user_id", user.ID).
		Str("plan", plan.Name).
		Str("event_id", eventID).
		Msg("checkout completed via webhook")
	return nil
}
