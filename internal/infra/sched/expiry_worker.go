package sched

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"subscription-storefront/internal/infra/metrics"
	"subscription-storefront/internal/usecase"
)

// ExpiryWorker periodically reverts lapsed paid subscriptions to the Free
// plan and refreshes the per-plan gauge.
type ExpiryWorker struct {
	interval     time.Duration
	lookbackDays int
	subUC        usecase.SubscriptionUseCase
	log          *zerolog.Logger
}

func NewExpiryWorker(interval time.Duration, lookbackDays int, subUC usecase.SubscriptionUseCase, logger *zerolog.Logger) *ExpiryWorker {
	exprLog := logger.With().Str("component", "ExpiryWorker").Logger()
	if lookbackDays <= 0 {
		lookbackDays = 7
	}
	return &ExpiryWorker{
		interval:     interval,
		lookbackDays: lookbackDays,
		subUC:        subUC,
		log:          &exprLog,
	}
}

func (w *ExpiryWorker) Run(ctx context.Context) error {
	w.log.Info().Dur("interval", w.interval).Msg("starting expiry worker")
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("stopping expiry worker")
			return ctx.Err()
		case <-ticker.C:
			n, err := w.subUC.RevertExpired(ctx, w.lookbackDays)
			if err != nil {
				w.log.Error().Err(err).Msg("expiry sweep failed")
			}
			if n > 0 {
				metrics.IncSubscriptionsExpired(n)
				w.log.Info().Int("count", n).Msg("lapsed subscriptions reverted to free plan")
			}
			if counts, err := w.subUC.CountByPlan(ctx); err == nil {
				metrics.SetSubscriptionsByPlan(counts)
			}
		}
	}
}
