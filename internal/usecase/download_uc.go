package usecase

import (
	"context"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"subscription-storefront/internal/domain"
	"subscription-storefront/internal/domain/model"
	"subscription-storefront/internal/domain/ports/repository"
	"subscription-storefront/internal/infra/logging"
	"subscription-storefront/internal/infra/metrics"
)

// Compile-time check
var _ DownloadUseCase = (*downloadUC)(nil)

// DownloadUseCase is the entitlement gate in front of file delivery.
type DownloadUseCase interface {
	// Authorize runs the full entitlement chain and, when it passes, records
	// the download and returns the product to stream. Check and record are
	// one transaction under a per-user lock, so two concurrent requests
	// cannot both pass on the last quota slot.
	Authorize(ctx context.Context, userID, productID string) (*model.Product, error)
	History(ctx context.Context, userID string, offset, limit int) ([]*model.DownloadLog, error)
	CountToday(ctx context.Context) (int, error)
	// CountTodayByUser reports how much of today's quota the user has spent.
	CountTodayByUser(ctx context.Context, userID string) (int, error)
}

type downloadUC struct {
	products repository.ProductRepository
	plans    repository.SubscriptionPlanRepository
	subs     repository.SubscriptionRepository
	logs     repository.DownloadLogRepository
	tm       repository.TransactionManager
	log      *zerolog.Logger
}

func NewDownloadUseCase(
	products repository.ProductRepository,
	plans repository.SubscriptionPlanRepository,
	subs repository.SubscriptionRepository,
	logs repository.DownloadLogRepository,
	tm repository.TransactionManager,
	logger *zerolog.Logger,
) *downloadUC {
	return &downloadUC{
		products: products,
		plans:    plans,
		subs:     subs,
		logs:     logs,
		tm:       tm,
		log:      logger,
	}
}

func (uc *downloadUC) Authorize(ctx context.Context, userID, productID string) (*model.Product, error) {
	defer logging.TraceDuration(uc.log, "DownloadUC.Authorize")()

	var product *model.Product
	err := uc.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		if err := lockUser(ctx, tx, userID); err != nil {
			return err
		}

		p, err := uc.products.FindByID(ctx, tx, productID)
		if err != nil {
			return err
		}

		sub, err := uc.subs.FindByUser(ctx, tx, userID)
		if err != nil {
			if err == domain.ErrNotFound {
				return domain.ErrNoSubscription
			}
			return err
		}

		now := time.Now()
		if !sub.ActiveOn(now) {
			return domain.ErrExpiredSubscription
		}

		userPlan, err := uc.plans.FindByID(ctx, tx, sub.PlanID)
		if err != nil {
			return err
		}
		productPlan, err := uc.plans.FindByID(ctx, tx, p.PlanID)
		if err != nil {
			return err
		}
		if !userPlan.Tier.Includes(productPlan.Tier) {
			return domain.ErrTierNotIncluded
		}

		used, err := uc.logs.CountByUserAndDay(ctx, tx, userID, model.DateOf(now))
		if err != nil {
			return err
		}
		if used >= userPlan.DailyLimit {
			return domain.ErrDailyLimitReached
		}

		if !p.HasFile() {
			return domain.ErrFileNotAttached
		}

		entry, err := model.NewDownloadLog(userID, productID, now)
		if err != nil {
			return err
		}
		if err := uc.logs.Append(ctx, tx, entry); err != nil {
			return err
		}

		metrics.IncDownload(productPlan.Tier.String())
		product = p
		return nil
	})
	if err != nil {
		if reason := denialReason(err); reason != "" {
			metrics.IncDownloadDenied(reason)
			uc.log.Info().
				Str("user_id", userID).
				Str("product_id", productID).
				Str("reason", reason).
				Msg("download denied")
		}
		return nil, err
	}
	return product, nil
}

func denialReason(err error) string {
	switch err {
	case domain.ErrNoSubscription:
		return "no_subscription"
	case domain.ErrExpiredSubscription:
		return "expired"
	case domain.ErrTierNotIncluded:
		return "tier"
	case domain.ErrDailyLimitReached:
		return "quota"
	case domain.ErrFileNotAttached:
		return "no_file"
	}
	return ""
}

func (uc *downloadUC) History(ctx context.Context, userID string, offset, limit int) ([]*model.DownloadLog, error) {
	defer logging.TraceDuration(uc.log, "DownloadUC.History")()
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return uc.logs.ListByUser(ctx, repository.NoTX, userID, offset, limit)
}

func (uc *downloadUC) CountToday(ctx context.Context) (int, error) {
	return uc.logs.CountByDay(ctx, repository.NoTX, model.DateOf(time.Now()))
}

func (uc *downloadUC) CountTodayByUser(ctx context.Context, userID string) (int, error) {
	return uc.logs.CountByUserAndDay(ctx, repository.NoTX, userID, model.DateOf(time.Now()))
}
