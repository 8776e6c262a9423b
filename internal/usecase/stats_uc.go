package usecase

import (
	"context"

	"github.com/rs/zerolog"

	"subscription-storefront/internal/infra/logging"
	"subscription-storefront/internal/infra/metrics"
)

// Compile-time check
var _ StatsUseCase = (*statsUC)(nil)

// Stats is the admin dashboard snapshot.
type Stats struct {
	Users          int            `json:"users"`
	SubsByPlan     map[string]int `json:"subscriptions_by_plan"`
	DownloadsToday int            `json:"downloads_today"`
}

type StatsUseCase interface {
	Snapshot(ctx context.Context) (*Stats, error)
}

type statsUC struct {
	userUC UserUseCase
	subUC  SubscriptionUseCase
	dlUC   DownloadUseCase
	log    *zerolog.Logger
}

func NewStatsUseCase(userUC UserUseCase, subUC SubscriptionUseCase, dlUC DownloadUseCase, logger *zerolog.Logger) *statsUC {
	return &statsUC{userUC: userUC, subUC: subUC, dlUC: dlUC, log: logger}
}

// Snapshot also refreshes the per-plan subscription gauge so the dashboard
// and Prometheus agree.
func (uc *statsUC) Snapshot(ctx context.Context) (*Stats, error) {
	defer logging.TraceDuration(uc.log, "StatsUC.Snapshot")()

	users, err := uc.userUC.Count(ctx)
	if err != nil {
		return nil, err
	}
	byPlan, err := uc.subUC.CountByPlan(ctx)
	if err != nil {
		return nil, err
	}
	today, err := uc.dlUC.CountToday(ctx)
	if err != nil {
		return nil, err
	}

	metrics.SetSubscriptionsByPlan(byPlan)
	return &Stats{Users: users, SubsByPlan: byPlan, DownloadsToday: today}, nil
}
