package repository

import (
	"context"
	"time"

	"subscription-storefront/internal/domain/model"
)

// DownloadLogRepository is the append-only download ledger. CountByUserAndDay
// is the quota query: rows for (user, day).
type DownloadLogRepository interface {
	Append(ctx context.Context, tx Tx, l *model.DownloadLog) error
	CountByUserAndDay(ctx context.Context, tx Tx, userID string, day time.Time) (int, error)
	CountByDay(ctx context.Context, tx Tx, day time.Time) (int, error)
	ListByUser(ctx context.Context, tx Tx, userID string, offset, limit int) ([]*model.DownloadLog, error)
}
