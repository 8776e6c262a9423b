package model

import (
	"time"

	"subscription-storefront/internal/domain"

	"github.com/oklog/ulid/v2"
)

// DownloadLog is an append-only record of one file download. The Day column
// is the only thing the quota check reads: permitted downloads per user are
// counted per calendar day.
type DownloadLog struct {
	ID        string // ULID, time-ordered
	UserID    string
	ProductID string
	Day       time.Time // DATE
	CreatedAt time.Time
}

func NewDownloadLog(userID, productID string, now time.Time) (*DownloadLog, error) {
	if userID == "" || productID == "" {
		return nil, domain.ErrInvalidArgument
	}
	return &DownloadLog{
		ID:        ulid.Make().String(),
		UserID:    userID,
		ProductID: productID,
		Day:       DateOf(now),
		CreatedAt: now,
	}, nil
}
