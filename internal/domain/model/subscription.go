package model

import (
	"time"

	"subscription-storefront/internal/domain"
)

// UserSubscription is a user's single subscription row. A user holds at most
// one; switching plans overwrites the window in place.
type UserSubscription struct {
	ID                   string
	UserID               string
	PlanID               string
	StripeSubscriptionID string
	StartDate            time.Time // date resolution, stored as DATE
	EndDate              time.Time
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// NewUserSubscription creates a subscription window of durationDays starting today.
func NewUserSubscription(id, userID string, plan *SubscriptionPlan, durationDays int, now time.Time) (*UserSubscription, error) {
	if id == "" || userID == "" || plan.IsZero() || durationDays <= 0 {
		return nil, domain.ErrInvalidArgument
	}
	start := DateOf(now)
	return &UserSubscription{
		ID:        id,
		UserID:    userID,
		PlanID:    plan.ID,
		StartDate: start,
		EndDate:   start.AddDate(0, 0, durationDays),
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// ActiveOn reports whether the date of now falls within [StartDate, EndDate].
func (s *UserSubscription) ActiveOn(now time.Time) bool {
	if s == nil {
		return false
	}
	today := DateOf(now)
	return !today.Before(s.StartDate) && !today.After(s.EndDate)
}

// DateOf truncates a timestamp to its UTC calendar date.
func DateOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
