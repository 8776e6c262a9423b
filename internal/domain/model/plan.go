package model

import (
	"time"

	"subscription-storefront/internal/domain"
)

// PlanTier is the ordinal position of a plan in the fixed tier ordering.
// A product is downloadable when its plan tier is <= the subscriber's tier.
type PlanTier int

const (
	TierFree  PlanTier = 0
	TierBasic PlanTier = 1
	TierPro   PlanTier = 2
)

// tierNames is the fixed ordering; index == ordinal.
var tierNames = [...]string{"Free", "Basic", "Pro"}

func (t PlanTier) String() string {
	if t < 0 || int(t) >= len(tierNames) {
		return "Unknown"
	}
	return tierNames[t]
}

// TierByName resolves a tier from its canonical name.
func TierByName(name string) (PlanTier, error) {
	for i, n := range tierNames {
		if n == name {
			return PlanTier(i), nil
		}
	}
	return 0, domain.ErrInvalidArgument
}

// Includes reports whether content gated at `other` is reachable from tier t.
func (t PlanTier) Includes(other PlanTier) bool { return other <= t }

// SubscriptionPlan is a purchasable tier with a per-day download allowance.
// StripePriceID is empty for plans that cannot go through hosted checkout
// (the Free plan is assigned directly at registration).
type SubscriptionPlan struct {
	ID            string
	Name          string
	Tier          PlanTier
	PriceCents    int64
	DailyLimit    int
	StripePriceID string
	CreatedAt     time.Time
}

func (p *SubscriptionPlan) IsZero() bool { return p == nil || p.ID == "" }

// Purchasable reports whether the plan can be bought via hosted checkout.
func (p *SubscriptionPlan) Purchasable() bool { return p.StripePriceID != "" }

// NewSubscriptionPlan validates and constructs a plan.
func NewSubscriptionPlan(id, name string, tier PlanTier, priceCents int64, dailyLimit int, stripePriceID string) (*SubscriptionPlan, error) {
	if id == "" || name == "" || tier < 0 || priceCents < 0 || dailyLimit < 0 {
		return nil, domain.ErrInvalidArgument
	}
	return &SubscriptionPlan{
		ID:            id,
		Name:          name,
		Tier:          tier,
		PriceCents:    priceCents,
		DailyLimit:    dailyLimit,
		StripePriceID: stripePriceID,
		CreatedAt:     time.Now(),
	}, nil
}
