package model

import (
	"time"

	"subscription-storefront/internal/domain"
)

// Product is a downloadable digital good gated by a plan tier.
// ImagePath and FilePath are keys into the file store; either may be empty.
type Product struct {
	ID        string
	Name      string
	PlanID    string
	ImagePath string
	FilePath  string
	FileName  string // original filename, used for the attachment header
	CreatedAt time.Time
}

func NewProduct(id, name, planID string) (*Product, error) {
	if id == "" || name == "" || planID == "" {
		return nil, domain.ErrInvalidArgument
	}
	return &Product{
		ID:        id,
		Name:      name,
		PlanID:    planID,
		CreatedAt: time.Now(),
	}, nil
}

func (p *Product) IsZero() bool  { return p == nil || p.ID == "" }
func (p *Product) HasFile() bool { return p != nil && p.FilePath != "" }
