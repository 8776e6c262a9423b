package repository

import (
	"context"

	"subscription-storefront/internal/domain/model"
)

// ProductRepository persists downloadable products.
type ProductRepository interface {
	Save(ctx context.Context, tx Tx, p *model.Product) error
	Delete(ctx context.Context, tx Tx, id string) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.Product, error)
	ListAll(ctx context.Context, tx Tx) ([]*model.Product, error)
}
