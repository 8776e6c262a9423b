package repository

import (
	"context"

	"subscription-storefront/internal/domain/model"
)

// UserRepository persists storefront accounts.
type UserRepository interface {
	Save(ctx context.Context, tx Tx, u *model.User) error
	Delete(ctx context.Context, tx Tx, id string) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.User, error)
	FindByUsername(ctx context.Context, tx Tx, username string) (*model.User, error)
	FindByEmail(ctx context.Context, tx Tx, email string) (*model.User, error)
	CountUsers(ctx context.Context, tx Tx) (int, error)
}
