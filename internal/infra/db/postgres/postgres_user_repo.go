package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"subscription-storefront/internal/domain"
	"subscription-storefront/internal/domain/model"
	"subscription-storefront/internal/domain/ports/repository"
)

var _ repository.UserRepository = (*userRepo)(nil)

type userRepo struct {
	pool *pgxpool.Pool
}

func NewUserRepo(pool *pgxpool.Pool) *userRepo {
	return &userRepo{pool: pool}
}

const userColumns = `id, username, email, password_hash, is_active, is_admin, registered_at, last_login_at`

func (r *userRepo) Save(ctx context.Context, tx repository.Tx, u *model.User) error {
	const q = `
INSERT INTO users (id, username, email, password_hash, is_active, is_admin, registered_at, last_login_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
ON CONFLICT (id) DO UPDATE SET
  username=$2, email=$3, password_hash=$4, is_active=$5, is_admin=$6, last_login_at=$8;`

	_, err := execSQL(ctx, r.pool, tx, q, u.ID, u.Username, u.Email, u.PasswordHash, u.IsActive, u.IsAdmin, u.RegisteredAt, u.LastLoginAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrAlreadyExists
		}
		return fmt.Errorf("save user: %w", err)
	}
	return nil
}

func (r *userRepo) Delete(ctx context.Context, tx repository.Tx, id string) error {
	_, err := execSQL(ctx, r.pool, tx, `DELETE FROM users WHERE id=$1;`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return nil
}

func (r *userRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.User, error) {
	return r.queryOne(ctx, tx, `SELECT `+userColumns+` FROM users WHERE id=$1;`, id)
}

func (r *userRepo) FindByUsername(ctx context.Context, tx repository.Tx, username string) (*model.User, error) {
	return r.queryOne(ctx, tx, `SELECT `+userColumns+` FROM users WHERE username=$1;`, username)
}

func (r *userRepo) FindByEmail(ctx context.Context, tx repository.Tx, email string) (*model.User, error) {
	return r.queryOne(ctx, tx, `SELECT `+userColumns+` FROM users WHERE email=$1;`, email)
}

func (r *userRepo) CountUsers(ctx context.Context, tx repository.Tx) (int, error) {
	row, err := pickRow(ctx, r.pool, tx, `SELECT COUNT(*) FROM users;`)
	if err != nil {
		return 0, err
	}
	var n int
	if err := row.Scan(&n); err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return n, nil
}

func (r *userRepo) queryOne(ctx context.Context, tx repository.Tx, sql string, args ...interface{}) (*model.User, error) {
	row, err := pickRow(ctx, r.pool, tx, sql, args...)
	if err != nil {
		return nil, err
	}
	var u model.User
	if err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.IsActive, &u.IsAdmin, &u.RegisteredAt, &u.LastLoginAt); err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return &u, nil
}
