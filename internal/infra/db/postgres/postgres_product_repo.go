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

var _ repository.ProductRepository = (*productRepo)(nil)

type productRepo struct {
	pool *pgxpool.Pool
}

func NewProductRepo(pool *pgxpool.Pool) *productRepo {
	return &productRepo{pool: pool}
}

const productColumns = `id, name, plan_id, image_path, file_path, file_name, created_at`

func (r *productRepo) Save(ctx context.Context, tx repository.Tx, p *model.Product) error {
	const q = `
INSERT INTO products (id, name, plan_id, image_path, file_path, file_name, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7)
ON CONFLICT (id) DO UPDATE SET
  name=EXCLUDED.name,
  plan_id=EXCLUDED.plan_id,
  image_path=EXCLUDED.image_path,
  file_path=EXCLUDED.file_path,
  file_name=EXCLUDED.file_name;`

	_, err := execSQL(ctx, r.pool, tx, q, p.ID, p.Name, p.PlanID, p.ImagePath, p.FilePath, p.FileName, p.CreatedAt)
	if err != nil {
		return fmt.Errorf("save product: %w", err)
	}
	return nil
}

func (r *productRepo) Delete(ctx context.Context, tx repository.Tx, id string) error {
	tag, err := execSQL(ctx, r.pool, tx, `DELETE FROM products WHERE id=$1;`, id)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *productRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Product, error) {
	row, err := pickRow(ctx, r.pool, tx, `SELECT `+productColumns+` FROM products WHERE id=$1;`, id)
	if err != nil {
		return nil, err
	}
	var p model.Product
	if err := row.Scan(&p.ID, &p.Name, &p.PlanID, &p.ImagePath, &p.FilePath, &p.FileName, &p.CreatedAt); err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return &p, nil
}

func (r *productRepo) ListAll(ctx context.Context, tx repository.Tx) ([]*model.Product, error) {
	rows, err := queryRows(ctx, r.pool, tx, `SELECT `+productColumns+` FROM products ORDER BY created_at DESC;`)
	if err != nil {
		return nil, domain.ErrOperationFailed
	}
	defer rows.Close()

	var out []*model.Product
	for rows.Next() {
		var p model.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.PlanID, &p.ImagePath, &p.FilePath, &p.FileName, &p.CreatedAt); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		out = append(out, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.ErrReadDatabaseRow
	}
	return out, nil
}
