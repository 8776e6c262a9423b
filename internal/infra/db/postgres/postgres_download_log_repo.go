package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"

	"subscription-storefront/internal/domain"
	"subscription-storefront/internal/domain/model"
	"subscription-storefront/internal/domain/ports/repository"
)

var _ repository.DownloadLogRepository = (*downloadLogRepo)(nil)

// downloadLogRepo is append-only: rows are never updated or deleted, the
// quota check only ever counts them.
type downloadLogRepo struct {
	pool *pgxpool.Pool
}

func NewDownloadLogRepo(pool *pgxpool.Pool) *downloadLogRepo {
	return &downloadLogRepo{pool: pool}
}

func (r *downloadLogRepo) Append(ctx context.Context, tx repository.Tx, l *model.DownloadLog) error {
	const q = `
INSERT INTO user_download_logs (id, user_id, product_id, day, created_at)
VALUES ($1,$2,$3,$4,$5);`

	_, err := execSQL(ctx, r.pool, tx, q, l.ID, l.UserID, l.ProductID, l.Day, l.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrAlreadyExists
		}
		return fmt.Errorf("append download log: %w", err)
	}
	return nil
}

func (r *downloadLogRepo) CountByUserAndDay(ctx context.Context, tx repository.Tx, userID string, day time.Time) (int, error) {
	row, err := pickRow(ctx, r.pool, tx, `SELECT COUNT(*) FROM user_download_logs WHERE user_id=$1 AND day=$2;`, userID, day)
	if err != nil {
		return 0, err
	}
	var n int
	if err := row.Scan(&n); err != nil {
		return 0, domain.ErrReadDatabaseRow
	}
	return n, nil
}

func (r *downloadLogRepo) CountByDay(ctx context.Context, tx repository.Tx, day time.Time) (int, error) {
	row, err := pickRow(ctx, r.pool, tx, `SELECT COUNT(*) FROM user_download_logs WHERE day=$1;`, day)
	if err != nil {
		return 0, err
	}
	var n int
	if err := row.Scan(&n); err != nil {
		return 0, domain.ErrReadDatabaseRow
	}
	return n, nil
}

func (r *downloadLogRepo) ListByUser(ctx context.Context, tx repository.Tx, userID string, offset, limit int) ([]*model.DownloadLog, error) {
	const q = `
SELECT id, user_id, product_id, day, created_at
  FROM user_download_logs
 WHERE user_id=$1
 ORDER BY id DESC
 OFFSET $2 LIMIT $3;`
	rows, err := queryRows(ctx, r.pool, tx, q, userID, offset, limit)
	if err != nil {
		return nil, domain.ErrOperationFailed
	}
	defer rows.Close()

	var out []*model.DownloadLog
	for rows.Next() {
		var l model.DownloadLog
		if err := rows.Scan(&l.ID, &l.UserID, &l.ProductID, &l.Day, &l.CreatedAt); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		out = append(out, &l)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.ErrReadDatabaseRow
	}
	return out, nil
}
