package usecase

import (
	"context"
	"hash/fnv"

	"github.com/jackc/pgx/v4"

	"subscription-storefront/internal/domain/ports/repository"
)

func hashToInt64(s string) int64 {
	h := fnv.New64a()
	h.Write([]byte(s))
	return int64(h.Sum64() & ((1 << 63) - 1))
}

// lockUser takes a per-user advisory xact lock so concurrent requests for the
// same user serialize. No-op when the transaction is not backed by Postgres
// (in-memory repos in tests).
func lockUser(ctx context.Context, tx repository.Tx, userID string) error {
	pgxTx, ok := tx.(pgx.Tx)
	if !ok {
		return nil
	}
	_, err := pgxTx.Exec(ctx, "SELECT pg_advisory_xact_lock($1)", hashToInt64(userID))
	return err
}
