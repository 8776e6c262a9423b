package redis

import (
	"context"
	"fmt"
	"time"

	"subscription-storefront/internal/domain"
	"subscription-storefront/internal/domain/ports/repository"

	"github.com/go-redis/redis/v8"
)

var _ repository.TokenStore = (*TokenStore)(nil)

// TokenStore keeps activation and password-reset tokens with a TTL. GETDEL
// makes redemption single-use without a second round trip.
type TokenStore struct {
	client RedisClient
}

func NewTokenStore(client RedisClient) *TokenStore {
	return &TokenStore{client: client}
}

func tokenKey(kind repository.TokenKind, code string) string {
	return fmt.Sprintf("token:%s:%s", kind, code)
}

func (s *TokenStore) Put(ctx context.Context, kind repository.TokenKind, code, userID string, ttl time.Duration) error {
	if code == "" || userID == "" {
		return domain.ErrInvalidArgument
	}
	return s.client.Set(ctx, tokenKey(kind, code), userID, ttl)
}

func (s *TokenStore) Redeem(ctx context.Context, kind repository.TokenKind, code string) (string, error) {
	userID, err := s.client.GetDel(ctx, tokenKey(kind, code))
	if err != nil {
		if err == redis.Nil {
			return "", domain.ErrTokenNotFound
		}
		return "", err
	}
	return userID, nil
}
