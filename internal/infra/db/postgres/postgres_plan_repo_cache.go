package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"subscription-storefront/internal/domain/model"
	"subscription-storefront/internal/domain/ports/repository"
	"subscription-storefront/internal/infra/metrics"
	red "subscription-storefront/internal/infra/redis"
)

var _ repository.SubscriptionPlanRepository = (*planRepoCacheDecorator)(nil)

// planRepoCacheDecorator caches plan reads in Redis. Plans change rarely and
// are read on every download entitlement check, so this is the hottest read
// path in the service.
type planRepoCacheDecorator struct {
	inner repository.SubscriptionPlanRepository
	cache red.RedisClient
	ttl   time.Duration
}

func NewPlanRepoCacheDecorator(inner repository.SubscriptionPlanRepository, cache red.RedisClient) repository.SubscriptionPlanRepository {
	return &planRepoCacheDecorator{
		inner: inner,
		cache: cache,
		ttl:   1 * time.Hour,
	}
}

func (d *planRepoCacheDecorator) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.SubscriptionPlan, error) {
	// Reads inside a transaction must see the row the transaction sees, not
	// a cached copy that may predate an admin edit.
	if tx != nil {
		return d.inner.FindByID(ctx, tx, id)
	}

	key := fmt.Sprintf("plan:%s", id)
	val, err := d.cache.Get(ctx, key)
	if err == nil {
		metrics.IncCacheRequest("plan", "hit")
		var plan model.SubscriptionPlan
		if json.Unmarshal([]byte(val), &plan) == nil {
			return &plan, nil
		}
	} else if err != redis.Nil {
		// Redis is degraded; fall through to the database.
	}

	metrics.IncCacheRequest("plan", "miss")
	plan, err := d.inner.FindByID(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if plan != nil {
		bytes, _ := json.Marshal(plan)
		_ = d.cache.Set(ctx, key, bytes, d.ttl)
	}
	return plan, nil
}

func (d *planRepoCacheDecorator) FindByName(ctx context.Context, tx repository.Tx, name string) (*model.SubscriptionPlan, error) {
	// Name lookups are rare (registration Free-plan fetch); skip the cache.
	return d.inner.FindByName(ctx, tx, name)
}

func (d *planRepoCacheDecorator) FindByStripePriceID(ctx context.Context, tx repository.Tx, priceID string) (*model.SubscriptionPlan, error) {
	return d.inner.FindByStripePriceID(ctx, tx, priceID)
}

// Write operations invalidate the per-plan key and the list key.
func (d *planRepoCacheDecorator) Save(ctx context.Context, tx repository.Tx, plan *model.SubscriptionPlan) error {
	_ = d.cache.Del(ctx, fmt.Sprintf("plan:%s", plan.ID), "plans:all")
	return d.inner.Save(ctx, tx, plan)
}

func (d *planRepoCacheDecorator) Delete(ctx context.Context, tx repository.Tx, id string) error {
	_ = d.cache.Del(ctx, fmt.Sprintf("plan:%s", id), "plans:all")
	return d.inner.Delete(ctx, tx, id)
}

func (d *planRepoCacheDecorator) ListAll(ctx context.Context, tx repository.Tx) ([]*model.SubscriptionPlan, error) {
	if tx != nil {
		return d.inner.ListAll(ctx, tx)
	}

	const key = "plans:all"
	val, err := d.cache.Get(ctx, key)
	if err == nil {
		metrics.IncCacheRequest("plan_list", "hit")
		var plans []*model.SubscriptionPlan
		if json.Unmarshal([]byte(val), &plans) == nil {
			return plans, nil
		}
	}

	metrics.IncCacheRequest("plan_list", "miss")
	plans, err := d.inner.ListAll(ctx, tx)
	if err != nil {
		return nil, err
	}
	if len(plans) > 0 {
		bytes, _ := json.Marshal(plans)
		_ = d.cache.Set(ctx, key, bytes, d.ttl)
	}
	return plans, nil
}
