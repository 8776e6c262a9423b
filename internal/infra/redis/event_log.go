package redis

import (
	"context"
	"fmt"
	"time"

	"subscription-storefront/internal/domain"
	"subscription-storefront/internal/domain/ports/repository"
)

var _ repository.EventLog = (*EventLog)(nil)

// EventLog deduplicates webhook deliveries. SETNX on the event id wins the
// race exactly once; replays inside the TTL are rejected.
type EventLog struct {
	client RedisClient
}

func NewEventLog(client RedisClient) *EventLog {
	return &EventLog{client: client}
}

func (l *EventLog) MarkHandled(ctx context.Context, eventID string, ttl time.Duration) error {
	if eventID == "" {
		return domain.ErrInvalidArgument
	}
	ok, err := l.client.SetNX(ctx, fmt.Sprintf("webhook:event:%s", eventID), 1, ttl)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrEventAlreadyHandled
	}
	return nil
}

func (l *EventLog) Unmark(ctx context.Context, eventID string) error {
	if eventID == "" {
		return domain.ErrInvalidArgument
	}
	return l.client.Del(ctx, fmt.Sprintf("webhook:event:%s", eventID))
}
