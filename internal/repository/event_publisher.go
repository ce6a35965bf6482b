package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/stemsi/exsim-backend/internal/config"
	"github.com/stemsi/exsim-backend/internal/model"
)

// EventPublisher fans session events out over Redis PubSub.
type EventPublisher struct {
	rdb *redis.Client
}

// NewEventPublisher creates a new EventPublisher.
func NewEventPublisher(rdb *redis.Client) *EventPublisher {
	return &EventPublisher{rdb: rdb}
}

// Publish sends the event on the owner's channel.
func (p *EventPublisher) Publish(ctx context.Context, event model.SessionEvent) error {
	raw, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	return p.rdb.Publish(ctx, config.CacheKey.ExamEventsChannel(event.OwnerID), raw).Err()
}
