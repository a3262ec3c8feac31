// Package stream relays outbox events to a Redis stream.
package stream

import (
	"context"
	"fmt"

	"github.com/redis/rueidis"

	"go-inventory-sales/internal/model"
)

// RedisPublisher appends events to a Redis stream with XADD.
type RedisPublisher struct {
	client rueidis.Client
	stream string
}

func NewRedisPublisher(client rueidis.Client, stream string) *RedisPublisher {
	return &RedisPublisher{client: client, stream: stream}
}

// NewClient connects to the Redis server at addr.
func NewClient(addr string) (rueidis.Client, error) {
	client, err := rueidis.NewClient(rueidis.ClientOption{
		InitAddress: []string{addr},
	})
	if err != nil {
		return nil, fmt.Errorf("connect to redis %s: %w", addr, err)
	}
	return client, nil
}

func (p *RedisPublisher) Stream() string {
	return p.stream
}

func (p *RedisPublisher) Publish(ctx context.Context, event model.OutboxEvent) error {
	cmd := p.client.B().Xadd().Key(p.stream).Id("*").
		FieldValue().FieldValue("event_type", string(event.EventType)).
		FieldValue("aggregate_id", event.AggregateID).
		FieldValue("payload", string(event.Payload)).
		Build()

	if err := p.client.Do(ctx, cmd).Error(); err != nil {
		return fmt.Errorf("xadd %s: %w", p.stream, err)
	}
	return nil
}
