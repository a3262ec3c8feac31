package service

import (
	"context"
	"log/slog"

	"go-inventory-sales/internal/model"
	"go-inventory-sales/internal/repository"
)

// EventPublisher delivers one outbox event to the message broker.
type EventPublisher interface {
	Publish(ctx context.Context, event model.OutboxEvent) error
}

type OutboxService interface {
	// ProcessUnpublishedEvents relays up to limit pending events and returns
	// how many were published.
	ProcessUnpublishedEvents(ctx context.Context, limit int) (int, error)
}

type outboxService struct {
	outboxRepo repository.OutboxRepository
	publisher  EventPublisher
	log        *slog.Logger
}

func NewOutboxService(outboxRepo repository.OutboxRepository, publisher EventPublisher, log *slog.Logger) OutboxService {
	if log == nil {
		log = slog.Default()
	}
	return &outboxService{
		outboxRepo: outboxRepo,
		publisher:  publisher,
		log:        log,
	}
}

func (s *outboxService) ProcessUnpublishedEvents(ctx context.Context, limit int) (int, error) {
	events, err := s.outboxRepo.FindUnpublished(ctx, limit)
	if err != nil {
		return 0, err
	}

	published := 0
	for _, event := range events {
		if err := s.publisher.Publish(ctx, event); err != nil {
			s.log.Error("failed to publish event",
				slog.String("event_id", event.ID.String()),
				slog.String("event_type", string(event.EventType)),
				slog.Any("error", err))
			continue
		}

		if err := s.outboxRepo.MarkAsPublished(ctx, event.ID); err != nil {
			s.log.Error("failed to mark event as published",
				slog.String("event_id", event.ID.String()),
				slog.Any("error", err))
			continue
		}

		published++
		s.log.Debug("event published",
			slog.String("event_id", event.ID.String()),
			slog.String("event_type", string(event.EventType)),
			slog.String("aggregate_id", event.AggregateID))
	}

	return published, nil
}
