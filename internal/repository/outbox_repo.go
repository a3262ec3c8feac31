package repository

import (
	"context"
	"fmt"
	"time"

	"go-inventory-sales/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type OutboxRepository interface {
	// Create must be called with the transaction that writes the aggregate.
	Create(tx *gorm.DB, event *model.OutboxEvent) error
	FindUnpublished(ctx context.Context, limit int) ([]model.OutboxEvent, error)
	MarkAsPublished(ctx context.Context, id uuid.UUID) error
}

type outboxRepo struct {
	db *gorm.DB
}

func NewOutboxRepo(db *gorm.DB) OutboxRepository {
	return &outboxRepo{db}
}

func (r *outboxRepo) Create(tx *gorm.DB, event *model.OutboxEvent) error {
	if err := tx.Create(event).Error; err != nil {
		return fmt.Errorf("insert outbox event: %w", err)
	}
	return nil
}

func (r *outboxRepo) FindUnpublished(ctx context.Context, limit int) ([]model.OutboxEvent, error) {
	var events []model.OutboxEvent
	err := r.db.WithContext(ctx).
		Where("published_at IS NULL").
		Order("created_at ASC").
		Limit(limit).
		Find(&events).Error
	if err != nil {
		return nil, fmt.Errorf("find unpublished events: %w", err)
	}
	return events, nil
}

func (r *outboxRepo) MarkAsPublished(ctx context.Context, id uuid.UUID) error {
	err := r.db.WithContext(ctx).Model(&model.OutboxEvent{}).
		Where("id = ?", id).
		Update("published_at", time.Now().UTC()).Error
	if err != nil {
		return fmt.Errorf("mark event %s as published: %w", id, err)
	}
	return nil
}
