package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type EventType string

const (
	EventSaleCreated   EventType = "sale.created"
	EventSaleCancelled EventType = "sale.cancelled"
	EventSaleDeleted   EventType = "sale.deleted"
)

// OutboxEvent is written in the same transaction as the change it describes
// and relayed to the event stream by the publisher.
type OutboxEvent struct {
	ID            uuid.UUID      `gorm:"type:varchar(36);primaryKey" json:"id"`
	AggregateType string         `gorm:"type:varchar(50);not null" json:"aggregate_type"`
	AggregateID   string         `gorm:"type:varchar(64);not null;index" json:"aggregate_id"`
	EventType     EventType      `gorm:"type:varchar(50);not null" json:"event_type"`
	Payload       datatypes.JSON `json:"payload"`
	CreatedAt     time.Time      `gorm:"index" json:"created_at"`
	PublishedAt   *time.Time     `gorm:"index" json:"published_at"`
}

// BeforeCreate assigns the event ID
func (e *OutboxEvent) BeforeCreate(tx *gorm.DB) (err error) {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return
}
