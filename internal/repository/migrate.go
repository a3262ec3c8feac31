package repository

import (
	"go-inventory-sales/internal/model"

	"gorm.io/gorm"
)

// AutoMigrate creates or updates the schema. Safe to run on every start.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&model.Product{}, &model.Sale{}, &model.User{}, &model.OutboxEvent{})
}
