package repository

import (
	"context"
	"errors"
	"fmt"

	"go-inventory-sales/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SaleRepository interface {
	FindAll(ctx context.Context) ([]model.Sale, error)
	FindByID(ctx context.Context, id uint) (*model.Sale, error)

	Create(tx *gorm.DB, sale *model.Sale) error
	FindForUpdate(tx *gorm.DB, id uint) (*model.Sale, error)
	Update(tx *gorm.DB, id uint, fields map[string]interface{}) error
	Delete(tx *gorm.DB, id uint) error
}

type saleRepo struct {
	db *gorm.DB
}

func NewSaleRepo(db *gorm.DB) SaleRepository {
	return &saleRepo{db}
}

func (r *saleRepo) FindAll(ctx context.Context) ([]model.Sale, error) {
	var sales []model.Sale
	err := r.db.WithContext(ctx).Order("date DESC, id DESC").Find(&sales).Error
	return sales, err
}

func (r *saleRepo) FindByID(ctx context.Context, id uint) (*model.Sale, error) {
	return findSale(r.db.WithContext(ctx), id)
}

// Create inserts the sale; items are serialized into the items column.
func (r *saleRepo) Create(tx *gorm.DB, sale *model.Sale) error {
	if err := tx.Create(sale).Error; err != nil {
		return fmt.Errorf("insert sale: %w", err)
	}
	return nil
}

func (r *saleRepo) FindForUpdate(tx *gorm.DB, id uint) (*model.Sale, error) {
	return findSale(tx.Clauses(clause.Locking{Strength: "UPDATE"}), id)
}

func (r *saleRepo) Update(tx *gorm.DB, id uint, fields map[string]interface{}) error {
	result := tx.Model(&model.Sale{}).Where("id = ?", id).Updates(fields)
	if result.Error != nil {
		return fmt.Errorf("update sale %d: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return model.ErrSaleNotFound
	}
	return nil
}

func (r *saleRepo) Delete(tx *gorm.DB, id uint) error {
	result := tx.Delete(&model.Sale{}, id)
	if result.Error != nil {
		return fmt.Errorf("delete sale %d: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return model.ErrSaleNotFound
	}
	return nil
}

func findSale(db *gorm.DB, id uint) (*model.Sale, error) {
	var sale model.Sale
	if err := db.First(&sale, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, model.ErrSaleNotFound
		}
		return nil, fmt.Errorf("find sale %d: %w", id, err)
	}
	return &sale, nil
}
