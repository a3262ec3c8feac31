package repository

import (
	"context"
	"errors"
	"fmt"

	"go-inventory-sales/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProductRepository interface {
	Create(ctx context.Context, product *model.Product) error
	FindAll(ctx context.Context) ([]model.Product, error)
	FindByID(ctx context.Context, id uint) (*model.Product, error)
	Update(ctx context.Context, id uint, fields map[string]interface{}) error
	Delete(ctx context.Context, id uint) error

	// Transactional stock access used by the sale processor
	FindForUpdate(tx *gorm.DB, id uint) (*model.Product, error)
	DecrementStock(tx *gorm.DB, id uint, quantity int) (bool, error)
	IncrementStock(tx *gorm.DB, id uint, quantity int) (bool, error)
}

type productRepo struct {
	db *gorm.DB
}

func NewProductRepo(db *gorm.DB) ProductRepository {
	return &productRepo{db}
}

func (r *productRepo) Create(ctx context.Context, product *model.Product) error {
	return r.db.WithContext(ctx).Create(product).Error
}

func (r *productRepo) FindAll(ctx context.Context) ([]model.Product, error) {
	var products []model.Product
	err := r.db.WithContext(ctx).Order("id ASC").Find(&products).Error
	return products, err
}

func (r *productRepo) FindByID(ctx context.Context, id uint) (*model.Product, error) {
	var product model.Product
	if err := r.db.WithContext(ctx).First(&product, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &model.ProductNotFoundError{ProductID: id}
		}
		return nil, fmt.Errorf("find product %d: %w", id, err)
	}
	return &product, nil
}

// Update writes only the given columns. Callers build fields from an
// enumerated set of column names.
func (r *productRepo) Update(ctx context.Context, id uint, fields map[string]interface{}) error {
	result := r.db.WithContext(ctx).Model(&model.Product{}).Where("id = ?", id).Updates(fields)
	if result.Error != nil {
		return fmt.Errorf("update product %d: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return &model.ProductNotFoundError{ProductID: id}
	}
	return nil
}

func (r *productRepo) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&model.Product{}, id)
	if result.Error != nil {
		return fmt.Errorf("delete product %d: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return &model.ProductNotFoundError{ProductID: id}
	}
	return nil
}

// FindForUpdate loads the product and locks its row until tx ends
func (r *productRepo) FindForUpdate(tx *gorm.DB, id uint) (*model.Product, error) {
	var product model.Product
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&product, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &model.ProductNotFoundError{ProductID: id}
		}
		return nil, fmt.Errorf("lock product %d: %w", id, err)
	}
	return &product, nil
}

// DecrementStock takes quantity units out of stock. It reports false, without
// writing, when fewer than quantity units are available.
func (r *productRepo) DecrementStock(tx *gorm.DB, id uint, quantity int) (bool, error) {
	result := tx.Model(&model.Product{}).
		Where("id = ? AND stock_quantity >= ?", id, quantity).
		Update("stock_quantity", gorm.Expr("stock_quantity - ?", quantity))
	if result.Error != nil {
		return false, fmt.Errorf("decrement stock of product %d: %w", id, result.Error)
	}
	return result.RowsAffected == 1, nil
}

// IncrementStock returns quantity units to stock. It reports false when the
// product no longer exists.
func (r *productRepo) IncrementStock(tx *gorm.DB, id uint, quantity int) (bool, error) {
	result := tx.Model(&model.Product{}).
		Where("id = ?", id).
		Update("stock_quantity", gorm.Expr("stock_quantity + ?", quantity))
	if result.Error != nil {
		return false, fmt.Errorf("increment stock of product %d: %w", id, result.Error)
	}
	return result.RowsAffected == 1, nil
}
