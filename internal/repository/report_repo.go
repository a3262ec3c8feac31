package repository

import (
	"context"
	"fmt"
	"time"

	"go-inventory-sales/internal/model"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type ReportRepository interface {
	LowStockProducts(ctx context.Context, threshold int) ([]model.Product, error)
	BelowMinimumProducts(ctx context.Context) ([]model.Product, error)
	SalesByStatus(ctx context.Context) ([]StatusTotal, error)
	SalesInPeriod(ctx context.Context, start, end time.Time) ([]model.Sale, error)
	InventorySummary(ctx context.Context, lowStockThreshold int) (*InventorySummary, error)
}

// StatusTotal aggregates the sales sharing one status
type StatusTotal struct {
	Status model.SaleStatus `json:"status"`
	Count  int64            `json:"count"`
	Total  decimal.Decimal  `json:"total"`
}

// InventorySummary is the catalog overview shown on the dashboard
type InventorySummary struct {
	TotalProducts  int64           `json:"total_products"`
	ActiveProducts int64           `json:"active_products"`
	LowStockCount  int64           `json:"low_stock_count"`
	TotalUnits     int64           `json:"total_units"`
	TotalValuation decimal.Decimal `json:"total_valuation"`
}

type reportRepo struct {
	db *gorm.DB
}

func NewReportRepo(db *gorm.DB) ReportRepository {
	return &reportRepo{db}
}

func (r *reportRepo) LowStockProducts(ctx context.Context, threshold int) ([]model.Product, error) {
	var products []model.Product
	err := r.db.WithContext(ctx).
		Where("active = ? AND stock_quantity <= ?", true, threshold).
		Order("stock_quantity ASC, id ASC").
		Find(&products).Error
	return products, err
}

func (r *reportRepo) BelowMinimumProducts(ctx context.Context) ([]model.Product, error) {
	var products []model.Product
	err := r.db.WithContext(ctx).
		Where("active = ? AND minimum_stock > 0 AND stock_quantity <= minimum_stock", true).
		Order("stock_quantity ASC, id ASC").
		Find(&products).Error
	return products, err
}

func (r *reportRepo) SalesByStatus(ctx context.Context) ([]StatusTotal, error) {
	rows, err := r.db.WithContext(ctx).Model(&model.Sale{}).
		Select("status, COUNT(*), COALESCE(SUM(total_value), 0)").
		Group("status").
		Order("status ASC").
		Rows()
	if err != nil {
		return nil, fmt.Errorf("sales by status: %w", err)
	}
	defer rows.Close()

	results := []StatusTotal{}
	for rows.Next() {
		var data StatusTotal
		if err := rows.Scan(&data.Status, &data.Count, &data.Total); err != nil {
			return nil, err
		}
		// SQLite sums numeric columns as REAL
		data.Total = data.Total.Round(2)
		results = append(results, data)
	}
	return results, rows.Err()
}

// SalesInPeriod returns sales with start <= date < end, newest first
func (r *reportRepo) SalesInPeriod(ctx context.Context, start, end time.Time) ([]model.Sale, error) {
	var sales []model.Sale
	err := r.db.WithContext(ctx).
		Where("date >= ? AND date < ?", start.UTC(), end.UTC()).
		Order("date DESC, id DESC").
		Find(&sales).Error
	return sales, err
}

func (r *reportRepo) InventorySummary(ctx context.Context, lowStockThreshold int) (*InventorySummary, error) {
	var stats InventorySummary
	db := r.db.WithContext(ctx)

	if err := db.Model(&model.Product{}).Count(&stats.TotalProducts).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&model.Product{}).Where("active = ?", true).Count(&stats.ActiveProducts).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&model.Product{}).
		Where("active = ? AND stock_quantity <= ?", true, lowStockThreshold).
		Count(&stats.LowStockCount).Error; err != nil {
		return nil, err
	}

	err := db.Model(&model.Product{}).
		Select("COALESCE(SUM(stock_quantity), 0), COALESCE(SUM(stock_quantity * price), 0)").
		Row().
		Scan(&stats.TotalUnits, &stats.TotalValuation)
	if err != nil {
		return nil, fmt.Errorf("inventory valuation: %w", err)
	}
	stats.TotalValuation = stats.TotalValuation.Round(2)

	return &stats, nil
}
