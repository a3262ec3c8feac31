package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"go-inventory-sales/internal/model"
	"go-inventory-sales/internal/repository"
)

type ReportService interface {
	LowStock(ctx context.Context) (*LowStockReport, error)
	BelowMinimum(ctx context.Context) (*ProductReport, error)
	InventorySummary(ctx context.Context) (*repository.InventorySummary, error)
	SalesByStatus(ctx context.Context) ([]repository.StatusTotal, error)
	SalesInPeriod(ctx context.Context, startDate, endDate string) (*PeriodReport, error)
}

type LowStockReport struct {
	Threshold int             `json:"threshold"`
	Count     int             `json:"count"`
	Products  []model.Product `json:"products"`
}

type ProductReport struct {
	Count    int             `json:"count"`
	Products []model.Product `json:"products"`
}

type Period struct {
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

type PeriodReport struct {
	Period     Period          `json:"period"`
	TotalSales int             `json:"total_sales"`
	TotalValue decimal.Decimal `json:"total_value"`
	Sales      []model.Sale    `json:"sales"`
}

type reportService struct {
	reportRepo        repository.ReportRepository
	lowStockThreshold int
}

func NewReportService(reportRepo repository.ReportRepository, lowStockThreshold int) ReportService {
	return &reportService{reportRepo: reportRepo, lowStockThreshold: lowStockThreshold}
}

func (s *reportService) LowStock(ctx context.Context) (*LowStockReport, error) {
	products, err := s.reportRepo.LowStockProducts(ctx, s.lowStockThreshold)
	if err != nil {
		return nil, err
	}
	return &LowStockReport{Threshold: s.lowStockThreshold, Count: len(products), Products: nonNil(products)}, nil
}

func (s *reportService) BelowMinimum(ctx context.Context) (*ProductReport, error) {
	products, err := s.reportRepo.BelowMinimumProducts(ctx)
	if err != nil {
		return nil, err
	}
	return &ProductReport{Count: len(products), Products: nonNil(products)}, nil
}

func (s *reportService) InventorySummary(ctx context.Context) (*repository.InventorySummary, error) {
	return s.reportRepo.InventorySummary(ctx, s.lowStockThreshold)
}

func (s *reportService) SalesByStatus(ctx context.Context) ([]repository.StatusTotal, error) {
	return s.reportRepo.SalesByStatus(ctx)
}

// SalesInPeriod lists sales between the two dates. A date-only end covers
// that whole day.
func (s *reportService) SalesInPeriod(ctx context.Context, startDate, endDate string) (*PeriodReport, error) {
	start, _, err := parseDate("startDate", startDate)
	if err != nil {
		return nil, err
	}
	end, endDateOnly, err := parseDate("endDate", endDate)
	if err != nil {
		return nil, err
	}
	if end.Before(start) {
		return nil, model.NewValidationError("endDate", "must not be before startDate")
	}

	endExclusive := end.Add(time.Nanosecond)
	if endDateOnly {
		endExclusive = end.AddDate(0, 0, 1)
	}

	sales, err := s.reportRepo.SalesInPeriod(ctx, start, endExclusive)
	if err != nil {
		return nil, err
	}

	total := decimal.Zero
	for _, sale := range sales {
		total = total.Add(sale.TotalValue)
	}

	return &PeriodReport{
		Period:     Period{StartDate: startDate, EndDate: endDate},
		TotalSales: len(sales),
		TotalValue: total,
		Sales:      nonNil(sales),
	}, nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
