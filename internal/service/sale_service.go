package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"go-inventory-sales/internal/model"
	"go-inventory-sales/internal/repository"
	"go-inventory-sales/internal/telemetry"
	"go-inventory-sales/internal/ws"
)

const saleAggregate = "sale"

type SaleService interface {
	CreateSale(ctx context.Context, req *CreateSaleRequest) (*model.Sale, error)
	GetSale(ctx context.Context, id uint) (*model.Sale, error)
	ListSales(ctx context.Context) ([]model.Sale, error)
	UpdateSale(ctx context.Context, id uint, req *UpdateSaleRequest) (*model.Sale, error)
	DeleteSale(ctx context.Context, id uint) error
}

type SaleItemRequest struct {
	ProductID int              `json:"product_id"`
	Quantity  int              `json:"quantity"`
	UnitPrice *decimal.Decimal `json:"unit_price"`
}

type CreateSaleRequest struct {
	Date          string            `json:"date" validate:"required"`
	Customer      *string           `json:"customer" validate:"omitempty,max=255"`
	Items         []SaleItemRequest `json:"items" validate:"required"`
	TotalValue    *decimal.Decimal  `json:"total_value" validate:"required"`
	PaymentMethod string            `json:"payment_method" validate:"required,notblank,max=50"`
	Status        string            `json:"status" validate:"required"`
}

// UpdateSaleRequest lists the mutable columns of a sale. Items and total are
// fixed once the sale exists.
type UpdateSaleRequest struct {
	Date          *string `json:"date"`
	Customer      *string `json:"customer" validate:"omitempty,max=255"`
	PaymentMethod *string `json:"payment_method" validate:"omitempty,notblank,max=50"`
	Status        *string `json:"status"`
}

type saleService struct {
	productRepo repository.ProductRepository
	saleRepo    repository.SaleRepository
	outboxRepo  repository.OutboxRepository
	txManager   repository.TransactionManager
	wsHub       *ws.Hub
	log         *slog.Logger

	tracer   trace.Tracer
	created  metric.Int64Counter
	rejected metric.Int64Counter
}

func NewSaleService(
	productRepo repository.ProductRepository,
	saleRepo repository.SaleRepository,
	outboxRepo repository.OutboxRepository,
	txManager repository.TransactionManager,
	hub *ws.Hub,
	tel *telemetry.Providers,
	log *slog.Logger,
) SaleService {
	if tel == nil {
		tel = telemetry.Noop()
	}
	if log == nil {
		log = slog.Default()
	}

	meter := tel.Meter()
	created, err := meter.Int64Counter("sales.created", metric.WithDescription("Sales committed"))
	if err != nil {
		log.Warn("sales.created counter unavailable", slog.Any("error", err))
		created = metricnoop.Int64Counter{}
	}
	rejected, err := meter.Int64Counter("sales.rejected", metric.WithDescription("Sale requests rolled back"))
	if err != nil {
		log.Warn("sales.rejected counter unavailable", slog.Any("error", err))
		rejected = metricnoop.Int64Counter{}
	}

	return &saleService{
		productRepo: productRepo,
		saleRepo:    saleRepo,
		outboxRepo:  outboxRepo,
		txManager:   txManager,
		wsHub:       hub,
		log:         log,
		tracer:      tel.Tracer(),
		created:     created,
		rejected:    rejected,
	}
}

func (s *saleService) CreateSale(ctx context.Context, req *CreateSaleRequest) (*model.Sale, error) {
	ctx, span := s.tracer.Start(ctx, "SaleService.CreateSale")
	defer span.End()

	sale, err := s.createSale(ctx, req)
	if err != nil {
		s.rejected.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", rejectReason(err))))
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	s.created.Add(ctx, 1)
	span.SetAttributes(
		attribute.Int64("sale.id", int64(sale.ID)),
		attribute.Int("sale.items", len(sale.Items)),
		attribute.String("sale.total_value", sale.TotalValue.String()),
	)

	s.wsHub.Publish(ws.ActionSaleCreated, sale)
	return sale, nil
}

func (s *saleService) createSale(ctx context.Context, req *CreateSaleRequest) (*model.Sale, error) {
	date, status, err := validateCreateSale(req)
	if err != nil {
		return nil, err
	}

	var sale *model.Sale
	err = s.txManager.WithTransaction(ctx, func(tx *gorm.DB) error {
		items := make([]model.SaleItem, 0, len(req.Items))
		sum := decimal.Zero

		for _, it := range req.Items {
			product, err := s.productRepo.FindForUpdate(tx, uint(it.ProductID))
			if err != nil {
				return err
			}
			if product.StockQuantity < it.Quantity {
				return insufficientStock(product, it.Quantity)
			}

			ok, err := s.productRepo.DecrementStock(tx, product.ID, it.Quantity)
			if err != nil {
				return err
			}
			if !ok {
				return insufficientStock(product, it.Quantity)
			}

			unitPrice := product.Price
			if it.UnitPrice != nil {
				unitPrice = *it.UnitPrice
			}
			line := unitPrice.Mul(decimal.NewFromInt(int64(it.Quantity)))
			sum = sum.Add(line)

			items = append(items, model.SaleItem{
				ProductID:   product.ID,
				ProductName: product.Name,
				Quantity:    it.Quantity,
				UnitPrice:   unitPrice,
				Total:       line,
			})
		}

		if !sum.Equal(*req.TotalValue) {
			return model.NewValidationError("total_value",
				fmt.Sprintf("must equal the sum of item totals (%s)", sum.StringFixed(2)))
		}

		sale = &model.Sale{
			Date:          date,
			Customer:      trimOptional(req.Customer),
			Items:         datatypes.NewJSONSlice(items),
			TotalValue:    *req.TotalValue,
			PaymentMethod: strings.TrimSpace(req.PaymentMethod),
			Status:        status,
		}
		if err := s.saleRepo.Create(tx, sale); err != nil {
			return err
		}

		return s.appendEvent(tx, model.EventSaleCreated, sale)
	})
	if err != nil {
		return nil, err
	}
	return sale, nil
}

func (s *saleService) GetSale(ctx context.Context, id uint) (*model.Sale, error) {
	return s.saleRepo.FindByID(ctx, id)
}

func (s *saleService) ListSales(ctx context.Context) ([]model.Sale, error) {
	return s.saleRepo.FindAll(ctx)
}

func (s *saleService) UpdateSale(ctx context.Context, id uint, req *UpdateSaleRequest) (*model.Sale, error) {
	ctx, span := s.tracer.Start(ctx, "SaleService.UpdateSale", trace.WithAttributes(attribute.Int64("sale.id", int64(id))))
	defer span.End()

	if err := validateRequest(req); err != nil {
		return nil, err
	}

	fields := map[string]interface{}{}
	if req.Date != nil {
		date, _, err := parseDate("date", *req.Date)
		if err != nil {
			return nil, err
		}
		fields["date"] = date
	}
	if req.Customer != nil {
		fields["customer"] = trimOptional(req.Customer)
	}
	if req.PaymentMethod != nil {
		fields["payment_method"] = strings.TrimSpace(*req.PaymentMethod)
	}
	var newStatus model.SaleStatus
	if req.Status != nil {
		newStatus = model.SaleStatus(*req.Status)
		if !newStatus.Valid() {
			return nil, model.NewValidationError("status", "must be one of [PENDING COMPLETED CANCELLED]")
		}
	}
	if len(fields) == 0 && req.Status == nil {
		return nil, model.NewValidationError("", "no fields to update")
	}

	var updated *model.Sale
	err := s.txManager.WithTransaction(ctx, func(tx *gorm.DB) error {
		current, err := s.saleRepo.FindForUpdate(tx, id)
		if err != nil {
			return err
		}

		cancelling := false
		if req.Status != nil && newStatus != current.Status {
			if current.Status == model.SaleCancelled {
				return model.NewValidationError("status", "a cancelled sale cannot change status")
			}
			fields["status"] = newStatus
			cancelling = newStatus == model.SaleCancelled
		}

		if cancelling {
			if err := s.restock(tx, current); err != nil {
				return err
			}
		}

		if len(fields) > 0 {
			if err := s.saleRepo.Update(tx, id, fields); err != nil {
				return err
			}
		}

		updated, err = s.saleRepo.FindForUpdate(tx, id)
		if err != nil {
			return err
		}

		if cancelling {
			return s.appendEvent(tx, model.EventSaleCancelled, updated)
		}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	s.wsHub.Publish(ws.ActionSaleUpdated, updated)
	return updated, nil
}

func (s *saleService) DeleteSale(ctx context.Context, id uint) error {
	ctx, span := s.tracer.Start(ctx, "SaleService.DeleteSale", trace.WithAttributes(attribute.Int64("sale.id", int64(id))))
	defer span.End()

	err := s.txManager.WithTransaction(ctx, func(tx *gorm.DB) error {
		current, err := s.saleRepo.FindForUpdate(tx, id)
		if err != nil {
			return err
		}

		if current.Status != model.SaleCancelled {
			if err := s.restock(tx, current); err != nil {
				return err
			}
		}

		if err := s.saleRepo.Delete(tx, id); err != nil {
			return err
		}
		return s.appendEvent(tx, model.EventSaleDeleted, current)
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	s.wsHub.Publish(ws.ActionSaleDeleted, map[string]uint{"id": id})
	return nil
}

// restock returns the units of every item to stock. Products deleted since
// the sale are skipped.
func (s *saleService) restock(tx *gorm.DB, sale *model.Sale) error {
	for _, item := range sale.Items {
		ok, err := s.productRepo.IncrementStock(tx, item.ProductID, item.Quantity)
		if err != nil {
			return err
		}
		if !ok {
			s.log.Warn("restock skipped, product no longer exists",
				slog.Uint64("sale_id", uint64(sale.ID)),
				slog.Uint64("product_id", uint64(item.ProductID)),
				slog.Int("quantity", item.Quantity),
			)
		}
	}
	return nil
}

func (s *saleService) appendEvent(tx *gorm.DB, eventType model.EventType, sale *model.Sale) error {
	payload, err := json.Marshal(sale)
	if err != nil {
		return fmt.Errorf("encode %s payload: %w", eventType, err)
	}

	return s.outboxRepo.Create(tx, &model.OutboxEvent{
		AggregateType: saleAggregate,
		AggregateID:   strconv.FormatUint(uint64(sale.ID), 10),
		EventType:     eventType,
		Payload:       datatypes.JSON(payload),
	})
}

// validateCreateSale checks the request before any row is touched.
func validateCreateSale(req *CreateSaleRequest) (time.Time, model.SaleStatus, error) {
	if err := validateRequest(req); err != nil {
		return time.Time{}, "", err
	}
	if len(req.Items) == 0 {
		return time.Time{}, "", model.NewValidationError("items", "must contain at least one item")
	}

	date, _, err := parseDate("date", req.Date)
	if err != nil {
		return time.Time{}, "", err
	}

	status := model.SaleStatus(req.Status)
	if !status.Valid() {
		return time.Time{}, "", model.NewValidationError("status", "must be one of [PENDING COMPLETED CANCELLED]")
	}
	if status == model.SaleCancelled {
		return time.Time{}, "", model.NewValidationError("status", "a sale cannot be created as CANCELLED")
	}
	if err := checkAmount("total_value", req.TotalValue); err != nil {
		return time.Time{}, "", err
	}

	for i, it := range req.Items {
		switch {
		case it.ProductID <= 0:
			return time.Time{}, "", &model.InvalidItemStructureError{Index: i, Reason: "product_id must be a positive integer"}
		case it.Quantity <= 0:
			return time.Time{}, "", &model.InvalidItemStructureError{Index: i, Reason: "quantity must be a positive integer"}
		case it.UnitPrice != nil && amountProblem(*it.UnitPrice) != "":
			return time.Time{}, "", &model.InvalidItemStructureError{Index: i, Reason: "unit_price " + amountProblem(*it.UnitPrice)}
		}
	}
	return date, status, nil
}

func insufficientStock(p *model.Product, requested int) error {
	return &model.InsufficientStockError{
		ProductID:   p.ID,
		ProductName: p.Name,
		Available:   p.StockQuantity,
		Requested:   requested,
	}
}

func trimOptional(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

func rejectReason(err error) string {
	var (
		stockErr *model.InsufficientStockError
		itemErr  *model.InvalidItemStructureError
		valErr   *model.ValidationError
	)
	switch {
	case errors.As(err, &stockErr):
		return "insufficient_stock"
	case errors.Is(err, model.ErrProductNotFound):
		return "product_not_found"
	case errors.As(err, &itemErr), errors.As(err, &valErr):
		return "validation"
	default:
		return "storage"
	}
}
