package service

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"

	"go-inventory-sales/internal/model"
	"go-inventory-sales/internal/repository"
	"go-inventory-sales/internal/ws"
)

type CatalogService interface {
	CreateProduct(ctx context.Context, req *CreateProductRequest) (*model.Product, error)
	GetProduct(ctx context.Context, id uint) (*model.Product, error)
	ListProducts(ctx context.Context) ([]model.Product, error)
	UpdateProduct(ctx context.Context, id uint, req *UpdateProductRequest) (*model.Product, error)
	DeleteProduct(ctx context.Context, id uint) error
}

type CreateProductRequest struct {
	Name             string           `json:"name" validate:"required,notblank,max=255"`
	Description      *string          `json:"description"`
	Category         *string          `json:"category" validate:"omitempty,max=100"`
	Subcategory      *string          `json:"subcategory" validate:"omitempty,max=100"`
	Brand            *string          `json:"brand" validate:"omitempty,max=100"`
	Model            *string          `json:"model" validate:"omitempty,max=100"`
	Material         *string          `json:"material" validate:"omitempty,max=100"`
	Color            *string          `json:"color" validate:"omitempty,max=50"`
	Size             *string          `json:"size" validate:"omitempty,max=50"`
	StockQuantity    *int             `json:"stock_quantity" validate:"required,gte=0"`
	MinimumStock     *int             `json:"minimum_stock" validate:"omitempty,gte=0"`
	Price            *decimal.Decimal `json:"price" validate:"required"`
	PromotionalPrice *decimal.Decimal `json:"promotional_price"`
	Weight           *float64         `json:"weight" validate:"omitempty,gte=0"`
	Images           []string         `json:"images" validate:"omitempty,dive,notblank"`
	Active           *bool            `json:"active" validate:"required"`
}

// UpdateProductRequest lists every column a caller may change. Nil means unchanged.
type UpdateProductRequest struct {
	Name             *string          `json:"name" validate:"omitempty,notblank,max=255"`
	Description      *string          `json:"description"`
	Category         *string          `json:"category" validate:"omitempty,max=100"`
	Subcategory      *string          `json:"subcategory" validate:"omitempty,max=100"`
	Brand            *string          `json:"brand" validate:"omitempty,max=100"`
	Model            *string          `json:"model" validate:"omitempty,max=100"`
	Material         *string          `json:"material" validate:"omitempty,max=100"`
	Color            *string          `json:"color" validate:"omitempty,max=50"`
	Size             *string          `json:"size" validate:"omitempty,max=50"`
	StockQuantity    *int             `json:"stock_quantity" validate:"omitempty,gte=0"`
	MinimumStock     *int             `json:"minimum_stock" validate:"omitempty,gte=0"`
	Price            *decimal.Decimal `json:"price"`
	PromotionalPrice *decimal.Decimal `json:"promotional_price"`
	Weight           *float64         `json:"weight" validate:"omitempty,gte=0"`
	Images           []string         `json:"images" validate:"omitempty,dive,notblank"`
	Active           *bool            `json:"active"`
}

// fields maps the set request fields to their column names.
func (r *UpdateProductRequest) fields() map[string]interface{} {
	fields := map[string]interface{}{}
	setString := func(column string, v *string) {
		if v != nil {
			fields[column] = *v
		}
	}

	if r.Name != nil {
		fields["name"] = strings.TrimSpace(*r.Name)
	}
	setString("description", r.Description)
	setString("category", r.Category)
	setString("subcategory", r.Subcategory)
	setString("brand", r.Brand)
	setString("model", r.Model)
	setString("material", r.Material)
	setString("color", r.Color)
	setString("size", r.Size)
	if r.StockQuantity != nil {
		fields["stock_quantity"] = *r.StockQuantity
	}
	if r.MinimumStock != nil {
		fields["minimum_stock"] = *r.MinimumStock
	}
	if r.Price != nil {
		fields["price"] = *r.Price
	}
	if r.PromotionalPrice != nil {
		fields["promotional_price"] = *r.PromotionalPrice
	}
	if r.Weight != nil {
		fields["weight"] = *r.Weight
	}
	if r.Images != nil {
		fields["images"] = datatypes.NewJSONSlice(r.Images)
	}
	if r.Active != nil {
		fields["active"] = *r.Active
	}
	return fields
}

type catalogService struct {
	productRepo repository.ProductRepository
	wsHub       *ws.Hub
}

func NewCatalogService(productRepo repository.ProductRepository, hub *ws.Hub) CatalogService {
	return &catalogService{
		productRepo: productRepo,
		wsHub:       hub,
	}
}

func (s *catalogService) CreateProduct(ctx context.Context, req *CreateProductRequest) (*model.Product, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	if err := checkAmount("price", req.Price); err != nil {
		return nil, err
	}
	if err := checkAmount("promotional_price", req.PromotionalPrice); err != nil {
		return nil, err
	}

	images := req.Images
	if images == nil {
		images = []string{}
	}
	product := &model.Product{
		Name:             strings.TrimSpace(req.Name),
		Description:      req.Description,
		Category:         req.Category,
		Subcategory:      req.Subcategory,
		Brand:            req.Brand,
		Model:            req.Model,
		Material:         req.Material,
		Color:            req.Color,
		Size:             req.Size,
		StockQuantity:    *req.StockQuantity,
		Price:            *req.Price,
		PromotionalPrice: req.PromotionalPrice,
		Weight:           req.Weight,
		Images:           datatypes.NewJSONSlice(images),
		RegisteredAt:     time.Now().UTC(),
		Active:           *req.Active,
	}
	if req.MinimumStock != nil {
		product.MinimumStock = *req.MinimumStock
	}

	if err := s.productRepo.Create(ctx, product); err != nil {
		return nil, err
	}

	s.wsHub.Publish(ws.ActionProductCreated, product)
	return product, nil
}

func (s *catalogService) GetProduct(ctx context.Context, id uint) (*model.Product, error) {
	return s.productRepo.FindByID(ctx, id)
}

func (s *catalogService) ListProducts(ctx context.Context) ([]model.Product, error) {
	return s.productRepo.FindAll(ctx)
}

func (s *catalogService) UpdateProduct(ctx context.Context, id uint, req *UpdateProductRequest) (*model.Product, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	if err := checkAmount("price", req.Price); err != nil {
		return nil, err
	}
	if err := checkAmount("promotional_price", req.PromotionalPrice); err != nil {
		return nil, err
	}

	fields := req.fields()
	if len(fields) == 0 {
		return nil, model.NewValidationError("", "no fields to update")
	}

	if err := s.productRepo.Update(ctx, id, fields); err != nil {
		return nil, err
	}

	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	s.wsHub.Publish(ws.ActionProductUpdated, product)
	return product, nil
}

func (s *catalogService) DeleteProduct(ctx context.Context, id uint) error {
	if err := s.productRepo.Delete(ctx, id); err != nil {
		return err
	}

	s.wsHub.Publish(ws.ActionProductDeleted, map[string]uint{"id": id})
	return nil
}
