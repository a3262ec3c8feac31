package model

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

func init() {
	// Prices go over the wire as JSON numbers, not quoted strings.
	decimal.MarshalJSONWithoutQuotes = true
}

type Product struct {
	ID          uint    `gorm:"primaryKey" json:"id"`
	Name        string  `gorm:"type:varchar(255);not null" json:"name"`
	Description *string `gorm:"type:text" json:"description,omitempty"`
	Category    *string `gorm:"type:varchar(100);index" json:"category,omitempty"`
	Subcategory *string `gorm:"type:varchar(100)" json:"subcategory,omitempty"`
	Brand       *string `gorm:"type:varchar(100)" json:"brand,omitempty"`
	Model       *string `gorm:"type:varchar(100)" json:"model,omitempty"`
	Material    *string `gorm:"type:varchar(100)" json:"material,omitempty"`
	Color       *string `gorm:"type:varchar(50)" json:"color,omitempty"`
	Size        *string `gorm:"type:varchar(50)" json:"size,omitempty"`

	// Stock is decremented only by the sale processor; direct edits go through the catalog.
	StockQuantity int `gorm:"not null;check:chk_products_stock_non_negative,stock_quantity >= 0" json:"stock_quantity"`
	MinimumStock  int `gorm:"not null;default:0" json:"minimum_stock"`

	Price            decimal.Decimal  `gorm:"type:numeric(12,2);not null" json:"price"`
	PromotionalPrice *decimal.Decimal `gorm:"type:numeric(12,2)" json:"promotional_price,omitempty"`
	Weight           *float64         `json:"weight,omitempty"`

	// Images keeps the caller's order; serialized as JSON text in a single column.
	Images datatypes.JSONSlice[string] `json:"images"`

	RegisteredAt time.Time `gorm:"not null" json:"registered_at"`
	Active       bool      `gorm:"not null" json:"active"`
	UpdatedAt    time.Time `json:"updated_at"`
}
