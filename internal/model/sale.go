package model

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

type SaleStatus string

const (
	SalePending   SaleStatus = "PENDING"
	SaleCompleted SaleStatus = "COMPLETED"
	SaleCancelled SaleStatus = "CANCELLED"
)

// Valid reports whether s is one of the known sale statuses.
func (s SaleStatus) Valid() bool {
	switch s {
	case SalePending, SaleCompleted, SaleCancelled:
		return true
	}
	return false
}

// SaleItem is a line of a sale. It has no identity of its own and is stored
// inside the parent sale's items column.
type SaleItem struct {
	ProductID   uint            `json:"product_id"`
	ProductName string          `json:"product_name"` // Snapshot at sale time
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Total       decimal.Decimal `json:"total"`
}

type Sale struct {
	ID            uint                          `gorm:"primaryKey" json:"id"`
	Date          time.Time                     `gorm:"not null;index" json:"date"`
	Customer      *string                       `gorm:"type:varchar(255)" json:"customer"`
	Items         datatypes.JSONSlice[SaleItem] `gorm:"not null" json:"items"`
	TotalValue    decimal.Decimal               `gorm:"type:numeric(12,2);not null" json:"total_value"`
	PaymentMethod string                        `gorm:"type:varchar(50);not null" json:"payment_method"`
	Status        SaleStatus                    `gorm:"type:varchar(20);not null;index" json:"status"`
	CreatedAt     time.Time                     `json:"created_at"`
	UpdatedAt     time.Time                     `json:"updated_at"`
}
