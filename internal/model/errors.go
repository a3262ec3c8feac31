package model

import (
	"errors"
	"fmt"
)

var (
	// ErrProductNotFound is returned when a product ID does not exist.
	ErrProductNotFound = errors.New("product not found")
	// ErrSaleNotFound is returned when a sale ID does not exist.
	ErrSaleNotFound = errors.New("sale not found")
	// ErrUserNotFound is returned when no user is registered under an email.
	ErrUserNotFound = errors.New("user not found")
	// ErrAccessPending is returned while an identity waits for approval.
	ErrAccessPending = errors.New("access pending administrator approval")
	// ErrInvalidToken is returned when the identity provider rejects a token.
	ErrInvalidToken = errors.New("invalid token")
)

// ValidationError reports a missing or malformed request field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// NewValidationError builds a ValidationError
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// InvalidItemStructureError reports a malformed sale line item.
type InvalidItemStructureError struct {
	Index  int
	Reason string
}

func (e *InvalidItemStructureError) Error() string {
	return fmt.Sprintf("invalid item at position %d: %s", e.Index, e.Reason)
}

// InsufficientStockError is returned when a sale asks for more units than are in stock.
type InsufficientStockError struct {
	ProductID   uint
	ProductName string
	Available   int
	Requested   int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product '%s': available %d, requested %d",
		e.ProductName, e.Available, e.Requested)
}

// ProductNotFoundError carries the missing product ID and matches ErrProductNotFound.
type ProductNotFoundError struct {
	ProductID uint
}

func (e *ProductNotFoundError) Error() string {
	return fmt.Sprintf("product %d not found", e.ProductID)
}

func (e *ProductNotFoundError) Is(target error) bool {
	return target == ErrProductNotFound
}
