package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"go-inventory-sales/internal/model"
	"go-inventory-sales/pkg/validator"
)

const dateOnlyLayout = "2006-01-02"

// validateRequest runs the struct tags and reports the first failure.
func validateRequest(req interface{}) error {
	errs := validator.ValidateStruct(req)
	if len(errs) == 0 {
		return nil
	}
	first := errs[0]
	return model.NewValidationError(first.FailedField, tagMessage(first.Tag, first.Value))
}

func tagMessage(tag, param string) string {
	switch tag {
	case "required":
		return "is required"
	case "notblank":
		return "must not be blank"
	case "gte":
		return fmt.Sprintf("must be greater than or equal to %s", param)
	case "gt":
		return fmt.Sprintf("must be greater than %s", param)
	case "max":
		return fmt.Sprintf("must be at most %s characters", param)
	case "email":
		return "must be a valid email address"
	case "oneof":
		return fmt.Sprintf("must be one of [%s]", param)
	default:
		return fmt.Sprintf("failed on '%s'", tag)
	}
}

// amountProblem describes why d cannot be stored in a numeric(12,2) money column.
func amountProblem(d decimal.Decimal) string {
	switch {
	case d.IsNegative():
		return "must be greater than or equal to 0"
	case !d.Equal(d.Round(2)):
		return "must have at most 2 decimal places"
	}
	return ""
}

func checkAmount(field string, d *decimal.Decimal) error {
	if d == nil {
		return nil
	}
	if msg := amountProblem(*d); msg != "" {
		return model.NewValidationError(field, msg)
	}
	return nil
}

// parseDate accepts YYYY-MM-DD or RFC3339 and returns the instant in UTC.
// dateOnly reports which form was given.
func parseDate(field, raw string) (t time.Time, dateOnly bool, err error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false, model.NewValidationError(field, "is required")
	}
	if t, err := time.Parse(dateOnlyLayout, raw); err == nil {
		return t.UTC(), true, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.UTC(), false, nil
	}
	return time.Time{}, false, model.NewValidationError(field, "must be a date (YYYY-MM-DD) or an RFC3339 timestamp")
}
