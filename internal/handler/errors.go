package handler

import (
	"errors"
	"log/slog"

	"go-inventory-sales/internal/model"

	"github.com/gofiber/fiber/v2"
)

// ErrorHandler maps domain errors to HTTP responses. Anything it does not
// recognise is logged and answered with a generic 500.
func ErrorHandler(log *slog.Logger) fiber.ErrorHandler {
	if log == nil {
		log = slog.Default()
	}

	return func(c *fiber.Ctx, err error) error {
		var (
			validationErr *model.ValidationError
			itemErr       *model.InvalidItemStructureError
			stockErr      *model.InsufficientStockError
			productErr    *model.ProductNotFoundError
			fiberErr      *fiber.Error
		)

		switch {
		case errors.As(err, &validationErr):
			body := fiber.Map{"error": validationErr.Error()}
			if validationErr.Field != "" {
				body["field"] = validationErr.Field
			}
			return c.Status(fiber.StatusBadRequest).JSON(body)

		case errors.As(err, &itemErr):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error":      itemErr.Error(),
				"item_index": itemErr.Index,
			})

		case errors.As(err, &stockErr):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error":        stockErr.Error(),
				"product_id":   stockErr.ProductID,
				"product_name": stockErr.ProductName,
				"available":    stockErr.Available,
				"requested":    stockErr.Requested,
			})

		case errors.As(err, &productErr):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error":      productErr.Error(),
				"product_id": productErr.ProductID,
			})

		case errors.Is(err, model.ErrProductNotFound),
			errors.Is(err, model.ErrSaleNotFound),
			errors.Is(err, model.ErrUserNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})

		case errors.Is(err, model.ErrAccessPending):
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error":  err.Error(),
				"status": model.UserPending,
			})

		case errors.Is(err, model.ErrInvalidToken):
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": err.Error()})

		case errors.As(err, &fiberErr):
			return c.Status(fiberErr.Code).JSON(fiber.Map{"error": fiberErr.Message})
		}

		log.Error("request failed",
			slog.String("method", c.Method()),
			slog.String("path", c.Path()),
			slog.Any("error", err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Internal Server Error"})
	}
}
