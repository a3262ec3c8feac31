package handler

import (
	"go-inventory-sales/internal/service"

	"github.com/gofiber/fiber/v2"
)

type ReportHandler struct {
	service service.ReportService
}

func NewReportHandler(s service.ReportService) *ReportHandler {
	return &ReportHandler{service: s}
}

func (h *ReportHandler) GetLowStock(c *fiber.Ctx) error {
	report, err := h.service.LowStock(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(report)
}

func (h *ReportHandler) GetBelowMinimum(c *fiber.Ctx) error {
	report, err := h.service.BelowMinimum(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(report)
}

func (h *ReportHandler) GetInventorySummary(c *fiber.Ctx) error {
	summary, err := h.service.InventorySummary(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(summary)
}

func (h *ReportHandler) GetSalesByStatus(c *fiber.Ctx) error {
	totals, err := h.service.SalesByStatus(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(totals)
}

// GetSalesInPeriod expects ?startDate=...&endDate=...
func (h *ReportHandler) GetSalesInPeriod(c *fiber.Ctx) error {
	report, err := h.service.SalesInPeriod(c.UserContext(), c.Query("startDate"), c.Query("endDate"))
	if err != nil {
		return err
	}
	return c.JSON(report)
}
