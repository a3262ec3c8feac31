package handler

import (
	"log/slog"
	"time"

	"go-inventory-sales/internal/ws"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

// Routes bundles the handlers and guards mounted by RegisterRoutes.
type Routes struct {
	Products *ProductHandler
	Sales    *SaleHandler
	Reports  *ReportHandler
	Auth     *AuthHandler
	Admin    *AdminHandler
	Hub      *ws.Hub

	// DataGuards run before the product, sale and report routes. Empty means open.
	DataGuards []fiber.Handler
	// AdminGuards run before the user approval routes.
	AdminGuards []fiber.Handler
}

// NewApp builds the fiber app with the shared middleware stack.
func NewApp(log *slog.Logger, accessLog bool) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "Inventory Sales API v1.0",
		ErrorHandler: ErrorHandler(log),
	})

	if accessLog {
		app.Use(logger.New()) // Logging request
	}
	app.Use(recover.New()) // Panic recovery
	app.Use(cors.New())    // CORS

	return app
}

func RegisterRoutes(app *fiber.App, r Routes) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "time": time.Now().UTC()})
	})

	// ============ PUBLIC ROUTES ============
	app.Post("/auth/google", r.Auth.GoogleSignIn)

	// ============ DATA ROUTES ============
	data := func(h fiber.Handler) []fiber.Handler {
		return append(append([]fiber.Handler{}, r.DataGuards...), h)
	}

	app.Post("/products", data(r.Products.CreateProduct)...)
	app.Get("/products", data(r.Products.GetProducts)...)
	app.Get("/products/:id", data(r.Products.GetProduct)...)
	app.Put("/products/:id", data(r.Products.UpdateProduct)...)
	app.Delete("/products/:id", data(r.Products.DeleteProduct)...)

	app.Post("/sales", data(r.Sales.CreateSale)...)
	app.Get("/sales", data(r.Sales.GetSales)...)
	app.Get("/sales/:id", data(r.Sales.GetSale)...)
	app.Put("/sales/:id", data(r.Sales.UpdateSale)...)
	app.Delete("/sales/:id", data(r.Sales.DeleteSale)...)

	app.Get("/reports/products/low-stock", data(r.Reports.GetLowStock)...)
	app.Get("/reports/products/below-minimum", data(r.Reports.GetBelowMinimum)...)
	app.Get("/reports/inventory/summary", data(r.Reports.GetInventorySummary)...)
	app.Get("/reports/sales/by-status", data(r.Reports.GetSalesByStatus)...)
	app.Get("/reports/sales/period", data(r.Reports.GetSalesInPeriod)...)

	// ============ ADMIN ROUTES ============
	admin := app.Group("/admin", r.AdminGuards...)
	admin.Get("/users/pending", r.Admin.GetPendingUsers)
	admin.Post("/users/decide", r.Admin.DecideUser)

	// WebSocket Route
	if r.Hub != nil {
		app.Use("/ws", r.Hub.Upgrade)
		app.Get("/ws", r.Hub.Handler())
	}
}
