package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go-inventory-sales/internal/config"
	"go-inventory-sales/internal/handler"
	"go-inventory-sales/internal/identity"
	"go-inventory-sales/internal/logger"
	"go-inventory-sales/internal/middleware"
	"go-inventory-sales/internal/repository"
	"go-inventory-sales/internal/service"
	"go-inventory-sales/internal/telemetry"
	"go-inventory-sales/internal/ws"
	"go-inventory-sales/pkg/database"
	"go-inventory-sales/pkg/jwt"

	"github.com/gofiber/fiber/v2"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// 1. Load Env
	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("failed to load config", slog.Any("error", err))
		os.Exit(1)
	}

	log := logger.Setup(cfg.LogLevel)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 2. Telemetry
	tel, err := telemetry.Setup(ctx, cfg.OTLPEndpoint, cfg.ServiceName)
	if err != nil {
		log.Error("failed to set up telemetry", slog.Any("error", err))
		os.Exit(1)
	}

	// 3. Setup Database
	db, err := database.Connect(cfg.DatabaseOptions(), log)
	if err != nil {
		log.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	if err := repository.AutoMigrate(db); err != nil {
		log.Error("failed to migrate schema", slog.Any("error", err))
		os.Exit(1)
	}

	// 4. Setup WebSocket Hub
	wsHub := ws.NewHub(log)
	go wsHub.Run(ctx)

	// 5. Dependency Injection (Wiring Layers)
	productRepo := repository.NewProductRepo(db)
	saleRepo := repository.NewSaleRepo(db)
	userRepo := repository.NewUserRepo(db)
	outboxRepo := repository.NewOutboxRepo(db)
	reportRepo := repository.NewReportRepo(db)
	txManager := repository.NewTransactionManager(db)

	tokens := jwt.NewManager(cfg.JWTSecret, cfg.JWTTTL)
	verifier := identity.NewGoogleVerifier(cfg.GoogleUserInfoURL)

	catalogService := service.NewCatalogService(productRepo, wsHub)
	saleService := service.NewSaleService(productRepo, saleRepo, outboxRepo, txManager, wsHub, tel, log)
	reportService := service.NewReportService(reportRepo, cfg.LowStockThreshold)
	accessService := service.NewAccessService(userRepo, verifier, tokens, cfg.AdminEmails, log)

	routes := handler.Routes{
		Products:    handler.NewProductHandler(catalogService),
		Sales:       handler.NewSaleHandler(saleService),
		Reports:     handler.NewReportHandler(reportService),
		Auth:        handler.NewAuthHandler(accessService),
		Admin:       handler.NewAdminHandler(accessService),
		Hub:         wsHub,
		AdminGuards: []fiber.Handler{middleware.RequireAuth(tokens, userRepo), middleware.RequireAdmin()},
	}
	if cfg.RequireAuth {
		routes.DataGuards = []fiber.Handler{middleware.RequireAuth(tokens, userRepo)}
	}

	// 6. Setup Fiber
	app := handler.NewApp(log, true)
	handler.RegisterRoutes(app, routes)

	// 7. Graceful Shutdown
	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Error("server stopped", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()

	log.Info("shutting down server...")
	if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
		log.Error("server forced to shutdown", slog.Any("error", err))
	}

	flushCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := tel.Shutdown(flushCtx); err != nil {
		log.Error("telemetry shutdown", slog.Any("error", err))
	}
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}

	log.Info("server exited")
}
